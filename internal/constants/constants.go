package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyTrip   = "trip"
	ContextKeyMember = "trip_member"
)

// Authentication
const (
	MinPasswordLength = 6
	TokenTTL          = 7 * 24 * time.Hour
	SessionName       = "tripmate_session"
	SessionMaxAge     = 86400 * 7
)

// Password reset
const (
	OTPDigits = 6
	OTPMin    = 100000
	OTPMax    = 999999
	OTPTTL    = 10 * time.Minute
)

// Trips and polls
const (
	JoinCodeLength      = 6
	MaxJoinCodeAttempts = 5
	MinPollOptions      = 2
	MaxPollOptions      = 10
)

// Gallery
const (
	MaxImageSize = 5 << 20

	// MaxUploadBodySize caps a whole upload request: one image plus
	// multipart framing.
	MaxUploadBodySize = MaxImageSize + 64<<10
)

// AllowedImageTypes lists the content types accepted for gallery uploads.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// External calls
const (
	EmailTimeout   = 10 * time.Second
	StorageTimeout = 30 * time.Second
	WeatherTimeout = 5 * time.Second
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

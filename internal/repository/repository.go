package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/utils"
)

var (
	// ErrMemberNotFound is returned when the expected trip membership does not exist.
	ErrMemberNotFound = errors.New("repository: trip member not found")
	// ErrAdminRequired is returned when the requester is not an admin of the trip.
	ErrAdminRequired = errors.New("repository: trip admin required")
	// ErrResetNotUsable is returned when no pending reset matches the code or it has expired.
	ErrResetNotUsable = errors.New("repository: password reset not usable")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(email string) (*models.User, error)

	// SavePasswordReset stores a reset code, replacing any pending one
	SavePasswordReset(reset *models.PasswordReset) error

	// ResetPassword consumes the pending code and replaces the password hash
	// in one transaction. It returns ErrResetNotUsable when the code does not
	// match or is no longer usable at now.
	ResetPassword(userID, code string, now time.Time, passwordHash string) error
}

// TripRepository defines the interface for trip data access
type TripRepository interface {
	// CreateWithOwner creates a trip and its first admin membership atomically
	CreateWithOwner(trip *models.Trip, owner *models.TripMember) error

	// FindByID finds a trip by ID with its members
	FindByID(id string) (*models.Trip, error)

	// FindByJoinCode finds a trip by join code with its members
	FindByJoinCode(code string) (*models.Trip, error)

	// Update saves the trip's own columns
	Update(trip *models.Trip) error

	// Delete deletes a trip and all dependent rows, returning the external
	// references of the gallery items that were removed. requesterID must
	// still be an admin once the trip is locked.
	Delete(id, requesterID string) ([]string, error)

	// AddMember inserts a membership unless it already exists
	AddMember(member *models.TripMember) (bool, error)

	// RemoveMember removes a membership under a row lock on the trip.
	// requesterID must be an admin unless it is the member leaving.
	RemoveMember(tripID, userID, requesterID string) (*RemovalResult, error)

	// FindMember finds a specific trip member
	FindMember(tripID, userID string) (*models.TripMember, error)

	// ListMembersByUserID lists all memberships of a user with their trips
	ListMembersByUserID(userID string) ([]models.TripMember, error)
}

// RemovalResult describes the effect of removing a trip member.
type RemovalResult struct {
	// TripDeleted is set when the last member left and the trip was removed.
	TripDeleted bool
	// PromotedUserID is the member promoted to admin, if any.
	PromotedUserID string
	// ExternalRefs lists gallery objects whose rows were deleted with the trip.
	ExternalRefs []string
}

// PollRepository defines the interface for poll data access
type PollRepository interface {
	// Create creates a poll with its options. The creator must still be a
	// member of the trip once it is locked.
	Create(poll *models.Poll) error

	// FindByID finds a poll with ordered options and votes
	FindByID(id string) (*models.Poll, error)

	// ListByTrip lists the polls of a trip, newest first
	ListByTrip(tripID string) ([]models.Poll, error)

	// AddVote inserts a vote unless the user already voted in the poll
	AddVote(vote *models.PollVote) (bool, error)
}

// GalleryRepository defines the interface for gallery data access
type GalleryRepository interface {
	// Create creates a gallery item. The uploader must still be a member of
	// the trip once it is locked.
	Create(item *models.GalleryItem) error

	// FindByID finds a gallery item by ID
	FindByID(id string) (*models.GalleryItem, error)

	// ListByTrip lists a page of a trip's gallery, newest first
	ListByTrip(tripID string, params utils.PaginationParams) ([]models.GalleryItem, int64, error)

	// Delete deletes a gallery item
	Delete(id string) error
}

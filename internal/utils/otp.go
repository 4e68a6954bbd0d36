package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/yukikurage/tripmate-api/internal/constants"
)

// GenerateOTP returns a decimal code drawn uniformly from [OTPMin, OTPMax].
func GenerateOTP() (string, error) {
	span := big.NewInt(constants.OTPMax - constants.OTPMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+constants.OTPMin, 10), nil
}

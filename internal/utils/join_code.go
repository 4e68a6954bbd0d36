package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/yukikurage/tripmate-api/internal/constants"
)

// joinCodeAlphabet omits characters that are easy to confuse when read
// aloud or typed (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateJoinCode generates a random human-shareable trip code such as "K7QX2M"
func GenerateJoinCode() (string, error) {
	var b strings.Builder
	b.Grow(constants.JoinCodeLength)

	size := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < constants.JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// NormalizeJoinCode trims and upper-cases a user supplied code.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsJoinCode reports whether code, after normalization, has the shape of a
// generated join code.
func IsJoinCode(code string) bool {
	code = NormalizeJoinCode(code)
	if len(code) != constants.JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(joinCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

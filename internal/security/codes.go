package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const InviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const inviteCodeLength = 6

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString draws length symbols uniformly from alphabet using crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", errNegativeLength
	case length == 0:
		return "", nil
	case alphabet == "":
		return "", errEmptyAlphabet
	}

	symbols := []rune(alphabet)
	limit := big.NewInt(int64(len(symbols)))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		builder.WriteRune(symbols[position.Int64()])
	}
	return builder.String(), nil
}

func NewInviteCode() (string, error) {
	return RandomString(inviteCodeLength, InviteCodeAlphabet)
}

func NormalizeInviteCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func IsValidInviteCode(code string) bool {
	if len(code) != inviteCodeLength {
		return false
	}
	for _, char := range code {
		if !strings.ContainsRune(InviteCodeAlphabet, char) {
			return false
		}
	}
	return true
}

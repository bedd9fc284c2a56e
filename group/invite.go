package group

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// InviteAlphabet is the character set invite codes are drawn from.
const InviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultInviteCodeLength is the length used when none is configured.
const DefaultInviteCodeLength = 8

// NewInviteCode returns a random code of the given length from InviteAlphabet.
func NewInviteCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("group: invalid invite code length %d", length)
	}

	limit := big.NewInt(int64(len(InviteAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("group: generate invite code: %w", err)
		}
		b.WriteByte(InviteAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode trims and upper-cases user input.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Package secret generates and classifies application secrets.
package secret

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Alphabet is the character set used for generated secret keys.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*(-_=+)"

const (
	// DefaultLength is the length of generated keys.
	DefaultLength = 50
	// MinLength is the shortest generated value accepted.
	MinLength = 50
)

// Generator produces a fresh secret value.
type Generator func() (string, error)

// NewGenerator returns a Generator drawing length characters uniformly from
// Alphabet using r as the entropy source.
func NewGenerator(r io.Reader, length int) Generator {
	return func() (string, error) {
		size := big.NewInt(int64(len(Alphabet)))
		var b strings.Builder
		b.Grow(length)
		for i := 0; i < length; i++ {
			n, err := rand.Int(r, size)
			if err != nil {
				return "", fmt.Errorf("read entropy: %w", err)
			}
			b.WriteByte(Alphabet[n.Int64()])
		}
		return b.String(), nil
	}
}

// Default returns the crypto/rand backed generator of DefaultLength.
func Default() Generator {
	return NewGenerator(rand.Reader, DefaultLength)
}

// CheckStrength rejects generated values that are too short.
func CheckStrength(v string) error {
	if len(v) < MinLength {
		return fmt.Errorf("generated secret has %d characters, need at least %d", len(v), MinLength)
	}
	return nil
}

var placeholders = map[string]bool{
	"":            true,
	"changeme":    true,
	"change-me":   true,
	"change_me":   true,
	"placeholder": true,
	"todo":        true,
	"xxx":         true,
	"secret":      true,
}

// IsPlaceholder reports whether v is an obvious stand-in rather than a real
// value, so it may be replaced without force.
func IsPlaceholder(v string) bool {
	t := strings.ToLower(strings.TrimSpace(v))
	if placeholders[t] {
		return true
	}
	if strings.HasPrefix(t, "<") && strings.HasSuffix(t, ">") {
		return true
	}
	return strings.HasPrefix(t, "your-") || strings.HasPrefix(t, "your_")
}

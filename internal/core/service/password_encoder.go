package service

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-admin/internal/core/domain"
)

const (
	// DefaultBcryptCost matches the work factor the accounts were originally hashed with.
	DefaultBcryptCost = 12

	// EncodedPrefix is the scheme marker golang.org/x/crypto/bcrypt writes on every hash.
	EncodedPrefix = "$2a$"
)

// DefaultPasswords are the demo credentials whose hashes are computed once at startup.
var DefaultPasswords = []string{"admin", "user", "test"}

// PasswordEncoder hashes passwords with bcrypt. Hashes of a small set of
// default passwords are precomputed in the constructor; the cache is never
// written afterwards, so concurrent reads need no locking.
type PasswordEncoder struct {
	cost     int
	defaults map[string]string
}

// NewPasswordEncoder builds an encoder with the given bcrypt cost (zero selects
// DefaultBcryptCost) and precomputes the hash of every default password.
func NewPasswordEncoder(cost int, defaults []string) (*PasswordEncoder, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d,%d]", domain.ErrInvalidInput, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	e := &PasswordEncoder{cost: cost, defaults: make(map[string]string, len(defaults))}
	for _, pw := range defaults {
		pw = strings.TrimSpace(pw)
		if pw == "" {
			continue
		}
		if _, ok := e.defaults[pw]; ok {
			continue
		}
		hash, err := e.hash(pw)
		if err != nil {
			return nil, fmt.Errorf("precompute default password hash: %w", err)
		}
		e.defaults[pw] = hash
	}
	return e, nil
}

// Encode trims and hashes a plaintext password. Default passwords resolve to
// their cached hash.
func (e *PasswordEncoder) Encode(plain string) (string, error) {
	trimmed := strings.TrimSpace(plain)
	if trimmed == "" {
		return "", fmt.Errorf("%w: password must not be empty", domain.ErrInvalidInput)
	}
	if hash, ok := e.defaults[trimmed]; ok {
		return hash, nil
	}
	return e.hash(trimmed)
}

// DefaultHash returns the cached hash for a default password.
func (e *PasswordEncoder) DefaultHash(plain string) (string, bool) {
	hash, ok := e.defaults[strings.TrimSpace(plain)]
	return hash, ok
}

// IsEncoded reports whether value is a bcrypt hash carrying EncodedPrefix.
func (e *PasswordEncoder) IsEncoded(value string) bool {
	return strings.HasPrefix(value, EncodedPrefix) && e.IsHash(value)
}

// IsHash reports whether value is any bcrypt hash, including the $2b$ and $2y$
// variants written by other bcrypt implementations.
func (e *PasswordEncoder) IsHash(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}

// Matches verifies a plaintext candidate against a stored hash. The candidate
// is trimmed the same way Encode trims it.
func (e *PasswordEncoder) Matches(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(plain))) == nil
}

func (e *PasswordEncoder) hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), e.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password exceeds 72 bytes", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

package ports

// PasswordEncoder hashes and verifies credentials.
type PasswordEncoder interface {
	// Encode hashes a plaintext password. Blank input yields domain.ErrInvalidInput.
	Encode(plain string) (string, error)
	// DefaultHash returns the precomputed hash of a well-known default password.
	DefaultHash(plain string) (string, bool)
	// IsEncoded reports whether value is already a stored hash.
	IsEncoded(value string) bool
	// IsHash reports whether value parses as a bcrypt hash of any variant
	// ($2a$, $2b$, $2y$).
	IsHash(value string) bool
	Matches(plain, hash string) bool
}

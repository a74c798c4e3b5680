package ports

// PasswordHasher hashes and verifies credentials passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

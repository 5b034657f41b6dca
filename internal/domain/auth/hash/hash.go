package hash

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports (false, nil) on mismatch and an error only for a malformed hash.
	Verify(plaintext, encoded string) (bool, error)
}

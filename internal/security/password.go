package security

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is the shortest password accepted anywhere a
// password is set: registration, reset, profile change, and the admin
// user endpoints all enforce it.
const MinPasswordLength = 8

// bcryptCost is the work factor for stored account credentials.
const bcryptCost = 12

// HashPassword derives the bcrypt hash stored on a user row. The
// plaintext is never persisted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches a stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

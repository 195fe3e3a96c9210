package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost fixes the work factor at 2^10 rounds, matching what existing
// stored hashes were created with.
const bcryptCost = 10

// HashPassword hashes a password with bcrypt. The salt is random per call,
// so hashing the same password twice yields different strings that both
// verify against it.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks whether a password matches the given bcrypt hash.
// bcrypt's comparison does not leak timing that distinguishes a wrong
// password from a malformed hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

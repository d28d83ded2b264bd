package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no stored hash exists, so that
// lookups for unknown accounts take as long as failed password checks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("scribe-dummy-password"), bcrypt.DefaultCost)

// HashPassword hashes the given password using bcrypt with the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether the password matches the stored hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck performs a bcrypt comparison against a throwaway hash.
// Called on login attempts for accounts that do not exist.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

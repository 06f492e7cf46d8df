package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored credentials.
const PasswordCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, _ := HashPassword("no-account-placeholder")
	return hash
})

// DummyPasswordHash is a valid hash at PasswordCost that matches no real
// password. Comparing against it when an account is missing keeps the
// failure path as slow as a wrong password.
func DummyPasswordHash() string {
	return dummyHash()
}

package util

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Kept in one place so hashes written at registration
// verify with the same cost at login and reset time.
const (
	passwordSaltLen = 16
	passwordKeyLen  = 32
	passwordTime    = 1
	passwordMemory  = 64 * 1024
	passwordThreads = 4
)

// DerivePassword hashes a plaintext password under a fresh random salt.
// The plaintext is never retained.
func DerivePassword(password string) (hash, salt []byte, err error) {
	if password == "" {
		return nil, nil, errors.New("password cannot be empty")
	}
	salt = make([]byte, passwordSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}
	return hashPassword(password, salt), salt, nil
}

// VerifyPassword recomputes the hash for the candidate password under the
// stored salt and compares in constant time.
func VerifyPassword(password string, salt, expectedHash []byte) bool {
	if password == "" || len(salt) == 0 || len(expectedHash) == 0 {
		return false
	}
	candidate := hashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, expectedHash) == 1
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, passwordTime, passwordMemory, passwordThreads, passwordKeyLen)
}

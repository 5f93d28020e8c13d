package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateResetCode returns a numeric one-time code of exactly the requested
// number of digits. The code is a single uniform draw over [0, 10^digits),
// zero-padded, so every code is equally likely.
func GenerateResetCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

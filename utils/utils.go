package utils

import (
	"crypto/rand"
	"math/big"
)

var digitRunes = []rune("0123456789")

// GenerateRandomDigitString creates a random numeric string of length n
// from crypto/rand, suitable for one-time codes.
func GenerateRandomDigitString(n int) string {
	b := make([]rune, n)
	max := big.NewInt(int64(len(digitRunes)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = digitRunes[idx.Int64()]
	}
	return string(b)
}

package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowerLetters      = "abcdefghijklmnopqrstuvwxyz"
	upperLetters      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	generatedPassword = 12
)

// GeneratePassword returns a random 12-letter password with at least one
// uppercase and one lowercase letter.
func GeneratePassword() (string, error) {
	letters := lowerLetters + upperLetters
	buf := make([]byte, generatedPassword)

	var err error
	if buf[0], err = randomByte(upperLetters); err != nil {
		return "", err
	}
	if buf[1], err = randomByte(lowerLetters); err != nil {
		return "", err
	}
	for i := 2; i < len(buf); i++ {
		if buf[i], err = randomByte(letters); err != nil {
			return "", err
		}
	}

	// Fisher-Yates so the guaranteed letters are not always first.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func randomByte(alphabet string) (byte, error) {
	i, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random index: %w", err)
	}
	return int(v.Int64()), nil
}

package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/google/uuid"
)

const resetTokenSize = 32

// NewAccountID returns a random UUID string.
func NewAccountID() string {
	return uuid.NewString()
}

// NewOTP returns a uniformly random code with exactly digits decimal digits.
// The leading digit is never zero so the code survives integer storage.
func NewOTP(digits int) (int, error) {
	if digits < 4 || digits > 9 {
		return 0, errors.New("invalid otp digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := big.NewInt(low*10 - low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return int(low + n.Int64()), nil
}

// NewResetToken returns a hex recovery token and the digest that is stored.
func NewResetToken() (string, string, error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(raw[:])
	return token, HashResetToken(token), nil
}

// HashResetToken returns the hex SHA-256 digest of token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

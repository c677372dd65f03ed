package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateOTP generates a 6-digit OTP drawn uniformly from 100000-999999
// using crypto/rand. The error path only triggers when the system random
// source is unavailable, in which case issuing a code is the wrong move anyway.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashOTP returns the hex-encoded SHA-256 of a code. Only the hash is ever
// stored; the plaintext exists in memory just long enough to email it.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

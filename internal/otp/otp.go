package otp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ==============================================
// OTP CONFIGURATION
// ==============================================

const (
	// CodeLength is the number of digits in a generated code.
	CodeLength = 6

	// ValidityWindow is the lifetime advertised to the user in the email copy.
	ValidityWindow = 60 * time.Second

	// StoreTTL is how long a record actually lives in storage. It is longer
	// than ValidityWindow to tolerate clock and processing skew while still
	// bounding storage growth; ExpiresAt derived from it is authoritative.
	StoreTTL = 120 * time.Second

	// MaxAttempts is the number of wrong guesses allowed per code.
	MaxAttempts = 3
)

// Purpose scopes a challenge: the same email can hold one live login code and
// one live signup code at a time.
type Purpose string

const (
	PurposeLogin  Purpose = "login"
	PurposeSignup Purpose = "signup"
)

// Key builds the storage key for a (purpose, recipient) pair.
func Key(purpose Purpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

// ==============================================
// ERRORS
// ==============================================

var (
	// ErrNotFoundOrExpired means no live challenge exists; the caller must
	// restart via resend or re-login.
	ErrNotFoundOrExpired = errors.New("OTP has expired or doesn't exist")

	// ErrTooManyAttempts means the challenge was invalidated as a
	// countermeasure; only re-issuing recovers.
	ErrTooManyAttempts = errors.New("too many failed attempts, please request a new OTP")

	// ErrInvalidCode means a wrong guess; the challenge stays live and one
	// attempt was consumed.
	ErrInvalidCode = errors.New("invalid OTP")

	// ErrDeliveryFailed means the code was stored but the email send failed;
	// the user should not wait for a message that may never arrive.
	ErrDeliveryFailed = errors.New("failed to send OTP email")

	// ErrStorageFailed marks shared-store infrastructure failures. The engine
	// absorbs it by degrading to the in-memory fallback; it never reaches end
	// users.
	ErrStorageFailed = errors.New("OTP storage unavailable")

	// ErrConsumeContention means concurrent writers kept aborting the verify
	// transaction. The challenge is untouched; the caller should retry.
	ErrConsumeContention = errors.New("OTP verification contended, please retry")
)

// ==============================================
// RECORD & STORE CONTRACT
// ==============================================

// Record is one outstanding verification challenge. The plaintext code is
// never persisted, only its hash.
type Record struct {
	HashedCode string    `json:"hashed_otp"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	Purpose    string    `json:"purpose"`
}

// Store is the persistence contract shared by the Redis store and the
// in-memory fallback.
//
// Consume performs the whole verify step as one atomic operation: lookup,
// expiry check, attempt-limit check, constant-time hash compare, and either
// delete-on-match or increment-on-mismatch. Splitting those steps would let
// two concurrent callers both observe success for a single code. It returns
// nil on a match, one of ErrNotFoundOrExpired / ErrTooManyAttempts /
// ErrInvalidCode on the verification outcomes, and an ErrStorageFailed-wrapped
// error when the store itself is unreachable.
type Store interface {
	Save(ctx context.Context, key string, rec *Record, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Consume(ctx context.Context, key, hashedCode string, maxAttempts int) error
}

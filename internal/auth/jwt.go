package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenDuration is how long a full session token is valid
const SessionTokenDuration = 24 * time.Hour

// PendingTokenDuration bounds the window between a successful password check
// and the OTP verification that completes the login.
const PendingTokenDuration = 5 * time.Minute

// Claims represents session JWT claims
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// PendingClaims carries the identity held between the password step and the
// OTP step of a two-factor login. It is not a session: handlers must reject
// it anywhere a session token is expected, which the distinct Scope claim
// enforces.
type PendingClaims struct {
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
	Remember bool   `json:"remember"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

const (
	sessionScope = "session"
	pendingScope = "otp_pending"
)

// GenerateSessionToken generates a session JWT for an authenticated user
func GenerateSessionToken(userID int, role, secret string, remember bool) (string, int, error) {
	ttl := SessionTokenDuration
	if remember {
		ttl = 30 * 24 * time.Hour
	}
	expirationTime := time.Now().Add(ttl)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		Scope:  sessionScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(ttl.Seconds()), nil
}

// ValidateSessionToken validates a session JWT and returns user ID and role
func ValidateSessionToken(tokenString, secret string) (int, string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return 0, "", err
	}

	if !token.Valid || claims.Scope != sessionScope {
		return 0, "", errors.New("invalid token")
	}

	return claims.UserID, claims.Role, nil
}

// GeneratePendingToken signs the OtpPending state for a login or signup
// challenge: who is being challenged, why, and whether "remember me" was set.
func GeneratePendingToken(email, purpose, secret string, remember bool) (string, error) {
	now := time.Now()
	claims := &PendingClaims{
		Email:    email,
		Purpose:  purpose,
		Remember: remember,
		Scope:    pendingScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(PendingTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidatePendingToken validates a pending-login JWT and returns its claims
func ValidatePendingToken(tokenString, secret string) (*PendingClaims, error) {
	claims := &PendingClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Scope != pendingScope {
		return nil, errors.New("invalid pending token")
	}

	return claims, nil
}

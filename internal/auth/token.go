// Package auth issues and reads the session tokens shared by the
// dashboard server and the CLI.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrInvalidToken indicates a token that fails parsing or validation.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrMissingSecret indicates signing or verifying without a secret.
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// Claims is the session token payload.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature and expiry and returns the claims.
func VerifyToken(secret, token string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing uid claim", ErrInvalidToken)
	}
	return claims, nil
}

// PeekUserID reads the uid claim without verifying the signature. The CLI
// uses it to learn who it is signed in as; the server still verifies.
func PeekUserID(token string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing uid claim", ErrInvalidToken)
	}
	return claims.UserID, nil
}

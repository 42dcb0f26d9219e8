package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenClaims are issued by the sign-in flow and stored in the session cookie.
type SessionTokenClaims struct {
	jwt.RegisteredClaims

	// SessionID is the provider session the cookie is bound to.
	SessionID string `json:"sid"`
}

type VerifiedSession struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// VerifySessionToken verifies a session cookie (JWT, HS256) and returns the provider session it refers to.
func VerifySessionToken(tokenString string, secret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	claims := &SessionTokenClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("missing session id in token")
	}

	return &VerifiedSession{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignSessionToken issues a session cookie value; used by the sign-in flow and tests.
func SignSessionToken(userID, sessionID, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionID: sessionID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

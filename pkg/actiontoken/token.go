package actiontoken

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("action token secret is empty")
	ErrMissingID   = errors.New("request id is required")
)

// Claims binds a token to one request, its creation instant and one action.
// There is no exp or jti: the same inputs always produce the same token.
type Claims struct {
	Action    string `json:"act"`
	CreatedAt int64  `json:"ts"` // unix microseconds
	jwt.RegisteredClaims
}

// Signer issues and verifies approve/reject link tokens with a server-held secret
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. The secret must be non-empty.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Issue derives the token for (requestID, createdAt, action)
func (s *Signer) Issue(requestID string, createdAt time.Time, action string) (string, error) {
	if requestID == "" {
		return "", ErrMissingID
	}

	claims := &Claims{
		Action:    action,
		CreatedAt: Canonical(createdAt).UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: requestID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign action token: %w", err)
	}
	return signed, nil
}

// Verify recomputes the token and compares in constant time
func (s *Signer) Verify(requestID string, createdAt time.Time, action, token string) bool {
	if token == "" {
		return false
	}
	expected, err := s.Issue(requestID, createdAt, action)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// Canonical normalizes a timestamp to the precision a SQL timestamp column keeps.
func Canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

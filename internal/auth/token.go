package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for sess. Tokens carry no expiry; they are
// valid exactly as long as the session they name is the current one.
func (s *Service) IssueToken(sess *Session) (string, error) {
	claims := sessionClaims{
		Email: sess.Email,
		Name:  sess.Name,
		Role:  sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.ID,
			ID:       sess.SessionID,
			IssuedAt: jwt.NewNumericDate(sess.SignInTime),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the current session if raw was issued for it.
func (s *Service) VerifyToken(raw string) (*Session, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	cur, ok := s.CurrentUser()
	if !ok || cur.SessionID != claims.ID || cur.ID != claims.Subject {
		return nil, ErrUnauthorized
	}
	return cur, nil
}

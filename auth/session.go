package auth

import (
	"context"
	"fmt"

	jwt "github.com/dgrijalva/jwt-go"
)

// Session is the one object authenticated components receive. Every accessor
// goes back to the credential store, so a logout is seen by the next call.
type Session struct {
	store *CredentialStore
}

func NewSession(store *CredentialStore) *Session {
	return &Session{store: store}
}

func (s *Session) Token(ctx context.Context) (string, bool) {
	return s.store.Token(ctx)
}

func (s *Session) Active(ctx context.Context) bool {
	_, ok := s.store.Token(ctx)
	return ok
}

// UserID reads the user id claim out of the bearer token. The signature is
// not checked: the backend remains the authority, this only tells the client
// who it is.
func (s *Session) UserID(ctx context.Context) (string, error) {
	token, ok := s.store.Token(ctx)
	if !ok {
		return "", ErrNoToken
	}
	return userIDFromToken(token)
}

func userIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token claims: %w", err)
	}

	for _, key := range []string{"userId", "id", "_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", ErrNoUserClaim
}

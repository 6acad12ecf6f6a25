package auth

import (
	"context"
	"errors"
	"log/slog"

	"cityconnect/db"
	"cityconnect/logger"
)

const (
	TokenKey    = "userToken"
	LanguageKey = "language"
)

// KeyValue is the persistent storage behind the credential store.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CredentialStore holds the single bearer token. There is no expiry
// tracking: an expired token is only discovered when the backend rejects it.
type CredentialStore struct {
	kv  KeyValue
	log *slog.Logger
}

func NewCredentialStore(kv KeyValue, log *slog.Logger) *CredentialStore {
	if log == nil {
		log = logger.Discard()
	}
	return &CredentialStore{kv: kv, log: log}
}

// Token returns the stored token. Read failures count as no token.
func (s *CredentialStore) Token(ctx context.Context) (string, bool) {
	token, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("token read failed, treating as signed out", slog.String("error", err.Error()))
		}
		return "", false
	}
	return token, token != ""
}

func (s *CredentialStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	return s.kv.Set(ctx, TokenKey, token)
}

func (s *CredentialStore) ClearToken(ctx context.Context) error {
	return s.kv.Delete(ctx, TokenKey)
}

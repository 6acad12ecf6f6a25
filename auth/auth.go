package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"cityconnect/api"
	"cityconnect/logger"
	"cityconnect/types"
)

var (
	ErrNoToken       = errors.New("no session token")
	ErrNoUserClaim   = errors.New("token carries no user id")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Service runs every /auth call and owns the session state the screen tree
// branches on.
type Service struct {
	client *api.Client
	store  *CredentialStore
	log    *slog.Logger

	mu        sync.Mutex
	state     State
	profile   *types.User
	listeners []func(State)
}

func NewService(client *api.Client, store *CredentialStore, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{client: client, store: store, log: log, state: StateUnknown}
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the user the last successful verification returned.
func (s *Service) Profile() *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// OnChange registers fn to run after every state transition.
func (s *Service) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) transition(state State, profile *types.User) {
	s.mu.Lock()
	s.state = state
	s.profile = profile
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Resolve decides the launch state. Without a token no request is made. With
// one, a single profile call settles it; any failure drops the token.
func (s *Service) Resolve(ctx context.Context) State {
	if _, ok := s.store.Token(ctx); !ok {
		s.transition(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	var profile types.User
	if err := s.client.Get(ctx, "/auth/profile", &profile); err != nil {
		s.log.Info("session verification failed, signing out", slog.String("error", err.Error()))
		if clearErr := s.store.ClearToken(ctx); clearErr != nil {
			s.log.Warn("failed to clear rejected token", slog.String("error", clearErr.Error()))
		}
		s.transition(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	s.transition(StateAuthenticated, &profile)
	return StateAuthenticated
}

func (s *Service) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingField
	}
	return s.signIn(ctx, "/auth/register", req)
}

func (s *Service) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingField
	}
	return s.signIn(ctx, "/auth/login", req)
}

// LoginWithGoogle exchanges a Google ID token obtained by the platform
// sign-in flow for a backend session.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*types.AuthResponse, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrMissingField
	}
	return s.signIn(ctx, "/auth/google", types.GoogleLoginRequest{IDToken: idToken})
}

func (s *Service) signIn(ctx context.Context, path string, body any) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	if err := s.client.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoToken)
	}
	if err := s.store.SetToken(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	s.transition(StateAuthenticated, resp.User)
	return &resp, nil
}

// Logout always ends unauthenticated, even if the token could not be removed.
func (s *Service) Logout(ctx context.Context) error {
	err := s.store.ClearToken(ctx)
	s.transition(StateUnauthenticated, nil)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingField
	}
	return s.client.Put(ctx, "/auth/change-password", types.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, nil)
}

func (s *Service) ChangeUsername(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrMissingField
	}
	if err := s.client.Put(ctx, "/auth/change-username", types.ChangeUsernameRequest{Username: username}, nil); err != nil {
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		updated := *s.profile
		updated.Username = username
		s.profile = &updated
	}
	s.mu.Unlock()
	return nil
}

// DeleteAccount removes the account server-side then drops the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.client.Delete(ctx, "/auth/delete", nil); err != nil {
		return err
	}
	return s.Logout(ctx)
}

func (s *Service) Rate(ctx context.Context, userID string, rating int) (*types.RateResponse, error) {
	if userID == "" {
		return nil, ErrMissingField
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	var resp types.RateResponse
	path := "/auth/" + url.PathEscape(userID) + "/rate"
	if err := s.client.Post(ctx, path, types.RateRequest{Rating: rating}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package auth_test

import (
	"context"
	"errors"
	"testing"

	"cityconnect/api"
	"cityconnect/apitest"
	"cityconnect/auth"
	"cityconnect/types"
)

func TestResolveWithoutTokenMakesNoRequest(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)

	if got := stack.Auth.Resolve(context.Background()); got != auth.StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", got)
	}
	if n := len(backend.Requests()); n != 0 {
		t.Fatalf("expected no network call, got %d: %v", n, backend.Requests())
	}
}

func TestResolveWithValidToken(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	userID := stack.SignIn(t, backend, "alice")

	if got := stack.Auth.Resolve(context.Background()); got != auth.StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
	profile := stack.Auth.Profile()
	if profile == nil || profile.ID != userID {
		t.Fatalf("expected profile for %s, got %+v", userID, profile)
	}
	if backend.RequestCount("GET /auth/profile") != 1 {
		t.Fatalf("expected exactly one verification call, got %v", backend.Requests())
	}
}

func TestResolveRejectedTokenIsPurged(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	userID := stack.SignIn(t, backend, "bob")
	backend.RevokeTokens(userID)

	ctx := context.Background()
	if got := stack.Auth.Resolve(ctx); got != auth.StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", got)
	}
	if _, ok := stack.Store.Token(ctx); ok {
		t.Fatalf("expected rejected token to be cleared")
	}
	if backend.RequestCount("GET /auth/profile") != 1 {
		t.Fatalf("expected no retry, got %v", backend.Requests())
	}
}

func TestResolveServerErrorAlsoSignsOut(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	stack.SignIn(t, backend, "carol")
	backend.Fail("GET /auth/profile", 503, "maintenance")

	ctx := context.Background()
	if got := stack.Auth.Resolve(ctx); got != auth.StateUnauthenticated {
		t.Fatalf("expected unauthenticated on 503, got %v", got)
	}
	if stack.Session.Active(ctx) {
		t.Fatalf("expected session cleared")
	}
}

func TestFailingStoreReadIsSignedOut(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	stack.SignIn(t, backend, "dave")
	stack.KV.GetErr = apitest.ErrStorageUnavailable

	if got := stack.Auth.Resolve(context.Background()); got != auth.StateUnauthenticated {
		t.Fatalf("expected fail-open to unauthenticated, got %v", got)
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("expected no request when the token cannot be read")
	}
}

func TestLoginStoresTokenAndNotifies(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.AddUser("erin", "erin@example.test", "pw")
	stack := backend.NewStack(t)

	var states []auth.State
	stack.Auth.OnChange(func(s auth.State) { states = append(states, s) })

	ctx := context.Background()
	resp, err := stack.Auth.Login(ctx, types.LoginRequest{Email: "erin@example.test", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token, ok := stack.Session.Token(ctx)
	if !ok || token != resp.Token {
		t.Fatalf("expected token persisted")
	}
	if stack.Auth.State() != auth.StateAuthenticated {
		t.Fatalf("expected authenticated after login")
	}

	if err := stack.Auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if stack.Session.Active(ctx) {
		t.Fatalf("expected token cleared on logout")
	}
	if len(states) != 2 || states[0] != auth.StateAuthenticated || states[1] != auth.StateUnauthenticated {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestLoginFailureCarriesBackendMessage(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.AddUser("frank", "frank@example.test", "pw")
	stack := backend.NewStack(t)
	ctx := context.Background()

	_, err := stack.Auth.Login(ctx, types.LoginRequest{Email: "frank@example.test", Password: "wrong"})
	if api.Message(err) != "Identifiants invalides" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if stack.Session.Active(ctx) {
		t.Fatalf("failed login must not store a token")
	}
}

func TestValidationBeforeNetwork(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"login without password", func() error {
			_, err := stack.Auth.Login(ctx, types.LoginRequest{Email: "a@b.c"})
			return err
		}, auth.ErrMissingField},
		{"register without email", func() error {
			_, err := stack.Auth.Register(ctx, types.RegisterRequest{Username: "x", Password: "y"})
			return err
		}, auth.ErrMissingField},
		{"google without id token", func() error {
			_, err := stack.Auth.LoginWithGoogle(ctx, " ")
			return err
		}, auth.ErrMissingField},
		{"rating out of range", func() error {
			_, err := stack.Auth.Rate(ctx, "u1", 6)
			return err
		}, auth.ErrInvalidRating},
		{"blank username", func() error {
			return stack.Auth.ChangeUsername(ctx, "  ")
		}, auth.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("validation failures must not hit the network: %v", backend.Requests())
	}
}

func TestRegisterGoogleAndAccountFlows(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	ctx := context.Background()

	if _, err := stack.Auth.Register(ctx, types.RegisterRequest{Username: "gina", Email: "gina@example.test", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := stack.Auth.ChangePassword(ctx, "pw", "pw2"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := stack.Auth.ChangeUsername(ctx, "gina2"); err != nil {
		t.Fatalf("change username: %v", err)
	}
	if p := stack.Auth.Profile(); p == nil || p.Username != "gina2" {
		t.Fatalf("expected cached profile renamed, got %+v", p)
	}

	other := backend.AddUser("henry", "henry@example.test", "pw")
	rating, err := stack.Auth.Rate(ctx, other.ID, 4)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rating.Rating != 4 {
		t.Fatalf("expected rating 4, got %v", rating.Rating)
	}

	if err := stack.Auth.DeleteAccount(ctx); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if stack.Session.Active(ctx) || stack.Auth.State() != auth.StateUnauthenticated {
		t.Fatalf("expected session gone after account deletion")
	}

	if _, err := stack.Auth.LoginWithGoogle(ctx, "google-sub-1"); err != nil {
		t.Fatalf("google login: %v", err)
	}
	if !stack.Session.Active(ctx) {
		t.Fatalf("expected token after google login")
	}
}

func TestUnauthorizedElsewhereDoesNotSignOut(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	userID := stack.SignIn(t, backend, "ivy")
	ctx := context.Background()
	stack.Auth.Resolve(ctx)
	backend.RevokeTokens(userID)

	err := stack.Auth.ChangePassword(ctx, "secret", "other")
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if !stack.Session.Active(ctx) || stack.Auth.State() != auth.StateAuthenticated {
		t.Fatalf("a 401 outside verification must leave the session in place")
	}
}

func TestSessionUserID(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	ctx := context.Background()

	if _, err := stack.Session.UserID(ctx); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	userID := stack.SignIn(t, backend, "jade")
	got, err := stack.Session.UserID(ctx)
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}

	if err := stack.Store.SetToken(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if _, err := stack.Session.UserID(ctx); err == nil {
		t.Fatalf("expected parse error for opaque token")
	}
}

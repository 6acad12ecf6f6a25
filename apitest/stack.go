package apitest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cityconnect/api"
	"cityconnect/auth"
	"cityconnect/db"
)

// MemoryKV is an in-process stand-in for db.KV.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
	reads  int

	// GetErr, when set, is returned by every Get.
	GetErr error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", db.ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

var ErrStorageUnavailable = errors.New("storage unavailable")

// Stack is the client side wired against a Backend.
type Stack struct {
	KV      *MemoryKV
	Store   *auth.CredentialStore
	Session *auth.Session
	Client  *api.Client
	Auth    *auth.Service
}

func (b *Backend) NewStack(t *testing.T) *Stack {
	t.Helper()
	kv := NewMemoryKV()
	store := auth.NewCredentialStore(kv, nil)
	session := auth.NewSession(store)
	client := api.New(b.URL, session)
	return &Stack{
		KV:      kv,
		Store:   store,
		Session: session,
		Client:  client,
		Auth:    auth.NewService(client, store, nil),
	}
}

// SignIn creates a user and stores a valid token for it.
func (s *Stack) SignIn(t *testing.T, b *Backend, username string) string {
	t.Helper()
	u := b.AddUser(username, username+"@example.test", "secret")
	if err := s.Store.SetToken(context.Background(), b.IssueToken(u.ID)); err != nil {
		t.Fatalf("store token: %v", err)
	}
	return u.ID
}

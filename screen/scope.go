// Package screen ties outstanding requests to the lifetime of the view that
// started them.
package screen

import (
	"context"
	"sync"
)

// Scope is created when a view gains focus and closed when it loses it.
// Requests run under Context(); once closed they are cancelled and any
// result that still arrives must be dropped via Apply.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.ctx.Err() != nil
}

// Apply runs fn only while the scope is open, holding the scope lock so
// Close cannot interleave. It reports whether fn ran.
func (s *Scope) Apply(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

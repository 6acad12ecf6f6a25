package geo

import (
	"context"
	"fmt"
	"sync"

	"cityconnect/alerts"
)

// LocationProvider stands in for the device's location service.
type LocationProvider interface {
	RequestPermission(ctx context.Context) error
	Current(ctx context.Context) (Coordinate, error)
}

// Static reports a fixed position once permission has been requested.
type Static struct {
	position Coordinate

	mu      sync.Mutex
	granted bool
	asked   int
}

func NewStatic(position Coordinate) *Static {
	return &Static{position: position}
}

func (s *Static) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked++
	s.granted = true
	return nil
}

func (s *Static) Current(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.granted {
		return Coordinate{}, fmt.Errorf("location: %w", alerts.ErrPermissionDenied)
	}
	return s.position, nil
}

// MoveTo changes the position reported from now on.
func (s *Static) MoveTo(position Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
}

// Requests is how many times permission was asked for.
func (s *Static) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked
}

// Denied refuses every permission request.
type Denied struct{}

func (Denied) RequestPermission(context.Context) error {
	return fmt.Errorf("location: %w", alerts.ErrPermissionDenied)
}

func (Denied) Current(context.Context) (Coordinate, error) {
	return Coordinate{}, fmt.Errorf("location: %w", alerts.ErrPermissionDenied)
}

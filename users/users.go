package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"cityconnect/api"
	"cityconnect/types"
)

var ErrMissingID = errors.New("user id is required")

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Get(ctx context.Context, id string) (*types.User, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var user types.User
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), &user); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

// Activities lists the activities the user created or joined.
func (s *Service) Activities(ctx context.Context, id string) ([]types.Activity, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var activities []types.Activity
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id)+"/activities", &activities); err != nil {
		return nil, fmt.Errorf("list activities of %s: %w", id, err)
	}
	return activities, nil
}

func (s *Service) UpdateBio(ctx context.Context, bio string) (*types.User, error) {
	var user types.User
	if err := s.client.Put(ctx, "/users/update-bio", types.UpdateBioRequest{Bio: bio}, &user); err != nil {
		return nil, fmt.Errorf("update bio: %w", err)
	}
	return &user, nil
}

package conversations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cityconnect/api"
	"cityconnect/types"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrMissingID    = errors.New("conversation id is required")
)

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Mine(ctx context.Context) ([]types.Conversation, error) {
	var convs []types.Conversation
	if err := s.client.Get(ctx, "/conversations/my-conversations", &convs); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (s *Service) Get(ctx context.Context, id string) (*types.Conversation, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var conv types.Conversation
	if err := s.client.Get(ctx, "/conversations/"+url.PathEscape(id), &conv); err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &conv, nil
}

func (s *Service) Send(ctx context.Context, id, content string) (*types.Message, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	var msg types.Message
	path := "/conversations/" + url.PathEscape(id) + "/message"
	if err := s.client.Post(ctx, path, types.SendMessageRequest{Content: content}, &msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

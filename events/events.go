package events

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cityconnect/api"
	"cityconnect/auth"
	"cityconnect/types"
)

const (
	MinParticipants = 1
	MaxParticipants = 100
)

var (
	ErrNotFound   = errors.New("activity not found")
	ErrNotCreator = errors.New("only the creator can change this activity")
	ErrMissingID  = errors.New("activity id is required")
	ErrNoChanges  = errors.New("nothing to update")
)

// Filter narrows GET /events. Zero values mean no filter.
type Filter struct {
	Category types.Category
	Day      time.Time
}

func (f Filter) query() string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if !f.Day.IsZero() {
		q.Set("date", f.Day.Format(time.DateOnly))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

type Service struct {
	client  *api.Client
	session *auth.Session
}

func NewService(client *api.Client, session *auth.Session) *Service {
	return &Service{client: client, session: session}
}

func (s *Service) List(ctx context.Context, f Filter) ([]types.Activity, error) {
	var activities []types.Activity
	if err := s.client.Get(ctx, "/events"+f.query(), &activities); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// Find looks an activity up in the full list; the backend has no single
// activity endpoint.
func (s *Service) Find(ctx context.Context, id string) (*types.Activity, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	all, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (s *Service) Create(ctx context.Context, req types.CreateActivityRequest) (*types.Activity, error) {
	var created types.Activity
	if err := s.client.Post(ctx, "/events", req, &created); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return &created, nil
}

// Update edits title and description. The creator check runs locally
// before any request.
func (s *Service) Update(ctx context.Context, a types.Activity, req types.UpdateActivityRequest) (*types.Activity, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" && req.Description == "" {
		return nil, ErrNoChanges
	}
	if err := s.ensureCreator(ctx, a); err != nil {
		return nil, err
	}
	var updated types.Activity
	if err := s.client.Put(ctx, "/events/"+url.PathEscape(a.ID), req, &updated); err != nil {
		return nil, fmt.Errorf("update activity %s: %w", a.ID, err)
	}
	return &updated, nil
}

func (s *Service) Cancel(ctx context.Context, a types.Activity) error {
	if err := s.ensureCreator(ctx, a); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, "/events/"+url.PathEscape(a.ID), nil); err != nil {
		return fmt.Errorf("cancel activity %s: %w", a.ID, err)
	}
	return nil
}

func (s *Service) ensureCreator(ctx context.Context, a types.Activity) error {
	if a.ID == "" {
		return ErrMissingID
	}
	userID, err := s.session.UserID(ctx)
	if err != nil {
		return err
	}
	if a.CreatedBy != userID {
		return ErrNotCreator
	}
	return nil
}

// Join answers with the activity's conversation when the backend sends one.
func (s *Service) Join(ctx context.Context, id string) (*types.MembershipResponse, error) {
	return s.membership(ctx, id, "join")
}

func (s *Service) Leave(ctx context.Context, id string) (*types.MembershipResponse, error) {
	return s.membership(ctx, id, "leave")
}

func (s *Service) membership(ctx context.Context, id, action string) (*types.MembershipResponse, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var resp types.MembershipResponse
	if err := s.client.Post(ctx, "/events/"+url.PathEscape(id)+"/"+action, nil, &resp); err != nil {
		return nil, fmt.Errorf("%s activity %s: %w", action, id, err)
	}
	return &resp, nil
}

func (s *Service) Participants(ctx context.Context, id string) ([]types.User, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var participants []types.User
	if err := s.client.Get(ctx, "/events/"+url.PathEscape(id)+"/participants", &participants); err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", id, err)
	}
	return participants, nil
}

// OnDay keeps the activities whose UTC calendar day equals day's. Undated
// activities never match.
func OnDay(activities []types.Activity, day time.Time) []types.Activity {
	want := day.Format(time.DateOnly)
	out := make([]types.Activity, 0, len(activities))
	for _, a := range activities {
		if a.Date.IsZero() {
			continue
		}
		if a.Date.UTC().Format(time.DateOnly) == want {
			out = append(out, a)
		}
	}
	return out
}

// ParseDay reads a YYYY-MM-DD day as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return day, nil
}

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Category string

const (
	CategorySport     Category = "Sport"
	CategoryCulturel  Category = "Culturel"
	CategorySorties   Category = "Sorties"
	CategoryCulinaire Category = "Culinaire"
)

var Categories = []Category{CategorySport, CategoryCulturel, CategorySorties, CategoryCulinaire}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Session struct {
	Token string `json:"token"`
}

type User struct {
	ID            string   `json:"_id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Bio           string   `json:"bio,omitempty"`
	PhotoURL      string   `json:"photoUrl,omitempty"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}

type Activity struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	Category        Category  `json:"category"`
	Location        string    `json:"location"`
	MaxParticipants int       `json:"maxParticipants"`
	Participants    []string  `json:"participants"`
	Photos          []string  `json:"photos"`
	CreatedBy       string    `json:"createdBy"`
}

// UnmarshalJSON reads date leniently so one malformed activity does not
// fail a whole listing; see ParseDate.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type plain Activity
	var aux struct {
		plain
		Date json.RawMessage `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Activity(aux.plain)
	a.Date = ParseDate(aux.Date)
	return nil
}

// ParseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD day (UTC
// midnight). Null, empty and anything else give the zero time.
func ParseDate(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type Message struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Sender    UserRef   `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID       string      `json:"_id"`
	Event    ActivityRef `json:"eventId"`
	Messages []Message   `json:"messages"`
}

// ActivityRef is a conversation's eventId: either a bare id or the
// populated activity.
type ActivityRef struct {
	ID       string
	Activity *Activity
}

// Resolved reports whether the backend populated the activity.
func (r ActivityRef) Resolved() bool {
	return r.Activity != nil
}

func (r *ActivityRef) UnmarshalJSON(data []byte) error {
	id, obj, err := decodeRef[Activity](data)
	if err != nil {
		return fmt.Errorf("decode eventId: %w", err)
	}
	r.Activity = obj
	r.ID = id
	if obj != nil {
		r.ID = obj.ID
	}
	return nil
}

func (r ActivityRef) MarshalJSON() ([]byte, error) {
	if r.Activity != nil {
		return json.Marshal(r.Activity)
	}
	return json.Marshal(r.ID)
}

// UserRef is a message sender: either a bare user id or the populated user.
type UserRef struct {
	ID   string
	User *User
}

func (r UserRef) Name() string {
	if r.User != nil && r.User.Username != "" {
		return r.User.Username
	}
	return r.ID
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	id, obj, err := decodeRef[User](data)
	if err != nil {
		return fmt.Errorf("decode sender: %w", err)
	}
	r.User = obj
	r.ID = id
	if obj != nil {
		r.ID = obj.ID
	}
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	return json.Marshal(r.ID)
}

func decodeRef[T any](data []byte) (string, *T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil, nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return "", nil, err
		}
		return id, nil, nil
	}
	var obj T
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return "", nil, err
	}
	return "", &obj, nil
}

// Request bodies

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

type UpdateBioRequest struct {
	Bio string `json:"bio"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}

type RateResponse struct {
	Rating float64 `json:"rating"`
}

type CreateActivityRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	Category        Category  `json:"category"`
	Location        string    `json:"location"`
	MaxParticipants int       `json:"maxParticipants"`
	Photos          []string  `json:"photos,omitempty"`
}

type UpdateActivityRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ConversationRef is the conversation handed back by a join: an id or the
// populated conversation.
type ConversationRef struct {
	ID           string
	Conversation *Conversation
}

func (r *ConversationRef) UnmarshalJSON(data []byte) error {
	id, obj, err := decodeRef[Conversation](data)
	if err != nil {
		return fmt.Errorf("decode conversation: %w", err)
	}
	r.Conversation = obj
	r.ID = id
	if obj != nil {
		r.ID = obj.ID
	}
	return nil
}

func (r ConversationRef) MarshalJSON() ([]byte, error) {
	if r.Conversation != nil {
		return json.Marshal(r.Conversation)
	}
	return json.Marshal(r.ID)
}

// MembershipResponse is the body of a join or leave call. Conversation is
// nil when the backend only confirms.
type MembershipResponse struct {
	Message      string           `json:"message,omitempty"`
	Conversation *ConversationRef `json:"conversation,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

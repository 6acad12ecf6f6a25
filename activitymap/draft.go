package activitymap

import (
	"strings"
	"time"

	"cityconnect/events"
	"cityconnect/geo"
	"cityconnect/i18n"
	"cityconnect/types"
	"cityconnect/upload"
)

// Draft is the activity being composed after a map press. It survives a
// failed submit so the user can correct it.
type Draft struct {
	Location        geo.Coordinate
	Title           string
	Description     string
	Date            time.Time
	Category        types.Category
	MaxParticipants int
	Photo           *upload.Photo
}

// Problem returns the message key of the first missing or invalid field,
// or "" when the draft can be submitted.
func (d Draft) Problem() string {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return i18n.KeyMissingTitle
	case strings.TrimSpace(d.Description) == "":
		return i18n.KeyMissingDesc
	case d.Date.IsZero():
		return i18n.KeyMissingDate
	case d.Category == "":
		return i18n.KeyMissingCategory
	case d.MaxParticipants < events.MinParticipants || d.MaxParticipants > events.MaxParticipants:
		return i18n.KeyInvalidCap
	}
	if _, err := types.ParseCategory(string(d.Category)); err != nil {
		return i18n.KeyMissingCategory
	}
	return ""
}

func (d Draft) request(photoURL string) types.CreateActivityRequest {
	req := types.CreateActivityRequest{
		Title:           strings.TrimSpace(d.Title),
		Description:     strings.TrimSpace(d.Description),
		Date:            d.Date,
		Category:        d.Category,
		Location:        d.Location.String(),
		MaxParticipants: d.MaxParticipants,
	}
	if photoURL != "" {
		req.Photos = []string{photoURL}
	}
	return req
}

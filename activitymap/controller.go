// Package activitymap drives the map tab: which viewport to show, which
// activities to place on it and the create-by-pressing-the-map flow.
package activitymap

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cityconnect/alerts"
	"cityconnect/events"
	"cityconnect/geo"
	"cityconnect/i18n"
	"cityconnect/logger"
	"cityconnect/screen"
	"cityconnect/types"
	"cityconnect/upload"
)

type Filter string

const (
	FilterNone           Filter = ""
	FilterAroundMe       Filter = "aroundMe"
	FilterByLocality     Filter = "byLocality"
	FilterActivity       Filter = "activity"
	FilterDate           Filter = "date"
	FilterCreateActivity Filter = "createActivity"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterNone, FilterAroundMe, FilterByLocality, FilterActivity, FilterDate, FilterCreateActivity:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

const DefaultCategory = types.CategorySport

var (
	ErrNoDraft      = errors.New("no activity draft")
	ErrInvalidDraft = errors.New("activity draft is incomplete")
	ErrNotArmed     = errors.New("map is not in create mode")
	ErrMissingDay   = errors.New("date filter needs a day")
)

// Params is what navigation hands the map tab.
type Params struct {
	Filter   Filter
	Category types.Category
	// Locality is an explicit center for FilterByLocality.
	Locality *geo.Coordinate
	// Place is resolved through the geocoder when Locality is nil.
	Place string
	Day   time.Time
}

type Marker struct {
	ActivityID string
	Title      string
	Category   types.Category
	Position   geo.Coordinate
}

// JoinOutcome carries the conversation to open after a join, if the backend
// returned one.
type JoinOutcome struct {
	ConversationID string
	Message        string
}

func (o JoinOutcome) OpensConversation() bool {
	return o.ConversationID != ""
}

type Translator interface {
	T(key string, args ...any) string
}

type keyTranslator struct{}

func (keyTranslator) T(key string, args ...any) string { return key }

type Deps struct {
	Events   *events.Service
	Location geo.LocationProvider
	Geocoder geo.Geocoder
	Images   upload.ImageHost
	Reporter alerts.Reporter
	Text     Translator
	Log      *slog.Logger
}

type Controller struct {
	events   *events.Service
	location geo.LocationProvider
	geocoder geo.Geocoder
	images   upload.ImageHost
	reporter alerts.Reporter
	text     Translator
	log      *slog.Logger

	mu         sync.Mutex
	params     Params
	category   types.Category
	region     geo.Region
	manual     *geo.Coordinate
	activities []types.Activity
	armed      bool
	draft      *Draft
}

func New(d Deps) *Controller {
	if d.Reporter == nil {
		d.Reporter = alerts.Nop
	}
	if d.Text == nil {
		d.Text = keyTranslator{}
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	return &Controller{
		events:   d.Events,
		location: d.Location,
		geocoder: d.Geocoder,
		images:   d.Images,
		reporter: d.Reporter,
		text:     d.Text,
		log:      d.Log,
		category: DefaultCategory,
		region:   geo.DefaultRegion,
	}
}

// Focus applies navigation parameters, the way the tab reacts each time it
// is shown.
func (c *Controller) Focus(scope *screen.Scope, p Params) error {
	c.mu.Lock()
	c.params = p
	c.armed = false
	c.mu.Unlock()

	c.log.Debug("map focus", slog.String("filter", string(p.Filter)))

	switch p.Filter {
	case FilterNone, FilterAroundMe:
		return c.aroundMe(scope)
	case FilterActivity:
		category := p.Category
		if category == "" {
			category = DefaultCategory
		}
		c.mu.Lock()
		c.category = category
		c.mu.Unlock()
		return c.fetch(scope, events.Filter{Category: category}, time.Time{})
	case FilterByLocality:
		return c.byLocality(scope, p)
	case FilterDate:
		if p.Day.IsZero() {
			c.reporter.Report(alerts.Validation(c.text.T(i18n.KeyMissingDate)))
			return ErrMissingDay
		}
		return c.fetch(scope, events.Filter{}, p.Day)
	case FilterCreateActivity:
		return c.armCreate(scope)
	}
	return fmt.Errorf("unknown filter %q", p.Filter)
}

func (c *Controller) aroundMe(scope *screen.Scope) error {
	pos, err := c.devicePosition(scope)
	if err != nil {
		return err
	}
	scope.Apply(func() {
		c.mu.Lock()
		c.region = geo.Around(pos)
		c.mu.Unlock()
	})
	return c.fetch(scope, events.Filter{}, time.Time{})
}

func (c *Controller) byLocality(scope *screen.Scope, p Params) error {
	region := geo.DefaultRegion
	switch {
	case p.Locality != nil:
		region = geo.Around(*p.Locality)
	case p.Place != "" && c.geocoder != nil:
		pos, err := c.geocoder.Lookup(scope.Context(), p.Place)
		if err != nil {
			c.log.Warn("geocoding failed", slog.String("place", p.Place), slog.String("error", err.Error()))
			c.reporter.Report(alerts.FromError(err, alerts.KindRead))
			if m := c.Manual(); m != nil {
				region = geo.Around(*m)
			}
			break
		}
		region = geo.Around(pos)
	default:
		if m := c.Manual(); m != nil {
			region = geo.Around(*m)
		}
	}

	scope.Apply(func() {
		c.mu.Lock()
		c.region = region
		c.mu.Unlock()
	})
	return c.fetch(scope, events.Filter{}, time.Time{})
}

// armCreate centers on the device and waits for a map press. A refused
// location still arms the map so the user can pan and press.
func (c *Controller) armCreate(scope *screen.Scope) error {
	pos, err := c.devicePosition(scope)
	scope.Apply(func() {
		c.mu.Lock()
		if err == nil {
			c.region = geo.Around(pos)
		}
		c.armed = true
		c.mu.Unlock()
	})
	return err
}

// devicePosition asks for permission and a fresh fix on every call; the
// user may have moved or revoked access since the last focus.
func (c *Controller) devicePosition(scope *screen.Scope) (geo.Coordinate, error) {
	ctx := scope.Context()
	if c.location == nil {
		err := fmt.Errorf("location: %w", alerts.ErrPermissionDenied)
		c.reporter.Report(alerts.Alert{Kind: alerts.KindPermission, Message: c.text.T(i18n.KeyLocationDenied)})
		return geo.Coordinate{}, err
	}
	if err := c.location.RequestPermission(ctx); err != nil {
		if !scope.Closed() {
			c.reporter.Report(alerts.Alert{Kind: alerts.KindPermission, Message: c.text.T(i18n.KeyLocationDenied)})
		}
		return geo.Coordinate{}, err
	}
	pos, err := c.location.Current(ctx)
	if err != nil {
		if !scope.Closed() {
			c.reporter.Report(alerts.Alert{Kind: alerts.KindPermission, Message: c.text.T(i18n.KeyLocationDenied)})
		}
		return geo.Coordinate{}, err
	}
	return pos, nil
}

// fetch replaces the activity list. A non-zero day keeps only that day's
// activities out of the full list.
func (c *Controller) fetch(scope *screen.Scope, f events.Filter, day time.Time) error {
	list, err := c.events.List(scope.Context(), f)
	if err != nil {
		if scope.Closed() {
			return nil
		}
		c.log.Warn("failed to load activities", slog.String("error", err.Error()))
		c.reporter.Report(alerts.FromError(err, alerts.KindRead))
		return err
	}
	if !day.IsZero() {
		list = events.OnDay(list, day)
	}
	scope.Apply(func() {
		c.mu.Lock()
		c.activities = list
		c.mu.Unlock()
	})
	return nil
}

// SelectCategory switches the category filter and re-fetches.
func (c *Controller) SelectCategory(scope *screen.Scope, category types.Category) error {
	if _, err := types.ParseCategory(string(category)); err != nil {
		return err
	}
	c.mu.Lock()
	c.category = category
	c.params.Filter = FilterActivity
	c.params.Category = category
	c.mu.Unlock()
	return c.fetch(scope, events.Filter{Category: category}, time.Time{})
}

// SetManualLocation records coordinates typed by the user, used by the
// locality filter when navigation supplies none.
func (c *Controller) SetManualLocation(pos geo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = &pos
}

func (c *Controller) Manual() *geo.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manual == nil {
		return nil
	}
	m := *c.manual
	return &m
}

// Press handles a tap or long press. In create mode it records the
// coordinate and opens the form, keeping whatever was typed already.
func (c *Controller) Press(pos geo.Coordinate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return ErrNotArmed
	}
	if c.draft == nil {
		c.draft = &Draft{Category: DefaultCategory}
	}
	c.draft.Location = pos
	return nil
}

// Draft returns a copy of the open form, or nil.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	d := *c.draft
	return &d
}

func (c *Controller) EditDraft(edit func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return ErrNoDraft
	}
	edit(c.draft)
	return nil
}

func (c *Controller) DiscardDraft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = nil
}

// Submit validates the draft, uploads its photo and creates the activity.
// Any failure leaves the draft in place.
func (c *Controller) Submit(scope *screen.Scope) (*types.Activity, error) {
	d := c.Draft()
	if d == nil {
		return nil, ErrNoDraft
	}
	if key := d.Problem(); key != "" {
		c.reporter.Report(alerts.Validation(c.text.T(key)))
		return nil, fmt.Errorf("%s: %w", key, ErrInvalidDraft)
	}

	ctx := scope.Context()
	photoURL := ""
	if d.Photo != nil {
		if c.images == nil {
			c.reporter.Report(alerts.Alert{Kind: alerts.KindWrite, Message: c.text.T(i18n.KeyUploadFailed)})
			return nil, errors.New("no image host configured")
		}
		url, err := c.images.Upload(ctx, *d.Photo)
		if err != nil {
			if !scope.Closed() {
				c.log.Warn("photo upload failed", slog.String("error", err.Error()))
				c.reporter.Report(alerts.Alert{Kind: alerts.KindWrite, Message: c.text.T(i18n.KeyUploadFailed)})
			}
			return nil, fmt.Errorf("upload photo: %w", err)
		}
		photoURL = url
	}

	created, err := c.events.Create(ctx, d.request(photoURL))
	if err != nil {
		if !scope.Closed() {
			c.reporter.Report(alerts.FromError(err, alerts.KindWrite))
		}
		return nil, err
	}

	applied := scope.Apply(func() {
		c.mu.Lock()
		c.draft = nil
		c.mu.Unlock()
	})
	if !applied {
		return created, nil
	}
	c.reporter.Report(alerts.Success(c.text.T(i18n.KeyActivityCreated)))

	if err := c.refetch(scope); err != nil {
		c.log.Warn("refresh after create failed", slog.String("error", err.Error()))
	}
	return created, nil
}

func (c *Controller) refetch(scope *screen.Scope) error {
	c.mu.Lock()
	p := c.params
	category := c.category
	c.mu.Unlock()

	switch p.Filter {
	case FilterActivity:
		return c.fetch(scope, events.Filter{Category: category}, time.Time{})
	case FilterDate:
		return c.fetch(scope, events.Filter{}, p.Day)
	}
	return c.fetch(scope, events.Filter{}, time.Time{})
}

// Join signs up for an activity. Both a conversation and a bare
// confirmation count as success; only the latter is announced here.
func (c *Controller) Join(scope *screen.Scope, activityID string) (JoinOutcome, error) {
	resp, err := c.events.Join(scope.Context(), activityID)
	if err != nil {
		if !scope.Closed() {
			c.reporter.Report(alerts.FromError(err, alerts.KindWrite))
		}
		return JoinOutcome{}, err
	}

	out := JoinOutcome{Message: resp.Message}
	if resp.Conversation != nil && resp.Conversation.ID != "" {
		out.ConversationID = resp.Conversation.ID
		return out, nil
	}

	msg := resp.Message
	if msg == "" {
		msg = c.text.T(i18n.KeyJoined)
	}
	if !scope.Closed() {
		c.reporter.Report(alerts.Success(msg))
	}
	return out, nil
}

func (c *Controller) Activities() []types.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Activity(nil), c.activities...)
}

// Markers places every activity whose location parses; the rest are
// skipped.
func (c *Controller) Markers() []Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	markers := make([]Marker, 0, len(c.activities))
	for _, a := range c.activities {
		pos, ok := geo.ParseLocation(a.Location)
		if !ok {
			continue
		}
		markers = append(markers, Marker{ActivityID: a.ID, Title: a.Title, Category: a.Category, Position: pos})
	}
	return markers
}

func (c *Controller) Region() geo.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

func (c *Controller) Category() types.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

func (c *Controller) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

package conversations

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"cityconnect/alerts"
	"cityconnect/logger"
	"cityconnect/screen"
	"cityconnect/types"
)

// DefaultPollInterval is used by Poll when given a non-positive interval.
const DefaultPollInterval = 5 * time.Second

// Thread is one open conversation: its messages and the compose input.
type Thread struct {
	id       string
	svc      *Service
	reporter alerts.Reporter
	log      *slog.Logger

	mu       sync.Mutex
	activity *types.Activity
	messages []types.Message
	input    string
}

func NewThread(id string, svc *Service, reporter alerts.Reporter, log *slog.Logger) *Thread {
	if reporter == nil {
		reporter = alerts.Nop
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Thread{id: id, svc: svc, reporter: reporter, log: log.With(slog.String("conversation", id))}
}

func (t *Thread) ID() string {
	return t.id
}

// Open loads the full message list.
func (t *Thread) Open(scope *screen.Scope) error {
	conv, err := t.svc.Get(scope.Context(), t.id)
	if err != nil {
		if scope.Closed() {
			return nil
		}
		t.log.Warn("failed to load conversation", slog.String("error", err.Error()))
		t.reporter.Report(alerts.FromError(err, alerts.KindRead))
		return err
	}
	scope.Apply(func() { t.replace(conv) })
	return nil
}

func (t *Thread) replace(conv *types.Conversation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activity = conv.Event.Activity
	t.messages = conv.Messages
}

func (t *Thread) SetInput(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = s
}

func (t *Thread) Input() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

// Send posts the current input. On success the returned message is appended
// and the input cleared; on failure both are left untouched.
func (t *Thread) Send(scope *screen.Scope) error {
	content := t.Input()
	msg, err := t.svc.Send(scope.Context(), t.id, content)
	if err != nil {
		if scope.Closed() {
			return nil
		}
		if errors.Is(err, ErrEmptyMessage) {
			return err
		}
		t.reporter.Report(alerts.FromError(err, alerts.KindWrite))
		return err
	}

	scope.Apply(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.messages = append(t.messages, *msg)
		if t.input == content {
			t.input = ""
		}
	})
	return nil
}

func (t *Thread) Messages() []types.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.Message(nil), t.messages...)
}

// Activity is the populated activity the conversation belongs to, if any.
func (t *Thread) Activity() *types.Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activity
}

// Poll re-fetches the thread every interval until the scope closes and
// hands messages not seen before to onNew. Failed fetches are logged and
// the loop carries on.
func (t *Thread) Poll(scope *screen.Scope, interval time.Duration, onNew func([]types.Message)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := scope.Context()
	for {
		select {
		case <-ctx.Done():
			t.log.Debug("poll stopped")
			return
		case <-ticker.C:
			conv, err := t.svc.Get(ctx, t.id)
			if err != nil {
				if ctx.Err() == nil {
					t.log.Warn("poll failed", slog.String("error", err.Error()))
				}
				continue
			}

			var fresh []types.Message
			scope.Apply(func() {
				seen := make(map[string]bool)
				for _, m := range t.Messages() {
					seen[m.ID] = true
				}
				for _, m := range conv.Messages {
					if !seen[m.ID] {
						fresh = append(fresh, m)
					}
				}
				t.replace(conv)
			})
			if len(fresh) > 0 && onNew != nil {
				onNew(fresh)
			}
		}
	}
}

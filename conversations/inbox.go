package conversations

import (
	"log/slog"
	"sync"

	"cityconnect/alerts"
	"cityconnect/logger"
	"cityconnect/screen"
	"cityconnect/types"
)

// Inbox lists the user's conversations whose activity still resolves.
type Inbox struct {
	svc      *Service
	reporter alerts.Reporter
	log      *slog.Logger

	mu            sync.Mutex
	conversations []types.Conversation
	loaded        bool
}

func NewInbox(svc *Service, reporter alerts.Reporter, log *slog.Logger) *Inbox {
	if reporter == nil {
		reporter = alerts.Nop
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Inbox{svc: svc, reporter: reporter, log: log}
}

// Refresh runs on focus. Backend order is kept as is.
func (in *Inbox) Refresh(scope *screen.Scope) error {
	convs, err := in.svc.Mine(scope.Context())
	if err != nil {
		if scope.Closed() {
			return nil
		}
		in.log.Warn("inbox refresh failed", slog.String("error", err.Error()))
		in.reporter.Report(alerts.FromError(err, alerts.KindRead))
		return err
	}

	kept := make([]types.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.Event.Resolved() {
			kept = append(kept, c)
		}
	}

	scope.Apply(func() {
		in.mu.Lock()
		in.conversations = kept
		in.loaded = true
		in.mu.Unlock()
	})
	return nil
}

func (in *Inbox) Conversations() []types.Conversation {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]types.Conversation(nil), in.conversations...)
}

// Loaded is false until a refresh has succeeded.
func (in *Inbox) Loaded() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loaded
}

// Package alerts is the single channel through which user-facing problems
// and confirmations leave a controller.
package alerts

import (
	"errors"
	"net/http"
	"sync"

	"cityconnect/api"
)

type Kind string

const (
	KindPermission   Kind = "permission"
	KindRead         Kind = "read"
	KindWrite        Kind = "write"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindSuccess      Kind = "success"
)

type Alert struct {
	Kind    Kind
	Message string
}

type Reporter interface {
	Report(Alert)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Alert)

func (f ReporterFunc) Report(a Alert) { f(a) }

// Nop drops every alert.
var Nop Reporter = ReporterFunc(func(Alert) {})

// FromError classifies a failed call. A 401 is always unauthorized; any
// other failure takes fallback (read or write).
func FromError(err error, fallback Kind) Alert {
	if api.IsUnauthorized(err) {
		return Alert{Kind: KindUnauthorized, Message: api.Message(err)}
	}
	if errors.Is(err, ErrPermissionDenied) {
		return Alert{Kind: KindPermission, Message: err.Error()}
	}
	return Alert{Kind: fallback, Message: api.Message(err)}
}

// ErrPermissionDenied marks a refused device permission.
var ErrPermissionDenied = errors.New("permission denied")

func Success(message string) Alert {
	return Alert{Kind: KindSuccess, Message: message}
}

func Validation(message string) Alert {
	return Alert{Kind: KindValidation, Message: message}
}

// Recorder keeps every alert it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *Recorder) Report(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

// Last returns the most recent alert, or the zero Alert.
func (r *Recorder) Last() Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.alerts) == 0 {
		return Alert{}
	}
	return r.alerts[len(r.alerts)-1]
}

func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Status is the HTTP status text a reporter may show next to an alert.
func Status(err error) string {
	if s := api.StatusOf(err); s != 0 {
		return http.StatusText(s)
	}
	return ""
}

package i18n

import "sync"

// Label is a translated string that re-renders itself whenever the language
// changes, until Close is called.
type Label struct {
	key  string
	args []any

	mu     sync.Mutex
	text   string
	render func(string)
	unbind func()
}

// Bind creates a label and renders it right away. render, when non-nil, is
// called with the new text on every change.
func (s *Store) Bind(key string, render func(string), args ...any) *Label {
	l := &Label{key: key, args: args, render: render}
	l.unbind = s.bind(l.update)
	return l
}

func (l *Label) update(s *Store) {
	text := s.T(l.key, l.args...)
	l.mu.Lock()
	l.text = text
	render := l.render
	l.mu.Unlock()
	if render != nil {
		render(text)
	}
}

func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

func (l *Label) Close() {
	l.unbind()
}

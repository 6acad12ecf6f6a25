// Package i18n resolves the interface language and hands out translated
// strings that follow language switches.
package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"cityconnect/db"
	"cityconnect/logger"
)

const LanguageKey = "language"

var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	supported = []language.Tag{language.English, language.French}
	matcher   = language.NewMatcher(supported)
)

type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Store struct {
	kv      KeyValue
	log     *slog.Logger
	catalog catalog.Catalog

	mu      sync.Mutex
	tag     language.Tag
	printer *message.Printer
	nextID  int
	labels  map[int]func(*Store)
}

func NewStore(kv KeyValue, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}
	cat, err := newCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build message catalog: %w", err)
	}
	s := &Store{kv: kv, log: log, catalog: cat, labels: make(map[int]func(*Store))}
	s.apply(language.English)
	return s, nil
}

// Init applies the stored language, or detects it from deviceLocale and
// stores it when nothing was saved yet.
func (s *Store) Init(ctx context.Context, deviceLocale string) error {
	stored, err := s.kv.Get(ctx, LanguageKey)
	switch {
	case err == nil:
		if tag, ok := parseSupported(stored); ok {
			s.apply(tag)
			return nil
		}
		s.log.Warn("ignoring stored language", slog.String("language", stored))
	case !errors.Is(err, db.ErrNotFound):
		s.log.Warn("language read failed, detecting", slog.String("error", err.Error()))
	}

	tag := Detect(deviceLocale)
	s.apply(tag)
	if err := s.kv.Set(ctx, LanguageKey, Code(tag)); err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}
	return nil
}

// SetLanguage persists code ("en" or "fr") and re-renders every bound label
// before returning.
func (s *Store) SetLanguage(ctx context.Context, code string) error {
	tag, ok := parseSupported(code)
	if !ok {
		return fmt.Errorf("%q: %w", code, ErrUnsupportedLanguage)
	}
	if err := s.kv.Set(ctx, LanguageKey, Code(tag)); err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}
	s.apply(tag)
	return nil
}

func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Code(s.tag)
}

// T translates key with optional printf arguments.
func (s *Store) T(key string, args ...any) string {
	s.mu.Lock()
	p := s.printer
	s.mu.Unlock()
	return p.Sprintf(key, args...)
}

func (s *Store) apply(tag language.Tag) {
	s.mu.Lock()
	s.tag = tag
	s.printer = message.NewPrinter(tag, message.Catalog(s.catalog))
	renders := make([]func(*Store), 0, len(s.labels))
	for _, fn := range s.labels {
		renders = append(renders, fn)
	}
	s.mu.Unlock()

	for _, fn := range renders {
		fn(s)
	}
}

func (s *Store) bind(fn func(*Store)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.labels[id] = fn
	s.mu.Unlock()

	fn(s)
	return func() {
		s.mu.Lock()
		delete(s.labels, id)
		s.mu.Unlock()
	}
}

// Detect maps a device locale such as "fr_FR.UTF-8" to French when it is
// French and English otherwise.
func Detect(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	base, _ := tag.Base()
	if base.String() == "fr" {
		return language.French
	}
	return language.English
}

// Code is the two letter form persisted under LanguageKey.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func parseSupported(code string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return language.Und, false
	}
	return supported[idx], true
}

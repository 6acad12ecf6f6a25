package i18n

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"

	"cityconnect/db"
)

func openKV(t *testing.T, path string) *db.KV {
	t.Helper()
	conn, err := db.InitSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.CloseDB(conn) })
	return db.NewKV(conn)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"fr_FR.UTF-8", language.French},
		{"fr-CA", language.French},
		{"fr", language.French},
		{"en_US.UTF-8", language.English},
		{"de_DE", language.English},
		{"C", language.English},
		{"", language.English},
		{"garbage!!", language.English},
	}
	for _, tt := range tests {
		if got := Detect(tt.locale); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.locale, got, tt.want)
		}
	}
}

func TestInitPersistsDetectedLanguage(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t, filepath.Join(t.TempDir(), "state.db"))

	s, err := NewStore(kv, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Init(ctx, "fr_FR.UTF-8"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if s.Language() != "fr" {
		t.Fatalf("expected fr, got %s", s.Language())
	}
	stored, err := kv.Get(ctx, LanguageKey)
	if err != nil || stored != "fr" {
		t.Fatalf("expected fr persisted, got %q (%v)", stored, err)
	}

	// A stored override wins over the device locale.
	again, _ := NewStore(kv, nil)
	if err := again.Init(ctx, "en_US.UTF-8"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if again.Language() != "fr" {
		t.Fatalf("expected stored fr to win, got %s", again.Language())
	}
}

func TestSwitchRerendersLabelsAndSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	kv := openKV(t, path)

	s, err := NewStore(kv, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Init(ctx, "en_US.UTF-8"); err != nil {
		t.Fatalf("init: %v", err)
	}

	var rendered []string
	title := s.Bind(KeyActivities, func(text string) { rendered = append(rendered, text) })
	count := s.Bind(KeyMarkers, nil, 3)
	if title.Text() != "Activities" || count.Text() != "3 activities on the map" {
		t.Fatalf("unexpected english labels %q %q", title.Text(), count.Text())
	}

	if err := s.SetLanguage(ctx, "fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if title.Text() != "Activités" || count.Text() != "3 activités sur la carte" {
		t.Fatalf("labels not re-rendered: %q %q", title.Text(), count.Text())
	}
	if len(rendered) != 2 || rendered[1] != "Activités" {
		t.Fatalf("expected synchronous re-render, got %v", rendered)
	}

	title.Close()
	if err := s.SetLanguage(ctx, "en"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if len(rendered) != 2 {
		t.Fatalf("closed label must not re-render, got %v", rendered)
	}
	if err := s.SetLanguage(ctx, "fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}

	fresh, err := NewStore(openKV(t, path), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := fresh.Init(ctx, "en_US.UTF-8"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if fresh.Language() != "fr" || fresh.T(KeyWelcome) != "Bienvenue sur CityConnect" {
		t.Fatalf("expected French restored, got %s / %q", fresh.Language(), fresh.T(KeyWelcome))
	}
}

func TestSetLanguageRejectsUnsupported(t *testing.T) {
	kv := openKV(t, filepath.Join(t.TempDir(), "state.db"))
	s, _ := NewStore(kv, nil)
	if err := s.SetLanguage(context.Background(), "de"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if s.Language() != "en" {
		t.Fatalf("language must stay unchanged, got %s", s.Language())
	}
}

// Package app wires configuration, local storage, the backend client and
// every controller into one value the front end drives.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"cityconnect/activitymap"
	"cityconnect/alerts"
	"cityconnect/api"
	"cityconnect/auth"
	"cityconnect/config"
	"cityconnect/conversations"
	"cityconnect/db"
	"cityconnect/events"
	"cityconnect/geo"
	"cityconnect/i18n"
	"cityconnect/logger"
	"cityconnect/screen"
	"cityconnect/upload"
	"cityconnect/users"
)

type App struct {
	Config *config.Config
	Log    *slog.Logger

	conn *sql.DB
	KV   *db.KV

	Store         *auth.CredentialStore
	Session       *auth.Session
	Client        *api.Client
	Auth          *auth.Service
	Users         *users.Service
	Events        *events.Service
	Conversations *conversations.Service
	Text          *i18n.Store
	Geocoder      geo.Geocoder
	Location      geo.LocationProvider
	Images        upload.ImageHost
	Reporter      alerts.Reporter
}

// New opens local storage and builds the object graph. log may be nil, in
// which case one is created from the configured level.
func New(ctx context.Context, cfg *config.Config, reporter alerts.Reporter, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logger.New("cityconnect", cfg.LogLevel)
	}
	if reporter == nil {
		reporter = alerts.Nop
	}

	conn, err := db.InitSQLite(cfg.DBFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	kv := db.NewKV(conn)

	store := auth.NewCredentialStore(kv, log)
	session := auth.NewSession(store)
	client := api.New(cfg.APIBaseURL, session, api.WithLogger(log), api.WithTimeout(cfg.HTTPTimeout))

	text, err := i18n.NewStore(kv, log)
	if err != nil {
		db.CloseDB(conn)
		return nil, err
	}
	if err := text.Init(ctx, cfg.Locale); err != nil {
		log.Warn("language init failed", slog.String("error", err.Error()))
	}

	a := &App{
		Config:        cfg,
		Log:           log,
		conn:          conn,
		KV:            kv,
		Store:         store,
		Session:       session,
		Client:        client,
		Auth:          auth.NewService(client, store, log),
		Users:         users.NewService(client),
		Events:        events.NewService(client, session),
		Conversations: conversations.NewService(client),
		Text:          text,
		Geocoder:      geo.NewNominatim(api.New(cfg.GeocodeURL, nil, api.WithLogger(log), api.WithTimeout(cfg.HTTPTimeout))),
		Location:      locationProvider(cfg.Location),
		Images:        imageHost(cfg, log),
		Reporter:      reporter,
	}
	return a, nil
}

func (a *App) Close() {
	db.CloseDB(a.conn)
}

// Scope starts a view lifetime under ctx.
func (a *App) Scope(ctx context.Context) *screen.Scope {
	return screen.NewScope(ctx)
}

func (a *App) Map() *activitymap.Controller {
	return activitymap.New(activitymap.Deps{
		Events:   a.Events,
		Location: a.Location,
		Geocoder: a.Geocoder,
		Images:   a.Images,
		Reporter: a.Reporter,
		Text:     a.Text,
		Log:      a.Log.With(slog.String("screen", "map")),
	})
}

func (a *App) Inbox() *conversations.Inbox {
	return conversations.NewInbox(a.Conversations, a.Reporter, a.Log.With(slog.String("screen", "inbox")))
}

func (a *App) Thread(id string) *conversations.Thread {
	return conversations.NewThread(id, a.Conversations, a.Reporter, a.Log.With(slog.String("screen", "thread")))
}

func locationProvider(raw string) geo.LocationProvider {
	if pos, ok := geo.ParseLocation(raw); ok {
		return geo.NewStatic(pos)
	}
	return geo.Denied{}
}

func imageHost(cfg *config.Config, log *slog.Logger) upload.ImageHost {
	if cfg.UploadBackend == config.UploadS3 {
		return &lazyS3{cfg: cfg.S3}
	}
	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	return upload.NewUnsignedHost(cfg.UploadURL, cfg.UploadPreset, hc, log)
}

// lazyS3 connects to the bucket on first upload so commands that never
// upload do not need S3 reachable.
type lazyS3 struct {
	cfg config.S3

	mu   sync.Mutex
	host *upload.S3Host
}

func (l *lazyS3) Upload(ctx context.Context, photo upload.Photo) (string, error) {
	l.mu.Lock()
	if l.host == nil {
		host, err := upload.NewS3Host(ctx, l.cfg)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.host = host
	}
	host := l.host
	l.mu.Unlock()
	return host.Upload(ctx, photo)
}

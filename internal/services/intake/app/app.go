// Package app hosts the browser-facing intake surface: a per-session
// workspace of screening pages, card and participant routes that return HTML
// fragments, and JSON endpoints for people search and the save journal.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal"
	"github.com/MichaelAguilera/intake/internal/services/intake/platform/httpx"
	"github.com/MichaelAguilera/intake/internal/services/intake/platform/observability"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/routepath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

// API is the intake API surface the web app uses.
type API interface {
	screening.API
	GetPerson(ctx context.Context, id record.ID) (record.Tree, error)
	SearchPeople(ctx context.Context, term string) ([]record.Tree, error)
}

// SaveLister reads the save journal.
type SaveLister interface {
	List(ctx context.Context, screeningID string, limit int) ([]journal.Entry, error)
}

// Config defines the app's collaborators.
type Config struct {
	API        API
	Features   feature.Set
	Observer   screening.SaveObserver
	Saves      SaveLister
	Metrics    http.Handler
	Logger     *log.Logger
	SessionTTL time.Duration
}

// App is the intake HTTP handler together with the workspace it serves.
type App struct {
	handler   http.Handler
	workspace *Workspace
}

// New validates cfg and composes the handler.
func New(cfg Config) (*App, error) {
	if cfg.API == nil {
		return nil, errors.New("intake api is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	workspace := NewWorkspace(pageFactory(cfg), cfg.SessionTTL)
	h := &handlers{
		workspace: workspace,
		api:       cfg.API,
		saves:     cfg.Saves,
		logger:    logger,
	}

	mux := http.NewServeMux()
	h.routes(mux)
	if cfg.Metrics != nil {
		mux.Handle(http.MethodGet+" "+routepath.Metrics, cfg.Metrics)
	}

	handler := httpx.Chain(mux,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
		withSession(),
	)
	return &App{handler: handler, workspace: workspace}, nil
}

func pageFactory(cfg Config) PageFactory {
	return func(id record.ID, openEdit bool) (*screening.Page, error) {
		opts := []screening.Option{screening.WithFeatures(cfg.Features)}
		if cfg.Observer != nil {
			opts = append(opts, screening.WithObserver(cfg.Observer))
		}
		if openEdit {
			opts = append(opts, screening.OpenInEdit())
		}
		return screening.NewPage(id, cfg.API, opts...)
	}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Workspace returns the app's page workspace.
func (a *App) Workspace() *Workspace { return a.workspace }

// Close closes every open page.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.workspace.Close()
}

// Package intake parses intake command flags and composes the web service.
package intake

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	entrypoint "github.com/MichaelAguilera/intake/internal/platform/cmd"
	"github.com/MichaelAguilera/intake/internal/services/intake/app"
	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/intakeapi"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal"
	journalsqlite "github.com/MichaelAguilera/intake/internal/services/intake/journal/sqlite"
	"github.com/MichaelAguilera/intake/internal/services/intake/metrics"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

// Config holds intake command configuration.
type Config struct {
	HTTPAddr       string        `env:"INTAKE_HTTP_ADDR"        envDefault:"localhost:8088"`
	APIBaseURL     string        `env:"INTAKE_API_BASE_URL"     envDefault:"http://localhost:3000"`
	APITimeout     time.Duration `env:"INTAKE_API_TIMEOUT"      envDefault:"10s"`
	ActiveFeatures []string      `env:"INTAKE_ACTIVE_FEATURES"  envSeparator:","`
	JournalPath    string        `env:"INTAKE_JOURNAL_PATH"     envDefault:"data/intake-journal.db"`
	SessionTTL     time.Duration `env:"INTAKE_SESSION_TTL"      envDefault:"2h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	features := strings.Join(cfg.ActiveFeatures, ",")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "intake HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "intake API base URL")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", cfg.APITimeout, "intake API request timeout")
	fs.StringVar(&features, "active-features", features, "comma-separated active feature flags")
	fs.StringVar(&cfg.JournalPath, "journal-path", cfg.JournalPath, "save journal SQLite path (empty disables the journal)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "idle time before a browser session's pages are dropped")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.ActiveFeatures = feature.Parse(features).Names()
	return cfg, nil
}

// Run builds the intake app and serves it until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	logger := log.Default()
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceIntake, logger, func(ctx context.Context) error {
		server, closeAll, err := compose(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeAll()
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve intake: %w", err)
		}
		return nil
	})
}

// compose wires the API client, metrics, journal and web app. The returned
// func releases the journal store.
func compose(ctx context.Context, cfg Config, logger *log.Logger) (*app.Server, func(), error) {
	features := feature.New(cfg.ActiveFeatures...)
	collector := metrics.New()

	api, err := intakeapi.New(cfg.APIBaseURL,
		intakeapi.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		intakeapi.WithFeatures(features),
		intakeapi.WithObserver(collector),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("intake api client: %w", err)
	}

	observers := screening.Observers{collector}
	closeAll := func() {}
	var saves app.SaveLister
	if path := strings.TrimSpace(cfg.JournalPath); path != "" {
		store, err := journalsqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("open save journal: %w", err)
		}
		observers = append(observers, journal.NewRecorder(store, logger))
		saves = store
		closeAll = func() {
			if err := store.Close(); err != nil {
				logger.Printf("close save journal err=%v", err)
			}
		}
	}

	server, err := app.NewServer(cfg.HTTPAddr, app.Config{
		API:        api,
		Features:   features,
		Observer:   observers,
		Saves:      saves,
		Metrics:    collector.Handler(),
		Logger:     logger,
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	logger.Printf("intake configured addr=%s api=%s features=%s journal=%s",
		cfg.HTTPAddr, cfg.APIBaseURL, strings.Join(features.Names(), ","), cfg.JournalPath)
	return server, closeAll, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SashaDiz/directoryhunt-sub001/internal/config"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/account"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/notify"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/repository/cache"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/repository/memory"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/repository/postgres"
	"github.com/SashaDiz/directoryhunt-sub001/internal/interfaces/httpapi"
	basecache "github.com/SashaDiz/directoryhunt-sub001/internal/platform/cache"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

// NewHTTPServer wires repositories, services and the HTTP router. With DB_URL
// set the engine runs on postgres; without it an in-memory seed dataset backs
// the API, which is enough for local development and tests. The returned
// cleanup closes the database connection if one was opened.
func NewHTTPServer(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if httpLogger == nil {
		httpLogger = slog.Default()
	}

	weekday, hour, loc, err := cfg.Schedule()
	if err != nil {
		return nil, nil, err
	}
	schedule, err := window.NewSchedule(weekday, hour, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("build window schedule: %w", err)
	}

	var (
		windowRepo window.Repository
		entryRepo  entry.Repository
		voteRepo   vote.Repository
		cleanup    = func(context.Context) error { return nil }
	)

	if cfg.DBURL != "" {
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		windowRepo = postgres.NewContestWindowRepository(db)
		entryRepo = postgres.NewEntryRepository(db)
		voteRepo = postgres.NewVoteRepository(db)
		cleanup = func(context.Context) error { return db.Close() }
		logger.Info("storage backend", "kind", "postgres", "db", dbNameFromURL(cfg.DBURL))
	} else {
		memEntries := memory.NewEntryRepository(memory.SeedEntries())
		windowRepo = memory.NewWindowRepository(memory.SeedWindows())
		entryRepo = memEntries
		voteRepo = memory.NewVoteRepository(memEntries)
		logger.Info("storage backend", "kind", "memory")
	}

	// The cache decorators serve the public read endpoints only. Lifecycle,
	// winner, and vote services stay on the undecorated repositories: vote
	// writes land beneath any decorator, and a stale leaderboard snapshot at
	// completion time would be awarded permanently.
	queryWindowRepo := windowRepo
	queryEntryRepo := entryRepo
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		queryWindowRepo = cache.NewWindowRepository(windowRepo, store)
		queryEntryRepo = cache.NewEntryRepository(entryRepo, store)
	}

	windowSvc := usecase.NewWindowService(windowRepo, entryRepo, schedule, logger)
	queryWindowSvc := usecase.NewWindowService(queryWindowRepo, queryEntryRepo, schedule, logger)
	winnerSvc := usecase.NewWinnerService(entryRepo, cfg.LifecycleWinnerCount, logger)
	voteSvc := usecase.NewVoteService(voteRepo, entryRepo, windowRepo, logger)

	notifier := usecase.NewNoopNotifier()
	if cfg.WinnerWebhookEnabled {
		notifier = notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:            cfg.WinnerWebhookURL,
			Token:          cfg.WinnerWebhookToken,
			Timeout:        cfg.WinnerWebhookTimeout,
			CircuitBreaker: cfg.WinnerWebhookCircuit,
		}, httpLogger)
	}

	lifecycleSvc := usecase.NewLifecycleService(
		windowRepo,
		entryRepo,
		voteRepo,
		windowSvc,
		winnerSvc,
		notifier,
		usecase.LifecycleConfig{
			Horizon:       cfg.LifecycleHorizon,
			MaxWorkers:    cfg.LifecycleMaxWorkers,
			NotifyTimeout: cfg.LifecycleNotifyTimeout,
		},
		logger,
	)

	accountClient := account.NewClient(
		&http.Client{Timeout: cfg.AccountTimeout},
		cfg.AccountBaseURL,
		cfg.AccountIntrospectPath,
		cfg.AccountAdminKey,
		cfg.AccountCircuit,
		httpLogger,
	)

	handler := httpapi.NewHandler(queryWindowSvc, voteSvc, lifecycleSvc, httpLogger)
	router := httpapi.NewRouter(handler, accountClient, httpLogger, cfg.CORSAllowedOrigins, cfg.LifecycleTriggerToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return db, nil
}

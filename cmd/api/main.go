package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/ipo-schedule/internal/config"
	"github.com/crucial707/ipo-schedule/internal/db"
	"github.com/crucial707/ipo-schedule/internal/fetcher"
	"github.com/crucial707/ipo-schedule/internal/handlers"
	"github.com/crucial707/ipo-schedule/internal/middleware"
	"github.com/crucial707/ipo-schedule/internal/pipeline"
	"github.com/crucial707/ipo-schedule/internal/repo"
	"github.com/crucial707/ipo-schedule/internal/scheduler"
	"github.com/crucial707/ipo-schedule/internal/scraper"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}

	// Connect to database FIRST
	database, err := db.Connect(dialect, cfg.DBDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, database, dialect); err != nil {
		return err
	}
	slog.Info("database ready", "driver", string(dialect))

	scheduleRepo := repo.NewScheduleRepoWithDialect(database, dialect)
	runner := pipeline.NewRunner(
		fetcher.New(cfg.SourceURL, cfg.UserAgent, cfg.FetchTimeout),
		scraper.NewExtractor(cfg.SourceTableMarker),
		scheduleRepo,
		slog.Default(),
	)
	sched := scheduler.New(runner.RunAndLog, cfg.ScrapeInterval, slog.Default())
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, runner, sched),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "tls", cfg.TLSEnabled())
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Warn("scheduler stop", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return serveErr
}

// newRouter builds the HTTP API. runner and sched may be nil, in which case /status
// reports no runs and /admin/refresh answers 503.
func newRouter(database *sql.DB, cfg config.Config, runner *pipeline.Runner, sched *scheduler.Service) http.Handler {
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		dialect = db.SQLite
	}
	scheduleRepo := repo.NewScheduleRepoWithDialect(database, dialect)

	scheduleHandler := &handlers.ScheduleHandler{Repo: scheduleRepo}
	statusHandler := &handlers.StatusHandler{Runner: noRuns{}, Repo: scheduleRepo}
	adminHandler := &handlers.AdminHandler{}
	if runner != nil {
		statusHandler.Runner = runner
	}
	if sched != nil {
		statusHandler.Scheduler = sched
		adminHandler.Trigger = sched
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", scheduleHandler.Root)
	r.Get("/schedules", scheduleHandler.ListSchedules)
	r.Get("/schedules.csv", scheduleHandler.ExportCSV)
	r.Get("/status", statusHandler.Status)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminRateLimiter().Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))
		r.Post("/refresh", adminHandler.Refresh)
	})

	return r
}

// noRuns stands in for a runner when the API is served without a scheduler.
type noRuns struct{}

func (noRuns) LastRun() (*pipeline.RunStatus, int) { return nil, 0 }

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// cmd/web/main.go
//
// Coursedesk – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load config (conf/app.yaml + COURSEDESK_ overrides) and start the
//     rotating logger (tees to console when running in a TTY).
//
//  3. Open the audit DB when a DSN is configured; otherwise attempts are
//     only counted in Prometheus.
//
//  4. Build the platform API client and the session manager.
//
//  5. Register components (auth, review) and mount them on a chi router
//     behind request-ID, request-log, recoverer, and security middleware.
//
//  6. Expose Prometheus /metrics and a liveness /healthz.
//
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	authcomp "github.com/yanizio/coursedesk/components/auth"
	"github.com/yanizio/coursedesk/components/review"
	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/audit"
	"github.com/yanizio/coursedesk/internal/component"
	"github.com/yanizio/coursedesk/internal/config"
	"github.com/yanizio/coursedesk/internal/database"
	"github.com/yanizio/coursedesk/internal/logger"
	"github.com/yanizio/coursedesk/internal/middleware"
	"github.com/yanizio/coursedesk/internal/server"
	"github.com/yanizio/coursedesk/internal/session"
)

const serverEnvPath = "/usr/local/etc/coursedesk/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("coursedesk: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lg, err := logger.New(logger.Options{
		Root:  cfg.Paths.Root,
		Tee:   runningInTTY(),
		Level: cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	//
	// ── 2.  Audit store (optional) ──────────────────────────────────────
	//
	var (
		rec   audit.Recorder = audit.Nop{}
		store *audit.Store
	)
	if cfg.Database.AuditDSN != "" {
		db, err := database.Open(ctx, cfg.Database.AuditDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		store = audit.NewStore(db)
		rec = store
		lg.Infow("audit store online")
	} else {
		lg.Infow("audit store disabled, no database.audit_dsn")
	}

	//
	// ── 3.  Collaborators ───────────────────────────────────────────────
	//
	platform, err := api.New(cfg.API.BaseURL, cfg.API.Timeout, api.WithLogger(lg.Named("api")))
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return err
	}

	//
	// ── 4.  Components ──────────────────────────────────────────────────
	//
	reg := component.NewRegistry()
	ac, err := authcomp.New(platform, sessions, rec)
	if err != nil {
		return err
	}
	rc, err := review.New(platform, sessions, rec)
	if err != nil {
		return err
	}
	for _, c := range []component.Component{ac, rc} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r := newRouter(lg, reg, store)

	//
	// ── 6.  Serve until signalled ───────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP, r), lg)
}

// newRouter assembles middleware, infrastructure endpoints, and components.
func newRouter(lg *zap.SugaredLogger, reg *component.Registry, store *audit.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(lg))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		component.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	})
	if store != nil {
		r.Get("/attempts/*", audit.CountsHandler(store))
	}

	reg.Mount(r)
	return r
}

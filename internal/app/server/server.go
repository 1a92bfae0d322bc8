package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavegate/internal/domain/gatepass"
	"leavegate/internal/domain/leave"
	"leavegate/internal/domain/notifications"
	"leavegate/internal/platform/config"
	"leavegate/internal/platform/db"
	"leavegate/internal/platform/email"
	"leavegate/internal/platform/metrics"
	"leavegate/internal/store/csvfile"
	"leavegate/internal/store/memory"
	"leavegate/internal/store/postgres"
	"leavegate/internal/transport/http/api"
	leavehandler "leavegate/internal/transport/http/handlers/leave"
	"leavegate/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Router  http.Handler
	Service *leave.Service
	Metrics *metrics.Collector

	pool *pgxpool.Pool
}

// New builds the whole application from configuration: the store picked by
// STORE_DRIVER, the leave service on top of it, and the HTTP router with the
// full middleware chain.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.New()}

	store, err := app.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Service = leave.NewService(store, gatepass.NewGenerator())
	notify := notifications.New(email.New(cfg), cfg.EmailFrom)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(app.Metrics))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", app.handleReady)

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		handler := leavehandler.NewHandler(app.Service, notify, app.Metrics)
		handler.DecisionLimit = middleware.DecisionRateLimit(cfg.RateLimitPerMinute, time.Minute)
		handler.RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (leave.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, "migrations"); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		a.pool = pool
		return postgres.New(pool), nil
	case config.StoreCSV:
		return csvfile.New(cfg.CSVPath), nil
	case config.StoreMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run loads configuration from the environment and serves until the process
// is killed.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("leavegate server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

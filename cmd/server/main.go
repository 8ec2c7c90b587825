package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ringside/wager-engine/internal/config"
	"github.com/ringside/wager-engine/internal/engine"
	"github.com/ringside/wager-engine/internal/metrics"
	"github.com/ringside/wager-engine/internal/snapshot"
	"github.com/ringside/wager-engine/internal/wager"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// --- Engine ---
	eng := engine.New(engine.Config{
		StartingBalance: cfg.Wagering.StartingBalance,
		HouseEdgeRate:   cfg.HouseEdgeRate(),
		MinWager:        cfg.Wagering.MinWager,
		MaxWager:        cfg.Wagering.MaxWager,
		MaxPoolExposure: cfg.Wagering.MaxPoolExposure,
		LockWait:        cfg.LockWait(),
	})

	// --- Snapshot store ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store snapshot.Store
	var cleanup []func()

	switch cfg.Snapshot.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Snapshot.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pg := snapshot.NewPostgresStore(pool)
		if err := pg.Init(ctx); err != nil {
			slog.Error("snapshot schema init failed", "err", err)
			os.Exit(1)
		}
		store = pg
		slog.Info("snapshots backed by PostgreSQL")
	case "redis":
		opt, err := redis.ParseURL(cfg.Snapshot.RedisURL)
		if err != nil {
			slog.Error("invalid redis URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		store = snapshot.NewRedisStore(rdb)
		slog.Info("snapshots backed by Redis")
	default:
		store = snapshot.NewFileStore(cfg.Snapshot.Path)
		slog.Info("snapshots backed by local file", "path", cfg.Snapshot.Path)
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// Rehydrate state before accepting any calls.
	if err := snapshot.Restore(ctx, eng, store); err != nil {
		slog.Error("state restore failed", "err", err)
		os.Exit(1)
	}

	// --- WebSocket hub ---
	wsHub := wager.NewWSHub()
	go wsHub.Run()

	// --- Wager service ---
	svc := wager.NewService(eng, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"wager-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time wager/settlement events.
		r.Get("/ws", wsHub.HandleWS)

		// Accounts.
		r.Post("/accounts/{accountID}/deposit", svc.Deposit)
		r.Get("/accounts/{accountID}", svc.GetAccount)
		r.Get("/accounts/{accountID}/transactions", svc.GetTransactions)

		// Pool lifecycle.
		r.Get("/pools", svc.ListPools)
		r.Post("/pools", svc.CreatePool)
		r.Get("/pools/{poolID}", svc.GetPool)
		r.Get("/pools/{poolID}/odds", svc.GetOdds)
		r.Get("/pools/{poolID}/bets", svc.GetBets)
		r.Post("/pools/{poolID}/close", svc.ClosePool)

		// Settlement.
		r.Post("/pools/{poolID}/resolve", svc.Resolve)
		r.Post("/pools/{poolID}/cancel", svc.Cancel)

		// Wagering.
		r.Post("/wagers", svc.PlaceWager)

		// Projections.
		r.Get("/leaderboard", svc.Leaderboard)
	})

	// --- Server + snapshot runner ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runner := snapshot.NewRunner(eng, store, cfg.SnapshotInterval())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("wager-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return runner.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		slog.Info("shutting down wager-engine...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("shutdown error", "err", err)
		os.Exit(1)
	}
	fmt.Println("wager-engine stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

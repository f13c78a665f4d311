package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/source"
	"github.com/JonMunkholm/datatable/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"page_size", cfg.Table.PageSize,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"database", cfg.Database.URL != "",
	)

	// Background jobs (session sweeper, writebacks) share this context
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	defaults := cfg.Table.Options()

	n, err := source.RegisterFixtures(cfg.Fixtures.Dir, defaults)
	if err != nil {
		slog.Error("failed to register fixtures", "dir", cfg.Fixtures.Dir, "error", err)
		os.Exit(1)
	}
	slog.Info("fixtures registered", "dir", cfg.Fixtures.Dir, "count", n)

	var writers []*source.Writeback
	var wg sync.WaitGroup
	if cfg.Database.URL != "" {
		pool, err := connect(jobCtx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writers, err = source.RegisterPostgres(jobCtx, pool, cfg.Database.Tables, defaults, cfg.Database.MaxRows, cfg.Database.WriteBack)
		if err != nil {
			slog.Error("failed to register database tables", "error", err)
			os.Exit(1)
		}
		for _, w := range writers {
			wg.Add(1)
			go func(w *source.Writeback) {
				defer wg.Done()
				w.Run(jobCtx)
			}(w)
		}
	}

	// Log registered tables
	slog.Info("tables registered",
		"count", core.TableCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		tables := core.ByGroup(group)
		slog.Debug("table group", "group", group, "tables", len(tables))
	}

	sessions := web.NewSessionStore(cfg.Session, cfg.Table)
	go sessions.Run(jobCtx, cfg.Session.SweepInterval)

	server := web.NewServer(cfg, sessions, writers)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := sessions.Loads().WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("table loads still running at shutdown", "active", sessions.Loads().Active())
		}

		// Stop the sweeper and let writebacks drain
		cancelJobs()
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	<-done
	wg.Wait()
	slog.Info("server stopped")
}

// connect opens and verifies the pgx pool.
func connect(ctx context.Context, dc config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dc.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(dc.MaxConns)
	poolConfig.MinConns = int32(dc.MinConns)
	poolConfig.MaxConnLifetime = dc.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dc.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(dc.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

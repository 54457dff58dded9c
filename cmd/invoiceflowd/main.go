// Command invoiceflowd runs the invoice processing engine behind an
// HTTP API. Configuration comes from the environment:
//
//	INVOICEFLOW_ADDR            listen address (default ":8080")
//	INVOICEFLOW_STORE           memory | sqlite | postgres | redis (default "memory")
//	INVOICEFLOW_SQLITE_PATH     sqlite database path (default "invoiceflow.db")
//	INVOICEFLOW_POSTGRES_DSN    postgres connection string
//	INVOICEFLOW_REDIS_ADDR      redis address (default "127.0.0.1:6379")
//	INVOICEFLOW_AUTO_APPROVE    auto-approve threshold (default "0.90")
//	INVOICEFLOW_REVIEW_BASE_URL review link base (default "http://internal/review")
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/api"
	audithook "github.com/xraph/invoiceflow/audit_hook"
	"github.com/xraph/invoiceflow/collab/local"
	"github.com/xraph/invoiceflow/engine"
	"github.com/xraph/invoiceflow/hook"
	"github.com/xraph/invoiceflow/observability"
	"github.com/xraph/invoiceflow/run"
	"github.com/xraph/invoiceflow/store/memory"
	"github.com/xraph/invoiceflow/store/postgres"
	"github.com/xraph/invoiceflow/store/redis"
	"github.com/xraph/invoiceflow/store/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := realMain(logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func realMain(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configFromEnv()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	hooks := hook.NewRegistry(logger)
	hooks.Register(observability.NewMetricsExtension())
	hooks.Register(audithook.New(slogRecorder(logger)))

	eng, err := engine.New(cfg, store, local.NewSet(),
		engine.WithLogger(logger),
		engine.WithHooks(hooks),
	)
	if err != nil {
		return err
	}

	addr := envOr("INVOICEFLOW_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(eng, api.WithLogger(logger)).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return eng.Close(shutdownCtx)
	})

	return g.Wait()
}

func configFromEnv() invoiceflow.Config {
	cfg := invoiceflow.DefaultConfig()

	if v := os.Getenv("INVOICEFLOW_AUTO_APPROVE"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AutoApproveThreshold = threshold
		}
	}
	if v := os.Getenv("INVOICEFLOW_REVIEW_BASE_URL"); v != "" {
		cfg.ReviewBaseURL = v
	}

	return cfg
}

func openStore(ctx context.Context) (run.Store, error) {
	switch backend := envOr("INVOICEFLOW_STORE", "memory"); backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(envOr("INVOICEFLOW_SQLITE_PATH", "invoiceflow.db"))
	case "postgres":
		dsn := os.Getenv("INVOICEFLOW_POSTGRES_DSN")
		if dsn == "" {
			return nil, errors.New("INVOICEFLOW_POSTGRES_DSN is required for the postgres store")
		}
		return postgres.Open(ctx, dsn)
	case "redis":
		return redis.Open(ctx, envOr("INVOICEFLOW_REDIS_ADDR", "127.0.0.1:6379"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// slogRecorder ships audit events to the process log. Deployments with
// a dedicated audit backend swap this for their own Recorder.
func slogRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		level := slog.LevelInfo
		switch evt.Severity {
		case audithook.SeverityWarning:
			level = slog.LevelWarn
		case audithook.SeverityCritical:
			level = slog.LevelError
		}

		attrs := []any{
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
		}
		if evt.Reason != "" {
			attrs = append(attrs, slog.String("reason", evt.Reason))
		}
		for k, v := range evt.Metadata {
			attrs = append(attrs, slog.Any(k, v))
		}

		logger.Log(ctx, level, "audit: "+evt.Action, attrs...)
		return nil
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

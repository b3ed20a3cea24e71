package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budget-advisor/internal/auth"
	"budget-advisor/internal/budget"
	"budget-advisor/internal/config"
	"budget-advisor/internal/httpapi"
	"budget-advisor/internal/logging"
	"budget-advisor/internal/metrics"
	"budget-advisor/internal/store"
	"budget-advisor/internal/store/migrations"
	"budget-advisor/internal/store/postgres"
	"budget-advisor/internal/store/sqlite"
	"budget-advisor/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const serviceName = "budget-advisor"

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	provider, err := budget.NewProvider(ctx, budget.ProviderConfig{
		Kind:     cfg.BudgetProvider,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	})
	if err != nil {
		return err
	}
	if budget.IsOffline(provider) {
		logger.Warn("budget provider offline, every plan will use the fallback template")
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret))
	generator := budget.NewGenerator(provider, st, budget.Options{Logger: logger, Metrics: m})
	handler := httpapi.NewHandler(auth.NewService(st, tokens), tokens, generator, httpapi.Options{
		Gatherer:          reg,
		FrontendDir:       cfg.FrontendDir,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(logger, m)(handler.Routes()), serviceName)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("budget-advisor listening", "addr", server.Addr, "db_driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	logger = logger.With("component", logging.ComponentStorage)
	switch cfg.DBDriver {
	case "postgres":
		if err := migrations.UpPostgres(cfg.DBDSN); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		logger.Info("connected to postgres")
		return postgres.NewStore(pool), nil
	default:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := migrations.UpSQLite(cfg.SQLitePath); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("opened sqlite database", "path", cfg.SQLitePath)
		return st, nil
	}
}

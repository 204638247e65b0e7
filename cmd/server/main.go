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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	exportHandler "survey-gateway/internal/export/handler"
	exportMetrics "survey-gateway/internal/export/metrics"
	exportService "survey-gateway/internal/export/service"
	"survey-gateway/internal/identity"
	identityMetrics "survey-gateway/internal/identity/metrics"
	"survey-gateway/internal/platform/config"
	"survey-gateway/internal/platform/httpserver"
	"survey-gateway/internal/platform/logger"
	httpMetrics "survey-gateway/internal/platform/metrics"
	"survey-gateway/internal/platform/otel"
	"survey-gateway/internal/platform/storage"
	"survey-gateway/internal/policy"
	submissionHandler "survey-gateway/internal/submission/handler"
	submissionMetrics "survey-gateway/internal/submission/metrics"
	submissionService "survey-gateway/internal/submission/service"
	submissionStore "survey-gateway/internal/submission/store"
	httptransport "survey-gateway/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// ledger is what both features need from the submission store.
type ledger interface {
	submissionService.Store
	exportService.Reader
}

// main wires dependencies and runs the server until SIGINT or SIGTERM.
// Business logic lives in the internal feature packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, readiness, closeStore, err := openLedger(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier := identity.NewTokenInfoVerifier(cfg.Identity.TokenInfoURL, cfg.Identity.ClientID,
		identity.WithTimeout(cfg.Identity.Timeout),
		identity.WithLogger(log),
		identity.WithMetrics(identityMetrics.New(reg)),
	)
	allowList := policy.NewAllowList(cfg.Admin.Emails...)

	submissions := submissionService.New(store,
		submissionService.WithLogger(log),
		submissionService.WithMetrics(submissionMetrics.New(reg)),
	)
	exports := exportService.New(verifier, allowList, store,
		exportService.WithLogger(log),
		exportService.WithMetrics(exportMetrics.New(reg)),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics.New(reg),
		Gatherer:       reg,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Readiness:      readiness,
		Handlers: []httptransport.Registrar{
			submissionHandler.New(verifier, submissions, log),
			exportHandler.New(exports, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting survey-gateway",
			"addr", cfg.Addr,
			"storage", cfg.Database.Driver,
			"admins", allowList.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openLedger selects the submission store. The readiness checker is nil for
// the in-memory store.
func openLedger(ctx context.Context, cfg config.Database, log *slog.Logger) (ledger, httptransport.ReadinessChecker, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory submission store; submissions are lost on restart")
		return submissionStore.NewInMemory(), nil, func() {}, nil
	}

	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}
	store, err := submissionStore.NewSQL(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database failed", "error", err)
		}
	}
	return store, db, closeDB, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketlake-labs/marketlake-go/internal/catalog"
	"github.com/marketlake-labs/marketlake-go/internal/cloud"
	"github.com/marketlake-labs/marketlake-go/internal/ledger"
	"github.com/marketlake-labs/marketlake-go/internal/platform/auth"
	"github.com/marketlake-labs/marketlake-go/internal/platform/env"
	"github.com/marketlake-labs/marketlake-go/internal/platform/httpserver"
	"github.com/marketlake-labs/marketlake-go/internal/platform/objectstore"
	"github.com/marketlake-labs/marketlake-go/internal/platform/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("CATALOG_HTTP_ADDR", ":8081")
	shutdownTimeout, err := env.Duration("CATALOG_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	defaultOrganization := env.String("MARKETLAKE_ORGANIZATION_ID", "")

	marketCfg, err := cloud.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid market api config", "error", err)
		os.Exit(2)
	}
	market, err := cloud.New(marketCfg, logger)
	if err != nil {
		logger.Error("market api client failed", "error", err)
		os.Exit(2)
	}

	// File listings come from the market API unless a local MinIO mirror of
	// the data lake is configured.
	var lister catalog.Lister = market
	mirrorEnabled, err := env.Bool("MIRROR_ENABLED", false)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	if mirrorEnabled {
		mirrorCfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid mirror config", "error", err)
			os.Exit(2)
		}
		minioClient, err := objectstore.NewMinIOClient(mirrorCfg)
		if err != nil {
			logger.Error("mirror client failed", "error", err)
			os.Exit(1)
		}
		if err := objectstore.CheckBucket(ctx, minioClient, mirrorCfg); err != nil {
			logger.Error("mirror bucket unavailable", "error", err)
			os.Exit(1)
		}
		lister = objectstore.NewMirrorLister(minioClient, mirrorCfg.Bucket)
	}

	readinessChecks := []httpserver.ReadinessCheck{}

	var orders *ledger.Store
	ledgerEnabled, err := env.Bool("LEDGER_ENABLED", true)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	if ledgerEnabled {
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(2)
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		orders = ledger.NewStore(db)
		readinessChecks = append(readinessChecks, httpserver.ReadinessCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				return db.PingContext(checkCtx)
			},
		})
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	authenticator, err := auth.FromConfig(ctx, authCfg)
	if err != nil {
		logger.Error("authenticator failed", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("catalog"))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks("catalog", readinessChecks...))

	var recorder orderRecorder
	if orders != nil {
		recorder = orders
	}
	eng := newEngine(logger, market, lister, recorder, defaultOrganization)
	api := newCatalogAPI(logger, eng)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.MethodRoleAuthorizer(),
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "catalog",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "catalog", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

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

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hirorogo/fusaikanri/internal/auth"
	"github.com/hirorogo/fusaikanri/internal/config"
	"github.com/hirorogo/fusaikanri/internal/ledger"
	"github.com/hirorogo/fusaikanri/internal/middleware"
	"github.com/hirorogo/fusaikanri/internal/server"
	"github.com/hirorogo/fusaikanri/internal/storage"
	"github.com/hirorogo/fusaikanri/internal/storage/jsonfile"
	"github.com/hirorogo/fusaikanri/internal/storage/sqlite"
	"github.com/hirorogo/fusaikanri/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func main() {
	logging.Setup()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.StorageDriver, "path", cfg.LedgerPath())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ldg, err := ledger.New(ctx, store, cfg.TransferDefault)
	if err != nil {
		slog.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
	)

	var protected []gin.HandlerFunc
	if cfg.AuthSecret != "" {
		protected = append(protected, middleware.RequireAuth(
			auth.NewJWTManager(cfg.AuthSecret, tokenDuration),
		))
	} else {
		slog.Warn("AUTH_SECRET not set, ledger API is unauthenticated")
	}
	server.New(ldg).Register(router, protected...)

	// h2c so host components can reach the API over HTTP/2 without TLS.
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	go func() {
		slog.Info("Ledger server starting", "address", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return sqlite.New(cfg.LedgerPath())
	default:
		return jsonfile.New(cfg.LedgerPath())
	}
}

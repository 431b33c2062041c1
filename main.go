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

	"github.com/spf13/cobra"
	"github.com/vainnor/checkins/api"
	"github.com/vainnor/checkins/config"
	"github.com/vainnor/checkins/db"
	"github.com/vainnor/checkins/logging"
	"github.com/vainnor/checkins/services/ingest"
	"github.com/vainnor/checkins/services/listing"
	"github.com/vainnor/checkins/services/reports"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "checkins",
		Short:        "Net check-in log archive",
		Long:         "Ingests amateur radio net logs into Postgres and reports who has not been heard lately.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			logger = logging.Setup(cfg.Logging.Level, os.Stderr)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore validates the database settings and connects
func openStore(ctx context.Context) (*db.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateTables(ctx); err != nil {
		return err
	}

	h := &api.Handler{
		Ingest:         ingest.NewService(store, logger),
		Listing:        listing.NewService(store),
		Reports:        reports.NewService(store),
		Stats:          store,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	}
	var limiter *api.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(h, limiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the API server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if tlsEnabled(cfg.Server) {
			logger.Info("HTTPS server listening", "addr", srv.Addr)
			errCh <- srv.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath)
			return
		}
		logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Warn("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// tlsEnabled reports whether both certificate files are configured and present
func tlsEnabled(s config.ServerConfig) bool {
	if s.TLSCertPath == "" || s.TLSKeyPath == "" {
		return false
	}
	for _, p := range []string{s.TLSCertPath, s.TLSKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

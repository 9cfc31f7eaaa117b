// =============================================================================
// Merchant Fee Intake - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   intake serve [flags]
//
// Runs the HTTP API: schema listing, template download, file upload
// validation, manual draft editing and validation, batch listing and
// merchant fee calculation.
//
// Batch storage is enabled when database.url is set. The pricing backend
// is called when pricing.base_url is set; otherwise the built-in stub
// answers calculation requests.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/api"
	"github.com/ginjaninja78/merchant-fee-intake/internal/intake"
	"github.com/ginjaninja78/merchant-fee-intake/internal/manual"
	"github.com/ginjaninja78/merchant-fee-intake/internal/pricing"
	"github.com/ginjaninja78/merchant-fee-intake/internal/storage"
	"github.com/ginjaninja78/merchant-fee-intake/pkg/logger"
)

var (
	servePort     string
	serveDraftTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")
	serveCmd.Flags().DurationVar(&serveDraftTTL, "draft-ttl", 2*time.Hour,
		"Discard draft sessions idle for longer than this")
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	appLogger := logger.Get()
	cfg := appConfig
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	deps := api.Deps{
		Config:   cfg,
		Pipeline: intake.NewFromConfig(cfg, appLogger),
		Drafts:   manual.NewStore(),
		Pricing:  pricing.NewClient(cfg.Pricing, appLogger),
		Logger:   appLogger,
		Version:  Version,
	}

	if cfg.Database.URL != "" {
		pool, err := storage.NewPool(ctx, cfg.Database, appLogger)
		if err != nil {
			return err
		}
		defer pool.Close()
		deps.Batches = storage.NewBatchRepository(pool, appLogger)
	} else {
		appLogger.Warn("No database configured, batch storage disabled")
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go pruneDrafts(ctx, deps.Drafts, serveDraftTTL, appLogger)

	app := api.SetupRouter(api.NewHandler(deps), cfg.Server, appLogger)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// pruneDrafts discards idle draft sessions until ctx is cancelled.
func pruneDrafts(ctx context.Context, drafts *manual.Store, ttl time.Duration, log *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := drafts.Prune(ttl); n > 0 {
				log.Debug("Pruned idle draft sessions", zap.Int("count", n))
			}
		}
	}
}

package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/infrastructure/restapi"
	"jpeg_swap/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "jpeg_swap",
	Short: "NFT swap pool and staking dashboard",
	Long:  `jpeg_swap serves a dashboard over the swap pool factory, its pools and the staking pool, and submits swap, stake and claim transactions.`,
	Run:   runServer,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/config.yml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// setup loads .env and the config file and initializes logging.
func setup() (*configloader.Config, *zap.Logger) {
	_ = godotenv.Load()

	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if isDebug {
		level = "debug"
	}
	zl, err := logger.Init(level, cfg.Logging.Development || isDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Configuration loaded", "path", cfgPath, "network", cfg.Network.Name, "chain_id", cfg.Network.ID)
	return cfg, zl
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, zl := setup()
	defer logger.Sync()

	app, err := newApp(cfg, zl)
	if err != nil {
		logger.Fatal("Failed to initialize dashboard", "error", err)
	}
	defer app.session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout()+time.Minute)
	if conn, err := app.session.Connect(ctx); err != nil {
		logger.Warn("Initial connect failed, waiting for POST /api/v1/session/connect", "error", err)
	} else {
		logger.Info("Session connected", "account", conn.Account, "chain_id", conn.ChainID, "wrong_network", conn.WrongNetwork)
	}
	cancel()

	if !isDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewDashboardHandler(app.session, logger.NewSlogAdapter("restapi"))
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: restapi.SetupRouter(handler, zl.Named("http")),
	}

	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal, shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Dashboard stopped")
}

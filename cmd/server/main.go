package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/wondersforge/wonders-server-go/internal/catalog"
	"github.com/wondersforge/wonders-server-go/internal/config"
	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/server"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting wonders server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("templates", len(cat.Templates())),
		zap.Int("wonders", len(cat.Wonders())),
	)

	dealer := catalog.NewDeckBuilder(cat, catalog.DealerOptions{
		Shuffle: cfg.Rules.Shuffle,
		Seed:    cfg.Rules.Seed,
	})

	opts := game.EngineOptions{EnumerateTrades: cfg.Rules.EnumerateTrades}
	if cfg.Replay.Enabled {
		if err := os.MkdirAll(cfg.Replay.Directory, 0o755); err != nil {
			logger.Fatal("failed to create replay directory", zap.Error(err))
		}
		opts.Recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}

	tableMgr := table.NewManager(cat, dealer, opts, logger)
	logger.Info("table manager initialized")

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	server.RegisterGameService(grpcServer, server.NewGameService(tableMgr, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	hub := server.NewHub(tableMgr, cfg.Server.WebSocket.AllowedOrigins, logger)
	wsServer := server.NewWebSocketServer(hub, cfg.Server.WebSocket, logger)
	go func() {
		logger.Info("starting WebSocket server", zap.String("address", cfg.Server.WebSocket.Address))
		if wsErr := wsServer.ListenAndServe(); wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("wonders server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Bool("enumerate_trades", cfg.Rules.EnumerateTrades),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("wonders server stopped", zap.Int("active_games", tableMgr.ActiveCount()))
}

// loadCatalog reads the card and wonder content from the configured source.
func loadCatalog(ctx context.Context, cfg config.CatalogConfig) (*cards.MemoryCatalog, error) {
	if cfg.Source != config.CatalogPostgres {
		return catalog.Embedded()
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	source, err := catalog.NewPostgresSource(loadCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	return source.Load(loadCtx)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// Command interview-engine wires configuration, storage, detectors, the
// scheduler-driven SessionManager, and the two external transports
// (REST + event-socket) into one runnable process.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/insighthire/engine/pkg/detector/providers/eye"
	_ "github.com/insighthire/engine/pkg/detector/providers/face"
	_ "github.com/insighthire/engine/pkg/detector/providers/hand"
	_ "github.com/insighthire/engine/pkg/detector/providers/voice"

	"github.com/insighthire/engine/pkg/aggregator"
	"github.com/insighthire/engine/pkg/config"
	"github.com/insighthire/engine/pkg/manager"
	"github.com/insighthire/engine/pkg/restapi"
	"github.com/insighthire/engine/pkg/store/iface"
	"github.com/insighthire/engine/pkg/store/providers/inmemory"
	"github.com/insighthire/engine/pkg/store/providers/postgres"
	"github.com/insighthire/engine/pkg/transport/providers/websocket"
)

func main() {
	configName := flag.String("config-name", "engine", "config file name (without extension) to look for")
	configPath := flag.String("config-path", ".", "directory to search for the config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configName, *configPath, logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configName, configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configName, []string{configPath})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := inmemory.NewEventBus()

	mgr, err := manager.New(cfg.DetectorConfig(), store, bus, logger)
	if err != nil {
		return err
	}
	agg := aggregator.New(store)

	rest := restapi.NewServer(mgr, agg, store, logger)
	restSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: rest.Router()}

	wsHandler := websocket.NewHandler(mgr, bus, logger)
	wsSrv := &http.Server{Addr: cfg.WebSocketAddr, Handler: wsHandler}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("rest api listening", slog.String("addr", cfg.HTTPAddr))
		if err := restSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("event socket listening", slog.String("addr", cfg.WebSocketAddr))
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", slog.Any("error", err))
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("rest api shutdown error", slog.Any("error", err))
	}
	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("event socket shutdown error", slog.Any("error", err))
	}
	return nil
}

func buildStore(ctx context.Context, cfg *config.AppConfig) (iface.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pgCfg := postgres.Config{
			ConnectionString: cfg.PostgresDSN,
			SamplesTable:     cfg.PostgresSampleTbl,
			FinalScoresTable: cfg.PostgresFinalTbl,
			JobRolesTable:    cfg.PostgresJobTbl,
		}
		store, err := postgres.New(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return inmemory.New(), func() {}, nil
	}
}

// chessduel-server exposes the game harness over HTTP. Sessions live in
// Redis when REDIS_URL is set, in memory otherwise.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chessduel/chessduel/internal/config"
	"github.com/chessduel/chessduel/internal/engine"
	"github.com/chessduel/chessduel/internal/engine/uci"
	"github.com/chessduel/chessduel/internal/game"
	"github.com/chessduel/chessduel/internal/httpapi"
	"github.com/chessduel/chessduel/internal/obslog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	eng, err := engine.New(engine.Config{
		BinaryPath: cfg.StockfishPath,
		Options: uci.Options{
			Threads:    cfg.EngineThreads,
			HashMB:     cfg.EngineHashMB,
			SkillLevel: cfg.EngineSkillLevel,
			Elo:        cfg.EngineElo,
		},
		Limits: uci.Limits{
			Depth:          cfg.SearchDepth,
			MoveTimeMillis: cfg.MoveTimeMillis,
			NodeCap:        cfg.SearchNodes,
		},
		PoolSize: cfg.EnginePoolSize,
	}, logger)
	if err != nil {
		log.Fatalf("engine init error: %v", err)
	}
	defer func() { _ = eng.Close() }()

	var store game.Store
	if cfg.RedisURL != "" {
		redisStore, err := game.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer func() { _ = redisStore.Close() }()
		store = redisStore
		logger.Info("session store: redis", zap.Duration("ttl", cfg.SessionTTL))
	} else {
		store = game.NewMemoryStore()
		logger.Info("session store: memory")
	}

	manager, err := game.NewManager(game.ManagerConfig{
		Engine:        eng,
		Store:         store,
		PersistDir:    cfg.PersistDir,
		StrictIllegal: cfg.StrictIllegal,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("manager init error: %v", err)
	}

	srv := &fasthttp.Server{
		Handler: httpapi.New(manager, logger).Handler(),
		Name:    "chessduel",
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Shutdown(); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http server error: %v", err)
		}
	}
}

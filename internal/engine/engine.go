package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chessduel/chessduel/internal/engine/uci"
	"go.uber.org/zap"
)

// Config describes the engine binary and how hard it is allowed to think.
type Config struct {
	BinaryPath string
	Options    uci.Options
	Limits     uci.Limits
	PoolSize   int
}

// Engine is the harness-facing facade over a pool of UCI sessions. It is
// safe for concurrent use; each request runs on its own session.
type Engine struct {
	pool   *uci.Pool
	limits uci.Limits
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := uci.BuildGoCommand(cfg.Limits); err != nil {
		return nil, fmt.Errorf("engine limits: %w", err)
	}
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Options:    cfg.Options,
		Capacity:   cfg.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{pool: pool, limits: cfg.Limits, logger: logger}, nil
}

// BestMove asks the engine for its reply to the given position. The session
// is released healthy for reuse or discarded on any failure.
func (e *Engine) BestMove(ctx context.Context, fen string) (string, error) {
	session, err := e.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	var requestErr error
	defer func() {
		e.pool.Release(session, requestErr)
	}()

	if err := session.NewGame(ctx); err != nil {
		requestErr = err
		return "", err
	}

	start := time.Now()
	move, err := session.BestMove(ctx, fen, e.limits)
	if err != nil {
		requestErr = err
		return "", err
	}

	e.logger.Debug("engine reply",
		zap.String("move", move),
		zap.Duration("search", time.Since(start)),
	)
	return move, nil
}

// Close drains the pool, terminating every pooled subprocess.
func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}

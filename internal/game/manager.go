package game

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chessduel/chessduel/internal/board"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager runs many independent sessions against one shared engine pool.
// Boards are not kept live between requests: each ply replays the stored
// move history, so the authoritative state lives in the store.
type Manager struct {
	engine Engine
	store  Store
	// persistDir holds one <id>.fen file per session; empty disables the
	// external position files.
	persistDir string
	strict     bool
	logger     *zap.Logger

	locks sync.Map // session id -> *sync.Mutex
}

type ManagerConfig struct {
	Engine        Engine
	Store         Store
	PersistDir    string
	StrictIllegal bool
	Logger        *zap.Logger
}

// Snapshot is the externally visible state of a stored session.
type Snapshot struct {
	ID     string
	FEN    string
	Status Status
	Moves  []string
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("game engine is required")
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		engine:     cfg.Engine,
		store:      cfg.Store,
		persistDir: cfg.PersistDir,
		strict:     cfg.StrictIllegal,
		logger:     cfg.Logger,
	}, nil
}

// Start creates a new session at the standard starting position.
func (m *Manager) Start(ctx context.Context) (*Snapshot, error) {
	id := uuid.NewString()
	now := time.Now()
	payload := &sessionPayload{
		SessionUUID: id,
		Moves:       []string{},
		Status:      StatusInProgress,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Save(ctx, id, payload); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Info("game session started", zap.String("session_id", id))
	return &Snapshot{
		ID:     id,
		FEN:    board.NewBoard().FEN(),
		Status: StatusInProgress,
		Moves:  []string{},
	}, nil
}

// Play submits one caller move to the identified session. Calls for the
// same id are strictly serialized; distinct sessions proceed concurrently.
func (m *Manager) Play(ctx context.Context, id string, notation string) (*PlyResult, error) {
	unlock := m.lock(id)
	defer unlock()

	payload, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	if payload.Status.Terminal() {
		return nil, ErrGameFinished
	}

	b, err := replayMoves(payload.Moves)
	if err != nil {
		return nil, fmt.Errorf("rebuild session %s: %w", id, err)
	}

	sess, err := NewSession(SessionConfig{
		ID:            id,
		Board:         b,
		Engine:        leasedEngine{m.engine},
		Persister:     m.persisterFor(id),
		Moves:         payload.Moves,
		StrictIllegal: m.strict,
		Logger:        m.logger,
	})
	if err != nil {
		return nil, err
	}

	res, playErr := sess.PlayPly(ctx, notation)
	if playErr != nil {
		if sess.Status() == StatusAborted {
			payload.Status = StatusAborted
			payload.UpdatedAt = time.Now()
			if saveErr := m.store.Save(ctx, id, payload); saveErr != nil {
				m.logger.Warn("failed to record aborted session", zap.Error(saveErr), zap.String("session_id", id))
			}
		}
		return nil, playErr
	}

	payload.Moves = sess.Moves()
	payload.Status = res.Status
	payload.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, id, payload); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return res, nil
}

// Snapshot reports the current position of a stored session.
func (m *Manager) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	payload, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	b, err := replayMoves(payload.Moves)
	if err != nil {
		return nil, fmt.Errorf("rebuild session %s: %w", id, err)
	}
	return &Snapshot{
		ID:     id,
		FEN:    b.FEN(),
		Status: payload.Status,
		Moves:  append([]string(nil), payload.Moves...),
	}, nil
}

// Abort removes a session. Idempotent for unknown ids.
func (m *Manager) Abort(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("game session aborted", zap.String("session_id", id))
	return nil
}

func (m *Manager) lock(id string) func() {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (m *Manager) persisterFor(id string) Persister {
	if m.persistDir == "" {
		return NopPersister{}
	}
	return NewFilePersister(filepath.Join(m.persistDir, id+".fen"))
}

func replayMoves(moves []string) (*board.Board, error) {
	b := board.NewBoard()
	for _, mv := range moves {
		if _, err := b.Submit(mv); err != nil {
			return nil, fmt.Errorf("replay %s: %w", mv, err)
		}
	}
	return b, nil
}

// leasedEngine shields the shared pool from per-session Close calls; the
// server owns the pool's lifecycle.
type leasedEngine struct {
	inner Engine
}

func (l leasedEngine) BestMove(ctx context.Context, fen string) (string, error) {
	return l.inner.BestMove(ctx, fen)
}

func (l leasedEngine) Close() error { return nil }

package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chessduel/chessduel/internal/board"
	"github.com/chessduel/chessduel/internal/engine/uci"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrGameFinished    = errors.New("game already finished")
)

// Status is the lifecycle state of one GameSession.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWhiteWins  Status = "white_wins"
	StatusBlackWins  Status = "black_wins"
	StatusDraw       Status = "draw"
	StatusAborted    Status = "aborted"
)

func (s Status) Terminal() bool { return s != StatusInProgress }

func statusFromOutcome(o board.Outcome) Status {
	switch o {
	case board.OutcomeWhiteWins:
		return StatusWhiteWins
	case board.OutcomeBlackWins:
		return StatusBlackWins
	case board.OutcomeDraw:
		return StatusDraw
	default:
		return StatusInProgress
	}
}

// Engine is the reply source for the opposing side. Implemented by the
// pooled UCI engine; tests substitute scripted fakes.
type Engine interface {
	BestMove(ctx context.Context, fen string) (string, error)
	Close() error
}

// Session owns one board, one engine handle and one persister. Exactly one
// session exists per game; Close terminates the engine when the game ends
// or aborts, whatever the outcome.
type Session struct {
	id        string
	engine    Engine
	persister Persister
	strict    bool
	logger    *zap.Logger

	mu        sync.Mutex
	board     *board.Board
	moves     []string
	status    Status
	method    string
	startedAt time.Time
	closed    bool
}

type SessionConfig struct {
	// ID is assigned when empty.
	ID     string
	Board  *board.Board
	Engine Engine
	// Persister receives the FEN after every committed half-move.
	Persister Persister
	// Moves seeds the UCI history when the board was rebuilt by replay.
	Moves []string
	// StrictIllegal aborts the session on an illegal caller move instead
	// of rejecting it for retry.
	StrictIllegal bool
	Logger        *zap.Logger
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("game engine is required")
	}
	if cfg.Board == nil {
		cfg.Board = board.NewBoard()
	}
	if cfg.Persister == nil {
		cfg.Persister = NopPersister{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:        id,
		engine:    cfg.Engine,
		persister: cfg.Persister,
		strict:    cfg.StrictIllegal,
		logger:    cfg.Logger,
		board:     cfg.Board,
		moves:     append([]string(nil), cfg.Moves...),
		status:    statusFromOutcome(cfg.Board.Outcome()),
		startedAt: time.Now(),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.FEN()
}

// Moves returns the committed UCI history.
func (s *Session) Moves() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.moves...)
}

// PlyResult reports one full exchange back to the caller.
type PlyResult struct {
	Status     Status
	Method     string
	PlayerMove board.Move
	EngineMove board.Move
	FEN        string
}

// PlayPly runs one full exchange: validate and apply the caller's move,
// persist, evaluate, and while the game is ongoing obtain and apply the
// engine's reply with the same commit discipline. Calls are strictly
// serialized per session; a second call never interleaves engine requests
// with the first.
func (s *Session) PlayPly(ctx context.Context, notation string) (*PlyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return nil, ErrGameFinished
	}

	playerMove, err := s.board.Submit(notation)
	if err != nil {
		if s.strict && errors.Is(err, board.ErrIllegalMove) {
			s.abortLocked("illegal move under strict policy", err)
			return nil, err
		}
		// Recoverable: no state change, the caller may retry.
		return nil, err
	}
	s.moves = append(s.moves, playerMove.UCI())

	if err := s.commitLocked(); err != nil {
		s.abortLocked("persist caller move", err)
		return nil, err
	}
	if st := statusFromOutcome(s.board.Outcome()); st.Terminal() {
		s.finishLocked(st)
		return s.resultLocked(playerMove, board.Move{}), nil
	}

	reply, err := s.engine.BestMove(ctx, s.board.FEN())
	if err != nil {
		s.abortLocked("engine request", err)
		return nil, err
	}

	// The engine reply passes through the same validator as caller moves;
	// an illegal reply is a protocol violation, not a playable move.
	engineMove, err := s.board.Submit(reply)
	if err != nil {
		wrapped := fmt.Errorf("%w: engine replied %q: %v", uci.ErrProtocol, reply, err)
		s.abortLocked("engine reply rejected", wrapped)
		return nil, wrapped
	}
	s.moves = append(s.moves, engineMove.UCI())

	if err := s.commitLocked(); err != nil {
		s.abortLocked("persist engine move", err)
		return nil, err
	}
	if st := statusFromOutcome(s.board.Outcome()); st.Terminal() {
		s.finishLocked(st)
	} else {
		s.logger.Debug("ply exchanged",
			zap.String("session_id", s.id),
			zap.String("player", playerMove.SAN()),
			zap.String("engine", engineMove.SAN()),
		)
	}
	return s.resultLocked(playerMove, engineMove), nil
}

// Close terminates the engine subprocess. Idempotent; an in-progress game
// is marked aborted.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.Terminal() {
		s.status = StatusAborted
	}
	return s.shutdownLocked()
}

func (s *Session) commitLocked() error {
	return s.persister.Write(s.board.FEN())
}

func (s *Session) finishLocked(st Status) {
	s.status = st
	s.method = s.board.Method()
	s.logger.Info("game decided",
		zap.String("session_id", s.id),
		zap.String("status", string(st)),
		zap.String("method", s.method),
		zap.Int("plies", len(s.moves)),
		zap.Duration("duration", time.Since(s.startedAt)),
	)
	_ = s.shutdownLocked()
}

func (s *Session) abortLocked(stage string, err error) {
	s.status = StatusAborted
	s.logger.Warn("game aborted",
		zap.String("session_id", s.id),
		zap.String("stage", stage),
		zap.Error(err),
	)
	_ = s.shutdownLocked()
}

func (s *Session) shutdownLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.engine.Close()
}

func (s *Session) resultLocked(player, engine board.Move) *PlyResult {
	return &PlyResult{
		Status:     s.status,
		Method:     s.method,
		PlayerMove: player,
		EngineMove: engine,
		FEN:        s.board.FEN(),
	}
}

// StatusLine is the caller-facing one-line summary of a ply result.
func StatusLine(res *PlyResult) string {
	switch res.Status {
	case StatusWhiteWins:
		return "winner: white"
	case StatusBlackWins:
		return "winner: black"
	case StatusDraw:
		return "draw"
	case StatusAborted:
		return "aborted"
	default:
		return "move: " + res.EngineMove.UCI()
	}
}

// ErrorCode maps the error taxonomy onto stable identifiers for the CLI
// and HTTP surfaces.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, board.ErrInvalidNotation):
		return "invalid_notation"
	case errors.Is(err, board.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, uci.ErrTimeout):
		return "engine_timeout"
	case errors.Is(err, uci.ErrProtocol):
		return "engine_protocol"
	case errors.Is(err, uci.ErrUnavailable):
		return "engine_unavailable"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrGameFinished):
		return "game_finished"
	default:
		return "internal"
	}
}

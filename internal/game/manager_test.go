package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestManager(t *testing.T, eng Engine, store Store) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{Engine: eng, Store: store})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore("redis://"+mr.Addr()+"/0", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestManager_StartAndPlay(t *testing.T) {
	eng := &scriptedEngine{replies: []string{"e7e5", "b8c6"}}
	m := newTestManager(t, eng, NewMemoryStore())
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.Status != StatusInProgress || len(snap.Moves) != 0 {
		t.Fatalf("fresh snapshot: %+v", snap)
	}
	if !strings.HasPrefix(snap.FEN, "rnbqkbnr/pppppppp/") {
		t.Fatalf("fresh FEN = %q", snap.FEN)
	}

	res, err := m.Play(ctx, snap.ID, "e2e4")
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.EngineMove.UCI() != "e7e5" {
		t.Fatalf("engine move = %q", res.EngineMove.UCI())
	}

	// The board is rebuilt from the stored history on the next ply.
	res, err = m.Play(ctx, snap.ID, "g1f3")
	if err != nil {
		t.Fatalf("Play second ply: %v", err)
	}
	if res.EngineMove.UCI() != "b8c6" {
		t.Fatalf("engine move = %q", res.EngineMove.UCI())
	}

	stored, err := m.Snapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(stored.Moves) != 4 {
		t.Fatalf("stored history = %v", stored.Moves)
	}
	if stored.FEN != res.FEN {
		t.Fatalf("snapshot FEN %q diverges from ply result %q", stored.FEN, res.FEN)
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m := newTestManager(t, &scriptedEngine{}, NewMemoryStore())
	ctx := context.Background()

	if _, err := m.Play(ctx, "no-such-id", "e2e4"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Play = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.Snapshot(ctx, "no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Snapshot = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_FinishedGameRejectsMoves(t *testing.T) {
	eng := &scriptedEngine{replies: []string{"e7e5", "d8h4"}}
	m := newTestManager(t, eng, NewMemoryStore())
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Play(ctx, snap.ID, "f2f3"); err != nil {
		t.Fatalf("Play f2f3: %v", err)
	}
	res, err := m.Play(ctx, snap.ID, "g2g4")
	if err != nil {
		t.Fatalf("Play g2g4: %v", err)
	}
	if res.Status != StatusBlackWins {
		t.Fatalf("status = %q, want black win", res.Status)
	}

	if _, err := m.Play(ctx, snap.ID, "a2a3"); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("Play after mate = %v, want ErrGameFinished", err)
	}
}

func TestManager_AbortDeletesSession(t *testing.T) {
	m := newTestManager(t, &scriptedEngine{}, NewMemoryStore())
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Abort(ctx, snap.ID); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := m.Snapshot(ctx, snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Snapshot after abort = %v, want ErrSessionNotFound", err)
	}

	// Idempotent for ids that no longer exist.
	if err := m.Abort(ctx, snap.ID); err != nil {
		t.Fatalf("second Abort: %v", err)
	}
}

func TestManager_EngineFailureRecordsAbort(t *testing.T) {
	m := newTestManager(t, &scriptedEngine{err: errors.New("engine crashed")}, NewMemoryStore())
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Play(ctx, snap.ID, "e2e4"); err == nil {
		t.Fatalf("Play should surface the engine failure")
	}

	stored, err := m.Snapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if stored.Status != StatusAborted {
		t.Fatalf("status = %q, want aborted", stored.Status)
	}
}

func TestManager_WritesPositionFilePerSession(t *testing.T) {
	dir := t.TempDir()
	eng := &scriptedEngine{replies: []string{"e7e5"}}
	m, err := NewManager(ManagerConfig{Engine: eng, Store: NewMemoryStore(), PersistDir: dir})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := m.Play(ctx, snap.ID, "e2e4")
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, snap.ID+".fen"))
	if err != nil {
		t.Fatalf("read position file: %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != res.FEN {
		t.Fatalf("position file %q does not mirror board %q", got, res.FEN)
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	payload := &sessionPayload{
		SessionUUID: "abc-123",
		Moves:       []string{"e2e4", "e7e5"},
		Status:      StatusInProgress,
		StartedAt:   time.Now().UTC().Truncate(time.Second),
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, payload.SessionUUID, payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, payload.SessionUUID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatalf("Load returned nil for a stored session")
	}
	if loaded.Status != StatusInProgress || len(loaded.Moves) != 2 || loaded.Moves[1] != "e7e5" {
		t.Fatalf("loaded payload = %+v", loaded)
	}

	if err := store.Delete(ctx, payload.SessionUUID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if loaded, err := store.Load(ctx, payload.SessionUUID); err != nil || loaded != nil {
		t.Fatalf("Load after delete = %+v, %v; want nil, nil", loaded, err)
	}
}

func TestManager_FullGameOverRedis(t *testing.T) {
	eng := &scriptedEngine{replies: []string{"e7e5", "d8h4"}}
	m := newTestManager(t, eng, newTestRedisStore(t))
	ctx := context.Background()

	snap, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Play(ctx, snap.ID, "f2f3"); err != nil {
		t.Fatalf("Play f2f3: %v", err)
	}
	res, err := m.Play(ctx, snap.ID, "g2g4")
	if err != nil {
		t.Fatalf("Play g2g4: %v", err)
	}
	if res.Status != StatusBlackWins || res.Method != "checkmate" {
		t.Fatalf("got %q/%q, want black win by checkmate", res.Status, res.Method)
	}

	stored, err := m.Snapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if stored.Status != StatusBlackWins || len(stored.Moves) != 4 {
		t.Fatalf("stored state after mate = %+v", stored)
	}
}

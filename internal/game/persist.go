package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPersistence means the position file could not be written. Fatal:
// external readers would otherwise silently observe stale state.
var ErrPersistence = errors.New("cannot persist position")

// Persister records the current position after every committed half-move
// for external readers.
type Persister interface {
	Write(fen string) error
}

// FilePersister overwrites a single-line FEN file in place. Deliberately a
// plain overwrite rather than an atomic rename: the file is a shared,
// unsynchronized resource and readers observing a partial write is an
// accepted, documented property of the harness.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Path() string { return p.path }

func (p *FilePersister) Write(fen string) error {
	if dir := filepath.Dir(p.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	if err := os.WriteFile(p.path, []byte(fen+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Read returns the last persisted FEN. os.IsNotExist errors pass through
// so callers can treat a missing file as a fresh game.
func (p *FilePersister) Read() (string, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// NopPersister discards writes; used where no external reader exists.
type NopPersister struct{}

func (NopPersister) Write(string) error { return nil }

package game

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilePersister_OverwritesInPlace(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "position.fen"))

	if err := p.Write("first"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Write("second"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := p.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "second" {
		t.Fatalf("Read = %q, want only the last write", got)
	}
}

func TestFilePersister_CreatesParentDirectories(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "nested", "dir", "position.fen"))
	if err := p.Write("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := p.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestFilePersister_ReadMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "absent.fen"))
	if _, err := p.Read(); !os.IsNotExist(err) {
		t.Fatalf("Read on a missing file = %v, want not-exist", err)
	}
}

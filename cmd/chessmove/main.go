// chessmove plays one half-move exchange against the engine: it loads the
// persisted position, applies the caller's move, asks the engine for its
// reply and writes the resulting position back for external readers.
//
//	chessmove e2e4
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chessduel/chessduel/internal/board"
	"github.com/chessduel/chessduel/internal/config"
	"github.com/chessduel/chessduel/internal/engine"
	"github.com/chessduel/chessduel/internal/engine/uci"
	"github.com/chessduel/chessduel/internal/game"
	"github.com/chessduel/chessduel/internal/obslog"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chessmove <move>")
		os.Exit(2)
	}
	notation := os.Args[1]

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
		PoolSize: 1,
	}, logger)
	if err != nil {
		log.Fatalf("engine init error: %v", err)
	}

	persister := game.NewFilePersister(cfg.PositionFile)
	b, err := loadBoard(persister)
	if err != nil {
		log.Fatalf("load position: %v", err)
	}

	sess, err := game.NewSession(game.SessionConfig{
		Board:         b,
		Engine:        eng,
		Persister:     persister,
		StrictIllegal: cfg.StrictIllegal,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("session init error: %v", err)
	}
	defer func() { _ = sess.Close() }()

	res, err := sess.PlayPly(context.Background(), notation)
	if err != nil {
		// A rejected move leaves the game playable; anything that aborted
		// the session is fatal.
		if sess.Status() == game.StatusInProgress {
			fmt.Printf("rejected (%s): %v\n", game.ErrorCode(err), err)
			return
		}
		log.Fatalf("ply failed (%s): %v", game.ErrorCode(err), err)
	}

	fmt.Println(game.StatusLine(res))
}

// loadBoard resumes from the position file, treating a missing file as a
// fresh game.
func loadBoard(p *game.FilePersister) (*board.Board, error) {
	fen, err := p.Read()
	if os.IsNotExist(err) {
		return board.NewBoard(), nil
	}
	if err != nil {
		return nil, err
	}
	return board.Parse(fen)
}

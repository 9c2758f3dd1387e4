package board

import (
	"errors"
	"strings"
	"testing"
)

func TestSubmit_AdvancesPosition(t *testing.T) {
	b := NewBoard()
	mv, err := b.Submit("e2e4")
	if err != nil {
		t.Fatalf("Submit e2e4: %v", err)
	}
	if mv.UCI() != "e2e4" {
		t.Fatalf("unexpected UCI encoding: %q", mv.UCI())
	}
	if mv.SAN() != "e4" {
		t.Fatalf("unexpected SAN encoding: %q", mv.SAN())
	}

	fields := strings.Fields(b.FEN())
	if len(fields) != 6 {
		t.Fatalf("expected six FEN fields, got %q", b.FEN())
	}
	if !strings.Contains(fields[0], "4P3") {
		t.Fatalf("e4 pawn missing from placement: %q", fields[0])
	}
	if fields[1] != "b" {
		t.Fatalf("side to move should flip to black, got %q", fields[1])
	}
	if fields[4] != "0" {
		t.Fatalf("halfmove clock should reset on pawn move, got %q", fields[4])
	}
	if fields[5] != "1" {
		t.Fatalf("fullmove number should stay 1 after one ply, got %q", fields[5])
	}
	if b.Turn() != "black" {
		t.Fatalf("Turn() = %q, want black", b.Turn())
	}
}

func TestSubmit_InvalidNotationLeavesBoardUntouched(t *testing.T) {
	b := NewBoard()
	before := b.FEN()

	for _, input := range []string{"", "hello", "e2", "e2e9", "z2z4", "e2e4x"} {
		if _, err := b.Submit(input); !errors.Is(err, ErrInvalidNotation) {
			t.Fatalf("Submit(%q) = %v, want ErrInvalidNotation", input, err)
		}
	}
	if b.FEN() != before {
		t.Fatalf("board mutated by rejected input: %q", b.FEN())
	}
}

func TestSubmit_IllegalMoveLeavesBoardUntouched(t *testing.T) {
	b := NewBoard()
	before := b.FEN()

	// Syntactically valid coordinates, but rule-illegal: a pawn cannot
	// advance three squares and e3 holds no piece.
	for _, input := range []string{"a2a5", "e3e4", "e7e5"} {
		if _, err := b.Submit(input); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("Submit(%q) = %v, want ErrIllegalMove", input, err)
		}
	}
	if b.FEN() != before {
		t.Fatalf("board mutated by illegal move: %q", b.FEN())
	}
}

func TestLegalMoves_StartingPosition(t *testing.T) {
	b := NewBoard()
	moves := b.LegalMoves()
	if len(moves) != 20 {
		t.Fatalf("expected 20 legal moves at the start, got %d", len(moves))
	}
	seen := map[string]bool{}
	for _, mv := range moves {
		seen[mv.UCI()] = true
	}
	if !seen["e2e4"] || !seen["g1f3"] {
		t.Fatalf("expected e2e4 and g1f3 among legal moves: %v", seen)
	}
}

func TestOutcome_FoolsMate(t *testing.T) {
	b := NewBoard()
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		if _, err := b.Submit(mv); err != nil {
			t.Fatalf("Submit %s: %v", mv, err)
		}
	}
	if got := b.Outcome(); got != OutcomeBlackWins {
		t.Fatalf("Outcome() = %q, want black win", got)
	}
	if b.Method() != "checkmate" {
		t.Fatalf("Method() = %q, want checkmate", b.Method())
	}
	if len(b.LegalMoves()) != 0 {
		t.Fatalf("mated side should have no legal moves")
	}
}

func TestOutcome_Stalemate(t *testing.T) {
	b, err := Parse("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := b.Outcome(); got != OutcomeDraw {
		t.Fatalf("Outcome() = %q, want draw", got)
	}
	if b.Method() != "stalemate" {
		t.Fatalf("Method() = %q, want stalemate", b.Method())
	}
	if len(b.LegalMoves()) != 0 {
		t.Fatalf("stalemated side should have no legal moves")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	b := NewBoard()
	sequence := []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4"}
	for _, mv := range sequence {
		if _, err := b.Submit(mv); err != nil {
			t.Fatalf("Submit %s: %v", mv, err)
		}
		restored, err := Parse(b.FEN())
		if err != nil {
			t.Fatalf("Parse after %s: %v", mv, err)
		}
		if restored.FEN() != b.FEN() {
			t.Fatalf("round trip diverged after %s: %q != %q", mv, restored.FEN(), b.FEN())
		}
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	if _, err := Parse("not a position"); err == nil {
		t.Fatalf("expected error for malformed FEN")
	}
}

func TestSubmit_PromotionRequiresPiece(t *testing.T) {
	b, err := Parse("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	before := b.FEN()
	if _, err := b.Submit("a7a8"); err == nil {
		t.Fatalf("expected promotion without piece letter to be rejected")
	}
	if b.FEN() != before {
		t.Fatalf("board mutated by rejected promotion")
	}
	mv, err := b.Submit("a7a8q")
	if err != nil {
		t.Fatalf("Submit a7a8q: %v", err)
	}
	if mv.UCI() != "a7a8q" {
		t.Fatalf("unexpected promotion encoding: %q", mv.UCI())
	}
}

func TestSubmit_CastlingAndEnPassant(t *testing.T) {
	b := NewBoard()
	for _, mv := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1"} {
		if _, err := b.Submit(mv); err != nil {
			t.Fatalf("Submit %s: %v", mv, err)
		}
	}
	fields := strings.Fields(b.FEN())
	if strings.ContainsAny(fields[2], "KQ") {
		t.Fatalf("white castling rights should be spent after O-O: %q", fields[2])
	}

	ep := NewBoard()
	for _, mv := range []string{"e2e4", "a7a6", "e4e5", "d7d5"} {
		if _, err := ep.Submit(mv); err != nil {
			t.Fatalf("Submit %s: %v", mv, err)
		}
	}
	if _, err := ep.Submit("e5d6"); err != nil {
		t.Fatalf("en passant capture e5d6: %v", err)
	}
}

package board

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrInvalidNotation = errors.New("move notation cannot be parsed")
	ErrIllegalMove     = errors.New("move is not legal in this position")
)

// Outcome is the decision state of the position after the last applied move.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeWhiteWins Outcome = "white_wins"
	OutcomeBlackWins Outcome = "black_wins"
	OutcomeDraw      Outcome = "draw"
)

var uciMovePattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// Move is an applied half-move. Values are immutable after construction.
type Move struct {
	uci string
	san string
}

func (m Move) UCI() string { return m.uci }
func (m Move) SAN() string { return m.san }

func (m Move) IsZero() bool { return m.uci == "" }

// Board is the authoritative position of a single game. It is not safe for
// concurrent use; callers serialize access per game.
type Board struct {
	game *nchess.Game
}

// NewBoard returns a board at the standard starting position. Automatic
// adjudication of repetition, seventy-five-move and insufficient-material
// draws is disabled: sessions are short-lived single games and only
// checkmate and stalemate end them.
func NewBoard() *Board {
	return &Board{game: nchess.NewGame(relaxedDrawRules()...)}
}

// Parse restores a board from a six-field FEN string. The position is
// trusted as-is; the persisted file it usually comes from is outside this
// package's protection.
func Parse(fen string) (*Board, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("parse position %q: %w", fen, err)
	}
	opts := append(relaxedDrawRules(), opt)
	return &Board{game: nchess.NewGame(opts...)}, nil
}

func relaxedDrawRules() []func(*nchess.Game) {
	return []func(*nchess.Game){
		nchess.IgnoreFivefoldRepetitionDraw(),
		nchess.IgnoreSeventyFiveMoveRuleDraw(),
		nchess.IgnoreInsufficientMaterialDraw(),
	}
}

// Submit parses a move in UCI coordinate notation, checks it against the
// legal-move set and applies it. The board is untouched on any failure.
func (b *Board) Submit(notation string) (Move, error) {
	text := strings.ToLower(strings.TrimSpace(notation))
	if !uciMovePattern.MatchString(text) {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	pos := b.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, text)
	if err != nil {
		// Syntactically a move, but not one that exists on this board
		// (empty source square, wrong side, missing promotion).
		return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}

	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, mv))

	if err := b.game.Move(mv, nil); err != nil {
		return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	return Move{uci: uci, san: san}, nil
}

// LegalMoves enumerates every legal move for the side to move.
func (b *Board) LegalMoves() []Move {
	pos := b.game.Position()
	valid := b.game.ValidMoves()
	out := make([]Move, 0, len(valid))
	for i := range valid {
		mv := valid[i]
		out = append(out, Move{
			uci: strings.ToLower(nchess.UCINotation{}.Encode(pos, &mv)),
			san: nchess.AlgebraicNotation{}.Encode(pos, &mv),
		})
	}
	return out
}

// FEN serializes the position deterministically: piece placement, side to
// move, castling availability, en-passant target, halfmove clock and
// fullmove number.
func (b *Board) FEN() string {
	return b.game.FEN()
}

// Turn reports the side to move as "white" or "black".
func (b *Board) Turn() string {
	return strings.ToLower(b.game.Position().Turn().String())
}

// Outcome evaluates the position after the last applied move: no legal
// moves with the king in check is a win for the side that just moved, no
// legal moves without check is a stalemate draw, anything else is ongoing.
func (b *Board) Outcome() Outcome {
	switch b.game.Outcome() {
	case nchess.WhiteWon:
		return OutcomeWhiteWins
	case nchess.BlackWon:
		return OutcomeBlackWins
	case nchess.Draw:
		return OutcomeDraw
	default:
		return OutcomeNone
	}
}

// Method names how the outcome was reached ("checkmate", "stalemate") or
// "" while the game is ongoing.
func (b *Board) Method() string {
	if b.game.Outcome() == nchess.NoOutcome {
		return ""
	}
	switch b.game.Method() {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	default:
		return strings.ToLower(b.game.Method().String())
	}
}

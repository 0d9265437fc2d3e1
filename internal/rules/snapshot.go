package rules

import (
	"strings"

	"github.com/hailam/chessmind/internal/engine"
)

// Piece is an occupant of a square. Kind is NoPieceKind for an empty square.
type Piece struct {
	Kind engine.PieceKind
	Side engine.Side
}

// Empty reports whether the square holds nothing.
func (p Piece) Empty() bool {
	return p.Kind == engine.NoPieceKind
}

// Letter returns the FEN letter of the piece, upper case for White.
func (p Piece) Letter() string {
	if p.Empty() {
		return ""
	}
	l := "pnbrqk"[p.Kind : p.Kind+1]
	if p.Side == engine.White {
		return strings.ToUpper(l)
	}
	return l
}

// Snapshot is an immutable view of a game, safe to hand to other goroutines.
type Snapshot struct {
	Squares  [64]Piece // a1 = 0, h8 = 63
	Turn     engine.Side
	LastMove string
	From, To int // squares of the last move, -1 at the root
	Status   engine.Status
	Ply      int
	FEN      string
}

// Snapshot captures the current position.
func (g *Game) Snapshot() Snapshot {
	f := g.top()
	s := Snapshot{
		Turn:   sideOf(f.pos.Turn()),
		Status: g.Status(),
		Ply:    g.Ply(),
		FEN:    f.fen,
		From:   -1,
		To:     -1,
	}
	for i := range s.Squares {
		s.Squares[i] = Piece{Kind: engine.NoPieceKind}
	}
	for sq, p := range f.pos.Board().SquareMap() {
		s.Squares[sq] = Piece{Kind: kindOf(p.Type()), Side: sideOf(p.Color())}
	}
	if f.move != nil {
		s.LastMove = f.move.String()
		s.From, s.To = f.move.From(), f.move.To()
	}
	return s
}

// Draw returns a text rendering of the board, White at the bottom.
func (g *Game) Draw() string {
	return g.top().pos.Board().Draw()
}

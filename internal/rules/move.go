package rules

import (
	"github.com/notnil/chess"

	"github.com/hailam/chessmind/internal/engine"
)

// Move is a legal move in a specific position.
type Move struct {
	m        *chess.Move
	attacker engine.PieceKind
	victim   engine.PieceKind
}

func newMove(board *chess.Board, m *chess.Move) *Move {
	mv := &Move{
		m:        m,
		attacker: kindOf(board.Piece(m.S1()).Type()),
		victim:   engine.NoPieceKind,
	}
	if m.HasTag(chess.EnPassant) {
		mv.victim = engine.Pawn
	} else if p := board.Piece(m.S2()); p != chess.NoPiece {
		mv.victim = kindOf(p.Type())
	}
	return mv
}

// IsCapture reports whether the move takes an opposing piece.
func (m *Move) IsCapture() bool {
	return m.victim != engine.NoPieceKind || m.m.HasTag(chess.Capture)
}

// Victim returns the kind of the captured piece, NoPieceKind for quiet moves.
func (m *Move) Victim() engine.PieceKind {
	return m.victim
}

// Attacker returns the kind of the moving piece.
func (m *Move) Attacker() engine.PieceKind {
	return m.attacker
}

// From returns the origin square index (a1 = 0, h8 = 63).
func (m *Move) From() int {
	return int(m.m.S1())
}

// To returns the destination square index.
func (m *Move) To() int {
	return int(m.m.S2())
}

// String returns the move in UCI notation, e.g. "e2e4" or "e7e8q".
func (m *Move) String() string {
	return m.m.String()
}

func kindOf(pt chess.PieceType) engine.PieceKind {
	switch pt {
	case chess.Pawn:
		return engine.Pawn
	case chess.Knight:
		return engine.Knight
	case chess.Bishop:
		return engine.Bishop
	case chess.Rook:
		return engine.Rook
	case chess.Queen:
		return engine.Queen
	case chess.King:
		return engine.King
	}
	return engine.NoPieceKind
}

func sideOf(c chess.Color) engine.Side {
	if c == chess.Black {
		return engine.Black
	}
	return engine.White
}

package rules

import (
	"errors"
	"testing"

	"github.com/hailam/chessmind/internal/engine"
)

func TestNewGame(t *testing.T) {
	g := NewGame()
	if g.FEN() != StartFEN {
		t.Errorf("FEN = %s", g.FEN())
	}
	if n := len(g.LegalMoves()); n != 20 {
		t.Errorf("start position has %d moves, want 20", n)
	}
	if g.SideToMove() != engine.White || g.Status() != engine.Ongoing {
		t.Errorf("unexpected start state")
	}
	if g.Key() != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -" {
		t.Errorf("Key = %q", g.Key())
	}
}

func TestApplyUndo(t *testing.T) {
	g := NewGame()
	before := g.FEN()
	for _, m := range []string{"e2e4", "e7e5", "g1f3"} {
		if err := g.ApplyUCI(m); err != nil {
			t.Fatal(err)
		}
	}
	if g.Ply() != 3 || g.SideToMove() != engine.Black {
		t.Errorf("ply %d side %s", g.Ply(), g.SideToMove())
	}
	if got := g.Moves(); len(got) != 3 || got[2] != "g1f3" {
		t.Errorf("Moves = %v", got)
	}
	for i := 0; i < 3; i++ {
		g.Undo()
	}
	if g.FEN() != before {
		t.Errorf("undo did not restore: %s", g.FEN())
	}
	g.Undo() // no-op at the root
	if g.Ply() != 0 {
		t.Errorf("Ply = %d", g.Ply())
	}

	if err := g.ApplyUCI("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
}

func TestUnitsMobility(t *testing.T) {
	g := NewGame()
	units := g.Units()
	if len(units) != 32 {
		t.Fatalf("%d units, want 32", len(units))
	}
	mob := map[engine.Side]int{}
	for _, u := range units {
		mob[u.Side] += u.Mobility
	}
	// Both sides have 20 moves in the initial position, whoever is on move.
	if mob[engine.White] != 20 || mob[engine.Black] != 20 {
		t.Errorf("mobility = %v, want 20 each", mob)
	}

	eval := engine.NewEvaluator(engine.StandardPieceValues)
	if s := eval.Score(g); s != 0 {
		t.Errorf("start position scores %d, want 0", s)
	}
}

func TestCaptureMoves(t *testing.T) {
	g, err := FromFEN("4k3/8/8/3r4/8/8/3Q4/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var captures []*Move
	for _, m := range g.LegalMoves() {
		if m.IsCapture() {
			captures = append(captures, m.(*Move))
		}
	}
	if len(captures) != 1 {
		t.Fatalf("%d captures, want 1", len(captures))
	}
	c := captures[0]
	if c.String() != "d2d5" || c.Victim() != engine.Rook || c.Attacker() != engine.Queen {
		t.Errorf("capture %s victim %d attacker %d", c, c.Victim(), c.Attacker())
	}
}

func TestEnPassantCapture(t *testing.T) {
	g, err := FromFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range g.LegalMoves() {
		if m.String() == "e5d6" {
			if !m.IsCapture() || m.(*Move).Victim() != engine.Pawn {
				t.Errorf("en passant not reported as a pawn capture")
			}
			return
		}
	}
	t.Fatal("e5d6 not generated")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want engine.Status
	}{
		{"checkmate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1", engine.WhiteWins},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", engine.BlackWins},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", engine.Draw},
		{"bare kings", "8/8/4k3/8/8/3K4/8/8 w - - 0 1", engine.Draw},
		{"lone knight", "8/8/4k3/8/8/3K4/8/6N1 w - - 0 1", engine.Draw},
		{"rook", "8/8/4k3/8/8/3K4/8/6R1 w - - 0 1", engine.Ongoing},
		{"fifty moves", "8/8/4k3/8/8/3K4/8/6R1 w - - 100 80", engine.Draw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromFEN(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := g.Status(); got != tt.want {
				t.Errorf("Status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := NewGame()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for i := 0; i < 2; i++ {
		for _, m := range shuffle {
			if err := g.ApplyUCI(m); err != nil {
				t.Fatal(err)
			}
		}
	}
	if g.Status() != engine.Draw {
		t.Errorf("third occurrence not drawn")
	}
	g.Undo()
	if g.Status() != engine.Ongoing {
		t.Errorf("status after undo = %s", g.Status())
	}
}

func TestSnapshot(t *testing.T) {
	g := NewGame()
	if err := g.ApplyUCI("e2e4"); err != nil {
		t.Fatal(err)
	}
	s := g.Snapshot()
	// e4 = 28, e2 = 12
	if s.Squares[28].Letter() != "P" || !s.Squares[12].Empty() {
		t.Errorf("board not captured: e4=%q e2 empty=%v", s.Squares[28].Letter(), s.Squares[12].Empty())
	}
	if s.Squares[60].Letter() != "k" {
		t.Errorf("e8 = %q, want k", s.Squares[60].Letter())
	}
	if s.LastMove != "e2e4" || s.From != 12 || s.To != 28 || s.Turn != engine.Black || s.Ply != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	g.Undo()
	if s.Squares[28].Empty() {
		t.Errorf("snapshot changed after undo")
	}
	if g.Draw() == "" {
		t.Errorf("empty board drawing")
	}
}

package engine

import (
	"testing"
)

type kindMove struct {
	name             string
	victim, attacker PieceKind
}

func (m kindMove) IsCapture() bool     { return m.victim != NoPieceKind }
func (m kindMove) String() string      { return m.name }
func (m kindMove) Victim() PieceKind   { return m.victim }
func (m kindMove) Attacker() PieceKind { return m.attacker }

func names(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOrderByCapture(t *testing.T) {
	eval := NewEvaluator(StandardPieceValues)
	mo := NewMoveOrderer(eval, OrderByCapture, true)
	moves := []Move{
		kindMove{"quiet1", NoPieceKind, Knight},
		kindMove{"QxP", Pawn, Queen},
		kindMove{"PxQ", Queen, Pawn},
		kindMove{"quiet2", NoPieceKind, Rook},
		kindMove{"NxR", Rook, Knight},
	}
	got := names(mo.Order(newTreePosition(leaf(0)), moves))
	want := []string{"PxQ", "NxR", "QxP", "quiet1", "quiet2"}
	if !equalNames(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	if moves[0].String() != "quiet1" {
		t.Errorf("input slice modified")
	}
}

func TestOrderByEvaluation(t *testing.T) {
	eval := NewEvaluator(StandardPieceValues)
	root := &treeNode{children: []*treeNode{leaf(2), leaf(-5), leaf(9), leaf(2)}}
	moves := newTreePosition(root).LegalMoves()

	tests := []struct {
		name      string
		sideAware bool
		black     bool
		want      []string
	}{
		{"white", true, false, []string{"m2", "m0", "m3", "m1"}},
		{"black side-aware", true, true, []string{"m1", "m0", "m3", "m2"}},
		{"black descending", false, true, []string{"m2", "m0", "m3", "m1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := newTreePosition(root)
			if tt.black {
				// Same children, one ply deeper so Black is on move.
				pos = newTreePosition(&treeNode{children: []*treeNode{root}})
				pos.Apply(treeMove{index: 0})
			}
			mo := NewMoveOrderer(eval, OrderByEvaluation, tt.sideAware)
			got := names(mo.Order(pos, moves))
			if !equalNames(got, tt.want) {
				t.Errorf("Order = %v, want %v", got, tt.want)
			}
		})
	}
}

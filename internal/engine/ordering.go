package engine

import (
	"sort"
)

// OrderingMode selects how candidate moves are pre-sorted.
type OrderingMode int

const (
	// OrderByEvaluation applies each move and sorts by the resulting static score.
	OrderByEvaluation OrderingMode = iota
	// OrderByCapture sorts captures by MVV-LVA and leaves quiet moves after them.
	OrderByCapture
)

func (m OrderingMode) String() string {
	if m == OrderByCapture {
		return "capture"
	}
	return "evaluation"
}

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0}, // King can't be captured
}

// captureFallbackScore ranks a capture whose pieces are unknown just above quiet moves.
const captureFallbackScore = 1

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	eval      *Evaluator
	mode      OrderingMode
	sideAware bool
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer(eval *Evaluator, mode OrderingMode, sideAware bool) *MoveOrderer {
	return &MoveOrderer{eval: eval, mode: mode, sideAware: sideAware}
}

// Order returns moves sorted so that the likely strongest are tried first. The result is a
// permutation of the input; the input slice is not modified.
func (mo *MoveOrderer) Order(pos Position, moves []Move) []Move {
	ordered := make([]Move, len(moves))
	copy(ordered, moves)
	if len(ordered) < 2 {
		return ordered
	}

	scores := mo.ScoreMoves(pos, ordered)
	descending := true
	if mo.mode == OrderByEvaluation && mo.sideAware && pos.SideToMove() == Black {
		descending = false
	}

	idx := make([]int, len(ordered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if descending {
			return scores[idx[a]] > scores[idx[b]]
		}
		return scores[idx[a]] < scores[idx[b]]
	})

	result := make([]Move, len(ordered))
	for i, j := range idx {
		result[i] = ordered[j]
	}
	return result
}

// ScoreMoves assigns scores to moves for ordering.
func (mo *MoveOrderer) ScoreMoves(pos Position, moves []Move) []int {
	scores := make([]int, len(moves))
	for i, m := range moves {
		if mo.mode == OrderByCapture {
			scores[i] = captureScore(m)
			continue
		}
		pos.Apply(m)
		scores[i] = mo.eval.Score(pos)
		pos.Undo()
	}
	return scores
}

// captureScore returns the MVV-LVA score of a move, 0 for quiet moves.
func captureScore(m Move) int {
	if !m.IsCapture() {
		return 0
	}
	ci, ok := m.(CaptureInfo)
	if !ok {
		return captureFallbackScore
	}
	victim, attacker := ci.Victim(), ci.Attacker()
	if victim < Pawn || victim > King || attacker < Pawn || attacker > King {
		return captureFallbackScore
	}
	return mvvLva[victim][attacker] + captureFallbackScore
}

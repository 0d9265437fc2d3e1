// Package engine implements the chess AI search engine.
package engine

import (
	"math"

	"lukechampine.com/frand"
)

// Score bounds. Terminal positions score ±MaxScore; Infinity is strictly outside that range so
// a lost position still improves on an empty window. Both fit in an int32 so scores stay
// representable on 32-bit platforms and in the persisted cache.
const (
	MaxScore = math.MaxInt32 - 1
	Infinity = math.MaxInt32
)

// PieceValues maps a PieceKind to its material value.
type PieceValues [6]int

// StandardPieceValues is the classic 1/3/3/5/9 scale.
var StandardPieceValues = PieceValues{1, 3, 3, 5, 9, 1000}

// ScaledPieceValues is the ×10 scale with a slightly stronger knight.
var ScaledPieceValues = PieceValues{10, 33, 30, 50, 90, 1000}

// Value returns the material value of a kind.
func (pv PieceValues) Value(k PieceKind) int {
	if k < Pawn || k > King {
		return 0
	}
	return pv[k]
}

// Evaluator scores positions from White's point of view.
type Evaluator struct {
	values PieceValues
}

// NewEvaluator creates an evaluator with the given piece values.
func NewEvaluator(values PieceValues) *Evaluator {
	return &Evaluator{values: values}
}

// Score returns the static evaluation of pos. It is deterministic and is the only value that
// may reach the transposition cache or alpha-beta comparisons.
func (e *Evaluator) Score(pos Position) int {
	switch pos.Status() {
	case WhiteWins:
		return MaxScore
	case BlackWins:
		return -MaxScore
	case Draw:
		return 0
	}

	var sums [2]int
	for _, u := range pos.Units() {
		sums[u.Side] += e.values.Value(u.Kind) + u.Mobility
	}
	return sums[White] - sums[Black]
}

// Jitter returns -1, 0 or +1. It only breaks ties between root candidates.
func (e *Evaluator) Jitter() int {
	return frand.Intn(3) - 1
}

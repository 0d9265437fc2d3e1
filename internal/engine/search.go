package engine

import (
	"context"

	"github.com/samber/lo"
)

// Searcher performs the alpha-beta search over a Position it does not own.
// A Searcher is bound to one position and one context per decision and is not safe for
// concurrent use.
type Searcher struct {
	pos     Position
	ctx     context.Context
	cache   *TranspositionCache
	eval    *Evaluator
	orderer *MoveOrderer
	qDepth  int
	nodes   uint64
}

// NewSearcher creates a new searcher.
func NewSearcher(cache *TranspositionCache, eval *Evaluator, orderer *MoveOrderer, qDepth int) *Searcher {
	return &Searcher{
		ctx:     context.Background(),
		cache:   cache,
		eval:    eval,
		orderer: orderer,
		qDepth:  qDepth,
	}
}

// Reset binds the searcher to a position and a cancellation context and clears counters.
func (s *Searcher) Reset(ctx context.Context, pos Position) {
	s.ctx = ctx
	s.pos = pos
	s.nodes = 0
}

// Nodes returns the number of nodes searched since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// stopped returns true if search should stop.
func (s *Searcher) stopped() bool {
	return s.ctx.Err() != nil
}

// Search returns the minimax value of the current position searched to depth plies,
// White maximizing. Once the context is done it unwinds immediately, undoing every applied
// move and writing nothing to the cache; the value it returns then is meaningless.
func (s *Searcher) Search(depth, alpha, beta int, maximizing bool) int {
	if s.stopped() {
		return 0
	}
	s.nodes++

	key := s.pos.Key()
	if entry, ok := s.cache.Get(key); ok && int(entry.Depth) >= depth {
		score := int(entry.Score)
		switch entry.Bound {
		case BoundExact:
			return score
		case BoundLower:
			if score >= beta {
				return score
			}
		case BoundUpper:
			if score <= alpha {
				return score
			}
		}
	}

	if s.pos.Status().IsTerminal() {
		return s.eval.Score(s.pos)
	}
	if depth <= 0 {
		return s.Quiesce(alpha, beta, maximizing, s.qDepth)
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		// The rules engine reported an ongoing game with nothing to play.
		return s.eval.Score(s.pos)
	}
	moves = s.orderer.Order(s.pos, moves)

	alphaOrig, betaOrig := alpha, beta
	var best int
	if maximizing {
		best = -Infinity
		for _, m := range moves {
			s.pos.Apply(m)
			v := s.Search(depth-1, alpha, beta, false)
			s.pos.Undo()
			if s.stopped() {
				return 0
			}
			if v > best {
				best = v
			}
			if best > alpha {
				alpha = best
			}
			if alpha >= beta {
				break // Beta cut-off
			}
		}
	} else {
		best = Infinity
		for _, m := range moves {
			s.pos.Apply(m)
			v := s.Search(depth-1, alpha, beta, true)
			s.pos.Undo()
			if s.stopped() {
				return 0
			}
			if v < best {
				best = v
			}
			if best < beta {
				beta = best
			}
			if beta <= alpha {
				break // Alpha cut-off
			}
		}
	}

	bound := BoundExact
	if best <= alphaOrig {
		bound = BoundUpper
	} else if best >= betaOrig {
		bound = BoundLower
	}
	s.cache.PutBound(key, best, depth, bound)
	return best
}

// Quiesce extends the search along capture sequences only, so a horizon node is not scored
// in the middle of an exchange. remaining bounds the extension length.
func (s *Searcher) Quiesce(alpha, beta int, maximizing bool, remaining int) int {
	if s.stopped() {
		return 0
	}
	s.nodes++

	standPat := s.eval.Score(s.pos)
	if maximizing {
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
	} else {
		if standPat <= alpha {
			return alpha
		}
		if standPat < beta {
			beta = standPat
		}
	}

	if remaining <= 0 {
		return standPat
	}

	captures := lo.Filter(s.pos.LegalMoves(), func(m Move, _ int) bool {
		return m.IsCapture()
	})
	for _, m := range captures {
		s.pos.Apply(m)
		score := s.Quiesce(alpha, beta, !maximizing, remaining-1)
		s.pos.Undo()
		if s.stopped() {
			return 0
		}

		if maximizing {
			if score >= beta {
				return beta
			}
			if score > alpha {
				alpha = score
			}
		} else {
			if score <= alpha {
				return alpha
			}
			if score < beta {
				beta = score
			}
		}
	}

	if maximizing {
		return alpha
	}
	return beta
}

package engine

import (
	"time"
)

// InfiniteBudget stands in for "search until stopped".
const InfiniteBudget = 24 * time.Hour

const (
	minBudget        = 10 * time.Millisecond
	defaultMovesToGo = 40
)

// ClockLimits contains UCI time control parameters.
type ClockLimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each side)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Infinite  bool             // search until stopped
}

// Budget returns the wall-clock budget for one decision by side at game ply ply.
// ok is false when the limits carry no clock, in which case the configured budget applies.
func (l ClockLimits) Budget(side Side, ply int) (budget time.Duration, ok bool) {
	if l.MoveTime > 0 {
		return l.MoveTime, true
	}
	if l.Infinite {
		return InfiniteBudget, true
	}
	timeLeft := l.Time[side]
	if timeLeft <= 0 {
		return 0, false
	}
	inc := l.Inc[side]

	mtg := l.MovesToGo
	if mtg == 0 {
		// Sudden death: fewer moves are expected as the game goes on.
		mtg = defaultMovesToGo + 10 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	budget = timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		budget = budget * 85 / 100
	}
	// The budget is a hard deadline, so keep a reserve.
	if limit := timeLeft * 8 / 10; budget > limit {
		budget = limit
	}
	if budget < minBudget {
		budget = minBudget
	}
	return budget, true
}

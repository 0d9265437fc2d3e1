package match

import (
	"context"
	"fmt"
	"time"

	"lukechampine.com/frand"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
)

// Player chooses moves for one side of a match.
type Player interface {
	Name() string
	ChooseMove(ctx context.Context, g *rules.Game) (engine.Move, error)
}

// EnginePlayer plays with a search engine under a fixed time budget per move.
type EnginePlayer struct {
	eng    *engine.Engine
	budget time.Duration
}

// NewEnginePlayer wraps eng. A budget <= 0 uses the engine's configured budget.
func NewEnginePlayer(eng *engine.Engine, budget time.Duration) *EnginePlayer {
	return &EnginePlayer{eng: eng, budget: budget}
}

func (p *EnginePlayer) Name() string {
	cfg := p.eng.Config()
	return fmt.Sprintf("chessmind-d%d-q%d", cfg.MaxDepth, cfg.QuiescenceDepth)
}

func (p *EnginePlayer) ChooseMove(ctx context.Context, g *rules.Game) (engine.Move, error) {
	return p.eng.DecideMove(ctx, g, p.budget)
}

// Engine returns the wrapped engine.
func (p *EnginePlayer) Engine() *engine.Engine {
	return p.eng
}

// RandomPlayer picks a uniformly random legal move.
type RandomPlayer struct{}

func (RandomPlayer) Name() string { return "random" }

func (RandomPlayer) ChooseMove(_ context.Context, g *rules.Game) (engine.Move, error) {
	moves := g.LegalMoves()
	if len(moves) == 0 {
		return nil, engine.ErrNoLegalMoves
	}
	return moves[frand.Intn(len(moves))], nil
}

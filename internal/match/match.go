// Package match runs games between two players and reports each position to passive
// subscribers.
package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
	"github.com/hailam/chessmind/internal/storage"
)

// DefaultMaxPlies ends a game that has not finished after this many plies.
const DefaultMaxPlies = 300

// Subscriber receives a snapshot after every ply. It must not block.
type Subscriber func(rules.Snapshot)

// Result is the outcome of a match.
type Result struct {
	ID       uuid.UUID
	Status   engine.Status
	Plies    int
	Moves    []string
	Duration time.Duration
}

// Record converts the result into a storable record.
func (r Result) Record(white, black string) storage.MatchRecord {
	return storage.MatchRecord{
		ID:       r.ID,
		White:    white,
		Black:    black,
		Result:   r.Status.String(),
		Plies:    r.Plies,
		Moves:    r.Moves,
		Duration: r.Duration,
	}
}

// Match is one game between two players.
type Match struct {
	ID       uuid.UUID
	Game     *rules.Game
	White    Player
	Black    Player
	MaxPlies int

	mu   sync.RWMutex
	subs []Subscriber
}

// New creates a match from the standard initial position.
func New(white, black Player) *Match {
	return &Match{
		ID:       uuid.New(),
		Game:     rules.NewGame(),
		White:    white,
		Black:    black,
		MaxPlies: DefaultMaxPlies,
	}
}

// NewFromFEN creates a match from a given position.
func NewFromFEN(white, black Player, fen string) (*Match, error) {
	g, err := rules.FromFEN(fen)
	if err != nil {
		return nil, err
	}
	m := New(white, black)
	m.Game = g
	return m, nil
}

// Subscribe registers fn to receive snapshots.
func (m *Match) Subscribe(fn Subscriber) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Match) publish() {
	snap := m.Game.Snapshot()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fn := range m.subs {
		fn(snap)
	}
}

func (m *Match) playerFor(side engine.Side) Player {
	if side == engine.White {
		return m.White
	}
	return m.Black
}

// Play runs the game until it ends, MaxPlies is reached or ctx is done. On cancellation the
// partial result is returned together with ctx's error.
func (m *Match) Play(ctx context.Context) (Result, error) {
	start := time.Now()
	result := func() Result {
		return Result{
			ID:       m.ID,
			Status:   m.Game.Status(),
			Plies:    m.Game.Ply(),
			Moves:    m.Game.Moves(),
			Duration: time.Since(start),
		}
	}

	log.Info().
		Str("match", m.ID.String()).
		Str("white", m.White.Name()).
		Str("black", m.Black.Name()).
		Msg("match started")
	m.publish()

	for !m.Game.Status().IsTerminal() {
		if m.MaxPlies > 0 && m.Game.Ply() >= m.MaxPlies {
			log.Info().Int("plies", m.Game.Ply()).Msg("ply limit reached")
			break
		}
		if err := ctx.Err(); err != nil {
			return result(), err
		}

		side := m.Game.SideToMove()
		p := m.playerFor(side)
		move, err := p.ChooseMove(ctx, m.Game)
		if err != nil {
			return result(), fmt.Errorf("%s (%s): %w", p.Name(), side, err)
		}
		if err := ctx.Err(); err != nil {
			return result(), err
		}
		m.Game.Apply(move)

		log.Debug().
			Int("ply", m.Game.Ply()).
			Str("side", side.String()).
			Str("move", move.String()).
			Msg("move played")
		m.publish()
	}

	r := result()
	log.Info().
		Str("match", m.ID.String()).
		Str("result", r.Status.String()).
		Int("plies", r.Plies).
		Dur("elapsed", r.Duration).
		Msg("match finished")
	return r, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoLegalMoves is returned when a decision is requested for a position with nothing to
	// play. Callers should check the game status first.
	ErrNoLegalMoves = errors.New("no legal moves")
	// ErrInvalidDepth is returned for a maximum depth below one ply.
	ErrInvalidDepth = errors.New("invalid search depth")
)

// SearchInfo contains information about a completed iteration.
type SearchInfo struct {
	Depth     int
	Score     int
	Move      Move
	Nodes     uint64
	Time      time.Duration
	CacheSize int
}

// Engine is the chess AI engine: an iterative deepening driver around the Searcher.
type Engine struct {
	mu       sync.Mutex // serialises decisions
	cfgMu    sync.RWMutex
	cfg      Config
	eval     *Evaluator
	orderer  *MoveOrderer
	cache    *TranspositionCache
	store    CacheStore
	searcher *Searcher

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine. The persisted cache, if store holds one, is loaded once here.
// store may be nil for a purely in-memory cache.
func NewEngine(cfg Config, store CacheStore) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eval := NewEvaluator(cfg.PieceValues)
	orderer := NewMoveOrderer(eval, cfg.Ordering, cfg.SideAwareOrdering)
	cache := NewTranspositionCache(cfg.CacheLimit)
	cache.Load(store)

	return &Engine{
		cfg:      cfg,
		eval:     eval,
		orderer:  orderer,
		cache:    cache,
		store:    store,
		searcher: NewSearcher(cache, eval, orderer, cfg.QuiescenceDepth),
	}, nil
}

// Config returns the engine configuration.
// Option changes never wait for a decision in progress; they apply from the next one.
func (e *Engine) Config() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// SetDifficulty applies a difficulty preset's depth and time budget.
func (e *Engine) SetDifficulty(d Difficulty) {
	s, ok := DifficultySettings[d]
	if !ok {
		return
	}
	e.cfgMu.Lock()
	e.cfg.MaxDepth = s.Depth
	e.cfg.TimeBudgetMs = int(s.Budget / time.Millisecond)
	e.cfgMu.Unlock()
}

// SetMaxDepth changes the deepest iteration. Values below one ply are rejected.
func (e *Engine) SetMaxDepth(depth int) error {
	if depth < 1 {
		return ErrInvalidDepth
	}
	e.cfgMu.Lock()
	e.cfg.MaxDepth = depth
	e.cfgMu.Unlock()
	return nil
}

// SetQuiescenceDepth changes how far capture sequences are extended past the horizon.
func (e *Engine) SetQuiescenceDepth(depth int) error {
	if depth < 0 {
		return fmt.Errorf("quiescence depth %d is negative", depth)
	}
	e.cfgMu.Lock()
	e.cfg.QuiescenceDepth = depth
	e.cfgMu.Unlock()
	return nil
}

// SetJitter toggles root tie-break noise.
func (e *Engine) SetJitter(on bool) {
	e.cfgMu.Lock()
	e.cfg.Jitter = on
	e.cfgMu.Unlock()
}

// Cache returns the transposition cache.
func (e *Engine) Cache() *TranspositionCache {
	return e.cache
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos Position) int {
	return e.eval.Score(pos)
}

// Clear empties the transposition cache.
func (e *Engine) Clear() {
	e.cache.Clear()
}

// SaveCache persists cache changes to the store.
func (e *Engine) SaveCache() error {
	return e.cache.Save(e.store)
}

// Stop aborts the decision in progress, which then returns its best completed move.
func (e *Engine) Stop() {
	e.cancelMu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancelMu.Unlock()
}

func (e *Engine) setCancel(cancel context.CancelFunc) {
	e.cancelMu.Lock()
	e.cancel = cancel
	e.cancelMu.Unlock()
}

// DecideMove picks a move for the side to move in pos. Depths 1..MaxDepth are searched in
// turn by one worker under a wall-clock budget (Config.TimeBudget when budget <= 0). When the
// budget runs out the in-flight depth is discarded and the move of the deepest completed depth
// is returned; if none completed, the first ordered root move. pos is left as it was given.
// The cache is persisted once the decision is final.
func (e *Engine) DecideMove(ctx context.Context, pos Position, budget time.Duration) (Move, error) {
	return e.DecideMoveTo(ctx, pos, budget, 0)
}

// DecideMoveTo is DecideMove with the deepest iteration given by maxDepth for this call only.
// maxDepth <= 0 uses Config.MaxDepth.
func (e *Engine) DecideMoveTo(ctx context.Context, pos Position, budget time.Duration, maxDepth int) (Move, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.Config()

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	if budget <= 0 {
		budget = cfg.TimeBudget()
	}
	if maxDepth <= 0 {
		maxDepth = cfg.MaxDepth
	}

	startTime := time.Now()
	ordered := e.orderer.Order(pos, moves)
	bestMove := ordered[0]
	completed := 0
	bestScore := 0

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	e.setCancel(cancel)
	defer e.setCancel(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for depth := 1; depth <= maxDepth; depth++ {
			move, score, err := e.searchRoot(gctx, pos, ordered, depth, cfg)
			if err != nil {
				log.Debug().Int("depth", depth).Err(err).Msg("iteration abandoned")
				return err
			}
			bestMove, bestScore, completed = move, score, depth

			info := SearchInfo{
				Depth:     depth,
				Score:     score,
				Move:      move,
				Nodes:     e.searcher.Nodes(),
				Time:      time.Since(startTime),
				CacheSize: e.cache.Len(),
			}
			log.Debug().
				Int("depth", info.Depth).
				Int("score", info.Score).
				Str("move", move.String()).
				Uint64("nodes", info.Nodes).
				Dur("elapsed", info.Time).
				Msg("iteration complete")
			if e.OnInfo != nil {
				e.OnInfo(info)
			}
		}
		return nil
	})
	stopped := g.Wait()
	if stopped != nil && !errors.Is(stopped, context.DeadlineExceeded) && !errors.Is(stopped, context.Canceled) {
		log.Error().Err(stopped).Msg("search worker failed")
	}

	if err := e.cache.Save(e.store); err != nil {
		log.Warn().Err(err).Msg("could not persist transposition cache")
	}

	log.Info().
		Str("move", bestMove.String()).
		Int("score", bestScore).
		Int("depth", completed).
		Bool("stopped", stopped != nil).
		Dur("elapsed", time.Since(startTime)).
		Float64("cache_hit_rate", e.cache.HitRate()).
		Msg("move decided")
	return bestMove, nil
}

// SearchDepth runs a single fixed-depth root search without iterative deepening or a time
// budget other than ctx. It returns the chosen move and its score.
func (e *Engine) SearchDepth(ctx context.Context, pos Position, depth int) (Move, int, error) {
	if depth < 1 {
		return nil, 0, ErrInvalidDepth
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, 0, ErrNoLegalMoves
	}
	return e.searchRoot(ctx, pos, e.orderer.Order(pos, moves), depth, e.Config())
}

// searchRoot searches every root move with a full window and keeps the best for the side to
// move. Jitter, when enabled, only perturbs the comparison, never the returned score.
func (e *Engine) searchRoot(ctx context.Context, pos Position, moves []Move, depth int, cfg Config) (Move, int, error) {
	e.searcher.Reset(ctx, pos)
	e.searcher.qDepth = cfg.QuiescenceDepth
	maximizing := pos.SideToMove() == White

	var bestMove Move
	var bestScore, bestKey int
	for _, m := range moves {
		pos.Apply(m)
		v := e.searcher.Search(depth-1, -Infinity, Infinity, !maximizing)
		pos.Undo()
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		key := v
		if cfg.Jitter {
			key += e.eval.Jitter()
		}
		better := key > bestKey
		if !maximizing {
			better = key < bestKey
		}
		if bestMove == nil || better {
			bestMove, bestScore, bestKey = m, v, key
		}
	}
	return bestMove, bestScore, nil
}

// Package uci implements the Universal Chess Interface protocol on top of the search engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	game   *rules.Game

	in    io.Reader
	out   io.Writer
	outMu sync.Mutex

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a new UCI protocol handler reading commands from in and writing replies to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine: eng,
		game:   rules.NewGame(),
		in:     in,
		out:    out,
	}
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	fmt.Fprintf(u.out, format, args...)
	u.outMu.Unlock()
}

// Run reads commands until "quit" or end of input. A search still running at end of input
// is allowed to finish.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		log.Debug().Str("cmd", line).Msg("uci command")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.handleStop()
			u.game = rules.NewGame()
		case "position":
			u.handleStop()
			u.handlePosition(args)
		case "go":
			u.handleStop()
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.printf("%s\nFen: %s\nKey: %s\n", u.game.Draw(), u.game.FEN(), u.game.Key())
		case "eval":
			u.printf("info string eval %d\n", u.engine.Evaluate(u.game))
		default:
			u.printf("info string unknown command %s\n", cmd)
		}
	}

	u.wait()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	cfg := u.engine.Config()
	u.printf("id name chessmind\n")
	u.printf("id author chessmind\n\n")
	u.printf("option name Depth type spin default %d min 1 max 64\n", cfg.MaxDepth)
	u.printf("option name QuiescenceDepth type spin default %d min 0 max 32\n", cfg.QuiescenceDepth)
	u.printf("option name Jitter type check default %t\n", cfg.Jitter)
	u.printf("option name Difficulty type combo default medium var easy var medium var hard\n")
	u.printf("option name Clear Hash type button\n")
	u.printf("uciok\n")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	setup, moves := args, []string(nil)
	for i, arg := range args {
		if arg == "moves" {
			setup, moves = args[:i], args[i+1:]
			break
		}
	}

	var g *rules.Game
	switch args[0] {
	case "startpos":
		g = rules.NewGame()
	case "fen":
		var err error
		g, err = rules.FromFEN(strings.Join(setup[1:], " "))
		if err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
	default:
		return
	}

	for _, moveStr := range moves {
		if err := g.ApplyUCI(moveStr); err != nil {
			u.printf("info string %v\n", err)
			return
		}
	}
	u.game = g
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth  int
	Limits engine.ClockLimits
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	opts := ParseGoOptions(args)

	if len(u.game.LegalMoves()) == 0 {
		u.printf("bestmove 0000\n")
		return
	}

	budget, ok := opts.Limits.Budget(u.game.SideToMove(), u.game.Ply())
	switch {
	case ok:
	case opts.Depth > 0:
		budget = engine.InfiniteBudget
	default:
		budget = 0 // configured default
	}

	pawn := u.engine.Config().PieceValues.Value(engine.Pawn)
	white := u.game.SideToMove() == engine.White
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info, pawn, white)
	}

	// Search a copy so a new "position" cannot race the running search.
	g := u.game.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.searchDone, u.cancel = done, cancel

	go func() {
		defer close(done)
		defer cancel()
		move, err := u.engine.DecideMoveTo(ctx, g, budget, opts.Depth)
		if err != nil {
			u.printf("info string %v\n", err)
			u.printf("bestmove 0000\n")
			return
		}
		u.printf("bestmove %s\n", move)
	}()
}

// ParseGoOptions parses "go" command arguments.
func ParseGoOptions(args []string) GoOptions {
	var opts GoOptions

	ms := func(i int) time.Duration {
		if i >= len(args) {
			return 0
		}
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			opts.Limits.MoveTime = ms(i + 1)
			i++
		case "infinite":
			opts.Limits.Infinite = true
		case "wtime":
			opts.Limits.Time[engine.White] = ms(i + 1)
			i++
		case "btime":
			opts.Limits.Time[engine.Black] = ms(i + 1)
			i++
		case "winc":
			opts.Limits.Inc[engine.White] = ms(i + 1)
			i++
		case "binc":
			opts.Limits.Inc[engine.Black] = ms(i + 1)
			i++
		case "movestogo":
			if i+1 < len(args) {
				opts.Limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// sendInfo outputs search info in UCI format. Scores are reported from the side to move in
// centipawns; a forced win or loss is reported as a mate within the searched depth.
func (u *UCI) sendInfo(info engine.SearchInfo, pawn int, white bool) {
	score := info.Score
	if !white {
		score = -score
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	switch {
	case score >= engine.MaxScore:
		parts = append(parts, fmt.Sprintf("score mate %d", (info.Depth+1)/2))
	case score <= -engine.MaxScore:
		parts = append(parts, fmt.Sprintf("score mate -%d", max(info.Depth/2, 1)))
	default:
		if pawn <= 0 {
			pawn = 1
		}
		parts = append(parts, fmt.Sprintf("score cp %d", score*100/pawn))
	}
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	parts = append(parts, fmt.Sprintf("pv %s", info.Move))

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancel()
	u.wait()
}

func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone, u.cancel = nil, nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}
	val := strings.Join(value, " ")

	var err error
	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		var d int
		if d, err = strconv.Atoi(val); err == nil {
			err = u.engine.SetMaxDepth(d)
		}
	case "quiescencedepth":
		var d int
		if d, err = strconv.Atoi(val); err == nil {
			err = u.engine.SetQuiescenceDepth(d)
		}
	case "jitter":
		u.engine.SetJitter(strings.EqualFold(val, "true"))
	case "difficulty":
		var d engine.Difficulty
		if d, err = engine.ParseDifficulty(strings.ToLower(val)); err == nil {
			u.engine.SetDifficulty(d)
		}
	case "clear hash":
		u.engine.Clear()
	default:
		err = fmt.Errorf("unknown option %q", strings.Join(name, " "))
	}
	if err != nil {
		u.printf("info string %v\n", err)
	}
}

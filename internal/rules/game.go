// Package rules adapts github.com/notnil/chess to the position interface the search engine
// consumes.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chessmind/internal/engine"
)

// ErrIllegalMove is returned when a move string does not name a legal move.
var ErrIllegalMove = errors.New("illegal move")

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// fiftyMoveLimit is the half-move clock at which the game is drawn.
const fiftyMoveLimit = 100

// frame is one ply of the game. Frames are immutable once pushed, so derived data is
// computed lazily and kept until the frame is popped.
type frame struct {
	pos  *chess.Position
	move *Move // move that led here, nil for the root
	fen  string
	key  string

	moves       []engine.Move
	units       []engine.Unit
	status      engine.Status
	statusKnown bool
}

func newFrame(pos *chess.Position, move *Move) *frame {
	fen := pos.String()
	fields := strings.Fields(fen)
	key := fen
	if len(fields) >= 4 {
		key = strings.Join(fields[:4], " ")
	}
	return &frame{pos: pos, move: move, fen: fen, key: key}
}

// Game is a chess game mutated in place by Apply and Undo. It implements engine.Position.
// Undo restores a snapshot, so pairing is exact by construction.
type Game struct {
	frames []*frame
}

var _ engine.Position = (*Game)(nil)

// NewGame returns a game at the standard initial position.
func NewGame() *Game {
	return &Game{frames: []*frame{newFrame(chess.NewGame().Position(), nil)}}
}

// FromFEN returns a game starting at the given FEN.
func FromFEN(fen string) (*Game, error) {
	pos, err := decodeFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{frames: []*frame{newFrame(pos, nil)}}, nil
}

// Clone returns an independent copy of the game, history included.
func (g *Game) Clone() *Game {
	frames := make([]*frame, len(g.frames))
	for i, f := range g.frames {
		frames[i] = &frame{pos: f.pos, move: f.move, fen: f.fen, key: f.key}
	}
	return &Game{frames: frames}
}

func decodeFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("decode fen %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func (g *Game) top() *frame {
	return g.frames[len(g.frames)-1]
}

// LegalMoves returns the legal moves of the side to move.
func (g *Game) LegalMoves() []engine.Move {
	f := g.top()
	if f.moves == nil {
		board := f.pos.Board()
		f.moves = lo.Map(f.pos.ValidMoves(), func(m *chess.Move, _ int) engine.Move {
			return newMove(board, m)
		})
	}
	return f.moves
}

// Apply plays m, which must be a legal move obtained from LegalMoves of the current position.
func (g *Game) Apply(m engine.Move) {
	mv, ok := m.(*Move)
	if !ok {
		panic(fmt.Sprintf("rules: foreign move type %T", m))
	}
	g.frames = append(g.frames, newFrame(g.top().pos.Update(mv.m), mv))
}

// Undo takes back the last applied move. It is a no-op at the root.
func (g *Game) Undo() {
	if len(g.frames) == 1 {
		return
	}
	g.frames[len(g.frames)-1] = nil
	g.frames = g.frames[:len(g.frames)-1]
}

// ApplyUCI plays a move given in UCI notation.
func (g *Game) ApplyUCI(s string) error {
	for _, m := range g.LegalMoves() {
		if m.String() == s {
			g.Apply(m)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// Key returns the board fingerprint: placement, side to move, castling rights and en-passant
// square.
func (g *Game) Key() string {
	return g.top().key
}

// FEN returns the current position in FEN.
func (g *Game) FEN() string {
	return g.top().fen
}

// SideToMove returns the side on move.
func (g *Game) SideToMove() engine.Side {
	return sideOf(g.top().pos.Turn())
}

// Ply returns the number of moves applied since the root.
func (g *Game) Ply() int {
	return len(g.frames) - 1
}

// LastMove returns the move that led to the current position, or nil at the root.
func (g *Game) LastMove() *Move {
	return g.top().move
}

// Moves returns the moves played since the root in UCI notation.
func (g *Game) Moves() []string {
	out := make([]string, 0, len(g.frames)-1)
	for _, f := range g.frames[1:] {
		out = append(out, f.move.String())
	}
	return out
}

// Status reports whether the game is over and how.
func (g *Game) Status() engine.Status {
	f := g.top()
	if !f.statusKnown {
		f.status = g.computeStatus(f)
		f.statusKnown = true
	}
	return f.status
}

func (g *Game) computeStatus(f *frame) engine.Status {
	switch f.pos.Status() {
	case chess.Checkmate:
		if f.pos.Turn() == chess.White {
			return engine.BlackWins
		}
		return engine.WhiteWins
	case chess.Stalemate:
		return engine.Draw
	}
	if insufficientMaterial(f.pos.Board()) {
		return engine.Draw
	}
	if halfMoveClock(f.fen) >= fiftyMoveLimit {
		return engine.Draw
	}
	if g.repetitions(f.key) >= 3 {
		return engine.Draw
	}
	return engine.Ongoing
}

func (g *Game) repetitions(key string) int {
	n := 0
	for _, f := range g.frames {
		if f.key == key {
			n++
		}
	}
	return n
}

// Units lists every piece with its legal-move count. The side not on move is counted on a
// copy of the position with the turn flipped.
func (g *Game) Units() []engine.Unit {
	f := g.top()
	if f.units != nil {
		return f.units
	}

	var counts [2]map[chess.Square]int
	us := sideOf(f.pos.Turn())
	counts[us] = mobility(f.pos.ValidMoves())
	if flipped, err := flipTurn(f.fen); err == nil {
		counts[us.Other()] = mobility(flipped.ValidMoves())
	} else {
		log.Debug().Err(err).Str("fen", f.fen).Msg("cannot count mobility for side not on move")
	}

	units := make([]engine.Unit, 0, 32)
	for sq, p := range f.pos.Board().SquareMap() {
		side := sideOf(p.Color())
		units = append(units, engine.Unit{
			Kind:     kindOf(p.Type()),
			Side:     side,
			Mobility: counts[side][sq],
		})
	}
	f.units = units
	return units
}

func mobility(moves []*chess.Move) map[chess.Square]int {
	return lo.CountValuesBy(moves, func(m *chess.Move) chess.Square {
		return m.S1()
	})
}

// flipTurn returns the position with the other side on move and no en-passant square.
func flipTurn(fen string) (*chess.Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("malformed fen %q", fen)
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	return decodeFEN(strings.Join(fields, " "))
}

func halfMoveClock(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// insufficientMaterial reports bare kings, a single minor piece, or bishops all on one
// square colour.
func insufficientMaterial(board *chess.Board) bool {
	minors := 0
	bishopColours := map[int]bool{}
	knights := 0
	for sq, p := range board.SquareMap() {
		switch p.Type() {
		case chess.King:
		case chess.Bishop:
			minors++
			bishopColours[(int(sq.File())+int(sq.Rank()))%2] = true
		case chess.Knight:
			minors++
			knights++
		default:
			return false
		}
	}
	if minors <= 1 {
		return true
	}
	return knights == 0 && len(bishopColours) == 1
}

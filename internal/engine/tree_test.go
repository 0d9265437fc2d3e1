package engine

import (
	"math/rand"
	"strconv"
)

// treeNode is a node of a synthetic game tree. value is the static score from White's side.
type treeNode struct {
	value    int
	status   Status
	capture  bool // the move leading here is a capture
	children []*treeNode
}

type treeMove struct {
	index   int
	capture bool
}

func (m treeMove) IsCapture() bool { return m.capture }
func (m treeMove) String() string  { return "m" + strconv.Itoa(m.index) }

// treePosition walks a treeNode tree. Sides alternate with depth, White at the root.
type treePosition struct {
	root    *treeNode
	path    []*treeNode
	keys    []string
	applied int
}

func newTreePosition(root *treeNode) *treePosition {
	return &treePosition{root: root, path: []*treeNode{root}, keys: []string{"r"}}
}

func (p *treePosition) node() *treeNode { return p.path[len(p.path)-1] }

func (p *treePosition) LegalMoves() []Move {
	if p.node().status.IsTerminal() {
		return nil
	}
	moves := make([]Move, len(p.node().children))
	for i, c := range p.node().children {
		moves[i] = treeMove{index: i, capture: c.capture}
	}
	return moves
}

// Units encodes the static value as a single kingless unit so Evaluator.Score returns it.
func (p *treePosition) Units() []Unit {
	v := p.node().value
	if v >= 0 {
		return []Unit{{Kind: NoPieceKind, Side: White, Mobility: v}}
	}
	return []Unit{{Kind: NoPieceKind, Side: Black, Mobility: -v}}
}

func (p *treePosition) Apply(m Move) {
	tm := m.(treeMove)
	p.path = append(p.path, p.node().children[tm.index])
	p.keys = append(p.keys, p.Key()+"/"+strconv.Itoa(tm.index))
	p.applied++
}

func (p *treePosition) Undo() {
	p.path = p.path[:len(p.path)-1]
	p.keys = p.keys[:len(p.keys)-1]
	p.applied--
}

func (p *treePosition) Status() Status { return p.node().status }
func (p *treePosition) Key() string    { return p.keys[len(p.keys)-1] }

func (p *treePosition) SideToMove() Side {
	if len(p.path)%2 == 1 {
		return White
	}
	return Black
}

func (p *treePosition) ply() int { return len(p.path) - 1 }

// randomTree builds a full tree of the given depth and branching factor with a sprinkling of
// terminal nodes and captures.
func randomTree(rng *rand.Rand, depth, branching int) *treeNode {
	n := &treeNode{value: rng.Intn(201) - 100}
	if depth == 0 {
		return n
	}
	switch rng.Intn(20) {
	case 0:
		n.status = WhiteWins
		return n
	case 1:
		n.status = BlackWins
		return n
	case 2:
		n.status = Draw
		return n
	}
	for i := 0; i < branching; i++ {
		c := randomTree(rng, depth-1, branching)
		c.capture = rng.Intn(4) == 0
		n.children = append(n.children, c)
	}
	return n
}

// randomRoot is randomTree with at least one move at the root.
func randomRoot(rng *rand.Rand, depth, branching int) *treeNode {
	for {
		if n := randomTree(rng, depth, branching); len(n.children) > 0 {
			return n
		}
	}
}

// minimax is the exhaustive reference value with no quiescence extension.
func minimax(eval *Evaluator, pos *treePosition, depth int, maximizing bool) int {
	if pos.Status().IsTerminal() || depth == 0 || len(pos.LegalMoves()) == 0 {
		return eval.Score(pos)
	}
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, m := range pos.LegalMoves() {
		pos.Apply(m)
		v := minimax(eval, pos, depth-1, !maximizing)
		pos.Undo()
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}
	return best
}

func leaf(v int) *treeNode { return &treeNode{value: v} }

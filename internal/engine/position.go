package engine

// Side identifies one of the two players. White is always the maximizing side.
type Side int8

const (
	White Side = iota
	Black
)

// Other returns the opposing side.
func (s Side) Other() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// PieceKind is the kind of a unit on the board.
type PieceKind int8

const (
	Pawn PieceKind = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceKind
)

// Status is the terminal state of a position as reported by the rules engine.
type Status int8

const (
	Ongoing Status = iota
	WhiteWins
	BlackWins
	Draw
)

// IsTerminal reports whether the game is over.
func (s Status) IsTerminal() bool {
	return s != Ongoing
}

func (s Status) String() string {
	switch s {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

// Unit is a piece on the board together with its number of legal moves.
// For the side not to move, Mobility counts the moves it would have if it were on move.
type Unit struct {
	Kind     PieceKind
	Side     Side
	Mobility int
}

// Move is an opaque move supplied by the rules engine.
type Move interface {
	IsCapture() bool
	String() string
}

// CaptureInfo is optionally implemented by moves that know which pieces take part in a
// capture. It enables MVV-LVA ordering.
type CaptureInfo interface {
	Victim() PieceKind
	Attacker() PieceKind
}

// Position is the rules engine as seen by the search. It is mutated in place:
// every Apply must be paired with an Undo that restores the exact previous state.
type Position interface {
	LegalMoves() []Move
	Units() []Unit
	Apply(m Move)
	Undo()
	Status() Status
	// Key is the board fingerprint used by the transposition cache.
	Key() string
	SideToMove() Side
}

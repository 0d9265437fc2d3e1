package ui

import (
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
)

// Theme defines the color scheme for the board.
type Theme struct {
	LightSquare   color.RGBA
	DarkSquare    color.RGBA
	LastMoveColor color.RGBA
	Background    color.RGBA
	TextColor     color.RGBA
	WhiteLetter   color.RGBA
	BlackLetter   color.RGBA
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		LightSquare:   color.RGBA{240, 217, 181, 255}, // Tan
		DarkSquare:    color.RGBA{181, 136, 99, 255},  // Brown
		LastMoveColor: color.RGBA{180, 190, 100, 90},
		Background:    color.RGBA{40, 44, 52, 255},
		TextColor:     color.RGBA{220, 220, 220, 255},
		WhiteLetter:   color.RGBA{32, 32, 32, 255},
		BlackLetter:   color.RGBA{230, 230, 230, 255},
	}
}

// Renderer handles all drawing operations. Square indices run a1 = 0 to h8 = 63.
type Renderer struct {
	sprites    *SpriteManager // created on first draw
	theme      *Theme
	boardSize  int
	squareSize int
}

// NewRenderer creates a new renderer.
func NewRenderer(squareSize int) *Renderer {
	return &Renderer{
		theme:      DefaultTheme(),
		boardSize:  8 * squareSize,
		squareSize: squareSize,
	}
}

// DrawBoard draws the chess board squares and their coordinates.
func (r *Renderer) DrawBoard(screen *ebiten.Image) {
	size := float32(r.squareSize)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			x, y := r.SquareToScreen(rank*8 + file)

			c := r.theme.LightSquare
			if (rank+file)%2 == 0 {
				c = r.theme.DarkSquare
			}
			vector.DrawFilledRect(screen, float32(x), float32(y), size, size, c, false)
		}
	}
	r.drawCoordinates(screen)
}

// drawCoordinates draws file letters along the bottom rank and rank numbers along the a-file.
func (r *Renderer) drawCoordinates(screen *ebiten.Image) {
	face := faceWithSize(regularFace, float64(r.squareSize)/6)
	if face == nil {
		return
	}
	pad := float64(r.squareSize) / 20
	for i := 0; i < 8; i++ {
		op := &text.DrawOptions{}
		x, y := r.SquareToScreen(i)
		op.GeoM.Translate(float64(x+r.squareSize)-face.Size-pad, float64(y+r.squareSize)-face.Size-pad)
		op.ColorScale.ScaleWithColor(r.coordinateColor(i))
		text.Draw(screen, string(rune('a'+i)), face, op)

		op = &text.DrawOptions{}
		x, y = r.SquareToScreen(i * 8)
		op.GeoM.Translate(float64(x)+pad, float64(y)+pad)
		op.ColorScale.ScaleWithColor(r.coordinateColor(i * 8))
		text.Draw(screen, strconv.Itoa(i+1), face, op)
	}
}

// coordinateColor contrasts with the square the label sits on.
func (r *Renderer) coordinateColor(sq int) color.RGBA {
	if (sq/8+sq%8)%2 == 0 {
		return r.theme.LightSquare
	}
	return r.theme.DarkSquare
}

// DrawLastMove highlights the origin and destination of the last move.
func (r *Renderer) DrawLastMove(screen *ebiten.Image, from, to int) {
	if from < 0 || to < 0 {
		return
	}
	for _, sq := range []int{from, to} {
		x, y := r.SquareToScreen(sq)
		size := float32(r.squareSize)
		vector.DrawFilledRect(screen, float32(x), float32(y), size, size, r.theme.LastMoveColor, false)
	}
}

// DrawPieces draws every piece of the snapshot as a disc with its letter.
func (r *Renderer) DrawPieces(screen *ebiten.Image, snap *rules.Snapshot) {
	if r.sprites == nil {
		r.sprites = NewSpriteManager(r.squareSize)
	}
	face := faceWithSize(boldFace, float64(r.squareSize)/2.5)

	for sq, p := range snap.Squares {
		if p.Empty() {
			continue
		}
		x, y := r.SquareToScreen(sq)
		r.sprites.DrawPieceAt(screen, p, x, y)

		if face == nil {
			continue
		}
		letter := p.Letter()
		w, h := text.Measure(letter, face, 0)
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x)+(float64(r.squareSize)-w)/2, float64(y)+(float64(r.squareSize)-h)/2)
		c := r.theme.WhiteLetter
		if p.Side == engine.Black {
			c = r.theme.BlackLetter
		}
		op.ColorScale.ScaleWithColor(c)
		text.Draw(screen, letter, face, op)
	}
}

// SquareToScreen converts a board square to the pixel position of its top-left corner.
func (r *Renderer) SquareToScreen(sq int) (int, int) {
	file := sq % 8
	rank := sq / 8
	x := file * r.squareSize
	y := (7 - rank) * r.squareSize // Flip so rank 1 is at bottom
	return x, y
}

// ScreenToSquare converts screen coordinates to a board square, -1 when off the board.
func (r *Renderer) ScreenToSquare(x, y int) int {
	if x < 0 || x >= r.boardSize || y < 0 || y >= r.boardSize {
		return -1
	}
	file := x / r.squareSize
	rank := 7 - (y / r.squareSize) // Flip so rank 1 is at bottom
	return rank*8 + file
}

// BoardSize returns the board size in pixels.
func (r *Renderer) BoardSize() int {
	return r.boardSize
}

// Theme returns the current theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

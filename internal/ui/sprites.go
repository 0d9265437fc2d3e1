package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
)

// pieceRadius is the disc radius of each kind on a 45x45 canvas, so kinds differ in size
// before their letter is drawn.
var pieceRadius = [6]float64{
	engine.Pawn:   11,
	engine.Knight: 14,
	engine.Bishop: 14,
	engine.Rook:   15,
	engine.Queen:  16,
	engine.King:   17,
}

const pieceSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">
<circle cx="22.5" cy="22.5" r="%.1f" fill="%s" stroke="%s" stroke-width="1.5"/>
<circle cx="22.5" cy="22.5" r="%.1f" fill="none" stroke="%s" stroke-width="0.8"/>
</svg>`

// SpriteManager manages piece sprites.
type SpriteManager struct {
	pieces      map[rules.Piece]*ebiten.Image
	size        int     // Display size (e.g., 80)
	renderScale float64 // Render at higher resolution for quality (e.g., 3.0)
}

// NewSpriteManager creates a new sprite manager with pieces of the given size.
func NewSpriteManager(size int) *SpriteManager {
	sm := &SpriteManager{
		pieces:      make(map[rules.Piece]*ebiten.Image),
		size:        size,
		renderScale: 3.0, // Render at 3x resolution for sharp scaling
	}
	sm.loadPieces()
	return sm
}

// GetPiece returns the sprite for a piece.
func (sm *SpriteManager) GetPiece(p rules.Piece) *ebiten.Image {
	return sm.pieces[p]
}

// pieceDocument returns the SVG source of a piece disc.
func pieceDocument(p rules.Piece) string {
	fill, stroke := "#f8f8f0", "#202020"
	if p.Side == engine.Black {
		fill, stroke = "#303030", "#d0d0d0"
	}
	r := pieceRadius[p.Kind]
	return fmt.Sprintf(pieceSVG, r, fill, stroke, r-3, stroke)
}

// loadPieces rasterizes every piece once.
func (sm *SpriteManager) loadPieces() {
	// Render at higher resolution for better quality when scaled
	renderSize := int(float64(sm.size) * sm.renderScale)

	for _, side := range []engine.Side{engine.White, engine.Black} {
		for kind := engine.Pawn; kind <= engine.King; kind++ {
			piece := rules.Piece{Kind: kind, Side: side}
			icon, err := oksvg.ReadIconStream(strings.NewReader(pieceDocument(piece)))
			if err != nil {
				log.Error().Err(err).Str("piece", piece.Letter()).Msg("failed to parse piece svg")
				continue
			}

			icon.SetTarget(0, 0, float64(renderSize), float64(renderSize))

			// Create RGBA image and render with anti-aliasing at high resolution
			rgba := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
			scanner := rasterx.NewScannerGV(renderSize, renderSize, rgba, rgba.Bounds())
			raster := rasterx.NewDasher(renderSize, renderSize, scanner)
			icon.Draw(raster, 1.0)

			sm.pieces[piece] = ebiten.NewImageFromImage(rgba)
		}
	}
}

// DrawPieceAt draws a piece at the given pixel coordinates.
func (sm *SpriteManager) DrawPieceAt(screen *ebiten.Image, p rules.Piece, x, y int) {
	if p.Empty() {
		return
	}
	sprite := sm.GetPiece(p)
	if sprite == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	// Scale down from render resolution to display size
	scale := 1.0 / sm.renderScale
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	// Use linear filtering for smooth scaling
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(sprite, op)
}

// Size returns the size of piece sprites.
func (sm *SpriteManager) Size() int {
	return sm.size
}

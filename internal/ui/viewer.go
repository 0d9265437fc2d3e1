package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
)

const (
	defaultSquareSize = 80
	panelHeight       = 64
)

// Viewer is an ebiten.Game that shows the most recently published snapshot. It never
// touches the game itself, so publishing from the match goroutine is safe.
type Viewer struct {
	renderer *Renderer
	title    string

	mu   sync.RWMutex
	snap *rules.Snapshot
	info string
}

// NewViewer creates a viewer. title is shown above the status line.
func NewViewer(title string) *Viewer {
	return &Viewer{
		renderer: NewRenderer(defaultSquareSize),
		title:    title,
	}
}

// Publish replaces the displayed position. It matches match.Subscriber.
func (v *Viewer) Publish(snap rules.Snapshot) {
	v.mu.Lock()
	v.snap = &snap
	v.mu.Unlock()
}

// ShowSearch displays the latest completed search iteration.
func (v *Viewer) ShowSearch(info engine.SearchInfo) {
	line := fmt.Sprintf("depth %d  score %d  %s  %d nodes  %v", info.Depth, info.Score, info.Move, info.Nodes, info.Time.Round(time.Millisecond))
	v.mu.Lock()
	v.info = line
	v.mu.Unlock()
}

func (v *Viewer) current() (*rules.Snapshot, string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap, v.info
}

// Update implements ebiten.Game. Escape closes the window.
func (v *Viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(v.renderer.Theme().Background)
	v.renderer.DrawBoard(screen)

	snap, info := v.current()
	if snap != nil {
		v.renderer.DrawLastMove(screen, snap.From, snap.To)
		v.renderer.DrawPieces(screen, snap)
	}

	if regularFace == nil {
		return
	}
	lines := []string{v.title + "  " + statusText(snap), info}
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, float64(v.renderer.BoardSize()+8+i*24))
		op.ColorScale.ScaleWithColor(v.renderer.Theme().TextColor)
		text.Draw(screen, line, regularFace, op)
	}
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.renderer.BoardSize(), v.renderer.BoardSize() + panelHeight
}

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run() error {
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(v.title)
	return ebiten.RunGame(v)
}

// statusText describes a snapshot in one line.
func statusText(snap *rules.Snapshot) string {
	if snap == nil {
		return "waiting for the first move"
	}
	move := (snap.Ply + 1) / 2
	if snap.Status.IsTerminal() {
		return fmt.Sprintf("game over %s after %d plies", snap.Status, snap.Ply)
	}
	if snap.LastMove == "" {
		return fmt.Sprintf("%s to move", snap.Turn)
	}
	return fmt.Sprintf("move %d: %s played, %s to move", move, snap.LastMove, snap.Turn)
}

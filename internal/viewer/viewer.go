// Package viewer renders a running engine with ebiten: the ship grid, the
// candidate set or belief heat map, the true agent and target, and an event
// log of tick descriptions.
package viewer

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Rat-Sense/internal/game"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

const (
	boardPixels = 840
	minCellPx   = 8
	hudScale    = 2
)

var speeds = []float64{0.25, 0.5, 1, 2, 4, 8, 16}

// Viewer is an ebiten.Game driving one engine.
type Viewer struct {
	cfg    game.Config
	seed   int64
	engine *game.Engine
	log    *slog.Logger

	speedIdx  int
	paused    bool
	tickAccum float64

	showBelief  bool
	showVisited bool
	showHUD     bool
	selected    grid.Cell
	hasSelected bool
	status      string

	prevKeys map[ebiten.Key]bool
	events   *EventLog
	face     text.Face

	cellPx        int
	width, height int
	hudBuf        *ebiten.Image
}

// New builds a viewer over a fresh engine generated from cfg.
func New(cfg game.Config, log *slog.Logger) (*Viewer, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	v := &Viewer{
		cfg:         cfg,
		seed:        cfg.Seed,
		log:         log,
		speedIdx:    2,
		showBelief:  true,
		showVisited: true,
		showHUD:     true,
		prevKeys:    map[ebiten.Key]bool{},
		events:      NewEventLog(),
		face:        text.NewGoXFace(basicfont.Face7x13),
	}
	if err := v.reset(); err != nil {
		return nil, err
	}
	return v, nil
}

// reset starts a new game on v.seed.
func (v *Viewer) reset() error {
	cfg := v.cfg
	cfg.Seed = v.seed
	e, err := game.New(nil, cfg, game.WithLogger(v.log))
	if err != nil {
		return err
	}
	v.engine = e
	v.events.Reset()
	v.tickAccum = 0
	v.hasSelected = false
	v.status = fmt.Sprintf("seed %d", v.seed)

	dim := e.Topology().Dimension()
	v.cellPx = max(minCellPx, boardPixels/dim)
	v.width = dim*v.cellPx + logPanelWidth
	v.height = max(dim*v.cellPx, 480)
	v.hudBuf = nil
	return nil
}

// Engine exposes the running engine.
func (v *Viewer) Engine() *game.Engine { return v.engine }

// Size is the window size in pixels.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

// Speed is the number of engine ticks per frame.
func (v *Viewer) Speed() float64 {
	if v.paused {
		return 0
	}
	return speeds[v.speedIdx]
}

// advance runs the engine for one frame at the current speed and returns
// the number of ticks stepped. It stops once the target is caught.
func (v *Viewer) advance() int {
	speed := v.Speed()
	if speed <= 0 || v.engine.Phase() == game.PhaseCaught {
		return 0
	}
	v.tickAccum += speed
	n := 0
	for v.tickAccum >= 1.0 {
		v.tickAccum -= 1.0
		res := v.engine.Step()
		v.events.AddResult(res)
		n++
		if res.Caught {
			v.tickAccum = 0
			v.status = fmt.Sprintf("caught at tick %d", res.Tick)
			break
		}
	}
	return n
}

// stepOnce advances exactly one tick while paused.
func (v *Viewer) stepOnce() {
	if v.engine.Phase() == game.PhaseCaught {
		return
	}
	v.events.AddResult(v.engine.Step())
}

// cellAt maps window pixels to a grid cell.
func (v *Viewer) cellAt(x, y int) (grid.Cell, bool) {
	if x < 0 || y < 0 || v.cellPx <= 0 {
		return grid.Cell{}, false
	}
	c := grid.Cell{Row: y / v.cellPx, Col: x / v.cellPx}
	return c, v.engine.Topology().InBounds(c)
}

// report is the text copied to the clipboard.
func (v *Viewer) report() string {
	sl := v.engine.SimLog()
	return sl.Summary(v.engine.Snapshot()) + "\n" + sl.Format()
}

func (v *Viewer) pressed(k ebiten.Key, cur map[ebiten.Key]bool) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// Update handles input and steps the engine.
func (v *Viewer) Update() error {
	cur := map[ebiten.Key]bool{}

	if v.pressed(ebiten.KeyP, cur) || v.pressed(ebiten.KeySpace, cur) {
		v.paused = !v.paused
	}
	if v.pressed(ebiten.KeyPeriod, cur) && v.speedIdx < len(speeds)-1 {
		v.speedIdx++
	}
	if v.pressed(ebiten.KeyComma, cur) && v.speedIdx > 0 {
		v.speedIdx--
	}
	if v.pressed(ebiten.KeyN, cur) && v.paused {
		v.stepOnce()
	}
	if v.pressed(ebiten.KeyB, cur) {
		v.showBelief = !v.showBelief
	}
	if v.pressed(ebiten.KeyV, cur) {
		v.showVisited = !v.showVisited
	}
	if v.pressed(ebiten.KeyH, cur) {
		v.showHUD = !v.showHUD
	}
	if v.pressed(ebiten.KeyR, cur) {
		v.seed++
		if err := v.reset(); err != nil {
			return err
		}
	}
	if v.pressed(ebiten.KeyC, cur) {
		if err := clipboard.WriteAll(v.report()); err != nil {
			v.log.Warn("clipboard copy failed", "err", err)
			v.status = "copy failed"
		} else {
			v.status = "report copied"
		}
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		v.selected, v.hasSelected = v.cellAt(mx, my)
	}
	v.prevKeys = cur

	v.advance()
	return nil
}

// Draw renders the board, overlays, HUD and event log.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 16, A: 255})
	snap := v.engine.Snapshot()
	v.drawBoard(screen, snap)
	v.drawMarkers(screen, snap)
	v.events.Draw(screen, v.face, v.width-logPanelWidth, v.height)
	if v.showHUD {
		v.drawHUD(screen, snap)
	}
	if v.hasSelected {
		v.drawInspector(screen, snap)
	}
}

func (v *Viewer) cellRect(c grid.Cell) (x, y, s float32) {
	s = float32(v.cellPx)
	return float32(c.Col) * s, float32(c.Row) * s, s
}

func (v *Viewer) drawBoard(screen *ebiten.Image, snap game.Snapshot) {
	topo := v.engine.Topology()
	for id := 0; id < topo.Size(); id++ {
		c := topo.CellAt(id)
		x, y, s := v.cellRect(c)
		if !topo.IsOpen(c) {
			vector.FillRect(screen, x, y, s, s, colorWall, false)
			continue
		}
		vector.FillRect(screen, x, y, s, s, colorFloor, false)
		if v.showVisited && snap.Visited[id] {
			vector.FillRect(screen, x, y, s, s, colorVisited, false)
		}
		if v.showBelief && snap.Belief != nil {
			if hc, ok := heatColor(snap.Belief[id], snap.MaxBelief); ok {
				vector.FillRect(screen, x, y, s, s, hc, false)
			}
		}
	}
	if snap.Phase == game.PhaseLocalizing || !snap.Localized {
		for _, c := range snap.Candidates {
			x, y, s := v.cellRect(c)
			vector.FillRect(screen, x+s/4, y+s/4, s/2, s/2, colorCandidate, false)
		}
	}

	dim := topo.Dimension()
	for i := 0; i <= dim; i++ {
		p := float32(i * v.cellPx)
		edge := float32(dim * v.cellPx)
		vector.StrokeLine(screen, p, 0, p, edge, 1, colorGridLine, false)
		vector.StrokeLine(screen, 0, p, edge, p, 1, colorGridLine, false)
	}
}

func (v *Viewer) drawMarkers(screen *ebiten.Image, snap game.Snapshot) {
	half := float32(v.cellPx) / 2
	center := func(c grid.Cell) (float32, float32) {
		x, y, _ := v.cellRect(c)
		return x + half, y + half
	}

	if snap.Belief != nil {
		x, y, s := v.cellRect(snap.Goal)
		vector.StrokeRect(screen, x+1, y+1, s-2, s-2, 2, colorGoal, false)
	}
	if est, ok := snap.EstimatedAgent(); ok && est != snap.Agent {
		cx, cy := center(est)
		vector.StrokeCircle(screen, cx, cy, half*0.8, 1.5, colorEstimate, true)
	}
	tx, ty := center(snap.Target)
	vector.FillCircle(screen, tx, ty, half*0.6, colorTarget, true)
	ax, ay := center(snap.Agent)
	vector.FillCircle(screen, ax, ay, half*0.7, colorAgent, true)
	if snap.Phase == game.PhaseCaught {
		vector.StrokeCircle(screen, ax, ay, half*0.95, 2, colorGoal, true)
	}
}

// hudLines is the HUD text for snap.
func (v *Viewer) hudLines(snap game.Snapshot) []string {
	speed := fmt.Sprintf("%gx", v.Speed())
	if v.paused {
		speed = "PAUSED"
	}
	lines := []string{
		fmt.Sprintf("T=%d  %s  policy=%s", snap.Tick, snap.Phase, snap.Policy),
		fmt.Sprintf("SIM: %s  P=pause ,/.=speed N=step", speed),
	}
	if snap.Belief == nil {
		lines = append(lines, fmt.Sprintf("candidates: %d", len(snap.Candidates)))
	} else {
		lines = append(lines, fmt.Sprintf("max p=%.3f  H=%.2f  goal=%v", snap.MaxBelief, snap.Entropy, snap.Goal))
	}
	c := snap.Counters
	lines = append(lines,
		fmt.Sprintf("moves=%d sense=%d detect=%d pings=%d", c.Movements, c.Sensing, c.Detections, c.Pings),
		"[B] belief [V] visited [H] HUD",
		"[R] new ship [C] copy report",
		v.status,
	)
	return lines
}

func (v *Viewer) drawHUD(screen *ebiten.Image, snap game.Snapshot) {
	lines := v.hudLines(snap)
	const lineH, charW, padX, padY = 12, 6, 5, 4

	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)

	bufW, bufH := (v.width-logPanelWidth)/hudScale, v.height/hudScale
	if v.hudBuf == nil || v.hudBuf.Bounds().Dx() != bufW || v.hudBuf.Bounds().Dy() != bufH {
		v.hudBuf = ebiten.NewImage(bufW, bufH)
	}
	v.hudBuf.Clear()
	bx, by := float32(4), float32(bufH)-boxH-4
	vector.FillRect(v.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 6, G: 8, B: 12, A: 210}, false)
	vector.StrokeRect(v.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 80, B: 110, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(v.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(hudScale, hudScale)
	screen.DrawImage(v.hudBuf, op)
}

// inspectLines describes the selected cell.
func (v *Viewer) inspectLines(snap game.Snapshot) []string {
	topo := v.engine.Topology()
	c := v.selected
	if !topo.IsOpen(c) {
		return []string{fmt.Sprintf("%v wall", c)}
	}
	id := topo.Index(c)
	lines := []string{
		fmt.Sprintf("%v open, %d blocked nbrs", c, topo.BlockedNeighbors(c)),
		fmt.Sprintf("visited=%t", snap.Visited[id]),
	}
	if snap.Belief != nil {
		lines = append(lines, fmt.Sprintf("p=%.5f", snap.Belief[id]))
	}
	for _, cand := range snap.Candidates {
		if cand == c {
			lines = append(lines, "candidate")
			break
		}
	}
	return lines
}

func (v *Viewer) drawInspector(screen *ebiten.Image, snap game.Snapshot) {
	x, y, s := v.cellRect(v.selected)
	vector.StrokeRect(screen, x, y, s, s, 2, color.White, false)

	lines := v.inspectLines(snap)
	boxX, boxY := 8, 8
	vector.FillRect(screen, float32(boxX), float32(boxY), 230, float32(len(lines)*logLineHeight+8), color.RGBA{R: 6, G: 8, B: 12, A: 220}, false)
	for i, l := range lines {
		drawText(screen, v.face, l, boxX+6, boxY+4+i*logLineHeight, color.White)
	}
}

// Layout reports a fixed logical size.
func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Garsondee/Rat-Sense/internal/game"
)

// ErrEmptyTrace is returned when a run has no samples to plot.
var ErrEmptyTrace = errors.New("report: empty trace")

var (
	colorCandidates = color.RGBA{R: 80, G: 80, B: 200, A: 255}
	colorMaxBelief  = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	colorEntropy    = color.RGBA{R: 40, G: 150, B: 70, A: 255}
)

// PlotFileName is the file a run's trace plot is saved under.
func PlotFileName(rs RunStats) string {
	return fmt.Sprintf("run_%03d_seed_%d.png", rs.Index, rs.Seed)
}

// PlotBeliefTrace saves two stacked charts for rs into dir: the candidate
// count during localization and the belief peak and entropy during
// tracking. It returns the written path.
func PlotBeliefTrace(rs RunStats, dir string) (string, error) {
	if len(rs.Trace) == 0 {
		return "", ErrEmptyTrace
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}

	cands := make(plotter.XYs, 0, len(rs.Trace))
	peak := make(plotter.XYs, 0, len(rs.Trace))
	ent := make(plotter.XYs, 0, len(rs.Trace))
	for _, s := range rs.Trace {
		x := float64(s.Tick)
		if s.Phase == game.PhaseLocalizing {
			cands = append(cands, plotter.XY{X: x, Y: float64(s.Candidates)})
			continue
		}
		peak = append(peak, plotter.XY{X: x, Y: s.MaxBelief})
		ent = append(ent, plotter.XY{X: x, Y: s.Entropy})
	}

	pLoc := plot.New()
	pLoc.Title.Text = fmt.Sprintf("Run %d: localization (seed %d)", rs.Index, rs.Seed)
	pLoc.X.Label.Text = "tick"
	pLoc.Y.Label.Text = "candidates"
	if err := addLine(pLoc, cands, colorCandidates, "candidates"); err != nil {
		return "", err
	}

	pTrk := plot.New()
	pTrk.Title.Text = fmt.Sprintf("Run %d: tracking (%s, %s)", rs.Index, rs.Policy, rs.Outcome)
	pTrk.X.Label.Text = "tick"
	pTrk.Y.Label.Text = "belief"
	if err := addLine(pTrk, peak, colorMaxBelief, "max p"); err != nil {
		return "", err
	}
	if err := addLine(pTrk, ent, colorEntropy, "entropy (nats)"); err != nil {
		return "", err
	}

	img := vgimg.New(14*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{{pLoc}, {pTrk}}, tiles, dc)
	pLoc.Draw(canvases[0][0])
	pTrk.Draw(canvases[1][0])

	path := filepath.Join(dir, PlotFileName(rs))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write plot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close plot %s: %w", path, err)
	}
	return path, nil
}

// addLine adds pts as a legend entry; an empty series is skipped.
func addLine(p *plot.Plot, pts plotter.XYs, c color.Color, label string) error {
	if len(pts) == 0 {
		return nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("line %s: %w", label, err)
	}
	l.Color = c
	l.Width = vg.Points(1)
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}

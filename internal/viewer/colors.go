package viewer

import (
	"image/color"
	"math"
)

var (
	colorWall      = color.RGBA{R: 38, G: 40, B: 46, A: 255}
	colorFloor     = color.RGBA{R: 196, G: 190, B: 176, A: 255}
	colorVisited   = color.RGBA{R: 120, G: 160, B: 120, A: 70}
	colorCandidate = color.RGBA{R: 70, G: 110, B: 230, A: 150}
	colorAgent     = color.RGBA{R: 40, G: 170, B: 70, A: 255}
	colorTarget    = color.RGBA{R: 210, G: 50, B: 50, A: 255}
	colorGoal      = color.RGBA{R: 250, G: 220, B: 40, A: 255}
	colorEstimate  = color.RGBA{R: 70, G: 110, B: 230, A: 255}
	colorGridLine  = color.RGBA{R: 0, G: 0, B: 0, A: 30}
)

// heatColor maps p, relative to the current peak, onto a red overlay whose
// alpha follows the square root of the ratio so small masses stay visible.
// Cells below 1% of the peak are left clear.
func heatColor(p, peak float64) (color.RGBA, bool) {
	if !(peak > 0) || !(p > 0) {
		return color.RGBA{}, false
	}
	v := p / peak
	if v < 0.01 {
		return color.RGBA{}, false
	}
	if v > 1 {
		v = 1
	}
	alpha := uint8(math.Round(40 + 200*math.Sqrt(v)))
	return color.RGBA{R: 230, G: uint8(math.Round(180 * (1 - v))), B: 30, A: alpha}, true
}

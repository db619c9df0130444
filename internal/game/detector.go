package game

import (
	"math"
	"math/rand"
)

// DetectionModel is the proximity detector: it pings with certainty when the
// agent stands on the target and with exponentially decaying probability as
// Manhattan distance grows.
type DetectionModel struct {
	Alpha float64
}

// Probability returns the chance of a ping at Manhattan distance d.
//
//	p(0) = 1
//	p(d) = exp(-alpha * (d-1))   for d >= 1
func (m DetectionModel) Probability(d int) float64 {
	if d <= 0 {
		return 1
	}
	return math.Exp(-m.Alpha * float64(d-1))
}

// Likelihood returns P(observation | target at distance d).
func (m DetectionModel) Likelihood(d int, ping bool) float64 {
	p := m.Probability(d)
	if ping {
		return p
	}
	return 1 - p
}

// Ping draws one Bernoulli detector reading at distance d.
func (m DetectionModel) Ping(d int, rng *rand.Rand) bool {
	return rng.Float64() < m.Probability(d)
}

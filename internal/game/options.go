package game

import (
	"log/slog"
	"math/rand"

	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra     optionKind = iota // seed, logger, sim log, policy: applied before the ship exists
	optPlacement                   // agent/target cells: applied after the ship is built
)

// Option is a builder function applied to an Engine during construction.
type Option struct {
	kind optionKind
	fn   func(*Engine)
}

// WithSeed replaces the random source with one seeded from seed, overriding
// Config.Seed.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation randomness
	}}
}

// WithRand supplies the random source directly.
func WithRand(rng *rand.Rand) Option {
	return Option{optInfra, func(e *Engine) {
		e.rng = rng
	}}
}

// WithLogger routes engine logs to l. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return Option{optInfra, func(e *Engine) {
		e.log = l
	}}
}

// WithSimLog records structured tick events into sl.
func WithSimLog(sl *SimLog) Option {
	return Option{optInfra, func(e *Engine) {
		e.simLog = sl
	}}
}

// WithVerbose records per-tick belief statistics in a fresh SimLog.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(e *Engine) {
		e.simLog = NewSimLog(v)
	}}
}

// WithPolicy overrides the movement policy named in Config.Policy.
func WithPolicy(p MovePolicy) Option {
	return Option{optInfra, func(e *Engine) {
		e.policy = p
	}}
}

// WithAgentAt places the agent at c instead of a random open cell.
func WithAgentAt(c grid.Cell) Option {
	return Option{optPlacement, func(e *Engine) {
		e.agent, e.agentFixed = c, true
	}}
}

// WithTargetAt places the target at c instead of a random distant cell.
func WithTargetAt(c grid.Cell) Option {
	return Option{optPlacement, func(e *Engine) {
		e.target, e.targetFixed = c, true
	}}
}

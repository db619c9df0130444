package game

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Rat-Sense/internal/config"
)

// ErrInvalidConfig is returned by New and Config.Validate for parameters the
// engine cannot run with.
var ErrInvalidConfig = errors.New("invalid engine config")

// Policy names accepted by Config.Policy.
const (
	PolicyGreedy         = "greedy"
	PolicyValueIteration = "value-iteration"
)

// Config holds the engine's constructor-time parameters.
type Config struct {
	// Dimension is the ship size used when New generates the layout itself.
	// When a topology is supplied its dimension wins.
	Dimension int
	Seed      int64

	Alpha            float64 // detector sensitivity, > 0
	Policy           string  // PolicyGreedy or PolicyValueIteration
	Horizon          int     // value-iteration sweeps
	Discount         float64 // value-iteration gamma
	ExplorationBonus float64 // multiplier on unvisited cells; 1 disables
	MobileTarget     bool    // target wanders; belief diffuses each detection
	FailsafeTicks    int     // localization tick bound
	MinSeparation    int     // minimum agent/target Manhattan distance at placement
	ClearOnMiss      bool    // zero belief at the agent's cell after a move
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Dimension:        config.DefaultDimension,
		Seed:             config.DefaultSeed,
		Alpha:            config.DefaultAlpha,
		Policy:           PolicyGreedy,
		Horizon:          config.DefaultHorizon,
		Discount:         config.DefaultDiscount,
		ExplorationBonus: config.DefaultExplorationBonus,
		FailsafeTicks:    config.DefaultFailsafeTicks,
		MinSeparation:    config.DefaultMinSeparation,
		ClearOnMiss:      true,
	}
}

// ConfigFromTuning maps a loaded tuning file onto an engine config. Missing
// fields take their defaults.
func ConfigFromTuning(t *config.TuningConfig) Config {
	return Config{
		Dimension:        t.GetDimension(),
		Seed:             t.GetSeed(),
		Alpha:            t.GetAlpha(),
		Policy:           t.GetPolicy(),
		Horizon:          t.GetHorizon(),
		Discount:         t.GetDiscount(),
		ExplorationBonus: t.GetExplorationBonus(),
		MobileTarget:     t.GetMobileTarget(),
		FailsafeTicks:    t.GetFailsafeTicks(),
		MinSeparation:    t.GetMinSeparation(),
		ClearOnMiss:      t.GetClearOnMiss(),
	}
}

// Validate checks every parameter. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("dimension must be positive, got %d", c.Dimension))
	}
	if !(c.Alpha > 0) {
		errs = append(errs, fmt.Errorf("alpha must be positive, got %v", c.Alpha))
	}
	switch c.Policy {
	case PolicyGreedy, PolicyValueIteration:
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if c.Horizon < 1 || c.Horizon > 10 {
		errs = append(errs, fmt.Errorf("horizon must be in [1,10], got %d", c.Horizon))
	}
	if !(c.Discount > 0 && c.Discount <= 1) {
		errs = append(errs, fmt.Errorf("discount must be in (0,1], got %v", c.Discount))
	}
	if !(c.ExplorationBonus >= 1) {
		errs = append(errs, fmt.Errorf("exploration bonus must be >= 1, got %v", c.ExplorationBonus))
	}
	if c.FailsafeTicks <= 0 {
		errs = append(errs, fmt.Errorf("failsafe ticks must be positive, got %d", c.FailsafeTicks))
	}
	if c.MinSeparation < 0 {
		errs = append(errs, fmt.Errorf("min separation must be non-negative, got %d", c.MinSeparation))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

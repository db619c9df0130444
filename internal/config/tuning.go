// Package config loads run tuning from JSON or YAML. Every field is a
// pointer so a partial file only overrides what it names; the Get* methods
// supply defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Defaults applied when a field is absent.
const (
	DefaultDimension        = 30
	DefaultAlpha            = 0.1
	DefaultSeed             = 1
	DefaultPolicy           = "greedy"
	DefaultHorizon          = 3
	DefaultDiscount         = 0.9
	DefaultExplorationBonus = 1.2
	DefaultFailsafeTicks    = 100
	DefaultMinSeparation    = 5
	DefaultMaxTicks         = 5000
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig is the root tuning document.
type TuningConfig struct {
	// Ship
	Dimension *int `json:"dimension,omitempty" yaml:"dimension,omitempty"`

	// Sensor
	Alpha *float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`

	// Run
	Seed     *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	MaxTicks *int   `json:"max_ticks,omitempty" yaml:"max_ticks,omitempty"`

	// Localization
	FailsafeTicks *int `json:"failsafe_ticks,omitempty" yaml:"failsafe_ticks,omitempty"`
	MinSeparation *int `json:"min_separation,omitempty" yaml:"min_separation,omitempty"`

	// Tracking
	Policy           *string  `json:"policy,omitempty" yaml:"policy,omitempty"` // "greedy" or "value-iteration"
	Horizon          *int     `json:"horizon,omitempty" yaml:"horizon,omitempty"`
	Discount         *float64 `json:"discount,omitempty" yaml:"discount,omitempty"`
	ExplorationBonus *float64 `json:"exploration_bonus,omitempty" yaml:"exploration_bonus,omitempty"`
	MobileTarget     *bool    `json:"mobile_target,omitempty" yaml:"mobile_target,omitempty"`
	ClearOnMiss      *bool    `json:"clear_on_miss,omitempty" yaml:"clear_on_miss,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set explicitly.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		Dimension:        ptrInt(DefaultDimension),
		Alpha:            ptrFloat64(DefaultAlpha),
		Seed:             ptrInt64(DefaultSeed),
		MaxTicks:         ptrInt(DefaultMaxTicks),
		FailsafeTicks:    ptrInt(DefaultFailsafeTicks),
		MinSeparation:    ptrInt(DefaultMinSeparation),
		Policy:           ptrString(DefaultPolicy),
		Horizon:          ptrInt(DefaultHorizon),
		Discount:         ptrFloat64(DefaultDiscount),
		ExplorationBonus: ptrFloat64(DefaultExplorationBonus),
		MobileTarget:     ptrBool(false),
		ClearOnMiss:      ptrBool(true),
	}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the working directory. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set.
func (c *TuningConfig) Validate() error {
	if c.Dimension != nil && *c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", *c.Dimension)
	}
	if c.Alpha != nil && !(*c.Alpha > 0) {
		return fmt.Errorf("alpha must be positive, got %f", *c.Alpha)
	}
	if c.MaxTicks != nil && *c.MaxTicks <= 0 {
		return fmt.Errorf("max_ticks must be positive, got %d", *c.MaxTicks)
	}
	if c.FailsafeTicks != nil && *c.FailsafeTicks <= 0 {
		return fmt.Errorf("failsafe_ticks must be positive, got %d", *c.FailsafeTicks)
	}
	if c.MinSeparation != nil && *c.MinSeparation < 0 {
		return fmt.Errorf("min_separation must be non-negative, got %d", *c.MinSeparation)
	}
	if c.Policy != nil {
		switch *c.Policy {
		case "greedy", "value-iteration":
		default:
			return fmt.Errorf("policy must be \"greedy\" or \"value-iteration\", got %q", *c.Policy)
		}
	}
	if c.Horizon != nil && (*c.Horizon < 1 || *c.Horizon > 10) {
		return fmt.Errorf("horizon must be between 1 and 10, got %d", *c.Horizon)
	}
	if c.Discount != nil && !(*c.Discount > 0 && *c.Discount <= 1) {
		return fmt.Errorf("discount must be in (0, 1], got %f", *c.Discount)
	}
	if c.ExplorationBonus != nil && !(*c.ExplorationBonus >= 1) {
		return fmt.Errorf("exploration_bonus must be >= 1, got %f", *c.ExplorationBonus)
	}
	return nil
}

// GetDimension returns the dimension value or the default.
func (c *TuningConfig) GetDimension() int {
	if c.Dimension == nil {
		return DefaultDimension
	}
	return *c.Dimension
}

// GetAlpha returns the alpha value or the default.
func (c *TuningConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return DefaultAlpha
	}
	return *c.Alpha
}

// GetSeed returns the seed value or the default.
func (c *TuningConfig) GetSeed() int64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// GetMaxTicks returns the max_ticks value or the default.
func (c *TuningConfig) GetMaxTicks() int {
	if c.MaxTicks == nil {
		return DefaultMaxTicks
	}
	return *c.MaxTicks
}

// GetFailsafeTicks returns the failsafe_ticks value or the default.
func (c *TuningConfig) GetFailsafeTicks() int {
	if c.FailsafeTicks == nil {
		return DefaultFailsafeTicks
	}
	return *c.FailsafeTicks
}

// GetMinSeparation returns the min_separation value or the default.
func (c *TuningConfig) GetMinSeparation() int {
	if c.MinSeparation == nil {
		return DefaultMinSeparation
	}
	return *c.MinSeparation
}

// GetPolicy returns the policy name or the default.
func (c *TuningConfig) GetPolicy() string {
	if c.Policy == nil || *c.Policy == "" {
		return DefaultPolicy
	}
	return *c.Policy
}

// GetHorizon returns the horizon value or the default.
func (c *TuningConfig) GetHorizon() int {
	if c.Horizon == nil {
		return DefaultHorizon
	}
	return *c.Horizon
}

// GetDiscount returns the discount value or the default.
func (c *TuningConfig) GetDiscount() float64 {
	if c.Discount == nil {
		return DefaultDiscount
	}
	return *c.Discount
}

// GetExplorationBonus returns the exploration_bonus value or the default.
func (c *TuningConfig) GetExplorationBonus() float64 {
	if c.ExplorationBonus == nil {
		return DefaultExplorationBonus
	}
	return *c.ExplorationBonus
}

// GetMobileTarget returns the mobile_target value or the default.
func (c *TuningConfig) GetMobileTarget() bool {
	if c.MobileTarget == nil {
		return false
	}
	return *c.MobileTarget
}

// GetClearOnMiss returns the clear_on_miss value or the default.
func (c *TuningConfig) GetClearOnMiss() bool {
	if c.ClearOnMiss == nil {
		return true
	}
	return *c.ClearOnMiss
}

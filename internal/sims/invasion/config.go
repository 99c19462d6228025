package invasion

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"spreadsim/internal/core"
)

// Params holds the tunable biology, management, and economics of a run.
// Rates are annualized and scaled to the calendar timestep by the rules.
type Params struct {
	// Growth
	GrowthRate       float64 `yaml:"growth_rate"`       // intrinsic rate r per year
	CarryingCapacity float64 `yaml:"carrying_capacity"` // K per cell
	MinFounders      float64 `yaml:"min_founders"`      // Allee extinction threshold

	// Local dispersal
	DispersalRadius   int     `yaml:"dispersal_radius"`    // cells; 0 disables
	RetainedFraction  float64 `yaml:"retained_fraction"`   // mass staying at the source
	DispersalMeanDist float64 `yaml:"dispersal_mean_dist"` // decay length of the kernel

	// Human-mediated jump dispersal
	JumpPerCapita      float64 `yaml:"jump_per_capita"`     // dispersers per unit population; 0 disables
	JumpMax            float64 `yaml:"jump_max"`            // cap on dispersers per source per tick
	JumpShortlist      int     `yaml:"jump_shortlist"`      // destinations precomputed per source
	JumpMeanDist       float64 `yaml:"jump_mean_dist"`      // decay length of the destination score
	QuarantineLocal    float64 `yaml:"quarantine_local"`    // outflow attenuation at detected sources
	QuarantineRegional float64 `yaml:"quarantine_regional"` // delivery attenuation at detected destinations

	// Detection and trapping
	ReportingThreshold float64 `yaml:"reporting_threshold"` // population triggering a report
	DetectionRate      float64 `yaml:"detection_rate"`      // per-trap detection probability
	TrapCoverage       float64 `yaml:"trap_coverage"`       // scaling on the trap detection probability
	TrapDensity        float64 `yaml:"trap_density"`        // traps per unit area on new detection
	TrapRadius         int     `yaml:"trap_radius"`         // placement kernel radius in cells

	// Eradication
	EradicationEffect float64 `yaml:"eradication_effect"` // population cap factor on treated cells

	// Economics, per year
	TrapCost         float64 `yaml:"trap_cost"`         // operating cost per trap
	EradicationCost  float64 `yaml:"eradication_cost"`  // treatment cost per unit area
	LocalCropValue   float64 `yaml:"local_crop_value"`  // value exposed to local quarantine
	LocalEffect      float64 `yaml:"local_effect"`      // quarantine cost fraction
	CropValue        float64 `yaml:"crop_value"`        // value exposed to crop loss
	CroplossFraction float64 `yaml:"croploss_fraction"` // loss fraction once damage starts
	DamageThreshold  float64 `yaml:"damage_threshold"`  // population where damage starts
	CellArea         float64 `yaml:"cell_area"`         // area of one cell

	// Procedural seeding, used when no loader layers are supplied
	SeedPopulation float64 `yaml:"seed_population"` // founders per seeded cell
	SeedCount      int     `yaml:"seed_count"`      // number of seeded cells
	TownCount      int     `yaml:"town_count"`      // human-population centres
	TownWeightMax  float64 `yaml:"town_weight_max"` // largest town weight
}

// Config controls dimensions, the calendar, and run options.
type Config struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`

	StepMonths int  `yaml:"step_months"` // calendar length of one tick
	Sparse     bool `yaml:"sparse"`      // use the active-set scan strategy

	Params Params `yaml:"params"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:      128,
		Height:     128,
		Seed:       1337,
		StepMonths: 1,
		Params: Params{
			GrowthRate:       0.8,
			CarryingCapacity: 100,
			MinFounders:      2,

			DispersalRadius:   2,
			RetainedFraction:  0.8,
			DispersalMeanDist: 1.0,

			JumpPerCapita:      0.002,
			JumpMax:            20,
			JumpShortlist:      5,
			JumpMeanDist:       40,
			QuarantineLocal:    0.7,
			QuarantineRegional: 0.3,

			ReportingThreshold: 50,
			DetectionRate:      0.2,
			TrapCoverage:       0.8,
			TrapDensity:        2,
			TrapRadius:         2,

			EradicationEffect: 0.9,

			TrapCost:         30,
			EradicationCost:  150,
			LocalCropValue:   400,
			LocalEffect:      0.1,
			CropValue:        1000,
			CroplossFraction: 0.25,
			DamageThreshold:  10,
			CellArea:         1,

			SeedPopulation: 20,
			SeedCount:      3,
			TownCount:      12,
			TownWeightMax:  1000,
		},
	}
}

// Dt reports the calendar timestep in years.
func (c Config) Dt() float64 { return float64(c.StepMonths) / 12 }

// Validate checks dimensions and scalar ranges, failing fast before any
// computation starts.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", core.ErrConfiguration, c.Width, c.Height)
	}
	if c.StepMonths < 1 {
		return fmt.Errorf("%w: step_months %d", core.ErrConfiguration, c.StepMonths)
	}
	p := c.Params
	for _, f := range []struct {
		key   string
		value float64
	}{
		{"retained_fraction", p.RetainedFraction},
		{"quarantine_local", p.QuarantineLocal},
		{"quarantine_regional", p.QuarantineRegional},
		{"detection_rate", p.DetectionRate},
		{"trap_coverage", p.TrapCoverage},
		{"eradication_effect", p.EradicationEffect},
		{"local_effect", p.LocalEffect},
		{"croploss_fraction", p.CroplossFraction},
	} {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%w: %s %g outside [0,1]", core.ErrConfiguration, f.key, f.value)
		}
	}
	for _, f := range []struct {
		key   string
		value float64
	}{
		{"growth_rate", p.GrowthRate},
		{"carrying_capacity", p.CarryingCapacity},
		{"min_founders", p.MinFounders},
		{"jump_per_capita", p.JumpPerCapita},
		{"jump_max", p.JumpMax},
		{"reporting_threshold", p.ReportingThreshold},
		{"trap_density", p.TrapDensity},
		{"trap_cost", p.TrapCost},
		{"eradication_cost", p.EradicationCost},
		{"local_crop_value", p.LocalCropValue},
		{"crop_value", p.CropValue},
		{"damage_threshold", p.DamageThreshold},
		{"seed_population", p.SeedPopulation},
		{"town_weight_max", p.TownWeightMax},
	} {
		if f.value < 0 {
			return fmt.Errorf("%w: %s %g is negative", core.ErrConfiguration, f.key, f.value)
		}
	}
	if p.CellArea <= 0 {
		return fmt.Errorf("%w: cell_area %g", core.ErrConfiguration, p.CellArea)
	}
	if p.DispersalRadius < 0 || p.TrapRadius < 0 {
		return fmt.Errorf("%w: negative kernel radius", core.ErrConfiguration)
	}
	if p.DispersalMeanDist <= 0 || p.JumpMeanDist <= 0 {
		return fmt.Errorf("%w: kernel mean distance must be positive", core.ErrConfiguration)
	}
	if p.JumpShortlist < 0 || p.SeedCount < 0 || p.TownCount < 0 {
		return fmt.Errorf("%w: negative count parameter", core.ErrConfiguration)
	}
	return nil
}

// FromFile loads a YAML configuration over the defaults and validates it.
func FromFile(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: parse %s: %v", core.ErrConfiguration, path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["step_months"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			c.StepMonths = parsed
		}
	}
	if v, ok := cfg["sparse"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Sparse = parsed
		}
	}
	for key, raw := range cfg {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Params.Apply(key, v)
		}
	}
	return c
}

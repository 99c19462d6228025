package invasion

import (
	"strconv"

	"spreadsim/internal/core"
)

// Parameters captures the full tunable surface for presentation.
func (s *Sim) Parameters() core.ParameterSnapshot {
	p := s.cfg.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", s.cfg.Width),
				intParam("h", "Height", s.cfg.Height),
				int64Param("seed", "Seed", s.cfg.Seed),
				intParam("step_months", "Months per tick", s.cfg.StepMonths),
			},
		},
		{
			Name: "Growth",
			Params: []core.Parameter{
				floatParam("growth_rate", "Intrinsic rate", p.GrowthRate),
				floatParam("carrying_capacity", "Carrying capacity", p.CarryingCapacity),
				floatParam("min_founders", "Allee threshold", p.MinFounders),
			},
		},
		{
			Name: "Dispersal",
			Params: []core.Parameter{
				intParam("dispersal_radius", "Kernel radius", p.DispersalRadius),
				floatParam("retained_fraction", "Retained fraction", p.RetainedFraction),
				floatParam("dispersal_mean_dist", "Kernel mean distance", p.DispersalMeanDist),
				floatParam("jump_per_capita", "Jump dispersers per capita", p.JumpPerCapita),
				floatParam("jump_max", "Jump dispersers cap", p.JumpMax),
				intParam("jump_shortlist", "Jump shortlist size", p.JumpShortlist),
				floatParam("jump_mean_dist", "Jump score decay", p.JumpMeanDist),
				floatParam("quarantine_local", "Local quarantine effect", p.QuarantineLocal),
				floatParam("quarantine_regional", "Regional quarantine effect", p.QuarantineRegional),
			},
		},
		{
			Name: "Detection & Trapping",
			Params: []core.Parameter{
				floatParam("reporting_threshold", "Reporting threshold", p.ReportingThreshold),
				floatParam("detection_rate", "Per-trap detection rate", p.DetectionRate),
				floatParam("trap_coverage", "Trap coverage", p.TrapCoverage),
				floatParam("trap_density", "Trap density", p.TrapDensity),
				intParam("trap_radius", "Trap radius", p.TrapRadius),
				floatParam("eradication_effect", "Eradication effect", p.EradicationEffect),
			},
		},
		{
			Name: "Economics",
			Params: []core.Parameter{
				floatParam("trap_cost", "Trap operating cost", p.TrapCost),
				floatParam("eradication_cost", "Eradication cost per area", p.EradicationCost),
				floatParam("local_crop_value", "Local crop value", p.LocalCropValue),
				floatParam("local_effect", "Local quarantine fraction", p.LocalEffect),
				floatParam("crop_value", "Crop value", p.CropValue),
				floatParam("croploss_fraction", "Crop loss fraction", p.CroplossFraction),
				floatParam("damage_threshold", "Damage threshold", p.DamageThreshold),
				floatParam("cell_area", "Cell area", p.CellArea),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// managementControls is the descriptor set an external optimizer explores:
// the intervention levers, each with explicit bounds and a search step.
var managementControls = []core.ParameterControl{
	{Key: "reporting_threshold", Label: "Reporting threshold", Type: core.ParamTypeFloat,
		Step: 10, Min: 1, Max: 200, HasMin: true, HasMax: true},
	{Key: "detection_rate", Label: "Per-trap detection rate", Type: core.ParamTypeFloat,
		Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
	{Key: "trap_coverage", Label: "Trap coverage", Type: core.ParamTypeFloat,
		Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
	{Key: "trap_density", Label: "Trap density", Type: core.ParamTypeFloat,
		Step: 0.5, Min: 0, Max: 10, HasMin: true, HasMax: true},
	{Key: "trap_radius", Label: "Trap radius", Type: core.ParamTypeInt,
		Step: 1, Min: 0, Max: 6, HasMin: true, HasMax: true},
	{Key: "eradication_effect", Label: "Eradication effect", Type: core.ParamTypeFloat,
		Step: 0.1, Min: 0, Max: 1, HasMin: true, HasMax: true},
	{Key: "quarantine_local", Label: "Local quarantine effect", Type: core.ParamTypeFloat,
		Step: 0.1, Min: 0, Max: 1, HasMin: true, HasMax: true},
	{Key: "quarantine_regional", Label: "Regional quarantine effect", Type: core.ParamTypeFloat,
		Step: 0.1, Min: 0, Max: 1, HasMin: true, HasMax: true},
}

// ParameterControls exposes the adjustable management levers.
func (s *Sim) ParameterControls() []core.ParameterControl {
	return append([]core.ParameterControl(nil), managementControls...)
}

// SetFloatParameter updates a tunable by key, clamped to its bounds. The
// change takes effect on the next Reset.
func (s *Sim) SetFloatParameter(key string, value float64) bool {
	return s.cfg.Params.Apply(key, value)
}

// SetIntParameter updates an integer tunable by key.
func (s *Sim) SetIntParameter(key string, value int) bool {
	return s.cfg.Params.Apply(key, float64(value))
}

// Apply assigns a value to the named parameter, clamping fractions to [0,1]
// and counts to non-negative. It reports whether the key was recognized.
func (p *Params) Apply(key string, value float64) bool {
	frac := func() float64 { return clampFloat(value, 0, 1) }
	nonneg := func() float64 {
		if value < 0 {
			return 0
		}
		return value
	}
	count := func() int {
		if value < 0 {
			return 0
		}
		return int(value)
	}
	switch key {
	case "growth_rate":
		p.GrowthRate = nonneg()
	case "carrying_capacity":
		p.CarryingCapacity = nonneg()
	case "min_founders":
		p.MinFounders = nonneg()
	case "dispersal_radius":
		p.DispersalRadius = count()
	case "retained_fraction":
		p.RetainedFraction = frac()
	case "dispersal_mean_dist":
		if value > 0 {
			p.DispersalMeanDist = value
		}
	case "jump_per_capita":
		p.JumpPerCapita = nonneg()
	case "jump_max":
		p.JumpMax = nonneg()
	case "jump_shortlist":
		p.JumpShortlist = count()
	case "jump_mean_dist":
		if value > 0 {
			p.JumpMeanDist = value
		}
	case "quarantine_local":
		p.QuarantineLocal = frac()
	case "quarantine_regional":
		p.QuarantineRegional = frac()
	case "reporting_threshold":
		p.ReportingThreshold = nonneg()
	case "detection_rate":
		p.DetectionRate = frac()
	case "trap_coverage":
		p.TrapCoverage = frac()
	case "trap_density":
		p.TrapDensity = nonneg()
	case "trap_radius":
		p.TrapRadius = count()
	case "eradication_effect":
		p.EradicationEffect = frac()
	case "trap_cost":
		p.TrapCost = nonneg()
	case "eradication_cost":
		p.EradicationCost = nonneg()
	case "local_crop_value":
		p.LocalCropValue = nonneg()
	case "local_effect":
		p.LocalEffect = frac()
	case "crop_value":
		p.CropValue = nonneg()
	case "croploss_fraction":
		p.CroplossFraction = frac()
	case "damage_threshold":
		p.DamageThreshold = nonneg()
	case "cell_area":
		if value > 0 {
			p.CellArea = value
		}
	case "seed_population":
		p.SeedPopulation = nonneg()
	case "seed_count":
		p.SeedCount = count()
	case "town_count":
		p.TownCount = count()
	case "town_weight_max":
		p.TownWeightMax = nonneg()
	default:
		return false
	}
	return true
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

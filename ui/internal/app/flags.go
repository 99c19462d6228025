package app

import "flag"

// Config represents the command-line parameters for the viewer.
type Config struct {
	Sim   string
	Scale int
	TPS   int
	Seed  int64
	Panel int
	Opts  map[string]string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "invasion", Scale: 4, TPS: 30, Seed: 1337, Panel: 220}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.Panel, "panel", c.Panel, "control panel width in pixels (0 hides it)")
}

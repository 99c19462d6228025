package core

import "image/color"

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Sim is the contract a runnable simulation exposes to front-ends: headless
// drivers and the live viewer both consume it. Cells returns a display
// buffer of palette indices derived from the underlying grid set.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// PaletteProvider is implemented by sims that render through an indexed
// color palette.
type PaletteProvider interface {
	Palette() []color.RGBA
}

// Factory constructs a Sim using optional flag-style key/value overrides.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

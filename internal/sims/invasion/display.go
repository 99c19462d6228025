package invasion

import "image/color"

// Display buffer encoding: three bits of population band, one detected bit,
// one traps bit. The palette covers every combination.
const (
	displayBandMask    = 0x07
	displayDetectedBit = 0x08
	displayTrapsBit    = 0x10
)

var invasionPalette = buildInvasionPalette()

// Palette exposes the color palette used for rendering the invasion state.
func (s *Sim) Palette() []color.RGBA {
	return invasionPalette
}

func (s *Sim) refreshDisplay() {
	if s.sched == nil {
		return
	}
	cur := s.sched.Current()
	pop := cur.Grid(GridPopulation).Values()
	det := cur.Grid(GridDetected).Values()
	traps := cur.Grid(GridTraps).Values()
	k := s.cfg.Params.CarryingCapacity
	if k <= 0 {
		k = 1
	}
	for i := range s.display {
		var v uint8
		if pop[i] > 0 {
			band := 1 + int(6*pop[i]/k)
			if band > 7 {
				band = 7
			}
			v = uint8(band)
		}
		if det[i] > 0 {
			v |= displayDetectedBit
		}
		if traps[i] > 0 {
			v |= displayTrapsBit
		}
		s.display[i] = v
	}
}

func buildInvasionPalette() []color.RGBA {
	palette := make([]color.RGBA, 32)
	for i := range palette {
		band := i & displayBandMask
		detected := i&displayDetectedBit != 0
		trapped := i&displayTrapsBit != 0
		palette[i] = toRGBA(paletteColorFor(band, detected, trapped))
	}
	return palette
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func paletteColorFor(band int, detected, trapped bool) color.NRGBA {
	base := color.NRGBA{R: 24, G: 28, B: 24, A: 255}
	if band > 0 {
		// Low populations render green, saturated ones red.
		t := float64(band-1) / 6
		base = blendColors(
			color.NRGBA{R: 60, G: 170, B: 60, A: 255},
			color.NRGBA{R: 200, G: 40, B: 30, A: 255},
			t)
	}
	if detected {
		base = blendColors(base, color.NRGBA{R: 70, G: 110, B: 230, A: 255}, 0.35)
	}
	if trapped {
		base = blendColors(base, color.NRGBA{R: 235, G: 220, B: 80, A: 255}, 0.2)
	}
	return base
}

func blendColors(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: 255,
	}
}

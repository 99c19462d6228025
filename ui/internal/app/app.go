package app

import (
	"image/color"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"spreadsim/internal/core"
	"spreadsim/ui/internal/hud"
	"spreadsim/ui/internal/render"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

type statsProvider interface {
	Stats() []string
}

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	panel   *hud.Panel
	palette []color.RGBA

	scale    int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, scale, panelWidth int, seed int64) *Game {
	g := &Game{
		sim:     sim,
		painter: render.NewGridPainter(sim.Size().W, sim.Size().H),
		panel:   hud.New(sim, panelWidth),
		scale:   scale,
		seed:    seed,
	}
	if provider, ok := sim.(core.PaletteProvider); ok {
		g.palette = provider.Palette()
	}
	g.syncPanel()
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame input and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}

	g.panel.Update(g.sim.Size().W * g.scale)

	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	g.syncPanel()
	return nil
}

// Draw renders the current simulation state and the control panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.palette, g.scale)
	size := g.sim.Size()
	g.panel.Draw(screen, size.W*g.scale, size.H*g.scale)
}

// Layout returns the logical screen size including the panel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.panel.Width(), s.H * g.scale
}

func (g *Game) syncPanel() {
	if provider, ok := g.sim.(parameterProvider); ok {
		snapshot := provider.Parameters()
		values := map[string]float64{}
		for _, group := range snapshot.Groups {
			for _, param := range group.Params {
				if v, err := strconv.ParseFloat(param.Value, 64); err == nil {
					values[param.Key] = v
				}
			}
		}
		g.panel.Sync(func(key string) (float64, bool) {
			v, ok := values[key]
			return v, ok
		})
	}
	if provider, ok := g.sim.(statsProvider); ok {
		g.panel.Stats = provider.Stats()
	}
}

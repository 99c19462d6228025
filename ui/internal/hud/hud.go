// Package hud renders the management control panel beside the simulation
// view: one row per declared parameter control with -/+ buttons, plus a
// footer of live run statistics.
package hud

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"spreadsim/internal/core"
)

const (
	panelPadding = 8
	lineHeight   = 22
	buttonSize   = 14
	buttonGap    = 6
	controlsTop  = 28
)

var (
	panelBG    = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	buttonBG   = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	textBright = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	textDim    = color.RGBA{R: 150, G: 150, B: 160, A: 255}
)

type controlRow struct {
	control core.ParameterControl
	value   float64
	label   string

	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// Panel draws and edits the management levers of a simulation.
type Panel struct {
	width  int
	rows   []controlRow
	setter core.FloatParameterSetter

	panel   *ebiten.Image
	pixel   *ebiten.Image
	height  int
	offsetX int

	// Stats lines rendered under the controls, refreshed by the caller.
	Stats []string
}

// New builds a panel for the sim's declared controls. A zero width disables
// the panel entirely.
func New(sim core.Sim, width int) *Panel {
	p := &Panel{width: width}
	if width <= 0 {
		return p
	}
	p.pixel = ebiten.NewImage(1, 1)
	p.pixel.Fill(color.White)

	provider, ok := sim.(core.ParameterControlsProvider)
	if !ok {
		return p
	}
	setter, ok := sim.(core.FloatParameterSetter)
	if !ok {
		return p
	}
	p.setter = setter
	for i, ctl := range provider.ParameterControls() {
		top := controlsTop + i*lineHeight
		buttonY := top + (lineHeight-buttonSize)/2
		plusX := width - panelPadding - buttonSize
		minusX := plusX - buttonGap - buttonSize
		p.rows = append(p.rows, controlRow{
			control:   ctl,
			value:     ctl.Min,
			minusRect: image.Rect(minusX, buttonY, minusX+buttonSize, buttonY+buttonSize),
			plusRect:  image.Rect(plusX, buttonY, plusX+buttonSize, buttonY+buttonSize),
		})
	}
	return p
}

// Width reports the configured panel width in pixels.
func (p *Panel) Width() int { return p.width }

// Sync pulls the current value of every control through the given lookup so
// the panel tracks external changes.
func (p *Panel) Sync(lookup func(key string) (float64, bool)) {
	for i := range p.rows {
		row := &p.rows[i]
		if v, ok := lookup(row.control.Key); ok {
			row.value = v
		}
		row.label = formatValue(row.control, row.value)
	}
}

// Update handles button clicks. offsetX is the panel's left edge on screen.
func (p *Panel) Update(offsetX int) {
	if p.width <= 0 || p.setter == nil {
		return
	}
	p.offsetX = offsetX
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - offsetX
	if px < 0 {
		return
	}
	for i := range p.rows {
		row := &p.rows[i]
		switch {
		case pointIn(px, my, row.minusRect):
			p.adjust(row, -1)
			return
		case pointIn(px, my, row.plusRect):
			p.adjust(row, 1)
			return
		}
	}
}

func (p *Panel) adjust(row *controlRow, direction int) {
	step := row.control.Step
	if step <= 0 {
		step = 1
	}
	target := row.value + float64(direction)*step
	if row.control.Type == core.ParamTypeInt {
		target = math.Round(target)
	}
	if row.control.HasMin && target < row.control.Min {
		target = row.control.Min
	}
	if row.control.HasMax && target > row.control.Max {
		target = row.control.Max
	}
	if target == row.value {
		return
	}
	if p.setter.SetFloatParameter(row.control.Key, target) {
		row.value = target
		row.label = formatValue(row.control, target)
	}
}

// Draw paints the panel anchored at offsetX with the given height.
func (p *Panel) Draw(screen *ebiten.Image, offsetX, height int) {
	if p.width <= 0 || height <= 0 {
		return
	}
	if p.panel == nil || p.height != height {
		p.panel = ebiten.NewImage(p.width, height)
		p.height = height
	}
	p.panel.Fill(panelBG)

	face := basicfont.Face7x13
	text.Draw(p.panel, "Management", face, panelPadding, panelPadding+10, textBright)

	for i := range p.rows {
		row := &p.rows[i]
		top := controlsTop + i*lineHeight
		text.Draw(p.panel, row.control.Label, face, panelPadding, top+13, textDim)
		bounds := text.BoundString(face, row.label)
		valueX := row.minusRect.Min.X - buttonGap - bounds.Dx()
		text.Draw(p.panel, row.label, face, valueX, top+13, textBright)
		p.drawButton(row.minusRect, "-")
		p.drawButton(row.plusRect, "+")
	}

	statsTop := controlsTop + len(p.rows)*lineHeight + lineHeight
	for i, line := range p.Stats {
		text.Draw(p.panel, line, face, panelPadding, statsTop+i*16, textDim)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(p.panel, op)
}

func (p *Panel) drawButton(rect image.Rectangle, label string) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorM.Scale(float64(buttonBG.R)/255, float64(buttonBG.G)/255, float64(buttonBG.B)/255, 1)
	p.panel.DrawImage(p.pixel, op)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()+bounds.Dy())/2
	text.Draw(p.panel, label, face, x, y, textBright)
}

func formatValue(ctl core.ParameterControl, v float64) string {
	if ctl.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pointIn(x, y int, r image.Rectangle) bool {
	return x >= r.Min.X && x < r.Max.X && y >= r.Min.Y && y < r.Max.Y
}

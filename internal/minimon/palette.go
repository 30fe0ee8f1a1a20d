package minimon

import (
	"image"
	"image/color"

	"github.com/thelolagemann/go-minimon/internal/types"
)

// PaletteStop is one gradient stop of a display palette. Offset is in
// [0,1]; the channel values are linear in [0,1].
type PaletteStop struct {
	Offset  float64
	R, G, B float64
}

// SetGrayscalePalette fills the palette with a plain dark-on-light
// ramp and linear blend weights, the sensible default before a host
// configures anything fancier.
func (m *Machine) SetGrayscalePalette() {
	for i := 0; i <= 0xFF; i++ {
		m.buffers.Palette[i] = 0x010101*uint32(i) ^ 0xFFFFFFFF
		m.buffers.Weights[i] = float32(i) / 255.0
	}
}

// SetPalette builds the 256-entry palette from gradient stops. Stops
// are extended to cover [0,1] if the ends are open.
func (m *Machine) SetPalette(stops []PaletteStop) {
	if len(stops) == 0 {
		m.SetGrayscalePalette()
		return
	}

	if stops[0].Offset > 0 {
		first := stops[0]
		first.Offset = 0
		stops = append([]PaletteStop{first}, stops...)
	}
	if stops[len(stops)-1].Offset < 1 {
		last := stops[len(stops)-1]
		last.Offset = 1
		stops = append(stops, last)
	}

	index := 0
	for i := 0; i <= 0xFF; i++ {
		offset := float64(i) / 255.0
		for offset > stops[index+1].Offset {
			index++
		}
		current, next := stops[index], stops[index+1]

		weight := (offset - current.Offset) / (next.Offset - current.Offset)
		r := next.R*weight + current.R*(1-weight)
		g := next.G*weight + current.G*(1-weight)
		b := next.B*weight + current.B*(1-weight)

		m.buffers.Palette[i] = 0xFF000000 |
			clampChannel(r) |
			clampChannel(g)<<8 |
			clampChannel(b)<<16
	}
}

func clampChannel(v float64) uint32 {
	c := uint32(v * 0x100)
	if c > 0xFF {
		c = 0xFF
	}
	return c
}

// SetBlendWeights derives the 256-entry weight table from the
// per-frame blend ratios of the 8 shift-register taps. Entry i sums
// the scaled weights of the frames whose bits are set in i.
func (m *Machine) SetBlendWeights(weights [8]float64) {
	ratio := 0.0
	for _, w := range weights {
		ratio += w
	}
	if ratio == 0 {
		ratio = 1.0
	}

	for i := range m.buffers.Weights {
		m.buffers.Weights[i] = 0
	}

	for b, mask := 0, 0x80; mask != 0; b, mask = b+1, mask>>1 {
		scaled := float32(weights[b] / ratio)
		for i := mask; i < 0x100; i = (i + 1) | mask {
			m.buffers.Weights[i] += scaled
		}
	}
}

// Screenshot renders the current framebuffer as an image.
func (m *Machine) Screenshot() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, types.LCDWidth, types.LCDHeight))
	for y := 0; y < types.LCDHeight; y++ {
		for x := 0; x < types.LCDWidth; x++ {
			px := m.buffers.Framebuffer[y][x]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(px),
				G: uint8(px >> 8),
				B: uint8(px >> 16),
				A: 0xFF,
			})
		}
	}
	return img
}

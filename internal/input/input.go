// Package input implements the key matrix unit: ten active-low pins
// with a per-pin interrupt polarity. An edge matching a pin's
// configured direction raises that pin's vector.
package input

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
)

// Pin bits of the input value as pushed by the host.
const (
	PinC uint16 = 1 << iota
	PinB
	PinA
	PinUp
	PinDown
	PinLeft
	PinRight
	PinPower
	PinShock
	// PinCartN is high while no cartridge is inserted.
	PinCartN
)

// vectors maps pin bit positions to interrupt vectors.
var vectors = [10]irq.Vector{
	irq.K00, irq.K01, irq.K02, irq.K03,
	irq.K04, irq.K05, irq.K06, irq.K07,
	irq.K10, irq.K11,
}

// Input is the key matrix state. The dejitter settings are stored and
// read back but not otherwise modelled.
type Input struct {
	interruptDirection uint16
	state              uint16

	dejitterK00K03 uint8
	dejitterK04K07 uint8
	dejitterK10K11 uint8

	irq *irq.Controller
}

// New returns an input unit with its registers attached to b.
func New(b *bus.Bus, ctl *irq.Controller) *Input {
	i := &Input{irq: ctl, state: 0b11_1111_1111}

	b.RegisterHardware(0x2050,
		func(v uint8) {
			i.interruptDirection = i.interruptDirection&0xFF00 | uint16(v)
		}, func() uint8 {
			return uint8(i.interruptDirection)
		},
	)
	b.RegisterHardware(0x2051,
		func(v uint8) {
			i.interruptDirection = i.interruptDirection&0x00FF | uint16(v&0b11)<<8
		}, func() uint8 {
			return uint8(i.interruptDirection >> 8)
		},
	)
	b.RegisterHardware(0x2052, nil, func() uint8 { return uint8(i.state) })
	b.RegisterHardware(0x2053, nil, func() uint8 { return uint8(i.state >> 8) })
	b.RegisterHardware(0x2054,
		func(v uint8) {
			i.dejitterK00K03 = v & 0b0111
			i.dejitterK04K07 = v >> 4 & 0b0111
		}, func() uint8 {
			return i.dejitterK04K07<<4 | i.dejitterK00K03
		},
	)
	b.RegisterHardware(0x2055,
		func(v uint8) {
			i.dejitterK10K11 = v & 0b0111
		}, func() uint8 {
			return i.dejitterK10K11
		},
	)

	return i
}

// Reset returns all pins to their released (high) state.
func (i *Input) Reset() {
	ctl := i.irq
	*i = Input{irq: ctl, state: 0b11_1111_1111}
}

// State returns the current pin state.
func (i *Input) State() uint16 { return i.state }

// Update pushes a new pin state. A pin whose level changed against
// its interrupt direction raises its vector.
func (i *Input) Update(value uint16) {
	trigger := (value ^ i.state) & (value ^ i.interruptDirection)
	i.state = value

	for bit, vec := range vectors {
		if trigger&(1<<bit) != 0 {
			i.irq.Trigger(vec)
		}
	}
}

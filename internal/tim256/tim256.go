// Package tim256 implements the 256 Hz prescaler chain: a 16-bit
// counter clocked by OSC1 whose divided outputs raise the 32 Hz,
// 8 Hz, 2 Hz and 1 Hz vectors and feed the counter register at
// 0x2041.
package tim256

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/types"
)

// TIM256 is the prescaler chain state. The raw value advances at the
// OSC1 rate; the 256 Hz counter visible to programs is value >> 7.
type TIM256 struct {
	running bool
	value   uint16

	irq *irq.Controller
}

// New returns a prescaler chain with its registers attached to b.
func New(b *bus.Bus, ctl *irq.Controller) *TIM256 {
	t := &TIM256{irq: ctl}

	b.RegisterHardware(0x2040,
		func(v uint8) {
			t.running = v&types.Bit0 != 0
			if v&types.Bit1 != 0 {
				t.value = 0
			}
		}, func() uint8 {
			if t.running {
				return types.Bit0
			}
			return 0
		},
	)
	b.RegisterHardware(0x2041, nil, func() uint8 {
		return uint8(t.value >> 7)
	})

	return t
}

// Reset stops and clears the chain.
func (t *TIM256) Reset() {
	t.running = false
	t.value = 0
}

// Counter returns the 256 Hz counter.
func (t *TIM256) Counter() uint8 { return uint8(t.value >> 7) }

// Clock advances the chain by osc1 OSC1 edges, raising the divided
// vectors as their bit boundaries are crossed.
func (t *TIM256) Clock(osc1 int) {
	if !t.running {
		return
	}
	for ; osc1 > 0; osc1-- {
		t.value++
		switch {
		case t.value%(types.OSC1Speed) == 0:
			t.irq.Trigger(irq.Hz1)
			fallthrough
		case t.value%(types.OSC1Speed/2) == 0:
			t.irq.Trigger(irq.Hz2)
			fallthrough
		case t.value%(types.OSC1Speed/8) == 0:
			t.irq.Trigger(irq.Hz8)
			fallthrough
		case t.value%(types.OSC1Speed/32) == 0:
			t.irq.Trigger(irq.Hz32)
		}
	}
}

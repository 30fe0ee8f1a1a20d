// Package rtc implements the real-time counter: a 16-bit prescaler
// clocked by OSC1 whose wrap advances a 32-bit counter. 0x2008 holds
// the run and reset bits; 0x2009-0x200B expose the counter's low 24
// bits, and its top byte is not readable on the bus.
package rtc

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/types"
)

// RTC is the real-time counter state.
type RTC struct {
	running  bool
	value    uint32
	prescale uint16
}

// New returns an RTC with its registers attached to b.
func New(b *bus.Bus) *RTC {
	r := &RTC{}

	b.RegisterHardware(0x2008,
		func(v uint8) {
			r.running = v&types.Bit0 != 0
			if v&types.Bit1 != 0 {
				r.value = 0
				r.prescale = 0
			}
		}, func() uint8 {
			if r.running {
				return types.Bit0
			}
			return 0
		},
	)
	for i := uint32(0); i < 3; i++ {
		shift := 8 * i
		b.RegisterHardware(0x2009+i, nil, func() uint8 {
			return uint8(r.value >> shift)
		})
	}

	return r
}

// Reset stops and clears the counter.
func (r *RTC) Reset() {
	*r = RTC{}
}

// Clock advances the prescaler by osc1 OSC1 edges.
func (r *RTC) Clock(osc1 int) {
	if !r.running {
		return
	}
	for ; osc1 > 0; osc1-- {
		r.prescale++
		if r.prescale == 0 {
			r.value++
		}
	}
}

// Value returns the 32-bit counter.
func (r *RTC) Value() uint32 { return r.value }

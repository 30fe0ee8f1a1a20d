// Package control implements the three system control bytes at
// 0x2000-0x2002 and the two gate predicates derived from them: the
// cartridge window enable and the LCD register enable.
package control

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/types"
)

// Control holds the raw control bytes. Only two bits have a decoded
// meaning; the rest are stored and read back as written.
type Control struct {
	data [3]uint8
}

// New returns a control unit with its registers attached to b.
func New(b *bus.Bus) *Control {
	c := &Control{}

	for i := uint32(0); i < 3; i++ {
		i := i
		b.RegisterHardware(0x2000+i,
			func(v uint8) { c.data[i] = v },
			func() uint8 { return c.data[i] },
		)
	}

	// 0x2010 reports the battery voltage comparator; a fixed "OK"
	// reading stands in for the sensor.
	b.RegisterHardware(0x2010, nil, func() uint8 { return 0b010000 })

	return c
}

// Reset clears the control bytes, disabling the cartridge window and
// the LCD registers until reprogrammed.
func (c *Control) Reset() {
	c.data = [3]uint8{}
}

// CartEnabled reports whether bus accesses at 0x002100 and above reach
// the cartridge.
func (c *Control) CartEnabled() bool {
	return c.data[0]&types.Bit1 != 0
}

// LCDEnabled reports whether the LCD command and data registers are
// reachable.
func (c *Control) LCDEnabled() bool {
	return c.data[0]&types.Bit2 != 0
}

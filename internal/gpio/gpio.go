package gpio

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/types"
)

const (
	// eepromData and eepromClock are the port bits wired to the
	// EEPROM's two-wire interface.
	eepromData  = types.Bit0
	eepromClock = types.Bit1
)

// GPIO is the I/O port: an output latch and a direction byte, with
// two bits routed to the EEPROM pins. All lines are open drain: a pin
// only drives the line low, and only while configured as an output.
type GPIO struct {
	output    uint8
	direction uint8
	misc      uint8

	EEPROM *EEPROM
}

// New returns a GPIO port with its registers attached to b.
func New(b *bus.Bus) *GPIO {
	g := &GPIO{EEPROM: NewEEPROM()}

	b.RegisterHardware(0x2060,
		func(v uint8) {
			g.direction = v
			g.syncPins()
		}, func() uint8 {
			return g.direction
		},
	)
	b.RegisterHardware(0x2061,
		func(v uint8) {
			g.output = v
			g.syncPins()
		}, func() uint8 {
			return g.readPort()
		},
	)
	b.RegisterHardware(0x2062,
		func(v uint8) { g.misc = v },
		func() uint8 { return g.misc },
	)

	return g
}

// Reset clears the port latches and floats the EEPROM pins. The
// EEPROM contents survive, as they would across a battery pull.
func (g *GPIO) Reset() {
	g.output = 0
	g.direction = 0
	g.misc = 0
	g.EEPROM.Reset()
}

// drive computes the controller-side level of an open-drain pin.
func (g *GPIO) drive(bit uint8) PinState {
	if g.direction&bit != 0 && g.output&bit == 0 {
		return PinReset
	}
	return PinFloat
}

// syncPins pushes the port state to the EEPROM. The data pin moves
// first so that a simultaneous write of both lines produces the
// START/STOP edge before the clock edge.
func (g *GPIO) syncPins() {
	g.EEPROM.SetDataPin(g.drive(eepromData))
	g.EEPROM.SetClockPin(g.drive(eepromClock))
}

// readPort folds the observed line levels of the EEPROM pins into the
// output latch; input pins with no driver read high.
func (g *GPIO) readPort() uint8 {
	v := g.output | ^g.direction

	v &^= eepromData | eepromClock
	if g.EEPROM.DataPin() {
		v |= eepromData
	}
	if g.EEPROM.ClockPin() {
		v |= eepromClock
	}
	return v
}

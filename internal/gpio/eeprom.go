// Package gpio implements the general purpose I/O port and the 8 KiB
// serial EEPROM wired to two of its pins. The EEPROM speaks a
// two-wire protocol at pin level: START/STOP conditions on the data
// line, MSB-first byte shifting on clock edges and an acknowledge bit
// after every byte.
package gpio

// PinState is the tri-valued level of an open-drain pin.
type PinState uint8

const (
	// PinFloat leaves the line pulled high.
	PinFloat PinState = iota
	// PinSet drives the line high. No driver in this machine ever
	// does; it exists to complete the pin model.
	PinSet
	// PinReset pulls the line low.
	PinReset
)

// Mode is the EEPROM protocol state.
type Mode uint8

const (
	ModeStop Mode = iota
	ModeSelect
	ModeAddressH
	ModeAddressL
	ModeWrite
	ModeRead
)

// EEPROM is the serial EEPROM state machine. Its 8 KiB store is the
// only machine state the host persists across sessions.
type EEPROM struct {
	data [0x2000]uint8

	dataIn  PinState
	dataOut PinState
	clockIn PinState

	address uint16
	mode    Mode
	shift   uint8
	bit     int8
}

// NewEEPROM returns an EEPROM with all pins floating.
func NewEEPROM() *EEPROM {
	e := &EEPROM{}
	e.Reset()
	return e
}

// Reset floats the pins and aborts any transfer in progress. The data
// store is deliberately untouched.
func (e *EEPROM) Reset() {
	e.dataIn = PinFloat
	e.dataOut = PinFloat
	e.clockIn = PinFloat
	e.mode = ModeStop
	e.shift = 0
	e.bit = 0
}

// Data exposes the backing store for host persistence.
func (e *EEPROM) Data() *[0x2000]uint8 { return &e.data }

// Address returns the current 13-bit word address.
func (e *EEPROM) Address() uint16 { return e.address }

// ClockPin returns the observed level of the clock line.
func (e *EEPROM) ClockPin() bool {
	return e.clockIn != PinReset
}

// DataPin returns the observed level of the data line: low whenever
// either the controller or the device pulls it low.
func (e *EEPROM) DataPin() bool {
	return e.dataIn != PinReset && e.dataOut != PinReset
}

// SetClockPin drives the controller side of the clock line. Rising
// edges shift the data line in; falling edges advance the bit counter
// and, on the ninth bit, interpret the shifted byte.
func (e *EEPROM) SetClockPin(clock PinState) {
	before := e.ClockPin()
	e.clockIn = clock
	now := e.ClockPin()

	if before == now {
		return
	}

	data := e.DataPin()

	if now {
		if e.bit == -1 && e.mode == ModeRead {
			if data {
				e.mode = ModeStop
			}
		} else {
			e.shift = e.shift<<1 | b2u(data)
		}
		return
	}

	e.bit++
	switch {
	case e.bit >= 0 && e.bit <= 7:
		if e.mode == ModeRead {
			if e.data[e.address]&(0x80>>uint(e.bit)) != 0 {
				e.dataOut = PinFloat
			} else {
				e.dataOut = PinReset
			}
		} else {
			e.dataOut = PinFloat
		}
	case e.bit == 8:
		e.acknowledge()
		e.bit = -1
	}
}

// acknowledge interprets the byte in the shift register according to
// the protocol state and drives the ack level on the data line.
func (e *EEPROM) acknowledge() {
	switch e.mode {
	case ModeStop:
		e.dataOut = PinFloat
	case ModeSelect:
		switch e.shift {
		case 0xA0:
			e.mode = ModeAddressH
			e.dataOut = PinReset
		case 0xA1:
			e.mode = ModeRead
			e.dataOut = PinReset
		default:
			e.mode = ModeStop
			e.dataOut = PinFloat
		}
	case ModeAddressH:
		e.address = uint16(e.shift) << 8 & 0x1FFF
		e.dataOut = PinReset
		e.mode = ModeAddressL
	case ModeAddressL:
		e.address |= uint16(e.shift)
		e.dataOut = PinReset
		e.mode = ModeWrite
	case ModeWrite:
		e.data[e.address] = e.shift
		e.address = (e.address + 1) & 0x1FFF
		e.dataOut = PinReset
	case ModeRead:
		e.address = (e.address + 1) & 0x1FFF
		e.dataOut = PinFloat
	}
}

// SetDataPin drives the controller side of the data line. While the
// clock is high, a falling edge is a START condition and a rising
// edge a STOP condition.
func (e *EEPROM) SetDataPin(data PinState) {
	clock := e.ClockPin()
	before := e.DataPin()
	e.dataIn = data
	now := e.DataPin()

	if !clock || before == now {
		return
	}

	if now {
		e.mode = ModeStop
		e.dataOut = PinFloat
	} else {
		e.mode = ModeSelect
		e.bit = -1
	}
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The helpers below play the controller side of the two-wire
// protocol: data changes while the clock is low, the device samples
// on the rising edge and the bit counter advances on the falling
// edge.

func start(e *EEPROM) {
	e.SetDataPin(PinFloat)
	e.SetClockPin(PinFloat)
	e.SetDataPin(PinReset)  // falling data, clock high: START
	e.SetClockPin(PinReset) // first falling edge arms bit 0
}

func stop(e *EEPROM) {
	e.SetDataPin(PinReset)
	e.SetClockPin(PinFloat)
	e.SetDataPin(PinFloat) // rising data, clock high: STOP
}

func writeBit(e *EEPROM, bit bool) {
	if bit {
		e.SetDataPin(PinFloat)
	} else {
		e.SetDataPin(PinReset)
	}
	e.SetClockPin(PinFloat)
	e.SetClockPin(PinReset)
}

// writeByte shifts one byte MSB first and returns true if the device
// acknowledged it.
func writeByte(e *EEPROM, v uint8) bool {
	for i := 7; i >= 0; i-- {
		writeBit(e, v&(1<<i) != 0)
	}

	// release the line and clock the ack bit
	e.SetDataPin(PinFloat)
	e.SetClockPin(PinFloat)
	ack := !e.DataPin()
	e.SetClockPin(PinReset)
	return ack
}

// readByte clocks eight bits out of the device, MSB first.
func readByte(e *EEPROM) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		if i > 0 {
			e.SetClockPin(PinFloat)
			e.SetClockPin(PinReset)
		}
		if e.DataPin() {
			v |= 0x80 >> i
		}
	}
	// final falling edge lands the ack slot
	e.SetClockPin(PinFloat)
	e.SetClockPin(PinReset)
	return v
}

func writeAt(e *EEPROM, address uint16, value uint8) bool {
	start(e)
	if !writeByte(e, 0xA0) {
		return false
	}
	if !writeByte(e, uint8(address>>8)) {
		return false
	}
	if !writeByte(e, uint8(address)) {
		return false
	}
	ok := writeByte(e, value)
	stop(e)
	return ok
}

func readAt(e *EEPROM, address uint16) uint8 {
	// a select/address phase with no data positions the pointer
	start(e)
	writeByte(e, 0xA0)
	writeByte(e, uint8(address>>8))
	writeByte(e, uint8(address))
	stop(e)

	start(e)
	// the ack slot of the select byte already exposes the first bit
	writeByte(e, 0xA1)
	v := readByte(e)
	stop(e)
	return v
}

func TestWriteReadRoundTrip(t *testing.T) {
	e := NewEEPROM()

	require.True(t, writeAt(e, 0x0123, 0x42))
	assert.Equal(t, uint8(0x42), e.Data()[0x0123])
	assert.Equal(t, uint8(0x42), readAt(e, 0x0123))
}

func TestSelectRejectsOtherDevices(t *testing.T) {
	e := NewEEPROM()

	start(e)
	assert.False(t, writeByte(e, 0x50))
	stop(e)
}

func TestSequentialWriteAdvancesAddress(t *testing.T) {
	e := NewEEPROM()

	start(e)
	require.True(t, writeByte(e, 0xA0))
	require.True(t, writeByte(e, 0x00))
	require.True(t, writeByte(e, 0x10))
	require.True(t, writeByte(e, 0xAA))
	require.True(t, writeByte(e, 0xBB))
	stop(e)

	assert.Equal(t, uint8(0xAA), e.Data()[0x10])
	assert.Equal(t, uint8(0xBB), e.Data()[0x11])
}

func TestAddressMasksToThirteenBits(t *testing.T) {
	e := NewEEPROM()

	require.True(t, writeAt(e, 0xFFFF, 0x77))
	assert.Equal(t, uint8(0x77), e.Data()[0x1FFF])
	assert.Equal(t, uint16(0x0000), e.Address())
}

func TestResetKeepsData(t *testing.T) {
	e := NewEEPROM()

	require.True(t, writeAt(e, 0x0001, 0x99))
	e.Reset()
	assert.Equal(t, uint8(0x99), e.Data()[0x0001])
}

func TestGPIORoutesPinsToEEPROM(t *testing.T) {
	g, b := testGPIO()

	// both pins as outputs, both lines high
	b.Write(0x2060, 0x03)
	b.Write(0x2061, 0x03)

	// data falls while clock is high: START
	b.Write(0x2061, 0x02)
	assert.Equal(t, ModeSelect, g.EEPROM.mode)

	// data rises while clock is high: STOP
	b.Write(0x2061, 0x03)
	assert.Equal(t, ModeStop, g.EEPROM.mode)
}

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testInput() (*Input, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	ctl := irq.New(b)
	return New(b, ctl), b
}

func TestEdgeAgainstDirectionRaisesVector(t *testing.T) {
	in, b := testInput()

	// a pin fires when it changes to the level opposite its
	// direction bit. Direction 0: only edges to 1 fire.
	in.Update(0x3FE)
	assert.Equal(t, uint16(0x3FE), in.State())
	assert.Equal(t, uint8(0), b.Read(0x2029))

	in.Update(0x3FF)
	// K00 pending: active register 2, bit 0
	assert.Equal(t, uint8(0b0000_0001), b.Read(0x2029))
}

func TestDirectionSelectsFallingEdge(t *testing.T) {
	in, b := testInput()

	// with the pin's direction bit set, the falling edge fires
	b.Write(0x2050, 0x01)
	in.Update(0x3FE)
	assert.Equal(t, uint8(0b0000_0001), b.Read(0x2029))

	b.Write(0x2029, 0xFF)
	in.Update(0x3FF)
	assert.Equal(t, uint8(0), b.Read(0x2029))
}

func TestHighPinsUseSecondRegister(t *testing.T) {
	in, b := testInput()

	// shock pin falling, with its direction bit selecting it
	b.Write(0x2051, 0x01)
	in.Update(0x3FF &^ PinShock)
	// K10 pending: active register 1, bit 0
	assert.Equal(t, uint8(0b0000_0001), b.Read(0x2028))
}

func TestStateRegistersReadBack(t *testing.T) {
	in, b := testInput()

	in.Update(0x2A5)
	assert.Equal(t, uint8(0xA5), b.Read(0x2052))
	assert.Equal(t, uint8(0x02), b.Read(0x2053))
}

func TestInterruptDirectionMasksHighBits(t *testing.T) {
	_, b := testInput()

	b.Write(0x2050, 0xFF)
	b.Write(0x2051, 0xFF)
	assert.Equal(t, uint8(0xFF), b.Read(0x2050))
	// only two pins exist in the high byte
	assert.Equal(t, uint8(0x03), b.Read(0x2051))
}

func TestDejitterStored(t *testing.T) {
	_, b := testInput()

	b.Write(0x2054, 0x75)
	assert.Equal(t, uint8(0x75), b.Read(0x2054))
	b.Write(0x2055, 0x05)
	assert.Equal(t, uint8(0x05), b.Read(0x2055))
}

func TestResetRestoresReleasedState(t *testing.T) {
	in, _ := testInput()

	in.Update(0)
	in.Reset()
	assert.Equal(t, uint16(0x3FF), in.State())
}

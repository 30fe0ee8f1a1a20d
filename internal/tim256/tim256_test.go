package tim256

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testTim256() (*TIM256, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	ctl := irq.New(b)
	return New(b, ctl), b
}

func TestStoppedChainDoesNotCount(t *testing.T) {
	tim, b := testTim256()

	tim.Clock(1000)
	assert.Equal(t, uint8(0), b.Read(0x2041))
}

func TestCounterRate(t *testing.T) {
	tim, b := testTim256()
	b.Write(0x2040, 0x01)

	// 128 OSC1 edges per 256 Hz increment
	tim.Clock(127)
	assert.Equal(t, uint8(0), b.Read(0x2041))
	tim.Clock(1)
	assert.Equal(t, uint8(1), b.Read(0x2041))

	// half a second
	tim.Clock(types.OSC1Speed/2 - 128)
	assert.Equal(t, uint8(128), b.Read(0x2041))
}

func TestDividedVectors(t *testing.T) {
	tim, b := testTim256()
	b.Write(0x2040, 0x01)

	tim.Clock(types.OSC1Speed / 32)
	assert.NotZero(t, b.Read(0x2028)&0b0010_0000, "32Hz")
	assert.Zero(t, b.Read(0x2028)&0b0001_0000, "8Hz")

	tim.Clock(types.OSC1Speed/8 - types.OSC1Speed/32)
	assert.NotZero(t, b.Read(0x2028)&0b0001_0000, "8Hz")
	assert.Zero(t, b.Read(0x2028)&0b0000_1000, "2Hz")

	tim.Clock(types.OSC1Speed - types.OSC1Speed/8)
	assert.NotZero(t, b.Read(0x2028)&0b0000_1000, "2Hz")
	assert.NotZero(t, b.Read(0x2028)&0b0000_0100, "1Hz")
}

func TestResetBitClearsValue(t *testing.T) {
	tim, b := testTim256()
	b.Write(0x2040, 0x01)

	tim.Clock(1000)
	b.Write(0x2040, 0x03)
	assert.Equal(t, uint8(0), b.Read(0x2041))
}

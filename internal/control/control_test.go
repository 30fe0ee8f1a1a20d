package control

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testControl() (*Control, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	return New(b), b
}

func TestGatesDisabledAtReset(t *testing.T) {
	c, _ := testControl()

	assert.False(t, c.CartEnabled())
	assert.False(t, c.LCDEnabled())
}

func TestGateBits(t *testing.T) {
	c, b := testControl()

	b.Write(0x2000, 0x02)
	assert.True(t, c.CartEnabled())
	assert.False(t, c.LCDEnabled())

	b.Write(0x2000, 0x06)
	assert.True(t, c.CartEnabled())
	assert.True(t, c.LCDEnabled())

	c.Reset()
	assert.False(t, c.CartEnabled())
}

func TestBytesStored(t *testing.T) {
	_, b := testControl()

	b.Write(0x2001, 0xAA)
	b.Write(0x2002, 0x55)
	assert.Equal(t, uint8(0xAA), b.Read(0x2001))
	assert.Equal(t, uint8(0x55), b.Read(0x2002))
}

func TestBatteryStatus(t *testing.T) {
	_, b := testControl()

	assert.Equal(t, uint8(0b010000), b.Read(0x2010))
}

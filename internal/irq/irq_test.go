package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testController() (*Controller, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	return New(b), b
}

func TestTriggerWithoutEnableStaysPending(t *testing.T) {
	c, b := testController()

	c.Trigger(Tim1)
	vec, _ := c.Next()
	assert.Equal(t, None, vec)

	// pending flag is visible even while masked
	assert.Equal(t, uint8(0b0000_1000), b.Read(0x2027))
}

func TestEnableExposesPending(t *testing.T) {
	c, b := testController()

	c.Trigger(Tim1)
	b.Write(0x2023, 0b0000_1000)

	vec, priority := c.Next()
	assert.Equal(t, Tim1, vec)
	assert.Equal(t, 0, priority)
}

func TestPriorityOrdering(t *testing.T) {
	c, b := testController()

	// blitter group at priority 1, timer 0 group at priority 3
	b.Write(0x2020, 0b0100_1100)
	b.Write(0x2023, 0xFF)

	c.Trigger(BltOverflow)
	c.Trigger(Tim0)

	vec, priority := c.Next()
	assert.Equal(t, Tim0, vec)
	assert.Equal(t, 3, priority)

	c.Acknowledge(Tim0)
	vec, priority = c.Next()
	assert.Equal(t, BltOverflow, vec)
	assert.Equal(t, 1, priority)
}

func TestTieResolvesToLowerVector(t *testing.T) {
	c, b := testController()

	b.Write(0x2020, 0b1111_1111)
	b.Write(0x2023, 0xFF)

	c.Trigger(Tim0) // 0x08
	c.Trigger(Tim3) // 0x05

	vec, _ := c.Next()
	assert.Equal(t, Tim3, vec)
}

func TestActiveWriteOneToClear(t *testing.T) {
	c, b := testController()

	c.Trigger(BltCopy)
	c.Trigger(BltOverflow)
	assert.Equal(t, uint8(0b1100_0000), b.Read(0x2027))

	b.Write(0x2027, 0b1000_0000)
	assert.Equal(t, uint8(0b0100_0000), b.Read(0x2027))
}

func TestPriorityRegisterReadsBack(t *testing.T) {
	_, b := testController()

	b.Write(0x2021, 0xA5)
	assert.Equal(t, uint8(0xA5), b.Read(0x2021))
}

func TestResetClearsEverything(t *testing.T) {
	c, b := testController()

	b.Write(0x2023, 0xFF)
	c.Trigger(Tim5)
	c.Reset()

	vec, _ := c.Next()
	assert.Equal(t, None, vec)
	assert.Equal(t, uint8(0), b.Read(0x2023))
	assert.Equal(t, uint8(0), b.Read(0x2027))
}

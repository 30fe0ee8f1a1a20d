package rtc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testRTC() (*RTC, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	return New(b), b
}

func TestPrescalerWrapAdvancesCounter(t *testing.T) {
	r, b := testRTC()
	b.Write(0x2008, 0x01)

	r.Clock(0xFFFF)
	assert.Equal(t, uint32(0), r.Value())
	r.Clock(1)
	assert.Equal(t, uint32(1), r.Value())
	assert.Equal(t, uint8(1), b.Read(0x2009))
}

func TestValueBytes(t *testing.T) {
	r, b := testRTC()
	b.Write(0x2008, 0x01)

	for i := 0; i < 0x123; i++ {
		r.Clock(0x10000)
	}
	assert.Equal(t, uint8(0x23), b.Read(0x2009))
	assert.Equal(t, uint8(0x01), b.Read(0x200A))
	assert.Equal(t, uint8(0x00), b.Read(0x200B))
}

func TestStoppedCounterHolds(t *testing.T) {
	r, _ := testRTC()

	r.Clock(0x20000)
	assert.Equal(t, uint32(0), r.Value())
}

func TestResetBit(t *testing.T) {
	r, b := testRTC()
	b.Write(0x2008, 0x01)

	r.Clock(0x10000)
	assert.Equal(t, uint32(1), r.Value())

	b.Write(0x2008, 0x03)
	assert.Equal(t, uint32(0), r.Value())
	assert.Equal(t, uint8(0x01), b.Read(0x2008))
}

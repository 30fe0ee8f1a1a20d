package timers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

func testTimers() (*Timers, *irq.Controller, *bus.Bus) {
	b := bus.New(&types.Buffers{}, trace.NewNop(), log.NewNullLogger())
	ctl := irq.New(b)
	return New(b, ctl), ctl, b
}

func active(b *bus.Bus, reg uint32) uint8 {
	return b.Read(reg)
}

func TestSixteenBitUnderflow(t *testing.T) {
	tims, _, b := testTimers()

	// timer 0: 16-bit, preset 2, OSC3 source, ratio 0 (shift 1)
	b.Write(0x2018, 0x08) // lo clock ctrl, ratio 0
	b.Write(0x2019, 0x20) // osc3 enable, source osc3
	b.Write(0x2032, 0x02) // preset lo
	b.Write(0x2033, 0x00) // preset hi
	b.Write(0x2030, 0x84) // mode16 + running, reloads count

	assert.Equal(t, uint8(0x02), b.Read(0x2036))

	// 4 osc3 cycles = 2 ticks: count 2 -> 0
	tims.Clock(0, 4)
	assert.Equal(t, uint8(0x00), b.Read(0x2036))
	assert.Equal(t, uint8(0), active(b, 0x2027)&0b0000_1000)

	// 2 more ticks: 0 - 2 = -2, wraps by preset+1 until positive
	tims.Clock(0, 4)
	assert.Equal(t, uint8(0x01), b.Read(0x2036))
	// hi underflow vector of timer 0
	assert.NotZero(t, active(b, 0x2027)&0b0000_1000)
}

func TestEightBitHalvesAreIndependent(t *testing.T) {
	tims, _, b := testTimers()

	b.Write(0x2018, 0x88) // both halves enabled, ratio 0
	b.Write(0x2019, 0x20) // osc3 enable, both sources osc3
	b.Write(0x2032, 0x03) // lo preset
	b.Write(0x2033, 0x07) // hi preset
	b.Write(0x2030, 0x06) // lo running + reload
	b.Write(0x2031, 0x06) // hi running + reload

	assert.Equal(t, uint8(0x03), b.Read(0x2036))
	assert.Equal(t, uint8(0x07), b.Read(0x2037))

	// 8 osc3 cycles = 4 ticks each: lo 3 -> -1 -> wraps to 3,
	// hi 7 -> 3
	tims.Clock(0, 8)
	assert.Equal(t, uint8(0x03), b.Read(0x2036))
	assert.Equal(t, uint8(0x03), b.Read(0x2037))

	// lo underflow raised, hi did not
	assert.NotZero(t, active(b, 0x2027)&0b0000_0100) // Tim0
	assert.Zero(t, active(b, 0x2027)&0b0000_1000)    // Tim1
}

func TestPrescaleAccumulatorCarriesRemainder(t *testing.T) {
	tims, _, b := testTimers()

	// ratio 1 on OSC3 selects shift 3: one tick per 8 cycles
	b.Write(0x2018, 0x09)
	b.Write(0x2019, 0x20)
	b.Write(0x2032, 0xFF)
	b.Write(0x2030, 0x86)

	// 3 + 3 + 3 cycles: a tick lands on the 8th cycle, inside the
	// third call
	tims.Clock(0, 3)
	tims.Clock(0, 3)
	assert.Equal(t, uint8(0xFF), b.Read(0x2036))
	tims.Clock(0, 3)
	assert.Equal(t, uint8(0xFE), b.Read(0x2036))
}

func TestOSC1Source(t *testing.T) {
	tims, _, b := testTimers()

	b.Write(0x2018, 0x08) // ratio 0 (osc1 shift 0)
	b.Write(0x2019, 0x31) // both oscillators on, lo source osc1
	b.Write(0x2032, 0x10)
	b.Write(0x2030, 0x86)

	tims.Clock(4, 0)
	assert.Equal(t, uint8(0x0C), b.Read(0x2036))
}

func TestOscillatorDisableGates(t *testing.T) {
	tims, _, b := testTimers()

	b.Write(0x2018, 0x08)
	b.Write(0x2019, 0x00) // osc3 disabled
	b.Write(0x2032, 0x10)
	b.Write(0x2030, 0x86)

	tims.Clock(0, 100)
	assert.Equal(t, uint8(0x10), b.Read(0x2036))
}

func TestCompareRaisesTimer2Vector(t *testing.T) {
	tims, _, b := testTimers()

	// timer 2: 16-bit, preset 0x10, compare 0x08
	b.Write(0x201C, 0x08)
	b.Write(0x201D, 0x00)
	b.Write(0x2019, 0x20)
	b.Write(0x204A, 0x10) // preset lo
	b.Write(0x204C, 0x08) // compare lo
	b.Write(0x2048, 0x84) // mode16 + running, reload

	// count 0x10, compare 0x08: 8 ticks = 16 osc3 at shift 1 reach it
	tims.Clock(0, 16)
	assert.Equal(t, uint8(0x08), b.Read(0x204E))
	assert.Zero(t, active(b, 0x2027)&0b0000_0001)

	// passing the compare value raises the vector
	tims.Clock(0, 2)
	assert.NotZero(t, active(b, 0x2027)&0b0000_0001) // Tim5Cmp
}

func TestPresetReloadOnFlagWrite(t *testing.T) {
	tims, _, b := testTimers()

	b.Write(0x2018, 0x08)
	b.Write(0x2019, 0x20)
	b.Write(0x2032, 0x40)
	b.Write(0x2030, 0x86)

	tims.Clock(0, 8)
	assert.Equal(t, uint8(0x3C), b.Read(0x2036))

	// the preset-trigger bit reloads the counter
	b.Write(0x2030, 0x06)
	assert.Equal(t, uint8(0x40), b.Read(0x2036))
}

func TestTimer2LowTracksCompare(t *testing.T) {
	tims, _, b := testTimers()

	b.Write(0x204A, 0x10)
	b.Write(0x204C, 0x20)
	b.Write(0x2048, 0x84) // reload: count = 0x10 < compare 0x20
	assert.True(t, tims.Timer2Low())

	b.Write(0x204C, 0x05)
	assert.False(t, tims.Timer2Low())
}

func TestScaleRegisterReadsBack(t *testing.T) {
	_, _, b := testTimers()

	b.Write(0x2018, 0xB5)
	assert.Equal(t, uint8(0xB5), b.Read(0x2018))

	b.Write(0x2019, 0x33)
	assert.Equal(t, uint8(0x33), b.Read(0x2019))
}

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

type stubPulse struct{ low bool }

func (s stubPulse) Timer2Low() bool { return s.low }

func testAudio(pulse Pulse) (*Audio, *bus.Bus, *types.Buffers) {
	buffers := &types.Buffers{}
	b := bus.New(buffers, trace.NewNop(), log.NewNullLogger())
	return New(b, buffers, pulse), b, buffers
}

func TestSampleEmitTiming(t *testing.T) {
	a, b, buffers := testAudio(stubPulse{low: false})
	a.SetSampleRate(22050)
	b.Write(0x2071, 0b011)

	// 181 OSC3 cycles at a time: 181 * 22050 is just shy of OSC3,
	// the second call crosses it
	a.Clock(181)
	assert.Equal(t, 0, a.writeIndex)

	a.Clock(181)
	assert.Equal(t, 1, a.writeIndex)
	assert.Equal(t, float32(1.0), buffers.Audio[0])
}

func TestVolumeLevels(t *testing.T) {
	for _, tc := range []struct {
		volume uint8
		want   float32
	}{
		{0b000, 0.0},
		{0b100, 0.0},
		{0b001, 0.5},
		{0b010, 0.5},
		{0b101, 0.5},
		{0b110, 0.5},
		{0b011, 1.0},
		{0b111, 1.0},
	} {
		a, b, _ := testAudio(stubPulse{low: false})
		b.Write(0x2071, tc.volume)
		assert.Equal(t, tc.want, a.sample(), "volume %03b", tc.volume)
	}
}

func TestPulseLowNegatesSample(t *testing.T) {
	a, b, _ := testAudio(stubPulse{low: true})
	b.Write(0x2071, 0b011)

	assert.Equal(t, float32(-1.0), a.sample())
}

func TestEnableSilencesOutput(t *testing.T) {
	a, b, _ := testAudio(stubPulse{low: false})
	b.Write(0x2070, 0b001)
	b.Write(0x2071, 0b011)

	assert.Equal(t, float32(0.0), a.sample())
}

func TestRingBufferWrapNotifiesHost(t *testing.T) {
	a, _, _ := testAudio(stubPulse{low: false})
	a.SetSampleRate(types.OSC3Speed) // one sample per OSC3 cycle

	pushes := 0
	a.SetPushCallback(func(samples []float32) {
		pushes++
		assert.Len(t, samples, types.AudioBufferLength)
	})

	a.Clock(types.AudioBufferLength)
	assert.Equal(t, 1, pushes)
	assert.Equal(t, 0, a.writeIndex)
}

func TestRegistersMaskToThreeBits(t *testing.T) {
	_, b, _ := testAudio(stubPulse{})

	b.Write(0x2070, 0xFF)
	b.Write(0x2071, 0xFF)
	assert.Equal(t, uint8(0b111), b.Read(0x2070))
	assert.Equal(t, uint8(0b111), b.Read(0x2071))
}

// Package audio implements the PWM audio channel. Timer 2 shapes the
// waveform: the compare register sets the duty pivot and the 3-bit
// volume register selects the amplitude. Samples are produced at the
// host rate with an integer error accumulator and written into the
// shared ring buffer.
package audio

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/types"
)

// Pulse reports whether the timer driving the channel is currently
// below its compare value (the low half of the PWM wave).
type Pulse interface {
	Timer2Low() bool
}

// Audio is the channel state.
type Audio struct {
	volume uint8
	enable uint8

	writeIndex  int
	sampleRate  int
	sampleError int

	buffers *types.Buffers
	pulse   Pulse
	onPush  func([]float32)
}

// New returns an audio channel with its registers attached to b.
func New(b *bus.Bus, buffers *types.Buffers, pulse Pulse) *Audio {
	a := &Audio{buffers: buffers, pulse: pulse, onPush: func([]float32) {}}

	b.RegisterHardware(0x2070,
		func(v uint8) { a.enable = v & 0b111 },
		func() uint8 { return a.enable },
	)
	b.RegisterHardware(0x2071,
		func(v uint8) { a.volume = v & 0b111 },
		func() uint8 { return a.volume },
	)

	return a
}

// Reset silences the channel and rewinds the ring buffer.
func (a *Audio) Reset() {
	a.enable = 0
	a.volume = 0
	a.writeIndex = 0
	a.sampleError = 0
}

// SetSampleRate sets the host sample rate in Hz.
func (a *Audio) SetSampleRate(rate int) {
	a.sampleRate = rate
}

// SetPushCallback attaches the callback fired each time the ring
// buffer wraps. A nil callback disables the notification.
func (a *Audio) SetPushCallback(f func([]float32)) {
	if f == nil {
		f = func([]float32) {}
	}
	a.onPush = f
}

// Clock advances the sampler by osc3 OSC3 cycles, emitting however
// many host samples elapsed.
func (a *Audio) Clock(osc3 int) {
	a.sampleError += osc3 * a.sampleRate

	for a.sampleError >= types.OSC3Speed {
		a.buffers.Audio[a.writeIndex] = a.sample()
		a.writeIndex++

		if a.writeIndex >= types.AudioBufferLength {
			a.onPush(a.buffers.Audio[:])
			a.writeIndex = 0
		}

		a.sampleError -= types.OSC3Speed
	}
}

// sample computes the current output level.
func (a *Audio) sample() float32 {
	if a.enable != 0 {
		return 0
	}

	var volume float32
	switch a.volume {
	case 0b000, 0b100:
		volume = 0.0
	case 0b011, 0b111:
		volume = 1.0
	default:
		volume = 0.5
	}

	if a.pulse.Timer2Low() {
		volume = -volume
	}
	return volume
}

// Package timers implements the three programmable timers. Each
// timer is two 8-bit down-counting halves that can fuse into one
// 16-bit counter, with per-half prescale ratio, clock enable and
// clock source (OSC1 or OSC3). Underflows and the timer 2 compare
// match raise interrupt vectors.
package timers

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
)

// prescaleOSC1 and prescaleOSC3 map the 3-bit ratio field to the
// power-of-two shift applied to the shared prescale accumulator of
// the selected oscillator.
var (
	prescaleOSC1 = [8]int{0, 1, 2, 3, 4, 5, 6, 7}
	prescaleOSC3 = [8]int{1, 3, 5, 6, 7, 8, 10, 12}
)

// vectors lists the IRQ vectors of each timer: lo underflow, hi
// underflow and lo compare. irq.None marks a missing source.
var vectors = [3]struct {
	loUnderflow irq.Vector
	hiUnderflow irq.Vector
	loCompare   irq.Vector
}{
	{irq.Tim0, irq.Tim1, irq.None},
	{irq.Tim2, irq.Tim3, irq.None},
	{irq.None, irq.Tim5, irq.Tim5Cmp},
}

// Timer is a single timer instance. The 16-bit preset, compare and
// count fields hold both 8-bit halves; the byte views used by the
// register file go through the half accessors rather than punning.
type Timer struct {
	loInput   bool
	loRunning bool
	loOutput  bool
	mode16    bool

	hiInput   bool
	hiRunning bool
	hiOutput  bool

	preset  uint16
	compare uint16
	count   uint16

	loClockRatio  int
	loClockCtrl   bool
	loClockSource bool // true selects OSC1

	hiClockRatio  int
	hiClockCtrl   bool
	hiClockSource bool
}

// Timers is the timer block: three timers sharing one prescale
// accumulator per oscillator.
type Timers struct {
	timer [3]Timer

	osc1Enable bool
	osc3Enable bool

	osc1Prescale uint32
	osc3Prescale uint32

	irq *irq.Controller
}

// New returns a timer block with its registers attached to b.
func New(b *bus.Bus, ctl *irq.Controller) *Timers {
	t := &Timers{irq: ctl}
	t.registerScaleRegs(b)
	t.registerDataRegs(b)
	return t
}

// Reset clears all timer state including the prescale accumulators.
func (t *Timers) Reset() {
	ctl := t.irq
	*t = Timers{irq: ctl}
}

// Timer2Low reports whether timer 2 counts below its compare value,
// which determines the sign of the audio output.
func (t *Timers) Timer2Low() bool {
	return t.timer[2].count < t.timer[2].compare
}

// ticks converts the oscillator counts of this step into timer ticks
// for one half, folding in the shared prescale remainder so no edges
// are lost across calls.
func (t *Timers) ticks(source bool, ctrl bool, ratio, osc1, osc3 int) int {
	if !ctrl {
		return 0
	}
	if source {
		adjust := prescaleOSC1[ratio&0b111]
		mask := uint32(1)<<adjust - 1
		return int((t.osc1Prescale&mask + uint32(osc1)) >> adjust)
	}
	adjust := prescaleOSC3[ratio&0b111]
	mask := uint32(1)<<adjust - 1
	return int((t.osc3Prescale&mask + uint32(osc3)) >> adjust)
}

// checkCompare raises vec when the counter passed the compare value
// during this step. count is the pre-tick value.
func (t *Timers) checkCompare(vec irq.Vector, ticks, compare, preset, count int) {
	if vec == irq.None || compare > preset {
		return
	}
	compareTicks := count - compare
	if compareTicks < 0 {
		compareTicks += preset + 1
	}
	if compareTicks < ticks {
		t.irq.Trigger(vec)
	}
}

func (t *Timers) processTimer(i, osc1, osc3 int) {
	tim := &t.timer[i]
	vec := &vectors[i]

	if tim.mode16 {
		if !tim.loRunning {
			return
		}

		adv := t.ticks(tim.loClockSource, tim.loClockCtrl, tim.loClockRatio, osc1, osc3)
		count := int(tim.count) - adv

		if count < 0 {
			t.irq.Trigger(vec.hiUnderflow)
			for count < 0 {
				count += int(tim.preset) + 1
			}
		}

		t.checkCompare(vec.loCompare, adv, int(tim.compare), int(tim.preset), int(tim.count))

		tim.count = uint16(count)
		return
	}

	if tim.loRunning {
		adv := t.ticks(tim.loClockSource, tim.loClockCtrl, tim.loClockRatio, osc1, osc3)
		count := int(tim.count&0xFF) - adv

		if count < 0 {
			t.irq.Trigger(vec.loUnderflow)
			for count < 0 {
				count += int(tim.preset&0xFF) + 1
			}
		}

		t.checkCompare(vec.loCompare, adv, int(tim.compare&0xFF), int(tim.preset&0xFF), int(tim.count&0xFF))

		tim.count = tim.count&0xFF00 | uint16(count)
	}

	if tim.hiRunning {
		adv := t.ticks(tim.hiClockSource, tim.hiClockCtrl, tim.hiClockRatio, osc1, osc3)
		count := int(tim.count>>8) - adv

		if count < 0 {
			t.irq.Trigger(vec.hiUnderflow)
			for count < 0 {
				count += int(tim.preset>>8) + 1
			}
		}

		tim.count = tim.count&0x00FF | uint16(count)<<8
	}
}

// Clock advances all timers by the oscillator counts of this step.
// The shared prescale accumulators advance after the timers have
// consumed them.
func (t *Timers) Clock(osc1, osc3 int) {
	if !t.osc1Enable {
		osc1 = 0
	}
	if !t.osc3Enable {
		osc3 = 0
	}

	for i := range t.timer {
		t.processTimer(i, osc1, osc3)
	}

	t.osc1Prescale += uint32(osc1)
	t.osc3Prescale += uint32(osc3)
}

package timers

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
)

// dataBase holds the base address of each timer's flag/data block.
// Timer 2 sits apart from the first two, above the 256 Hz registers.
var dataBase = [3]uint32{0x2030, 0x2038, 0x2048}

func (t *Timers) registerScaleRegs(b *bus.Bus) {
	for i := range t.timer {
		i := i
		tim := &t.timer[i]

		// prescale ratio / clock control
		b.RegisterHardware(0x2018+uint32(i)*2,
			func(v uint8) {
				tim.loClockRatio = int(v) & 0b0111
				tim.loClockCtrl = v&0b1000 != 0
				tim.hiClockRatio = int(v>>4) & 0b0111
				tim.hiClockCtrl = v&0b10000000 != 0
			}, func() uint8 {
				v := uint8(tim.loClockRatio) | uint8(tim.hiClockRatio)<<4
				if tim.loClockCtrl {
					v |= 0b0000_1000
				}
				if tim.hiClockCtrl {
					v |= 0b1000_0000
				}
				return v
			},
		)

		// clock source select; the timer 0 register also carries the
		// oscillator enables
		b.RegisterHardware(0x2019+uint32(i)*2,
			func(v uint8) {
				if i == 0 {
					t.osc3Enable = v&0b0010_0000 != 0
					t.osc1Enable = v&0b0001_0000 != 0
				}
				tim.loClockSource = v&0b01 != 0
				tim.hiClockSource = v&0b10 != 0
			}, func() uint8 {
				var v uint8
				if i == 0 {
					if t.osc3Enable {
						v |= 0b0010_0000
					}
					if t.osc1Enable {
						v |= 0b0001_0000
					}
				}
				if tim.loClockSource {
					v |= 0b01
				}
				if tim.hiClockSource {
					v |= 0b10
				}
				return v
			},
		)
	}

	t.registerFlagRegs(b)
}

func (t *Timers) registerFlagRegs(b *bus.Bus) {
	for i := range t.timer {
		tim := &t.timer[i]
		base := dataBase[i]

		b.RegisterHardware(base,
			func(v uint8) { tim.setFlagsLo(v) },
			func() uint8 { return tim.flagsLo() },
		)
		b.RegisterHardware(base+1,
			func(v uint8) { tim.setFlagsHi(v) },
			func() uint8 { return tim.flagsHi() },
		)
	}
}

func (t *Timers) registerDataRegs(b *bus.Bus) {
	for i := range t.timer {
		tim := &t.timer[i]
		base := dataBase[i]

		b.RegisterHardware(base+2,
			func(v uint8) { tim.preset = tim.preset&0xFF00 | uint16(v) },
			func() uint8 { return uint8(tim.preset) },
		)
		b.RegisterHardware(base+3,
			func(v uint8) { tim.preset = tim.preset&0x00FF | uint16(v)<<8 },
			func() uint8 { return uint8(tim.preset >> 8) },
		)
		b.RegisterHardware(base+4,
			func(v uint8) { tim.compare = tim.compare&0xFF00 | uint16(v) },
			func() uint8 { return uint8(tim.compare) },
		)
		b.RegisterHardware(base+5,
			func(v uint8) { tim.compare = tim.compare&0x00FF | uint16(v)<<8 },
			func() uint8 { return uint8(tim.compare >> 8) },
		)
		b.RegisterHardware(base+6, nil,
			func() uint8 { return uint8(tim.count) },
		)
		b.RegisterHardware(base+7, nil,
			func() uint8 { return uint8(tim.count >> 8) },
		)
	}
}

func (tim *Timer) flagsLo() uint8 {
	var v uint8
	if tim.loInput {
		v |= 0b0000_0001
	}
	if tim.loRunning {
		v |= 0b0000_0100
	}
	if tim.loOutput {
		v |= 0b0000_1000
	}
	if tim.mode16 {
		v |= 0b1000_0000
	}
	return v
}

func (tim *Timer) flagsHi() uint8 {
	var v uint8
	if tim.hiInput {
		v |= 0b0000_0001
	}
	if tim.hiRunning {
		v |= 0b0000_0100
	}
	if tim.hiOutput {
		v |= 0b0000_1000
	}
	return v
}

// setFlagsLo stores the low half control flags. Writing with the
// preset-trigger bit (0x02) or the 16-bit mode bit (0x80) set reloads
// the counter from its preset.
func (tim *Timer) setFlagsLo(data uint8) {
	tim.loInput = data&0b0000_0001 != 0
	tim.loRunning = data&0b0000_0100 != 0
	tim.loOutput = data&0b0000_1000 != 0
	tim.mode16 = data&0b1000_0000 != 0

	if data&0b1000_0010 != 0 {
		if tim.mode16 {
			tim.count = tim.preset
		} else {
			tim.count = tim.count&0xFF00 | tim.preset&0x00FF
		}
	}
}

func (tim *Timer) setFlagsHi(data uint8) {
	tim.hiInput = data&0b0000_0001 != 0
	tim.hiRunning = data&0b0000_0100 != 0
	tim.hiOutput = data&0b0000_1000 != 0

	if data&0b1000_0010 != 0 && !tim.mode16 {
		tim.count = tim.count&0x00FF | tim.preset&0xFF00
	}
}

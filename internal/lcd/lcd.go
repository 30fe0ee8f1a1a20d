// Package lcd implements the display controller: 9 pages of 132
// column bytes of GDDRAM, the command decoder on the command port and
// the scanline-timed shift-register pipeline that produces the
// grayscale framebuffer.
package lcd

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

const (
	// CommandPort and DataPort are the two bus addresses of the
	// controller. Access to both is gated by the LCD enable bit.
	CommandPort = 0x20FE
	DataPort    = 0x20FF

	maxColumn = 0x83
)

// LCD is the display controller state.
type LCD struct {
	gddram [9][132]uint8

	readBuffer    uint8
	volume        uint8
	columnAddress uint8
	pageAddress   uint8
	startAddress  uint8

	rmwMode         bool
	adcSelect       bool
	settingVolume   bool
	displayEnable   bool
	reverseDisplay  bool
	allOn           bool
	reverseCOMScan  bool
	staticIndicator bool
	lcdBias         bool

	resistorRatio uint8
	operatingMode uint8
	scanline      uint8

	overflow int

	// volume takes effect at the next frame boundary, matching the
	// panel's charge pump settling.
	latchedVolume uint8

	buffers  *types.Buffers
	frameEnd func()
	logger   log.Logger
}

// New returns an LCD with its two ports attached to b. The enabled
// predicate gates register access; a disabled controller reads back
// the bus capacitance and swallows writes.
func New(b *bus.Bus, buffers *types.Buffers, enabled func() bool, logger log.Logger) *LCD {
	l := &LCD{buffers: buffers, frameEnd: func() {}, logger: logger}

	for _, port := range []uint32{CommandPort, DataPort} {
		port := port
		b.RegisterHardware(port,
			func(v uint8) {
				if enabled() {
					l.Write(port, v)
				}
			}, func() uint8 {
				if !enabled() {
					return b.Cap()
				}
				return l.Read(port)
			},
		)
	}

	return l
}

// AttachFrameEnd installs the callback invoked on every blanking
// line, after the framebuffer has been rendered. The blitter hangs
// off this hook.
func (l *LCD) AttachFrameEnd(f func()) { l.frameEnd = f }

// Reset clears the whole controller including GDDRAM.
func (l *LCD) Reset() {
	buffers, frameEnd, logger := l.buffers, l.frameEnd, l.logger
	*l = LCD{buffers: buffers, frameEnd: frameEnd, logger: logger}
}

// Scanline returns the current scanline as exposed to programs
// (1-based).
func (l *LCD) Scanline() uint8 { return l.scanline + 1 }

// Clock advances the scanline clock by osc3 OSC3 cycles, rendering
// shift-plane lines as scanlines elapse and the framebuffer on the
// blanking line.
func (l *LCD) Clock(osc3 int) {
	l.overflow += osc3 * types.LCDSpeed

	for l.overflow >= types.OSC3Speed {
		l.scanline++
		if l.scanline > 0x40 {
			l.scanline = 0
		}

		if l.scanline < 0x40 {
			l.renderLine(l.scanline)
		} else {
			l.renderFrame()
			l.frameEnd()
			l.latchedVolume = l.volume
		}

		l.overflow -= types.OSC3Speed
	}
}

// renderLine shifts one scanline of pixels into the grayscale shift
// plane.
func (l *LCD) renderLine(com uint8) {
	row := com
	if l.reverseCOMScan {
		row = 63 - com
	}
	line := &l.buffers.LCDShift[row]

	if !l.displayEnable {
		for x := range line {
			line[x] >>= 1
		}
		return
	}
	if l.allOn {
		for x := range line {
			line[x] = line[x]>>1 | 0x80
		}
		return
	}

	drawline := (int(com) + int(l.startAddress)) % 0x40
	mask := uint8(1) << (drawline % 8)
	page := &l.gddram[drawline/8]

	for x := 0; x < types.LCDWidth; x++ {
		column := x
		if l.adcSelect {
			column = 131 - x
		}
		var in uint8
		if page[column]&mask != 0 {
			in = 0x80
		}
		line[x] = line[x]>>1 | in
	}
}

// renderFrame maps the shift plane through the weight table and the
// volume-derived contrast range into the 32-bit framebuffer.
func (l *LCD) renderFrame() {
	volume := l.latchedVolume

	var lo float32
	if volume > 0x20 {
		lo = float32(volume-0x20) / 31.0
	}
	hi := float32(1.0)
	if volume < 0x20 {
		hi = float32(volume) / 31.0
	}
	span := hi - lo

	for y := 0; y < types.LCDHeight; y++ {
		for x := 0; x < types.LCDWidth; x++ {
			weight := l.buffers.Weights[l.buffers.LCDShift[y][x]]*span + lo
			color := int(256.0 * weight)
			if color > 0xFF {
				color = 0xFF
			}
			l.buffers.Framebuffer[y][x] = l.buffers.Palette[color]
		}
	}
}

// Read services the data port: it returns the buffered byte and
// advances the column cursor unless in read-modify-write mode. The
// command port has no readable status.
func (l *LCD) Read(address uint32) uint8 {
	if address == CommandPort {
		l.logger.Debugf("lcd: read display status")
		return 0
	}

	data := l.gddram[l.pageAddress][l.columnAddress]
	if l.columnAddress < maxColumn && !l.rmwMode {
		l.columnAddress++
	}
	return data
}

// Write services both ports. Command bytes decode by value; data
// bytes store into GDDRAM at the page/column cursor.
func (l *LCD) Write(address uint32, data uint8) {
	l.readBuffer = data

	if l.settingVolume {
		l.volume = data & 0x3F
		l.settingVolume = false
		return
	}

	if address == CommandPort {
		l.command(data)
		return
	}

	if l.pageAddress >= 8 {
		// the ninth page drives the static indicator row and keeps
		// only the low bit
		data &= 1
	}
	l.gddram[l.pageAddress][l.columnAddress] = data
	if l.columnAddress < maxColumn {
		l.columnAddress++
	}
}

func (l *LCD) command(data uint8) {
	switch {
	case data == 0b1010_1110 || data == 0b1010_1111:
		l.displayEnable = data&1 != 0
	case data >= 0b0100_0000 && data <= 0b0111_1111:
		l.startAddress = data & 0b11_1111
	case data <= 0b0000_1111:
		l.columnAddress = l.columnAddress&0xF0 | data&0xF
		l.clampColumn()
	case data >= 0b0001_0000 && data <= 0b0001_1111:
		l.columnAddress = l.columnAddress&0x0F | data<<4
		l.clampColumn()
	case data >= 0b0010_0000 && data <= 0b0010_0111:
		l.resistorRatio = data & 0b111
	case data >= 0b0010_1000 && data <= 0b0010_1111:
		l.operatingMode = data & 0b111
	case data >= 0b1011_0000 && data <= 0b1011_1111:
		l.pageAddress = data & 0xF
		if l.pageAddress > 8 {
			l.pageAddress = 8
		}
	case data == 0b1010_0000 || data == 0b1010_0001:
		l.adcSelect = data&1 != 0
	case data == 0b1010_0110 || data == 0b1010_0111:
		l.reverseDisplay = data&1 != 0
	case data == 0b1010_0100 || data == 0b1010_0101:
		l.allOn = data&1 != 0
	case data == 0b1010_0010 || data == 0b1010_0011:
		l.lcdBias = data&1 != 0
	case data == 0b1010_1100 || data == 0b1010_1101:
		l.staticIndicator = data&1 != 0
	case data == 0b1110_0000:
		l.rmwMode = true
	case data == 0b1110_1110:
		l.rmwMode = false
	case data >= 0b1100_0000 && data <= 0b1100_1111:
		l.reverseCOMScan = data&8 != 0
	case data == 0b1000_0001:
		l.settingVolume = true
	case data == 0b1110_0011:
		// NOP
	default:
		l.logger.Debugf("lcd: unknown command %08b", data)
	}
}

func (l *LCD) clampColumn() {
	if l.columnAddress > maxColumn {
		l.columnAddress = maxColumn
	}
}

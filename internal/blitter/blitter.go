// Package blitter implements the tile/sprite compositor. Once per
// LCD frame (divided down by the frame divider) it renders the
// scrollable tile map and the 24 OAM sprites into the overlay
// framebuffer at the bottom of RAM, then optionally streams the
// result to the LCD through the regular command sequence.
package blitter

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/lcd"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
)

const (
	screenWidth  = 96
	screenHeight = 64

	// overlay layout at the bottom of RAM
	overlayFramebuffer = 0x000 // 8 rows * 96 columns
	overlayOAM         = 0x300 // 24 entries * 4 bytes
	overlayMap         = 0x360 // 384 tile indices
)

type mapSize struct {
	width  int
	height int
}

var mapSizes = [4]mapSize{
	{12, 16},
	{16, 12},
	{24, 8},
	{24, 16},
}

var frameDividers = [8]uint8{
	3, 6, 9, 12,
	2, 4, 6, 8,
}

// bitMask narrows register writes to their implemented bits before
// storing, indexed by the low nibble of the address.
var bitMask = [11]uint8{
	0b0011_1111,
	0b0000_1111,
	0b1111_1000,
	0b1111_1111,
	0b0001_1111,
	0b0111_1111,
	0b0111_1111,
	0b1100_0000,
	0b1111_1111,
	0b0001_1111,
	0b0000_0000,
}

// Blitter is the compositor state. map base and sprite base are
// 24-bit bus addresses stored as single integers; the register file
// reads and writes them bytewise.
type Blitter struct {
	lcdInit       bool
	invertMap     bool
	enableMap     bool
	enableSprites bool
	enableCopy    bool
	mapSize       uint8
	frameDivider  uint8
	frameCount    uint8

	mapBase    uint32
	spriteBase uint32

	scrollX uint8
	scrollY uint8

	divider uint8

	bus *bus.Bus
	lcd *lcd.LCD
	irq *irq.Controller
}

// New returns a blitter with its registers attached to b. Tile and
// sprite fetches go through the bus (and trace as such); the overlay
// is addressed directly through the shared RAM array.
func New(b *bus.Bus, display *lcd.LCD, ctl *irq.Controller) *Blitter {
	bl := &Blitter{bus: b, lcd: display, irq: ctl}

	for addr := uint32(0x2080); addr <= 0x208A; addr++ {
		addr := addr
		b.RegisterHardware(addr,
			func(v uint8) { bl.writeRegister(addr, v) },
			func() uint8 { return bl.readRegister(addr) },
		)
	}
	// 0x208B-0x208F and 0x20F0-0x20F8 behave as reserved blitter
	// registers: writes are dropped, reads return zero.
	for addr := uint32(0x208B); addr <= 0x208F; addr++ {
		b.RegisterHardware(addr, func(uint8) {}, func() uint8 { return 0 })
	}
	for addr := uint32(0x20F0); addr <= 0x20F8; addr++ {
		b.RegisterHardware(addr, func(uint8) {}, func() uint8 { return 0 })
	}

	return bl
}

// Reset clears the compositor registers. The overlay lives in RAM and
// is cleared with it.
func (bl *Blitter) Reset() {
	b, display, ctl := bl.bus, bl.lcd, bl.irq
	*bl = Blitter{bus: b, lcd: display, irq: ctl}
}

// shift shifts a column left by offset bits, or right for negative
// offsets.
func shift(value uint64, offset int) uint64 {
	if offset < 0 {
		return value >> uint(-offset)
	}
	return value << uint(offset)
}

// rev reverses the bit order of a 16-bit word, flipping a sprite
// column vertically.
func rev(a uint16) uint16 {
	a = a&0b1010101010101010>>1 | a&0b0101010101010101<<1
	a = a&0b1100110011001100>>2 | a&0b0011001100110011<<2
	a = a&0b1111000011110000>>4 | a&0b0000111100001111<<4
	return a>>8 | a<<8
}

// Clock runs one compositor pass if the frame divider has elapsed.
// It is invoked by the LCD on every blanking line.
func (bl *Blitter) Clock() {
	bl.divider++
	if bl.divider < frameDividers[bl.frameDivider] {
		return
	}
	bl.divider = 0
	bl.frameCount = (bl.frameCount + 1) & 0xF

	ram := bl.bus.RAM()

	var target [screenWidth]uint64

	if bl.enableMap {
		bl.renderMap(ram, &target)
	} else {
		for x := 0; x < screenWidth; x++ {
			var column uint64
			for y := 0; y < 8; y++ {
				column |= uint64(ram[overlayFramebuffer+y*screenWidth+x]) << (8 * y)
			}
			target[x] = column
		}
	}

	if bl.enableSprites {
		bl.renderSprites(ram, &target)
	}

	// store the composed columns back through the overlay
	for x := 0; x < screenWidth; x++ {
		for y := 0; y < 8; y++ {
			ram[overlayFramebuffer+y*screenWidth+x] = uint8(target[x] >> (8 * y))
		}
	}

	if bl.enableCopy {
		bl.irq.Trigger(irq.BltCopy)

		a := 0
		for page := 0; page < 8; page++ {
			bl.lcd.Write(lcd.CommandPort, 0b1011_0000|uint8(page))
			bl.lcd.Write(lcd.CommandPort, 0b0000_0000)
			bl.lcd.Write(lcd.CommandPort, 0b0001_0000)
			for x := 0; x < screenWidth; x++ {
				bl.lcd.Write(lcd.DataPort, ram[a])
				a++
			}
		}
	}

	bl.irq.Trigger(irq.BltOverflow)
}

func (bl *Blitter) renderMap(ram *[types.RAMSize]uint8, target *[screenWidth]uint64) {
	size := mapSizes[bl.mapSize]

	dx := int(bl.scrollX)
	if max := size.width*8 - screenWidth; dx > max {
		dx = max
	}
	dy := int(bl.scrollY)
	if max := size.height*8 - screenHeight; dy > max {
		dy = max
	}

	yFine := dy % 8
	yTile := dy / 8 * size.width

	for x := 0; x < screenWidth; x, dx = x+1, dx+1 {
		xFine := dx % 8
		address := yTile + dx/8

		var column uint64
		for y := -yFine; y < screenHeight; y, address = y+8, address+size.width {
			tile := ram[overlayMap+address]
			graphic := bl.bus.Read8(bl.mapBase+uint32(xFine)+uint32(tile)*8, trace.TileData)
			column |= shift(uint64(graphic), y)
		}
		target[x] = column
	}

	if bl.invertMap {
		for x := range target {
			target[x] = ^target[x]
		}
	}
}

func (bl *Blitter) renderSprites(ram *[types.RAMSize]uint8, target *[screenWidth]uint64) {
	// descending so the lowest OAM entry is composed last and wins
	for i := 23; i >= 0; i-- {
		oam := ram[overlayOAM+i*4 : overlayOAM+i*4+4]
		flags := oam[3]
		if flags&0b1000 == 0 {
			continue
		}

		spriteX := int(oam[0] & 0x7F)
		spriteY := int(oam[1] & 0x7F)
		tile := uint32(oam[2])
		xflip := flags&0b0001 != 0
		yflip := flags&0b0010 != 0
		inverted := flags&0b0100 != 0

		address := bl.spriteBase + tile*64
		dx := spriteX - 16
		dy := spriteY - 16

		if dy <= -16 || dy >= screenHeight {
			continue
		}

		// flipping horizontally swaps the two 8-pixel halves and
		// reverses the byte order within each quad
		var invert uint32
		if xflip {
			invert = 0b0100111
		}

		for s := 0; s < 2; s++ {
			for x := 0; x < 8; x, address, dx = x+1, address+1, dx+1 {
				if dx >= screenWidth {
					break
				}
				if dx < 0 {
					continue
				}

				fetch := address ^ invert
				mask := uint16(bl.bus.Read8(fetch, trace.SpriteData)) |
					uint16(bl.bus.Read8(fetch+8, trace.SpriteData))<<8
				draw := uint16(bl.bus.Read8(fetch+16, trace.SpriteData)) |
					uint16(bl.bus.Read8(fetch+24, trace.SpriteData))<<8

				if yflip {
					mask = rev(mask)
					draw = rev(draw)
				}
				if inverted {
					draw = ^draw
				}

				mask = ^mask
				target[dx] &^= shift(uint64(mask), dy)
				target[dx] |= shift(uint64(draw&mask), dy)
			}

			address += 24
		}
	}
}

func (bl *Blitter) readRegister(address uint32) uint8 {
	switch address {
	case 0x2080:
		var v uint8
		if bl.invertMap {
			v |= 0b0001
		}
		if bl.enableMap {
			v |= 0b0010
		}
		if bl.enableSprites {
			v |= 0b0100
		}
		if bl.enableCopy {
			v |= 0b1000
		}
		return v | bl.mapSize<<4
	case 0x2081:
		v := bl.frameDivider<<1 | bl.frameCount<<4
		if bl.lcdInit {
			v |= 1
		}
		return v
	case 0x2082, 0x2083, 0x2084:
		return uint8(bl.mapBase >> (8 * (address - 0x2082)))
	case 0x2085:
		return bl.scrollY
	case 0x2086:
		return bl.scrollX
	case 0x2087, 0x2088, 0x2089:
		return uint8(bl.spriteBase >> (8 * (address - 0x2087)))
	case 0x208A:
		return bl.lcd.Scanline()
	default:
		return 0
	}
}

func (bl *Blitter) writeRegister(address uint32, data uint8) {
	data &= bitMask[address&0xF]

	switch address {
	case 0x2080:
		bl.invertMap = data&0b0001 != 0
		bl.enableMap = data&0b0010 != 0
		bl.enableSprites = data&0b0100 != 0
		bl.enableCopy = data&0b1000 != 0
		bl.mapSize = data >> 4 & 0b11
	case 0x2081:
		bl.lcdInit = data&1 != 0
		bl.frameDivider = data >> 1 & 0b111
	case 0x2082, 0x2083, 0x2084:
		sh := 8 * (address - 0x2082)
		bl.mapBase = bl.mapBase&^(0xFF<<sh) | uint32(data)<<sh
	case 0x2085:
		bl.scrollY = data
	case 0x2086:
		bl.scrollX = data
	case 0x2087, 0x2088, 0x2089:
		sh := 8 * (address - 0x2087)
		bl.spriteBase = bl.spriteBase&^(0xFF<<sh) | uint32(data)<<sh
	}
}

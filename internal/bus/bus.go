// Package bus implements the shared 24-bit memory bus: the address
// decoder routing accesses to BIOS, RAM, the register file and the
// cartridge window, the bus capacitance byte returned for unmapped
// reads, and the traced 8/16-bit access helpers used by the CPU core
// and the blitter.
package bus

import (
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

// Bus owns the RAM, the register file and the routing of every byte
// moved on the bus. The low 0x4E0 bytes of RAM are aliased as the
// blitter overlay; both sides address the same backing array.
type Bus struct {
	buffers *types.Buffers
	ram     [types.RAMSize]uint8

	registers [0x100]*hardwareRegister

	// cap holds the last byte transported on the bus. Reads from
	// unmapped or disabled regions return it.
	cap uint8

	cartEnabled func() bool
	tracer      trace.Sink
	logger      log.Logger
}

// New returns a bus over the given buffers. The cartridge gate is
// attached later, once the control unit exists.
func New(buffers *types.Buffers, tracer trace.Sink, logger log.Logger) *Bus {
	return &Bus{
		buffers:     buffers,
		cartEnabled: func() bool { return false },
		tracer:      tracer,
		logger:      logger,
	}
}

// AttachCartGate installs the control-unit predicate that gates the
// cartridge window.
func (b *Bus) AttachCartGate(enabled func() bool) {
	b.cartEnabled = enabled
}

// Reset clears RAM and the bus capacitance. Register state is owned
// by the peripherals and reset there.
func (b *Bus) Reset() {
	b.ram = [types.RAMSize]uint8{}
	b.cap = 0
}

// RAM exposes the internal RAM backing array. The first 0x4E0 bytes
// are the blitter overlay.
func (b *Bus) RAM() *[types.RAMSize]uint8 { return &b.ram }

// Cap returns the last byte transported on the bus.
func (b *Bus) Cap() uint8 { return b.cap }

// Read performs an untraced read, updating the bus capacitance with
// the observed byte.
func (b *Bus) Read(address uint32) uint8 {
	switch {
	case address <= 0x0FFF:
		b.cap = b.buffers.BIOS[address]
	case address <= 0x1FFF:
		b.cap = b.ram[address&0xFFF]
	case address <= 0x20FF:
		b.cap = b.readRegister(address)
	case b.cartEnabled():
		b.cap = b.buffers.Cartridge[address%types.CartridgeSize]
	}
	return b.cap
}

// Write performs an untraced write. Writes to the BIOS are discarded
// and cartridge writes are no-ops, but every write still updates the
// bus capacitance.
func (b *Bus) Write(address uint32, data uint8) {
	b.cap = data

	switch {
	case address >= 0x1000 && address <= 0x1FFF:
		b.ram[address&0xFFF] = data
	case address >= 0x2000 && address <= 0x20FF:
		b.writeRegister(address, data)
	}
}

// Read8 reads one byte and reports the access to the trace sink.
func (b *Bus) Read8(address uint32, kind trace.Kind) uint8 {
	b.cap = b.Read(address)
	b.tracer.Access(address, kind|trace.Read)
	return b.cap
}

// Write8 writes one byte and reports the access to the trace sink.
func (b *Bus) Write8(address uint32, data uint8, kind trace.Kind) {
	b.tracer.Access(address, kind|trace.Write)
	b.cap = data
	b.Write(address, data)
}

// Read16 reads a little-endian word. The increment to the high byte
// wraps within the 64 KiB bank: the bank byte does not carry.
func (b *Bus) Read16(address uint32, kind trace.Kind) uint16 {
	lo := b.Read8(address, kind|trace.WordLo)
	address = (address+1)&0xFFFF | (address & 0xFF0000)
	return uint16(b.Read8(address, kind|trace.WordHi))<<8 | uint16(lo)
}

// Write16 writes a little-endian word with the same bank-wrapping
// rule as Read16.
func (b *Bus) Write16(address uint32, data uint16, kind trace.Kind) {
	b.Write8(address, uint8(data), kind|trace.WordLo)
	address = (address+1)&0xFFFF | (address & 0xFF0000)
	b.Write8(address, uint8(data>>8), kind|trace.WordHi)
}

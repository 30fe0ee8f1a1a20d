// Package cpu holds the S1C88 register bank and the memory access
// helpers the instruction core uses. The instruction decoder and
// executor themselves are external collaborators: anything that
// implements Executor can drive the machine.
package cpu

import (
	"github.com/thelolagemann/go-minimon/internal/trace"
)

// Executor advances the instruction core by one instruction and
// returns the number of CPU cycles it consumed.
type Executor interface {
	Advance() int
}

// Idle is the built-in executor used when no instruction core is
// attached. It burns one cycle per step, which keeps the peripheral
// clocks honest for tests and headless tools.
type Idle struct{}

func (Idle) Advance() int { return 1 }

// Memory is the bus surface the register helpers need.
type Memory interface {
	Read8(address uint32, kind trace.Kind) uint8
	Write8(address uint32, data uint8, kind trace.Kind)
	Read16(address uint32, kind trace.Kind) uint16
	Write16(address uint32, data uint16, kind trace.Kind)
}

// Flags is the CPU flag group: the status flags, the 2-bit interrupt
// mask level and the four user flags.
type Flags struct {
	Z, C, V, N, D, U bool
	I                uint8

	F0, F1, F2, F3 bool
}

// Registers is the S1C88 register bank. The 8-bit accumulators are
// stored as their 16-bit pairs; the byte halves are accessed through
// the getter/setter methods rather than by memory punning.
type Registers struct {
	Flag Flags

	BA uint16
	HL uint16

	PC uint16
	SP uint16
	IX uint16
	IY uint16

	BR uint8
	EP uint8
	XP uint8
	YP uint8

	CB uint8
	NB uint8
}

func (r *Registers) A() uint8     { return uint8(r.BA) }
func (r *Registers) B() uint8     { return uint8(r.BA >> 8) }
func (r *Registers) L() uint8     { return uint8(r.HL) }
func (r *Registers) H() uint8     { return uint8(r.HL >> 8) }
func (r *Registers) SetA(v uint8) { r.BA = r.BA&0xFF00 | uint16(v) }
func (r *Registers) SetB(v uint8) { r.BA = r.BA&0x00FF | uint16(v)<<8 }
func (r *Registers) SetL(v uint8) { r.HL = r.HL&0xFF00 | uint16(v) }
func (r *Registers) SetH(v uint8) { r.HL = r.HL&0x00FF | uint16(v)<<8 }

// SC packs the flag group into the status byte.
func (r *Registers) SC() uint8 {
	var data uint8
	if r.Flag.Z {
		data |= 0b000001
	}
	if r.Flag.C {
		data |= 0b000010
	}
	if r.Flag.V {
		data |= 0b000100
	}
	if r.Flag.N {
		data |= 0b001000
	}
	if r.Flag.D {
		data |= 0b010000
	}
	if r.Flag.U {
		data |= 0b100000
	}
	return data | (r.Flag.I&0b11)<<6
}

// SetSC unpacks the status byte into the flag group.
func (r *Registers) SetSC(data uint8) {
	r.Flag.Z = data&0b000001 != 0
	r.Flag.C = data&0b000010 != 0
	r.Flag.V = data&0b000100 != 0
	r.Flag.N = data&0b001000 != 0
	r.Flag.D = data&0b010000 != 0
	r.Flag.U = data&0b100000 != 0
	r.Flag.I = data >> 6
}

// EffectivePC computes the 24-bit fetch address: when bit 15 of PC is
// set the code bank supplies the upper bits, otherwise the low 32 KiB
// is addressed directly.
func (r *Registers) EffectivePC() uint32 {
	if r.PC&0x8000 != 0 {
		return uint32(r.CB)<<15 | uint32(r.PC&0x7FFF)
	}
	return uint32(r.PC)
}

// Imm8 fetches the byte at PC and advances it.
func (r *Registers) Imm8(m Memory, kind trace.Kind) uint8 {
	address := r.EffectivePC()
	r.PC++
	return m.Read8(address, kind|trace.Immediate)
}

// Imm16 fetches a little-endian word at PC.
func (r *Registers) Imm16(m Memory, kind trace.Kind) uint16 {
	lo := r.Imm8(m, kind|trace.WordLo)
	return uint16(r.Imm8(m, kind|trace.WordHi))<<8 | uint16(lo)
}

func (r *Registers) Push8(m Memory, v uint8, kind trace.Kind) {
	r.SP--
	m.Write8(uint32(r.SP), v, kind|trace.Stack)
}

func (r *Registers) Pop8(m Memory, kind trace.Kind) uint8 {
	v := m.Read8(uint32(r.SP), kind|trace.Stack)
	r.SP++
	return v
}

func (r *Registers) Push16(m Memory, v uint16, kind trace.Kind) {
	r.Push8(m, uint8(v>>8), kind|trace.WordHi)
	r.Push8(m, uint8(v), kind|trace.WordLo)
}

func (r *Registers) Pop16(m Memory, kind trace.Kind) uint16 {
	lo := r.Pop8(m, kind|trace.WordLo)
	return uint16(r.Pop8(m, kind|trace.WordHi))<<8 | uint16(lo)
}

// Package irq implements the interrupt controller. It tracks the
// per-vector enable and active bits, resolves the 2-bit priority
// group of every vector and caches the highest pending vector so the
// machine can sample it at the start of each CPU step.
package irq

import (
	"github.com/thelolagemann/go-minimon/internal/bus"
)

// Vector is a numbered interrupt source. Its value doubles as the
// index of its entry in the vector table (at address 2*Vector).
type Vector int8

const (
	// None marks an absent vector, e.g. a half-timer with no
	// underflow source attached.
	None Vector = -1

	Reset    Vector = 0x00
	DivZero  Vector = 0x01
	Watchdog Vector = 0x02

	BltCopy     Vector = 0x03
	BltOverflow Vector = 0x04

	Tim3    Vector = 0x05 // timer 1 hi underflow
	Tim2    Vector = 0x06 // timer 1 lo underflow
	Tim1    Vector = 0x07 // timer 0 hi underflow
	Tim0    Vector = 0x08 // timer 0 lo underflow
	Tim5    Vector = 0x09 // timer 2 underflow
	Tim5Cmp Vector = 0x0A // timer 2 compare

	Hz32 Vector = 0x0B
	Hz8  Vector = 0x0C
	Hz2  Vector = 0x0D
	Hz1  Vector = 0x0E

	K11 Vector = 0x0F
	K10 Vector = 0x10

	Unknown1  Vector = 0x11
	Unknown2  Vector = 0x12
	CartEject Vector = 0x13
	Cartridge Vector = 0x14

	K00 Vector = 0x15
	K01 Vector = 0x16
	K02 Vector = 0x17
	K03 Vector = 0x18
	K04 Vector = 0x19
	K05 Vector = 0x1A
	K06 Vector = 0x1B
	K07 Vector = 0x1C

	Unknown3 Vector = 0x1D
	Unknown4 Vector = 0x1E
	Unknown5 Vector = 0x1F

	// TotalVectors is the number of hardware vectors.
	TotalVectors = 0x20
)

// priorityGroups maps each priority register bit-pair to the vectors
// it governs. Group order matters only through the register layout.
var priorityGroups = []struct {
	register uint8 // 0..2, offset from 0x2020
	shift    uint8
	first    Vector
	last     Vector
}{
	{0, 6, BltCopy, BltOverflow},
	{0, 4, Tim3, Tim2},
	{0, 2, Tim1, Tim0},
	{0, 0, Tim5, Tim5Cmp},
	{1, 6, Hz32, Hz1},
	{1, 4, K11, K10},
	{1, 2, CartEject, Cartridge},
	{1, 0, K00, K07},
	{2, 0, Unknown3, Unknown5},
}

// maskBits maps each enable/active register bit to a vector. Offsets
// are relative to the enable block (0x2023); the active block at
// 0x2027 shares the layout.
var maskBits = []struct {
	register uint8 // 0..3
	bit      uint8
	vector   Vector
}{
	{0, 7, BltCopy}, {0, 6, BltOverflow},
	{0, 5, Tim3}, {0, 4, Tim2},
	{0, 3, Tim1}, {0, 2, Tim0},
	{0, 1, Tim5}, {0, 0, Tim5Cmp},

	{1, 5, Hz32}, {1, 4, Hz8}, {1, 3, Hz2}, {1, 2, Hz1},
	{1, 1, K11}, {1, 0, K10},

	{2, 0, K00}, {2, 1, K01}, {2, 2, K02}, {2, 3, K03},
	{2, 4, K04}, {2, 5, K05}, {2, 6, K06}, {2, 7, K07},

	{3, 7, CartEject}, {3, 6, Cartridge},
	{3, 2, Unknown3}, {3, 1, Unknown4}, {3, 0, Unknown5},
}

// Controller is the interrupt controller. Peripherals raise vectors
// with Trigger; the machine polls Next at the start of each step and
// acknowledges the dispatched vector with Acknowledge.
type Controller struct {
	enable   [TotalVectors]bool
	active   [TotalVectors]bool
	priority [3]uint8 // raw priority register bytes

	nextPriority int
	nextVector   Vector
}

// New returns a controller with its registers attached to b.
func New(b *bus.Bus) *Controller {
	c := &Controller{}

	for i := uint32(0); i < 3; i++ {
		i := i
		b.RegisterHardware(0x2020+i,
			func(v uint8) {
				c.priority[i] = v
				c.refresh()
			}, func() uint8 {
				return c.priority[i]
			},
		)
	}
	for i := uint32(0); i < 4; i++ {
		i := i
		b.RegisterHardware(0x2023+i,
			func(v uint8) {
				c.writeMask(c.enable[:], uint8(i), v, false)
			}, func() uint8 {
				return c.readMask(c.enable[:], uint8(i))
			},
		)
		// active flags are write-one-to-clear
		b.RegisterHardware(0x2027+i,
			func(v uint8) {
				c.writeMask(c.active[:], uint8(i), v, true)
			}, func() uint8 {
				return c.readMask(c.active[:], uint8(i))
			},
		)
	}

	return c
}

// Reset clears all enables, pending bits and priorities.
func (c *Controller) Reset() {
	*c = Controller{}
	c.refresh()
}

// Trigger marks the vector active. The enable and priority gates are
// applied when the machine samples Next, not here.
func (c *Controller) Trigger(v Vector) {
	if v <= Watchdog || int(v) >= TotalVectors {
		return
	}
	c.active[v] = true
	c.refresh()
}

// Acknowledge clears the active bit of a dispatched vector.
func (c *Controller) Acknowledge(v Vector) {
	if v < 0 || int(v) >= TotalVectors {
		return
	}
	c.active[v] = false
	c.refresh()
}

// Next returns the cached highest-priority pending vector and its
// 2-bit priority level, or (None, 0) if no enabled vector is pending.
func (c *Controller) Next() (Vector, int) {
	return c.nextVector, c.nextPriority
}

// Priority returns the 2-bit priority level of a vector.
func (c *Controller) Priority(v Vector) int {
	for _, g := range priorityGroups {
		if v >= g.first && v <= g.last {
			return int(c.priority[g.register]>>g.shift) & 0b11
		}
	}
	return 0
}

// refresh recomputes the cached next pair: among all enabled and
// active vectors pick the highest priority, ties resolving to the
// lower vector number.
func (c *Controller) refresh() {
	c.nextVector = None
	c.nextPriority = 0

	for v := Vector(0); int(v) < TotalVectors; v++ {
		if !c.enable[v] || !c.active[v] {
			continue
		}
		if p := c.Priority(v); p > c.nextPriority || c.nextVector == None {
			c.nextVector = v
			c.nextPriority = p
		}
	}
}

func (c *Controller) readMask(bits []bool, reg uint8) uint8 {
	var v uint8
	for _, m := range maskBits {
		if m.register == reg && bits[m.vector] {
			v |= 1 << m.bit
		}
	}
	return v
}

func (c *Controller) writeMask(bits []bool, reg uint8, v uint8, clear bool) {
	for _, m := range maskBits {
		if m.register != reg {
			continue
		}
		set := v&(1<<m.bit) != 0
		if clear {
			// writing 1 clears the pending flag
			if set {
				bits[m.vector] = false
			}
		} else {
			bits[m.vector] = set
		}
	}
	c.refresh()
}

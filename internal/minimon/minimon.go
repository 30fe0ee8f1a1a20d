// Package minimon wires the peripherals to the bus and drives them
// from the machine clock. It is the main entry point for hosts: build
// a Machine, load a BIOS and cartridge, then call Advance with the
// OSC3 (4 MHz) cycles to run.
package minimon

import (
	"github.com/thelolagemann/go-minimon/internal/audio"
	"github.com/thelolagemann/go-minimon/internal/blitter"
	"github.com/thelolagemann/go-minimon/internal/bus"
	"github.com/thelolagemann/go-minimon/internal/control"
	"github.com/thelolagemann/go-minimon/internal/cpu"
	"github.com/thelolagemann/go-minimon/internal/gpio"
	"github.com/thelolagemann/go-minimon/internal/input"
	"github.com/thelolagemann/go-minimon/internal/irq"
	"github.com/thelolagemann/go-minimon/internal/lcd"
	"github.com/thelolagemann/go-minimon/internal/rtc"
	"github.com/thelolagemann/go-minimon/internal/tim256"
	"github.com/thelolagemann/go-minimon/internal/timers"
	"github.com/thelolagemann/go-minimon/internal/trace"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

// version of the core, reported to hosts.
const version = "0.2.0"

// Version returns the core version string.
func Version() string { return version }

// Machine owns all peripheral state and the machine clock. One
// logical thread owns a Machine; host access must be serialized
// around Advance.
type Machine struct {
	CPU *cpu.Registers
	Bus *bus.Bus

	IRQ     *irq.Controller
	Control *control.Control
	RTC     *rtc.RTC
	TIM256  *tim256.TIM256
	Timers  *timers.Timers
	LCD     *lcd.LCD
	Blitter *blitter.Blitter
	Input   *input.Input
	GPIO    *gpio.GPIO
	Audio   *audio.Audio

	buffers *types.Buffers

	// clocks is the signed cycle deficit: positive means work owed.
	clocks       int
	osc1Overflow int
	status       types.Status

	executor cpu.Executor
	tracer   trace.Sink
	logger   log.Logger
}

// Opt configures a Machine at construction.
type Opt func(*Machine)

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Opt {
	return func(m *Machine) { m.logger = l }
}

// WithTracer attaches a trace sink receiving every bus access.
func WithTracer(t trace.Sink) Opt {
	return func(m *Machine) { m.tracer = t }
}

// WithExecutor attaches the instruction core. Without one the CPU
// idles one cycle per step.
func WithExecutor(e cpu.Executor) Opt {
	return func(m *Machine) { m.executor = e }
}

// New returns an initialized machine.
func New(opts ...Opt) *Machine {
	m := &Machine{
		CPU:      &cpu.Registers{},
		buffers:  &types.Buffers{},
		executor: cpu.Idle{},
		tracer:   trace.NewNop(),
		logger:   log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.Bus = bus.New(m.buffers, m.tracer, m.logger)
	m.IRQ = irq.New(m.Bus)
	m.Control = control.New(m.Bus)
	m.Bus.AttachCartGate(m.Control.CartEnabled)
	m.RTC = rtc.New(m.Bus)
	m.TIM256 = tim256.New(m.Bus, m.IRQ)
	m.Timers = timers.New(m.Bus, m.IRQ)
	m.LCD = lcd.New(m.Bus, m.buffers, m.Control.LCDEnabled, m.logger)
	m.Blitter = blitter.New(m.Bus, m.LCD, m.IRQ)
	m.LCD.AttachFrameEnd(m.Blitter.Clock)
	m.Input = input.New(m.Bus, m.IRQ)
	m.GPIO = gpio.New(m.Bus)
	m.Audio = audio.New(m.Bus, m.buffers, m.Timers)

	m.Initialize()
	return m
}

// Initialize performs the power-on sequence: a full reset plus
// clearing the oscillator remainder.
func (m *Machine) Initialize() {
	m.Reset()
	m.osc1Overflow = 0
}

// Reset returns the machine to its reset state. The BIOS, cartridge,
// palette, weight table and EEPROM contents are left alone.
func (m *Machine) Reset() {
	m.Control.Reset()
	m.IRQ.Reset()
	m.LCD.Reset()
	m.RTC.Reset()
	m.TIM256.Reset()
	m.Blitter.Reset()
	m.Timers.Reset()
	m.Input.Reset()
	m.GPIO.Reset()
	m.Audio.Reset()
	m.Bus.Reset()

	// load the reset vector
	m.CPU.PC = m.Bus.Read16(2*uint32(irq.Reset), trace.Vector)
	m.tracer.Access(m.CPU.EffectivePC(), trace.BranchTarget)

	m.CPU.SetSC(0xC0)
	m.CPU.EP = 0xFF
	m.CPU.XP = 0x00
	m.CPU.YP = 0x00
	m.CPU.NB = 0x01

	m.status = types.StatusNormal
}

// Status returns the current run status.
func (m *Machine) Status() types.Status { return m.status }

// SetStatus transitions the run status. The instruction core uses it
// to halt, sleep and crash the machine.
func (m *Machine) SetStatus(s types.Status) { m.status = s }

// Advance runs the machine until ticks OSC3 (4 MHz) cycles worth of
// work has been drained. It does not return until the cycle deficit
// is gone.
func (m *Machine) Advance(ticks int) {
	m.clocks += ticks
	for m.clocks > 0 {
		m.Step()
	}
}

// Step dispatches any pending interrupt, executes one instruction (or
// one idle cycle) and clocks the peripherals with the elapsed time.
func (m *Machine) Step() {
	m.manageIRQ()

	if m.status == types.StatusNormal {
		m.clock(m.executor.Advance())
	} else {
		// eat a cycle
		m.clock(1)
	}
}

// clock distributes cycles CPU cycles to the peripherals: OSC3
// devices first, then however many OSC1 edges accumulated.
func (m *Machine) clock(cycles int) {
	osc3 := cycles * types.OSC3Speed / types.CPUSpeed

	m.osc1Overflow += osc3 * types.OSC1Speed

	if m.status <= types.StatusHalted || m.status == types.StatusCrashed {
		m.LCD.Clock(osc3)
		m.Timers.Clock(0, osc3)
		m.Audio.Clock(osc3)

		if m.osc1Overflow >= types.OSC3Speed {
			osc1 := 0
			for m.osc1Overflow >= types.OSC3Speed {
				m.osc1Overflow -= types.OSC3Speed
				osc1++
			}

			m.TIM256.Clock(osc1)
			m.RTC.Clock(osc1)
		}
	}

	m.clocks -= osc3
}

// manageIRQ dispatches the highest pending interrupt if its priority
// exceeds the CPU's current mask level.
func (m *Machine) manageIRQ() {
	vec, priority := m.IRQ.Next()
	if vec == irq.None || priority <= int(m.CPU.Flag.I) {
		return
	}

	m.IRQ.Acknowledge(vec)

	// a dispatched interrupt wakes a halted or sleeping CPU
	if m.status == types.StatusHalted || m.status == types.StatusSleeping {
		m.status = types.StatusNormal
	}

	m.CPU.Push16(m.Bus, m.CPU.PC, trace.ReturnAddress)
	m.CPU.Push8(m.Bus, m.CPU.CB, trace.ReturnAddress)
	m.CPU.Push8(m.Bus, m.CPU.NB, trace.ReturnAddress)
	m.CPU.Push8(m.Bus, m.CPU.SC(), trace.None)

	m.CPU.Flag.I = uint8(priority)
	m.CPU.PC = m.Bus.Read16(2*uint32(vec), trace.Vector)
	m.CPU.CB = 0
	m.tracer.Access(m.CPU.EffectivePC(), trace.BranchTarget)
}

// UpdateInputs pushes a new 10-bit key state from the host.
func (m *Machine) UpdateInputs(value uint16) {
	m.Input.Update(value)
}

// SetSampleRate sets the host audio sample rate.
func (m *Machine) SetSampleRate(rate int) {
	m.Audio.SetSampleRate(rate)
}

// SetAudioPush attaches the callback fired each time the audio ring
// buffer wraps.
func (m *Machine) SetAudioPush(f func([]float32)) {
	m.Audio.SetPushCallback(f)
}

// Buffers exposes the host-visible buffers.
func (m *Machine) Buffers() *types.Buffers { return m.buffers }

// LoadBIOS copies the 4 KiB program ROM into place. It is loaded once
// at startup and survives resets.
func (m *Machine) LoadBIOS(data []byte) {
	copy(m.buffers.BIOS[:], data)
}

// LoadCartridge copies a ROM into the cartridge window and drops the
// cartridge-detect pin. Images that begin with the "PM" signature are
// taken to start at 0x2100 and are placed there; all other images are
// copied from offset 0.
func (m *Machine) LoadCartridge(data []byte) {
	m.EjectCartridge()

	// images beginning with "PM" lack the bytes below 0x2100 and are
	// shifted up to it; anything else maps from offset 0
	offset := 0
	if len(data) >= 2 && data[0] == 'P' && data[1] == 'M' {
		offset = 0x2100
	}
	for i := len(data) - 1; i >= 0; i-- {
		m.buffers.Cartridge[(i+offset)&(types.CartridgeSize-1)] = data[i]
	}

	m.UpdateInputs(m.Input.State() &^ input.PinCartN)
}

// EEPROMData exposes the 8 KiB serial EEPROM store, the only state
// the host persists across sessions.
func (m *Machine) EEPROMData() *[0x2000]uint8 {
	return m.GPIO.EEPROM.Data()
}

// EjectCartridge raises the cartridge-detect pin.
func (m *Machine) EjectCartridge() {
	m.UpdateInputs(m.Input.State() | input.PinCartN)
}

// Package emu runs a machine in real time and mediates between it
// and the display drivers: it paces the machine clock against wall
// time, publishes rendered frames, applies host inputs and persists
// the EEPROM store.
package emu

import (
	"image"
	"sync"
	"time"

	"github.com/thelolagemann/go-minimon/internal/input"
	"github.com/thelolagemann/go-minimon/internal/minimon"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/log"
)

const (
	// FrameSize is the byte length of one published RGBA frame.
	FrameSize = types.LCDWidth * types.LCDHeight * 4

	// maxCatchUp bounds how much lost wall time a single tick will
	// replay, so a stalled host does not spiral.
	maxCatchUp = 200 * time.Millisecond

	frameHistory = 240
)

// Controller owns the advance loop of one machine.
type Controller struct {
	machine *minimon.Machine

	frames chan []byte

	mu      sync.Mutex
	paused  bool
	closed  bool
	save    *Save
	lastRun time.Time

	frameTimes []time.Duration
	logger     log.Logger
}

// NewController returns a controller for m. Frames published on
// Frames are 96x64 RGBA.
func NewController(m *minimon.Machine, logger log.Logger) *Controller {
	return &Controller{
		machine: m,
		frames:  make(chan []byte, 4),
		logger:  logger,
	}
}

// Frames is the stream of rendered frames for display drivers.
func (c *Controller) Frames() <-chan []byte { return c.frames }

// Machine returns the underlying machine.
func (c *Controller) Machine() *minimon.Machine { return c.machine }

// Run paces the machine against wall time until Close is called. It
// blocks and is normally launched on its own goroutine.
func (c *Controller) Run() {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	c.lastRun = time.Now()

	for now := range ticker.C {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		paused := c.paused
		delta := now.Sub(c.lastRun)
		c.lastRun = now
		c.mu.Unlock()

		if paused {
			continue
		}
		if delta > maxCatchUp {
			delta = maxCatchUp
		}

		start := time.Now()
		c.machine.Advance(int(delta.Nanoseconds() * types.OSC3Speed / int64(time.Second)))
		c.recordFrameTime(time.Since(start))

		c.publishFrame()

		if c.save != nil {
			c.save.Update(c.machine.EEPROMData())
		}
	}
}

// publishFrame converts the framebuffer to RGBA bytes and offers it
// to the drivers, dropping the frame if none is keeping up.
func (c *Controller) publishFrame() {
	fb := &c.machine.Buffers().Framebuffer

	frame := make([]byte, 0, FrameSize)
	for y := 0; y < types.LCDHeight; y++ {
		for x := 0; x < types.LCDWidth; x++ {
			px := fb[y][x]
			frame = append(frame, uint8(px), uint8(px>>8), uint8(px>>16), 0xFF)
		}
	}

	select {
	case c.frames <- frame:
	default:
	}
}

func (c *Controller) recordFrameTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameTimes = append(c.frameTimes, d)
	if len(c.frameTimes) > frameHistory {
		c.frameTimes = c.frameTimes[len(c.frameTimes)-frameHistory:]
	}
}

// FrameTimes returns a copy of the recent advance durations.
func (c *Controller) FrameTimes() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.frameTimes...)
}

// UpdateInputs applies a new key state (bits 0-8) from a driver,
// preserving the machine-owned cartridge detect pin.
func (c *Controller) UpdateInputs(keys uint16) {
	state := c.machine.Input.State()
	c.machine.UpdateInputs(state&input.PinCartN | keys&^input.PinCartN)
}

// Paused reports whether the controller is paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// TogglePause pauses or resumes the advance loop.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = !c.paused
}

// Reset resets the machine.
func (c *Controller) Reset() {
	c.machine.Reset()
}

// AttachSave loads the newest EEPROM image from s and keeps the store
// persisted from then on.
func (c *Controller) AttachSave(s *Save) {
	if data := s.Load(); data != nil {
		copy(c.machine.EEPROMData()[:], data)
	}
	c.save = s
}

// Screenshot renders the current framebuffer.
func (c *Controller) Screenshot() image.Image {
	return c.machine.Screenshot()
}

// Close stops the advance loop and flushes the save file.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	save := c.save
	c.mu.Unlock()

	if save != nil {
		if err := save.Flush(c.machine.EEPROMData()); err != nil {
			c.logger.Errorf("flushing save: %v", err)
			return err
		}
	}
	return nil
}

// Package display defines the display driver interface and the
// registry frontends install themselves into. A driver receives
// rendered frames from the emulator controller and feeds key states
// back.
package display

import (
	"image"
	"sort"
	"time"
)

// Emulator is the surface a driver gets to control the emulator.
type Emulator interface {
	// UpdateInputs pushes a new 10-bit key state (active low).
	UpdateInputs(keys uint16)
	// Paused reports whether emulation is paused.
	Paused() bool
	// TogglePause pauses or resumes emulation.
	TogglePause()
	// Reset resets the machine.
	Reset()
	// Screenshot renders the current framebuffer.
	Screenshot() image.Image
	// FrameTimes returns the recent advance durations, for
	// performance views.
	FrameTimes() []time.Duration
}

// Driver is the interface that wraps the basic methods for a display
// driver.
type Driver interface {
	// Initialize attaches the driver to the emulator using it.
	Initialize(emu Emulator)
	// Start runs the driver until the frame channel closes or the
	// user quits. Frames are 96x64 RGBA.
	Start(frames <-chan []byte) error
	// Stop tears the driver down.
	Stop() error
}

var installed = map[string]Driver{}

// Install registers a driver under a name. Drivers call it from their
// init functions.
func Install(name string, d Driver) {
	installed[name] = d
}

// Get returns the driver with the given name, or nil. "auto" picks
// the first installed name alphabetically.
func Get(name string) Driver {
	if name == "auto" {
		names := Names()
		if len(names) == 0 {
			return nil
		}
		return installed[names[0]]
	}
	return installed[name]
}

// Names lists the installed driver names.
func Names() []string {
	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

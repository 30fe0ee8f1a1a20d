// Package terminal implements a text-mode display driver. Two
// vertical pixels share one character cell using the upper half block
// glyph, so the 96x64 LCD fits a 96x32 terminal region.
package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/thelolagemann/go-minimon/internal/input"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/display"
)

func init() {
	display.Install("terminal", &driver{})
}

var keymap = map[tcell.Key]uint16{
	tcell.KeyUp:        input.PinUp,
	tcell.KeyDown:      input.PinDown,
	tcell.KeyLeft:      input.PinLeft,
	tcell.KeyRight:     input.PinRight,
	tcell.KeyBackspace: input.PinPower,
}

var runemap = map[rune]uint16{
	'c': input.PinC,
	'x': input.PinB,
	'z': input.PinA,
	's': input.PinShock,
}

type driver struct {
	emu    display.Emulator
	screen tcell.Screen
}

func (d *driver) Initialize(emu display.Emulator) {
	d.emu = emu
}

func (d *driver) Start(frames <-chan []byte) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	d.screen = screen
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			d.draw(frame)
		case event := <-events:
			switch ev := event.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if done := d.handleKey(ev); done {
					return nil
				}
			}
		}
	}
}

func (d *driver) draw(frame []byte) {
	for y := 0; y < types.LCDHeight; y += 2 {
		for x := 0; x < types.LCDWidth; x++ {
			top := pixel(frame, x, y)
			bottom := pixel(frame, x, y+1)
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			d.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	d.screen.Show()
}

func pixel(frame []byte, x, y int) tcell.Color {
	i := (y*types.LCDWidth + x) * 4
	return tcell.NewRGBColor(int32(frame[i]), int32(frame[i+1]), int32(frame[i+2]))
}

// handleKey maps a key event to a momentary press. Terminals deliver
// no key-up events, so each press taps the pin low for a single
// update and releases it on the next event.
func (d *driver) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return true
	}

	var pin uint16
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q':
			return true
		case 'p':
			d.emu.TogglePause()
			return false
		case 'r':
			d.emu.Reset()
			return false
		default:
			pin = runemap[ev.Rune()]
		}
	} else {
		pin = keymap[ev.Key()]
	}

	if pin == 0 {
		return false
	}

	d.emu.UpdateInputs(^pin & 0x1FF)
	d.emu.UpdateInputs(0x1FF)
	return false
}

func (d *driver) Stop() error {
	return nil
}

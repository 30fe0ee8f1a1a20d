// Package fyne implements a GUI display driver with debug views.
package fyne

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/thelolagemann/go-minimon/internal/input"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/display"
	"github.com/thelolagemann/go-minimon/pkg/utils"
)

const scale = 4

func init() {
	display.Install("fyne", &driver{})
}

var keymap = map[fyne.KeyName]uint16{
	fyne.KeyC:         input.PinC,
	fyne.KeyX:         input.PinB,
	fyne.KeyZ:         input.PinA,
	fyne.KeyUp:        input.PinUp,
	fyne.KeyDown:      input.PinDown,
	fyne.KeyLeft:      input.PinLeft,
	fyne.KeyRight:     input.PinRight,
	fyne.KeyBackspace: input.PinPower,
	fyne.KeyS:         input.PinShock,
}

type driver struct {
	emu display.Emulator

	app    fyne.App
	window fyne.Window

	img     *image.RGBA
	display *canvas.Image

	pressed uint16
}

func (d *driver) Initialize(emu display.Emulator) {
	d.emu = emu
}

func (d *driver) Start(frames <-chan []byte) error {
	d.app = app.NewWithID("com.github.thelolagemann.minimon")
	d.window = d.app.NewWindow("minimon")

	d.img = image.NewRGBA(image.Rect(0, 0, types.LCDWidth, types.LCDHeight))
	d.display = canvas.NewImageFromImage(d.img)
	d.display.ScaleMode = canvas.ImageScalePixels
	d.display.SetMinSize(fyne.NewSize(types.LCDWidth*scale, types.LCDHeight*scale))

	d.window.SetContent(d.display)
	d.window.Resize(fyne.NewSize(types.LCDWidth*scale, types.LCDHeight*scale))
	d.window.SetMaster()

	if deskCanvas, ok := d.window.Canvas().(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(func(ev *fyne.KeyEvent) { d.handleKey(ev, true) })
		deskCanvas.SetOnKeyUp(func(ev *fyne.KeyEvent) { d.handleKey(ev, false) })
	}

	newPerformanceView(d.app, d.emu)

	go func() {
		for frame := range frames {
			copy(d.img.Pix, frame)
			d.display.Refresh()
		}
		d.app.Quit()
	}()

	d.app.Run()
	return nil
}

func (d *driver) handleKey(ev *fyne.KeyEvent, down bool) {
	if down {
		switch ev.Name {
		case fyne.KeyP:
			d.emu.TogglePause()
			return
		case fyne.KeyR:
			d.emu.Reset()
			return
		case fyne.KeyF12:
			_ = utils.CopyImage(d.emu.Screenshot())
			return
		}
	}

	pin, ok := keymap[ev.Name]
	if !ok {
		return
	}

	if down {
		d.pressed |= pin
	} else {
		d.pressed &^= pin
	}
	d.emu.UpdateInputs(^d.pressed & 0x1FF)
}

func (d *driver) Stop() error {
	if d.app != nil {
		d.app.Quit()
	}
	return nil
}

// Package sdl2 implements an SDL2 display driver: a scaled window
// streaming the LCD framebuffer, keyboard input mapped onto the key
// matrix and an SDL audio queue fed from the machine's ring buffer.
package sdl2

import (
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/thelolagemann/go-minimon/internal/input"
	"github.com/thelolagemann/go-minimon/internal/types"
	"github.com/thelolagemann/go-minimon/pkg/display"
	"github.com/thelolagemann/go-minimon/pkg/utils"
)

const scale = 4

func init() {
	display.Install("sdl2", &driver{})
}

// keymap maps SDL scancodes to key matrix pins.
var keymap = map[sdl.Scancode]uint16{
	sdl.SCANCODE_C:         input.PinC,
	sdl.SCANCODE_X:         input.PinB,
	sdl.SCANCODE_Z:         input.PinA,
	sdl.SCANCODE_UP:        input.PinUp,
	sdl.SCANCODE_DOWN:      input.PinDown,
	sdl.SCANCODE_LEFT:      input.PinLeft,
	sdl.SCANCODE_RIGHT:     input.PinRight,
	sdl.SCANCODE_BACKSPACE: input.PinPower,
	sdl.SCANCODE_S:         input.PinShock,
}

type driver struct {
	emu display.Emulator

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	audioDevice sdl.AudioDeviceID

	// pressed holds the currently held pins; the pushed state is its
	// complement (lines are active low).
	pressed uint16
}

func (d *driver) Initialize(emu display.Emulator) {
	d.emu = emu
}

func (d *driver) Start(frames <-chan []byte) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return err
	}

	var err error
	d.window, err = sdl.CreateWindow("minimon",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		types.LCDWidth*scale, types.LCDHeight*scale, sdl.WINDOW_SHOWN)
	if err != nil {
		return err
	}
	d.renderer, err = sdl.CreateRenderer(d.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return err
	}
	d.texture, err = d.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		types.LCDWidth, types.LCDHeight)
	if err != nil {
		return err
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := d.texture.Update(nil, unsafe.Pointer(&frame[0]), types.LCDWidth*4); err != nil {
				return err
			}
			_ = d.renderer.Clear()
			_ = d.renderer.Copy(d.texture, nil, nil)
			d.renderer.Present()
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if quit := d.handleKey(ev); quit {
					return nil
				}
			}
		}

		sdl.Delay(1)
	}
}

func (d *driver) handleKey(ev *sdl.KeyboardEvent) (quit bool) {
	if ev.Type == sdl.KEYDOWN && ev.Repeat == 0 {
		switch ev.Keysym.Scancode {
		case sdl.SCANCODE_ESCAPE:
			return true
		case sdl.SCANCODE_P:
			d.emu.TogglePause()
			return false
		case sdl.SCANCODE_R:
			d.emu.Reset()
			return false
		case sdl.SCANCODE_F12:
			_ = utils.CopyImage(d.emu.Screenshot())
			return false
		}
	}

	pin, ok := keymap[ev.Keysym.Scancode]
	if !ok {
		return false
	}

	switch ev.Type {
	case sdl.KEYDOWN:
		d.pressed |= pin
	case sdl.KEYUP:
		d.pressed &^= pin
	}

	// pressed pins pull their lines low
	d.emu.UpdateInputs(^d.pressed & 0x1FF)
	return false
}

// OpenAudio attaches an SDL audio queue and returns the push callback
// to hang on the machine's ring buffer. It may be called before
// Start.
func (d *driver) OpenAudio(sampleRate int) (func([]float32), error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	var err error
	if d.audioDevice, err = sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  types.AudioBufferLength,
	}, nil, 0); err != nil {
		return nil, err
	}
	sdl.PauseAudioDevice(d.audioDevice, false)

	return func(samples []float32) {
		buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4)
		_ = sdl.QueueAudio(d.audioDevice, buf)
	}, nil
}

func (d *driver) Stop() error {
	if d.audioDevice != 0 {
		sdl.CloseAudioDevice(d.audioDevice)
	}
	if d.texture != nil {
		_ = d.texture.Destroy()
	}
	if d.renderer != nil {
		_ = d.renderer.Destroy()
	}
	if d.window != nil {
		_ = d.window.Destroy()
	}
	sdl.Quit()
	return nil
}

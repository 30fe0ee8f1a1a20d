package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/thelolagemann/go-minimon/internal/minimon"
	"github.com/thelolagemann/go-minimon/pkg/display"
	_ "github.com/thelolagemann/go-minimon/pkg/display/fyne"
	_ "github.com/thelolagemann/go-minimon/pkg/display/sdl2"
	_ "github.com/thelolagemann/go-minimon/pkg/display/terminal"
	_ "github.com/thelolagemann/go-minimon/pkg/display/web"
	"github.com/thelolagemann/go-minimon/pkg/emu"
	"github.com/thelolagemann/go-minimon/pkg/log"
	"github.com/thelolagemann/go-minimon/pkg/utils"
)

func main() {
	// start pprof
	go func() {
		err := http.ListenAndServe("localhost:6060", nil)
		if err != nil {
			return
		}
	}()

	romFile := flag.String("rom", "", "The rom file to load")
	biosFile := flag.String("bios", "", "The bios file to load")
	driverName := flag.String("driver", "auto", fmt.Sprintf("The display driver to use %v", display.Names()))
	sampleRate := flag.Int("samplerate", 44100, "The audio sample rate")
	flag.Parse()

	logger := log.New()

	if *romFile == "" {
		var err error
		if *romFile, err = utils.AskForFile("Open ROM", "."); err != nil {
			logger.Errorf("no rom selected: %v", err)
			os.Exit(1)
		}
	}

	rom, err := utils.LoadFile(*romFile)
	if err != nil {
		logger.Errorf("loading rom: %v", err)
		os.Exit(1)
	}

	m := minimon.New(minimon.WithLogger(logger))
	m.SetGrayscalePalette()
	m.SetSampleRate(*sampleRate)

	if *biosFile != "" {
		bios, err := utils.LoadFile(*biosFile)
		if err != nil {
			logger.Errorf("loading bios: %v", err)
			os.Exit(1)
		}
		m.LoadBIOS(bios)
		m.Reset()
	}
	m.LoadCartridge(rom)

	logger.Infof("minimon %s", minimon.Version())

	controller := emu.NewController(m, logger)

	save, err := emu.NewSave(rom)
	if err != nil {
		logger.Errorf("opening save: %v", err)
	} else {
		controller.AttachSave(save)
	}

	driver := display.Get(*driverName)
	if driver == nil {
		logger.Errorf("unknown display driver %q", *driverName)
		os.Exit(1)
	}
	driver.Initialize(controller)

	// drivers with an audio sink take the ring buffer pushes
	if sink, ok := driver.(interface {
		OpenAudio(int) (func([]float32), error)
	}); ok {
		if push, err := sink.OpenAudio(*sampleRate); err == nil {
			m.SetAudioPush(push)
		} else {
			logger.Errorf("opening audio: %v", err)
		}
	}

	go controller.Run()

	if err := driver.Start(controller.Frames()); err != nil {
		logger.Errorf("display driver: %v", err)
	}

	_ = driver.Stop()
	if err := controller.Close(); err != nil {
		logger.Errorf("closing: %v", err)
	}
}

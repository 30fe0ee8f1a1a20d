package fyne

import (
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/thelolagemann/go-minimon/pkg/display"
)

// newPerformanceView opens a window plotting the recent machine
// advance times, refreshed once a second.
func newPerformanceView(a fyne.App, emu display.Emulator) fyne.Window {
	w := a.NewWindow("Performance")

	img := canvas.NewImageFromImage(renderFrameTimes(emu.FrameTimes()))
	img.FillMode = canvas.ImageFillOriginal
	w.SetContent(img)

	go func() {
		for range time.Tick(time.Second) {
			img.Image = renderFrameTimes(emu.FrameTimes())
			img.Refresh()
		}
	}()

	w.Show()
	return w
}

func renderFrameTimes(times []time.Duration) image.Image {
	p := plot.New()
	p.Title.Text = "advance time per tick"
	p.Y.Label.Text = "ms"

	pts := make(plotter.XYs, len(times))
	for i, d := range times {
		pts[i].X = float64(i)
		pts[i].Y = float64(d.Microseconds()) / 1000.0
	}

	if line, err := plotter.NewLine(pts); err == nil {
		p.Add(line)
	}
	p.Add(plotter.NewGrid())

	c := vgimg.New(vg.Points(480), vg.Points(240))
	p.Draw(draw.New(c))
	return c.Image()
}

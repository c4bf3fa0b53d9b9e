// Package gui is the desktop front end of a reveal session.
package gui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"pixreveal/overlay"
	"pixreveal/reveal"
	"pixreveal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const title = "Image Pixel Revealer"

var errBadCount = errors.New("please enter a valid number")

// App is the window state around one session. Widgets are only touched
// from the fyne goroutine; commands run on a background goroutine.
type App struct {
	sess   *session.Session
	logger *slog.Logger

	win     fyne.Window
	canvas  *canvas.Image
	display *image.RGBA
	status  *widget.Label
	entry   *widget.Entry
	speed   *widget.Slider
	actions []*widget.Button

	// pending is filled by PixelRevealed and drained by RequestRepaint,
	// both on the command goroutine.
	pending []reveal.Pixel

	ctx    context.Context
	cancel context.CancelFunc
	busy   sync.WaitGroup
}

var _ reveal.Observer = &App{}

// New builds the window for sess. The engine behind sess must report to
// the returned App, see reveal.Engine.SetObserver.
func New(sess *session.Session, logger *slog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		sess:   sess,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	fa := app.NewWithID("io.github.pixreveal")
	a.win = fa.NewWindow(title)
	a.win.SetFixedSize(true)
	a.win.SetContent(a.layout())
	a.win.SetOnClosed(a.cancel)
	return a
}

func (a *App) layout() fyne.CanvasObject {
	a.display = blank(image.Rect(0, 0, 1, 1))
	a.canvas = canvas.NewImageFromImage(a.display)
	a.canvas.FillMode = canvas.ImageFillContain
	a.canvas.ScaleMode = canvas.ImageScalePixels
	a.canvas.SetMinSize(fyne.NewSize(480, 360))
	background := canvas.NewRectangle(color.Black)

	selectBtn := widget.NewButton("Select Image", a.selectImage)
	addBtn := widget.NewButton("Add Pixels", func() {
		a.dispatchInput(func(n int) session.Command { return session.RevealAdditional{Count: n} })
	})
	revealBtn := widget.NewButton("Reveal To", func() {
		a.dispatchInput(func(n int) session.Command { return session.RevealToTarget{Target: n} })
	})
	resetBtn := widget.NewButton("Reset", a.reset)
	a.actions = []*widget.Button{selectBtn, addBtn, revealBtn, resetBtn}

	a.entry = widget.NewEntry()
	a.entry.SetPlaceHolder("How many pixels do you want to reveal?")
	a.entry.OnChanged = a.sess.SetInput

	a.speed = widget.NewSlider(session.MinSpeed, session.MaxSpeed)
	a.speed.Step = 1
	a.speed.SetValue(float64(a.sess.Speed()))
	a.speed.OnChanged = func(v float64) {
		if err := a.sess.SetSpeed(int(v)); err != nil {
			a.logger.Warn("ignored speed", "value", v, "error", err)
		}
	}

	a.status = widget.NewLabel("")

	controls := container.NewVBox(
		container.NewBorder(nil, nil, selectBtn, container.NewHBox(addBtn, revealBtn, resetBtn)),
		a.entry,
		container.NewBorder(nil, nil, widget.NewLabel("Pixel Reveal Speed"), nil, a.speed),
		container.NewBorder(nil, nil, nil, a.status),
	)
	return container.NewBorder(nil, controls, nil, nil, container.NewStack(background, a.canvas))
}

// Open loads path as soon as the window is shown.
func (a *App) Open(path string) {
	a.run(func(ctx context.Context) error {
		return a.sess.Dispatch(ctx, session.LoadImage{Path: path})
	}, a.afterLoad)
}

// ShowAndRun blocks until the window is closed.
func (a *App) ShowAndRun() {
	a.win.ShowAndRun()
	a.cancel()
	a.busy.Wait()
}

func (a *App) selectImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.report(err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		if err := reader.Close(); err != nil {
			a.logger.Error("could not close selected file", "file", path, "error", err)
		}
		a.Open(path)
	}, a.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}))
	fd.Show()
}

func (a *App) dispatchInput(build func(n int) session.Command) {
	a.run(func(ctx context.Context) error {
		return a.sess.DispatchInput(ctx, build)
	}, nil)
}

func (a *App) reset() {
	a.run(func(ctx context.Context) error {
		return a.sess.Dispatch(ctx, session.Reset{})
	}, func() {
		fyne.Do(func() {
			a.setDisplay(blank(image.Rect(0, 0, 1, 1)))
			a.status.SetText("")
		})
	})
}

func (a *App) afterLoad() {
	snap := a.sess.Snapshot()
	status := a.sess.Status()
	fyne.Do(func() {
		if snap != nil {
			a.setDisplay(snap)
		}
		a.status.SetText(status)
	})
}

// run calls do on a background goroutine with the actions disabled, then
// calls done if do succeeded.
func (a *App) run(do func(ctx context.Context) error, done func()) {
	a.setBusy(true)
	a.busy.Add(1)
	go func() {
		defer a.busy.Done()
		err := do(a.ctx)
		if err == nil && done != nil {
			done()
		}
		fyne.Do(func() {
			a.setBusy(false)
			if err != nil {
				a.report(err)
			}
		})
	}()
}

func (a *App) setBusy(busy bool) {
	for _, b := range a.actions {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
}

func (a *App) setDisplay(img *image.RGBA) {
	a.display = img
	a.canvas.Image = img
	b := img.Rect
	if b.Dx() > 1 {
		a.canvas.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	}
	a.canvas.Refresh()
}

func (a *App) report(err error) {
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, reveal.ErrNoImageLoaded):
		dialog.ShowInformation("Warning", "Please select an image first!", a.win)
	case errors.Is(err, reveal.ErrInvalidCount):
		dialog.ShowError(errBadCount, a.win)
	default:
		dialog.ShowError(err, a.win)
	}
}

func (a *App) PixelRevealed(p image.Point, c color.RGBA) {
	a.pending = append(a.pending, reveal.Pixel{Point: p, Color: c})
}

// RequestRepaint paints the pending pixels and waits for the fyne
// goroutine, so each pixel shows before the next one is picked.
func (a *App) RequestRepaint(*image.RGBA) {
	pending := a.pending
	a.pending = a.pending[:0]
	fyne.DoAndWait(func() {
		for _, px := range pending {
			a.display.SetRGBA(px.Point.X, px.Point.Y, px.Color)
		}
		a.canvas.Refresh()
	})
}

func (a *App) RevealComplete(revealed, total int) {
	fyne.Do(func() {
		a.status.SetText(overlay.Status(revealed, total))
	})
}

func blank(r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(r)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

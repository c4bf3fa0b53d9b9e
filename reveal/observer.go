package reveal

import (
	"image"
	"image/color"
)

// Observer is the presentation surface notified by the engine. Calls are
// made synchronously from the goroutine driving the reveal.
type Observer interface {
	// PixelRevealed is called once for every newly revealed pixel.
	PixelRevealed(p image.Point, c color.RGBA)
	// RequestRepaint follows every PixelRevealed call with the current
	// output image. The image is owned by the engine, keeps changing with
	// later reveals and must not be modified.
	RequestRepaint(img *image.RGBA)
	// RevealComplete is called once at the end of every reveal operation.
	RevealComplete(revealed, total int)
}

// Observers fans notifications out to every member, in order.
type Observers []Observer

var _ Observer = Observers{}

func (o Observers) PixelRevealed(p image.Point, c color.RGBA) {
	for _, obs := range o {
		obs.PixelRevealed(p, c)
	}
}

func (o Observers) RequestRepaint(img *image.RGBA) {
	for _, obs := range o {
		obs.RequestRepaint(img)
	}
}

func (o Observers) RevealComplete(revealed, total int) {
	for _, obs := range o {
		obs.RevealComplete(revealed, total)
	}
}

type nopObserver struct{}

func (nopObserver) PixelRevealed(image.Point, color.RGBA) {}
func (nopObserver) RequestRepaint(*image.RGBA)             {}
func (nopObserver) RevealComplete(int, int)                {}

// Package overlay draws the reveal status onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

const padding = 4.0

// Status formats the revealed pixel ratio shown to the user.
func Status(revealed, total int) string {
	return fmt.Sprintf("%d/%d pixels revealed", revealed, total)
}

// Label draws text in the bottom right corner of img, over a translucent
// dark box, using the built-in 7x13 face.
func Label(img *image.RGBA, text string, fg color.Color) {
	if text == "" {
		return
	}

	dc := gg.NewContextForRGBA(img)
	w, h := dc.MeasureString(text)
	width, height := float64(dc.Width()), float64(dc.Height())

	x := width - w - padding
	y := height - padding
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(x-padding, y-h-padding, w+2*padding, h+2*padding)
	dc.Fill()

	dc.SetColor(fg)
	dc.DrawString(text, x, y)
}

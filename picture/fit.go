package picture

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// Fit scales img down so that it fits in maxWidth x maxHeight, keeping its
// aspect ratio. A zero limit leaves that dimension unconstrained. Images
// that already fit are returned as is.
func Fit(logger *slog.Logger, img image.Image, maxWidth, maxHeight int) image.Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())
	if srcWidth == 0 || srcHeight == 0 {
		return img
	}

	scale := 1.0
	if maxWidth > 0 && srcWidth > float64(maxWidth) {
		scale = float64(maxWidth) / srcWidth
	}
	if maxHeight > 0 && srcHeight > float64(maxHeight) {
		scale = math.Min(scale, float64(maxHeight)/srcHeight)
	}
	if scale == 1.0 {
		return img
	}

	destBounds := image.Rect(0, 0,
		max(1, int(math.Round(srcWidth*scale))),
		max(1, int(math.Round(srcHeight*scale))))

	logger.Info("resizing", "width", destBounds.Dx(), "height", destBounds.Dy())
	dest := image.NewRGBA(destBounds)
	draw.CatmullRom.Scale(dest, destBounds, img, srcBounds, draw.Over, nil)
	return dest
}

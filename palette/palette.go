// Package palette provides the color palettes used to quantize reveal
// animation frames.
package palette

import (
	"fmt"
	"image"
	"image/color"
	stdpalette "image/color/palette"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// MaxColors is the largest palette a GIF frame can carry.
const MaxColors = 256

// Names lists the built-in palettes.
var Names = []string{"plan9", "websafe", "gray16", "bw"}

func builtin(name string) (color.Palette, bool) {
	switch name {
	case "plan9":
		return stdpalette.Plan9, true
	case "websafe":
		return stdpalette.WebSafe, true
	case "gray16":
		pal := make(color.Palette, 16)
		for i := range pal {
			pal[i] = color.Gray{Y: uint8(i * 17)}
		}
		return pal, true
	case "bw":
		return color.Palette{color.Black, color.White}, true
	}
	return nil, false
}

// Load resolves a palette specification: a built-in name, "dominant:N" or
// "kmeans:N" for a palette of N colors extracted from img, or the path of
// a RIFF PAL file.
func Load(spec string, img image.Image) (color.Palette, error) {
	if pal, ok := builtin(spec); ok {
		return pal, nil
	}

	if name, arg, ok := strings.Cut(spec, ":"); ok {
		var method Method
		switch name {
		case "dominant":
			method = MethodDominantColor
		case "kmeans":
			method = MethodKMeans
		default:
			return loadFile(spec)
		}

		n, err := strconv.Atoi(arg)
		if err != nil || n < 2 || n > MaxColors {
			return nil, fmt.Errorf("invalid palette size %q, should be 2..%d", arg, MaxColors)
		}
		if img == nil {
			return nil, fmt.Errorf("palette %q needs an image", spec)
		}
		return Adaptive(img, n, method), nil
	}

	return loadFile(spec)
}

// Validate checks a palette specification without building image-derived
// palettes.
func Validate(spec string) error {
	if _, ok := builtin(spec); ok {
		return nil
	}
	if name, arg, ok := strings.Cut(spec, ":"); ok && (name == "dominant" || name == "kmeans") {
		if n, err := strconv.Atoi(arg); err != nil || n < 2 || n > MaxColors {
			return fmt.Errorf("invalid palette size %q, should be 2..%d", arg, MaxColors)
		}
		return nil
	}
	_, err := loadFile(spec)
	return err
}

func loadFile(path string) (color.Palette, error) {
	palFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open palette %q: %w", path, err)
	}
	defer func() {
		if closeErr := palFile.Close(); closeErr != nil {
			slog.Error("could not close palette", "file", path, "error", closeErr)
		}
	}()

	pals, err := ReadFrom(palFile)
	if err != nil {
		return nil, fmt.Errorf("could not load palette %q: %w", path, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	switch {
	case len(res) == 0:
		return nil, fmt.Errorf("palette %q is empty", path)
	case len(res) > MaxColors:
		return nil, fmt.Errorf("palette %q has %d colors, at most %d are supported", path, len(res), MaxColors)
	}
	return res, nil
}

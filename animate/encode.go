package animate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pixreveal/parallel"
	"pixreveal/picture"

	"github.com/setanarut/apng"
	"golang.org/x/image/draw"
)

const (
	// frameDelay is the display time of a frame, in 1/100s.
	frameDelay = 4
	// holdDelay keeps the last frame on screen before the animation ends.
	holdDelay = 200
)

type GIFOptions struct {
	Palette color.Palette
	Dither  bool
	// Workers bounds the number of frames quantized concurrently; zero
	// uses every CPU.
	Workers int
}

// Quantize maps every frame onto pal, optionally with Floyd-Steinberg error
// diffusion.
func Quantize(frames []*image.RGBA, pal color.Palette, dither bool, workers int) ([]*image.Paletted, error) {
	res := make([]*image.Paletted, len(frames))
	err := parallel.Each(workers, len(frames), func(i int) error {
		src := frames[i]
		if src == nil || src.Rect.Empty() {
			return fmt.Errorf("frame %d is empty", i)
		}
		dst := image.NewPaletted(src.Rect, pal)
		if dither {
			draw.FloydSteinberg.Draw(dst, dst.Rect, src, src.Rect.Min)
		} else {
			draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
		}
		res[i] = dst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EncodeGIF writes frames as an animated GIF that plays once and holds on
// the last frame.
func EncodeGIF(w io.Writer, frames []*image.RGBA, opts GIFOptions) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if len(opts.Palette) == 0 || len(opts.Palette) > 256 {
		return fmt.Errorf("invalid GIF palette size: %d", len(opts.Palette))
	}

	imgs, err := Quantize(frames, opts.Palette, opts.Dither, opts.Workers)
	if err != nil {
		return fmt.Errorf("could not quantize frames: %w", err)
	}

	anim := &gif.GIF{
		Image:     imgs,
		Delay:     make([]int, len(frames)),
		LoopCount: -1,
	}
	for i := range anim.Delay {
		anim.Delay[i] = frameDelay
	}
	anim.Delay[len(anim.Delay)-1] = holdDelay

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("could not encode GIF animation: %w", err)
	}
	return nil
}

// SaveAPNG writes frames as an animated PNG at path.
func SaveAPNG(path string, frames []*image.RGBA) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}

	imgs := make([]image.Image, len(frames))
	for i, f := range frames {
		imgs[i] = f
	}

	destDir, destName := filepath.Split(path)
	if destDir == "" {
		destDir = "."
	}
	tmpFile, err := os.CreateTemp(destDir, destName+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	tmpName := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("could not close temporary destination %q: %w", destName, err)
	}

	// apng.Save creates the file itself and reports no failure, so the
	// result is checked for a PNG signature before it replaces path.
	apng.Save(tmpName, imgs, frameDelay)
	if err := checkPNG(tmpName); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("could not encode APNG animation %q: %w", destName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("could not rename destination file %q: %w", destName, err)
	}
	return nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func checkPNG(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("truncated PNG %q: %w", path, err)
	}
	if !bytes.Equal(head, pngSignature) {
		return fmt.Errorf("%q is not a PNG file", path)
	}
	return nil
}

// Save encodes frames into path: ".gif" produces a GIF, ".png" and
// ".apng" an animated PNG.
func Save(path string, frames []*image.RGBA, opts GIFOptions) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		return picture.WriteAtomic(path, func(w io.Writer) error {
			return EncodeGIF(w, frames, opts)
		})
	case ".png", ".apng":
		return SaveAPNG(path, frames)
	default:
		return fmt.Errorf("unsupported animation extension %q", ext)
	}
}

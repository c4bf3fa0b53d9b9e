package palette

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"

	"pixreveal/picture"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Image  string `arg:"" type:"existingfile" help:"Image to extract the palette from"`
	Out    string `arg:"" help:"Destination PAL file"`
	Colors int    `short:"n" help:"Number of colors, black included" default:"16"`
	Method string `help:"Extraction method" enum:"dominant,kmeans" default:"dominant"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	var err error
	if c.Out, err = filepath.Abs(c.Out); err != nil {
		return fmt.Errorf("invalid destination %q: %w", c.Out, err)
	}
	if c.Colors < 2 || c.Colors > MaxColors {
		return fmt.Errorf("invalid number of colors %d, should be 2..%d", c.Colors, MaxColors)
	}
	return nil
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	logger = logger.With("file", c.Image)

	img, format, err := picture.Decode(c.Image)
	if err != nil {
		return err
	}

	method := MethodDominantColor
	if c.Method == "kmeans" {
		method = MethodKMeans
	}
	pal := Adaptive(img, c.Colors, method)
	logger.Info("palette extracted", "format", format, "method", method, "colors", len(pal))

	var written int64
	if err := picture.WriteAtomic(c.Out, func(w io.Writer) error {
		written, err = WriteTo(w, []color.Palette{pal})
		return err
	}); err != nil {
		return fmt.Errorf("could not write palette %q: %w", c.Out, err)
	}

	logger.Info("palette saved", "dest", c.Out, "colors", written)
	return nil
}

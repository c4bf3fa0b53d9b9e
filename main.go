package main

import (
	"fmt"
	"log/slog"
	"os"

	"pixreveal/config"
	"pixreveal/gui"
	"pixreveal/palette"
	"pixreveal/render"

	"github.com/alecthomas/kong"
)

type cli struct {
	Gui     gui.CLICmd     `cmd:"" default:"withargs" help:"Reveal an image interactively in a window"`
	Render  render.CLICmd  `cmd:"" help:"Record a scripted reveal as an animated GIF or APNG"`
	Palette palette.CLICmd `cmd:"" help:"Extract an adaptive palette from an image into a PAL file"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("pixreveal"),
		kong.Description("Progressively reveal the pixels of an image."),
		kong.UsageOnError(),
		cfg.Vars(),
		kong.Bind(logger),
	)
	kctx.FatalIfErrorf(kctx.Run())
}

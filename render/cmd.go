// Package render records a scripted reveal as an animation, without a
// window.
package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"pixreveal/animate"
	"pixreveal/palette"
	"pixreveal/picture"
	"pixreveal/reveal"
	"pixreveal/session"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Image          string   `arg:"" type:"existingfile" help:"Image to reveal"`
	Out            string   `short:"o" help:"Animation destination, .gif or .png (APNG)" default:"reveal.gif"`
	Step           []string `short:"s" help:"Reveal steps, run in order: add=N, target=N or reset (restart from the same image)" default:"target=1000"`
	Speed          int      `help:"Reveal speed, 1 (slow) to 10 (fast); scales the pixels shown per frame" default:"${speed}"`
	PixelsPerFrame int      `help:"Pixels revealed per frame at speed 1" default:"${pixels_per_frame}"`
	Sampler        string   `help:"Pixel selection strategy" enum:"rejection,shuffle" default:"${sampler}"`
	Seed           uint64   `help:"Random seed for a reproducible reveal; 0 picks one"`
	MaxWidth       int      `help:"Scale the image down to this width" default:"${max_width}"`
	MaxHeight      int      `help:"Scale the image down to this height" default:"${max_height}"`
	Palette        string   `help:"GIF palette: plan9, websafe, gray16, bw, dominant:N, kmeans:N or a PAL file in RIFF format" default:"${palette}" group:"palette"`
	Dither         bool     `help:"Apply dithering to GIF frames" default:"false" group:"palette"`
	Workers        int      `help:"Frames quantized concurrently; 0 uses every CPU" default:"0" group:"palette"`
	Label          bool     `help:"Draw the revealed pixel count on every frame" default:"false" group:"label"`
	LabelColor     string   `help:"Label color, #RGB, #RGBA, #RRGGBB or #RRGGBBAA" default:"#fff" group:"label"`
	Final          string   `help:"Also save the final revealed image, format from the extension"`

	// filled by Validate
	Steps   []session.Command `kong:"-"`
	LabelFg color.Color       `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	var err error
	if c.Out, err = filepath.Abs(c.Out); err != nil {
		return fmt.Errorf("invalid destination %q: %w", c.Out, err)
	}
	switch ext := strings.ToLower(filepath.Ext(c.Out)); ext {
	case ".gif", ".png", ".apng":
	default:
		return fmt.Errorf("unsupported animation extension %q", ext)
	}

	conf, _, err := picture.DecodeConfig(c.Image)
	if err != nil {
		return fmt.Errorf("invalid image: %w", err)
	} else if conf.Width == 0 || conf.Height == 0 {
		return fmt.Errorf("invalid image %q: empty picture", c.Image)
	}

	if c.Final != "" {
		if _, err := picture.FormatOf(c.Final); err != nil {
			return err
		}
	}

	switch {
	case c.Speed < session.MinSpeed || c.Speed > session.MaxSpeed:
		return fmt.Errorf("invalid speed %d, should be %d..%d", c.Speed, session.MinSpeed, session.MaxSpeed)
	case c.PixelsPerFrame < 1:
		return fmt.Errorf("invalid pixels per frame: %d", c.PixelsPerFrame)
	case c.MaxWidth < 0:
		return fmt.Errorf("invalid max width: %d", c.MaxWidth)
	case c.MaxHeight < 0:
		return fmt.Errorf("invalid max height: %d", c.MaxHeight)
	}

	c.Steps = c.Steps[:0]
	for _, s := range c.Step {
		cmd, err := ParseStep(s)
		if err != nil {
			return err
		}
		c.Steps = append(c.Steps, cmd)
	}

	if c.LabelFg, err = picture.ParseHexColor(c.LabelColor); err != nil {
		return err
	}

	return palette.Validate(c.Palette)
}

// ParseStep reads one add=N, target=N or reset step.
func ParseStep(s string) (session.Command, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	switch name {
	case "reset":
		if hasArg {
			return nil, fmt.Errorf("invalid step %q: reset takes no count", s)
		}
		return session.Reset{}, nil
	case "add", "target":
		if !hasArg {
			return nil, fmt.Errorf("invalid step %q: missing count", s)
		}
		n, err := session.ParseCount(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid step %q: %w", s, err)
		}
		if name == "add" {
			return session.RevealAdditional{Count: n}, nil
		}
		return session.RevealToTarget{Target: n}, nil
	default:
		return nil, fmt.Errorf("unknown step %q, should be add=N, target=N or reset", s)
	}
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sampler, err := reveal.NewSampler(c.Sampler)
	if err != nil {
		return err
	}
	opts := []reveal.Option{reveal.WithSampler(sampler), reveal.WithLogger(logger)}
	if c.Seed != 0 {
		opts = append(opts, reveal.WithSeed(c.Seed))
	}
	engine := reveal.New(opts...)

	rec := animate.NewRecorder(animate.RecorderOptions{
		Every:   c.Speed * c.PixelsPerFrame,
		Label:   c.Label,
		LabelFg: c.LabelFg,
		Counter: func() (int, int) {
			return engine.Count(), engine.Total()
		},
	})
	prog := &progress{logger: logger}
	engine.SetObserver(reveal.Observers{rec, prog})

	sess, err := session.New(engine, session.Options{
		Speed:     c.Speed,
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	logger = logger.With("session", sess.ID.String(), "file", c.Image)

	load := func() error {
		if err := sess.Dispatch(ctx, session.LoadImage{Path: c.Image}); err != nil {
			return err
		}
		rec.Capture(sess.Snapshot())
		return nil
	}
	if err := load(); err != nil {
		return err
	}

	for _, step := range c.Steps {
		if err := sess.Dispatch(ctx, step); err != nil {
			return err
		}
		if _, ok := step.(session.Reset); ok {
			if err := load(); err != nil {
				return err
			}
		}
	}

	pal, err := palette.Load(c.Palette, engine.Source())
	if err != nil {
		return err
	}

	frames := rec.Frames()
	logger.Info("encoding animation", "dest", c.Out, "frames", len(frames), "colors", len(pal))
	if err := animate.Save(c.Out, frames, animate.GIFOptions{
		Palette: pal,
		Dither:  c.Dither,
		Workers: c.Workers,
	}); err != nil {
		return fmt.Errorf("could not save animation %q: %w", c.Out, err)
	}

	if c.Final != "" {
		if err := picture.Save(sess.Snapshot(), c.Final); err != nil {
			return fmt.Errorf("could not save final image %q: %w", c.Final, err)
		}
	}

	revealed, total := sess.Ratio()
	logger.Info("stats", "revealed", revealed, "total", total, "frames", len(frames), "steps", prog.step)
	return nil
}

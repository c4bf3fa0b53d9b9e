package gui

import (
	"fmt"
	"log/slog"
	"time"

	"pixreveal/reveal"
	"pixreveal/session"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Image     string        `arg:"" optional:"" type:"existingfile" help:"Image to open at startup"`
	Speed     int           `help:"Initial reveal speed, 1 (slow) to 10 (fast)" default:"${speed}"`
	Delay     time.Duration `help:"Pause between two pixels at speed 1" default:"${delay}"`
	Sampler   string        `help:"Pixel selection strategy" enum:"rejection,shuffle" default:"${sampler}"`
	MaxWidth  int           `help:"Scale images down to this width" default:"${max_width}"`
	MaxHeight int           `help:"Scale images down to this height" default:"${max_height}"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	switch {
	case c.Speed < session.MinSpeed || c.Speed > session.MaxSpeed:
		return fmt.Errorf("invalid speed %d, should be %d..%d", c.Speed, session.MinSpeed, session.MaxSpeed)
	case c.Delay < 0:
		return fmt.Errorf("invalid delay: %s", c.Delay)
	case c.MaxWidth < 0:
		return fmt.Errorf("invalid max width: %d", c.MaxWidth)
	case c.MaxHeight < 0:
		return fmt.Errorf("invalid max height: %d", c.MaxHeight)
	}
	return nil
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	sampler, err := reveal.NewSampler(c.Sampler)
	if err != nil {
		return err
	}
	engine := reveal.New(reveal.WithSampler(sampler), reveal.WithLogger(logger))

	sess, err := session.New(engine, session.Options{
		Speed:     c.Speed,
		DelayBase: c.Delay,
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	app := New(sess, logger.With("session", sess.ID.String()))
	engine.SetObserver(app)
	if c.Image != "" {
		app.Open(c.Image)
	}

	logger.Info("starting window", "session", sess.ID.String())
	app.ShowAndRun()
	return nil
}

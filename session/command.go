package session

import (
	"context"
	"fmt"

	"pixreveal/picture"
	"pixreveal/reveal"
)

// Command is a user action applied to a Session through Dispatch.
type Command interface {
	name() string
	run(ctx context.Context, s *Session) error
}

// LoadImage decodes the image at Path and starts a new reveal over it.
// The current reveal is kept when decoding fails.
type LoadImage struct {
	Path string
}

func (LoadImage) name() string { return "load" }

func (c LoadImage) run(_ context.Context, s *Session) error {
	img, imgType, err := picture.Decode(c.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", reveal.ErrInvalidImage, err)
	}
	img = picture.Fit(s.logger, img, s.opts.MaxWidth, s.opts.MaxHeight)

	if err := s.engine.Load(img); err != nil {
		return fmt.Errorf("could not load %q: %w", c.Path, err)
	}
	s.path = c.Path
	s.logger.Info("image selected", "file", c.Path, "format", imgType)
	return nil
}

// RevealAdditional reveals Count more pixels.
type RevealAdditional struct {
	Count int
}

func (RevealAdditional) name() string { return "add" }

func (c RevealAdditional) run(ctx context.Context, s *Session) error {
	run, err := s.engine.Begin(c.Count)
	if err != nil {
		return err
	}
	return s.step(ctx, run)
}

// RevealToTarget grows the revealed count to Target, never shrinking it.
type RevealToTarget struct {
	Target int
}

func (RevealToTarget) name() string { return "target" }

func (c RevealToTarget) run(ctx context.Context, s *Session) error {
	run, err := s.engine.BeginTarget(c.Target)
	if err != nil {
		return err
	}
	return s.step(ctx, run)
}

// Reset drops the image and every revealed pixel.
type Reset struct{}

func (Reset) name() string { return "reset" }

func (Reset) run(_ context.Context, s *Session) error {
	s.engine.Reset()
	s.path = ""
	return nil
}

package render

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"pixreveal/reveal"
)

// progress logs the outcome of every reveal step.
type progress struct {
	logger *slog.Logger
	step   int
	added  int
	start  time.Time
}

var _ reveal.Observer = &progress{}

func (p *progress) PixelRevealed(image.Point, color.RGBA) {
	if p.added == 0 {
		p.start = time.Now()
	}
	p.added++
}

func (p *progress) RequestRepaint(*image.RGBA) {}

func (p *progress) RevealComplete(revealed, total int) {
	p.step++
	var elapsed time.Duration
	if p.added > 0 {
		elapsed = time.Since(p.start)
	}
	p.logger.Debug("step done", "step", p.step, "added", p.added, "revealed", revealed, "total", total, "elapsed", elapsed)
	p.added = 0
}

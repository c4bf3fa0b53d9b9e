// Package animate records the progress of a reveal as animation frames and
// encodes them as GIF or APNG.
package animate

import (
	"image"
	"image/color"

	"pixreveal/overlay"
	"pixreveal/reveal"

	"golang.org/x/image/draw"
)

// Counter reports the live revealed and total pixel counts.
type Counter func() (revealed, total int)

type RecorderOptions struct {
	// Every is the number of revealed pixels between two frames.
	Every int
	// Label draws the status line on each frame when Counter is set.
	Label   bool
	LabelFg color.Color
	Counter Counter
}

// Recorder observes an engine and keeps snapshots of its output image.
type Recorder struct {
	opts    RecorderOptions
	frames  []*image.RGBA
	current *image.RGBA
	pending int
}

var _ reveal.Observer = &Recorder{}

func NewRecorder(opts RecorderOptions) *Recorder {
	if opts.Every < 1 {
		opts.Every = 1
	}
	if opts.LabelFg == nil {
		opts.LabelFg = color.White
	}
	return &Recorder{opts: opts}
}

func (r *Recorder) PixelRevealed(image.Point, color.RGBA) {
	r.pending++
}

func (r *Recorder) RequestRepaint(img *image.RGBA) {
	r.current = img
	if r.pending >= r.opts.Every {
		r.Capture(img)
	}
}

// RevealComplete flushes the pixels revealed since the last frame.
func (r *Recorder) RevealComplete(int, int) {
	if r.pending > 0 && r.current != nil {
		r.Capture(r.current)
	}
	r.current = nil
}

// Capture appends a snapshot of img as a new frame.
func (r *Recorder) Capture(img *image.RGBA) {
	if img == nil {
		return
	}
	frame := image.NewRGBA(img.Rect)
	draw.Draw(frame, frame.Rect, img, img.Rect.Min, draw.Src)

	if r.opts.Label && r.opts.Counter != nil {
		overlay.Label(frame, overlay.Status(r.opts.Counter()), r.opts.LabelFg)
	}
	r.frames = append(r.frames, frame)
	r.pending = 0
}

// Frames returns the recorded frames in order.
func (r *Recorder) Frames() []*image.RGBA {
	return r.frames
}

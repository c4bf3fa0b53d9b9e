package reveal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/image/draw"
)

// Engine progressively reveals the pixels of a source image. It owns the
// source image, the set of revealed coordinates and the output image, in
// which every unrevealed pixel is black.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	src      *image.RGBA
	out      *image.RGBA
	revealed *Set

	sampler  Sampler
	rnd      *rand.Rand
	observer Observer
	logger   *slog.Logger

	// settled is the revealed count as of the last completed operation.
	settled int
	// gen changes whenever the grid is replaced, orphaning active runs.
	gen    uint64
	active *Run
}

type Option func(*Engine)

func WithSampler(s Sampler) Option {
	return func(e *Engine) {
		e.sampler = s
	}
}

// WithSeed makes the reveal order reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.SetObserver(o)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		sampler:  &ShuffleSampler{},
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetObserver replaces the observer; nil silences notifications.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// Load replaces the source image and clears all reveal state. Pixels with
// alpha are composited over black. On error the engine is left untouched.
func (e *Engine) Load(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no pixels", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: zero area %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}

	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Rect, image.Black, image.Point{}, draw.Src)
	draw.Draw(src, src.Rect, img, b.Min, draw.Over)

	e.invalidate()
	e.src = src
	e.out = nil
	e.revealed = NewSet(src.Rect)
	e.sampler.Reset(src.Rect)
	e.settled = 0

	e.logger.Info("image loaded", "width", b.Dx(), "height", b.Dy())
	return nil
}

// Reset drops the source image and all reveal state.
func (e *Engine) Reset() {
	e.invalidate()
	e.src = nil
	e.out = nil
	e.revealed = nil
	e.settled = 0
	e.logger.Info("reveal state reset")
}

func (e *Engine) invalidate() {
	e.gen++
	e.active = nil
}

// Loaded reports whether a source image is present.
func (e *Engine) Loaded() bool {
	return e.src != nil
}

// RevealedRatio returns the revealed and total pixel counts as of the last
// completed reveal operation, or (0, 0) when no image is loaded.
func (e *Engine) RevealedRatio() (int, int) {
	if e.src == nil {
		return 0, 0
	}
	return e.settled, e.revealed.Cap()
}

// Count returns the number of pixels revealed so far, including those of
// an operation still in progress.
func (e *Engine) Count() int {
	if e.revealed == nil {
		return 0
	}
	return e.revealed.Len()
}

// Total returns the number of pixels in the source image.
func (e *Engine) Total() int {
	if e.revealed == nil {
		return 0
	}
	return e.revealed.Cap()
}

func (e *Engine) Revealed(p image.Point) bool {
	return e.revealed != nil && e.revealed.Contains(p)
}

// Points returns the revealed coordinates in row-major order.
func (e *Engine) Points() []image.Point {
	if e.revealed == nil {
		return nil
	}
	return e.revealed.Points()
}

// Source returns the loaded image as an opaque RGBA grid. It must not be
// modified.
func (e *Engine) Source() *image.RGBA {
	return e.src
}

// Output returns the image holding only the revealed pixels, building it
// on first use. It is mutated by later reveals.
func (e *Engine) Output() *image.RGBA {
	if e.src == nil {
		return nil
	}
	if e.out == nil {
		out := image.NewRGBA(e.src.Rect)
		draw.Draw(out, out.Rect, image.Black, image.Point{}, draw.Src)
		e.revealed.Each(func(p image.Point) {
			out.SetRGBA(p.X, p.Y, e.src.RGBAAt(p.X, p.Y))
		})
		e.out = out
	}
	return e.out
}

// RevealAdditional reveals min(count, unrevealed) new pixels and returns
// how many were added. Pixels revealed before ctx is done stay revealed.
func (e *Engine) RevealAdditional(ctx context.Context, count int) (int, error) {
	run, err := e.Begin(count)
	if err != nil {
		return 0, err
	}
	return run.Drain(ctx)
}

// RevealToTarget grows the revealed count to target. A target at or below
// the current count leaves the state unchanged.
func (e *Engine) RevealToTarget(ctx context.Context, target int) (int, error) {
	run, err := e.BeginTarget(target)
	if err != nil {
		return 0, err
	}
	return run.Drain(ctx)
}

// Begin starts revealing min(count, unrevealed) pixels, one per call to
// Run.Next.
func (e *Engine) Begin(count int) (*Run, error) {
	if e.src == nil {
		return nil, ErrNoImageLoaded
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if e.active != nil {
		return nil, ErrRevealInProgress
	}

	run := &Run{
		e:    e,
		gen:  e.gen,
		left: min(count, e.revealed.Cap()-e.revealed.Len()),
	}
	e.active = run
	e.logger.Debug("reveal started", "requested", count, "pixels", run.left)
	return run, nil
}

// BeginTarget starts revealing pixels until target are revealed.
func (e *Engine) BeginTarget(target int) (*Run, error) {
	if e.src == nil {
		return nil, ErrNoImageLoaded
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, target)
	}
	return e.Begin(max(0, target-e.revealed.Len()))
}

func (e *Engine) revealOne() Pixel {
	p := e.sampler.Next(e.rnd, e.revealed)
	e.revealed.Add(p)
	c := e.src.RGBAAt(p.X, p.Y)
	out := e.Output()
	out.SetRGBA(p.X, p.Y, c)

	e.observer.PixelRevealed(p, c)
	e.observer.RequestRepaint(out)
	return Pixel{Point: p, Color: c}
}

func (e *Engine) complete(r *Run) {
	e.active = nil
	e.settled = e.revealed.Len()
	e.logger.Debug("reveal complete", "added", r.added, "revealed", e.settled, "total", e.revealed.Cap())
	e.observer.RevealComplete(e.settled, e.revealed.Cap())
}

// Pixel is a revealed coordinate and its color.
type Pixel struct {
	Point image.Point
	Color color.RGBA
}

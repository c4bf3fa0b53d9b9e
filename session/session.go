// Package session holds the application context of a reveal: one engine
// plus the view state the user controls, driven by discrete commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pixreveal/overlay"
	"pixreveal/reveal"

	"github.com/google/uuid"
)

const (
	MinSpeed = 1
	MaxSpeed = 10
)

var ErrInvalidSpeed = errors.New("invalid speed")

type Options struct {
	// Speed sets the initial reveal speed, 1..10.
	Speed int
	// DelayBase is the pause between two pixels at speed 1. Zero reveals
	// pixels back to back.
	DelayBase time.Duration
	// MaxWidth and MaxHeight scale loaded images down to fit; zero means
	// unconstrained.
	MaxWidth  int
	MaxHeight int
	Logger    *slog.Logger
}

// Session serializes every command on its engine. Engine observers are
// called while a command runs and must only use the view state methods
// (Speed, SetSpeed, Input, SetInput, Delay) of the Session.
type Session struct {
	ID uuid.UUID

	opts   Options
	logger *slog.Logger

	// mu guards the engine and path for the duration of a command.
	mu     sync.Mutex
	engine *reveal.Engine
	path   string

	speed atomic.Int64
	view  sync.Mutex
	input string
}

func New(engine *reveal.Engine, opts Options) (*Session, error) {
	if err := validateSpeed(opts.Speed); err != nil {
		return nil, err
	}
	if opts.DelayBase < 0 {
		return nil, fmt.Errorf("invalid delay %s", opts.DelayBase)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.New()
	s := &Session{
		ID:     id,
		engine: engine,
		opts:   opts,
		logger: opts.Logger.With("session", id.String()),
	}
	s.speed.Store(int64(opts.Speed))
	return s, nil
}

func validateSpeed(speed int) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: %d, should be %d..%d", ErrInvalidSpeed, speed, MinSpeed, MaxSpeed)
	}
	return nil
}

// ParseCount reads a pixel count typed by the user.
func ParseCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", reveal.ErrInvalidCount, text)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", reveal.ErrInvalidCount, n)
	}
	return n, nil
}

func (s *Session) SetSpeed(speed int) error {
	if err := validateSpeed(speed); err != nil {
		return err
	}
	s.speed.Store(int64(speed))
	return nil
}

func (s *Session) Speed() int {
	return int(s.speed.Load())
}

// SetInput records the pending pixel count text.
func (s *Session) SetInput(text string) {
	s.view.Lock()
	defer s.view.Unlock()
	s.input = text
}

func (s *Session) Input() string {
	s.view.Lock()
	defer s.view.Unlock()
	return s.input
}

// Delay returns the pause between two revealed pixels at the current
// speed.
func (s *Session) Delay() time.Duration {
	return s.opts.DelayBase / time.Duration(s.speed.Load())
}

// Path returns the file the current image was loaded from.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Ratio returns the revealed and total pixel counts as of the last
// completed command.
func (s *Session) Ratio() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RevealedRatio()
}

// Snapshot returns a copy of the output image, or nil without an image.
func (s *Session) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.engine.Output()
	if out == nil {
		return nil
	}
	res := image.NewRGBA(out.Rect)
	copy(res.Pix, out.Pix)
	return res
}

// Status returns the line shown to the user, empty without an image.
func (s *Session) Status() string {
	revealed, total := s.Ratio()
	if total == 0 {
		return ""
	}
	return overlay.Status(revealed, total)
}

// Dispatch runs cmd to completion. Commands issued concurrently run one
// after the other.
func (s *Session) Dispatch(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.logger.With("command", cmd.name())
	logger.Debug("dispatching")
	start := time.Now()
	if err := cmd.run(ctx, s); err != nil {
		logger.Warn("command failed", "error", err)
		return err
	}

	revealed, total := s.engine.RevealedRatio()
	logger.Info("command done", "revealed", revealed, "total", total, "elapsed", time.Since(start))
	return nil
}

// DispatchInput parses the pending input and dispatches the reveal command
// built from it. Input that is not a count never reaches the engine. A
// missing image is reported before a bad count.
func (s *Session) DispatchInput(ctx context.Context, build func(n int) Command) error {
	s.mu.Lock()
	loaded := s.engine.Loaded()
	s.mu.Unlock()
	if !loaded {
		return reveal.ErrNoImageLoaded
	}

	n, err := ParseCount(s.Input())
	if err != nil {
		s.logger.Warn("rejected input", "error", err)
		return err
	}
	return s.Dispatch(ctx, build(n))
}

// step paces run with a ticker, one pixel per tick. Speed changes apply
// from the next tick on.
func (s *Session) step(ctx context.Context, run *reveal.Run) error {
	delay := s.Delay()
	if delay <= 0 {
		_, err := run.Drain(ctx)
		return err
	}

	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for {
		if _, ok := run.Next(); !ok || run.Done() {
			return nil
		}
		if d := s.Delay(); d > 0 && d != delay {
			delay = d
			ticker.Reset(d)
		}
		select {
		case <-ctx.Done():
			run.Stop()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

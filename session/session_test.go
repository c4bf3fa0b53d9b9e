package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pixreveal/picture"
	"pixreveal/reveal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0xAA, A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), name)
	if err := picture.Save(img, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Speed == 0 {
		opts.Speed = 5
	}
	opts.Logger = discardLogger()
	e := reveal.New(reveal.WithSeed(11), reveal.WithLogger(opts.Logger))
	s, err := New(e, opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func assertRatio(t *testing.T, s *Session, revealed, total int) {
	t.Helper()
	r, n := s.Ratio()
	if r != revealed || n != total {
		t.Fatalf("expected %d/%d, got %d/%d", revealed, total, r, n)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"42", 42},
		{"  7 ", 7},
		{"+3", 3},
	}
	for _, tt := range tests {
		got, err := ParseCount(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parse %q: expected %d, got %d", tt.in, tt.want, got)
		}
	}

	for _, in := range []string{"", "abc", "1.5", "-1", "10px"} {
		if _, err := ParseCount(in); !errors.Is(err, reveal.ErrInvalidCount) {
			t.Fatalf("parse %q: expected ErrInvalidCount, got %v", in, err)
		}
	}
}

func TestNewValidates(t *testing.T) {
	e := reveal.New()
	if _, err := New(e, Options{Speed: 0}); !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
	if _, err := New(e, Options{Speed: 3, DelayBase: -time.Second}); err == nil {
		t.Fatal("expected error for negative delay")
	}
}

func TestSpeedAndDelay(t *testing.T) {
	s := newTestSession(t, Options{Speed: 1, DelayBase: 10 * time.Millisecond})
	if s.Delay() != 10*time.Millisecond {
		t.Fatalf("expected 10ms, got %s", s.Delay())
	}
	if err := s.SetSpeed(10); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if s.Delay() != time.Millisecond {
		t.Fatalf("expected 1ms, got %s", s.Delay())
	}
	for _, bad := range []int{0, 11, -2} {
		if err := s.SetSpeed(bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Fatalf("speed %d: expected ErrInvalidSpeed, got %v", bad, err)
		}
	}
	if s.Speed() != 10 {
		t.Fatalf("expected speed to stay 10, got %d", s.Speed())
	}
}

func TestDispatchScenario(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()
	path := writeImage(t, "four.png", 4, 4)

	if err := s.Dispatch(ctx, LoadImage{Path: path}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Path() != path {
		t.Fatalf("expected path %q, got %q", path, s.Path())
	}
	if s.Status() != "0/16 pixels revealed" {
		t.Fatalf("unexpected status %q", s.Status())
	}

	steps := []struct {
		cmd      Command
		revealed int
	}{
		{RevealAdditional{Count: 5}, 5},
		{RevealAdditional{Count: 20}, 16},
		{RevealAdditional{Count: 1}, 16},
	}
	for _, st := range steps {
		if err := s.Dispatch(ctx, st.cmd); err != nil {
			t.Fatalf("%+v: %v", st.cmd, err)
		}
		assertRatio(t, s, st.revealed, 16)
	}

	if err := s.Dispatch(ctx, Reset{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	assertRatio(t, s, 0, 0)
	if s.Status() != "" || s.Path() != "" {
		t.Fatalf("expected cleared session, got %q %q", s.Status(), s.Path())
	}
}

func TestDispatchTargetNeverShrinks(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()
	if err := s.Dispatch(ctx, LoadImage{Path: writeImage(t, "two.png", 2, 2)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.Dispatch(ctx, RevealToTarget{Target: 3}); err != nil {
		t.Fatalf("target 3: %v", err)
	}
	if err := s.Dispatch(ctx, RevealToTarget{Target: 1}); err != nil {
		t.Fatalf("target 1: %v", err)
	}
	assertRatio(t, s, 3, 4)
}

func TestDispatchWithoutImage(t *testing.T) {
	s := newTestSession(t, Options{})
	err := s.Dispatch(context.Background(), RevealAdditional{Count: 1})
	if !errors.Is(err, reveal.ErrNoImageLoaded) {
		t.Fatalf("expected ErrNoImageLoaded, got %v", err)
	}
}

func TestFailedLoadKeepsSession(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()
	path := writeImage(t, "keep.png", 3, 3)
	if err := s.Dispatch(ctx, LoadImage{Path: path}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Dispatch(ctx, RevealAdditional{Count: 4}); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	junk := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(junk, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, bad := range []string{junk, filepath.Join(t.TempDir(), "missing.png")} {
		if err := s.Dispatch(ctx, LoadImage{Path: bad}); !errors.Is(err, reveal.ErrInvalidImage) {
			t.Fatalf("load %s: expected ErrInvalidImage, got %v", bad, err)
		}
	}
	assertRatio(t, s, 4, 9)
	if s.Path() != path {
		t.Fatalf("expected path to stay %q, got %q", path, s.Path())
	}
}

func TestLoadFitsImage(t *testing.T) {
	s := newTestSession(t, Options{MaxWidth: 10, MaxHeight: 10})
	if err := s.Dispatch(context.Background(), LoadImage{Path: writeImage(t, "big.png", 40, 20)}); err != nil {
		t.Fatalf("load: %v", err)
	}
	assertRatio(t, s, 0, 50)
}

func TestDispatchInput(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()
	if err := s.Dispatch(ctx, LoadImage{Path: writeImage(t, "in.png", 5, 5)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	s.SetInput("seven")
	err := s.DispatchInput(ctx, func(n int) Command { return RevealAdditional{Count: n} })
	if !errors.Is(err, reveal.ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	assertRatio(t, s, 0, 25)

	s.SetInput(" 7 ")
	if err := s.DispatchInput(ctx, func(n int) Command { return RevealAdditional{Count: n} }); err != nil {
		t.Fatalf("dispatch input: %v", err)
	}
	s.SetInput("12")
	if err := s.DispatchInput(ctx, func(n int) Command { return RevealToTarget{Target: n} }); err != nil {
		t.Fatalf("dispatch input: %v", err)
	}
	assertRatio(t, s, 12, 25)
}

func TestDispatchInputWithoutImage(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()
	for _, in := range []string{"", "abc", "-3", "5"} {
		s.SetInput(in)
		err := s.DispatchInput(ctx, func(n int) Command { return RevealAdditional{Count: n} })
		if !errors.Is(err, reveal.ErrNoImageLoaded) {
			t.Fatalf("input %q: expected ErrNoImageLoaded, got %v", in, err)
		}
		err = s.DispatchInput(ctx, func(n int) Command { return RevealToTarget{Target: n} })
		if !errors.Is(err, reveal.ErrNoImageLoaded) {
			t.Fatalf("input %q: expected ErrNoImageLoaded, got %v", in, err)
		}
	}
}

func TestPacedReveal(t *testing.T) {
	s := newTestSession(t, Options{Speed: 1, DelayBase: 5 * time.Millisecond})
	ctx := context.Background()
	if err := s.Dispatch(ctx, LoadImage{Path: writeImage(t, "paced.png", 3, 3)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	start := time.Now()
	if err := s.Dispatch(ctx, RevealAdditional{Count: 5}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected paced reveal to take at least 15ms, took %s", elapsed)
	}
	assertRatio(t, s, 5, 9)
}

func TestPacedRevealCancelled(t *testing.T) {
	s := newTestSession(t, Options{Speed: 1, DelayBase: time.Second})
	if err := s.Dispatch(context.Background(), LoadImage{Path: writeImage(t, "slow.png", 4, 4)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Dispatch(ctx, RevealAdditional{Count: 10})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	assertRatio(t, s, 1, 16)

	if err := s.SetSpeed(10); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	s.opts.DelayBase = 0
	if err := s.Dispatch(context.Background(), RevealAdditional{Count: 15}); err != nil {
		t.Fatalf("reveal after cancel: %v", err)
	}
	assertRatio(t, s, 16, 16)
}

func TestSnapshot(t *testing.T) {
	s := newTestSession(t, Options{})
	if s.Snapshot() != nil {
		t.Fatal("expected nil snapshot without image")
	}
	ctx := context.Background()
	if err := s.Dispatch(ctx, LoadImage{Path: writeImage(t, "snap.png", 3, 2)}); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	if snap.Rect != image.Rect(0, 0, 3, 2) {
		t.Fatalf("unexpected bounds %v", snap.Rect)
	}
	if err := s.Dispatch(ctx, RevealAdditional{Count: 6}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if snap.RGBAAt(0, 0) != (color.RGBA{A: 0xFF}) {
		t.Fatal("snapshot changed after reveal")
	}
	if got := s.Snapshot().RGBAAt(2, 1); got != (color.RGBA{R: 2, G: 1, B: 0xAA, A: 0xFF}) {
		t.Fatalf("unexpected revealed pixel %v", got)
	}
}

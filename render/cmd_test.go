package render

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"pixreveal/animate"
	"pixreveal/picture"
	"pixreveal/reveal"
	"pixreveal/session"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		in   string
		want session.Command
	}{
		{"add=5", session.RevealAdditional{Count: 5}},
		{" target=120 ", session.RevealToTarget{Target: 120}},
		{"add=0", session.RevealAdditional{Count: 0}},
		{"reset", session.Reset{}},
	}
	for _, tt := range tests {
		got, err := ParseStep(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parse %q: expected %+v, got %+v", tt.in, tt.want, got)
		}
	}

	for _, in := range []string{"", "add", "add=-1", "add=x", "target=", "reset=1", "shrink=3"} {
		if _, err := ParseStep(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for y := range 8 {
		for x := range 12 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 20), G: 0x80, B: uint8(y * 30), A: 0xFF})
		}
	}
	path := filepath.Join(dir, "src.png")
	if err := picture.Save(img, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func validCmd(dir, src string) *CLICmd {
	return &CLICmd{
		Image:          src,
		Out:            filepath.Join(dir, "out.gif"),
		Step:           []string{"add=30", "target=20", "target=60", "reset", "add=96"},
		Speed:          1,
		PixelsPerFrame: 10,
		Sampler:        "shuffle",
		Seed:           3,
		Palette:        "dominant:16",
		LabelColor:     "#ff0",
		Final:          filepath.Join(dir, "final.png"),
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	c := validCmd(dir, writeSource(t, dir))
	if err := c.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	notImage := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notImage, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(c.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(c.Steps))
	}
	if c.LabelFg != (color.NRGBA{0xFF, 0xFF, 0, 0xFF}) {
		t.Fatalf("unexpected label color %v", c.LabelFg)
	}

	broken := []func(c *CLICmd){
		func(c *CLICmd) { c.Out = "out.mp4" },
		func(c *CLICmd) { c.Final = "final.xyz" },
		func(c *CLICmd) { c.Speed = 11 },
		func(c *CLICmd) { c.PixelsPerFrame = 0 },
		func(c *CLICmd) { c.Step = []string{"grow=3"} },
		func(c *CLICmd) { c.LabelColor = "yellow" },
		func(c *CLICmd) { c.Palette = "kmeans:0" },
		func(c *CLICmd) { c.Image = notImage },
	}
	for i, mutate := range broken {
		c := validCmd(dir, c.Image)
		mutate(c)
		if err := c.Validate(nil); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	c := validCmd(dir, writeSource(t, dir))
	c.Label = true
	if err := c.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := c.Run(slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(c.Out)
	if err != nil {
		t.Fatalf("open animation: %v", err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode animation: %v", err)
	}
	// blank, 3 for add=30, 3 for target=60, blank after reset, 10 for add=96
	if len(anim.Image) != 18 {
		t.Fatalf("expected 18 frames, got %d", len(anim.Image))
	}

	final, _, err := picture.Decode(c.Final)
	if err != nil {
		t.Fatalf("decode final: %v", err)
	}
	for y := range 8 {
		for x := range 12 {
			if _, _, _, a := final.At(x, y).RGBA(); a != 0xFFFF {
				t.Fatalf("unexpected alpha at (%d,%d)", x, y)
			}
			r, g, b, _ := final.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0 {
				t.Fatalf("pixel (%d,%d) still hidden after revealing every pixel", x, y)
			}
		}
	}
}

func TestProgressCountsSteps(t *testing.T) {
	engine := reveal.New(reveal.WithSeed(5), reveal.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	rec := animate.NewRecorder(animate.RecorderOptions{Every: 4})
	prog := &progress{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	engine.SetObserver(reveal.Observers{rec, prog})

	if err := engine.Load(image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()
	if _, err := engine.RevealAdditional(ctx, 6); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := engine.RevealToTarget(ctx, 2); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := engine.RevealToTarget(ctx, 16); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	if prog.step != 3 {
		t.Fatalf("expected 3 steps, got %d", prog.step)
	}
	if prog.added != 0 {
		t.Fatalf("expected pending count reset, got %d", prog.added)
	}
	// both observers see every pixel: 6 pixels give 2 frames, 10 more give 3
	if n := len(rec.Frames()); n != 5 {
		t.Fatalf("expected 5 frames, got %d", n)
	}
}

package reveal

import "context"

// Run is a reveal operation in progress. Each call to Next reveals exactly
// one pixel, so the caller decides the pacing.
type Run struct {
	e     *Engine
	gen   uint64
	left  int
	added int
	done  bool
}

// Next reveals the next pixel. It returns false once the run has ended,
// either because every requested pixel was revealed, Stop was called, or
// the engine was reset or reloaded.
func (r *Run) Next() (Pixel, bool) {
	if r.done {
		return Pixel{}, false
	}
	if r.gen != r.e.gen {
		r.done = true
		return Pixel{}, false
	}
	if r.left == 0 {
		r.finish()
		return Pixel{}, false
	}

	px := r.e.revealOne()
	r.left--
	r.added++
	if r.left == 0 {
		r.finish()
	}
	return px, true
}

// Stop ends the run early. Pixels already revealed stay revealed.
func (r *Run) Stop() {
	if r.done || r.gen != r.e.gen {
		r.done = true
		return
	}
	r.finish()
}

func (r *Run) finish() {
	r.done = true
	r.e.complete(r)
}

// Drain reveals the remaining pixels back to back, checking ctx between
// pixels, and returns the number of pixels the run added.
func (r *Run) Drain(ctx context.Context) (int, error) {
	for !r.done {
		if err := ctx.Err(); err != nil {
			r.Stop()
			return r.added, err
		}
		r.Next()
	}
	return r.added, nil
}

func (r *Run) Done() bool {
	return r.done
}

// Remaining returns the number of pixels the run still has to reveal.
func (r *Run) Remaining() int {
	if r.done {
		return 0
	}
	return r.left
}

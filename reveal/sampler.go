package reveal

import (
	"fmt"
	"image"
	"math/rand/v2"
)

// Sampler picks unrevealed coordinates uniformly at random, without
// replacement.
type Sampler interface {
	// Reset prepares the sampler for a new, empty grid.
	Reset(r image.Rectangle)
	// Next returns a coordinate not contained in revealed. The caller
	// guarantees that at least one such coordinate exists.
	Next(rnd *rand.Rand, revealed *Set) image.Point
}

const (
	SamplerRejection = "rejection"
	SamplerShuffle   = "shuffle"
)

// Samplers lists the sampler names accepted by NewSampler.
var Samplers = []string{SamplerRejection, SamplerShuffle}

func NewSampler(name string) (Sampler, error) {
	switch name {
	case SamplerRejection:
		return &RejectionSampler{}, nil
	case SamplerShuffle, "":
		return &ShuffleSampler{}, nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", name)
	}
}

// RejectionSampler draws from the whole grid and retries on revealed
// coordinates. The expected number of draws grows as the grid fills up.
type RejectionSampler struct {
	rect image.Rectangle
}

func (s *RejectionSampler) Reset(r image.Rectangle) {
	s.rect = r
}

func (s *RejectionSampler) Next(rnd *rand.Rand, revealed *Set) image.Point {
	for {
		p := image.Pt(
			s.rect.Min.X+rnd.IntN(s.rect.Dx()),
			s.rect.Min.Y+rnd.IntN(s.rect.Dy()),
		)
		if !revealed.Contains(p) {
			return p
		}
	}
}

// ShuffleSampler runs a lazy Fisher-Yates shuffle over the grid indices.
// Only displaced entries are stored, so memory grows with the number of
// draws rather than with the grid size.
type ShuffleSampler struct {
	rect  image.Rectangle
	left  int
	swaps map[int]int
}

func (s *ShuffleSampler) Reset(r image.Rectangle) {
	s.rect = r
	s.left = r.Dx() * r.Dy()
	s.swaps = make(map[int]int)
}

func (s *ShuffleSampler) at(i int) int {
	if v, ok := s.swaps[i]; ok {
		return v
	}
	return i
}

func (s *ShuffleSampler) Next(rnd *rand.Rand, revealed *Set) image.Point {
	dx := s.rect.Dx()
	for s.left > 0 {
		j := rnd.IntN(s.left)
		last := s.left - 1
		v := s.at(j)
		if j != last {
			s.swaps[j] = s.at(last)
		}
		delete(s.swaps, last)
		s.left--

		p := image.Pt(s.rect.Min.X+v%dx, s.rect.Min.Y+v/dx)
		// the set may hold coordinates this sampler never handed out
		if !revealed.Contains(p) {
			return p
		}
	}
	panic("reveal: sampler called on a full grid")
}

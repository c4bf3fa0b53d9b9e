package reveal

import (
	"image"
	"math/bits"
)

// Set is the set of revealed coordinates of a width x height grid, stored
// as one bit per pixel.
type Set struct {
	words []uint64
	rect  image.Rectangle
	count int
}

func NewSet(r image.Rectangle) *Set {
	n := r.Dx() * r.Dy()
	return &Set{
		words: make([]uint64, (n+63)/64),
		rect:  r,
	}
}

// Len returns the number of coordinates in the set.
func (s *Set) Len() int {
	return s.count
}

// Cap returns the number of coordinates in the grid.
func (s *Set) Cap() int {
	return s.rect.Dx() * s.rect.Dy()
}

func (s *Set) index(p image.Point) (int, uint64) {
	i := (p.Y-s.rect.Min.Y)*s.rect.Dx() + (p.X - s.rect.Min.X)
	return i >> 6, 1 << uint(i&63)
}

func (s *Set) Contains(p image.Point) bool {
	if !p.In(s.rect) {
		return false
	}
	w, mask := s.index(p)
	return s.words[w]&mask != 0
}

// Add inserts p and reports whether it was not already present.
func (s *Set) Add(p image.Point) bool {
	if !p.In(s.rect) {
		return false
	}
	w, mask := s.index(p)
	if s.words[w]&mask != 0 {
		return false
	}
	s.words[w] |= mask
	s.count++
	return true
}

func (s *Set) Clear() {
	clear(s.words)
	s.count = 0
}

// Each calls f for every coordinate in the set, in row-major order.
func (s *Set) Each(f func(image.Point)) {
	dx := s.rect.Dx()
	for w, word := range s.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			word &^= 1 << uint(bit)
			i := w<<6 + bit
			f(image.Pt(s.rect.Min.X+i%dx, s.rect.Min.Y+i/dx))
		}
	}
}

// Points returns the coordinates in the set, in row-major order.
func (s *Set) Points() []image.Point {
	res := make([]image.Point, 0, s.count)
	s.Each(func(p image.Point) {
		res = append(res, p)
	})
	return res
}

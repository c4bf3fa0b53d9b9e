package palette

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type Method int

const (
	MethodDominantColor Method = iota
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominant"
	}
}

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// Adaptive extracts an n color palette from img. The first entry is always
// black, the color of unrevealed pixels.
func Adaptive(img image.Image, n int, method Method) color.Palette {
	n = max(2, min(n, MaxColors))

	var cands []weightedColor
	if method == MethodKMeans {
		cands = kmeansCandidates(img, n-1)
	}
	if len(cands) == 0 {
		cands = dominantCandidates(img, n-1)
	}

	res := color.Palette{color.RGBA{A: 0xFF}}
	for _, col := range selectDiverse(cands, n-1) {
		r, g, b := col.RGB255()
		c := color.RGBA{R: r, G: g, B: b, A: 0xFF}
		if !slices.Contains(res, color.Color(c)) {
			res = append(res, c)
		}
	}
	return res
}

func dominantCandidates(img image.Image, k int) []weightedColor {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	res := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		res = append(res, weightedColor{col: col.Clamped(), weight: max(c.Weight, 1e-6)})
	}
	return res
}

func kmeansCandidates(img image.Image, k int) []weightedColor {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// subsample large images
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/maxSamples)) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 0xFFFF,
				float64(g) / 0xFFFF,
				float64(bl) / 0xFFFF,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(max(k*2, k+2), len(dataset)))
	if err != nil {
		return nil
	}

	res := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		res = append(res, weightedColor{col: col, weight: float64(len(c.Observations))})
	}
	return res
}

// selectDiverse greedily picks k colors, starting from the heaviest one and
// then favoring candidates far, in Lab space, from those already picked.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	maxW := 0.0
	labs := make([][3]float64, len(cands))
	for i, c := range cands {
		l, a, b := c.col.Lab()
		labs[i] = [3]float64{l, a, b}
		maxW = max(maxW, c.weight)
	}

	picked := make([]int, 0, k)
	used := make([]bool, len(cands))
	seed := 0
	for i := range cands {
		if cands[i].weight > cands[seed].weight {
			seed = i
		}
	}
	picked = append(picked, seed)
	used[seed] = true

	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i := range cands {
			if used[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range picked {
				d0 := labs[i][0] - labs[s][0]
				d1 := labs[i][1] - labs[s][1]
				d2 := labs[i][2] - labs[s][2]
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(cands[i].weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, best)
	}

	res := make([]colorful.Color, 0, len(picked))
	for _, i := range picked {
		res = append(res, cands[i].col)
	}
	return res
}

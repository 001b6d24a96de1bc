// Package reference is a float64 rendition of the fixed-point noise
// algorithm. It shares the integer lattice hash with package noise and does
// everything else in floating point, which makes it a test oracle for the
// rounding error of the fixed-point pipeline. It is never used to produce
// noise values.
package reference

import (
	"math"

	"github.com/OCharnyshevich/fpnoise/pkg/noise"
)

var grad2 = [4][2]float64{
	{1, 1},
	{-1, 1},
	{1, -1},
	{-1, -1},
}

var grad3 = [4][3]float64{
	{1, 1, 1},
	{-1, -1, 1},
	{-1, 1, -1},
	{1, -1, -1},
}

// Generator evaluates float64 noise.
type Generator struct {
	hash2     *noise.Hasher
	hash3     *noise.Hasher
	amplitude float64
}

// NewGenerator creates a generator whose outputs are scaled by amplitude.
func NewGenerator(amplitude float64) *Generator {
	h2, err := noise.NewHasher(len(grad2))
	if err != nil {
		panic(err)
	}
	h3, err := noise.NewHasher(len(grad3))
	if err != nil {
		panic(err)
	}
	return &Generator{hash2: h2, hash3: h3, amplitude: amplitude}
}

// Noise2D returns 2D noise at (x, y) for the given scale and seed.
func (g *Generator) Noise2D(x, y, scale, seed int64) float64 {
	i, u := split(x, scale)
	j, v := split(y, scale)

	n00 := dot2(grad2[g.hash2.Sum(i, j, seed)], u, v)
	n10 := dot2(grad2[g.hash2.Sum(i+1, j, seed)], u-1, v)
	n01 := dot2(grad2[g.hash2.Sum(i, j+1, seed)], u, v-1)
	n11 := dot2(grad2[g.hash2.Sum(i+1, j+1, seed)], u-1, v-1)

	fu, fv := Fade(u), Fade(v)
	return g.amplitude * Lerp(Lerp(n00, n10, fu), Lerp(n01, n11, fu), fv)
}

// Noise3D returns 3D noise at (x, y, z) for the given scale and seed.
func (g *Generator) Noise3D(x, y, z, scale, seed int64) float64 {
	i, u := split(x, scale)
	j, v := split(y, scale)
	k, w := split(z, scale)

	corner := func(di, dj, dk int64) float64 {
		gi := g.hash3.Sum(i+di, j+dj, k+dk, seed)
		return dot3(grad3[gi], u-float64(di), v-float64(dj), w-float64(dk))
	}

	fu, fv, fw := Fade(u), Fade(v), Fade(w)
	x00 := Lerp(corner(0, 0, 0), corner(1, 0, 0), fu)
	x10 := Lerp(corner(0, 1, 0), corner(1, 1, 0), fu)
	x01 := Lerp(corner(0, 0, 1), corner(1, 0, 1), fu)
	x11 := Lerp(corner(0, 1, 1), corner(1, 1, 1), fu)
	return g.amplitude * Lerp(Lerp(x00, x10, fv), Lerp(x01, x11, fv), fw)
}

// OctaveNoise2D layers octaves of 2D noise, normalized by the total weight.
func (g *Generator) OctaveNoise2D(x, y, scale, seed int64, octaves int, persistence float64) float64 {
	var total, maxVal float64
	amplitude := 1.0
	for o := 0; o < octaves; o++ {
		total += g.Noise2D(x<<o, y<<o, scale, seed) * amplitude
		maxVal += amplitude
		amplitude *= persistence
	}
	return total / maxVal
}

// OctaveNoise3D layers octaves of 3D noise.
func (g *Generator) OctaveNoise3D(x, y, z, scale, seed int64, octaves int, persistence float64) float64 {
	var total, maxVal float64
	amplitude := 1.0
	for o := 0; o < octaves; o++ {
		total += g.Noise3D(x<<o, y<<o, z<<o, scale, seed) * amplitude
		maxVal += amplitude
		amplitude *= persistence
	}
	return total / maxVal
}

// Fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func Fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// split returns the cell index of x and the position inside the cell.
func split(x, scale int64) (int64, float64) {
	c, err := noise.Cell(x, scale)
	if err != nil {
		panic(err)
	}
	return c, float64(x-c*scale) / float64(scale)
}

func dot2(g [2]float64, x, y float64) float64 {
	return math.Sqrt2 / 2 * (g[0]*x + g[1]*y)
}

func dot3(g [3]float64, x, y, z float64) float64 {
	return math.Sqrt2 / 2 * (g[0]*x + g[1]*y + g[2]*z)
}

package noise

import (
	"math/big"

	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
)

// Palette is an immutable table of gradient directions. Every component
// has magnitude floor(2^F / sqrt(2)).
type Palette struct {
	dims int
	h    fixed.Num
	vecs [][]fixed.Num
}

// grad2 lists the four diagonals.
var grad2 = [4][2]int{
	{1, 1},
	{-1, 1},
	{1, -1},
	{-1, -1},
}

// grad3 lists four alternating cube diagonals. They form a regular
// tetrahedron, which keeps |noise| below 0.74 where all eight diagonals
// would reach 1.06 at a cell centre.
var grad3 = [4][3]int{
	{1, 1, 1},
	{-1, -1, 1},
	{-1, 1, -1},
	{1, -1, -1},
}

// HalfSqrt2 returns floor(2^F / sqrt(2)) computed as isqrt(2^(2F-1)).
func HalfSqrt2(ctx *fixed.Context) fixed.Num {
	sq := new(big.Int).Lsh(big.NewInt(1), 2*ctx.FracBits()-1)
	h, err := ctx.FromRaw(sq.Sqrt(sq))
	if err != nil {
		// h < 2^F and the context bound always exceeds 2^F.
		panic(err)
	}
	return h
}

// NewPalette2D returns the four diagonal gradients (±1/√2, ±1/√2).
func NewPalette2D(ctx *fixed.Context) *Palette {
	rows := make([][]int, len(grad2))
	for i := range grad2 {
		rows[i] = grad2[i][:]
	}
	return newPalette(ctx, 2, rows)
}

// NewPalette3D returns the four tetrahedral gradients (±1/√2, ±1/√2, ±1/√2)
// with an even number of negative components.
func NewPalette3D(ctx *fixed.Context) *Palette {
	rows := make([][]int, len(grad3))
	for i := range grad3 {
		rows[i] = grad3[i][:]
	}
	return newPalette(ctx, 3, rows)
}

func newPalette(ctx *fixed.Context, dims int, rows [][]int) *Palette {
	h := HalfSqrt2(ctx)
	neg := ctx.Neg(h)
	p := &Palette{dims: dims, h: h, vecs: make([][]fixed.Num, len(rows))}
	for i, row := range rows {
		v := make([]fixed.Num, dims)
		for j, s := range row {
			if s < 0 {
				v[j] = neg
			} else {
				v[j] = h
			}
		}
		p.vecs[i] = v
	}
	return p
}

// Dims returns the vector length.
func (p *Palette) Dims() int { return p.dims }

// Len returns the number of gradients.
func (p *Palette) Len() int { return len(p.vecs) }

// HalfSqrt2 returns the component magnitude used by the table.
func (p *Palette) HalfSqrt2() fixed.Num { return p.h }

// Gradient returns a copy of gradient i mod Len.
func (p *Palette) Gradient(i int) []fixed.Num {
	i %= len(p.vecs)
	if i < 0 {
		i += len(p.vecs)
	}
	return append([]fixed.Num(nil), p.vecs[i]...)
}

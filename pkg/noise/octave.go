package noise

import (
	"fmt"
	"math"

	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
)

// MaxOctaves bounds the number of layers in an octave sum.
const MaxOctaves = 16

// Octave2D layers octaves of 2D noise. Octave i samples the coordinate
// scaled by 2^i with weight persistence^i; the sum is normalized by the
// total weight so the result stays in the single-octave range.
func (e *Evaluator) Octave2D(x, y, scale, seed int64, octaves int, persistence fixed.Num) (Result, error) {
	r, err := e.octave([]int64{x, y}, scale, seed, octaves, persistence)
	if err != nil {
		return Result{}, fmt.Errorf("octave2d (%d, %d): %w", x, y, err)
	}
	return r, nil
}

// Octave3D layers octaves of 3D noise. See Octave2D.
func (e *Evaluator) Octave3D(x, y, z, scale, seed int64, octaves int, persistence fixed.Num) (Result, error) {
	r, err := e.octave([]int64{x, y, z}, scale, seed, octaves, persistence)
	if err != nil {
		return Result{}, fmt.Errorf("octave3d (%d, %d, %d): %w", x, y, z, err)
	}
	return r, nil
}

func (e *Evaluator) octave(coord []int64, scale, seed int64, octaves int, persistence fixed.Num) (Result, error) {
	if octaves < 1 || octaves > MaxOctaves {
		return Result{}, fmt.Errorf("%w: %d octaves, want 1..%d", ErrInvalidOctaves, octaves, MaxOctaves)
	}
	if e.ctx.Sign(persistence) <= 0 || e.ctx.Cmp(persistence, e.ctx.One()) > 0 {
		return Result{}, fmt.Errorf("%w: persistence %s outside (0, 1]", ErrInvalidOctaves, e.ctx.Format(persistence, 6))
	}

	pal, h := e.grad2, e.hash2
	if len(coord) == 3 {
		pal, h = e.grad3, e.hash3
	}

	q := newQuery(e.ctx)
	total := e.ctx.Zero()
	weight := e.ctx.Zero()
	amp := e.ctx.One()
	p := make([]int64, len(coord))
	for o := 0; o < octaves; o++ {
		for i, c := range coord {
			if c > math.MaxInt64>>o || c < math.MinInt64>>o {
				return Result{}, fmt.Errorf("octave %d coordinate %d: %w", o, c, fixed.ErrOverflow)
			}
			p[i] = c << o
		}
		r, err := e.eval(p, scale, seed, pal, h)
		if err != nil {
			return Result{}, err
		}
		q.steps += r.Steps
		total = q.add(total, q.mul(r.Value, amp))
		weight = q.add(weight, amp)
		amp = q.mul(amp, persistence)
	}
	v := q.div(total, weight)
	if q.err != nil {
		return Result{}, q.err
	}
	return Result{Value: v, Steps: q.steps}, nil
}

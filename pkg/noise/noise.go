// Package noise implements deterministic gradient noise in fixed-point
// arithmetic over a prime field.
//
// An Evaluator is configured once with a fixed-point context, a default
// scale, seed and amplitude, and is then queried with integer coordinates.
// Queries are pure: the same inputs give bit-identical results on every
// run, and one Evaluator may be used from any number of goroutines.
package noise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
)

var (
	ErrInvalidScale   = errors.New("scale must be positive")
	ErrInvalidOctaves = errors.New("invalid octave parameters")
	ErrDimension      = errors.New("dimension mismatch")
)

// Defaults matching the reference sweeps.
const (
	DefaultScale = 100
	DefaultSeed  = 69
)

// Result is a noise value together with the number of fixed-point
// operations spent computing it. Steps is informational only.
type Result struct {
	Value fixed.Num
	Steps int
}

// Evaluator computes 2D and 3D noise.
type Evaluator struct {
	ctx       *fixed.Context
	grad2     *Palette
	grad3     *Palette
	hash2     *Hasher
	hash3     *Hasher
	scale     int64
	seed      int64
	amplitude fixed.Num
	log       *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithScale sets the grid scale used by Noise2D and Noise3D.
func WithScale(scale int64) Option {
	return func(e *Evaluator) { e.scale = scale }
}

// WithSeed sets the seed used by Noise2D and Noise3D.
func WithSeed(seed int64) Option {
	return func(e *Evaluator) { e.seed = seed }
}

// WithAmplitude scales every output by a.
func WithAmplitude(a fixed.Num) Option {
	return func(e *Evaluator) { e.amplitude = a }
}

// WithLogger sets a logger for per-query debug traces.
func WithLogger(log *slog.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// NewEvaluator creates an evaluator over ctx.
func NewEvaluator(ctx *fixed.Context, opts ...Option) (*Evaluator, error) {
	if ctx == nil {
		return nil, fmt.Errorf("nil fixed-point context")
	}
	// fade needs 15 * 2^F as an intermediate.
	minBound := new(big.Int).Lsh(big.NewInt(16), ctx.FracBits())
	if ctx.Bound().Cmp(minBound) < 0 {
		return nil, fmt.Errorf("bound %s too small for interpolation, need at least 2^%d", ctx.Bound(), ctx.FracBits()+4)
	}

	e := &Evaluator{
		ctx:       ctx,
		grad2:     NewPalette2D(ctx),
		grad3:     NewPalette3D(ctx),
		scale:     DefaultScale,
		seed:      DefaultSeed,
		amplitude: ctx.One(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scale <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScale, e.scale)
	}

	var err error
	if e.hash2, err = NewHasher(e.grad2.Len()); err != nil {
		return nil, err
	}
	if e.hash3, err = NewHasher(e.grad3.Len()); err != nil {
		return nil, err
	}
	return e, nil
}

// Context returns the fixed-point context.
func (e *Evaluator) Context() *fixed.Context { return e.ctx }

// Scale returns the default scale.
func (e *Evaluator) Scale() int64 { return e.scale }

// Seed returns the default seed.
func (e *Evaluator) Seed() int64 { return e.seed }

// Noise2D evaluates 2D noise with the configured scale and seed.
func (e *Evaluator) Noise2D(x, y int64) (Result, error) {
	return e.Noise2DCustom(x, y, e.scale, e.seed)
}

// Noise3D evaluates 3D noise with the configured scale and seed.
func (e *Evaluator) Noise3D(x, y, z int64) (Result, error) {
	return e.Noise3DCustom(x, y, z, e.scale, e.seed)
}

// Noise2DCustom evaluates 2D noise at (x, y) on a grid of the given scale.
func (e *Evaluator) Noise2DCustom(x, y, scale, seed int64) (Result, error) {
	r, err := e.eval([]int64{x, y}, scale, seed, e.grad2, e.hash2)
	if err != nil {
		return Result{}, fmt.Errorf("noise2d (%d, %d): %w", x, y, err)
	}
	return r, nil
}

// Noise3DCustom evaluates 3D noise at (x, y, z) on a grid of the given scale.
func (e *Evaluator) Noise3DCustom(x, y, z, scale, seed int64) (Result, error) {
	r, err := e.eval([]int64{x, y, z}, scale, seed, e.grad3, e.hash3)
	if err != nil {
		return Result{}, fmt.Errorf("noise3d (%d, %d, %d): %w", x, y, z, err)
	}
	return r, nil
}

// Noise evaluates noise for a 2- or 3-element coordinate.
func (e *Evaluator) Noise(coord []int64, scale, seed int64) (Result, error) {
	switch len(coord) {
	case 2:
		return e.Noise2DCustom(coord[0], coord[1], scale, seed)
	case 3:
		return e.Noise3DCustom(coord[0], coord[1], coord[2], scale, seed)
	default:
		return Result{}, fmt.Errorf("%w: %d axes", ErrDimension, len(coord))
	}
}

func (e *Evaluator) eval(coord []int64, scale, seed int64, pal *Palette, h *Hasher) (Result, error) {
	if scale <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	d := len(coord)
	if d != pal.Dims() {
		return Result{}, fmt.Errorf("%w: %d axes, palette has %d", ErrDimension, d, pal.Dims())
	}

	// Cell indices feed the hash; gridlines bound the cell in coordinate
	// units.
	cell := make([]int64, d)
	lo := make([]int64, d)
	hi := make([]int64, d)
	for i, x := range coord {
		c, err := Cell(x, scale)
		if err != nil {
			return Result{}, err
		}
		if lo[i], err = Gridline(x, scale); err != nil {
			return Result{}, err
		}
		if hi[i], err = UpperGridline(x, scale); err != nil {
			return Result{}, err
		}
		cell[i] = c
	}

	// Corner k sits at the upper gridline on axis i when bit i of k is set.
	// The offset to corner 0 is the fractional position inside the cell.
	q := newQuery(e.ctx)
	vals := make([]fixed.Num, 1<<d)
	in := make([]int64, d+1)
	corner := make([]int64, d)
	var frac []fixed.Num
	for k := range vals {
		for i := 0; i < d; i++ {
			if k>>i&1 == 1 {
				corner[i], in[i] = hi[i], cell[i]+1
			} else {
				corner[i], in[i] = lo[i], cell[i]
			}
		}
		in[d] = seed
		off := q.offset(coord, corner, scale)
		if k == 0 {
			frac = off
		}
		vals[k] = q.dot(pal.Gradient(h.Sum(in...)), off)
	}

	// Collapse one axis at a time, x first.
	for i := 0; i < d; i++ {
		w := q.fade(frac[i])
		next := make([]fixed.Num, len(vals)/2)
		for k := range next {
			next[k] = q.lerp(vals[2*k], vals[2*k+1], w)
		}
		vals = next
	}
	v := q.mul(vals[0], e.amplitude)
	if q.err != nil {
		return Result{}, q.err
	}

	if e.log.Enabled(context.Background(), slog.LevelDebug) {
		e.log.Debug("noise query",
			"coord", coord,
			"scale", scale,
			"seed", seed,
			"value", e.ctx.Format(v, 8),
			"steps", q.steps,
		)
	}
	return Result{Value: v, Steps: q.steps}, nil
}

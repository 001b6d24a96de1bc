// Package sweep evaluates noise along a straight line of lattice points and
// exports the results.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
	"github.com/OCharnyshevich/fpnoise/pkg/noise"
)

// Spec describes a sweep: Steps samples at Origin + i*Direction.
type Spec struct {
	Origin    [3]int64
	Direction [3]int64
	Steps     int
	Dims      int // 2 ignores the z components
	Scale     int64
	Seed      int64
	Workers   int
}

// Sample is one evaluated point.
type Sample struct {
	Step  int     `csv:"step"`
	X     int64   `csv:"x"`
	Y     int64   `csv:"y"`
	Z     int64   `csv:"z"`
	Raw   string  `csv:"raw"` // signed fixed-point integer, value * 2^F
	Value float64 `csv:"value"`
	Steps int     `csv:"steps"`
}

// Coord returns the sample's coordinate for the given dimension count.
func (s Sample) Coord(dims int) []int64 {
	if dims == 2 {
		return []int64{s.X, s.Y}
	}
	return []int64{s.X, s.Y, s.Z}
}

// Validate checks the sweep parameters.
func (s Spec) Validate() error {
	if s.Steps < 1 {
		return fmt.Errorf("sweep needs at least one step, got %d", s.Steps)
	}
	if s.Dims != 2 && s.Dims != 3 {
		return fmt.Errorf("sweep dims %d: %w", s.Dims, noise.ErrDimension)
	}
	if s.Scale <= 0 {
		return fmt.Errorf("sweep scale %d: %w", s.Scale, noise.ErrInvalidScale)
	}
	if s.Workers < 1 {
		return fmt.Errorf("sweep needs at least one worker, got %d", s.Workers)
	}
	return nil
}

// Points returns the coordinates visited by the sweep. It fails with
// fixed.ErrOverflow if any coordinate leaves the int64 range.
func (s Spec) Points() ([][3]int64, error) {
	pts := make([][3]int64, s.Steps)
	for i := range pts {
		for a := 0; a < 3; a++ {
			v := new(big.Int).Mul(big.NewInt(int64(i)), big.NewInt(s.Direction[a]))
			v.Add(v, big.NewInt(s.Origin[a]))
			if !v.IsInt64() {
				return nil, fmt.Errorf("sweep step %d axis %d: %w", i, a, fixed.ErrOverflow)
			}
			pts[i][a] = v.Int64()
		}
	}
	return pts, nil
}

// Run evaluates every point of spec on e using up to spec.Workers
// goroutines. Results are in step order. The first failing query cancels
// the rest.
func Run(ctx context.Context, e *noise.Evaluator, spec Spec) ([]Sample, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	pts, err := spec.Points()
	if err != nil {
		return nil, err
	}

	fc := e.Context()
	out := make([]Sample, len(pts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spec.Workers)

	for i, p := range pts {
		if gctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := Sample{Step: i, X: p[0], Y: p[1], Z: p[2]}
			r, err := e.Noise(s.Coord(spec.Dims), spec.Scale, spec.Seed)
			if err != nil {
				return fmt.Errorf("sweep step %d: %w", i, err)
			}
			s.Raw = fc.Lift(r.Value).String()
			s.Value = fc.ToFloat(r.Value)
			s.Steps = r.Steps
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return out, nil
}

// ErrEmpty is returned when an operation needs at least one sample.
var ErrEmpty = errors.New("no samples")

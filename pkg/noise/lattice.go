package noise

import (
	"fmt"
	"math"
	"math/big"

	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
)

// Cells are half-open: a coordinate x belongs to cell floor(x/scale), whose
// lower gridline is cell*scale. Exact multiples of scale are their own
// gridline, and negative coordinates round toward negative infinity, so -1
// at scale 100 lies in cell -1 with gridline -100.

// Cell returns floor(x / scale).
func Cell(x, scale int64) (int64, error) {
	if scale <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	c := x / scale
	if x%scale != 0 && x < 0 {
		c--
	}
	return c, nil
}

// Gridline returns the lower gridline of x, floor(x/scale)*scale.
func Gridline(x, scale int64) (int64, error) {
	c, err := Cell(x, scale)
	if err != nil {
		return 0, err
	}
	// c*scale <= x, so only the negative side can leave int64.
	if c < math.MinInt64/scale {
		return 0, fmt.Errorf("gridline of %d at scale %d: %w", x, scale, fixed.ErrOverflow)
	}
	return c * scale, nil
}

// Gridlines returns the lower gridlines of (x, y).
func Gridlines(x, y, scale int64) (gx, gy int64, err error) {
	if gx, err = Gridline(x, scale); err != nil {
		return 0, 0, err
	}
	if gy, err = Gridline(y, scale); err != nil {
		return 0, 0, err
	}
	return gx, gy, nil
}

// Gridlines3D returns the lower gridlines of (x, y, z).
func Gridlines3D(x, y, z, scale int64) (gx, gy, gz int64, err error) {
	if gx, gy, err = Gridlines(x, y, scale); err != nil {
		return 0, 0, 0, err
	}
	if gz, err = Gridline(z, scale); err != nil {
		return 0, 0, 0, err
	}
	return gx, gy, gz, nil
}

// UpperGridline returns the gridline one cell above Gridline(x, scale).
func UpperGridline(x, scale int64) (int64, error) {
	g, err := Gridline(x, scale)
	if err != nil {
		return 0, err
	}
	if g > math.MaxInt64-scale {
		return 0, fmt.Errorf("upper gridline of %d at scale %d: %w", x, scale, fixed.ErrOverflow)
	}
	return g + scale, nil
}

// Offset returns (p - corner) / scale per axis, in cell units.
func Offset(ctx *fixed.Context, p, corner []int64, scale int64) ([]fixed.Num, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	if len(p) != len(corner) {
		return nil, fmt.Errorf("%w: point has %d axes, corner %d", ErrDimension, len(p), len(corner))
	}
	s := big.NewInt(scale)
	out := make([]fixed.Num, len(p))
	for i := range p {
		d := new(big.Int).Sub(big.NewInt(p[i]), big.NewInt(corner[i]))
		v, err := ctx.FromRat(new(big.Rat).SetFrac(d, s))
		if err != nil {
			return nil, fmt.Errorf("offset axis %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

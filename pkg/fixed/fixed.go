// Package fixed implements signed binary fixed-point arithmetic on top of a
// prime field.
//
// A Num stores a field residue r and stands for lift(r) / 2^F. Every
// operation lifts its operands to signed integers, computes the exact result
// with floor rounding and range-checks it against the context bound before
// reducing it back into the field. Results that would cross the bound fail
// with ErrOverflow; nothing wraps silently.
package fixed

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/OCharnyshevich/fpnoise/pkg/felt"
)

// Defaults used by Default.
const (
	DefaultFracBits  = 61
	DefaultBoundBits = 128
)

var (
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrDivisionByZero = felt.ErrDivisionByZero
)

// Num is a fixed-point number. The zero value is 0.
type Num struct {
	e felt.Element
}

// Residue returns the stored field residue.
func (n Num) Residue() *big.Int { return n.e.Residue() }

// Equal reports whether n and m are the same value.
func (n Num) Equal(m Num) bool { return n.e.Equal(m.e) }

func (n Num) String() string { return n.e.String() }

// Context carries the field, the number of fractional bits F and the range
// bound. It is immutable and safe for concurrent use.
type Context struct {
	field *felt.Field
	frac  uint
	one   *big.Int
	bound *big.Int
}

var def = mustDefault()

func mustDefault() *Context {
	c, err := New(felt.Stark(), DefaultFracBits, new(big.Int).Lsh(big.NewInt(1), DefaultBoundBits))
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the context over the Stark field with F = 61 and a
// 2^128 range bound.
func Default() *Context { return def }

// New creates a context. The bound must exceed 2^F so that 1 is
// representable, and must not exceed (p-1)/4 so that the field sum or
// difference of two in-range values lifts back to the exact integer.
func New(field *felt.Field, fracBits uint, bound *big.Int) (*Context, error) {
	if field == nil {
		return nil, fmt.Errorf("nil field")
	}
	if fracBits == 0 {
		return nil, fmt.Errorf("fractional bits must be positive")
	}
	one := new(big.Int).Lsh(big.NewInt(1), fracBits)
	if bound == nil || bound.Cmp(one) <= 0 {
		return nil, fmt.Errorf("bound must exceed 2^%d", fracBits)
	}
	if quarter := new(big.Int).Rsh(field.Half(), 1); bound.Cmp(quarter) > 0 {
		return nil, fmt.Errorf("bound %s exceeds a quarter of the modulus", bound)
	}
	return &Context{
		field: field,
		frac:  fracBits,
		one:   one,
		bound: new(big.Int).Set(bound),
	}, nil
}

// Field returns the underlying field.
func (c *Context) Field() *felt.Field { return c.field }

// FracBits returns F.
func (c *Context) FracBits() uint { return c.frac }

// Bound returns a copy of the range bound.
func (c *Context) Bound() *big.Int { return new(big.Int).Set(c.bound) }

// Unit returns a copy of 2^F.
func (c *Context) Unit() *big.Int { return new(big.Int).Set(c.one) }

// Zero returns 0.
func (c *Context) Zero() Num { return Num{e: c.field.Zero()} }

// One returns 1.
func (c *Context) One() Num { return Num{e: c.field.FromBig(c.one)} }

// Half returns 1/2.
func (c *Context) Half() Num {
	return Num{e: c.field.FromBig(new(big.Int).Rsh(c.one, 1))}
}

// Lift returns the signed raw value of n, that is n * 2^F as an integer.
func (c *Context) Lift(n Num) *big.Int { return c.field.Lift(n.e) }

// check range-checks a raw signed value and stores it.
func (c *Context) check(v *big.Int) (Num, error) {
	if v.CmpAbs(c.bound) >= 0 {
		return Num{}, ErrOverflow
	}
	return Num{e: c.field.FromBig(v)}, nil
}

// FromRaw stores a raw signed value (already scaled by 2^F).
func (c *Context) FromRaw(v *big.Int) (Num, error) { return c.check(v) }

// FromResidue interprets a field residue as a fixed-point number.
func (c *Context) FromResidue(r *big.Int) (Num, error) {
	return c.check(c.field.Lift(c.field.FromBig(r)))
}

// FromInt returns n.
func (c *Context) FromInt(n int64) (Num, error) {
	return c.check(new(big.Int).Mul(big.NewInt(n), c.one))
}

// FromRatio returns floor(num * 2^F / den).
func (c *Context) FromRatio(num, den int64) (Num, error) {
	if den == 0 {
		return Num{}, ErrDivisionByZero
	}
	v := new(big.Int).Mul(big.NewInt(num), c.one)
	return c.check(floorDiv(v, big.NewInt(den)))
}

// FromRat returns floor(r * 2^F).
func (c *Context) FromRat(r *big.Rat) (Num, error) {
	v := new(big.Int).Mul(r.Num(), c.one)
	return c.check(floorDiv(v, r.Denom()))
}

// Parse reads a decimal ("0.75", "-2") or fraction ("3/4") literal.
func (c *Context) Parse(s string) (Num, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Num{}, fmt.Errorf("parse fixed-point literal %q", s)
	}
	return c.FromRat(r)
}

// Rat returns n as an exact rational.
func (c *Context) Rat(n Num) *big.Rat {
	return new(big.Rat).SetFrac(c.Lift(n), c.one)
}

// ToFloat converts n to the nearest float64. It exists for display and
// test oracles; no arithmetic in this module goes through floats.
func (c *Context) ToFloat(n Num) float64 {
	f, _ := c.Rat(n).Float64()
	return f
}

// Format renders n in decimal with prec fractional digits.
func (c *Context) Format(n Num, prec int) string {
	return c.Rat(n).FloatString(prec)
}

// Add returns a + b, computed in the field and range-checked after the
// lift.
func (c *Context) Add(a, b Num) (Num, error) {
	return c.check(c.field.Lift(c.field.Add(a.e, b.e)))
}

// Sub returns a - b.
func (c *Context) Sub(a, b Num) (Num, error) {
	return c.check(c.field.Lift(c.field.Sub(a.e, b.e)))
}

// Neg returns -a. The bound is symmetric so negation cannot overflow.
func (c *Context) Neg(a Num) Num {
	return Num{e: c.field.Neg(a.e)}
}

// Abs returns |a|.
func (c *Context) Abs(a Num) Num {
	if c.Sign(a) < 0 {
		return c.Neg(a)
	}
	return a
}

// Sign returns -1, 0 or +1.
func (c *Context) Sign(a Num) int { return c.Lift(a).Sign() }

// Cmp compares a and b as signed values.
func (c *Context) Cmp(a, b Num) int { return c.Lift(a).Cmp(c.Lift(b)) }

// Mul returns floor(a * b / 2^F).
func (c *Context) Mul(a, b Num) (Num, error) {
	p := new(big.Int).Mul(c.Lift(a), c.Lift(b))
	return c.check(p.Rsh(p, c.frac))
}

// MulInt returns a * k exactly.
func (c *Context) MulInt(a Num, k int64) (Num, error) {
	return c.check(new(big.Int).Mul(c.Lift(a), big.NewInt(k)))
}

// Div returns floor(a * 2^F / b).
func (c *Context) Div(a, b Num) (Num, error) {
	lb := c.Lift(b)
	if lb.Sign() == 0 {
		return Num{}, ErrDivisionByZero
	}
	v := new(big.Int).Lsh(c.Lift(a), c.frac)
	return c.check(floorDiv(v, lb))
}

// Dot returns the sum of a[i]*b[i], each product floored.
func (c *Context) Dot(a, b []Num) (Num, error) {
	if len(a) != len(b) {
		return Num{}, fmt.Errorf("dot: length mismatch %d != %d", len(a), len(b))
	}
	acc := c.Zero()
	for i := range a {
		p, err := c.Mul(a[i], b[i])
		if err != nil {
			return Num{}, err
		}
		if acc, err = c.Add(acc, p); err != nil {
			return Num{}, err
		}
	}
	return acc, nil
}

// floorDiv returns floor(a / b) for any signs.
func floorDiv(a, b *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(a, b, new(big.Int))
	if m.Sign() != 0 && (m.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

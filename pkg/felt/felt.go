// Package felt implements elements of a large prime field.
//
// Elements are stored as canonical residues in [0, p). Signed values are
// recovered with Lift, which maps the upper half of the field to negative
// integers. Every signed interpretation in this module goes through Lift.
package felt

import (
	"errors"
	"fmt"
	"math/big"
)

// StarkPrime is 2^251 + 17*2^192 + 1, the default modulus.
const StarkPrime = "3618502788666131213697322783095070105623107215331596699973092056135872020481"

var ErrDivisionByZero = errors.New("division by zero")

// Field holds the modulus and its half point. A Field is immutable and safe
// for concurrent use.
type Field struct {
	p    *big.Int
	half *big.Int // (p-1)/2
}

// Element is a residue modulo the field's prime. The zero value is the
// zero residue.
type Element struct {
	v *big.Int
}

var zero = new(big.Int)

func (a Element) val() *big.Int {
	if a.v == nil {
		return zero
	}
	return a.v
}

var stark = mustField(StarkPrime)

// Stark returns the field over StarkPrime.
func Stark() *Field { return stark }

// NewField creates a field with modulus p. Primality is not checked, only
// that p is odd and greater than 3 so that inverses and the sign lift are
// well defined for the values this module produces.
func NewField(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(3)) <= 0 {
		return nil, fmt.Errorf("modulus must be greater than 3")
	}
	if p.Bit(0) == 0 {
		return nil, fmt.Errorf("modulus must be odd")
	}
	pp := new(big.Int).Set(p)
	half := new(big.Int).Rsh(pp, 1)
	return &Field{p: pp, half: half}, nil
}

// ParseField parses a decimal modulus.
func ParseField(s string) (*Field, error) {
	p, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("parse modulus %q", s)
	}
	return NewField(p)
}

func mustField(s string) *Field {
	f, err := ParseField(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.p) }

// Half returns a copy of (p-1)/2, the largest positive liftable value.
func (f *Field) Half() *big.Int { return new(big.Int).Set(f.half) }

func (f *Field) elem(v *big.Int) Element {
	return Element{v: v.Mod(v, f.p)}
}

// FromInt64 returns n mod p.
func (f *Field) FromInt64(n int64) Element {
	return f.elem(big.NewInt(n))
}

// FromBig returns x mod p. Negative x wraps to the upper half.
func (f *Field) FromBig(x *big.Int) Element {
	return f.elem(new(big.Int).Set(x))
}

// Zero returns the additive identity.
func (f *Field) Zero() Element { return Element{v: new(big.Int)} }

// Add returns a + b.
func (f *Field) Add(a, b Element) Element {
	return f.elem(new(big.Int).Add(a.val(), b.val()))
}

// Sub returns a - b.
func (f *Field) Sub(a, b Element) Element {
	return f.elem(new(big.Int).Sub(a.val(), b.val()))
}

// Neg returns -a.
func (f *Field) Neg(a Element) Element {
	return f.elem(new(big.Int).Neg(a.val()))
}

// Mul returns a * b.
func (f *Field) Mul(a, b Element) Element {
	return f.elem(new(big.Int).Mul(a.val(), b.val()))
}

// Inv returns the multiplicative inverse of a.
func (f *Field) Inv(a Element) (Element, error) {
	if a.IsZero() {
		return Element{}, ErrDivisionByZero
	}
	inv := new(big.Int).ModInverse(a.val(), f.p)
	if inv == nil {
		return Element{}, fmt.Errorf("%s has no inverse modulo %s", a.val(), f.p)
	}
	return Element{v: inv}, nil
}

// Div returns a * b^-1.
func (f *Field) Div(a, b Element) (Element, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return Element{}, err
	}
	return f.Mul(a, inv), nil
}

// Lift returns the signed integer represented by a: a itself when
// a <= (p-1)/2, otherwise a - p.
func (f *Field) Lift(a Element) *big.Int {
	v := a.val()
	if v.Cmp(f.half) <= 0 {
		return new(big.Int).Set(v)
	}
	return new(big.Int).Sub(v, f.p)
}

// Residue returns a copy of the stored residue in [0, p).
func (a Element) Residue() *big.Int {
	return new(big.Int).Set(a.val())
}

// IsZero reports whether a is the zero residue.
func (a Element) IsZero() bool { return a.val().Sign() == 0 }

// Equal reports whether a and b hold the same residue.
func (a Element) Equal(b Element) bool {
	return a.val().Cmp(b.val()) == 0
}

func (a Element) String() string { return a.val().String() }

package fixed

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/OCharnyshevich/fpnoise/pkg/felt"
)

const tolerance = 1.0 / 10000

func num(t *testing.T, c *Context, s string) Num {
	t.Helper()
	n, err := c.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func ints(t *testing.T, c *Context, vs ...int64) []Num {
	t.Helper()
	out := make([]Num, len(vs))
	for i, v := range vs {
		n, err := c.FromInt(v)
		if err != nil {
			t.Fatalf("FromInt(%d): %v", v, err)
		}
		out[i] = n
	}
	return out
}

func TestDefaultContext(t *testing.T) {
	c := Default()
	if c.FracBits() != 61 {
		t.Errorf("FracBits = %d, want 61", c.FracBits())
	}
	if got := c.Lift(c.One()); got.Cmp(new(big.Int).Lsh(big.NewInt(1), 61)) != 0 {
		t.Errorf("One = %s, want 2^61", got)
	}
	if got := c.Lift(c.Half()); got.Cmp(new(big.Int).Lsh(big.NewInt(1), 60)) != 0 {
		t.Errorf("Half = %s, want 2^60", got)
	}
}

func TestNewRejects(t *testing.T) {
	small, err := felt.NewField(big.NewInt(1<<20 + 7))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		field *felt.Field
		frac  uint
		bound *big.Int
	}{
		{"nil field", nil, 8, big.NewInt(1 << 10)},
		{"zero frac", small, 0, big.NewInt(1 << 10)},
		{"bound below one", small, 8, big.NewInt(1 << 8)},
		{"bound above half", small, 8, big.NewInt(1 << 20)},
		{"bound above quarter", small, 8, big.NewInt(1<<18 + 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.field, tt.frac, tt.bound); err == nil {
				t.Error("New succeeded, want error")
			}
		})
	}
}

// TestAddSubInSmallField runs sums through a field small enough that a
// loose bound would let them wrap past the half point.
func TestAddSubInSmallField(t *testing.T) {
	small, err := felt.NewField(big.NewInt(1<<20 + 7))
	if err != nil {
		t.Fatal(err)
	}
	bound := big.NewInt(1 << 18)
	c, err := New(small, 8, bound)
	if err != nil {
		t.Fatal(err)
	}
	top, _ := c.FromRaw(big.NewInt(1<<18 - 1))
	bottom := c.Neg(top)
	one, _ := c.FromRaw(big.NewInt(1))

	if _, err := c.Add(top, one); !errors.Is(err, ErrOverflow) {
		t.Errorf("top + 1 error = %v, want ErrOverflow", err)
	}
	if _, err := c.Sub(bottom, one); !errors.Is(err, ErrOverflow) {
		t.Errorf("bottom - 1 error = %v, want ErrOverflow", err)
	}
	if _, err := c.Add(top, top); !errors.Is(err, ErrOverflow) {
		t.Errorf("top + top error = %v, want ErrOverflow", err)
	}

	tests := []struct {
		a, b     int64
		sum, dif int64
	}{
		{1000, 24, 1024, 976},
		{-5000, 7000, 2000, -12000},
		{1 << 17, -(1 << 17), 0, 1 << 18},
	}
	for _, tt := range tests {
		a, _ := c.FromRaw(big.NewInt(tt.a))
		b, _ := c.FromRaw(big.NewInt(tt.b))
		if got, err := c.Add(a, b); err != nil || c.Lift(got).Int64() != tt.sum {
			t.Errorf("Add(%d, %d) = %v, %v, want %d", tt.a, tt.b, c.Lift(got), err, tt.sum)
		}
		got, err := c.Sub(a, b)
		if tt.dif >= 1<<18 {
			if !errors.Is(err, ErrOverflow) {
				t.Errorf("Sub(%d, %d) error = %v, want ErrOverflow", tt.a, tt.b, err)
			}
			continue
		}
		if err != nil || c.Lift(got).Int64() != tt.dif {
			t.Errorf("Sub(%d, %d) = %v, %v, want %d", tt.a, tt.b, c.Lift(got), err, tt.dif)
		}
	}
}

func TestLiftRoundTrip(t *testing.T) {
	c := Default()
	for _, v := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		n, err := c.FromRaw(big.NewInt(v))
		if err != nil {
			t.Fatalf("FromRaw(%d): %v", v, err)
		}
		if got := c.Lift(n).Int64(); got != v {
			t.Errorf("Lift(FromRaw(%d)) = %d", v, got)
		}
	}

	// A negative number is stored in the upper half of the field.
	n, _ := c.FromInt(-1)
	if n.Residue().Cmp(c.Field().Half()) <= 0 {
		t.Errorf("residue of -1 = %s, want upper half", n.Residue())
	}
	back, err := c.FromResidue(n.Residue())
	if err != nil {
		t.Fatalf("FromResidue: %v", err)
	}
	if !back.Equal(n) {
		t.Errorf("FromResidue(%s) = %s", n.Residue(), back)
	}
}

func TestDot(t *testing.T) {
	c := Default()
	tests := []struct {
		name string
		a, b []int64
		want int64
	}{
		{"positive", []int64{1, 2}, []int64{3, 4}, 11},
		{"orthogonal", []int64{1, 0}, []int64{0, 1}, 0},
		{"mixed signs", []int64{-1, 2}, []int64{3, -4}, -11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Dot(ints(t, c, tt.a...), ints(t, c, tt.b...))
			if err != nil {
				t.Fatalf("Dot: %v", err)
			}
			want := ints(t, c, tt.want)[0]
			if !got.Equal(want) {
				t.Errorf("Dot(%v, %v) = %s, want %s", tt.a, tt.b, c.Lift(got), c.Lift(want))
			}
		})
	}

	if _, err := c.Dot(ints(t, c, 1, 2), ints(t, c, 1)); err == nil {
		t.Error("Dot with mismatched lengths succeeded")
	}
}

func TestMulFloors(t *testing.T) {
	c := Default()
	tiny, _ := c.FromRaw(big.NewInt(1)) // 2^-61

	tests := []struct {
		name string
		a, b Num
		want int64 // raw
	}{
		{"tiny squared floors to zero", tiny, tiny, 0},
		{"negative tiny squared", c.Neg(tiny), tiny, -1},
		{"half times tiny", c.Half(), tiny, 0},
		{"minus half times tiny", c.Neg(c.Half()), tiny, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Mul(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Mul: %v", err)
			}
			if c.Lift(got).Int64() != tt.want {
				t.Errorf("raw = %s, want %d", c.Lift(got), tt.want)
			}
		})
	}
}

func TestDivFloors(t *testing.T) {
	c := Default()
	tests := []struct {
		a, b string
		want string
	}{
		{"1", "2", "0.5"},
		{"-3", "4", "-0.75"},
		{"7", "-2", "-3.5"},
		{"-7", "-2", "3.5"},
	}
	for _, tt := range tests {
		got, err := c.Div(num(t, c, tt.a), num(t, c, tt.b))
		if err != nil {
			t.Fatalf("Div(%s, %s): %v", tt.a, tt.b, err)
		}
		if want := num(t, c, tt.want); !got.Equal(want) {
			t.Errorf("Div(%s, %s) = %s, want %s", tt.a, tt.b, c.Format(got, 6), tt.want)
		}
	}

	// 1/3 is not dyadic: floor for positive, one unit lower for negative.
	third, _ := c.Div(c.One(), num(t, c, "3"))
	negThird, _ := c.Div(c.Neg(c.One()), num(t, c, "3"))
	sum := new(big.Int).Add(c.Lift(third), c.Lift(negThird))
	if sum.Int64() != -1 {
		t.Errorf("floor(1/3) + floor(-1/3) = %s raw, want -1", sum)
	}
}

func TestDivisionByZero(t *testing.T) {
	c := Default()
	if _, err := c.Div(c.One(), c.Zero()); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Div by zero error = %v, want ErrDivisionByZero", err)
	}
	if _, err := c.FromRatio(1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("FromRatio(1, 0) error = %v, want ErrDivisionByZero", err)
	}
}

func TestFromRatio(t *testing.T) {
	c := Default()
	tests := []struct {
		num, den int64
		want     string
	}{
		{0, 100, "0"},
		{50, 100, "1/2"},
		{-50, 100, "-1/2"},
		{599, 100, "5.99"},
		{-1, 100, "-0.01"},
	}
	for _, tt := range tests {
		got, err := c.FromRatio(tt.num, tt.den)
		if err != nil {
			t.Fatalf("FromRatio(%d, %d): %v", tt.num, tt.den, err)
		}
		if want := num(t, c, tt.want); !got.Equal(want) {
			t.Errorf("FromRatio(%d, %d) = %s, want %s", tt.num, tt.den, c.Lift(got), c.Lift(want))
		}
	}
}

func TestOverflow(t *testing.T) {
	c := Default()
	big60, err := c.FromInt(1 << 60)
	if err != nil {
		t.Fatalf("FromInt(2^60): %v", err)
	}

	// 2^60 * 2^60 = 2^120 as a value, 2^181 raw: beyond the 2^128 bound.
	if _, err := c.Mul(big60, big60); !errors.Is(err, ErrOverflow) {
		t.Errorf("Mul overflow error = %v, want ErrOverflow", err)
	}
	if _, err := c.MulInt(big60, 1<<7); !errors.Is(err, ErrOverflow) {
		t.Errorf("MulInt overflow error = %v, want ErrOverflow", err)
	}
	if _, err := c.Add(big60, big60); err != nil {
		t.Errorf("Add(2^60, 2^60) = %v, want in range", err)
	}

	limit := new(big.Int).Sub(c.Bound(), big.NewInt(1))
	top, err := c.FromRaw(limit)
	if err != nil {
		t.Fatalf("FromRaw(bound-1): %v", err)
	}
	if _, err := c.Add(top, top); !errors.Is(err, ErrOverflow) {
		t.Errorf("Add at bound error = %v, want ErrOverflow", err)
	}
	if _, err := c.Sub(c.Neg(top), top); !errors.Is(err, ErrOverflow) {
		t.Errorf("Sub at bound error = %v, want ErrOverflow", err)
	}
	if _, err := c.FromRaw(c.Bound()); !errors.Is(err, ErrOverflow) {
		t.Errorf("FromRaw(bound) error = %v, want ErrOverflow", err)
	}
}

func TestParse(t *testing.T) {
	c := Default()
	if _, err := c.Parse("not a number"); err == nil {
		t.Error("Parse succeeded on garbage")
	}
	a := num(t, c, "0.75")
	b := num(t, c, "3/4")
	if !a.Equal(b) {
		t.Errorf("0.75 = %s, 3/4 = %s", c.Lift(a), c.Lift(b))
	}
	if got := c.Format(num(t, c, "-1.25"), 2); got != "-1.25" {
		t.Errorf("Format = %q, want -1.25", got)
	}
}

func TestSignCmpAbs(t *testing.T) {
	c := Default()
	neg := num(t, c, "-2.5")
	pos := num(t, c, "1.5")

	if c.Sign(neg) != -1 || c.Sign(pos) != 1 || c.Sign(c.Zero()) != 0 {
		t.Error("Sign mismatch")
	}
	if c.Cmp(neg, pos) != -1 || c.Cmp(pos, neg) != 1 || c.Cmp(pos, pos) != 0 {
		t.Error("Cmp mismatch")
	}
	if got := c.Abs(neg); !got.Equal(num(t, c, "2.5")) {
		t.Errorf("Abs(-2.5) = %s", c.Format(got, 3))
	}
}

// TestErrorBudget compares chained operations against float64 and against
// exact rational arithmetic.
func TestErrorBudget(t *testing.T) {
	c := Default()
	inputs := [][2]string{
		{"0.1", "0.7"},
		{"-0.333", "0.9"},
		{"0.70710678", "-0.70710678"},
		{"3.14159", "0.001"},
	}
	rawTol := big.NewRat(1<<16, 1)

	for _, in := range inputs {
		a, b := num(t, c, in[0]), num(t, c, in[1])
		fa, fb := c.ToFloat(a), c.ToFloat(b)

		prod, err := c.Mul(a, b)
		if err != nil {
			t.Fatal(err)
		}
		quo, err := c.Div(a, b)
		if err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinAbs(c.ToFloat(prod), fa*fb, tolerance) {
			t.Errorf("%s*%s = %v, float %v", in[0], in[1], c.ToFloat(prod), fa*fb)
		}
		if !scalar.EqualWithinAbs(c.ToFloat(quo), fa/fb, tolerance) {
			t.Errorf("%s/%s = %v, float %v", in[0], in[1], c.ToFloat(quo), fa/fb)
		}

		exact := new(big.Rat).Mul(c.Rat(a), c.Rat(b))
		diff := new(big.Rat).Sub(exact, c.Rat(prod))
		diff.Mul(diff, new(big.Rat).SetInt(c.Unit()))
		if diff.Abs(diff).Cmp(rawTol) > 0 {
			t.Errorf("%s*%s off by %s raw units", in[0], in[1], diff.FloatString(2))
		}
	}
}

func TestToFloat(t *testing.T) {
	c := Default()
	if got := c.ToFloat(num(t, c, "-0.5")); got != -0.5 {
		t.Errorf("ToFloat(-0.5) = %v", got)
	}
	half := math.Sqrt2 / 2
	n, err := c.FromRat(new(big.Rat).SetFloat64(half))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.ToFloat(n); math.Abs(got-half) > 1e-15 {
		t.Errorf("ToFloat(FromRat(%v)) = %v", half, got)
	}
}

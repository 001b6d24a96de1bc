package noise

import "github.com/OCharnyshevich/fpnoise/pkg/fixed"

// query threads one evaluation through a fixed-point context. It counts
// arithmetic steps and keeps the first error; once an error is recorded
// every further operation is a no-op returning zero.
type query struct {
	ctx   *fixed.Context
	steps int
	err   error
}

func newQuery(ctx *fixed.Context) *query { return &query{ctx: ctx} }

func (q *query) do(f func() (fixed.Num, error)) fixed.Num {
	if q.err != nil {
		return fixed.Num{}
	}
	q.steps++
	v, err := f()
	if err != nil {
		q.err = err
		return fixed.Num{}
	}
	return v
}

func (q *query) add(a, b fixed.Num) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.Add(a, b) })
}

func (q *query) sub(a, b fixed.Num) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.Sub(a, b) })
}

func (q *query) mul(a, b fixed.Num) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.Mul(a, b) })
}

func (q *query) div(a, b fixed.Num) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.Div(a, b) })
}

func (q *query) mulInt(a fixed.Num, k int64) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.MulInt(a, k) })
}

func (q *query) int(n int64) fixed.Num {
	return q.do(func() (fixed.Num, error) { return q.ctx.FromInt(n) })
}

// offset returns Offset(p, corner) and counts one subtraction per axis.
func (q *query) offset(p, corner []int64, scale int64) []fixed.Num {
	if q.err != nil {
		return make([]fixed.Num, len(p))
	}
	q.steps += len(p)
	v, err := Offset(q.ctx, p, corner, scale)
	if err != nil {
		q.err = err
		return make([]fixed.Num, len(p))
	}
	return v
}

func (q *query) dot(a, b []fixed.Num) fixed.Num {
	if q.err == nil && len(a) != len(b) {
		q.err = ErrDimension
	}
	acc := q.ctx.Zero()
	for i := range a {
		acc = q.add(acc, q.mul(a[i], b[i]))
	}
	return acc
}

// fade evaluates 6t^5 - 15t^4 + 10t^3 as t^3 * (t*(6t - 15) + 10).
func (q *query) fade(t fixed.Num) fixed.Num {
	a := q.sub(q.mulInt(t, 6), q.int(15))
	a = q.add(q.mul(t, a), q.int(10))
	t3 := q.mul(q.mul(t, t), t)
	return q.mul(t3, a)
}

// lerp returns a + floor(t*(b-a)).
func (q *query) lerp(a, b, t fixed.Num) fixed.Num {
	return q.add(a, q.mul(t, q.sub(b, a)))
}

// Fade returns the quintic smoothstep 6t^5 - 15t^4 + 10t^3 for t in [0, 1].
// Fade(0) = 0 and Fade(1) = 1 exactly.
func Fade(ctx *fixed.Context, t fixed.Num) (fixed.Num, error) {
	q := newQuery(ctx)
	v := q.fade(t)
	return v, q.err
}

// Linterp returns a + floor(t*(b-a)). Linterp(a, b, 0) = a and
// Linterp(a, b, 1) = b exactly.
func Linterp(ctx *fixed.Context, a, b, t fixed.Num) (fixed.Num, error) {
	q := newQuery(ctx)
	v := q.lerp(a, b, t)
	return v, q.err
}

// Dot returns the dot product of a and b.
func Dot(ctx *fixed.Context, a, b []fixed.Num) (fixed.Num, error) {
	q := newQuery(ctx)
	v := q.dot(a, b)
	return v, q.err
}

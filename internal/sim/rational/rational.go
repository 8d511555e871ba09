// Package rational is a small exact fraction type for slope comparisons.
//
// Values are kept with a positive denominator. Operations do not reduce
// automatically; call Normalize when a canonical form matters (Equal does
// not need it).
package rational

import (
	"fmt"
	"math"
)

type Rational struct {
	num int64
	den int64
}

// New builds n/d. A zero denominator panics, like integer division by zero.
func New(n, d int64) Rational {
	if d == 0 {
		panic("rational: zero denominator")
	}
	if d < 0 {
		n, d = -n, -d
	}
	return Rational{num: n, den: d}
}

func FromInt(n int64) Rational { return Rational{num: n, den: 1} }

// Half is 1/2, the tile-center offset used in row bounds.
var Half = Rational{num: 1, den: 2}

func (r Rational) Num() int64 { return r.num }

func (r Rational) Den() int64 {
	if r.den == 0 {
		// zero value behaves as 0/1
		return 1
	}
	return r.den
}

func (r Rational) Add(o Rational) Rational {
	return New(r.num*o.Den()+o.num*r.Den(), r.Den()*o.Den()).Normalize()
}

func (r Rational) Sub(o Rational) Rational { return r.Add(o.Neg()) }

func (r Rational) Mul(o Rational) Rational {
	return New(r.num*o.num, r.Den()*o.Den()).Normalize()
}

func (r Rational) MulInt(k int64) Rational {
	return New(r.num*k, r.Den()).Normalize()
}

func (r Rational) Neg() Rational { return Rational{num: -r.num, den: r.Den()} }

// Div panics when o is zero.
func (r Rational) Div(o Rational) Rational {
	return r.Mul(New(o.Den(), o.num))
}

// Cmp returns -1, 0 or +1.
func (r Rational) Cmp(o Rational) int {
	a := r.num * o.Den()
	b := o.num * r.Den()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r Rational) Less(o Rational) bool   { return r.Cmp(o) < 0 }
func (r Rational) LessEq(o Rational) bool { return r.Cmp(o) <= 0 }
func (r Rational) Equal(o Rational) bool  { return r.Cmp(o) == 0 }

func Min(a, b Rational) Rational {
	if b.Less(a) {
		return b
	}
	return a
}

func Max(a, b Rational) Rational {
	if a.Less(b) {
		return b
	}
	return a
}

// Floor rounds toward negative infinity.
func (r Rational) Floor() int64 {
	d := r.Den()
	q := r.num / d
	if r.num%d != 0 && r.num < 0 {
		q--
	}
	return q
}

// Ceil rounds toward positive infinity.
func (r Rational) Ceil() int64 {
	d := r.Den()
	q := r.num / d
	if r.num%d != 0 && r.num > 0 {
		q++
	}
	return q
}

func (r Rational) Normalize() Rational {
	d := r.Den()
	g := gcd(r.num, d)
	if g <= 1 {
		return Rational{num: r.num, den: d}
	}
	return Rational{num: r.num / g, den: d / g}
}

func (r Rational) Float64() float64 {
	return float64(r.num) / float64(r.Den())
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.num, r.Den())
}

func gcd(a, b int64) int64 {
	if a < 0 {
		if a == math.MinInt64 {
			return 1
		}
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

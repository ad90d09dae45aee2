package interp

import "fmt"

// Mode selects the interpolation kernel of a fractional read.
type Mode int

const (
	// Lagrange3 is the 4-point third-order Lagrange polynomial.
	Lagrange3 Mode = iota
	// Hermite is the 4-point cubic Hermite spline.
	Hermite
	// Linear uses only x0 and x1.
	Linear
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Lagrange3:
		return "lagrange3"
	case Hermite:
		return "hermite"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a mode name as printed by String back to its Mode.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{Lagrange3, Hermite, Linear} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation mode %q", name)
}

// Interpolate4 evaluates the kernel selected by m. Unknown modes fall back to Lagrange3.
func Interpolate4(m Mode, t, xm1, x0, x1, x2 float64) float64 {
	switch m {
	case Hermite:
		return Hermite4(t, xm1, x0, x1, x2)
	case Linear:
		return Linear2(t, x0, x1)
	default:
		return Lagrange4(t, xm1, x0, x1, x2)
	}
}

// Linear2 interpolates linearly from x0 to x1.
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Lagrange4 evaluates the cubic through (-1,xm1), (0,x0), (1,x1), (2,x2) at t.
//
// At t == 0 every basis polynomial except x0's has a zero factor, so the
// result is exactly x0.
func Lagrange4(t, xm1, x0, x1, x2 float64) float64 {
	tm1 := t - 1
	tm2 := t - 2
	tp1 := t + 1
	return t*tm1*tm2*xm1/(-6) +
		tm1*tp1*tm2*x0/2 +
		t*tp1*tm2*x1/(-2) +
		t*tp1*tm1*x2/6
}

package chart

import (
	"math"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/mat"
)

// MinSmoothPoints is the fewest points a smoothing curve is fitted to
const MinSmoothPoints = 3

// Loess is a locally weighted quadratic regression with tricube weights
type Loess struct {
	// Span is the fraction of points in each local neighbourhood
	Span float64
	// Degree is the local polynomial degree, 1 or 2
	Degree int
}

// DefaultLoess returns span 0.75, degree 2
func DefaultLoess() Loess {
	return Loess{Span: 0.75, Degree: 2}
}

// Fit evaluates the smoothed curve at each of at. xs and ys must have equal length.
func (l Loess) Fit(xs, ys, at []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, goerr.New("x and y lengths differ",
			goerr.V("x", len(xs)),
			goerr.V("y", len(ys)))
	}
	if len(xs) < MinSmoothPoints {
		return nil, goerr.New("too few points to smooth", goerr.V("points", len(xs)))
	}
	if l.Span <= 0 {
		return nil, goerr.New("span must be positive", goerr.V("span", l.Span))
	}
	degree := l.Degree
	if degree < 0 || degree > 2 {
		degree = 2
	}

	out := make([]float64, len(at))
	for i, x0 := range at {
		y, err := l.fitAt(xs, ys, x0, degree)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

func (l Loess) fitAt(xs, ys []float64, x0 float64, degree int) (float64, error) {
	n := len(xs)
	dist := make([]float64, n)
	for i, x := range xs {
		dist[i] = math.Abs(x - x0)
	}

	q := int(math.Ceil(l.Span * float64(n)))
	if q < degree+1 {
		q = degree + 1
	}
	if q > n {
		q = n
	}
	sorted := append([]float64(nil), dist...)
	sort.Float64s(sorted)
	h := sorted[q-1]
	if l.Span > 1 {
		h *= l.Span
	}
	if h == 0 {
		h = 1
	}

	w := make([]float64, n)
	for i, d := range dist {
		if u := d / h; u < 1 {
			c := 1 - u*u*u
			w[i] = c * c * c
		}
	}

	// Fall back to lower degrees when the neighbourhood is too small or degenerate.
	for deg := degree; deg >= 0; deg-- {
		if y, ok := weightedPolyAt(xs, ys, w, x0, h, deg); ok {
			return y, nil
		}
	}
	return 0, goerr.New("no points in local neighbourhood", goerr.V("x", x0))
}

// weightedPolyAt solves the weighted least squares polynomial centred on x0 and returns
// its intercept, the fitted value at x0.
func weightedPolyAt(xs, ys, w []float64, x0, h float64, deg int) (float64, bool) {
	var rows []int
	for i := range xs {
		if w[i] > 0 {
			rows = append(rows, i)
		}
	}
	cols := deg + 1
	if len(rows) < cols {
		return 0, false
	}

	a := mat.NewDense(len(rows), cols, nil)
	b := mat.NewVecDense(len(rows), nil)
	for r, i := range rows {
		sw := math.Sqrt(w[i])
		u := (xs[i] - x0) / h
		p := 1.0
		for c := 0; c < cols; c++ {
			a.Set(r, c, sw*p)
			p *= u
		}
		b.SetVec(r, sw*ys[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	if cond := qr.Cond(); math.IsInf(cond, 1) || cond > 1e12 {
		return 0, false
	}

	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, b); err != nil {
		return 0, false
	}
	y := beta.AtVec(0)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, false
	}
	return y, true
}

// Linspace returns n evenly spaced values from lo to hi inclusive
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

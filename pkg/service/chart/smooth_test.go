package chart_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/service/chart"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6*math.Max(1, math.Abs(b))
}

func TestLoessReproducesPolynomials(t *testing.T) {
	xs := chart.Linspace(0, 20, 21)

	t.Run("linear", func(t *testing.T) {
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = 2*x + 1
		}
		at := []float64{0, 3.5, 10, 20}
		fitted, err := chart.DefaultLoess().Fit(xs, ys, at)
		gt.NoError(t, err)
		for i, x := range at {
			gt.True(t, near(fitted[i], 2*x+1))
		}
	})

	t.Run("quadratic", func(t *testing.T) {
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = 0.5*x*x - 3*x + 7
		}
		fitted, err := chart.DefaultLoess().Fit(xs, ys, []float64{5})
		gt.NoError(t, err)
		gt.True(t, near(fitted[0], 0.5*25-15+7))
	})

	t.Run("large x offsets such as unix seconds", func(t *testing.T) {
		base := 1.58e9
		wx := make([]float64, 10)
		wy := make([]float64, 10)
		for i := range wx {
			wx[i] = base + float64(i)*7*86400
			wy[i] = 100
		}
		fitted, err := chart.DefaultLoess().Fit(wx, wy, []float64{wx[0], wx[5], wx[9]})
		gt.NoError(t, err)
		for _, y := range fitted {
			gt.True(t, near(y, 100))
		}
	})
}

func TestLoessRejectsBadInput(t *testing.T) {
	_, err := chart.DefaultLoess().Fit([]float64{1, 2}, []float64{1, 2}, []float64{1})
	gt.Error(t, err)

	_, err = chart.DefaultLoess().Fit([]float64{1, 2, 3}, []float64{1, 2}, []float64{1})
	gt.Error(t, err)

	_, err = chart.Loess{Span: 0, Degree: 2}.Fit([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1})
	gt.Error(t, err)
}

func TestLoessSmallSampleFallsBack(t *testing.T) {
	fitted, err := chart.DefaultLoess().Fit([]float64{0, 1, 2}, []float64{3, 3, 3}, []float64{0, 1, 2})
	gt.NoError(t, err)
	for _, y := range fitted {
		gt.True(t, near(y, 3))
	}
}

func TestLinspace(t *testing.T) {
	gt.Equal(t, chart.Linspace(0, 1, 3), []float64{0, 0.5, 1})
	gt.Equal(t, chart.Linspace(4, 9, 1), []float64{4})
	gt.A(t, chart.Linspace(0, 1, 0)).Length(0)
}

package analytics

import (
	"math"
	"sort"
)

// Statistics over PnL series. All functions return 0 on empty or degenerate
// input instead of NaN or an error.

// Mean is the arithmetic average.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// SharpeRatio is mean over standard deviation, without risk-free rate or annualization.
func SharpeRatio(xs []float64) float64 {
	sd := StdDev(xs)
	if sd == 0 {
		return 0
	}
	return Mean(xs) / sd
}

// MaxDrawdown is the largest fall of the running sum below its running peak.
// The peak starts at zero, so an initial loss counts as drawdown.
func MaxDrawdown(xs []float64) float64 {
	var peak, running, maxDD float64
	for _, x := range xs {
		running += x
		if running > peak {
			peak = running
		}
		if dd := peak - running; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SortinoRatio is mean over downside deviation.
// With no negative values it returns the mean itself.
func SortinoRatio(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var sumSq float64
	var n int
	for _, x := range xs {
		if x < 0 {
			sumSq += x * x
			n++
		}
	}
	if n == 0 {
		return m
	}
	dd := math.Sqrt(sumSq / float64(n))
	if dd == 0 {
		return 0
	}
	return m / dd
}

// CalmarRatio is mean over maximum drawdown.
func CalmarRatio(xs []float64) float64 {
	mdd := MaxDrawdown(xs)
	if mdd == 0 {
		return 0
	}
	return Mean(xs) / mdd
}

// ValueAtRisk is the absolute value of the floor((1-confidence)*n)-th smallest value.
// No interpolation is done between order statistics.
func ValueAtRisk(xs []float64, confidence float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx < 0 || idx >= len(sorted) {
		return 0
	}
	return math.Abs(sorted[idx])
}

// ExpectedShortfall is the absolute mean of values at or below -VaR.
func ExpectedShortfall(xs []float64, confidence float64) float64 {
	v := ValueAtRisk(xs, confidence)
	var sum float64
	var n int
	for _, x := range xs {
		if x <= -v {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Abs(sum / float64(n))
}

// Streaks returns the longest runs of strictly positive and strictly negative values.
// Zero breaks both runs.
func Streaks(xs []float64) (win, loss int) {
	var curWin, curLoss int
	for _, x := range xs {
		switch {
		case x > 0:
			curWin++
			curLoss = 0
		case x < 0:
			curLoss++
			curWin = 0
		default:
			curWin, curLoss = 0, 0
		}
		if curWin > win {
			win = curWin
		}
		if curLoss > loss {
			loss = curLoss
		}
	}
	return win, loss
}

// Herfindahl is the sum of squared shares of the weights; 0 when they sum to 0.
func Herfindahl(weights []float64) float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	var hhi float64
	for _, w := range weights {
		s := w / total
		hhi += s * s
	}
	return hhi
}

// Correlation pairs a and b by index over their common length.
// Means and variances use each full series. Non-finite results become 0.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	ma, mb := Mean(a), Mean(b)
	var cov float64
	for i := 0; i < n; i++ {
		cov += (a[i] - ma) * (b[i] - mb)
	}
	cov /= float64(n)

	sa, sb := StdDev(a), StdDev(b)
	c := cov / (sa * sb)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// momentumWindow is the number of days compared by Momentum and VolatilityForecast.
const momentumWindow = 10

// Momentum is the mean of the last 10 values minus the mean of the 10 before.
// Fewer than 10 values yields 0; a missing older window counts as 0.
func Momentum(daily []float64) float64 {
	n := len(daily)
	if n < momentumWindow {
		return 0
	}
	recent := daily[n-momentumWindow:]
	start := n - 2*momentumWindow
	if start < 0 {
		start = 0
	}
	older := daily[start : n-momentumWindow]
	return Mean(recent) - Mean(older)
}

// VolatilityForecast is the root mean square of the last 10 values.
func VolatilityForecast(daily []float64) float64 {
	n := len(daily)
	if n < momentumWindow {
		return 0
	}
	var ss float64
	for _, x := range daily[n-momentumWindow:] {
		ss += x * x
	}
	return math.Sqrt(ss / momentumWindow)
}

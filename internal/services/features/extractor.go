package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// zeroVarianceTol is the relative std below which a return stream counts
// as constant.
const zeroVarianceTol = 1e-12

// PctChange returns simple returns r_t = v_t / v_{t-1} - 1.
// It returns a slice of length len(values)-1, or nil if insufficient data.
func PctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// PctChangeFilled is PctChange aligned to the input length, with 0 at index 0.
func PctChangeFilled(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) > 1 {
		copy(out[1:], PctChange(values))
	}
	return out
}

// RollingMean returns the trailing window mean at each index. Positions
// before a full window is available are zero, so the output keeps the
// input length.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd returns the trailing window sample standard deviation,
// zero-filled like RollingMean.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.StdDev(values[i-window+1:i+1], nil)
	}
	return out
}

// AnnualizedVolatility is the sample std of periodic returns scaled by
// sqrt(periodsPerYear). Fewer than 2 returns yield 0.
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := stat.StdDev(returns, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(periodsPerYear)
}

// MaxDrawdown is the largest peak-to-trough decline as a positive fraction.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// SharpeRatio annualizes mean excess return over its std. Fewer than 2
// returns, or a std that is rounding noise relative to the mean, yield 0.
func SharpeRatio(returns []float64, periodRiskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - periodRiskFree
	}
	mean, sd := stat.MeanStdDev(excess, nil)
	if math.IsNaN(sd) || sd <= zeroVarianceTol*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return mean / sd * math.Sqrt(periodsPerYear)
}

// Beta is cov(fund, bench) / var(bench). ok is false when fewer than 2
// paired returns exist or the benchmark has no variance.
func Beta(fund, bench []float64) (float64, bool) {
	n := len(fund)
	if len(bench) < n {
		n = len(bench)
	}
	if n < 2 {
		return 0, false
	}
	v := stat.Variance(bench[:n], nil)
	if v == 0 || math.IsNaN(v) {
		return 0, false
	}
	return stat.Covariance(fund[:n], bench[:n], nil) / v, true
}

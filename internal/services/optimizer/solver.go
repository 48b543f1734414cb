package optimizer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// projectOntoSimplex projects v in place onto {x : x >= 0, sum(x) = 1}
// (Duchi et al. 2008).
func projectOntoSimplex(v []float64) {
	n := len(v)
	if n == 0 {
		return
	}
	u := make([]float64, n)
	copy(u, v)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	cum, rho, rhoSum := 0.0, 0, 0.0
	for j := 0; j < n; j++ {
		cum += u[j]
		if u[j]-(cum-1)/float64(j+1) > 0 {
			rho, rhoSum = j, cum
		}
	}
	theta := (rhoSum - 1) / float64(rho+1)
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

// degenerateTrace is the total annualized variance below which the
// covariance matrix is treated as zero.
const degenerateTrace = 1e-12

// solveQP minimizes w'Σw - λ·μ'w over the simplex with projected gradient
// descent. λ = 0 gives the minimum-variance portfolio.
func (o *Optimizer) solveQP(mu []float64, cov *mat.SymDense, lambda float64) []float64 {
	n := len(mu)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	// Lipschitz constant of the gradient is 2·λmax(Σ) <= 2·trace(Σ).
	step := 1.0
	if tr := mat.Trace(cov); tr > degenerateTrace {
		step = 1 / (2 * tr)
	} else if lambda == 0 {
		return w
	}

	grad := mat.NewVecDense(n, nil)
	wv := mat.NewVecDense(n, w)
	prev := make([]float64, n)
	for iter := 0; iter < o.p.MaxIter; iter++ {
		grad.MulVec(cov, wv)
		copy(prev, w)
		for i := range w {
			w[i] -= step * (2*grad.AtVec(i) - lambda*mu[i])
		}
		projectOntoSimplex(w)

		maxDiff := 0.0
		for i := range w {
			maxDiff = math.Max(maxDiff, math.Abs(w[i]-prev[i]))
		}
		if maxDiff < o.p.Tolerance {
			break
		}
	}
	return w
}

func portfolioReturn(w, mu []float64) float64 {
	return mat.Dot(mat.NewVecDense(len(w), w), mat.NewVecDense(len(mu), mu))
}

func portfolioVolatility(w []float64, cov *mat.SymDense) float64 {
	v := mat.NewVecDense(len(w), w)
	variance := mat.Inner(v, cov, v)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func sharpe(ret, vol, rf float64) float64 {
	if vol <= 0 {
		return 0
	}
	return (ret - rf) / vol
}

// lambdaAt returns the risk-aversion trade-off for scan step k of n,
// log-spaced over [1e-4, 1e4]; k = 0 is the minimum-variance point.
func lambdaAt(k, n int) float64 {
	if k == 0 {
		return 0
	}
	return 1e-4 * math.Pow(1e8, float64(k)/float64(n))
}

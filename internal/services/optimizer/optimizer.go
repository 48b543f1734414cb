package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"FinAdvisor/internal/domain/models"
	domsvc "FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/services/features"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Params is the serializable optimizer configuration.
type Params struct {
	RiskFreeRate float64 `json:"risk_free_rate"` // annual
	TradingDays  float64 `json:"trading_days"`
	MaxIter      int     `json:"max_iter"`
	Tolerance    float64 `json:"tolerance"`
	WeightCutoff float64 `json:"weight_cutoff"`
	LambdaScans  int     `json:"lambda_scans"`
}

// DefaultParams returns the standard optimizer configuration.
func DefaultParams() Params {
	return Params{
		RiskFreeRate: 0.02,
		TradingDays:  features.TradingDaysPerYear,
		MaxIter:      5000,
		Tolerance:    1e-12,
		WeightCutoff: 1e-4,
		LambdaScans:  60,
	}
}

// DecodeParams restores Params from a registry artifact.
func DecodeParams(state []byte) (Params, error) {
	p := DefaultParams()
	if err := json.Unmarshal(state, &p); err != nil {
		return Params{}, fmt.Errorf("decode optimizer params: %w", err)
	}
	return p, nil
}

// Optimizer solves long-only mean-variance problems.
type Optimizer struct {
	p Params
}

func New(p Params) *Optimizer {
	d := DefaultParams()
	if p.TradingDays <= 0 {
		p.TradingDays = d.TradingDays
	}
	if p.MaxIter <= 0 {
		p.MaxIter = d.MaxIter
	}
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	if p.LambdaScans <= 0 {
		p.LambdaScans = d.LambdaScans
	}
	return &Optimizer{p: p}
}

func (o *Optimizer) Params() Params { return o.p }

// Estimates are annualized expected returns and covariance for Funds.
type Estimates struct {
	Funds []string
	Mu    []float64
	Cov   *mat.SymDense
}

// Estimate aligns the series and computes compounded mean annual returns
// and the annualized sample covariance of daily returns.
func (o *Optimizer) Estimate(history map[string]models.NavSeries) (*Estimates, error) {
	if len(history) == 0 {
		return nil, &models.InsufficientDataError{Op: "optimize", Need: 1, Got: 0}
	}
	for id, s := range history {
		if s.Len() == 0 {
			return nil, &models.InsufficientDataError{Op: "optimize", FundID: id, Need: 1, Got: 0}
		}
	}
	al := features.AlignUnion(history)
	if len(al.Dates) < 2 {
		return nil, &models.InsufficientDataError{Op: "optimize", Need: 2, Got: len(al.Dates)}
	}

	n, t := len(al.Funds), len(al.Dates)-1
	rets := mat.NewDense(t, n, nil)
	mu := make([]float64, n)
	for j := range al.Funds {
		col := al.Column(j)
		r := features.PctChange(col)
		rets.SetCol(j, r)
		mu[j] = math.Pow(col[len(col)-1]/col[0], o.p.TradingDays/float64(t)) - 1
	}

	cov := mat.NewSymDense(n, nil)
	if t >= 2 {
		stat.CovarianceMatrix(cov, rets, nil)
		cov.ScaleSym(o.p.TradingDays, cov)
	}
	return &Estimates{Funds: al.Funds, Mu: mu, Cov: cov}, nil
}

// Optimize computes a cleaned allocation for the objective. riskTolerance
// is the target annualized volatility for efficient_risk and is ignored
// otherwise.
func (o *Optimizer) Optimize(ctx context.Context, holdings []models.Holding, history map[string]models.NavSeries, objective models.Objective, riskTolerance float64) (*models.AllocationResult, error) {
	if _, err := models.ParseObjective(string(objective)); err != nil {
		return nil, err
	}
	est, err := o.Estimate(history)
	if err != nil {
		return nil, err
	}

	var w []float64
	switch objective {
	case models.ObjectiveMinRisk:
		w = o.solveQP(est.Mu, est.Cov, 0)
	case models.ObjectiveMaxSharpe:
		w, err = o.maxSharpe(ctx, est)
	case models.ObjectiveEfficientRisk:
		w, err = o.efficientRisk(ctx, est, riskTolerance)
	}
	if err != nil {
		return nil, err
	}

	w, err = o.clean(w, objective)
	if err != nil {
		return nil, err
	}
	ret := portfolioReturn(w, est.Mu)
	vol := portfolioVolatility(w, est.Cov)

	res := &models.AllocationResult{
		Objective:      objective,
		Weights:        make(map[string]float64, len(w)),
		ExpectedReturn: ret,
		Volatility:     vol,
		Sharpe:         sharpe(ret, vol, o.p.RiskFreeRate),
		CurrentWeights: CurrentWeights(holdings, est.Funds),
	}
	for i, id := range est.Funds {
		res.Weights[id] = w[i]
	}
	return res, nil
}

func (o *Optimizer) maxSharpe(ctx context.Context, est *Estimates) ([]float64, error) {
	above := false
	for _, m := range est.Mu {
		if m > o.p.RiskFreeRate {
			above = true
			break
		}
	}
	if !above {
		return nil, &models.OptimizationError{Objective: models.ObjectiveMaxSharpe, Reason: fmt.Sprintf("no fund's expected return exceeds the risk-free rate %.4f", o.p.RiskFreeRate)}
	}
	if mat.Trace(est.Cov) <= degenerateTrace {
		return nil, &models.OptimizationError{Objective: models.ObjectiveMaxSharpe, Reason: "covariance matrix is degenerate (zero volatility)"}
	}

	eval := func(l float64) ([]float64, float64) {
		w := o.solveQP(est.Mu, est.Cov, l)
		return w, sharpe(portfolioReturn(w, est.Mu), portfolioVolatility(w, est.Cov), o.p.RiskFreeRate)
	}

	best, bestK := math.Inf(-1), 0
	var bestW []float64
	for k := 0; k <= o.p.LambdaScans; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if w, s := eval(lambdaAt(k, o.p.LambdaScans)); s > best {
			best, bestK, bestW = s, k, w
		}
	}

	// Golden-section refinement in log-λ between the neighbours of the best scan.
	lo := math.Log(lambdaAt(max(bestK-1, 1), o.p.LambdaScans))
	hi := math.Log(lambdaAt(min(bestK+1, o.p.LambdaScans), o.p.LambdaScans))
	const phi = 0.6180339887498949
	for i := 0; i < 40 && hi-lo > 1e-6; i++ {
		a := hi - phi*(hi-lo)
		b := lo + phi*(hi-lo)
		wa, sa := eval(math.Exp(a))
		wb, sb := eval(math.Exp(b))
		if sa >= sb {
			hi = b
			if sa > best {
				best, bestW = sa, wa
			}
		} else {
			lo = a
			if sb > best {
				best, bestW = sb, wb
			}
		}
	}
	return bestW, nil
}

func (o *Optimizer) efficientRisk(ctx context.Context, est *Estimates, target float64) ([]float64, error) {
	if !(target > 0) {
		return nil, &models.OptimizationError{Objective: models.ObjectiveEfficientRisk, Reason: "target volatility must be positive"}
	}
	minW := o.solveQP(est.Mu, est.Cov, 0)
	minVol := portfolioVolatility(minW, est.Cov)
	if minVol > target+1e-9 {
		return nil, &models.OptimizationError{
			Objective: models.ObjectiveEfficientRisk,
			Reason:    fmt.Sprintf("target volatility %.4f is below the minimum achievable %.4f", target, minVol),
		}
	}

	top := lambdaAt(o.p.LambdaScans, o.p.LambdaScans)
	if w := o.solveQP(est.Mu, est.Cov, top); portfolioVolatility(w, est.Cov) <= target {
		return w, nil
	}

	// Volatility grows with λ along the frontier; bisect for the largest
	// feasible λ.
	lo, hi := 0.0, top
	best := minW
	for i := 0; i < 60; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mid := (lo + hi) / 2
		if lo > 0 {
			mid = math.Sqrt(lo * hi)
		}
		w := o.solveQP(est.Mu, est.Cov, mid)
		if portfolioVolatility(w, est.Cov) <= target {
			lo, best = mid, w
		} else {
			hi = mid
		}
	}
	return best, nil
}

// clean zeroes weights below the cutoff, clips negatives, and renormalizes.
func (o *Optimizer) clean(w []float64, objective models.Objective) ([]float64, error) {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		if v < o.p.WeightCutoff || math.IsNaN(v) {
			continue
		}
		out[i] = v
		sum += v
	}
	if sum <= 0 {
		return nil, &models.OptimizationError{Objective: objective, Reason: "solver returned no positive weights"}
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// CurrentWeights derives the held allocation from invested amounts,
// restricted to funds. It returns nil when nothing is invested.
func CurrentWeights(holdings []models.Holding, funds []string) map[string]float64 {
	known := make(map[string]struct{}, len(funds))
	for _, f := range funds {
		known[f] = struct{}{}
	}
	amounts := map[string]float64{}
	total := 0.0
	for _, h := range holdings {
		if _, ok := known[h.FundID]; !ok || h.InvestedAmount <= 0 {
			continue
		}
		amounts[h.FundID] += h.InvestedAmount
		total += h.InvestedAmount
	}
	if total == 0 {
		return nil
	}
	for id := range amounts {
		amounts[id] /= total
	}
	return amounts
}

var _ domsvc.PortfolioOptimizer = (*Optimizer)(nil)

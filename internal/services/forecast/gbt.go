package forecast

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"FinAdvisor/internal/domain/models"
)

// GBTParams tunes gradient boosting.
type GBTParams struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
}

// DefaultGBTParams returns the standard boosting settings.
func DefaultGBTParams() GBTParams {
	return GBTParams{Trees: 100, MaxDepth: 3, LearningRate: 0.1, MinLeaf: 3}
}

// GBTForecaster boosts regression trees on the technical features to
// predict the next-day return, then forecasts recursively.
type GBTForecaster struct {
	p GBTParams
}

func NewGBT(p GBTParams) *GBTForecaster {
	d := DefaultGBTParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = d.MinLeaf
	}
	return &GBTForecaster{p: p}
}

// GBTModel is the fitted ensemble.
type GBTModel struct {
	Params GBTParams   `json:"params"`
	Base   float64     `json:"base"`
	Trees  []*treeNode `json:"trees"`
	Sigma  float64     `json:"sigma"` // in-sample std of next-day return residuals
	Tail   []float64   `json:"tail"`
}

// gbtFeatures are scale-free versions of the technical regressors at index
// i: rolling mean and std relative to the current value, and the 1-day return.
func gbtFeatures(value, mean, std, ret float64) []float64 {
	rel := func(x float64) float64 {
		if x == 0 || value == 0 {
			return 0
		}
		return x / value
	}
	m := rel(mean)
	if m != 0 {
		m--
	}
	return []float64{m, rel(std), ret}
}

// Train fits the ensemble on (features_t, return_{t+1}) pairs.
func (f *GBTForecaster) Train(ctx context.Context, series models.NavSeries) (*GBTModel, error) {
	if err := checkTrainable(string(models.ForecastGBT), series); err != nil {
		return nil, err
	}
	y := series.Values()
	tech := technicals(y)
	n := len(y) - 1
	X := make([][]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = gbtFeatures(y[i], tech.mean[i], tech.std[i], tech.ret[i])
		target[i] = y[i+1]/y[i] - 1
	}

	m := &GBTModel{Params: f.p}
	for _, v := range target {
		m.Base += v
	}
	m.Base /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.Base
	}
	resid := make([]float64, n)
	idx := make([]int, n)
	for t := 0; t < f.p.Trees; t++ {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		for i := range resid {
			resid[i] = target[i] - pred[i]
			idx[i] = i
		}
		tree := growTree(X, resid, idx, f.p.MaxDepth, f.p.MinLeaf)
		for i := range pred {
			pred[i] += f.p.LearningRate * tree.predict(X[i])
		}
		m.Trees = append(m.Trees, tree)
	}

	sse := 0.0
	for i := range target {
		sse += (target[i] - pred[i]) * (target[i] - pred[i])
	}
	m.Sigma = math.Sqrt(sse / float64(n))

	tail := len(y) - FeatureWindow
	if tail < 0 {
		tail = 0
	}
	m.Tail = append([]float64(nil), y[tail:]...)
	return m, nil
}

// Predict retrains on series and projects daysAhead days recursively.
func (f *GBTForecaster) Predict(ctx context.Context, series models.NavSeries, daysAhead int, confidenceLevel float64) (*models.ForecastResult, error) {
	m, err := f.Train(ctx, series)
	if err != nil {
		return nil, err
	}
	return buildResult(series, models.ForecastGBT, m, daysAhead, confidenceLevel)
}

func (m *GBTModel) predictReturn(x []float64) float64 {
	r := m.Base
	for _, t := range m.Trees {
		r += m.Params.LearningRate * t.predict(x)
	}
	return r
}

func (m *GBTModel) project(h int) ([]float64, []float64) {
	path := append([]float64(nil), m.Tail...)
	point := make([]float64, h)
	spread := make([]float64, h)
	for step := 1; step <= h; step++ {
		cur := path[len(path)-1]
		mean, std, ret := tailTechnical(path)
		next := cur * (1 + m.predictReturn(gbtFeatures(cur, mean, std, ret)))
		point[step-1] = next
		spread[step-1] = math.Abs(next) * m.Sigma * math.Sqrt(float64(step))
		path = append(path, next)
	}
	return point, spread
}

// Marshal serializes the fitted ensemble for the model registry.
func (m *GBTModel) Marshal() ([]byte, error) { return json.Marshal(m) }

// treeNode is a binary regression tree node; a leaf has nil children.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Value     float64   `json:"v"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

func (n *treeNode) predict(x []float64) float64 {
	for n.Left != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// growTree fits a least-squares regression tree on the rows in idx.
func growTree(X [][]float64, y []float64, idx []int, depth, minLeaf int) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	node := &treeNode{Value: sum / float64(len(idx))}
	if depth == 0 || len(idx) < 2*minLeaf {
		return node
	}

	bestGain, bestFeat, bestThr, bestPos := 0.0, -1, 0.0, 0
	total := float64(len(idx))
	sorted := make([]int, len(idx))
	for f := range X[idx[0]] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })
		left := 0.0
		for p := 1; p < len(sorted); p++ {
			left += y[sorted[p-1]]
			if p < minLeaf || len(sorted)-p < minLeaf {
				continue
			}
			lo, hi := X[sorted[p-1]][f], X[sorted[p]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(p), total-float64(p)
			right := sum - left
			// SSE reduction of the split, up to a constant.
			gain := left*left/nl + right*right/nr - sum*sum/total
			if gain > bestGain+1e-15 {
				bestGain, bestFeat, bestThr, bestPos = gain, f, (lo+hi)/2, p
			}
		}
	}
	if bestFeat < 0 {
		return node
	}

	copy(sorted, idx)
	sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][bestFeat] < X[sorted[b]][bestFeat] })
	node.Feature, node.Threshold = bestFeat, bestThr
	node.Left = growTree(X, y, append([]int(nil), sorted[:bestPos]...), depth-1, minLeaf)
	node.Right = growTree(X, y, append([]int(nil), sorted[bestPos:]...), depth-1, minLeaf)
	return node
}

package risk

import (
	"math"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFrom(id string, values []float64) models.NavSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.NavPoint, len(values))
	for i, v := range values {
		pts[i] = models.NavPoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return models.NavSeries{FundID: id, Points: pts}
}

// alternating returns of +d and -d give a daily std close to d.
func zigzag(n int, d float64) []float64 {
	vals := make([]float64, n)
	vals[0] = 100
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			vals[i] = vals[i-1] * (1 + d)
		} else {
			vals[i] = vals[i-1] * (1 - d)
		}
	}
	return vals
}

func TestScoreFundLargeCapFollowsFormula(t *testing.T) {
	s := NewScorer(DefaultParams())
	d := 0.2 / math.Sqrt(features.TradingDaysPerYear)
	series := seriesFrom("F1", zigzag(120, d))
	meta := models.FundMetadata{FundID: "F1", Category: "Equity - Large Cap", ExpenseRatio: 1.0}

	got := s.ScoreFund(meta, series, nil)

	b := got.Breakdown
	assert.Equal(t, 0.9, b.CategoryRisk)
	assert.Equal(t, 0.5, b.Beta)
	assert.InDelta(t, 0.2, b.Volatility, 0.01)

	want := 1 + 9*(0.40*b.Volatility+0.20*b.MaxDrawdown+0.15*0.5+0.15*0.5+0.10*0.9)
	assert.InDelta(t, want, got.Score, 0.006)
	assert.Equal(t, models.LabelForScore(got.Score), got.Label)
	assert.Equal(t, models.RiskModerate, got.Label)
}

func TestScoreFundShortSeriesIsZeroed(t *testing.T) {
	s := NewScorer(DefaultParams())
	for _, vals := range [][]float64{nil, {100}} {
		got := s.ScoreFund(models.FundMetadata{Category: "Liquid"}, seriesFrom("F", vals), nil)
		assert.Zero(t, got.Breakdown.Volatility)
		assert.Zero(t, got.Breakdown.MaxDrawdown)
		assert.Zero(t, got.Breakdown.Sharpe)
		assert.GreaterOrEqual(t, got.Score, 1.0)
	}
}

func TestScoreFundBoundsAndLabels(t *testing.T) {
	s := NewScorer(DefaultParams())
	cases := []struct {
		name string
		meta models.FundMetadata
		vals []float64
	}{
		{"calm liquid", models.FundMetadata{Category: "Liquid Fund", ExpenseRatio: 0.1}, zigzag(60, 0.0001)},
		{"wild small cap", models.FundMetadata{Category: "Small Cap", ExpenseRatio: 5}, zigzag(60, 0.2)},
		{"unknown", models.FundMetadata{Category: "Thematic"}, zigzag(60, 0.01)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ScoreFund(tc.meta, seriesFrom("F", tc.vals), nil)
			assert.GreaterOrEqual(t, got.Score, 1.0)
			assert.LessOrEqual(t, got.Score, 10.0)
			assert.Equal(t, models.LabelForScore(got.Score), got.Label)
		})
	}
	calm := s.ScoreFund(cases[0].meta, seriesFrom("F", cases[0].vals), nil)
	assert.Equal(t, models.RiskLow, calm.Label)
	wild := s.ScoreFund(cases[1].meta, seriesFrom("F", cases[1].vals), nil)
	assert.Equal(t, models.RiskHigh, wild.Label)
}

func TestScoreFundUsesBenchmarkBeta(t *testing.T) {
	s := NewScorer(DefaultParams())
	bench := seriesFrom("B", []float64{100, 101, 99, 102, 100, 103})
	br := features.PctChange(bench.Values())
	vals := []float64{100}
	for _, r := range br {
		vals = append(vals, vals[len(vals)-1]*(1+2*r))
	}
	got := s.ScoreFund(models.FundMetadata{Category: "Equity"}, seriesFrom("F", vals), &bench)
	assert.InDelta(t, 2.0, got.Breakdown.Beta, 1e-9)
}

func TestCategoryRisk(t *testing.T) {
	s := NewScorer(DefaultParams())
	assert.Equal(t, 0.9, s.CategoryRisk("Flexi Cap Fund"))
	assert.Equal(t, 0.6, s.CategoryRisk("Hybrid - Aggressive"))
	assert.Equal(t, 0.3, s.CategoryRisk("Gilt Fund"))
	assert.Equal(t, 0.1, s.CategoryRisk("Overnight Fund"))
	assert.Equal(t, 0.5, s.CategoryRisk("Index Fund"))
}

func TestScorePortfolio(t *testing.T) {
	s := NewScorer(DefaultParams())
	empty := s.ScorePortfolio(nil, nil)
	assert.Zero(t, empty.Score)
	assert.Equal(t, models.RiskNoHoldings, empty.Label)

	scores := []models.RiskScore{{FundID: "A", Score: 3}}
	got := s.ScorePortfolio([]models.Holding{{FundID: "A", Units: 10}}, scores)
	assert.True(t, got.Placeholder)
	assert.Equal(t, PortfolioPlaceholderScore, got.Score)
	assert.Equal(t, models.RiskModerate, got.Label)
	require.Len(t, got.Holdings, 1)
}

func TestDecodeParamsRejectsMalformed(t *testing.T) {
	_, err := DecodeParams([]byte("{"))
	require.Error(t, err)
}

func TestDecodeParamsKeepsDefaultsForMissingFields(t *testing.T) {
	p, err := DecodeParams([]byte(`{"weights":{"volatility":0.5}}`))
	require.NoError(t, err)

	def := DefaultParams()
	assert.Equal(t, 0.5, p.Weights.Volatility)
	assert.Equal(t, def.Weights.MaxDrawdown, p.Weights.MaxDrawdown)
	assert.Equal(t, def.Weights.Category, p.Weights.Category)
	assert.Equal(t, def.RiskFreeRate, p.RiskFreeRate)
	assert.Equal(t, def.DefaultBeta, p.DefaultBeta)
	assert.Len(t, p.CategoryRules, len(def.CategoryRules))
}

func TestScoreLabelUsesUnroundedValue(t *testing.T) {
	cases := []struct {
		raw   float64
		score float64
		label models.RiskLabel
	}{
		{raw: 3.5, score: 3.5, label: models.RiskLow},
		{raw: 3.504, score: 3.5, label: models.RiskModerate},
		{raw: 6.5, score: 6.5, label: models.RiskModerate},
		{raw: 6.503, score: 6.5, label: models.RiskHigh},
	}
	for _, tc := range cases {
		score, label := scoreAndLabel(tc.raw)
		assert.Equal(t, tc.score, score, "raw %v", tc.raw)
		assert.Equal(t, tc.label, label, "raw %v", tc.raw)
	}
}

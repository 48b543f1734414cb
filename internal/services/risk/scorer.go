package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"FinAdvisor/internal/domain/models"
	domsvc "FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/services/features"
)

// Weights of the composite score. They sum to 1.
type Weights struct {
	Volatility   float64 `json:"volatility"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ExpenseRatio float64 `json:"expense_ratio"`
	Beta         float64 `json:"beta"`
	Category     float64 `json:"category"`
}

// CategoryRule maps any of Keywords (matched case-insensitively as
// substrings of the category) to Level.
type CategoryRule struct {
	Keywords []string `json:"keywords"`
	Level    float64  `json:"level"`
}

// Params is the serializable state of a Scorer.
type Params struct {
	Weights         Weights        `json:"weights"`
	RiskFreeRate    float64        `json:"risk_free_rate"` // annual
	ExpenseCeiling  float64        `json:"expense_ceiling"`
	DefaultBeta     float64        `json:"default_beta"`
	CategoryRules   []CategoryRule `json:"category_rules"`
	UnknownCategory float64        `json:"unknown_category"`
}

// DefaultParams returns the standard scoring parameters.
func DefaultParams() Params {
	return Params{
		Weights:        Weights{Volatility: 0.40, MaxDrawdown: 0.20, ExpenseRatio: 0.15, Beta: 0.15, Category: 0.10},
		RiskFreeRate:   0.05,
		ExpenseCeiling: 2.0,
		DefaultBeta:    0.5,
		CategoryRules: []CategoryRule{
			{Keywords: []string{"equity", "large", "mid", "small", "flexi", "multi cap"}, Level: 0.9},
			{Keywords: []string{"hybrid", "balanced", "aggressive"}, Level: 0.6},
			{Keywords: []string{"debt", "gilt", "corporate"}, Level: 0.3},
			{Keywords: []string{"liquid", "overnight", "money market"}, Level: 0.1},
		},
		UnknownCategory: 0.5,
	}
}

// Scorer computes composite fund risk. It holds only immutable parameters.
type Scorer struct {
	p Params
}

func NewScorer(p Params) *Scorer { return &Scorer{p: p} }

// DecodeParams restores Params from a registry artifact.
func DecodeParams(state []byte) (Params, error) {
	p := DefaultParams()
	if err := json.Unmarshal(state, &p); err != nil {
		return Params{}, fmt.Errorf("decode risk params: %w", err)
	}
	return p, nil
}

// Params returns the scorer's parameters.
func (s *Scorer) Params() Params { return s.p }

// ScoreFund scores one fund. benchmark may be nil.
func (s *Scorer) ScoreFund(meta models.FundMetadata, series models.NavSeries, benchmark *models.NavSeries) models.RiskScore {
	values := series.Values()
	returns := features.PctChange(values)
	dailyRF := s.p.RiskFreeRate / features.TradingDaysPerYear

	b := models.RiskBreakdown{
		Volatility:   features.AnnualizedVolatility(returns, features.TradingDaysPerYear),
		MaxDrawdown:  features.MaxDrawdown(values),
		Sharpe:       features.SharpeRatio(returns, dailyRF, features.TradingDaysPerYear),
		Beta:         s.p.DefaultBeta,
		ExpenseRatio: meta.ExpenseRatio,
		CategoryRisk: s.CategoryRisk(meta.Category),
	}
	if benchmark != nil {
		fr, br := features.PairedReturns(series, *benchmark)
		if beta, ok := features.Beta(fr, br); ok {
			b.Beta = beta
		}
	}

	w := s.p.Weights
	sum := w.Volatility*clip01(b.Volatility) +
		w.MaxDrawdown*clip01(b.MaxDrawdown) +
		w.ExpenseRatio*clip01(b.ExpenseRatio/s.p.ExpenseCeiling) +
		w.Beta*clip01(math.Abs(b.Beta)) +
		w.Category*clip01(b.CategoryRisk)
	score, label := scoreAndLabel(clip01(sum)*9 + 1)

	return models.RiskScore{
		FundID:    meta.FundID,
		Score:     score,
		Label:     label,
		Breakdown: b,
	}
}

// scoreAndLabel labels the raw composite before it is rounded for output.
func scoreAndLabel(raw float64) (float64, models.RiskLabel) {
	return round2(raw), models.LabelForScore(raw)
}

// CategoryRisk looks up the fixed risk level for a category name.
func (s *Scorer) CategoryRisk(category string) float64 {
	c := strings.ToLower(category)
	for _, r := range s.p.CategoryRules {
		for _, k := range r.Keywords {
			if strings.Contains(c, k) {
				return r.Level
			}
		}
	}
	return s.p.UnknownCategory
}

// PortfolioPlaceholderScore is reported for any non-empty portfolio until a
// holdings-weighted rollup is defined.
const PortfolioPlaceholderScore = 6.5

// ScorePortfolio returns the portfolio-level score. The aggregate is a
// fixed placeholder; per-holding scores are passed through unaggregated.
func (s *Scorer) ScorePortfolio(holdings []models.Holding, fundScores []models.RiskScore) models.PortfolioRiskScore {
	if len(holdings) == 0 {
		return models.PortfolioRiskScore{Score: 0, Label: models.RiskNoHoldings, Message: "portfolio has no holdings"}
	}
	return models.PortfolioRiskScore{
		Score:       PortfolioPlaceholderScore,
		Label:       models.LabelForScore(PortfolioPlaceholderScore),
		Placeholder: true,
		Message:     "aggregate score is not weighted by holdings; see per-fund scores",
		Holdings:    fundScores,
	}
}

func clip01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var _ domsvc.RiskScorer = (*Scorer)(nil)

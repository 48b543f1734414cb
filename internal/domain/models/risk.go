package models

// RiskLabel is the qualitative bucket for a risk score.
type RiskLabel string

const (
	RiskLow        RiskLabel = "Low"
	RiskModerate   RiskLabel = "Moderate"
	RiskHigh       RiskLabel = "High"
	RiskNoHoldings RiskLabel = "No Holdings"
)

// LabelForScore buckets a 1..10 score.
func LabelForScore(score float64) RiskLabel {
	switch {
	case score <= 3.5:
		return RiskLow
	case score <= 6.5:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// RiskBreakdown holds the raw inputs of a fund score.
type RiskBreakdown struct {
	Volatility   float64 `json:"volatility"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Sharpe       float64 `json:"sharpe_ratio"`
	Beta         float64 `json:"beta"`
	ExpenseRatio float64 `json:"expense_ratio"`
	CategoryRisk float64 `json:"category_risk"`
}

// RiskScore is a composite score in [1,10].
type RiskScore struct {
	FundID    string        `json:"fund_id"`
	Score     float64       `json:"risk_score"`
	Label     RiskLabel     `json:"risk_level"`
	Breakdown RiskBreakdown `json:"breakdown"`
}

// PortfolioRiskScore is the portfolio-level score. Placeholder is set while
// the aggregate is not derived from Holdings.
type PortfolioRiskScore struct {
	Score       float64     `json:"risk_score"`
	Label       RiskLabel   `json:"risk_level"`
	Placeholder bool        `json:"placeholder"`
	Message     string      `json:"message,omitempty"`
	Holdings    []RiskScore `json:"holdings,omitempty"`
}

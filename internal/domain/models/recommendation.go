package models

// Recommendation is a scored candidate fund.
type Recommendation struct {
	FundID  string   `json:"fund_id"`
	Reason  string   `json:"reason"`
	Score   float64  `json:"score"`
	Sources []string `json:"sources,omitempty"`
}

// UserProfile carries the preferences used by the strategies.
type UserProfile struct {
	UserID        string `json:"user_id"`
	RiskTolerance string `json:"risk_tolerance"` // "low", "moderate", "high"
}

// FactorRow is the per-fund factor exposure used by factor-based ranking.
type FactorRow struct {
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe_ratio"`
}

// MarketTable maps fund id to its factor row.
type MarketTable map[string]FactorRow

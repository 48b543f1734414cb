package models

// Requests for advisory HTTP endpoints.

type PredictNavRequest struct {
	FundID          string         `json:"fund_id" validate:"required"`
	DaysAhead       int            `json:"days_ahead" default:"30" validate:"gte=1,lte=365"`
	ConfidenceLevel float64        `json:"confidence_level" default:"0.95" validate:"gt=0,lt=1"`
	History         []RawNavRecord `json:"history,omitempty" validate:"omitempty,dive"`
}

type PredictMultipleRequest struct {
	FundIDs   []string `json:"fund_ids" validate:"required,min=1,max=20,dive,required"`
	DaysAhead int      `json:"days_ahead" default:"30" validate:"gte=1,lte=365"`
}

type OptimizePortfolioRequest struct {
	UserID           string  `json:"user_id" validate:"required"`
	OptimizationType string  `json:"optimization_type" default:"max_sharpe" validate:"oneof=max_sharpe min_risk efficient_risk"`
	RiskTolerance    float64 `json:"risk_tolerance" default:"0.15" validate:"gt=0,lte=2"`
}

type RiskScoreRequest struct {
	FundID      string `json:"fund_id" validate:"required"`
	BenchmarkID string `json:"benchmark_id,omitempty"`
}

type PortfolioRiskRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type RecommendationsRequest struct {
	UserID        string      `json:"user_id" validate:"required"`
	RiskTolerance string      `json:"risk_tolerance" default:"moderate" validate:"oneof=low moderate high"`
	MarketData    MarketTable `json:"market_data,omitempty"`
}

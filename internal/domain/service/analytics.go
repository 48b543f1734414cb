package service

import (
	"context"

	"FinAdvisor/internal/domain/models"
)

// Forecaster projects a NAV series forward. Each call fits from scratch.
type Forecaster interface {
	Predict(ctx context.Context, series models.NavSeries, daysAhead int, confidenceLevel float64) (*models.ForecastResult, error)
}

// PortfolioOptimizer computes a long-only allocation across funds.
type PortfolioOptimizer interface {
	Optimize(ctx context.Context, holdings []models.Holding, history map[string]models.NavSeries, objective models.Objective, riskTolerance float64) (*models.AllocationResult, error)
}

// RiskScorer scores a single fund and a portfolio.
type RiskScorer interface {
	ScoreFund(meta models.FundMetadata, series models.NavSeries, benchmark *models.NavSeries) models.RiskScore
	ScorePortfolio(holdings []models.Holding, fundScores []models.RiskScore) models.PortfolioRiskScore
}

// RecommendationRequest is the context shared by every strategy.
type RecommendationRequest struct {
	Profile  models.UserProfile
	Holdings []models.Holding
	Market   models.MarketTable
}

// RecommendationStrategy produces scored candidates from one signal source.
type RecommendationStrategy interface {
	Name() string
	Recommend(ctx context.Context, req RecommendationRequest) ([]models.Recommendation, error)
}

// ModelTrainer produces a fresh serialized state for one registered model.
type ModelTrainer interface {
	ModelName() string
	Train(ctx context.Context) ([]byte, error)
}

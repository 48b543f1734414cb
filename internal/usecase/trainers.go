package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/services/forecast"
	"FinAdvisor/internal/services/optimizer"
	"FinAdvisor/internal/services/risk"
)

// NavPredictorTrainer fits the configured forecaster on a reference fund.
type NavPredictorTrainer struct {
	history   historyLoader
	cfg       forecast.Config
	reference string
}

func NewNavPredictorTrainer(navs domrepo.NavStore, cfg forecast.Config, referenceFund string, historyDays int) *NavPredictorTrainer {
	return &NavPredictorTrainer{history: newHistoryLoader(navs, historyDays), cfg: cfg, reference: referenceFund}
}

func (t *NavPredictorTrainer) ModelName() string { return models.ModelNavPredictor }

func (t *NavPredictorTrainer) Train(ctx context.Context) ([]byte, error) {
	if t.reference == "" {
		return nil, fmt.Errorf("no reference fund configured")
	}
	series, err := t.history.load(ctx, t.reference)
	if err != nil {
		return nil, err
	}
	switch t.cfg.Model {
	case models.ForecastGBT:
		m, err := forecast.NewGBT(t.cfg.GBT).Train(ctx, series)
		if err != nil {
			return nil, err
		}
		return m.Marshal()
	default:
		m, err := forecast.NewSeasonal(t.cfg.Seasonal).Train(ctx, series)
		if err != nil {
			return nil, err
		}
		return m.Marshal()
	}
}

// ParamsTrainer serializes a fixed parameter set for a registered model.
type ParamsTrainer struct {
	name   string
	params func() any
}

// NewRiskScorerTrainer persists the configured risk scorer parameters.
func NewRiskScorerTrainer(s *risk.Scorer) *ParamsTrainer {
	return &ParamsTrainer{name: models.ModelRiskScorer, params: func() any { return s.Params() }}
}

// NewOptimizerTrainer persists the configured optimizer parameters.
func NewOptimizerTrainer(o *optimizer.Optimizer) *ParamsTrainer {
	return &ParamsTrainer{name: models.ModelPortfolioOptimizer, params: func() any { return o.Params() }}
}

func (t *ParamsTrainer) ModelName() string { return t.name }

func (t *ParamsTrainer) Train(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(t.params())
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", t.name, err)
	}
	return b, nil
}

// Trainers lists every trainer the registry runs on retrain.
func Trainers(nav *NavPredictorTrainer, s *risk.Scorer, o *optimizer.Optimizer) []domsvc.ModelTrainer {
	return []domsvc.ModelTrainer{nav, NewRiskScorerTrainer(s), NewOptimizerTrainer(o)}
}

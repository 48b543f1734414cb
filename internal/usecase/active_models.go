package usecase

import (
	"context"
	"sync/atomic"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/optimizer"
	"FinAdvisor/internal/services/risk"
	applogger "FinAdvisor/pkg/logger"
)

// ModelRegistry is the registry surface the use cases depend on.
type ModelRegistry interface {
	GetModel(name string) (*models.ModelArtifact, bool)
	GetModelStatus() map[string]models.ModelStatus
	RetrainAllModels(ctx context.Context) models.RetrainTicket
	Ticket(id string) (models.RetrainTicket, bool)
}

type decoded[T any] struct {
	art *models.ModelArtifact
	val T
}

// ActiveModels resolves the risk scorer and optimizer from the registry's
// current artifacts, falling back to the configured defaults when none is
// loaded or an artifact does not decode. A decoded value is reused until
// the registry publishes a different artifact.
type ActiveModels struct {
	reg        ModelRegistry
	riskDef    *risk.Scorer
	optDef     *optimizer.Optimizer
	riskCached atomic.Pointer[decoded[*risk.Scorer]]
	optCached  atomic.Pointer[decoded[*optimizer.Optimizer]]
	l          *applogger.Logger
}

func NewActiveModels(reg ModelRegistry, riskDefault *risk.Scorer, optDefault *optimizer.Optimizer, l *applogger.Logger) *ActiveModels {
	return &ActiveModels{reg: reg, riskDef: riskDefault, optDef: optDefault, l: l}
}

// RiskScorer returns the scorer for the current risk_scorer artifact.
func (m *ActiveModels) RiskScorer() *risk.Scorer {
	art, ok := m.reg.GetModel(models.ModelRiskScorer)
	if !ok {
		return m.riskDef
	}
	if c := m.riskCached.Load(); c != nil && c.art == art {
		return c.val
	}
	p, err := risk.DecodeParams(art.State)
	if err != nil {
		m.warnDecode(models.ModelRiskScorer, err)
		return m.riskDef
	}
	s := risk.NewScorer(p)
	m.riskCached.Store(&decoded[*risk.Scorer]{art: art, val: s})
	return s
}

// Optimizer returns the optimizer for the current portfolio_optimizer artifact.
func (m *ActiveModels) Optimizer() *optimizer.Optimizer {
	art, ok := m.reg.GetModel(models.ModelPortfolioOptimizer)
	if !ok {
		return m.optDef
	}
	if c := m.optCached.Load(); c != nil && c.art == art {
		return c.val
	}
	p, err := optimizer.DecodeParams(art.State)
	if err != nil {
		m.warnDecode(models.ModelPortfolioOptimizer, err)
		return m.optDef
	}
	o := optimizer.New(p)
	m.optCached.Store(&decoded[*optimizer.Optimizer]{art: art, val: o})
	return o
}

func (m *ActiveModels) warnDecode(name string, err error) {
	if m.l != nil {
		m.l.Warn("model artifact decode failed, using defaults", applogger.String("model", name), applogger.Error(err))
	}
}

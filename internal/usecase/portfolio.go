package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"

	"golang.org/x/sync/errgroup"
)

// PortfolioUseCase runs allocation and risk scoring for stored funds and
// user portfolios.
type PortfolioUseCase struct {
	history  historyLoader
	funds    domrepo.FundStore
	holdings domrepo.HoldingStore
	active   *ActiveModels
	metrics  domrepo.Metrics
}

func NewPortfolioUseCase(navs domrepo.NavStore, funds domrepo.FundStore, holdings domrepo.HoldingStore, active *ActiveModels, historyDays int, m domrepo.Metrics) *PortfolioUseCase {
	return &PortfolioUseCase{
		history:  newHistoryLoader(navs, historyDays),
		funds:    funds,
		holdings: holdings,
		active:   active,
		metrics:  m,
	}
}

type OptimizeParams struct {
	UserID        string
	Objective     string
	RiskTolerance float64
}

// OptimizeForUser allocates across the user's held funds.
func (uc *PortfolioUseCase) OptimizeForUser(ctx context.Context, p OptimizeParams) (res *models.AllocationResult, err error) {
	defer observe(uc.metrics, "optimize_portfolio", time.Now(), &err)

	objective, err := models.ParseObjective(p.Objective)
	if err != nil {
		return nil, err
	}
	holdings, err := uc.holdings.GetHoldings(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}
	ids := models.HeldFundIDs(holdings)
	if len(ids) == 0 {
		return nil, &models.InsufficientDataError{Op: "optimize_portfolio", Need: 1, Got: 0}
	}
	history, err := uc.history.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return uc.active.Optimizer().Optimize(ctx, holdings, history, objective, p.RiskTolerance)
}

// ScoreFund scores a stored fund, optionally against a benchmark fund.
func (uc *PortfolioUseCase) ScoreFund(ctx context.Context, fundID, benchmarkID string) (res *models.RiskScore, err error) {
	defer observe(uc.metrics, "risk_score", time.Now(), &err)

	meta, err := uc.funds.GetFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	ids := []string{fundID}
	if benchmarkID != "" && benchmarkID != fundID {
		ids = append(ids, benchmarkID)
	}
	history, err := uc.history.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	var bench *models.NavSeries
	if benchmarkID != "" {
		b := history[benchmarkID]
		bench = &b
	}
	score := uc.active.RiskScorer().ScoreFund(meta, history[fundID], bench)
	return &score, nil
}

// ScorePortfolio scores each held fund and returns the portfolio aggregate.
// Holdings whose fund is missing from the catalog are skipped.
func (uc *PortfolioUseCase) ScorePortfolio(ctx context.Context, userID string) (res *models.PortfolioRiskScore, err error) {
	defer observe(uc.metrics, "risk_score_portfolio", time.Now(), &err)

	holdings, err := uc.holdings.GetHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}
	scorer := uc.active.RiskScorer()
	ids := models.HeldFundIDs(holdings)
	scores := make([]models.RiskScore, len(ids))
	found := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			meta, err := uc.funds.GetFund(gctx, id)
			if errors.Is(err, models.ErrFundNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			series, err := uc.history.load(gctx, id)
			if err != nil {
				return err
			}
			s := scorer.ScoreFund(meta, series, nil)
			scores[i], found[i] = s, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	perFund := make([]models.RiskScore, 0, len(ids))
	for i := range ids {
		if found[i] {
			perFund = append(perFund, scores[i])
		}
	}
	out := scorer.ScorePortfolio(holdings, perFund)
	return &out, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	applogger "FinAdvisor/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// dashboardRecommendations caps the recommendations shown on a dashboard.
const dashboardRecommendations = 5

type healthChecker interface {
	Health(ctx context.Context) error
}

// AdvisorUseCase serves the composite views: dashboard, health and the
// model registry endpoints.
type AdvisorUseCase struct {
	portfolio *PortfolioUseCase
	recommend *RecommendUseCase
	registry  ModelRegistry
	navs      domrepo.NavStore
	funds     domrepo.FundStore
	l         *applogger.Logger
}

func NewAdvisorUseCase(portfolio *PortfolioUseCase, recommend *RecommendUseCase, registry ModelRegistry, navs domrepo.NavStore, funds domrepo.FundStore, l *applogger.Logger) *AdvisorUseCase {
	return &AdvisorUseCase{portfolio: portfolio, recommend: recommend, registry: registry, navs: navs, funds: funds, l: l}
}

// Dashboard combines portfolio risk, the top recommendations and the
// registry status for one user.
func (uc *AdvisorUseCase) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	out := &models.Dashboard{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		risk, err := uc.portfolio.ScorePortfolio(gctx, userID)
		if err != nil {
			return err
		}
		out.PortfolioRisk = risk
		return nil
	})
	g.Go(func() error {
		recs, err := uc.recommend.Recommend(gctx, RecommendParams{UserID: userID, RiskTolerance: "moderate"})
		if err != nil {
			return err
		}
		if len(recs) > dashboardRecommendations {
			recs = recs[:dashboardRecommendations]
		}
		out.Recommendations = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Models = uc.registry.GetModelStatus()
	return out, nil
}

// Health pings the stores. A failing store degrades the status but is
// not an error.
func (uc *AdvisorUseCase) Health(ctx context.Context) models.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	checks := map[string]healthChecker{"clickhouse": uc.navs, "postgres": uc.funds}
	res := models.HealthStatus{Status: "healthy", Stores: make(map[string]string, len(checks))}
	for name, c := range checks {
		if err := c.Health(ctx); err != nil {
			res.Stores[name] = "down: " + err.Error()
			res.Status = "degraded"
			if uc.l != nil {
				uc.l.Warn("health check failed", applogger.String("store", name), applogger.Error(err))
			}
			continue
		}
		res.Stores[name] = "up"
	}
	res.Models = uc.registry.GetModelStatus()
	return res
}

func (uc *AdvisorUseCase) ModelStatus() map[string]models.ModelStatus {
	return uc.registry.GetModelStatus()
}

// Retrain starts an asynchronous retrain and returns its ticket.
func (uc *AdvisorUseCase) Retrain(ctx context.Context) models.RetrainTicket {
	return uc.registry.RetrainAllModels(ctx)
}

// Ticket reports a retrain run.
func (uc *AdvisorUseCase) Ticket(id string) (models.RetrainTicket, error) {
	t, ok := uc.registry.Ticket(id)
	if !ok {
		return models.RetrainTicket{}, fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	return t, nil
}

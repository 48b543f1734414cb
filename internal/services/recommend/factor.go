package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"FinAdvisor/internal/domain/models"
	domsvc "FinAdvisor/internal/domain/service"
)

// FactorStrategy scores funds from the market table by
// 0.5·(1-volatility) + 0.25·Sharpe behind a risk-tolerance gate.
type FactorStrategy struct{}

func NewFactorStrategy() *FactorStrategy { return &FactorStrategy{} }

func (s *FactorStrategy) Name() string { return "factor" }

func (s *FactorStrategy) Recommend(_ context.Context, req domsvc.RecommendationRequest) ([]models.Recommendation, error) {
	if len(req.Market) == 0 {
		return nil, nil
	}
	high := strings.EqualFold(req.Profile.RiskTolerance, "high")

	ids := make([]string, 0, len(req.Market))
	for id := range req.Market {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.Recommendation
	for _, id := range ids {
		row := req.Market[id]
		if high && !(row.Sharpe > 1) {
			continue
		}
		if !high && !(row.Volatility < 0.2) {
			continue
		}
		out = append(out, models.Recommendation{
			FundID: id,
			Score:  0.5*(1-row.Volatility) + 0.25*row.Sharpe,
			Reason: fmt.Sprintf("Volatility %.1f%% with Sharpe ratio %.2f.", row.Volatility*100, row.Sharpe),
		})
	}
	return out, nil
}

var _ domsvc.RecommendationStrategy = (*FactorStrategy)(nil)

package recommend

import (
	"context"
	"fmt"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"
)

const (
	DefaultPopularLimit = 20
	popularityScore     = 0.80
)

// PopularityStrategy recommends the most widely held funds the user does
// not already own.
type PopularityStrategy struct {
	funds domrepo.FundStore
	limit int
}

func NewPopularityStrategy(funds domrepo.FundStore, limit int) *PopularityStrategy {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return &PopularityStrategy{funds: funds, limit: limit}
}

func (s *PopularityStrategy) Name() string { return "popularity" }

func (s *PopularityStrategy) Recommend(ctx context.Context, req domsvc.RecommendationRequest) ([]models.Recommendation, error) {
	if len(req.Holdings) == 0 {
		return nil, nil
	}
	popular, err := s.funds.PopularFunds(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("popularity: %w", err)
	}
	held := map[string]bool{}
	for _, id := range models.HeldFundIDs(req.Holdings) {
		held[id] = true
	}
	out := make([]models.Recommendation, 0, len(popular))
	for _, p := range popular {
		if held[p.FundID] {
			continue
		}
		out = append(out, models.Recommendation{
			FundID: p.FundID,
			Score:  popularityScore,
			Reason: fmt.Sprintf("Popular fund with %d investors.", p.HolderCount),
		})
	}
	return out, nil
}

var _ domsvc.RecommendationStrategy = (*PopularityStrategy)(nil)

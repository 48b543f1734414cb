package recommend

import (
	"context"
	"sort"

	"FinAdvisor/internal/domain/models"
	domsvc "FinAdvisor/internal/domain/service"

	"golang.org/x/sync/errgroup"
)

// Engine runs a fixed pipeline of strategies concurrently and fuses their
// outputs.
type Engine struct {
	strategies []domsvc.RecommendationStrategy
}

func NewEngine(strategies ...domsvc.RecommendationStrategy) *Engine {
	return &Engine{strategies: strategies}
}

// Generate returns deduplicated recommendations in descending score order.
func (e *Engine) Generate(ctx context.Context, profile models.UserProfile, holdings []models.Holding, market models.MarketTable) ([]models.Recommendation, error) {
	req := domsvc.RecommendationRequest{Profile: profile, Holdings: holdings, Market: market}
	outputs := make([][]models.Recommendation, len(e.strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range e.strategies {
		g.Go(func() error {
			recs, err := s.Recommend(gctx, req)
			if err != nil {
				return err
			}
			for j := range recs {
				recs[j].Sources = []string{s.Name()}
			}
			outputs[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Fuse(outputs...), nil
}

// Fuse merges strategy outputs by fund id. Scores of a recurring id are
// averaged, the reason of the last contributing strategy wins, and the
// result is sorted by score descending, then fund id.
func Fuse(outputs ...[]models.Recommendation) []models.Recommendation {
	type acc struct {
		rec   models.Recommendation
		sum   float64
		count int
	}
	byID := map[string]*acc{}
	var order []string
	for _, recs := range outputs {
		for _, r := range recs {
			a, ok := byID[r.FundID]
			if !ok {
				a = &acc{rec: models.Recommendation{FundID: r.FundID}}
				byID[r.FundID] = a
				order = append(order, r.FundID)
			}
			a.sum += r.Score
			a.count++
			a.rec.Reason = r.Reason
			a.rec.Sources = append(a.rec.Sources, r.Sources...)
		}
	}

	out := make([]models.Recommendation, 0, len(order))
	for _, id := range order {
		a := byID[id]
		a.rec.Score = a.sum / float64(a.count)
		out = append(out, a.rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].FundID < out[j].FundID
	})
	return out
}

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"
)

// ContentStrategy ranks candidates by cosine similarity to the centroid of
// the user's held funds. Features are a one-hot category plus the min-max
// scaled expense ratio.
type ContentStrategy struct {
	funds domrepo.FundStore
	// categoryPool > 0 restricts candidates to at most that many funds per
	// held category instead of the full catalog.
	categoryPool int
}

func NewContentStrategy(funds domrepo.FundStore, categoryPool int) *ContentStrategy {
	return &ContentStrategy{funds: funds, categoryPool: categoryPool}
}

func (s *ContentStrategy) Name() string { return "content" }

func (s *ContentStrategy) Recommend(ctx context.Context, req domsvc.RecommendationRequest) ([]models.Recommendation, error) {
	heldIDs := models.HeldFundIDs(req.Holdings)
	if len(heldIDs) == 0 {
		return nil, nil
	}
	held := make([]models.FundMetadata, 0, len(heldIDs))
	for _, id := range heldIDs {
		m, err := s.funds.GetFund(ctx, id)
		if errors.Is(err, models.ErrFundNotFound) {
			// Holdings can outlive catalog entries.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("content: held fund %s: %w", id, err)
		}
		held = append(held, m)
	}
	if len(held) == 0 {
		return nil, nil
	}
	candidates, err := s.candidates(ctx, held)
	if err != nil {
		return nil, err
	}
	return rankBySimilarity(held, candidates), nil
}

func (s *ContentStrategy) candidates(ctx context.Context, held []models.FundMetadata) ([]models.FundMetadata, error) {
	if s.categoryPool <= 0 {
		all, err := s.funds.ListFunds(ctx)
		if err != nil {
			return nil, fmt.Errorf("content: list funds: %w", err)
		}
		return all, nil
	}
	seen := map[string]bool{}
	var out []models.FundMetadata
	for _, h := range held {
		if seen["cat:"+h.Category] {
			continue
		}
		seen["cat:"+h.Category] = true
		fs, err := s.funds.FundsByCategory(ctx, h.Category, s.categoryPool)
		if err != nil {
			return nil, fmt.Errorf("content: category %q: %w", h.Category, err)
		}
		for _, f := range fs {
			if !seen[f.FundID] {
				seen[f.FundID] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// rankBySimilarity scores every candidate not in held. The feature space
// spans the categories and expense-ratio range of both sets.
func rankBySimilarity(held, candidates []models.FundMetadata) []models.Recommendation {
	heldSet := make(map[string]bool, len(held))
	for _, h := range held {
		heldSet[h.FundID] = true
	}

	universe := append(append([]models.FundMetadata(nil), held...), candidates...)
	catIndex := map[string]int{}
	minER, maxER := math.Inf(1), math.Inf(-1)
	for _, f := range universe {
		if _, ok := catIndex[f.Category]; !ok {
			catIndex[f.Category] = len(catIndex)
		}
		minER = math.Min(minER, f.ExpenseRatio)
		maxER = math.Max(maxER, f.ExpenseRatio)
	}
	dim := len(catIndex) + 1
	vector := func(f models.FundMetadata) []float64 {
		v := make([]float64, dim)
		v[catIndex[f.Category]] = 1
		if maxER > minER {
			v[dim-1] = (f.ExpenseRatio - minER) / (maxER - minER)
		}
		return v
	}

	centroid := make([]float64, dim)
	for _, h := range held {
		for i, x := range vector(h) {
			centroid[i] += x / float64(len(held))
		}
	}

	var out []models.Recommendation
	for _, c := range candidates {
		if heldSet[c.FundID] {
			continue
		}
		heldSet[c.FundID] = true // dedupe candidates
		out = append(out, models.Recommendation{
			FundID: c.FundID,
			Score:  cosine(centroid, vector(c)),
			Reason: fmt.Sprintf("Similar to your holdings in the %s category.", c.Category),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func cosine(a, b []float64) float64 {
	dot, na, nb := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

var _ domsvc.RecommendationStrategy = (*ContentStrategy)(nil)

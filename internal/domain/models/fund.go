package models

// FundMetadata describes a scheme as stored in the fund catalog.
type FundMetadata struct {
	FundID       string  `json:"fund_id"`
	SchemeName   string  `json:"scheme_name"`
	AMC          string  `json:"amc,omitempty"`
	Category     string  `json:"category"`
	ExpenseRatio float64 `json:"expense_ratio"` // percent, e.g. 1.25
}

// Holding is one position in a user's portfolio.
type Holding struct {
	FundID         string  `json:"fund_id"`
	Units          float64 `json:"units"`
	InvestedAmount float64 `json:"invested_amount"`
}

// PopularFund is a fund ranked by distinct holder count.
type PopularFund struct {
	FundID      string `json:"fund_id"`
	HolderCount int    `json:"holder_count"`
}

// HeldFundIDs returns the distinct fund ids in holdings, in first-seen order.
func HeldFundIDs(holdings []Holding) []string {
	seen := make(map[string]struct{}, len(holdings))
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if _, ok := seen[h.FundID]; ok {
			continue
		}
		seen[h.FundID] = struct{}{}
		out = append(out, h.FundID)
	}
	return out
}

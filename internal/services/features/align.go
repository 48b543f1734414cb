package features

import (
	"sort"
	"time"

	"FinAdvisor/internal/domain/models"
)

// Aligned is a price matrix on a common date index. Prices[i][j] is the
// value of Funds[j] on Dates[i].
type Aligned struct {
	Dates  []time.Time
	Funds  []string
	Prices [][]float64
}

// AlignUnion places every series on the union of all dates, forward-filling
// then back-filling gaps. Funds are ordered by id. A series with no points
// stays zero and should be rejected by the caller.
func AlignUnion(series map[string]models.NavSeries) Aligned {
	funds := make([]string, 0, len(series))
	seen := map[int64]time.Time{}
	for id, s := range series {
		funds = append(funds, id)
		for _, p := range s.Points {
			seen[p.Date.Unix()] = p.Date
		}
	}
	sort.Strings(funds)

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	index := make(map[int64]int, len(dates))
	for i, d := range dates {
		index[d.Unix()] = i
	}

	prices := make([][]float64, len(dates))
	for i := range prices {
		prices[i] = make([]float64, len(funds))
	}
	for j, id := range funds {
		col := make([]float64, len(dates))
		has := make([]bool, len(dates))
		for _, p := range series[id].Points {
			k := index[p.Date.Unix()]
			col[k] = p.Value
			has[k] = true
		}
		fillColumn(col, has)
		for i := range dates {
			prices[i][j] = col[i]
		}
	}
	return Aligned{Dates: dates, Funds: funds, Prices: prices}
}

// fillColumn forward-fills then back-fills missing positions in place.
func fillColumn(col []float64, has []bool) {
	last, seen := 0.0, false
	for i := range col {
		if has[i] {
			last, seen = col[i], true
		} else if seen {
			col[i] = last
			has[i] = true
		}
	}
	next, seen := 0.0, false
	for i := len(col) - 1; i >= 0; i-- {
		if has[i] {
			next, seen = col[i], true
		} else if seen {
			col[i] = next
		}
	}
}

// Column extracts fund j's aligned prices.
func (a Aligned) Column(j int) []float64 {
	out := make([]float64, len(a.Prices))
	for i, row := range a.Prices {
		out[i] = row[j]
	}
	return out
}

// PairedReturns returns simple returns of a and b computed over the dates
// they share.
func PairedReturns(a, b models.NavSeries) ([]float64, []float64) {
	bv := make(map[int64]float64, len(b.Points))
	for _, p := range b.Points {
		bv[p.Date.Unix()] = p.Value
	}
	var av, bs []float64
	for _, p := range a.Points {
		if v, ok := bv[p.Date.Unix()]; ok {
			av = append(av, p.Value)
			bs = append(bs, v)
		}
	}
	return PctChange(av), PctChange(bs)
}

package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"industry-pulse/internal/models"
)

// WindowedRevenue holds the two per-industry aggregates computed
// relative to a single reference instant. An industry absent from a map
// had no orders inside that window; absence is meaningful and is not
// the same as a zero value.
type WindowedRevenue struct {
	// Daily is the sum of order amounts per industry over the short window
	Daily map[string]decimal.Decimal
	// MonthlyAvg is the mean order amount per industry over the long window
	MonthlyAvg map[string]decimal.Decimal
}

// ReferenceInstant returns the maximum timestamp over the enriched
// rows. Windows anchor on observed data, not wall clock, so a run over
// historical feeds is deterministic and replayable. The second return
// is false for an empty dataset.
func ReferenceInstant(rows []models.OrderWithIndustry) (time.Time, bool) {
	if len(rows) == 0 {
		return time.Time{}, false
	}
	ref := rows[0].Timestamp
	for _, row := range rows[1:] {
		if row.Timestamp.After(ref) {
			ref = row.Timestamp
		}
	}
	return ref, true
}

// AggregateRevenue computes both windowed aggregates in one pass over
// the enriched rows. A row is inside a window when its timestamp is at
// or after the window's lower bound; the reference instant itself is
// included. The short window sits fully inside the long window, so
// short-window rows also feed the long-window mean.
func AggregateRevenue(rows []models.OrderWithIndustry, ref time.Time, short, long time.Duration) WindowedRevenue {
	shortBound := ref.Add(-short)
	longBound := ref.Add(-long)

	daily := make(map[string]decimal.Decimal)
	longSum := make(map[string]decimal.Decimal)
	longCount := make(map[string]int64)

	for _, row := range rows {
		if !row.Timestamp.Before(shortBound) {
			daily[row.SpecializedIndustry] = daily[row.SpecializedIndustry].Add(row.Amount)
		}
		if !row.Timestamp.Before(longBound) {
			longSum[row.SpecializedIndustry] = longSum[row.SpecializedIndustry].Add(row.Amount)
			longCount[row.SpecializedIndustry]++
		}
	}

	monthlyAvg := make(map[string]decimal.Decimal, len(longSum))
	for industry, sum := range longSum {
		monthlyAvg[industry] = sum.Div(decimal.NewFromInt(longCount[industry]))
	}

	return WindowedRevenue{Daily: daily, MonthlyAvg: monthlyAvg}
}

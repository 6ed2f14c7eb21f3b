package pipeline

import (
	"fmt"
	"sort"

	"industry-pulse/internal/models"
)

// RankingMode selects how industries are ordered by their fluctuation
// score before the top-N cut.
type RankingMode string

const (
	// SignedRanking orders by signed fluctuation, descending. This is
	// the default and mirrors the source behavior: a large negative
	// fluctuation ranks last, not first.
	SignedRanking RankingMode = "signed"
	// MagnitudeRanking orders by absolute fluctuation, descending, so
	// large swings surface regardless of sign. Opt-in alternative to
	// the signed default.
	MagnitudeRanking RankingMode = "magnitude"
)

// ParseRankingMode validates a ranking mode name from config
func ParseRankingMode(s string) (RankingMode, error) {
	switch RankingMode(s) {
	case SignedRanking, MagnitudeRanking:
		return RankingMode(s), nil
	default:
		return "", fmt.Errorf("unknown ranking mode: %q", s)
	}
}

// RankFluctuations inner-joins the two windowed aggregates per
// industry, scores each industry as daily_revenue - monthly_avg_revenue
// and returns the top N under the given mode. An industry missing from
// either window is excluded entirely, not treated as zero. Ties are
// broken by industry name ascending so the output is deterministic.
func RankFluctuations(rev WindowedRevenue, mode RankingMode, topN int) []models.IndustryFluctuation {
	rows := make([]models.IndustryFluctuation, 0, len(rev.Daily))
	for industry, daily := range rev.Daily {
		monthlyAvg, ok := rev.MonthlyAvg[industry]
		if !ok {
			continue
		}
		rows = append(rows, models.IndustryFluctuation{
			SpecializedIndustry: industry,
			DailyRevenue:        daily,
			MonthlyAvgRevenue:   monthlyAvg,
			Fluctuation:         daily.Sub(monthlyAvg),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Fluctuation, rows[j].Fluctuation
		if mode == MagnitudeRanking {
			a, b = a.Abs(), b.Abs()
		}
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return rows[i].SpecializedIndustry < rows[j].SpecializedIndustry
	})

	if topN >= 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

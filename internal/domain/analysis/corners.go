package analysis

import (
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
)

// CornersAnalyzer projects corner counts from recent head-to-head meetings.
type CornersAnalyzer struct{}

func (*CornersAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetCorners }

func (*CornersAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionH2HDetails}
}

func (*CornersAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	indicators := map[string]any{
		"average_corners": nil,
		"over_9_5":        nil,
		"over_10_5":       nil,
		"matches":         nil,
	}

	details, ok := r.H2HDetails()
	if !ok {
		return indicators
	}

	perMatch := make([]map[string]any, 0, len(details))
	var sum float64
	var counted, over95, over105 int

	for _, detail := range details {
		homeID, awayID := detailTeams(detail)

		home, okHome := statValue(detail, homeID, statCornerKicks)
		away, okAway := statValue(detail, awayID, statCornerKicks)

		entry := map[string]any{
			"fixture_id": detail.FixtureID,
			"home":       nullableFloat(home, okHome),
			"away":       nullableFloat(away, okAway),
			"total":      nil,
		}

		if okHome && okAway {
			total := home + away
			entry["total"] = total
			sum += total
			counted++
			if total > 9.5 {
				over95++
			}
			if total > 10.5 {
				over105++
			}
		}

		perMatch = append(perMatch, entry)
	}

	indicators["matches"] = perMatch
	indicators["average_corners"] = average(sum, counted)
	indicators["over_9_5"] = map[string]any{"count": over95, "percent": percent(over95, counted)}
	indicators["over_10_5"] = map[string]any{"count": over105, "percent": percent(over105, counted)}

	return indicators
}

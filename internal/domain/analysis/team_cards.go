package analysis

import (
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
)

// TeamCardsAnalyzer projects booking counts from recent head-to-head
// meetings. Season-level team discipline is not part of its required inputs,
// so the projection is limited to direct meetings.
type TeamCardsAnalyzer struct{}

func (*TeamCardsAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetTeamCards }

func (*TeamCardsAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionH2HDetails}
}

func (*TeamCardsAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	indicators := map[string]any{
		"average_yellow": nil,
		"average_red":    nil,
		"average_total":  nil,
		"matches":        nil,
	}

	details, ok := r.H2HDetails()
	if !ok {
		return indicators
	}

	perMatch := make([]map[string]any, 0, len(details))
	var yellowSum, redSum float64
	var counted int

	for _, detail := range details {
		homeID, awayID := detailTeams(detail)

		homeYellow, okHY := statValue(detail, homeID, statYellowCards)
		awayYellow, okAY := statValue(detail, awayID, statYellowCards)
		homeRed, okHR := statValue(detail, homeID, statRedCards)
		awayRed, okAR := statValue(detail, awayID, statRedCards)

		entry := map[string]any{
			"fixture_id": detail.FixtureID,
			"yellow": map[string]any{
				"home": nullableFloat(homeYellow, okHY),
				"away": nullableFloat(awayYellow, okAY),
			},
			"red": map[string]any{
				"home": nullableFloat(homeRed, okHR),
				"away": nullableFloat(awayRed, okAR),
			},
			"total": nil,
		}

		if okHY && okAY {
			yellow := homeYellow + awayYellow
			red := 0.0
			if okHR && okAR {
				red = homeRed + awayRed
			}
			entry["total"] = yellow + red
			yellowSum += yellow
			redSum += red
			counted++
		}

		perMatch = append(perMatch, entry)
	}

	indicators["matches"] = perMatch
	indicators["average_yellow"] = average(yellowSum, counted)
	indicators["average_red"] = average(redSum, counted)
	indicators["average_total"] = average(yellowSum+redSum, counted)

	return indicators
}

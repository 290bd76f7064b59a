package analysis

import (
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

// ScorerAnalyzer projects goalscorer markets from the league scoring board
// and goals observed in recent direct meetings.
type ScorerAnalyzer struct{}

func (*ScorerAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetScorer }

func (*ScorerAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionTopScorers, bundle.SectionH2HDetails}
}

func (*ScorerAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	_, homeName := r.HomeTeam()
	_, awayName := r.AwayTeam()

	indicators := map[string]any{
		"league_top":  nil,
		"home_team":   nil,
		"away_team":   nil,
		"h2h_scorers": nil,
	}

	if rows, ok := r.Slice(bundle.SectionTopScorers); ok {
		board := parseBoard(rows, []string{"goals", "total"})
		indicators["league_top"] = scoringBoardOutput(truncateBoard(board, 10))
		indicators["home_team"] = scoringBoardOutput(truncateBoard(filterBoardByTeam(board, homeName), 5))
		indicators["away_team"] = scoringBoardOutput(truncateBoard(filterBoardByTeam(board, awayName), 5))
	}

	if details, ok := r.H2HDetails(); ok {
		indicators["h2h_scorers"] = tallyEvents(details, "Goal", goalScorerName)
	}

	return indicators
}

// AssisterAnalyzer is the assist-market counterpart of ScorerAnalyzer. The
// provider reports assist totals under different keys depending on the
// competition, so the count is probed in a fixed precedence order.
type AssisterAnalyzer struct{}

func (*AssisterAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetAssister }

func (*AssisterAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionTopAssists, bundle.SectionH2HDetails}
}

func (*AssisterAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	_, homeName := r.HomeTeam()
	_, awayName := r.AwayTeam()

	indicators := map[string]any{
		"league_top":    nil,
		"home_team":     nil,
		"away_team":     nil,
		"h2h_assisters": nil,
	}

	if rows, ok := r.Slice(bundle.SectionTopAssists); ok {
		board := parseBoard(rows,
			[]string{"goals", "assists"},
			[]string{"passes", "assists"},
			[]string{"passes", "total"},
		)
		indicators["league_top"] = scoringBoardOutput(truncateBoard(board, 10))
		indicators["home_team"] = scoringBoardOutput(truncateBoard(filterBoardByTeam(board, homeName), 5))
		indicators["away_team"] = scoringBoardOutput(truncateBoard(filterBoardByTeam(board, awayName), 5))
	}

	if details, ok := r.H2HDetails(); ok {
		indicators["h2h_assisters"] = tallyEvents(details, "Goal", goalAssisterName)
	}

	return indicators
}

func scoringBoardOutput(entries []boardEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"name":         e.Name,
			"team":         e.Team,
			"count":        e.Count,
			"appearances":  e.Appearances,
			"goals_per_90": per90(float64(e.Count), e.Minutes),
		})
	}
	return out
}

func goalScorerName(event any) string {
	name, _ := dig.String(event, "player", "name")
	return name
}

func goalAssisterName(event any) string {
	name, _ := dig.String(event, "assist", "name")
	return name
}

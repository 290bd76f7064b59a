package analysis

import (
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

const (
	riskYellowFloor = 5
	highRiskYellows = 8
)

// PlayerCardsAnalyzer projects individual booking risk: league discipline
// boards, a risk tier for heavily-booked players, and bookings observed in
// recent direct meetings.
type PlayerCardsAnalyzer struct{}

func (*PlayerCardsAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetPlayerCards }

func (*PlayerCardsAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionTopYellow, bundle.SectionTopRed, bundle.SectionH2HDetails}
}

func (*PlayerCardsAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	indicators := map[string]any{
		"top_yellow":   nil,
		"top_red":      nil,
		"risk_players": nil,
		"h2h_cards":    nil,
	}

	if rows, ok := r.Slice(bundle.SectionTopYellow); ok {
		board := parseBoard(rows, []string{"cards", "yellow"})
		indicators["top_yellow"] = boardOutput(truncateBoard(board, 10))
		indicators["risk_players"] = riskPlayers(board)
	}

	if rows, ok := r.Slice(bundle.SectionTopRed); ok {
		board := parseBoard(rows, []string{"cards", "red"})
		indicators["top_red"] = boardOutput(truncateBoard(board, 10))
	}

	if details, ok := r.H2HDetails(); ok {
		indicators["h2h_cards"] = tallyEvents(details, "Card", func(event any) string {
			name, _ := dig.String(event, "player", "name")
			return name
		})
	}

	return indicators
}

func boardOutput(entries []boardEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"name":     e.Name,
			"team":     e.Team,
			"count":    e.Count,
			"position": e.Position,
		})
	}
	return out
}

func riskPlayers(board []boardEntry) []map[string]any {
	out := make([]map[string]any, 0)
	for _, e := range board {
		if e.Count < riskYellowFloor {
			continue
		}
		tier := "medium"
		if e.Count >= highRiskYellows {
			tier = "high"
		}
		out = append(out, map[string]any{
			"name":    e.Name,
			"team":    e.Team,
			"yellows": e.Count,
			"tier":    tier,
		})
	}
	return out
}


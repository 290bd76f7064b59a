package analysis

import (
	"strings"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

// MatchWinnerAnalyzer produces the 1x2 projection: recent form, head-to-head
// balance, table gap, home advantage, and the provider's own prediction.
type MatchWinnerAnalyzer struct{}

func (*MatchWinnerAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetMatchWinner }

func (*MatchWinnerAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionPredictions, bundle.SectionH2HHistory, bundle.SectionStandings}
}

func (*MatchWinnerAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	homeID, homeName := r.HomeTeam()
	awayID, awayName := r.AwayTeam()

	indicators := map[string]any{
		"recent_form":    nil,
		"h2h_stats":      nil,
		"standings_gap":  nil,
		"home_advantage": nil,
		"prediction_api": nil,
	}

	if predictions, ok := r.Section(bundle.SectionPredictions); ok {
		indicators["recent_form"] = map[string]any{
			"home": teamForm(predictions, "home"),
			"away": teamForm(predictions, "away"),
		}
		indicators["home_advantage"] = homeAdvantage(predictions)
		indicators["prediction_api"] = providerPrediction(predictions)
	}

	if history, ok := r.Slice(bundle.SectionH2HHistory); ok {
		indicators["h2h_stats"] = h2hBalance(history, homeID, awayID)
	}

	if standings, ok := r.Slice(bundle.SectionStandings); ok {
		indicators["standings_gap"] = standingsGap(standings, homeID, homeName, awayID, awayName)
	}

	return indicators
}

func teamForm(predictions any, side string) map[string]any {
	league := dig.Map(predictions, "teams", side, "league")
	form, _ := dig.String(league, "form")

	last5 := form
	if len(last5) > 5 {
		last5 = last5[len(last5)-5:]
	}

	return map[string]any{
		"form":        last5,
		"wins_last_5": strings.Count(last5, "W"),
		"fixtures":    dig.Map(league, "fixtures"),
	}
}

func homeAdvantage(predictions any) map[string]any {
	wins := dig.Map(predictions, "teams", "home", "league", "fixtures", "wins")
	homeWins, _ := dig.Int(wins, "home")
	awayWins, _ := dig.Int(wins, "away")
	total := homeWins + awayWins

	advantage := map[string]any{
		"home_wins_at_home": homeWins,
		"home_wins_away":    awayWins,
	}
	if total > 0 {
		advantage["home_win_share"] = percent(int(homeWins), int(total))
	} else {
		advantage["home_win_share"] = nil
	}
	return advantage
}

func providerPrediction(predictions any) map[string]any {
	winner, _ := dig.String(predictions, "predictions", "winner", "name")
	advice, _ := dig.String(predictions, "predictions", "advice")

	percentages := map[string]any{"home": nil, "draw": nil, "away": nil}
	for _, side := range []string{"home", "draw", "away"} {
		if v, ok := dig.Float(predictions, "predictions", "percent", side); ok {
			percentages[side] = round1(v)
		}
	}

	return map[string]any{
		"winner":      winner,
		"percentages": percentages,
		"advice":      advice,
	}
}

// h2hBalance tallies prior meetings relative to this fixture's home side.
func h2hBalance(history []any, homeID, awayID int64) map[string]any {
	var homeWins, draws, awayWins int
	last5 := make([]map[string]any, 0, 5)

	for _, meeting := range history {
		goalsHome, okH := dig.Int(meeting, "goals", "home")
		goalsAway, okA := dig.Int(meeting, "goals", "away")
		if !okH || !okA {
			continue
		}

		// Meetings not involving this pairing cannot be oriented.
		meetingHomeID, _ := dig.Int(meeting, "teams", "home", "id")
		if meetingHomeID != homeID && meetingHomeID != awayID {
			continue
		}
		hostedByHomeSide := meetingHomeID == homeID

		result := "draw"
		switch {
		case goalsHome > goalsAway:
			if hostedByHomeSide {
				result = "home_win"
			} else {
				result = "away_win"
			}
		case goalsAway > goalsHome:
			if hostedByHomeSide {
				result = "away_win"
			} else {
				result = "home_win"
			}
		}

		switch result {
		case "home_win":
			homeWins++
		case "away_win":
			awayWins++
		default:
			draws++
		}

		if len(last5) < 5 {
			date, _ := dig.String(meeting, "fixture", "date")
			homeName, _ := dig.String(meeting, "teams", "home", "name")
			awayName, _ := dig.String(meeting, "teams", "away", "name")
			last5 = append(last5, map[string]any{
				"date":   date,
				"result": result,
				"score":  map[string]any{"home": goalsHome, "away": goalsAway, "home_team": homeName, "away_team": awayName},
			})
		}
	}

	return map[string]any{
		"home_wins": homeWins,
		"draws":     draws,
		"away_wins": awayWins,
		"last_5":    last5,
	}
}

func standingsGap(standings []any, homeID int64, homeName string, awayID int64, awayName string) map[string]any {
	find := func(teamID int64, teamName string) (rank, points int64, found bool) {
		for _, entry := range standings {
			id, _ := dig.Int(entry, "team", "id")
			name, _ := dig.String(entry, "team", "name")
			if (teamID != 0 && id == teamID) || (teamID == 0 && name == teamName) {
				rank, _ = dig.Int(entry, "rank")
				points, _ = dig.Int(entry, "points")
				return rank, points, true
			}
		}
		return 0, 0, false
	}

	homeRank, homePoints, homeFound := find(homeID, homeName)
	awayRank, awayPoints, awayFound := find(awayID, awayName)

	gap := map[string]any{
		"home_position": nil,
		"away_position": nil,
		"home_points":   nil,
		"away_points":   nil,
		"position_gap":  nil,
		"points_gap":    nil,
	}
	if homeFound {
		gap["home_position"] = homeRank
		gap["home_points"] = homePoints
	}
	if awayFound {
		gap["away_position"] = awayRank
		gap["away_points"] = awayPoints
	}
	if homeFound && awayFound {
		gap["position_gap"] = awayRank - homeRank
		gap["points_gap"] = homePoints - awayPoints
	}
	return gap
}

package analysis

import (
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

var goalThresholds = []struct {
	key   string
	value float64
}{
	{key: "over_0_5", value: 0.5},
	{key: "over_1_5", value: 1.5},
	{key: "over_2_5", value: 2.5},
	{key: "over_3_5", value: 3.5},
}

// GoalsAnalyzer projects goal totals: scoring averages, over/under
// frequencies, both-teams-to-score, clean sheets, and head-to-head goal
// volume.
type GoalsAnalyzer struct{}

func (*GoalsAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetGoals }

func (*GoalsAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionPredictions, bundle.SectionH2HHistory}
}

func (*GoalsAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	homeID, _ := r.HomeTeam()

	indicators := map[string]any{
		"average_goals": nil,
		"over_under":    nil,
		"btts":          nil,
		"clean_sheets":  nil,
		"h2h_goals":     nil,
	}

	if predictions, ok := r.Section(bundle.SectionPredictions); ok {
		indicators["average_goals"] = averageGoals(predictions)
	}

	if history, ok := r.Slice(bundle.SectionH2HHistory); ok {
		meetings := meetingGoals(history, homeID)
		indicators["over_under"] = overUnder(meetings)
		indicators["btts"] = btts(meetings)
		indicators["clean_sheets"] = cleanSheets(meetings)
		indicators["h2h_goals"] = h2hGoals(meetings)
	}

	return indicators
}

func averageGoals(predictions any) map[string]any {
	sideAverages := func(side string) map[string]any {
		goals := dig.Map(predictions, "teams", side, "league", "goals")
		out := map[string]any{"scored": nil, "conceded": nil}
		if v, ok := dig.Float(goals, "for", "average", "total"); ok {
			out["scored"] = round2(v)
		}
		if v, ok := dig.Float(goals, "against", "average", "total"); ok {
			out["conceded"] = round2(v)
		}
		return out
	}

	home := sideAverages("home")
	away := sideAverages("away")

	combined := any(nil)
	if hs, ok := home["scored"].(float64); ok {
		if as, ok := away["scored"].(float64); ok {
			combined = round2(hs + as)
		}
	}

	return map[string]any{
		"home":         home,
		"away":         away,
		"combined_avg": combined,
	}
}

// meetingGoal is one prior meeting reduced to goals for/against the current
// fixture's home side.
type meetingGoal struct {
	forHome int64
	forAway int64
}

func meetingGoals(history []any, homeID int64) []meetingGoal {
	out := make([]meetingGoal, 0, len(history))
	for _, meeting := range history {
		goalsHome, okH := dig.Int(meeting, "goals", "home")
		goalsAway, okA := dig.Int(meeting, "goals", "away")
		if !okH || !okA {
			continue
		}

		meetingHomeID, _ := dig.Int(meeting, "teams", "home", "id")
		if meetingHomeID == homeID {
			out = append(out, meetingGoal{forHome: goalsHome, forAway: goalsAway})
		} else {
			out = append(out, meetingGoal{forHome: goalsAway, forAway: goalsHome})
		}
	}
	return out
}

func overUnder(meetings []meetingGoal) map[string]any {
	out := make(map[string]any, len(goalThresholds))
	for _, threshold := range goalThresholds {
		over := 0
		for _, m := range meetings {
			if float64(m.forHome+m.forAway) > threshold.value {
				over++
			}
		}
		out[threshold.key] = map[string]any{
			"count":   over,
			"percent": percent(over, len(meetings)),
		}
	}
	out["matches"] = len(meetings)
	return out
}

func btts(meetings []meetingGoal) map[string]any {
	count := 0
	for _, m := range meetings {
		if m.forHome > 0 && m.forAway > 0 {
			count++
		}
	}
	return map[string]any{
		"count":   count,
		"percent": percent(count, len(meetings)),
	}
}

func cleanSheets(meetings []meetingGoal) map[string]any {
	var home, away int
	for _, m := range meetings {
		if m.forAway == 0 {
			home++
		}
		if m.forHome == 0 {
			away++
		}
	}
	return map[string]any{
		"home": map[string]any{"count": home, "percent": percent(home, len(meetings))},
		"away": map[string]any{"count": away, "percent": percent(away, len(meetings))},
	}
}

func h2hGoals(meetings []meetingGoal) map[string]any {
	var total int64
	over25 := 0
	for _, m := range meetings {
		goals := m.forHome + m.forAway
		total += goals
		if goals > 2 {
			over25++
		}
	}

	return map[string]any{
		"total_matches":    len(meetings),
		"total_goals":      total,
		"average_goals":    average(float64(total), len(meetings)),
		"over_2_5_count":   over25,
		"over_2_5_percent": percent(over25, len(meetings)),
	}
}

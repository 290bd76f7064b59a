package analysis

import (
	"testing"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

func TestScorerAnalyzer_GoalsPer90(t *testing.T) {
	t.Parallel()

	data := Analyze(&ScorerAnalyzer{}, fullBundle(), logging.NewNop())

	board, ok := data.Indicators["league_top"].([]map[string]any)
	if !ok || len(board) != 1 {
		t.Fatalf("league_top = %v", data.Indicators["league_top"])
	}

	entry := board[0]
	if entry["name"] != "X" {
		t.Fatalf("name = %v", entry["name"])
	}
	// 10 goals in 810 minutes: 10/810*90 = 1.11.
	if got, _ := entry["goals_per_90"].(float64); got != 1.11 {
		t.Fatalf("goals_per_90 = %v, want 1.11", entry["goals_per_90"])
	}
}

func TestScorerAnalyzer_ZeroMinutesHasNilRate(t *testing.T) {
	t.Parallel()

	b := fullBundle()
	b.Put(bundle.SectionTopScorers, []any{
		map[string]any{
			"player": map[string]any{"name": "Benched"},
			"statistics": []any{map[string]any{
				"team":  map[string]any{"name": "A"},
				"goals": map[string]any{"total": float64(2)},
				"games": map[string]any{"appearences": float64(1), "minutes": float64(0)},
			}},
		},
	})

	data := Analyze(&ScorerAnalyzer{}, b, logging.NewNop())

	board := data.Indicators["league_top"].([]map[string]any)
	if board[0]["goals_per_90"] != nil {
		t.Fatalf("goals_per_90 = %v, want nil for zero minutes", board[0]["goals_per_90"])
	}
}

func TestScorerAnalyzer_H2HScorersSortedByCount(t *testing.T) {
	t.Parallel()

	data := Analyze(&ScorerAnalyzer{}, fullBundle(), logging.NewNop())

	scorers, ok := data.Indicators["h2h_scorers"].([]map[string]any)
	if !ok || len(scorers) != 1 {
		t.Fatalf("h2h_scorers = %v", data.Indicators["h2h_scorers"])
	}
	if scorers[0]["name"] != "Doumbia" || scorers[0]["count"] != 2 {
		t.Fatalf("unexpected top scorer %v", scorers[0])
	}
}

func TestAssisterAnalyzer_ProbesAlternateAssistKeys(t *testing.T) {
	t.Parallel()

	data := Analyze(&AssisterAnalyzer{}, fullBundle(), logging.NewNop())

	board, ok := data.Indicators["league_top"].([]map[string]any)
	if !ok || len(board) != 1 {
		t.Fatalf("league_top = %v", data.Indicators["league_top"])
	}
	// The fixture carries the count under passes.assists only.
	if got, _ := board[0]["count"].(int64); got != 7 {
		t.Fatalf("count = %v, want 7", board[0]["count"])
	}
}

func TestGoalsAnalyzer_EmptyH2HHistory(t *testing.T) {
	t.Parallel()

	b := fullBundle()
	b.Put(bundle.SectionH2HHistory, []any{})

	data := Analyze(&GoalsAnalyzer{}, b, logging.NewNop())

	if !data.CoverageComplete {
		t.Fatal("an empty but fetched section still counts as present")
	}

	h2h, ok := data.Indicators["h2h_goals"].(map[string]any)
	if !ok {
		t.Fatalf("h2h_goals = %v", data.Indicators["h2h_goals"])
	}
	if h2h["total_matches"] != 0 {
		t.Fatalf("total_matches = %v, want 0", h2h["total_matches"])
	}
	if h2h["average_goals"] != nil {
		t.Fatalf("average_goals = %v, want nil", h2h["average_goals"])
	}
}

func TestGoalsAnalyzer_H2HGoalMath(t *testing.T) {
	t.Parallel()

	data := Analyze(&GoalsAnalyzer{}, fullBundle(), logging.NewNop())

	h2h := data.Indicators["h2h_goals"].(map[string]any)
	// Meetings: 2-1, 0-0, 3-2. Total 8 goals, two matches over 2.5.
	if h2h["total_matches"] != 3 {
		t.Fatalf("total_matches = %v", h2h["total_matches"])
	}
	if got, _ := h2h["total_goals"].(int64); got != 8 {
		t.Fatalf("total_goals = %v", h2h["total_goals"])
	}
	if got, _ := h2h["average_goals"].(float64); got != 2.67 {
		t.Fatalf("average_goals = %v, want 2.67", h2h["average_goals"])
	}
	if got, _ := h2h["over_2_5_percent"].(float64); got != 66.7 {
		t.Fatalf("over_2_5_percent = %v, want 66.7", h2h["over_2_5_percent"])
	}

	btts := data.Indicators["btts"].(map[string]any)
	if btts["count"] != 2 {
		t.Fatalf("btts count = %v, want 2", btts["count"])
	}
}

func TestMatchWinnerAnalyzer_SkipsMeetingsOfOtherTeams(t *testing.T) {
	t.Parallel()

	b := fullBundle()
	b.Put(bundle.SectionH2HHistory, []any{
		h2hMeeting(101, 1500, 1507, 2, 1),
		// Provider glitch: a meeting between two unrelated teams.
		h2hMeeting(666, 9001, 9002, 4, 0),
		h2hMeeting(102, 1507, 1500, 0, 0),
	})

	data := Analyze(&MatchWinnerAnalyzer{}, b, logging.NewNop())

	h2h := data.Indicators["h2h_stats"].(map[string]any)
	if h2h["home_wins"] != 1 || h2h["draws"] != 1 || h2h["away_wins"] != 0 {
		t.Fatalf("h2h balance = %v, foreign meeting must not count", h2h)
	}
	last5 := h2h["last_5"].([]map[string]any)
	if len(last5) != 2 {
		t.Fatalf("last_5 has %d entries, want 2", len(last5))
	}
}

func TestMatchWinnerAnalyzer_H2HBalanceAndStandings(t *testing.T) {
	t.Parallel()

	data := Analyze(&MatchWinnerAnalyzer{}, fullBundle(), logging.NewNop())

	h2h := data.Indicators["h2h_stats"].(map[string]any)
	// Mali won 2-1 and 3-2 at home; the 0-0 was a draw.
	if h2h["home_wins"] != 2 || h2h["draws"] != 1 || h2h["away_wins"] != 0 {
		t.Fatalf("h2h balance = %v", h2h)
	}

	gap := data.Indicators["standings_gap"].(map[string]any)
	if got, _ := gap["position_gap"].(int64); got != 5 {
		t.Fatalf("position_gap = %v, want 5", gap["position_gap"])
	}
	if got, _ := gap["points_gap"].(int64); got != 13 {
		t.Fatalf("points_gap = %v, want 13", gap["points_gap"])
	}

	prediction := data.Indicators["prediction_api"].(map[string]any)
	if prediction["winner"] != "Mali" {
		t.Fatalf("winner = %v", prediction["winner"])
	}
	percentages := prediction["percentages"].(map[string]any)
	if percentages["home"] != 45.0 {
		t.Fatalf("home percent = %v, want 45", percentages["home"])
	}
}

func TestShotsAnalyzer_AveragesAndSeries(t *testing.T) {
	t.Parallel()

	data := Analyze(&ShotsAnalyzer{}, fullBundle(), logging.NewNop())

	averages := data.Indicators["averages"].(map[string]any)
	// Combined totals: 23 and 19 shots over two meetings.
	if got, _ := averages["total_shots"].(float64); got != 21 {
		t.Fatalf("average total_shots = %v, want 21", averages["total_shots"])
	}

	series := data.Indicators["shots_series"].(map[string]any)
	home := series["home"].(map[string]any)
	overall := home["total_shots"].(map[string]any)["overall"].(map[string]any)
	last5 := overall["last_5"].(map[string]any)

	// Mali's shot totals, most recent first: 14, 8. One over the 10 line.
	if last5["matches"] != 2 {
		t.Fatalf("matches = %v, want 2", last5["matches"])
	}
	if last5["over"] != 1 || last5["under"] != 1 {
		t.Fatalf("over/under = %v/%v, want 1/1", last5["over"], last5["under"])
	}
	if last5["current_over_streak"] != 1 {
		t.Fatalf("current_over_streak = %v, want 1", last5["current_over_streak"])
	}
	if got, _ := last5["max"].(float64); got != 14 {
		t.Fatalf("max = %v, want 14", last5["max"])
	}

	// Venue split: Mali was home only in the first meeting.
	homeSplit := home["total_shots"].(map[string]any)["home"].(map[string]any)["last_5"].(map[string]any)
	if homeSplit["matches"] != 1 {
		t.Fatalf("home split matches = %v, want 1", homeSplit["matches"])
	}
}

func TestCornersAnalyzer_Thresholds(t *testing.T) {
	t.Parallel()

	data := Analyze(&CornersAnalyzer{}, fullBundle(), logging.NewNop())

	// Totals: 11 and 11 corners.
	if got, _ := data.Indicators["average_corners"].(float64); got != 11 {
		t.Fatalf("average_corners = %v, want 11", data.Indicators["average_corners"])
	}
	over105 := data.Indicators["over_10_5"].(map[string]any)
	if over105["count"] != 2 {
		t.Fatalf("over_10_5 count = %v, want 2", over105["count"])
	}
	over95 := data.Indicators["over_9_5"].(map[string]any)
	if got, _ := over95["percent"].(float64); got != 100 {
		t.Fatalf("over_9_5 percent = %v, want 100", over95["percent"])
	}
}

func TestTeamCardsAnalyzer_Averages(t *testing.T) {
	t.Parallel()

	data := Analyze(&TeamCardsAnalyzer{}, fullBundle(), logging.NewNop())

	// Yellows: 5 and 3. Reds: 1 and 0.
	if got, _ := data.Indicators["average_yellow"].(float64); got != 4 {
		t.Fatalf("average_yellow = %v, want 4", data.Indicators["average_yellow"])
	}
	if got, _ := data.Indicators["average_red"].(float64); got != 0.5 {
		t.Fatalf("average_red = %v, want 0.5", data.Indicators["average_red"])
	}
	if got, _ := data.Indicators["average_total"].(float64); got != 4.5 {
		t.Fatalf("average_total = %v, want 4.5", data.Indicators["average_total"])
	}
}

func TestPlayerCardsAnalyzer_RiskTiers(t *testing.T) {
	t.Parallel()

	data := Analyze(&PlayerCardsAnalyzer{}, fullBundle(), logging.NewNop())

	risk, ok := data.Indicators["risk_players"].([]map[string]any)
	if !ok || len(risk) != 2 {
		t.Fatalf("risk_players = %v", data.Indicators["risk_players"])
	}
	if risk[0]["name"] != "Banda" || risk[0]["tier"] != "high" {
		t.Fatalf("unexpected first risk player %v", risk[0])
	}
	if risk[1]["name"] != "Keita" || risk[1]["tier"] != "medium" {
		t.Fatalf("unexpected second risk player %v", risk[1])
	}

	h2hCards, ok := data.Indicators["h2h_cards"].([]map[string]any)
	if !ok || len(h2hCards) != 1 {
		t.Fatalf("h2h_cards = %v", data.Indicators["h2h_cards"])
	}
	if h2hCards[0]["name"] != "Banda" || h2hCards[0]["count"] != 2 {
		t.Fatalf("unexpected h2h card tally %v", h2hCards[0])
	}
}

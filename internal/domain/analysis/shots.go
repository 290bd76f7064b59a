package analysis

import (
	"fmt"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

const (
	statTotalShots  = "Total Shots"
	statShotsOnGoal = "Shots on Goal"
	statCornerKicks = "Corner Kicks"
	statYellowCards = "Yellow Cards"
	statRedCards    = "Red Cards"

	totalShotsLine  = 10.0
	shotsOnGoalLine = 4.0
)

var seriesLimits = []int{3, 5}

// ShotsAnalyzer projects shot volume from recent head-to-head meetings:
// per-match totals, averages, on-target accuracy, and over/under series for
// each side and venue split.
type ShotsAnalyzer struct{}

func (*ShotsAnalyzer) BetType() matchcontext.BetType { return matchcontext.BetShots }

func (*ShotsAnalyzer) RequiredSources() []string {
	return []string{bundle.SectionH2HDetails}
}

func (*ShotsAnalyzer) ComputeIndicators(r *Reader) map[string]any {
	homeID, _ := r.HomeTeam()
	awayID, _ := r.AwayTeam()

	indicators := map[string]any{
		"matches":      nil,
		"averages":     nil,
		"accuracy":     nil,
		"shots_series": nil,
	}

	details, ok := r.H2HDetails()
	if !ok {
		return indicators
	}

	perMatch := make([]map[string]any, 0, len(details))
	var sumTotal, sumOnTarget float64
	var matchesWithShots, onTargetMatches int

	for _, detail := range details {
		detailHomeID, detailAwayID := detailTeams(detail)

		homeTotal, okHT := statValue(detail, detailHomeID, statTotalShots)
		awayTotal, okAT := statValue(detail, detailAwayID, statTotalShots)
		homeOn, okHO := statValue(detail, detailHomeID, statShotsOnGoal)
		awayOn, okAO := statValue(detail, detailAwayID, statShotsOnGoal)

		entry := map[string]any{
			"fixture_id": detail.FixtureID,
			"home":       map[string]any{"total": nullableFloat(homeTotal, okHT), "on_target": nullableFloat(homeOn, okHO)},
			"away":       map[string]any{"total": nullableFloat(awayTotal, okAT), "on_target": nullableFloat(awayOn, okAO)},
		}
		if date, ok := dig.String(detail.Fixture, "fixture", "date"); ok {
			entry["date"] = date
		}

		if okHT && okAT {
			combined := homeTotal + awayTotal
			entry["combined_total"] = combined
			sumTotal += combined
			matchesWithShots++
		} else {
			entry["combined_total"] = nil
		}

		if okHO && okAO {
			sumOnTarget += homeOn + awayOn
			onTargetMatches++
		}

		perMatch = append(perMatch, entry)
	}

	indicators["matches"] = perMatch
	indicators["averages"] = map[string]any{
		"total_shots": average(sumTotal, matchesWithShots),
		"on_target":   average(sumOnTarget, onTargetMatches),
		"match_count": len(details),
	}

	if sumTotal > 0 {
		indicators["accuracy"] = map[string]any{
			"on_target_percent": round1(sumOnTarget / sumTotal * 100),
		}
	}

	indicators["shots_series"] = map[string]any{
		"home": teamShotSeries(details, homeID),
		"away": teamShotSeries(details, awayID),
	}

	return indicators
}

func nullableFloat(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// teamShotSeries builds the over/under series for one team across both shot
// metrics and all venue splits.
func teamShotSeries(details []bundle.H2HDetail, teamID int64) map[string]any {
	return map[string]any{
		"total_shots":     metricSeries(details, teamID, statTotalShots, totalShotsLine),
		"shots_on_target": metricSeries(details, teamID, statShotsOnGoal, shotsOnGoalLine),
	}
}

func metricSeries(details []bundle.H2HDetail, teamID int64, statType string, threshold float64) map[string]any {
	overall := teamStatValues(details, teamID, statType, "overall")
	home := teamStatValues(details, teamID, statType, "home")
	away := teamStatValues(details, teamID, statType, "away")

	splits := map[string][]float64{
		"overall": overall,
		"home":    home,
		"away":    away,
	}

	out := make(map[string]any, len(splits))
	for split, values := range splits {
		limits := make(map[string]any, len(seriesLimits))
		for _, limit := range seriesLimits {
			limits[fmt.Sprintf("last_%d", limit)] = seriesSummary(values, limit, threshold)
		}
		out[split] = limits
	}
	return out
}

// teamStatValues extracts the team's values for one statistic, most recent
// first, restricted to the requested venue split.
func teamStatValues(details []bundle.H2HDetail, teamID int64, statType, split string) []float64 {
	values := make([]float64, 0, len(details))
	for _, detail := range details {
		atHome, played := playedAtHome(detail, teamID)
		if !played {
			continue
		}
		if split == "home" && !atHome {
			continue
		}
		if split == "away" && atHome {
			continue
		}

		if v, ok := statValue(detail, teamID, statType); ok {
			values = append(values, v)
		}
	}
	return values
}

// seriesSummary reduces the most recent values (up to limit) against a
// threshold.
func seriesSummary(values []float64, limit int, threshold float64) map[string]any {
	if len(values) > limit {
		values = values[:limit]
	}

	summary := map[string]any{
		"matches":              len(values),
		"threshold":            threshold,
		"over":                 0,
		"under":                0,
		"current_over_streak":  0,
		"current_under_streak": 0,
		"average":              nil,
		"min":                  nil,
		"max":                  nil,
	}
	if len(values) == 0 {
		return summary
	}

	var over, under int
	var sum float64
	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v > threshold {
			over++
		} else {
			under++
		}
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	overStreak, underStreak := 0, 0
	for _, v := range values {
		if v > threshold {
			if underStreak > 0 {
				break
			}
			overStreak++
		} else {
			if overStreak > 0 {
				break
			}
			underStreak++
		}
	}

	summary["over"] = over
	summary["under"] = under
	summary["current_over_streak"] = overStreak
	summary["current_under_streak"] = underStreak
	summary["average"] = average(sum, len(values))
	summary["min"] = minV
	summary["max"] = maxV
	return summary
}

package analysis

import (
	"math"
	"sort"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/platform/dig"
)

// round1 rounds to one decimal. Percentages use this.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimals. Per-90 rates use this.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent computes part/total*100 rounded to one decimal, 0 when total is 0.
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

// average divides sum by count, returning nil when there were no
// contributors.
func average(sum float64, count int) any {
	if count <= 0 {
		return nil
	}
	return round2(sum / float64(count))
}

// per90 derives a per-90-minute rate, nil when minutes are 0 or missing.
func per90(total float64, minutes int64) any {
	if minutes <= 0 {
		return nil
	}
	return round2(total / float64(minutes) * 90)
}

// statValue extracts a named statistic for a team from a fixture-statistics
// detail. Entries look like {team: {id}, statistics: [{type, value}]}.
func statValue(detail bundle.H2HDetail, teamID int64, statType string) (float64, bool) {
	for _, entry := range detail.Statistics {
		id, _ := dig.Int(entry, "team", "id")
		if id != teamID {
			continue
		}
		for _, stat := range dig.Slice(entry, "statistics") {
			name, _ := dig.String(stat, "type")
			if name != statType {
				continue
			}
			return dig.Float(stat, "value")
		}
		return 0, false
	}
	return 0, false
}

// detailTeams reads the home and away team ids from a detail's fixture block.
func detailTeams(detail bundle.H2HDetail) (homeID, awayID int64) {
	homeID, _ = dig.Int(detail.Fixture, "teams", "home", "id")
	awayID, _ = dig.Int(detail.Fixture, "teams", "away", "id")
	return homeID, awayID
}

// playedAtHome reports whether teamID was the home side in the detail, and
// whether the team took part at all.
func playedAtHome(detail bundle.H2HDetail, teamID int64) (atHome bool, played bool) {
	homeID, awayID := detailTeams(detail)
	switch teamID {
	case homeID:
		return true, true
	case awayID:
		return false, true
	default:
		return false, false
	}
}

// boardEntry is one row of a league leader board, normalized for output.
type boardEntry struct {
	Name        string `json:"name"`
	Team        string `json:"team"`
	Count       int64  `json:"count"`
	Appearances int64  `json:"appearances"`
	Minutes     int64  `json:"minutes"`
	Position    string `json:"position"`
}

// parseBoard flattens upstream leader-board rows. The count is taken from the
// first countPaths entry that yields a value, preserving probe order.
func parseBoard(rows []any, countPaths ...[]string) []boardEntry {
	out := make([]boardEntry, 0, len(rows))
	for _, row := range rows {
		name, _ := dig.String(row, "player", "name")
		if name == "" {
			continue
		}

		stats := dig.Slice(row, "statistics")
		if len(stats) == 0 {
			continue
		}
		first := stats[0]

		count := int64(0)
		for _, path := range countPaths {
			if v, ok := dig.Int(first, path...); ok {
				count = v
				break
			}
		}

		team, _ := dig.String(first, "team", "name")
		appearances, _ := dig.Int(first, "games", "appearences")
		minutes, _ := dig.Int(first, "games", "minutes")
		position, _ := dig.String(first, "games", "position")

		out = append(out, boardEntry{
			Name:        name,
			Team:        team,
			Count:       count,
			Appearances: appearances,
			Minutes:     minutes,
			Position:    position,
		})
	}
	return out
}

// truncateBoard keeps the first n entries in upstream order.
func truncateBoard(entries []boardEntry, n int) []boardEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// tallyEvents counts events of one type per named participant across the
// detailed meetings, sorted descending by count with upstream order breaking
// ties.
func tallyEvents(details []bundle.H2HDetail, eventType string, nameOf func(any) string) []map[string]any {
	type tally struct {
		name  string
		team  string
		count int
		order int
	}

	byName := make(map[string]*tally)
	order := 0

	for _, detail := range details {
		for _, event := range detail.Events {
			kind, _ := dig.String(event, "type")
			if kind != eventType {
				continue
			}
			name := nameOf(event)
			if name == "" {
				continue
			}

			t, ok := byName[name]
			if !ok {
				team, _ := dig.String(event, "team", "name")
				t = &tally{name: name, team: team, order: order}
				byName[name] = t
				order++
			}
			t.count++
		}
	}

	tallies := make([]*tally, 0, len(byName))
	for _, t := range byName {
		tallies = append(tallies, t)
	}
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		return tallies[i].order < tallies[j].order
	})

	out := make([]map[string]any, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, map[string]any{
			"name":  t.name,
			"team":  t.team,
			"count": t.count,
		})
	}
	return out
}

// filterBoardByTeam keeps entries for one team, preserving order.
func filterBoardByTeam(entries []boardEntry, team string) []boardEntry {
	if team == "" {
		return nil
	}
	out := make([]boardEntry, 0)
	for _, e := range entries {
		if e.Team == team {
			out = append(out, e)
		}
	}
	return out
}

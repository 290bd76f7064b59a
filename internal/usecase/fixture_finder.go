package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitchsider/match-context/internal/platform/cache"
	"github.com/pitchsider/match-context/internal/platform/dig"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

// FixtureFinder resolves human inputs (team names, league and date filters)
// into fixture candidates for the analysis endpoints. Resolved ids are kept
// in the entity cache so repeated questions skip the upstream search.
type FixtureFinder struct {
	provider FootballProvider
	entities *cache.Entities
	logger   *logging.Logger
}

func NewFixtureFinder(provider FootballProvider, entities *cache.Entities, logger *logging.Logger) *FixtureFinder {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureFinder{
		provider: provider,
		entities: entities,
		logger:   logger,
	}
}

// ResolveTeamID maps a team name to its upstream id, via cache first.
func (f *FixtureFinder) ResolveTeamID(ctx context.Context, name string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "finder.ResolveTeamID")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	if id, ok := f.entities.LookupID(ctx, cache.EntityTeam, name); ok {
		return id, nil
	}

	teams, err := f.provider.SearchTeams(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("%w: team search: %v", ErrDependencyUnavailable, err)
	}

	for _, entry := range teams {
		id, okID := dig.Int(entry, "team", "id")
		teamName, _ := dig.String(entry, "team", "name")
		if !okID || id <= 0 {
			continue
		}

		// Cache every returned mapping; the first is the best match.
		f.entities.StoreID(ctx, cache.EntityTeam, teamName, id)
		if strings.EqualFold(teamName, name) {
			return id, nil
		}
	}

	if first := firstTeamID(teams); first > 0 {
		return first, nil
	}
	return 0, fmt.Errorf("%w: team %q", ErrNotFound, name)
}

// FindFixtures lists fixtures for a league and season, optionally narrowed
// to one date (YYYY-MM-DD).
func (f *FixtureFinder) FindFixtures(ctx context.Context, leagueID, season int64, date string) ([]map[string]any, error) {
	ctx, span := startUsecaseSpan(ctx, "finder.FindFixtures")
	defer span.End()

	if leagueID <= 0 || season <= 0 {
		return nil, fmt.Errorf("%w: league and season are required", ErrInvalidInput)
	}

	fixtures, err := f.provider.SearchFixtures(ctx, leagueID, season, date)
	if err != nil {
		return nil, fmt.Errorf("%w: fixture search: %v", ErrDependencyUnavailable, err)
	}

	return compactFixtures(fixtures), nil
}

// FindMeetings lists fixtures between two named teams, newest first.
func (f *FixtureFinder) FindMeetings(ctx context.Context, teamA, teamB string, last int) ([]map[string]any, error) {
	ctx, span := startUsecaseSpan(ctx, "finder.FindMeetings")
	defer span.End()

	idA, err := f.ResolveTeamID(ctx, teamA)
	if err != nil {
		return nil, err
	}
	idB, err := f.ResolveTeamID(ctx, teamB)
	if err != nil {
		return nil, err
	}

	if last <= 0 {
		last = h2hHistorySize
	}
	meetings, err := f.provider.GetHeadToHead(ctx, idA, idB, last, "")
	if err != nil {
		return nil, fmt.Errorf("%w: head-to-head search: %v", ErrDependencyUnavailable, err)
	}

	return compactFixtures(meetings), nil
}

func firstTeamID(teams []any) int64 {
	for _, entry := range teams {
		if id, ok := dig.Int(entry, "team", "id"); ok && id > 0 {
			return id
		}
	}
	return 0
}

// compactFixtures reduces upstream fixture objects to the fields the search
// endpoints expose.
func compactFixtures(fixtures []any) []map[string]any {
	out := make([]map[string]any, 0, len(fixtures))
	for _, entry := range fixtures {
		id, ok := dig.Int(entry, "fixture", "id")
		if !ok || id <= 0 {
			continue
		}
		date, _ := dig.String(entry, "fixture", "date")
		status, _ := dig.String(entry, "fixture", "status", "short")
		home, _ := dig.String(entry, "teams", "home", "name")
		away, _ := dig.String(entry, "teams", "away", "name")
		league, _ := dig.String(entry, "league", "name")

		out = append(out, map[string]any{
			"fixture_id": id,
			"date":       date,
			"status":     status,
			"home_team":  home,
			"away_team":  away,
			"league":     league,
		})
	}
	return out
}

package usecase

import "context"

// FootballProvider is the upstream data port. The apifootball client
// implements it; tests substitute counting stubs.
type FootballProvider interface {
	GetFixture(ctx context.Context, fixtureID int64) (map[string]any, error)
	GetPredictions(ctx context.Context, fixtureID int64) (map[string]any, error)
	GetHeadToHead(ctx context.Context, teamA, teamB int64, last int, status string) ([]any, error)

	GetFixtureStatistics(ctx context.Context, fixtureID int64) ([]any, error)
	GetFixturePlayers(ctx context.Context, fixtureID int64) ([]any, error)
	GetFixtureEvents(ctx context.Context, fixtureID int64) ([]any, error)
	GetFixtureLineups(ctx context.Context, fixtureID int64) ([]any, error)

	GetStandings(ctx context.Context, leagueID, season int64) ([]any, error)
	GetTeamStatistics(ctx context.Context, teamID, leagueID, season int64) (map[string]any, error)
	GetInjuries(ctx context.Context, teamID, leagueID, season int64) ([]any, error)
	GetSidelined(ctx context.Context, teamID int64) ([]any, error)

	GetTopScorers(ctx context.Context, leagueID, season int64) ([]any, error)
	GetTopAssists(ctx context.Context, leagueID, season int64) ([]any, error)
	GetTopYellowCards(ctx context.Context, leagueID, season int64) ([]any, error)
	GetTopRedCards(ctx context.Context, leagueID, season int64) ([]any, error)

	SearchTeams(ctx context.Context, name string) ([]any, error)
	SearchFixtures(ctx context.Context, leagueID, season int64, date string) ([]any, error)
}

package apifootball

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pitchsider/match-context/internal/platform/dig"
)

// GetFixture resolves a fixture by id. A nil map with nil error means the
// provider does not know the fixture.
func (c *Client) GetFixture(ctx context.Context, fixtureID int64) (map[string]any, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(fixtureID, 10))

	response, err := c.getResponse(ctx, "/fixtures", query)
	if err != nil {
		return nil, err
	}
	return firstMap(response), nil
}

// GetPredictions returns the provider's prediction block for a fixture.
func (c *Client) GetPredictions(ctx context.Context, fixtureID int64) (map[string]any, error) {
	query := url.Values{}
	query.Set("fixture", strconv.FormatInt(fixtureID, 10))

	response, err := c.getResponse(ctx, "/predictions", query)
	if err != nil {
		return nil, err
	}
	return firstMap(response), nil
}

// GetHeadToHead lists prior meetings of two teams, newest first, filtered by
// a provider status expression such as "FT-AET-PEN".
func (c *Client) GetHeadToHead(ctx context.Context, teamA, teamB int64, last int, status string) ([]any, error) {
	query := url.Values{}
	query.Set("h2h", fmt.Sprintf("%d-%d", teamA, teamB))
	if last > 0 {
		query.Set("last", strconv.Itoa(last))
	}
	if status != "" {
		query.Set("status", status)
	}

	response, err := c.getResponse(ctx, "/fixtures/headtohead", query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

func (c *Client) GetFixtureStatistics(ctx context.Context, fixtureID int64) ([]any, error) {
	return c.fixtureSubresource(ctx, "/fixtures/statistics", fixtureID)
}

func (c *Client) GetFixturePlayers(ctx context.Context, fixtureID int64) ([]any, error) {
	return c.fixtureSubresource(ctx, "/fixtures/players", fixtureID)
}

func (c *Client) GetFixtureEvents(ctx context.Context, fixtureID int64) ([]any, error) {
	return c.fixtureSubresource(ctx, "/fixtures/events", fixtureID)
}

func (c *Client) GetFixtureLineups(ctx context.Context, fixtureID int64) ([]any, error) {
	return c.fixtureSubresource(ctx, "/fixtures/lineups", fixtureID)
}

func (c *Client) fixtureSubresource(ctx context.Context, endpoint string, fixtureID int64) ([]any, error) {
	query := url.Values{}
	query.Set("fixture", strconv.FormatInt(fixtureID, 10))

	response, err := c.getResponse(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

// GetStandings returns the flattened league table. The provider nests it as
// response[0].league.standings[0].
func (c *Client) GetStandings(ctx context.Context, leagueID, season int64) ([]any, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.FormatInt(season, 10))

	response, err := c.getResponse(ctx, "/standings", query)
	if err != nil {
		return nil, err
	}

	first := firstMap(response)
	groups := dig.Slice(first, "league", "standings")
	if len(groups) == 0 {
		return []any{}, nil
	}
	table, _ := groups[0].([]any)
	if table == nil {
		table = []any{}
	}
	return table, nil
}

// GetTeamStatistics returns a team's season statistics in one league. Unlike
// most endpoints the response field is an object, not a list.
func (c *Client) GetTeamStatistics(ctx context.Context, teamID, leagueID, season int64) (map[string]any, error) {
	query := url.Values{}
	query.Set("team", strconv.FormatInt(teamID, 10))
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.FormatInt(season, 10))

	response, err := c.getResponse(ctx, "/teams/statistics", query)
	if err != nil {
		return nil, err
	}
	m, _ := response.(map[string]any)
	return m, nil
}

func (c *Client) GetInjuries(ctx context.Context, teamID, leagueID, season int64) ([]any, error) {
	query := url.Values{}
	query.Set("team", strconv.FormatInt(teamID, 10))
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.FormatInt(season, 10))

	response, err := c.getResponse(ctx, "/injuries", query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

func (c *Client) GetSidelined(ctx context.Context, teamID int64) ([]any, error) {
	query := url.Values{}
	query.Set("team", strconv.FormatInt(teamID, 10))

	response, err := c.getResponse(ctx, "/sidelined", query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

func (c *Client) GetTopScorers(ctx context.Context, leagueID, season int64) ([]any, error) {
	return c.leaderBoard(ctx, "/players/topscorers", leagueID, season)
}

func (c *Client) GetTopAssists(ctx context.Context, leagueID, season int64) ([]any, error) {
	return c.leaderBoard(ctx, "/players/topassists", leagueID, season)
}

func (c *Client) GetTopYellowCards(ctx context.Context, leagueID, season int64) ([]any, error) {
	return c.leaderBoard(ctx, "/players/topyellowcards", leagueID, season)
}

func (c *Client) GetTopRedCards(ctx context.Context, leagueID, season int64) ([]any, error) {
	return c.leaderBoard(ctx, "/players/topredcards", leagueID, season)
}

func (c *Client) leaderBoard(ctx context.Context, endpoint string, leagueID, season int64) ([]any, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.FormatInt(season, 10))

	response, err := c.getResponse(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

// SearchTeams resolves teams by free-text name.
func (c *Client) SearchTeams(ctx context.Context, name string) ([]any, error) {
	query := url.Values{}
	query.Set("search", name)

	response, err := c.getResponse(ctx, "/teams", query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

// SearchFixtures lists fixtures for a league, season, and optional date.
func (c *Client) SearchFixtures(ctx context.Context, leagueID, season int64, date string) ([]any, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.FormatInt(season, 10))
	if date != "" {
		query.Set("date", date)
	}

	response, err := c.getResponse(ctx, "/fixtures", query)
	if err != nil {
		return nil, err
	}
	return asList(response), nil
}

func asList(v any) []any {
	s, _ := v.([]any)
	if s == nil {
		return []any{}
	}
	return s
}

func firstMap(v any) map[string]any {
	s, _ := v.([]any)
	if len(s) == 0 {
		return nil
	}
	m, _ := s[0].(map[string]any)
	return m
}

// Package matchcontext defines the persisted analysis record for a fixture
// and the store contract both back-ends implement.
package matchcontext

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// BetType is one of the eight analytical projections computed per fixture.
type BetType string

const (
	BetMatchWinner BetType = "1x2"
	BetGoals       BetType = "goals"
	BetShots       BetType = "shots"
	BetCorners     BetType = "corners"
	BetTeamCards   BetType = "cards_team"
	BetPlayerCards BetType = "card_player"
	BetScorer      BetType = "scorer"
	BetAssister    BetType = "assister"
)

var ErrUnknownBetType = errors.New("unknown bet type")

// BetTypes returns the required set in presentation order.
func BetTypes() []BetType {
	return []BetType{
		BetMatchWinner,
		BetGoals,
		BetShots,
		BetCorners,
		BetTeamCards,
		BetPlayerCards,
		BetScorer,
		BetAssister,
	}
}

func ParseBetType(raw string) (BetType, error) {
	candidate := BetType(strings.ToLower(strings.TrimSpace(raw)))
	for _, bt := range BetTypes() {
		if bt == candidate {
			return bt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBetType, raw)
}

// BetAnalysisData is one analyzer's output for one fixture.
type BetAnalysisData struct {
	Indicators       map[string]any `json:"indicators"`
	DataSources      []string       `json:"data_sources"`
	CoverageComplete bool           `json:"coverage_complete"`
}

// MissingSources returns the required sections absent from DataSources,
// sorted.
func (d BetAnalysisData) MissingSources(required []string) []string {
	present := make(map[string]struct{}, len(d.DataSources))
	for _, s := range d.DataSources {
		present[s] = struct{}{}
	}

	missing := make([]string, 0)
	for _, s := range required {
		if _, ok := present[s]; !ok {
			missing = append(missing, s)
		}
	}
	sort.Strings(missing)
	return missing
}

// Metadata tracks storage bookkeeping for a context.
type Metadata struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	LastAccessed  time.Time `json:"last_accessed"`
	AccessCount   int64     `json:"access_count"`
	APICallsCount int       `json:"api_calls_count"`
}

// CurrentVersion is stamped on newly built contexts.
const CurrentVersion = 1

// MatchContext is the persisted, access-tracked analysis for one fixture.
// The raw bundle it was computed from is discarded after analysis.
type MatchContext struct {
	FixtureID int64                       `json:"fixture_id"`
	HomeTeam  string                      `json:"home_team"`
	AwayTeam  string                      `json:"away_team"`
	League    string                      `json:"league"`
	Season    int                         `json:"season"`
	Date      time.Time                   `json:"date"`
	Status    string                      `json:"status"`
	Analyses  map[BetType]BetAnalysisData `json:"analyses"`
	Metadata  Metadata                    `json:"metadata"`

	CausalMetrics    any      `json:"causal_metrics,omitempty"`
	CausalFindings   any      `json:"causal_findings,omitempty"`
	CausalConfidence *float64 `json:"causal_confidence,omitempty"`
	CausalVersion    string   `json:"causal_version,omitempty"`
}

// Label renders the display name, "Home vs Away".
func (c *MatchContext) Label() string {
	return fmt.Sprintf("%s vs %s", c.HomeTeam, c.AwayTeam)
}

// CausalPayload is the opaque causal-analysis attachment.
type CausalPayload struct {
	Metrics    any      `json:"causal_metrics,omitempty"`
	Findings   any      `json:"causal_findings,omitempty"`
	Confidence *float64 `json:"causal_confidence,omitempty"`
	Version    string   `json:"causal_version,omitempty"`
}

// Summary is the listing projection returned by Store.Summarize.
type Summary struct {
	FixtureID   int64     `json:"fixture_id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	League      string    `json:"league"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	AccessCount int64     `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
}

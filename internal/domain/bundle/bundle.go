// Package bundle defines the transient per-fixture collection of upstream
// responses. A bundle is assembled once, consumed by the analyzers, and then
// discarded; it is never persisted.
package bundle

import (
	"sort"
	"time"

	"github.com/pitchsider/match-context/internal/platform/dig"
)

// Section names. A section is either present (stored, possibly empty) or
// absent (the upstream call failed or returned nothing usable).
const (
	SectionFixture     = "fixture"
	SectionPredictions = "predictions"
	SectionH2HHistory  = "h2h_history"
	SectionH2HDetails  = "h2h_details"
	SectionStandings   = "standings"
	SectionTeam1Stats  = "team1_stats"
	SectionTeam2Stats  = "team2_stats"
	SectionInjuries    = "injuries"
	SectionSidelined   = "sidelined"
	SectionTopScorers  = "top_scorers"
	SectionTopAssists  = "top_assists"
	SectionTopYellow   = "top_yellow"
	SectionTopRed      = "top_red"
)

// H2HDetail carries the four per-fixture sub-sections fetched for one recent
// head-to-head meeting. A nil sub-section means that call failed.
type H2HDetail struct {
	FixtureID  int64          `json:"fixture_id"`
	Fixture    map[string]any `json:"fixture"`
	Statistics []any          `json:"statistics"`
	Players    []any          `json:"players"`
	Events     []any          `json:"events"`
	Lineups    []any          `json:"lineups"`
}

// Bundle is the raw per-fixture data bag keyed by section name.
type Bundle struct {
	FixtureID   int64
	Sections    map[string]any
	APICalls    int
	CollectedAt time.Time
}

func New(fixtureID int64) *Bundle {
	return &Bundle{
		FixtureID:   fixtureID,
		Sections:    make(map[string]any),
		CollectedAt: time.Now().UTC(),
	}
}

// Put stores a section. Empty slices and maps are legitimate values; only a
// failed call leaves a section absent.
func (b *Bundle) Put(name string, value any) {
	if name == "" {
		return
	}
	b.Sections[name] = value
}

func (b *Bundle) Has(name string) bool {
	_, ok := b.Sections[name]
	return ok
}

func (b *Bundle) Section(name string) (any, bool) {
	v, ok := b.Sections[name]
	return v, ok
}

// SectionNames returns the present sections in stable order.
func (b *Bundle) SectionNames() []string {
	names := make([]string, 0, len(b.Sections))
	for name := range b.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// H2HDetails returns the typed h2h_details section, nil when absent.
func (b *Bundle) H2HDetails() []H2HDetail {
	v, ok := b.Sections[SectionH2HDetails]
	if !ok {
		return nil
	}
	details, ok := v.([]H2HDetail)
	if !ok {
		return nil
	}
	return details
}

// HomeTeam extracts the home side's id and name from the fixture section.
func (b *Bundle) HomeTeam() (int64, string) {
	return b.teamSide("home")
}

// AwayTeam extracts the away side's id and name from the fixture section.
func (b *Bundle) AwayTeam() (int64, string) {
	return b.teamSide("away")
}

func (b *Bundle) teamSide(side string) (int64, string) {
	fixture, ok := b.Sections[SectionFixture]
	if !ok {
		return 0, ""
	}
	id, _ := dig.Int(fixture, "teams", side, "id")
	name, _ := dig.String(fixture, "teams", side, "name")
	return id, name
}

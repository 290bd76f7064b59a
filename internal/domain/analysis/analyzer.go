// Package analysis turns a raw fixture bundle into per-bet-type indicator
// sets. Analyzers are pure: no I/O, no mutation of the bundle, identical
// output for identical input.
package analysis

import (
	"sort"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

// Analyzer is one bet-type projection. RequiredSources drives the
// coverage_complete flag; ComputeIndicators reads the bundle exclusively
// through the Reader so referenced sections are tracked.
type Analyzer interface {
	BetType() matchcontext.BetType
	RequiredSources() []string
	ComputeIndicators(r *Reader) map[string]any
}

// Reader hands sections to an analyzer while recording which present
// sections were actually referenced. Absent sections are never recorded.
type Reader struct {
	bundle *bundle.Bundle
	used   map[string]struct{}
}

func NewReader(b *bundle.Bundle) *Reader {
	return &Reader{
		bundle: b,
		used:   make(map[string]struct{}),
	}
}

// Section returns a named section. The boolean reports presence.
func (r *Reader) Section(name string) (any, bool) {
	v, ok := r.bundle.Section(name)
	if ok {
		r.used[name] = struct{}{}
	}
	return v, ok
}

// Slice returns a section known to hold a list, nil when absent.
func (r *Reader) Slice(name string) ([]any, bool) {
	v, ok := r.Section(name)
	if !ok {
		return nil, false
	}
	s, _ := v.([]any)
	return s, true
}

// H2HDetails returns the typed head-to-head detail section.
func (r *Reader) H2HDetails() ([]bundle.H2HDetail, bool) {
	if _, ok := r.Section(bundle.SectionH2HDetails); !ok {
		return nil, false
	}
	return r.bundle.H2HDetails(), true
}

// HomeTeam reads the fixture section's home side.
func (r *Reader) HomeTeam() (int64, string) {
	r.Section(bundle.SectionFixture)
	return r.bundle.HomeTeam()
}

// AwayTeam reads the fixture section's away side.
func (r *Reader) AwayTeam() (int64, string) {
	r.Section(bundle.SectionFixture)
	return r.bundle.AwayTeam()
}

// DataSources lists the referenced present sections in stable order.
func (r *Reader) DataSources() []string {
	out := make([]string, 0, len(r.used))
	for name := range r.used {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Analyzers returns the full set in the canonical bet-type order.
func Analyzers() []Analyzer {
	return []Analyzer{
		&MatchWinnerAnalyzer{},
		&GoalsAnalyzer{},
		&ShotsAnalyzer{},
		&CornersAnalyzer{},
		&TeamCardsAnalyzer{},
		&PlayerCardsAnalyzer{},
		&ScorerAnalyzer{},
		&AssisterAnalyzer{},
	}
}

// RequiredSourcesFor looks up an analyzer's required section list.
func RequiredSourcesFor(betType matchcontext.BetType) []string {
	for _, a := range Analyzers() {
		if a.BetType() == betType {
			return a.RequiredSources()
		}
	}
	return nil
}

// Analyze runs one analyzer with panic containment. A panicking analyzer
// yields empty indicators and coverage_complete=false instead of failing the
// whole pipeline.
func Analyze(a Analyzer, b *bundle.Bundle, logger *logging.Logger) (result matchcontext.BetAnalysisData) {
	if logger == nil {
		logger = logging.Default()
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("analyzer panicked",
				"bet_type", string(a.BetType()),
				"fixture_id", b.FixtureID,
				"panic", rec,
			)
			result = matchcontext.BetAnalysisData{
				Indicators:       map[string]any{},
				DataSources:      []string{},
				CoverageComplete: false,
			}
		}
	}()

	reader := NewReader(b)
	indicators := a.ComputeIndicators(reader)
	if indicators == nil {
		indicators = map[string]any{}
	}

	sources := reader.DataSources()
	return matchcontext.BetAnalysisData{
		Indicators:       indicators,
		DataSources:      sources,
		CoverageComplete: coversAll(a.RequiredSources(), sources),
	}
}

// Run executes every analyzer against the bundle. Analyzers are independent
// and read-only on the bundle, so they run concurrently.
func Run(b *bundle.Bundle, logger *logging.Logger) map[matchcontext.BetType]matchcontext.BetAnalysisData {
	analyzers := Analyzers()
	out := make(map[matchcontext.BetType]matchcontext.BetAnalysisData, len(analyzers))

	var mu sync.Mutex
	var wg conc.WaitGroup
	for _, a := range analyzers {
		a := a
		wg.Go(func() {
			data := Analyze(a, b, logger)
			mu.Lock()
			out[a.BetType()] = data
			mu.Unlock()
		})
	}
	wg.Wait()

	return out
}

func coversAll(required, present []string) bool {
	set := make(map[string]struct{}, len(present))
	for _, s := range present {
		set[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

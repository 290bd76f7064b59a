package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

// stubProvider is a programmable FootballProvider that counts every call.
type stubProvider struct {
	mu    sync.Mutex
	calls map[string]int

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	perCallWait time.Duration

	fixture        map[string]any
	fixtureErr     error
	history        []any
	historyErr     error
	predictionsErr error
	detailErr      error
	injuriesErr    error
	boardsErr      error
	standingsErr   error
	teamStatsErr   error
	sidelinedErr   error
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		calls: make(map[string]int),
		fixture: map[string]any{
			"fixture": map[string]any{
				"id":     float64(9999),
				"date":   "2026-01-22T17:00:00+00:00",
				"status": map[string]any{"short": "NS"},
			},
			"teams": map[string]any{
				"home": map[string]any{"id": float64(1500), "name": "Mali"},
				"away": map[string]any{"id": float64(1507), "name": "Zambia"},
			},
			"league": map[string]any{"id": float64(6), "name": "Africa Cup of Nations", "season": float64(2025)},
		},
		history: []any{
			meetingPayload(101, 1500, 1507),
			meetingPayload(102, 1507, 1500),
			meetingPayload(103, 1500, 1507),
		},
	}
}

func meetingPayload(id, homeID, awayID int64) map[string]any {
	return map[string]any{
		"fixture": map[string]any{"id": float64(id), "date": "2024-03-10T15:00:00+00:00"},
		"teams": map[string]any{
			"home": map[string]any{"id": float64(homeID)},
			"away": map[string]any{"id": float64(awayID)},
		},
		"goals": map[string]any{"home": float64(1), "away": float64(0)},
	}
}

func (s *stubProvider) record(name string) {
	current := s.inFlight.Add(1)
	for {
		max := s.maxInFlight.Load()
		if current <= max || s.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}
	if s.perCallWait > 0 {
		time.Sleep(s.perCallWait)
	}
	s.inFlight.Add(-1)

	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubProvider) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubProvider) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *stubProvider) GetFixture(ctx context.Context, fixtureID int64) (map[string]any, error) {
	s.record("fixture")
	if s.fixtureErr != nil {
		return nil, s.fixtureErr
	}
	return s.fixture, nil
}

func (s *stubProvider) GetPredictions(context.Context, int64) (map[string]any, error) {
	s.record("predictions")
	if s.predictionsErr != nil {
		return nil, s.predictionsErr
	}
	return map[string]any{"predictions": map[string]any{"advice": "Winner: Mali"}}, nil
}

func (s *stubProvider) GetHeadToHead(context.Context, int64, int64, int, string) ([]any, error) {
	s.record("h2h")
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *stubProvider) detail(name string) ([]any, error) {
	s.record(name)
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return []any{}, nil
}

func (s *stubProvider) GetFixtureStatistics(context.Context, int64) ([]any, error) {
	return s.detail("statistics")
}

func (s *stubProvider) GetFixturePlayers(context.Context, int64) ([]any, error) {
	return s.detail("players")
}

func (s *stubProvider) GetFixtureEvents(context.Context, int64) ([]any, error) {
	return s.detail("events")
}

func (s *stubProvider) GetFixtureLineups(context.Context, int64) ([]any, error) {
	return s.detail("lineups")
}

func (s *stubProvider) GetStandings(context.Context, int64, int64) ([]any, error) {
	s.record("standings")
	if s.standingsErr != nil {
		return nil, s.standingsErr
	}
	return []any{}, nil
}

func (s *stubProvider) GetTeamStatistics(context.Context, int64, int64, int64) (map[string]any, error) {
	s.record("team_statistics")
	if s.teamStatsErr != nil {
		return nil, s.teamStatsErr
	}
	return map[string]any{"form": "WWDLW"}, nil
}

func (s *stubProvider) GetInjuries(context.Context, int64, int64, int64) ([]any, error) {
	s.record("injuries")
	if s.injuriesErr != nil {
		return nil, s.injuriesErr
	}
	return []any{map[string]any{"player": map[string]any{"name": "A"}}}, nil
}

func (s *stubProvider) GetSidelined(context.Context, int64) ([]any, error) {
	s.record("sidelined")
	if s.sidelinedErr != nil {
		return nil, s.sidelinedErr
	}
	return []any{}, nil
}

func (s *stubProvider) board(name string) ([]any, error) {
	s.record(name)
	if s.boardsErr != nil {
		return nil, s.boardsErr
	}
	return []any{}, nil
}

func (s *stubProvider) GetTopScorers(context.Context, int64, int64) ([]any, error) {
	return s.board("top_scorers")
}

func (s *stubProvider) GetTopAssists(context.Context, int64, int64) ([]any, error) {
	return s.board("top_assists")
}

func (s *stubProvider) GetTopYellowCards(context.Context, int64, int64) ([]any, error) {
	return s.board("top_yellow")
}

func (s *stubProvider) GetTopRedCards(context.Context, int64, int64) ([]any, error) {
	return s.board("top_red")
}

func (s *stubProvider) SearchTeams(context.Context, string) ([]any, error) {
	s.record("search_teams")
	return []any{}, nil
}

func (s *stubProvider) SearchFixtures(context.Context, int64, int64, string) ([]any, error) {
	s.record("search_fixtures")
	return []any{}, nil
}

func fastCollectorConfig() CollectorConfig {
	return CollectorConfig{
		MaxParallel: 5,
		CallDelay:   0,
		Budget:      5 * time.Second,
	}
}

func TestCollector_FullBundle(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	b, err := collector.Collect(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	// 1 fixture + 2 (predictions, h2h) + 3 meetings x 4 details + 11
	// complementary calls.
	if b.APICalls != 26 {
		t.Fatalf("api_calls = %d, want 26", b.APICalls)
	}
	if got := provider.totalCalls(); got != 26 {
		t.Fatalf("provider saw %d calls, want 26", got)
	}

	wantSections := []string{
		bundle.SectionFixture, bundle.SectionPredictions, bundle.SectionH2HHistory,
		bundle.SectionH2HDetails, bundle.SectionStandings, bundle.SectionTeam1Stats,
		bundle.SectionTeam2Stats, bundle.SectionInjuries, bundle.SectionSidelined,
		bundle.SectionTopScorers, bundle.SectionTopAssists, bundle.SectionTopYellow,
		bundle.SectionTopRed,
	}
	for _, name := range wantSections {
		if !b.Has(name) {
			t.Errorf("missing section %q", name)
		}
	}

	details := b.H2HDetails()
	if len(details) != 3 {
		t.Fatalf("expected 3 h2h details, got %d", len(details))
	}
	if details[0].FixtureID != 101 {
		t.Fatalf("first detail fixture = %d, want 101", details[0].FixtureID)
	}

	// Injuries from both teams are merged into one list.
	injuries, _ := b.Section(bundle.SectionInjuries)
	if got := len(injuries.([]any)); got != 2 {
		t.Fatalf("merged injuries = %d entries, want 2", got)
	}
}

func TestCollector_EmptyFixtureIsNotFound(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.fixture = nil
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	_, err := collector.Collect(context.Background(), 42)
	if !errors.Is(err, ErrFixtureNotFound) {
		t.Fatalf("expected ErrFixtureNotFound, got %v", err)
	}
	if got := provider.totalCalls(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestCollector_FixtureLookupErrorIsNotFound(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.fixtureErr = errors.New("boom")
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	_, err := collector.Collect(context.Background(), 42)
	if !errors.Is(err, ErrFixtureNotFound) {
		t.Fatalf("expected ErrFixtureNotFound, got %v", err)
	}
}

func TestCollector_DetailFailuresLeaveSectionAbsent(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.detailErr = errors.New("upstream 5xx")
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	b, err := collector.Collect(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if b.Has(bundle.SectionH2HDetails) {
		t.Fatal("expected h2h_details to be absent when every detail call fails")
	}
	if !b.Has(bundle.SectionPredictions) || !b.Has(bundle.SectionStandings) {
		t.Fatal("unrelated sections must survive detail failures")
	}

	// Failed calls still count.
	if b.APICalls != 26 {
		t.Fatalf("api_calls = %d, want 26", b.APICalls)
	}
}

func TestCollector_EmptyHistoryKeepsDetailsPresent(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.history = []any{}
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	b, err := collector.Collect(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if !b.Has(bundle.SectionH2HHistory) {
		t.Fatal("empty history must still be present")
	}
	if !b.Has(bundle.SectionH2HDetails) {
		t.Fatal("empty detail list must still be present")
	}
	if got := len(b.H2HDetails()); got != 0 {
		t.Fatalf("expected no details, got %d", got)
	}

	// 14 calls: fixture, predictions, h2h, and the 11 complementary ones.
	if b.APICalls != 14 {
		t.Fatalf("api_calls = %d, want 14", b.APICalls)
	}
}

func TestCollector_MergedSectionAbsentWhenBothCallsFail(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.injuriesErr = errors.New("upstream 5xx")
	collector := NewCollector(provider, fastCollectorConfig(), logging.NewNop())

	b, err := collector.Collect(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if b.Has(bundle.SectionInjuries) {
		t.Fatal("expected injuries to be absent when both calls fail")
	}
	if !b.Has(bundle.SectionSidelined) {
		t.Fatal("sidelined must be unaffected")
	}
}

func TestCollector_RespectsConcurrencyCap(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	provider.perCallWait = 5 * time.Millisecond

	cfg := fastCollectorConfig()
	cfg.MaxParallel = 2
	collector := NewCollector(provider, cfg, logging.NewNop())

	if _, err := collector.Collect(context.Background(), 9999); err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	// The mandatory first call runs inline, so the pooled maximum is the
	// cap plus that one caller at most.
	if got := provider.maxInFlight.Load(); got > int64(cfg.MaxParallel) {
		t.Fatalf("max in-flight calls = %d, cap %d", got, cfg.MaxParallel)
	}
}

func TestCollector_BudgetExceededIsTimeout(t *testing.T) {
	t.Parallel()

	provider := newStubProvider()
	blocking := &blockingProvider{stubProvider: provider}

	cfg := fastCollectorConfig()
	cfg.Budget = 50 * time.Millisecond
	collector := NewCollector(blocking, cfg, logging.NewNop())

	_, err := collector.Collect(context.Background(), 9999)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

// blockingProvider delays the mandatory lookup until the caller's context
// expires.
type blockingProvider struct {
	*stubProvider
}

func (b *blockingProvider) GetFixture(ctx context.Context, fixtureID int64) (map[string]any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

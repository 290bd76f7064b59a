package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pitchsider/match-context/external/apifootball"
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

const (
	h2hHistorySize  = 5
	h2hDetailCount  = 3
	maxPreCallDelay = 100 * time.Millisecond
)

type CollectorConfig struct {
	// MaxParallel caps concurrent upstream calls for one fixture.
	MaxParallel int

	// CallDelay is the pre-call pause inserted before every upstream call,
	// clamped to 100ms.
	CallDelay time.Duration

	// Budget is the wall-clock limit for a whole collection.
	Budget time.Duration
}

func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		MaxParallel: 5,
		CallDelay:   50 * time.Millisecond,
		Budget:      180 * time.Second,
	}
}

func (cfg CollectorConfig) normalize() CollectorConfig {
	defaults := DefaultCollectorConfig()
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = defaults.MaxParallel
	}
	if cfg.CallDelay < 0 {
		cfg.CallDelay = defaults.CallDelay
	}
	if cfg.CallDelay > maxPreCallDelay {
		cfg.CallDelay = maxPreCallDelay
	}
	if cfg.Budget <= 0 {
		cfg.Budget = defaults.Budget
	}
	return cfg
}

// Collector assembles the raw bundle for one fixture. Only the initial
// fixture lookup can fail the collection; every other call degrades to an
// absent section.
type Collector struct {
	provider FootballProvider
	logger   *logging.Logger
	cfg      CollectorConfig
}

func NewCollector(provider FootballProvider, cfg CollectorConfig, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Collector{
		provider: provider,
		logger:   logger,
		cfg:      cfg.normalize(),
	}
}

// collection tracks per-run state: the attempt counter and the shared pool.
type collection struct {
	ctx     context.Context
	calls   atomic.Int64
	pool    *ants.Pool
	wg      sync.WaitGroup
	delay   time.Duration
	logger  *logging.Logger
	fixture int64
}

// Collect builds the bundle for fixtureID. It returns ErrFixtureNotFound
// when the fixture cannot be resolved, ErrTimeout when the budget elapses,
// and the caller's context error on cancellation.
func (c *Collector) Collect(ctx context.Context, fixtureID int64) (*bundle.Bundle, error) {
	ctx, span := startUsecaseSpan(ctx, "collector.Collect")
	defer span.End()

	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Budget)
	defer cancel()

	pool, err := ants.NewPool(c.cfg.MaxParallel)
	if err != nil {
		return nil, fmt.Errorf("create collector pool: %w", err)
	}
	defer pool.Release()

	run := &collection{
		ctx:     runCtx,
		pool:    pool,
		delay:   c.cfg.CallDelay,
		logger:  c.logger,
		fixture: fixtureID,
	}

	b := bundle.New(fixtureID)

	// Step 1: the only mandatory call.
	fixture, err := run.attempt("fixture", func(ctx context.Context) (any, error) {
		return c.provider.GetFixture(ctx, fixtureID)
	})
	if err != nil {
		b.APICalls = int(run.calls.Load())
		if apifootball.IsCircuitOpen(err) {
			return nil, fmt.Errorf("%w: fixture lookup short-circuited: %v", ErrDependencyUnavailable, err)
		}
		return nil, c.finishError(ctx, runCtx, fmt.Errorf("%w: fixture %d: %v", ErrFixtureNotFound, fixtureID, err))
	}
	fixtureMap, _ := fixture.(map[string]any)
	if len(fixtureMap) == 0 {
		b.APICalls = int(run.calls.Load())
		return nil, fmt.Errorf("%w: fixture %d", ErrFixtureNotFound, fixtureID)
	}
	b.Put(bundle.SectionFixture, fixtureMap)

	homeID, _ := dig.Int(fixtureMap, "teams", "home", "id")
	awayID, _ := dig.Int(fixtureMap, "teams", "away", "id")
	leagueID, _ := dig.Int(fixtureMap, "league", "id")
	season, _ := dig.Int(fixtureMap, "league", "season")

	// Step 2: predictions and head-to-head history, awaited before the
	// detail fan-out because the detail targets come from the history.
	var mu sync.Mutex
	var history []any
	historyFetched := false

	run.spawn("predictions", func(ctx context.Context) (any, error) {
		return c.provider.GetPredictions(ctx, fixtureID)
	}, func(v any) {
		if m, _ := v.(map[string]any); m != nil {
			mu.Lock()
			b.Put(bundle.SectionPredictions, m)
			mu.Unlock()
		}
	})
	run.spawn("h2h_history", func(ctx context.Context) (any, error) {
		return c.provider.GetHeadToHead(ctx, homeID, awayID, h2hHistorySize, matchcontext.FinishedStatusFilter)
	}, func(v any) {
		list, _ := v.([]any)
		if list == nil {
			list = []any{}
		}
		mu.Lock()
		history = list
		historyFetched = true
		b.Put(bundle.SectionH2HHistory, list)
		mu.Unlock()
	})
	run.wait()

	// Steps 3 and 4 run as one wave: per-meeting details plus the
	// complementary league-level group.
	details, detailDone := c.spawnH2HDetails(run, &mu, history, historyFetched)
	c.spawnComplementary(run, &mu, b, homeID, awayID, leagueID, season)
	run.wait()

	if present := detailDone(); present {
		b.Put(bundle.SectionH2HDetails, details())
	}

	b.APICalls = int(run.calls.Load())
	b.CollectedAt = time.Now().UTC()

	if err := c.finishError(ctx, runCtx, nil); err != nil {
		return nil, err
	}
	return b, nil
}

// finishError maps context expiry onto the collection error taxonomy.
func (c *Collector) finishError(parent, run context.Context, cause error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: collection exceeded %s", ErrTimeout, c.cfg.Budget)
	}
	return cause
}

// spawnH2HDetails schedules the four detail calls for up to three of the
// most recent meetings. The section counts as present when no detail call
// was needed or at least one succeeded.
func (c *Collector) spawnH2HDetails(run *collection, mu *sync.Mutex, history []any, historyFetched bool) (func() []bundle.H2HDetail, func() bool) {
	if !historyFetched {
		return func() []bundle.H2HDetail { return nil }, func() bool { return false }
	}

	targets := history
	if len(targets) > h2hDetailCount {
		targets = targets[:h2hDetailCount]
	}

	details := make([]bundle.H2HDetail, len(targets))
	var succeeded, attempted atomic.Int64

	for i, meeting := range targets {
		meetingMap, _ := meeting.(map[string]any)
		meetingID, _ := dig.Int(meetingMap, "fixture", "id")
		details[i] = bundle.H2HDetail{FixtureID: meetingID, Fixture: meetingMap}
		if meetingID <= 0 {
			continue
		}

		idx := i
		id := meetingID
		subcalls := []struct {
			name string
			call func(context.Context) ([]any, error)
			set  func(*bundle.H2HDetail, []any)
		}{
			{"h2h_statistics", func(ctx context.Context) ([]any, error) { return c.provider.GetFixtureStatistics(ctx, id) },
				func(d *bundle.H2HDetail, v []any) { d.Statistics = v }},
			{"h2h_players", func(ctx context.Context) ([]any, error) { return c.provider.GetFixturePlayers(ctx, id) },
				func(d *bundle.H2HDetail, v []any) { d.Players = v }},
			{"h2h_events", func(ctx context.Context) ([]any, error) { return c.provider.GetFixtureEvents(ctx, id) },
				func(d *bundle.H2HDetail, v []any) { d.Events = v }},
			{"h2h_lineups", func(ctx context.Context) ([]any, error) { return c.provider.GetFixtureLineups(ctx, id) },
				func(d *bundle.H2HDetail, v []any) { d.Lineups = v }},
		}

		for _, sub := range subcalls {
			sub := sub
			attempted.Add(1)
			run.spawn(sub.name, func(ctx context.Context) (any, error) {
				return sub.call(ctx)
			}, func(v any) {
				list, _ := v.([]any)
				mu.Lock()
				sub.set(&details[idx], list)
				mu.Unlock()
				succeeded.Add(1)
			})
		}
	}

	get := func() []bundle.H2HDetail { return details }
	present := func() bool {
		return attempted.Load() == 0 || succeeded.Load() > 0
	}
	return get, present
}

// spawnComplementary schedules the league-level group: standings, the two
// team season stats, merged injuries and sidelined lists, and the four
// leader boards.
func (c *Collector) spawnComplementary(run *collection, mu *sync.Mutex, b *bundle.Bundle, homeID, awayID, leagueID, season int64) {
	run.spawn("standings", func(ctx context.Context) (any, error) {
		return c.provider.GetStandings(ctx, leagueID, season)
	}, func(v any) {
		mu.Lock()
		b.Put(bundle.SectionStandings, v)
		mu.Unlock()
	})

	teamStats := []struct {
		section string
		teamID  int64
	}{
		{bundle.SectionTeam1Stats, homeID},
		{bundle.SectionTeam2Stats, awayID},
	}
	for _, ts := range teamStats {
		ts := ts
		run.spawn(ts.section, func(ctx context.Context) (any, error) {
			return c.provider.GetTeamStatistics(ctx, ts.teamID, leagueID, season)
		}, func(v any) {
			if m, _ := v.(map[string]any); m != nil {
				mu.Lock()
				b.Put(ts.section, m)
				mu.Unlock()
			}
		})
	}

	mergeInto := func(section string) func(any) {
		return func(v any) {
			list, _ := v.([]any)
			mu.Lock()
			if existing, ok := b.Section(section); ok {
				list = append(existing.([]any), list...)
			}
			b.Put(section, list)
			mu.Unlock()
		}
	}
	for _, teamID := range []int64{homeID, awayID} {
		teamID := teamID
		run.spawn("injuries", func(ctx context.Context) (any, error) {
			return c.provider.GetInjuries(ctx, teamID, leagueID, season)
		}, mergeInto(bundle.SectionInjuries))
		run.spawn("sidelined", func(ctx context.Context) (any, error) {
			return c.provider.GetSidelined(ctx, teamID)
		}, mergeInto(bundle.SectionSidelined))
	}

	boards := []struct {
		section string
		call    func(context.Context, int64, int64) ([]any, error)
	}{
		{bundle.SectionTopScorers, c.provider.GetTopScorers},
		{bundle.SectionTopAssists, c.provider.GetTopAssists},
		{bundle.SectionTopYellow, c.provider.GetTopYellowCards},
		{bundle.SectionTopRed, c.provider.GetTopRedCards},
	}
	for _, board := range boards {
		board := board
		run.spawn(board.section, func(ctx context.Context) (any, error) {
			return board.call(ctx, leagueID, season)
		}, func(v any) {
			mu.Lock()
			b.Put(board.section, v)
			mu.Unlock()
		})
	}
}

// attempt performs one counted upstream call inline.
func (r *collection) attempt(name string, fn func(context.Context) (any, error)) (any, error) {
	if err := r.pause(); err != nil {
		return nil, err
	}

	r.calls.Add(1)
	value, err := fn(r.ctx)
	if err != nil {
		r.logger.WarnContext(r.ctx, "upstream call failed",
			"call", name, "fixture_id", r.fixture, "error", err)
		return nil, err
	}
	return value, nil
}

// spawn schedules one counted upstream call on the bounded pool. Failures
// are logged and swallowed; onSuccess runs only for successful calls.
func (r *collection) spawn(name string, fn func(context.Context) (any, error), onSuccess func(any)) {
	r.wg.Add(1)
	task := func() {
		defer r.wg.Done()
		value, err := r.attempt(name, fn)
		if err != nil {
			return
		}
		onSuccess(value)
	}
	if err := r.pool.Submit(task); err != nil {
		// Pool rejection (release during shutdown) degrades to inline.
		task()
	}
}

func (r *collection) wait() {
	r.wg.Wait()
}

// pause applies the rate-limit delay, aborting early on cancellation. Calls
// skipped here are never counted.
func (r *collection) pause() error {
	if r.delay <= 0 {
		return r.ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-r.ctx.Done():
		return r.ctx.Err()
	case <-timer.C:
		return nil
	}
}

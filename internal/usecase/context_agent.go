package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitchsider/match-context/internal/domain/analysis"
	"github.com/pitchsider/match-context/internal/domain/bundle"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/dig"
	"github.com/pitchsider/match-context/internal/platform/lock"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

const (
	SourceCache = "cache"
	SourceFresh = "fresh"
)

type AgentConfig struct {
	// LockTTL bounds one analysis run. It must cover the collection budget;
	// a background extender refreshes the lease halfway through.
	LockTTL time.Duration

	// RefreshNotStarted re-collects a cached context whose status is still
	// "not started" although the scheduled kickoff has passed.
	RefreshNotStarted bool
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		LockTTL: 200 * time.Second,
	}
}

func (cfg AgentConfig) normalize() AgentConfig {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultAgentConfig().LockTTL
	}
	return cfg
}

// ContextResult is the public answer of GetMatchContext.
type ContextResult struct {
	Context  *matchcontext.MatchContext
	Source   string
	APICalls int
}

// BetAnalysisResult is the per-bet-type read projection.
type BetAnalysisResult struct {
	BetType          matchcontext.BetType `json:"bet_type"`
	Indicators       map[string]any       `json:"indicators"`
	DataSources      []string             `json:"data_sources"`
	CoverageComplete bool                 `json:"coverage_complete"`
	MissingSources   []string             `json:"missing_sources"`
}

// ContextAgent orchestrates the pipeline: cache-first reads, per-fixture
// locking, collection, analysis, and persistence.
type ContextAgent struct {
	store     matchcontext.Store
	collector *Collector
	locks     lock.Manager
	logger    *logging.Logger
	cfg       AgentConfig
	now       func() time.Time
}

func NewContextAgent(store matchcontext.Store, collector *Collector, locks lock.Manager, cfg AgentConfig, logger *logging.Logger) *ContextAgent {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContextAgent{
		store:     store,
		collector: collector,
		locks:     locks,
		logger:    logger,
		cfg:       cfg.normalize(),
		now:       time.Now,
	}
}

// GetMatchContext returns the fixture's analyzed context, computing it at
// most once across concurrent callers.
func (a *ContextAgent) GetMatchContext(ctx context.Context, fixtureID int64, forceRefresh bool) (*ContextResult, error) {
	ctx, span := startUsecaseSpan(ctx, "agent.GetMatchContext")
	defer span.End()

	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	if !forceRefresh {
		if result, ok, err := a.cacheRead(ctx, fixtureID); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}
	}

	resource := lockResource(fixtureID)
	lease, err := a.locks.Acquire(ctx, resource, a.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockUnavailable) {
			return nil, fmt.Errorf("%w: fixture %d", ErrBusy, fixtureID)
		}
		return nil, fmt.Errorf("acquire analysis lock: %w", err)
	}

	stopExtend := a.keepLeaseAlive(ctx, lease)
	defer func() {
		stopExtend()
		if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, lock.ErrLeaseLost) {
			a.logger.WarnContext(ctx, "lock release failed", "resource", resource, "error", releaseErr)
		}
	}()

	// Another worker may have finished while we waited on the lock.
	if !forceRefresh {
		if result, ok, err := a.cacheRead(ctx, fixtureID); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}
	}

	return a.collectAndSave(ctx, fixtureID)
}

// cacheRead performs the touch-and-return cache path.
func (a *ContextAgent) cacheRead(ctx context.Context, fixtureID int64) (*ContextResult, bool, error) {
	mc, ok, err := a.store.Get(ctx, fixtureID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read context: %v", ErrStoreFailure, err)
	}
	if !ok {
		return nil, false, nil
	}

	if a.cfg.RefreshNotStarted && matchcontext.IsScheduled(mc.Status) && a.now().After(mc.Date) && !mc.Date.IsZero() {
		a.logger.InfoContext(ctx, "stale not-started context, recollecting",
			"fixture_id", fixtureID, "status", mc.Status, "kickoff", mc.Date)
		return nil, false, nil
	}

	return &ContextResult{Context: mc, Source: SourceCache, APICalls: 0}, true, nil
}

func (a *ContextAgent) collectAndSave(ctx context.Context, fixtureID int64) (*ContextResult, error) {
	started := a.now()

	b, err := a.collector.Collect(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	analyses := analysis.Run(b, a.logger)
	mc := a.buildContext(b, analyses)

	// Any re-collection, forced or stale-triggered, keeps the accumulated
	// access history. Get bumps the counter, and this internal read is not
	// a user read, so its bump is backed out.
	if previous, ok, err := a.store.Get(ctx, fixtureID); err == nil && ok {
		mc.Metadata.AccessCount = previous.Metadata.AccessCount - 1
		mc.Metadata.LastAccessed = previous.Metadata.LastAccessed
	}

	if err := a.store.Save(ctx, mc); err != nil {
		return nil, fmt.Errorf("%w: save context: %v", ErrStoreFailure, err)
	}

	a.logger.InfoContext(ctx, "match context computed",
		"fixture_id", fixtureID,
		"match", mc.Label(),
		"api_calls", b.APICalls,
		"duration", a.now().Sub(started),
	)

	return &ContextResult{Context: mc, Source: SourceFresh, APICalls: b.APICalls}, nil
}

func (a *ContextAgent) buildContext(b *bundle.Bundle, analyses map[matchcontext.BetType]matchcontext.BetAnalysisData) *matchcontext.MatchContext {
	fixture, _ := b.Section(bundle.SectionFixture)
	_, homeName := b.HomeTeam()
	_, awayName := b.AwayTeam()

	league, _ := dig.String(fixture, "league", "name")
	season, _ := dig.Int(fixture, "league", "season")
	status, _ := dig.String(fixture, "fixture", "status", "short")

	var date time.Time
	if raw, ok := dig.String(fixture, "fixture", "date"); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			date = parsed
		}
	}

	now := a.now().UTC()
	return &matchcontext.MatchContext{
		FixtureID: b.FixtureID,
		HomeTeam:  homeName,
		AwayTeam:  awayName,
		League:    league,
		Season:    int(season),
		Date:      date,
		Status:    matchcontext.NormalizeStatus(status),
		Analyses:  analyses,
		Metadata: matchcontext.Metadata{
			Version:       matchcontext.CurrentVersion,
			CreatedAt:     now,
			LastAccessed:  now,
			AccessCount:   0,
			APICallsCount: b.APICalls,
		},
	}
}

// keepLeaseAlive extends the lease at half-TTL intervals until stopped.
func (a *ContextAgent) keepLeaseAlive(ctx context.Context, lease lock.Lease) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(a.cfg.LockTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lease.Extend(ctx, a.cfg.LockTTL); err != nil {
					a.logger.WarnContext(ctx, "lock extend failed",
						"resource", lease.Resource(), "error", err)
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// GetBetAnalysis returns one bet type's analysis with its missing sections.
func (a *ContextAgent) GetBetAnalysis(ctx context.Context, fixtureID int64, betType matchcontext.BetType) (*BetAnalysisResult, error) {
	ctx, span := startUsecaseSpan(ctx, "agent.GetBetAnalysis")
	defer span.End()

	mc, ok, err := a.store.Get(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("%w: read context: %v", ErrStoreFailure, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	}

	data, ok := mc.Analyses[betType]
	if !ok {
		return nil, fmt.Errorf("%w: analysis %q for fixture %d", ErrNotFound, betType, fixtureID)
	}

	required := analysis.RequiredSourcesFor(betType)
	return &BetAnalysisResult{
		BetType:          betType,
		Indicators:       data.Indicators,
		DataSources:      data.DataSources,
		CoverageComplete: data.CoverageComplete,
		MissingSources:   data.MissingSources(required),
	}, nil
}

// GetContext reads a full stored context without triggering collection.
func (a *ContextAgent) GetContext(ctx context.Context, fixtureID int64) (*matchcontext.MatchContext, error) {
	mc, ok, err := a.store.Get(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("%w: read context: %v", ErrStoreFailure, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	}
	return mc, nil
}

// ListContexts returns stored context summaries, optionally filtered by
// status code.
func (a *ContextAgent) ListContexts(ctx context.Context, status string) ([]matchcontext.Summary, error) {
	summaries, err := a.store.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list contexts: %v", ErrStoreFailure, err)
	}
	if status == "" {
		return summaries, nil
	}

	normalized := matchcontext.NormalizeStatus(status)
	filtered := make([]matchcontext.Summary, 0, len(summaries))
	for _, s := range summaries {
		if matchcontext.NormalizeStatus(s.Status) == normalized {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// DeleteContext removes a stored context.
func (a *ContextAgent) DeleteContext(ctx context.Context, fixtureID int64) error {
	deleted, err := a.store.Delete(ctx, fixtureID)
	if err != nil {
		return fmt.Errorf("%w: delete context: %v", ErrStoreFailure, err)
	}
	if !deleted {
		return fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	}
	return nil
}

// Cleanup evicts contexts older than the given number of days.
func (a *ContextAgent) Cleanup(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be greater than zero", ErrInvalidInput)
	}
	deleted, err := a.store.CleanupOlderThan(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup: %v", ErrStoreFailure, err)
	}
	a.logger.InfoContext(ctx, "context cleanup finished", "days", days, "deleted", deleted)
	return deleted, nil
}

// AttachCausal stores the opaque causal payload on an existing context.
func (a *ContextAgent) AttachCausal(ctx context.Context, fixtureID int64, payload matchcontext.CausalPayload) error {
	updated, err := a.store.UpdateCausalCache(ctx, fixtureID, payload)
	if err != nil {
		return fmt.Errorf("%w: attach causal payload: %v", ErrStoreFailure, err)
	}
	if !updated {
		return fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	}
	return nil
}

// ForceUnlock drops a fixture's analysis lock regardless of holder.
func (a *ContextAgent) ForceUnlock(ctx context.Context, fixtureID int64) error {
	return a.locks.ForceRelease(ctx, lockResource(fixtureID))
}

func lockResource(fixtureID int64) string {
	return fmt.Sprintf("fixture:%d", fixtureID)
}

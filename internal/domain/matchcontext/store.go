package matchcontext

import "context"

// Store is the durable match-context repository. Both the file-per-fixture
// and the relational back-end satisfy it with identical semantics.
type Store interface {
	// Has reports existence without touching access metadata.
	Has(ctx context.Context, fixtureID int64) (bool, error)

	// Get returns the context and atomically bumps access_count and
	// last_accessed. The boolean is false when the fixture is unknown.
	Get(ctx context.Context, fixtureID int64) (*MatchContext, bool, error)

	// Save upserts the full record. Partial writes must never become
	// visible.
	Save(ctx context.Context, mc *MatchContext) error

	// Delete removes the record, reporting whether it existed.
	Delete(ctx context.Context, fixtureID int64) (bool, error)

	// ListAll returns every stored fixture id.
	ListAll(ctx context.Context) ([]int64, error)

	// ListByStatus returns fixture ids whose persisted status matches code
	// (case-insensitive).
	ListByStatus(ctx context.Context, status string) ([]int64, error)

	// Summarize returns the listing projection for every stored context.
	Summarize(ctx context.Context) ([]Summary, error)

	// CleanupOlderThan deletes contexts created more than the given number
	// of days ago and returns how many were removed.
	CleanupOlderThan(ctx context.Context, days int) (int, error)

	// UpdateCausalCache attaches a causal payload to an existing context,
	// reporting whether the fixture was found.
	UpdateCausalCache(ctx context.Context, fixtureID int64, payload CausalPayload) (bool, error)
}

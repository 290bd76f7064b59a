// Package postgres implements the match-context store against Postgres.
// Access metadata is maintained in SQL so concurrent readers never lose a
// touch.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	qb "github.com/pitchsider/match-context/internal/platform/querybuilder"
)

const matchContextsTable = "match_contexts"

type MatchContextRepository struct {
	db *sqlx.DB
}

func NewMatchContextRepository(db *sqlx.DB) *MatchContextRepository {
	return &MatchContextRepository{db: db}
}

func (r *MatchContextRepository) Has(ctx context.Context, fixtureID int64) (bool, error) {
	query, args, err := qb.Select("1").From(matchContextsTable).
		Where(qb.Eq("fixture_id", fixtureID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build has context query: %w", err)
	}

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("has context: %w", err)
	}
	return true, nil
}

// Get bumps access_count and last_accessed in the same statement that reads
// the row, so the touch is atomic under concurrent readers.
func (r *MatchContextRepository) Get(ctx context.Context, fixtureID int64) (*matchcontext.MatchContext, bool, error) {
	columns, err := qb.Columns(matchContextTableModel{})
	if err != nil {
		return nil, false, fmt.Errorf("context columns: %w", err)
	}

	query, args, err := qb.Update(matchContextsTable).
		SetExpr("access_count", "access_count + 1").
		SetExpr("last_accessed", "NOW()").
		Where(qb.Eq("fixture_id", fixtureID)).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get context query: %w", err)
	}

	var row matchContextTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get context: %w", err)
	}

	mc, err := row.toDomain()
	if err != nil {
		return nil, false, err
	}
	return mc, true, nil
}

func (r *MatchContextRepository) Save(ctx context.Context, mc *matchcontext.MatchContext) error {
	if mc == nil || mc.FixtureID <= 0 {
		return fmt.Errorf("context must carry a fixture id")
	}

	model, err := toTableModel(mc)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel(matchContextsTable, model, upsertSuffix())
	if err != nil {
		return fmt.Errorf("build save context query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	return nil
}

func (r *MatchContextRepository) Delete(ctx context.Context, fixtureID int64) (bool, error) {
	query, args, err := qb.DeleteFrom(matchContextsTable).
		Where(qb.Eq("fixture_id", fixtureID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete context query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete context: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected delete context: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchContextRepository) ListAll(ctx context.Context) ([]int64, error) {
	query, args, err := qb.Select("fixture_id").From(matchContextsTable).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contexts query: %w", err)
	}

	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	return ids, nil
}

func (r *MatchContextRepository) ListByStatus(ctx context.Context, status string) ([]int64, error) {
	query, args, err := qb.Select("fixture_id").From(matchContextsTable).
		Where(qb.Expr("UPPER(match_status) = ?", matchcontext.NormalizeStatus(status))).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contexts by status query: %w", err)
	}

	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list contexts by status: %w", err)
	}
	return ids, nil
}

func (r *MatchContextRepository) Summarize(ctx context.Context) ([]matchcontext.Summary, error) {
	columns, err := qb.Columns(matchContextSummaryModel{})
	if err != nil {
		return nil, fmt.Errorf("summary columns: %w", err)
	}

	query, args, err := qb.Select(columns...).From(matchContextsTable).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build summarize contexts query: %w", err)
	}

	var rows []matchContextSummaryModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarize contexts: %w", err)
	}

	summaries := make([]matchcontext.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.toDomain())
	}
	return summaries, nil
}

func (r *MatchContextRepository) CleanupOlderThan(ctx context.Context, days int) (int, error) {
	query, args, err := qb.DeleteFrom(matchContextsTable).
		Where(qb.Expr("created_at < NOW() - make_interval(days => ?)", days)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build cleanup contexts query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup contexts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected cleanup contexts: %w", err)
	}
	return int(affected), nil
}

func (r *MatchContextRepository) UpdateCausalCache(ctx context.Context, fixtureID int64, payload matchcontext.CausalPayload) (bool, error) {
	data, err := encodeCausalPayload(payload)
	if err != nil {
		return false, err
	}

	query, args, err := qb.Update(matchContextsTable).
		Set("causal_data", data).
		Where(qb.Eq("fixture_id", fixtureID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update causal cache query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update causal cache: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected update causal cache: %w", err)
	}
	return affected > 0, nil
}

// upsertSuffix rewrites every mutable column from the incoming row on
// fixture_id conflicts.
func upsertSuffix() string {
	updatable := []string{
		"home_team", "away_team", "league", "season", "match_date",
		"match_status", "analyses_data", "causal_data", "api_calls_count",
		"version", "created_at", "last_accessed", "access_count",
	}
	assignments := make([]string, 0, len(updatable))
	for _, column := range updatable {
		assignments = append(assignments, column+" = EXCLUDED."+column)
	}
	return "ON CONFLICT (fixture_id) DO UPDATE SET " + strings.Join(assignments, ", ")
}

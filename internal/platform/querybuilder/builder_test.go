package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("fixture_id", "match_status").
		From("match_contexts").
		Where(Eq("fixture_id", int64(1347240)), Expr("created_at >= ?", "2026-01-01")).
		OrderBy("fixture_id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT fixture_id, match_status FROM match_contexts WHERE fixture_id = $1 AND created_at >= $2 ORDER BY fixture_id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != int64(1347240) || args[1] != "2026-01-01" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderInCondition(t *testing.T) {
	query, args, err := Select("fixture_id").
		From("match_contexts").
		Where(In("match_status", []any{"FT", "AET", "PEN"})).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT fixture_id FROM match_contexts WHERE match_status IN ($1, $2, $3)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}

	// An empty IN list can never match.
	query, _, err = Select("fixture_id").From("match_contexts").Where(In("match_status", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build empty-in query: %v", err)
	}
	if query != "SELECT fixture_id FROM match_contexts WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestInsertBuilderUpsertSuffix(t *testing.T) {
	query, args, err := InsertInto("match_contexts").
		Columns("fixture_id", "home_team").
		Values(int64(1347240), "Mali").
		Suffix("ON CONFLICT (fixture_id) DO UPDATE SET home_team = EXCLUDED.home_team").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO match_contexts (fixture_id, home_team) VALUES ($1, $2) " +
		"ON CONFLICT (fixture_id) DO UPDATE SET home_team = EXCLUDED.home_team"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilderTouch(t *testing.T) {
	query, args, err := Update("match_contexts").
		SetExpr("access_count", "access_count + 1").
		SetExpr("last_accessed", "NOW()").
		Where(Eq("fixture_id", int64(1347240))).
		Suffix("RETURNING fixture_id, access_count").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE match_contexts SET access_count = access_count + 1, last_accessed = NOW() " +
		"WHERE fixture_id = $1 RETURNING fixture_id, access_count"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != int64(1347240) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilderMixedPlaceholders(t *testing.T) {
	query, args, err := Update("match_contexts").
		Set("causal_data", []byte(`{}`)).
		SetExpr("last_accessed", "GREATEST(last_accessed, ?)", "2026-02-01").
		Where(Eq("fixture_id", int64(7))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE match_contexts SET causal_data = $1, last_accessed = GREATEST(last_accessed, $2) WHERE fixture_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("match_contexts").
		Where(Expr("created_at < ?", "2026-01-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM match_contexts WHERE created_at < $1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("match_contexts").ToSQL(); err == nil {
		t.Fatal("delete without conditions must fail")
	}
}

type contextInsertFixture struct {
	FixtureID int64  `db:"fixture_id"`
	HomeTeam  string `db:"home_team"`
	Ignored   string `db:"-"`
	NoTag     string
}

func TestInsertModel(t *testing.T) {
	query, args, err := InsertModel("match_contexts", contextInsertFixture{
		FixtureID: 1347240,
		HomeTeam:  "Mali",
	}, "")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO match_contexts (fixture_id, home_team) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != int64(1347240) || args[1] != "Mali" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestColumns(t *testing.T) {
	cols, err := Columns(&contextInsertFixture{})
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"fixture_id", "home_team"}) {
		t.Fatalf("unexpected columns: %v", cols)
	}

	if _, err := Columns(struct{ X int }{}); err == nil {
		t.Fatal("model without db tags must fail")
	}
}

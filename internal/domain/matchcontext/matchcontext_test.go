package matchcontext

import (
	"errors"
	"testing"
)

func TestParseBetType(t *testing.T) {
	t.Parallel()

	for _, bt := range BetTypes() {
		parsed, err := ParseBetType(string(bt))
		if err != nil {
			t.Fatalf("ParseBetType(%q) error: %v", bt, err)
		}
		if parsed != bt {
			t.Fatalf("ParseBetType(%q) = %q", bt, parsed)
		}
	}

	if _, err := ParseBetType(" GOALS "); err != nil {
		t.Fatalf("expected case-insensitive parse, got %v", err)
	}

	if _, err := ParseBetType("handicap"); !errors.Is(err, ErrUnknownBetType) {
		t.Fatalf("expected ErrUnknownBetType, got %v", err)
	}
}

func TestBetTypes_AllEightPresent(t *testing.T) {
	t.Parallel()

	types := BetTypes()
	if len(types) != 8 {
		t.Fatalf("expected 8 bet types, got %d", len(types))
	}

	seen := make(map[BetType]bool, len(types))
	for _, bt := range types {
		if seen[bt] {
			t.Fatalf("duplicate bet type %q", bt)
		}
		seen[bt] = true
	}
}

func TestMissingSources(t *testing.T) {
	t.Parallel()

	data := BetAnalysisData{
		DataSources: []string{"predictions", "standings"},
	}

	missing := data.MissingSources([]string{"predictions", "h2h_history", "standings"})
	if len(missing) != 1 || missing[0] != "h2h_history" {
		t.Fatalf("MissingSources = %v, want [h2h_history]", missing)
	}

	none := data.MissingSources([]string{"predictions"})
	if len(none) != 0 {
		t.Fatalf("expected no missing sources, got %v", none)
	}
}

func TestStatusGroups(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code      string
		scheduled bool
		live      bool
		finished  bool
		notPlayed bool
	}{
		{code: "NS", scheduled: true},
		{code: "tbd", scheduled: true},
		{code: "1H", live: true},
		{code: "susp", live: true},
		{code: "FT", finished: true},
		{code: "aet", finished: true},
		{code: "PST", notPlayed: true},
		{code: "WO", notPlayed: true},
	}

	for _, tc := range cases {
		if got := IsScheduled(tc.code); got != tc.scheduled {
			t.Errorf("IsScheduled(%q) = %v", tc.code, got)
		}
		if got := IsLive(tc.code); got != tc.live {
			t.Errorf("IsLive(%q) = %v", tc.code, got)
		}
		if got := IsFinished(tc.code); got != tc.finished {
			t.Errorf("IsFinished(%q) = %v", tc.code, got)
		}
		if got := IsNotPlayed(tc.code); got != tc.notPlayed {
			t.Errorf("IsNotPlayed(%q) = %v", tc.code, got)
		}
		if !KnownStatus(tc.code) {
			t.Errorf("KnownStatus(%q) = false", tc.code)
		}
	}

	if KnownStatus("XX") {
		t.Error("KnownStatus(XX) = true")
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	mc := &MatchContext{HomeTeam: "Mali", AwayTeam: "Zambia"}
	if got := mc.Label(); got != "Mali vs Zambia" {
		t.Fatalf("Label = %q", got)
	}
}

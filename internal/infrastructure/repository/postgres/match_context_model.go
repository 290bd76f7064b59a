package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/pitchsider/match-context/internal/domain/matchcontext"
)

type matchContextTableModel struct {
	FixtureID     int64     `db:"fixture_id"`
	HomeTeam      string    `db:"home_team"`
	AwayTeam      string    `db:"away_team"`
	League        string    `db:"league"`
	Season        int       `db:"season"`
	MatchDate     time.Time `db:"match_date"`
	MatchStatus   string    `db:"match_status"`
	AnalysesData  []byte    `db:"analyses_data"`
	CausalData    []byte    `db:"causal_data"`
	APICallsCount int       `db:"api_calls_count"`
	Version       int       `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	LastAccessed  time.Time `db:"last_accessed"`
	AccessCount   int64     `db:"access_count"`
}

type matchContextSummaryModel struct {
	FixtureID   int64     `db:"fixture_id"`
	HomeTeam    string    `db:"home_team"`
	AwayTeam    string    `db:"away_team"`
	League      string    `db:"league"`
	MatchDate   time.Time `db:"match_date"`
	MatchStatus string    `db:"match_status"`
	AccessCount int64     `db:"access_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func toTableModel(mc *matchcontext.MatchContext) (matchContextTableModel, error) {
	analyses, err := sonic.Marshal(mc.Analyses)
	if err != nil {
		return matchContextTableModel{}, fmt.Errorf("encode analyses: %w", err)
	}

	var causal []byte
	if hasCausalData(mc) {
		causal, err = sonic.Marshal(matchcontext.CausalPayload{
			Metrics:    mc.CausalMetrics,
			Findings:   mc.CausalFindings,
			Confidence: mc.CausalConfidence,
			Version:    mc.CausalVersion,
		})
		if err != nil {
			return matchContextTableModel{}, fmt.Errorf("encode causal payload: %w", err)
		}
	}

	return matchContextTableModel{
		FixtureID:     mc.FixtureID,
		HomeTeam:      mc.HomeTeam,
		AwayTeam:      mc.AwayTeam,
		League:        mc.League,
		Season:        mc.Season,
		MatchDate:     mc.Date,
		MatchStatus:   mc.Status,
		AnalysesData:  analyses,
		CausalData:    causal,
		APICallsCount: mc.Metadata.APICallsCount,
		Version:       mc.Metadata.Version,
		CreatedAt:     mc.Metadata.CreatedAt,
		LastAccessed:  mc.Metadata.LastAccessed,
		AccessCount:   mc.Metadata.AccessCount,
	}, nil
}

func (m matchContextTableModel) toDomain() (*matchcontext.MatchContext, error) {
	mc := &matchcontext.MatchContext{
		FixtureID: m.FixtureID,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		League:    m.League,
		Season:    m.Season,
		Date:      m.MatchDate,
		Status:    m.MatchStatus,
		Metadata: matchcontext.Metadata{
			Version:       m.Version,
			CreatedAt:     m.CreatedAt,
			LastAccessed:  m.LastAccessed,
			AccessCount:   m.AccessCount,
			APICallsCount: m.APICallsCount,
		},
	}

	if len(m.AnalysesData) > 0 {
		if err := sonic.Unmarshal(m.AnalysesData, &mc.Analyses); err != nil {
			return nil, fmt.Errorf("decode analyses for fixture %d: %w", m.FixtureID, err)
		}
	}
	if len(m.CausalData) > 0 {
		var payload matchcontext.CausalPayload
		if err := sonic.Unmarshal(m.CausalData, &payload); err != nil {
			return nil, fmt.Errorf("decode causal payload for fixture %d: %w", m.FixtureID, err)
		}
		mc.CausalMetrics = payload.Metrics
		mc.CausalFindings = payload.Findings
		mc.CausalConfidence = payload.Confidence
		mc.CausalVersion = payload.Version
	}
	return mc, nil
}

func (m matchContextSummaryModel) toDomain() matchcontext.Summary {
	return matchcontext.Summary{
		FixtureID:   m.FixtureID,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		League:      m.League,
		Date:        m.MatchDate,
		Status:      m.MatchStatus,
		AccessCount: m.AccessCount,
		CreatedAt:   m.CreatedAt,
	}
}

func hasCausalData(mc *matchcontext.MatchContext) bool {
	return mc.CausalMetrics != nil || mc.CausalFindings != nil ||
		mc.CausalConfidence != nil || mc.CausalVersion != ""
}

package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/logging"
	"github.com/pitchsider/match-context/internal/usecase"
)

type Handler struct {
	agent     *usecase.ContextAgent
	finder    *usecase.FixtureFinder
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(agent *usecase.ContextAgent, finder *usecase.FixtureFinder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		agent:     agent,
		finder:    finder,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	FixtureID    int64 `json:"fixture_id" validate:"required,gt=0"`
	ForceRefresh bool  `json:"force_refresh"`
}

type analyzeResponseDTO struct {
	FixtureID int64                                                 `json:"fixture_id"`
	Match     string                                                `json:"match"`
	League    string                                                `json:"league"`
	Season    int                                                   `json:"season"`
	Date      time.Time                                             `json:"date"`
	Status    string                                                `json:"status"`
	Analyses  map[matchcontext.BetType]matchcontext.BetAnalysisData `json:"analyses"`
	Source    string                                                `json:"source"`
	APICalls  int                                                   `json:"api_calls"`
}

func (h *Handler) AnalyzeFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AnalyzeFixture")
	defer span.End()

	var req analyzeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.agent.GetMatchContext(ctx, req.FixtureID, req.ForceRefresh)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze fixture failed",
			"fixture_id", req.FixtureID, "force_refresh", req.ForceRefresh, "error", err)
		writeError(ctx, w, err)
		return
	}

	mc := result.Context
	writeSuccess(ctx, w, http.StatusOK, analyzeResponseDTO{
		FixtureID: mc.FixtureID,
		Match:     mc.Label(),
		League:    mc.League,
		Season:    mc.Season,
		Date:      mc.Date,
		Status:    mc.Status,
		Analyses:  mc.Analyses,
		Source:    result.Source,
		APICalls:  result.APICalls,
	})
}

func (h *Handler) ListContexts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListContexts")
	defer span.End()

	summaries, err := h.agent.ListContexts(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.WarnContext(ctx, "list contexts failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"count":    len(summaries),
		"contexts": summaries,
	})
}

func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetContext")
	defer span.End()

	fixtureID, err := pathFixtureID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	mc, err := h.agent.GetContext(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get context failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mc)
}

func (h *Handler) GetBetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBetAnalysis")
	defer span.End()

	fixtureID, err := pathFixtureID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	betType, err := matchcontext.ParseBetType(r.PathValue("betType"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.agent.GetBetAnalysis(ctx, fixtureID, betType)
	if err != nil {
		h.logger.WarnContext(ctx, "get bet analysis failed",
			"fixture_id", fixtureID, "bet_type", betType, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteContext")
	defer span.End()

	fixtureID, err := pathFixtureID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.agent.DeleteContext(ctx, fixtureID); err != nil {
		h.logger.WarnContext(ctx, "delete context failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"fixture_id": fixtureID, "deleted": true})
}

type cleanupRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

func (h *Handler) CleanupContexts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CleanupContexts")
	defer span.End()

	var req cleanupRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	deleted, err := h.agent.Cleanup(ctx, req.Days)
	if err != nil {
		h.logger.WarnContext(ctx, "cleanup contexts failed", "days", req.Days, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"days": req.Days, "deleted": deleted})
}

type causalRequest struct {
	Metrics    any      `json:"causal_metrics"`
	Findings   any      `json:"causal_findings"`
	Confidence *float64 `json:"causal_confidence" validate:"omitempty,gte=0,lte=1"`
	Version    string   `json:"causal_version" validate:"required,max=50"`
}

func (h *Handler) AttachCausal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AttachCausal")
	defer span.End()

	fixtureID, err := pathFixtureID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req causalRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err = h.agent.AttachCausal(ctx, fixtureID, matchcontext.CausalPayload{
		Metrics:    req.Metrics,
		Findings:   req.Findings,
		Confidence: req.Confidence,
		Version:    req.Version,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "attach causal failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"fixture_id": fixtureID, "causal_version": req.Version})
}

func (h *Handler) ForceUnlock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceUnlock")
	defer span.End()

	fixtureID, err := pathFixtureID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.agent.ForceUnlock(ctx, fixtureID); err != nil {
		h.logger.WarnContext(ctx, "force unlock failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"fixture_id": fixtureID, "unlocked": true})
}

func (h *Handler) SearchFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchFixtures")
	defer span.End()

	query := r.URL.Query()
	leagueID, err := parseQueryInt(query.Get("league"), "league")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	season, err := parseQueryInt(query.Get("season"), "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.finder.FindFixtures(ctx, leagueID, season, query.Get("date"))
	if err != nil {
		h.logger.WarnContext(ctx, "search fixtures failed",
			"league_id", leagueID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"count":    len(fixtures),
		"fixtures": fixtures,
	})
}

func (h *Handler) FindMeetings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FindMeetings")
	defer span.End()

	query := r.URL.Query()
	teamA := query.Get("team1")
	teamB := query.Get("team2")

	last := 0
	if raw := query.Get("last"); raw != "" {
		parsed, err := parseQueryInt(raw, "last")
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		last = int(parsed)
	}

	meetings, err := h.finder.FindMeetings(ctx, teamA, teamB, last)
	if err != nil {
		h.logger.WarnContext(ctx, "find meetings failed",
			"team1", teamA, "team2", teamB, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"count":    len(meetings),
		"meetings": meetings,
	})
}

// decodeRequest parses and validates a JSON body. Unknown fields are
// rejected so typos fail loudly.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathFixtureID(r *http.Request) (int64, error) {
	raw := r.PathValue("fixtureID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid fixture id %q", usecase.ErrInvalidInput, raw)
	}
	return id, nil
}

func parseQueryInt(raw, name string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, name, raw)
	}
	return value, nil
}

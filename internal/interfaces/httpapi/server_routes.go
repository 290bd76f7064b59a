package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAnalyzerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/analyzers/analyze", handler.AnalyzeFixture)
	mux.HandleFunc("GET /v1/analyzers/contexts", handler.ListContexts)
	mux.HandleFunc("GET /v1/analyzers/contexts/{fixtureID}", handler.GetContext)
	mux.HandleFunc("GET /v1/analyzers/contexts/{fixtureID}/bets/{betType}", handler.GetBetAnalysis)
}

func registerFixtureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/fixtures/search", handler.SearchFixtures)
	mux.HandleFunc("GET /v1/fixtures/meetings", handler.FindMeetings)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("DELETE /v1/analyzers/contexts/{fixtureID}", RequireAdminToken(adminToken, http.HandlerFunc(handler.DeleteContext)))
	mux.Handle("POST /v1/analyzers/cleanup", RequireAdminToken(adminToken, http.HandlerFunc(handler.CleanupContexts)))
	mux.Handle("PUT /v1/analyzers/contexts/{fixtureID}/causal", RequireAdminToken(adminToken, http.HandlerFunc(handler.AttachCausal)))
	mux.Handle("POST /v1/analyzers/contexts/{fixtureID}/unlock", RequireAdminToken(adminToken, http.HandlerFunc(handler.ForceUnlock)))
}

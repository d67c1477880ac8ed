package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicWindowRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/windows/current", handler.GetCurrentWindow)
	mux.HandleFunc("GET /v1/windows/{periodKey}", handler.GetWindowByKey)
	mux.HandleFunc("GET /v1/windows/{periodKey}/leaderboard", handler.GetWindowLeaderboard)
}

func registerAuthorizedVoteRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/votes", RequireAuth(verifier, http.HandlerFunc(handler.ApplyVote)))
}

func registerLifecycleRoutes(mux *http.ServeMux, handler *Handler, lifecycleToken string) {
	// GET because hosted cron services commonly only issue GETs.
	mux.Handle("GET /lifecycle/run", RequireLifecycleToken(lifecycleToken, http.HandlerFunc(handler.RunLifecycle)))
}

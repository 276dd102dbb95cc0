package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Movie routes
// are wrapped by RequireAuth so no catalog handler runs without a verified,
// active user.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, Limiter: deps.LoginLimiter}
	movies := MovieHandler{Catalog: deps.Catalog}

	protected := RequireAuth(deps.Users, deps.Tokens)

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.Handle("GET /movies", protected(http.HandlerFunc(movies.List)))
	mux.Handle("POST /movies", protected(http.HandlerFunc(movies.Create)))
	mux.Handle("GET /movies/{id}", protected(http.HandlerFunc(movies.Get)))
	mux.Handle("PATCH /movies/{id}", protected(http.HandlerFunc(movies.Update)))
	mux.Handle("DELETE /movies/{id}", protected(http.HandlerFunc(movies.Delete)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Tokens       TokenIssuer
	Catalog      MovieCatalog
	LoginLimiter RateLimiter
}

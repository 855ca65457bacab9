package server

import "net/http"

// Route is one endpoint of the public API.
type Route struct {
	Pattern string
	Methods []string
	Auth    bool
}

var routeTable = []Route{
	{Pattern: "/healthz", Methods: []string{http.MethodGet}},
	{Pattern: "/metrics", Methods: []string{http.MethodGet}},
	{Pattern: "/api/auth/register", Methods: []string{http.MethodPost}},
	{Pattern: "/api/auth/login", Methods: []string{http.MethodPost}},
	{Pattern: "/api/auth/logout", Methods: []string{http.MethodPost}, Auth: true},
	{Pattern: "/api/auth/me", Methods: []string{http.MethodGet}, Auth: true},
	{Pattern: "/api/recommendations", Methods: []string{http.MethodPost}, Auth: true},
	{Pattern: "/api/movies/{id}", Methods: []string{http.MethodGet}, Auth: true},
	{Pattern: "/api/movies/{id}/comments", Methods: []string{http.MethodGet, http.MethodPost}, Auth: true},
	{Pattern: "/api/favorites", Methods: []string{http.MethodGet}, Auth: true},
	{Pattern: "/api/favorites/{id}", Methods: []string{http.MethodPut, http.MethodDelete}, Auth: true},
	{Pattern: "/api/history", Methods: []string{http.MethodGet}, Auth: true},
	{Pattern: "/api/password/forgot", Methods: []string{http.MethodPost}},
	{Pattern: "/api/password/verify", Methods: []string{http.MethodPost}},
	{Pattern: "/api/password/reset", Methods: []string{http.MethodPost}},
}

// Routes lists the endpoints Router serves, for documentation checks.
func Routes() []Route {
	out := make([]Route, len(routeTable))
	copy(out, routeTable)
	return out
}

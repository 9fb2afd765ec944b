package httpapi

import "net/http"

// setupRoutes configures the HTTP routes of spec.md §6: submit and
// status, the only two endpoints the Runtime exposes, plus /health.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		RouteCRUD(w, r, nil, s.submitHandler, nil, nil)
	})
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		matched := RouteByPathSuffix(w, r, "/search/", []PathSuffixRouter{
			{Suffix: "/status", Handler: s.statusHandler},
		})
		if !matched {
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/health", s.healthHandler)

	return mux
}

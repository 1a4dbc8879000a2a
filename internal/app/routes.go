package app

import "net/http"

// Router is the subset of *chi.Mux the server registers routes on.
type Router interface {
	Get(pattern string, handler http.HandlerFunc)
	NotFound(handler http.HandlerFunc)
	MethodNotAllowed(handler http.HandlerFunc)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

func (s *server) routes() {
	s.router.Get("/basic", s.logRequest(s.logResponse(s.handleBasic())))
	s.router.Get("/double", s.logRequest(s.logResponse(s.handleDouble())))

	// Known path with the wrong method is a miss like any other.
	notFound := s.logRequest(s.logResponse(s.handleNotFound()))
	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(notFound)
}

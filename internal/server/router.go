package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements [Router] on a [chi.Mux].
//
// Middleware must be added before any route, as chi requires.
type ChiRouter struct {
	mux *chi.Mux
}

// NewChiRouter creates a new [ChiRouter] whose 404 and 405 responses are JSON.
func NewChiRouter() *ChiRouter {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	mux.MethodNotAllowed(methodNotAllowed)
	return &ChiRouter{mux: mux}
}

// Use adds [Middleware] to the router, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers handler for one HTTP method and path.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// Handler registers a custom Handler implementation for every method on each of its routes.
func (r *ChiRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

package web

import (
	"net/http"
)

// Router wraps http.ServeMux. Patterns may carry a method prefix,
// as in "GET /import/full".
type Router struct {
	mux *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		mux: http.NewServeMux(),
	}
}

func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

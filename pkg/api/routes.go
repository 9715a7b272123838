package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/inspiration", s.HandleInspiration)
	mux.HandleFunc("POST /api/inspiration/reroll", s.HandleRerollAll)
	mux.HandleFunc("POST /api/inspiration/words/{word}/reroll", s.HandleRerollWord)
	mux.HandleFunc("GET /api/inspiration/ws", s.HandleInspirationWS)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the full middleware chain around mux.
func Handler(mux *http.ServeMux) http.Handler {
	return RequestIDMiddleware(MetricsMiddleware(CorsMiddleware(CompressMiddleware(mux))))
}

package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/realtime"
	"github.com/rubiojr/sparks/pkg/search"
)

// Backend is what the handlers search and sample with. Search and Panel are
// nil when no API key is configured.
type Backend struct {
	Search *search.Service
	Panel  *inspire.Panel
	Limits search.Limits
}

// Configured reports whether searches may be sent upstream.
func (b Backend) Configured() bool {
	return b.Search != nil
}

type Server struct {
	mu      sync.RWMutex
	backend Backend
	hub     *realtime.Hub
	log     *log.Logger
}

func NewServer(backend Backend) *Server {
	return &Server{
		backend: backend,
		log:     log.ForService("api"),
	}
}

// SetBackend swaps the backend, e.g. after a configuration reload. Requests
// already running keep the backend they started with.
func (s *Server) SetBackend(b Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = b
}

func (s *Server) Backend() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// SetHub enables pushing panel updates to websocket listeners.
func (s *Server) SetHub(h *realtime.Hub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = h
}

func (s *Server) getHub() *realtime.Hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func (s *Server) writeNotConfigured(w http.ResponseWriter) {
	s.writeError(w, http.StatusServiceUnavailable, "Configuration needed",
		"Flickr API key missing. Set FLICKR_API_KEY or add api_key to the [flickr] section of the config file.")
}

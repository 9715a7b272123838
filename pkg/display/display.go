// Package display tracks what a search view shows: nothing yet, a loading
// indicator, results, an empty state, an error, or the configuration-needed
// notice.
package display

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/search"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseLoading      Phase = "loading"
	PhaseResults      Phase = "results"
	PhaseEmpty        Phase = "empty"
	PhaseError        Phase = "error"
	PhaseUnconfigured Phase = "unconfigured"
)

// State is an immutable copy of a Search.
type State struct {
	Phase  Phase
	Query  string
	Result *search.Result
	Err    error
}

// Search is the per-view state machine:
//
//	idle -> loading -> results | empty | error
//
// Start moves any state back to loading and clears the previous result and
// error. Finish only applies to the most recent Start. Unconfigured is
// terminal until Reset.
type Search struct {
	mu    sync.Mutex
	state State
	seq   uint64
}

func NewSearch() *Search {
	return &Search{state: State{Phase: PhaseIdle}}
}

// Start begins a search for query and returns its ticket. In the
// unconfigured phase nothing changes and the ticket is zero.
func (s *Search) Start(query string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == PhaseUnconfigured {
		return 0
	}
	s.seq++
	s.state = State{Phase: PhaseLoading, Query: query}
	return s.seq
}

// Finish settles the search identified by ticket. It reports false, leaving
// the state untouched, when a newer search has started since.
func (s *Search) Finish(ticket uint64, res *search.Result, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket == 0 || ticket != s.seq || s.state.Phase != PhaseLoading {
		return false
	}
	switch {
	case errors.Is(err, flickr.ErrNotConfigured):
		s.state = State{Phase: PhaseUnconfigured}
	case err != nil:
		s.state.Phase, s.state.Err = PhaseError, err
	case res == nil || res.Empty():
		s.state.Phase, s.state.Result = PhaseEmpty, res
	default:
		s.state.Phase, s.state.Result = PhaseResults, res
	}
	return true
}

// Unconfigured switches to the configuration-needed notice.
func (s *Search) Unconfigured() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = State{Phase: PhaseUnconfigured}
}

// Reset returns to idle, leaving the unconfigured phase if needed.
func (s *Search) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = State{Phase: PhaseIdle}
}

func (s *Search) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settle runs a whole search against fn and returns the final state. It is
// the one-shot form used by request handlers and the CLI.
func Settle(query string, configured bool, fn func() (*search.Result, error)) State {
	s := NewSearch()
	if !configured {
		s.Unconfigured()
		return s.State()
	}
	ticket := s.Start(query)
	res, err := fn()
	s.Finish(ticket, res, err)
	return s.State()
}

// Message is the user facing line for the state. It is empty for idle,
// loading and results.
func (st State) Message() string {
	switch st.Phase {
	case PhaseUnconfigured:
		return "Flickr API key missing. Set FLICKR_API_KEY or run `sparks init` and edit the config file."
	case PhaseEmpty:
		return fmt.Sprintf("No photos found for %q %s.", st.Query, SourcePhrase(st.Result))
	case PhaseError:
		return ErrorMessage(st.Err)
	}
	return ""
}

// SourcePhrase describes where results came from, e.g. "in British
// Library's photos" or "across all Flickr".
func SourcePhrase(res *search.Result) string {
	if res == nil {
		return "across all Flickr"
	}
	if res.Source == search.SourcePreferred {
		return fmt.Sprintf("in %s's photos", res.SourceLabel)
	}
	label := res.SourceLabel
	if label == "" {
		label = "all Flickr"
	}
	return "across " + label
}

// ErrorMessage renders the error taxonomy: HTTP status failures, remote API
// failures with their message, anything else verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var source string
	var callErr *search.CallError
	if errors.As(err, &callErr) {
		source = fmt.Sprintf(" (%s search)", callErr.Source)
	}

	var httpErr *flickr.HTTPError
	var apiErr *flickr.APIError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Flickr request failed with HTTP status %d%s.", httpErr.StatusCode, source)
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("error code %d", apiErr.Code)
		}
		return fmt.Sprintf("Flickr error: %s%s.", msg, source)
	}
	return fmt.Sprintf("Search failed: %v", err)
}

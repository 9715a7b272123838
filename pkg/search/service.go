package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/metrics"
)

var (
	ErrEmptyQuery   = errors.New("search query is empty")
	ErrInvalidCount = errors.New("result count must be positive")
)

// Source identifies which tier produced a result set.
type Source string

const (
	SourcePreferred Source = "preferred"
	SourceGlobal    Source = "global"
)

// Searcher runs a single photo search. *flickr.Client satisfies it.
type Searcher interface {
	SearchPhotos(ctx context.Context, opts flickr.SearchOptions) ([]flickr.Photo, error)
}

// Options configures the preferred tier and the labels shown to users.
type Options struct {
	PreferredUserID string
	PreferredLabel  string
	GlobalLabel     string
}

// Params is a single search request.
type Params struct {
	Query string
	Count int

	// PreferredUserID and PreferredLabel override the service defaults for
	// this request only.
	PreferredUserID string
	PreferredLabel  string
}

// Result is the outcome of one search. It is not retained past a render.
type Result struct {
	Query       string
	Count       int
	Photos      []flickr.Photo
	Source      Source
	SourceLabel string
}

// Empty reports whether no usable photo was found in either tier.
func (r *Result) Empty() bool {
	return len(r.Photos) == 0
}

// CallError reports which tier's call failed.
type CallError struct {
	Source Source
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s search failed: %v", e.Source, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Service runs searches with fallback. It holds no per-request state and is
// safe for concurrent use when its Searcher is.
type Service struct {
	searcher Searcher
	opts     Options
	log      *log.Logger
}

func NewService(searcher Searcher, opts Options) *Service {
	if opts.GlobalLabel == "" {
		opts.GlobalLabel = "all Flickr"
	}
	return &Service{
		searcher: searcher,
		opts:     opts,
		log:      log.ForService("search"),
	}
}

// Search queries the preferred account and falls back to the global catalog
// when the preferred tier has no usable photos. Without a preferred account a
// single global search is made.
func (s *Service) Search(ctx context.Context, p Params) (*Result, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if p.Count <= 0 {
		return nil, ErrInvalidCount
	}

	preferredID, preferredLabel := s.opts.PreferredUserID, s.opts.PreferredLabel
	if p.PreferredUserID != "" {
		preferredID, preferredLabel = p.PreferredUserID, p.PreferredLabel
	}
	if preferredLabel == "" {
		preferredLabel = "@" + preferredID
	}

	res := &Result{Query: query, Count: p.Count}

	if preferredID != "" {
		photos, err := s.run(ctx, SourcePreferred, flickr.SearchOptions{Text: query, PerPage: p.Count, UserID: preferredID})
		if err != nil {
			return nil, err
		}
		if len(photos) > 0 {
			res.Photos, res.Source, res.SourceLabel = photos, SourcePreferred, preferredLabel
			return res, nil
		}
		metrics.SearchFallbacks.Inc()
		s.log.Debugf("no results for %q in %s, falling back to %s", query, preferredLabel, s.opts.GlobalLabel)
	}

	photos, err := s.run(ctx, SourceGlobal, flickr.SearchOptions{Text: query, PerPage: p.Count})
	if err != nil {
		return nil, err
	}
	res.Photos, res.Source, res.SourceLabel = photos, SourceGlobal, s.opts.GlobalLabel
	return res, nil
}

func (s *Service) run(ctx context.Context, source Source, opts flickr.SearchOptions) ([]flickr.Photo, error) {
	photos, err := s.searcher.SearchPhotos(ctx, opts)
	if err != nil {
		return nil, &CallError{Source: source, Err: err}
	}
	return FilterUsable(photos), nil
}

// FilterUsable drops photos without a large image URL. The result is never nil.
func FilterUsable(photos []flickr.Photo) []flickr.Photo {
	usable := make([]flickr.Photo, 0, len(photos))
	for _, p := range photos {
		if p.HasImage() {
			usable = append(usable, p)
		}
	}
	return usable
}

// Limits bounds the count accepted from user input.
type Limits struct {
	Default int
	Min     int
	Max     int
}

// Clamp forces n into [Min, Max], mapping non-positive values to Default.
func (l Limits) Clamp(n int) int {
	if n <= 0 {
		n = l.Default
	}
	if l.Min > 0 && n < l.Min {
		n = l.Min
	}
	if l.Max > 0 && n > l.Max {
		n = l.Max
	}
	return n
}

// ParseParams builds Params from HTTP query parameters.
//
// Supported parameters:
//   - q: search text, trimmed; required
//   - count: number of results, clamped to limits; invalid values use the default
func ParseParams(queryParams map[string][]string, limits Limits) (Params, error) {
	params := Params{Count: limits.Clamp(0)}

	if q := queryParams["q"]; len(q) > 0 {
		params.Query = strings.TrimSpace(q[0])
	}

	if countStr := queryParams["count"]; len(countStr) > 0 && countStr[0] != "" {
		if parsed, err := strconv.Atoi(countStr[0]); err == nil {
			params.Count = limits.Clamp(parsed)
		}
	}

	if params.Query == "" {
		return params, ErrEmptyQuery
	}
	return params, nil
}

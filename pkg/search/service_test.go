package search

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/rubiojr/sparks/pkg/flickr"
)

// fakeSearcher answers from per-user canned responses and records calls.
type fakeSearcher struct {
	byUser map[string][]flickr.Photo // "" is the global catalog
	errs   map[string]error
	calls  []flickr.SearchOptions
}

func (f *fakeSearcher) SearchPhotos(ctx context.Context, opts flickr.SearchOptions) ([]flickr.Photo, error) {
	f.calls = append(f.calls, opts)
	if err := f.errs[opts.UserID]; err != nil {
		return nil, err
	}
	return f.byUser[opts.UserID], nil
}

func photo(id string, withImage bool) flickr.Photo {
	p := flickr.Photo{ID: id, Owner: "owner", Title: "photo " + id}
	if withImage {
		p.URLLarge = "https://live.staticflickr.com/" + id + "_b.jpg"
	}
	return p
}

const bl = "12403504@N02"

func newTestService(f *fakeSearcher) *Service {
	return NewService(f, Options{PreferredUserID: bl, PreferredLabel: "British Library", GlobalLabel: "all Flickr"})
}

func TestPreferredResultsSkipFallback(t *testing.T) {
	f := &fakeSearcher{byUser: map[string][]flickr.Photo{
		bl: {photo("1", true), photo("2", false), photo("3", true)},
		"": {photo("g", true)},
	}}

	res, err := newTestService(f).Search(context.Background(), Params{Query: "  ship ", Count: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(f.calls))
	}
	if f.calls[0].UserID != bl || f.calls[0].Text != "ship" || f.calls[0].PerPage != 5 {
		t.Errorf("unexpected call %+v", f.calls[0])
	}
	if res.Source != SourcePreferred || res.SourceLabel != "British Library" {
		t.Errorf("source = %s (%s)", res.Source, res.SourceLabel)
	}
	if len(res.Photos) != 2 || res.Photos[0].ID != "1" || res.Photos[1].ID != "3" {
		t.Errorf("expected filtered preferred photos [1 3], got %+v", res.Photos)
	}
}

func TestFallbackWhenPreferredEmpty(t *testing.T) {
	f := &fakeSearcher{byUser: map[string][]flickr.Photo{
		"": {photo("a", true), photo("b", true), photo("c", true)},
	}}

	res, err := newTestService(f).Search(context.Background(), Params{Query: "lighthouse", Count: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected two calls, got %d", len(f.calls))
	}
	if f.calls[1].UserID != "" {
		t.Errorf("fallback must be unscoped, got user %q", f.calls[1].UserID)
	}
	if res.Source != SourceGlobal || res.SourceLabel != "all Flickr" {
		t.Errorf("source = %s (%s)", res.Source, res.SourceLabel)
	}
	if len(res.Photos) != 3 {
		t.Errorf("expected 3 photos, got %d", len(res.Photos))
	}
}

func TestFallbackWhenPreferredOnlyHasUnusablePhotos(t *testing.T) {
	f := &fakeSearcher{byUser: map[string][]flickr.Photo{
		bl: {photo("1", false), photo("2", false)},
		"": {photo("g", false)},
	}}

	res, err := newTestService(f).Search(context.Background(), Params{Query: "moth", Count: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected fallback after filtering, got %d calls", len(f.calls))
	}
	if !res.Empty() || res.Photos == nil {
		t.Errorf("expected empty non-nil result, got %#v", res.Photos)
	}
	if res.Source != SourceGlobal {
		t.Errorf("empty result should report the global source, got %s", res.Source)
	}
}

func TestPreferredErrorDoesNotFallBack(t *testing.T) {
	upstream := &flickr.HTTPError{Method: flickr.MethodSearchPhotos, StatusCode: 503}
	f := &fakeSearcher{
		byUser: map[string][]flickr.Photo{"": {photo("g", true)}},
		errs:   map[string]error{bl: upstream},
	}

	_, err := newTestService(f).Search(context.Background(), Params{Query: "x", Count: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.calls) != 1 {
		t.Errorf("error on the preferred call must not trigger fallback, got %d calls", len(f.calls))
	}
	var ce *CallError
	if !errors.As(err, &ce) || ce.Source != SourcePreferred {
		t.Errorf("expected CallError from preferred source, got %v", err)
	}
	var he *flickr.HTTPError
	if !errors.As(err, &he) || he.StatusCode != 503 {
		t.Errorf("expected wrapped HTTPError, got %v", err)
	}
}

func TestGlobalErrorIsReported(t *testing.T) {
	f := &fakeSearcher{errs: map[string]error{"": errors.New("boom")}}

	_, err := newTestService(f).Search(context.Background(), Params{Query: "x", Count: 3})
	var ce *CallError
	if !errors.As(err, &ce) || ce.Source != SourceGlobal {
		t.Fatalf("expected CallError from global source, got %v", err)
	}
}

func TestNoPreferredAccountSearchesGloballyOnce(t *testing.T) {
	f := &fakeSearcher{}
	svc := NewService(f, Options{})

	res, err := svc.Search(context.Background(), Params{Query: "x", Count: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(f.calls) != 1 || f.calls[0].UserID != "" {
		t.Errorf("expected a single global call, got %+v", f.calls)
	}
	if res.SourceLabel != "all Flickr" {
		t.Errorf("default global label = %q", res.SourceLabel)
	}
}

func TestPerRequestPreferredOverride(t *testing.T) {
	f := &fakeSearcher{byUser: map[string][]flickr.Photo{"99@N01": {photo("u", true)}}}

	res, err := newTestService(f).Search(context.Background(), Params{Query: "x", Count: 3, PreferredUserID: "99@N01"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if f.calls[0].UserID != "99@N01" {
		t.Errorf("override not applied: %+v", f.calls[0])
	}
	if res.SourceLabel != "@99@N01" {
		t.Errorf("label = %q", res.SourceLabel)
	}
}

func TestSearchValidation(t *testing.T) {
	f := &fakeSearcher{}
	svc := newTestService(f)

	if _, err := svc.Search(context.Background(), Params{Query: "   ", Count: 3}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("blank query err = %v", err)
	}
	if _, err := svc.Search(context.Background(), Params{Query: "x", Count: 0}); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("zero count err = %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("invalid params must not search, got %d calls", len(f.calls))
	}
}

func TestParseParams(t *testing.T) {
	limits := Limits{Default: 10, Min: 3, Max: 10}

	tests := []struct {
		name     string
		query    string
		expected Params
		wantErr  error
	}{
		{"basic", "q=otter&count=5", Params{Query: "otter", Count: 5}, nil},
		{"trimmed query", "q=++comet++", Params{Query: "comet", Count: 10}, nil},
		{"count below range", "q=a&count=1", Params{Query: "a", Count: 3}, nil},
		{"count above range", "q=a&count=50", Params{Query: "a", Count: 10}, nil},
		{"invalid count uses default", "q=a&count=many", Params{Query: "a", Count: 10}, nil},
		{"missing query", "count=4", Params{Count: 4}, ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := ParseParams(values, limits)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("got %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestLimitsClampWithoutBounds(t *testing.T) {
	l := Limits{Default: 7}
	if got := l.Clamp(500); got != 500 {
		t.Errorf("unbounded clamp changed value: %d", got)
	}
	if got := l.Clamp(-1); got != 7 {
		t.Errorf("non-positive should map to default, got %d", got)
	}
}

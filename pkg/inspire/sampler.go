// Package inspire builds the inspiration panel: a few random words from a
// vocabulary, each paired with a random photo drawn from that word's own
// search results.
package inspire

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/metrics"
	"github.com/rubiojr/sparks/pkg/search"
)

const (
	DefaultWords   = 3
	DefaultPerWord = 50
)

// Fetcher runs the preferred-then-global search for one word.
// *search.Service satisfies it.
type Fetcher interface {
	Search(ctx context.Context, p search.Params) (*search.Result, error)
}

// WordEntry pairs a word with the candidate photos fetched for it and the
// photo currently shown. Current, when set, always points at a copy of one
// of Candidates.
type WordEntry struct {
	Word       string
	Candidates []flickr.Photo
	Current    *flickr.Photo
	Source     search.Source
	// Err is set when the fetch failed and the word was degraded to no
	// candidates.
	Err error
}

// NewRand returns a randomly seeded generator.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// SampleWords picks k entries uniformly at random without replacement by
// shuffling a copy and taking a prefix. When k exceeds the vocabulary the
// whole shuffled vocabulary is returned.
func SampleWords(vocab []string, k int, rng *rand.Rand) []string {
	if k <= 0 || len(vocab) == 0 {
		return []string{}
	}
	shuffled := make([]string, len(vocab))
	copy(shuffled, vocab)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}

// PickRandomImage draws one photo uniformly from candidates. It returns nil
// for an empty set.
func PickRandomImage(candidates []flickr.Photo, rng *rand.Rand) *flickr.Photo {
	if len(candidates) == 0 {
		return nil
	}
	p := candidates[rng.IntN(len(candidates))]
	return &p
}

// RerollWord draws a new current photo from the entry's retained candidates.
// No search is made.
func RerollWord(entry WordEntry, rng *rand.Rand) WordEntry {
	entry.Current = PickRandomImage(entry.Candidates, rng)
	return entry
}

// FetchWordImages searches every word concurrently and waits until all of
// them have settled. A failed word is degraded to an empty candidate set and
// never affects the others. Picks are made after the join, from each word's
// own candidates.
func FetchWordImages(ctx context.Context, f Fetcher, words []string, perWord int, rng *rand.Rand) map[string]WordEntry {
	entries := fetchCandidates(ctx, f, words, perWord)
	out := make(map[string]WordEntry, len(entries))
	for _, e := range entries {
		out[e.Word] = RerollWord(e, rng)
	}
	return out
}

// fetchCandidates returns one entry per word, in word order, without picks.
func fetchCandidates(ctx context.Context, f Fetcher, words []string, perWord int) []WordEntry {
	l := log.ForService("inspire")
	if perWord <= 0 {
		perWord = DefaultPerWord
	}

	entries := make([]WordEntry, len(words))
	var g errgroup.Group
	for i, word := range words {
		g.Go(func() error {
			entry := WordEntry{Word: word, Candidates: []flickr.Photo{}}
			res, err := f.Search(ctx, search.Params{Query: word, Count: perWord})
			if err != nil {
				l.Warnf("fetching candidates for %q: %v", word, err)
				metrics.WordFetchFailures.Inc()
				entry.Err = err
			} else {
				entry.Candidates = res.Photos
				entry.Source = res.Source
			}
			entries[i] = entry
			// Errors are folded into the entry so every word settles.
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

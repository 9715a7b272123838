package inspire

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/rubiojr/sparks/pkg/vocabulary"
)

var (
	ErrUnknownWord     = errors.New("word is not on the panel")
	ErrSuperseded      = errors.New("reroll superseded by a newer one")
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
)

// WordView is the presentation copy of a WordEntry.
type WordView struct {
	Word       string        `json:"word"`
	Photo      *flickr.Photo `json:"photo,omitempty"`
	Candidates int           `json:"candidates"`
	Source     search.Source `json:"source,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// CanReroll reports whether there is anything to draw from.
func (v WordView) CanReroll() bool {
	return v.Candidates > 0
}

// Snapshot is an immutable copy of the panel state handed to renderers.
type Snapshot struct {
	Generation uint64     `json:"generation"`
	Loading    bool       `json:"loading"`
	Words      []WordView `json:"words"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type PanelOptions struct {
	Words   int
	PerWord int
	// Rand drives sampling and picks. A randomly seeded one is used when nil.
	Rand *rand.Rand
	// Notify receives every new snapshot. It must not block.
	Notify func(Snapshot)
}

// Panel owns the word set and every candidate set. All mutations happen under
// its lock at join points, after the outstanding fetches have settled.
//
// Each RerollAll is tagged with a generation; when a newer RerollAll starts
// before an older one settles, the older result is discarded.
type Panel struct {
	mu      sync.Mutex
	fetcher Fetcher
	vocab   vocabulary.Vocabulary
	k       int
	perWord int
	rng     *rand.Rand
	notify  func(Snapshot)

	generation uint64
	loading    bool
	words      []string
	entries    map[string]WordEntry
	updatedAt  time.Time
}

func NewPanel(fetcher Fetcher, vocab vocabulary.Vocabulary, opts PanelOptions) *Panel {
	if opts.Words <= 0 {
		opts.Words = DefaultWords
	}
	if opts.PerWord <= 0 {
		opts.PerWord = DefaultPerWord
	}
	if opts.Rand == nil {
		opts.Rand = NewRand()
	}
	return &Panel{
		fetcher: fetcher,
		vocab:   vocab,
		k:       opts.Words,
		perWord: opts.PerWord,
		rng:     opts.Rand,
		notify:  opts.Notify,
		entries: make(map[string]WordEntry),
	}
}

// RerollAll samples a fresh word set, fetches candidates for every word and
// replaces all previous words and candidate sets. It returns ErrSuperseded,
// together with the current snapshot, when a newer RerollAll started while
// this one was fetching.
func (p *Panel) RerollAll(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	if p.vocab.Len() == 0 {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrEmptyVocabulary
	}
	p.generation++
	gen := p.generation
	words := SampleWords(p.vocab.Words(), p.k, p.rng)
	p.loading = true
	loading := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(loading)

	fetched := fetchCandidates(ctx, p.fetcher, words, p.perWord)

	p.mu.Lock()
	if gen != p.generation {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		p.loading = false
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.publish(snap)
		return snap, err
	}

	entries := make(map[string]WordEntry, len(fetched))
	for _, e := range fetched {
		entries[e.Word] = RerollWord(e, p.rng)
	}
	p.words = words
	p.entries = entries
	p.loading = false
	p.updatedAt = time.Now().UTC()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return snap, nil
}

// RerollWord draws a new photo for word from its retained candidates. No
// search is made. A word with no candidates keeps showing nothing.
func (p *Panel) RerollWord(word string) (Snapshot, error) {
	p.mu.Lock()
	entry, ok := p.entries[word]
	if !ok {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrUnknownWord
	}
	p.entries[word] = RerollWord(entry, p.rng)
	p.updatedAt = time.Now().UTC()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return snap, nil
}

// Snapshot returns the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// candidates returns a copy of the retained candidate set for word.
func (p *Panel) candidates(word string) ([]flickr.Photo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[word]
	if !ok {
		return nil, false
	}
	cp := make([]flickr.Photo, len(entry.Candidates))
	copy(cp, entry.Candidates)
	return cp, true
}

func (p *Panel) snapshotLocked() Snapshot {
	snap := Snapshot{
		Generation: p.generation,
		Loading:    p.loading,
		Words:      make([]WordView, 0, len(p.words)),
		UpdatedAt:  p.updatedAt,
	}
	for _, w := range p.words {
		e := p.entries[w]
		view := WordView{
			Word:       w,
			Candidates: len(e.Candidates),
			Source:     e.Source,
		}
		if e.Current != nil {
			photo := *e.Current
			view.Photo = &photo
		}
		if e.Err != nil {
			view.Error = e.Err.Error()
		}
		snap.Words = append(snap.Words, view)
	}
	return snap
}

func (p *Panel) publish(snap Snapshot) {
	if p.notify != nil {
		p.notify(snap)
	}
}

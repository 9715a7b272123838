// Package vocabulary loads the word list the inspiration panel samples from.
package vocabulary

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"
)

// MinWordLength is the shortest entry kept, in characters.
const MinWordLength = 3

//go:embed nouns.txt
var defaultNouns string

// Vocabulary is an ordered, read-only list of candidate words.
type Vocabulary struct {
	words []string
}

// New builds a Vocabulary from already-clean words. Repeats are dropped,
// keeping the first occurrence.
func New(words []string) Vocabulary {
	return Vocabulary{words: dedupe(words)}
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Words returns a copy of the word list.
func (v Vocabulary) Words() []string {
	cp := make([]string, len(v.words))
	copy(cp, v.words)
	return cp
}

// Len is the number of words.
func (v Vocabulary) Len() int {
	return len(v.words)
}

// Parse reads a newline separated list, trims each line and drops blank,
// short and repeated entries. Order of first occurrence is kept.
func Parse(r io.Reader) (Vocabulary, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if utf8.RuneCountInString(w) < MinWordLength {
			continue
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return Vocabulary{}, fmt.Errorf("reading word list: %w", err)
	}
	return Vocabulary{words: dedupe(words)}, nil
}

// Default returns the built-in noun list.
func Default() Vocabulary {
	v, _ := Parse(strings.NewReader(defaultNouns))
	return v
}

// Load resolves source to a Vocabulary: an http(s) URL is fetched, any other
// non-empty value is read as a file, and an empty source yields Default.
func Load(ctx context.Context, source string, client *http.Client) (Vocabulary, error) {
	switch {
	case source == "":
		return Default(), nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return LoadURL(ctx, source, client)
	default:
		return LoadFile(source)
	}
}

// LoadFile reads a word list from disk.
func LoadFile(path string) (Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("opening word list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// LoadURL fetches a word list over HTTP.
func LoadURL(ctx context.Context, rawURL string, client *http.Client) (Vocabulary, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("building word list request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("fetching word list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Vocabulary{}, fmt.Errorf("fetching word list: status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

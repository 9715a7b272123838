package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rubiojr/sparks/pkg/api"
	"github.com/rubiojr/sparks/pkg/config"
	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/rubiojr/sparks/pkg/vocabulary"
)

// newClient creates the photo API client. It returns flickr.ErrNotConfigured
// when the credential is missing.
func newClient(cfg *config.Config) (*flickr.Client, error) {
	return flickr.NewClient(cfg.Flickr.APIKey,
		flickr.WithBaseURL(cfg.Flickr.BaseURL),
		flickr.WithTimeout(cfg.Flickr.Timeout.Duration),
	)
}

// resolvePreferred returns the preferred account id, looking up
// preferred_username when no id is configured. A failed or empty lookup
// disables the preferred tier.
func resolvePreferred(ctx context.Context, client *flickr.Client, cfg *config.Config) string {
	if cfg.Flickr.PreferredUserID != "" || cfg.Flickr.PreferredUsername == "" {
		return cfg.Flickr.PreferredUserID
	}

	l := log.ForService("config")
	id, err := client.FindUserByUsername(ctx, cfg.Flickr.PreferredUsername)
	if err != nil {
		l.Warnf("Looking up preferred user %q failed, searching all of Flickr only: %v", cfg.Flickr.PreferredUsername, err)
		return ""
	}
	if id == "" {
		l.Warnf("Preferred user %q not found, searching all of Flickr only", cfg.Flickr.PreferredUsername)
	}
	return id
}

// newSearchService wires client and preferred account into a search service.
func newSearchService(ctx context.Context, client *flickr.Client, cfg *config.Config) *search.Service {
	return search.NewService(client, search.Options{
		PreferredUserID: resolvePreferred(ctx, client, cfg),
		PreferredLabel:  cfg.Flickr.PreferredLabel,
		GlobalLabel:     cfg.Flickr.GlobalLabel,
	})
}

func searchLimits(cfg *config.Config) search.Limits {
	return search.Limits{
		Default: cfg.Search.DefaultCount,
		Min:     cfg.Search.MinCount,
		Max:     cfg.Search.MaxCount,
	}
}

func loadVocabulary(ctx context.Context, cfg *config.Config) (vocabulary.Vocabulary, error) {
	vocab, err := vocabulary.Load(ctx, cfg.Inspiration.Vocabulary, &http.Client{Timeout: cfg.Flickr.Timeout.Duration})
	if err != nil {
		return vocabulary.Vocabulary{}, fmt.Errorf("loading vocabulary: %w", err)
	}
	if vocab.Len() == 0 {
		return vocabulary.Vocabulary{}, fmt.Errorf("loading vocabulary: %w", inspire.ErrEmptyVocabulary)
	}
	return vocab, nil
}

// buildBackend creates everything the web server and API need from cfg.
// Without a credential it returns a backend with only limits set, so every
// search path answers with the configuration notice and no request is sent.
func buildBackend(ctx context.Context, cfg *config.Config, notify func(inspire.Snapshot)) (api.Backend, error) {
	backend := api.Backend{Limits: searchLimits(cfg)}
	if !cfg.IsConfigured() {
		return backend, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return backend, err
	}
	vocab, err := loadVocabulary(ctx, cfg)
	if err != nil {
		return backend, err
	}

	backend.Search = newSearchService(ctx, client, cfg)
	backend.Panel = inspire.NewPanel(backend.Search, vocab, inspire.PanelOptions{
		Words:   cfg.Inspiration.Words,
		PerWord: cfg.Inspiration.PerWord,
		Notify:  notify,
	})
	return backend, nil
}

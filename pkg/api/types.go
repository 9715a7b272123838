package api

import (
	"time"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/search"
)

type PhotoResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Owner     string   `json:"owner"`
	OwnerName string   `json:"owner_name"`
	ImageURL  string   `json:"image_url"`
	PageURL   string   `json:"page_url"`
	Tags      []string `json:"tags"`
}

func NewPhotoResponse(p flickr.Photo) PhotoResponse {
	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}
	return PhotoResponse{
		ID:        p.ID,
		Title:     p.Title,
		Owner:     p.Owner,
		OwnerName: p.OwnerName,
		ImageURL:  p.URLLarge,
		PageURL:   p.PageURL(),
		Tags:      tags,
	}
}

type SearchResponse struct {
	Query       string          `json:"query"`
	Count       int             `json:"count"`
	Source      search.Source   `json:"source"`
	SourceLabel string          `json:"source_label"`
	Photos      []PhotoResponse `json:"photos"`
	Total       int             `json:"total"`
	// Message is set for the empty state.
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	Configured bool      `json:"configured"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
}

// WSMessage is every frame sent on the inspiration websocket. The first
// frame is always Type "init".
type WSMessage struct {
	Type       string            `json:"type"`
	Session    string            `json:"session,omitempty"`
	Configured bool              `json:"configured"`
	Panel      *inspire.Snapshot `json:"panel,omitempty"`
}

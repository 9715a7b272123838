package flickr

import (
	"fmt"
	"strings"
)

// Photo is a single search hit. Values are immutable once decoded.
type Photo struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	OwnerName string `json:"ownername"`
	Title     string `json:"title"`
	URLLarge  string `json:"url_l,omitempty"`
	Tags      string `json:"tags"`
}

// HasImage reports whether the photo carries a usable large image URL.
func (p Photo) HasImage() bool {
	return strings.TrimSpace(p.URLLarge) != ""
}

// PageURL is the public photo page on flickr.com.
func (p Photo) PageURL() string {
	return fmt.Sprintf("https://www.flickr.com/photos/%s/%s", p.Owner, p.ID)
}

// TagList splits the space separated tag string.
func (p Photo) TagList() []string {
	return strings.Fields(p.Tags)
}

// SearchOptions parametrizes flickr.photos.search.
type SearchOptions struct {
	Text    string
	PerPage int
	// UserID scopes the search to one account. When empty the search runs
	// across the whole catalog restricted to CommonsLicenses.
	UserID string
}

type envelope struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type searchResponse struct {
	envelope
	Photos struct {
		Photo []Photo `json:"photo"`
	} `json:"photos"`
}

type userResponse struct {
	envelope
	User *struct {
		ID   string `json:"id"`
		NSID string `json:"nsid"`
	} `json:"user"`
}

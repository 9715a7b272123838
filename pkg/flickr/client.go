// Package flickr is a small client for the two REST methods sparks needs:
// photo search and user lookup by name.
package flickr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.flickr.com/services/rest/"

	// BritishLibraryUserID is the British Library's account, resolved locally.
	BritishLibraryUserID = "12403504@N02"

	MethodSearchPhotos   = "flickr.photos.search"
	MethodFindByUsername = "flickr.people.findByUsername"
)

// CommonsLicenses is the license allow-list applied to unscoped searches.
var CommonsLicenses = []string{"4", "5", "6", "7", "9", "10"}

var knownAccounts = map[string]string{
	"britishlibrary": BritishLibraryUserID,
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *log.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// NewClient returns ErrNotConfigured when apiKey is blank.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.ForService("flickr"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchPhotos runs flickr.photos.search and returns the page of hits as
// received. Every failure envelope is an error.
func (c *Client) SearchPhotos(ctx context.Context, opts SearchOptions) ([]Photo, error) {
	if strings.TrimSpace(opts.Text) == "" {
		return nil, fmt.Errorf("%s: search text is required", MethodSearchPhotos)
	}
	if opts.PerPage <= 0 {
		return nil, fmt.Errorf("%s: per_page must be positive, got %d", MethodSearchPhotos, opts.PerPage)
	}

	params := url.Values{}
	params.Set("text", opts.Text)
	params.Set("tag_mode", "any")
	params.Set("sort", "relevance")
	params.Set("per_page", strconv.Itoa(opts.PerPage))
	params.Set("content_types", "2")
	params.Set("is_commons", "1")
	params.Set("extras", "url_l,owner_name,tags")
	if opts.UserID != "" {
		params.Set("user_id", opts.UserID)
	} else {
		params.Set("license", strings.Join(CommonsLicenses, ","))
	}

	c.log.Debugf("search text=%q per_page=%d user_id=%q", opts.Text, opts.PerPage, opts.UserID)

	var resp searchResponse
	if err := c.call(ctx, MethodSearchPhotos, params, &resp); err != nil {
		return nil, err
	}
	if resp.Photos.Photo == nil {
		return []Photo{}, nil
	}
	return resp.Photos.Photo, nil
}

// FindUserByUsername resolves an account name to its id. An unknown user
// yields "" and no error.
func (c *Client) FindUserByUsername(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%s: username is required", MethodFindByUsername)
	}
	if id, ok := knownAccounts[strings.ToLower(username)]; ok {
		return id, nil
	}

	params := url.Values{}
	params.Set("username", username)

	var resp userResponse
	err := c.call(ctx, MethodFindByUsername, params, &resp)
	if err == errAbsent {
		c.log.Debugf("user %q not found", username)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if resp.User == nil {
		return "", nil
	}
	if resp.User.NSID != "" {
		return resp.User.NSID, nil
	}
	return resp.User.ID, nil
}

// call issues a GET for method and decodes the body into out. Envelope
// failures are mapped to APIError. Only findByUsername treats code 1 as
// errAbsent; for photos.search code 1 is a query error.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) (err error) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		switch {
		case err == errAbsent:
			outcome = metrics.OutcomeNotFound
		case err != nil:
			outcome = metrics.OutcomeError
		}
		metrics.UpstreamRequests.WithLabelValues(method, outcome).Inc()
		metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("failed to close response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Method: method, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}
	switch env.Stat {
	case "ok":
	case "fail":
		if method == MethodFindByUsername && env.Code == codeNotFound {
			return errAbsent
		}
		return &APIError{Method: method, Code: env.Code, Message: env.Message}
	default:
		return &APIError{Method: method, Message: fmt.Sprintf("unexpected stat %q", env.Stat)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}
	return nil
}

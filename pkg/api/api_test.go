package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/realtime"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/rubiojr/sparks/pkg/vocabulary"
)

// fakeFlickr answers photos.search: scoped searches for "lighthouse" are
// empty, "broken" fails with a 500, everything else returns three photos.
func fakeFlickr(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		text := q.Get("text")
		if text == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("user_id") != "" && text == "toomany" {
			_, _ = io.WriteString(w, `{"stat":"fail","code":1,"message":"Too many tags in ALL query"}`)
			return
		}
		if q.Get("user_id") != "" && text == "lighthouse" {
			_, _ = io.WriteString(w, `{"stat":"ok","photos":{"photo":[]}}`)
			return
		}
		var photos []string
		for i := 1; i <= 3; i++ {
			photos = append(photos, fmt.Sprintf(
				`{"id":"%s-%d","owner":"o%d","ownername":"Owner %d","title":"%s %d","url_l":"https://img.example/%s/%d.jpg","tags":"a b"}`,
				text, i, i, i, text, i, text, i))
		}
		_, _ = io.WriteString(w, `{"stat":"ok","photos":{"photo":[`+strings.Join(photos, ",")+`]}}`)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

type testEnv struct {
	server   *Server
	hub      *realtime.Hub
	http     *httptest.Server
	upstream *atomic.Int32
}

func newTestEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()
	upstream, calls := fakeFlickr(t)

	env := &testEnv{hub: realtime.NewHub(16), upstream: calls}
	backend := Backend{Limits: search.Limits{Default: 10, Min: 3, Max: 10}}
	if configured {
		client, err := flickr.NewClient("test-key", flickr.WithBaseURL(upstream.URL+"/"))
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		backend.Search = search.NewService(client, search.Options{
			PreferredUserID: flickr.BritishLibraryUserID,
			PreferredLabel:  "British Library",
		})
		backend.Panel = inspire.NewPanel(backend.Search,
			vocabulary.New([]string{"otter", "bridge", "comet"}),
			inspire.PanelOptions{Words: 3, Notify: env.hub.PublishPanel})
	}

	env.server = NewServer(backend)
	env.server.SetHub(env.hub)

	mux := http.NewServeMux()
	env.server.RegisterRoutes(mux)
	env.http = httptest.NewServer(Handler(mux))
	t.Cleanup(env.http.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return v
}

func TestSearchFallsBackToGlobal(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, "GET", "/api/search?q=lighthouse&count=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[SearchResponse](t, body)
	if got.Source != search.SourceGlobal || got.SourceLabel != "all Flickr" {
		t.Errorf("source = %s / %q", got.Source, got.SourceLabel)
	}
	if got.Total != 3 || got.Count != 5 {
		t.Errorf("total = %d, count = %d", got.Total, got.Count)
	}
	if got.Photos[0].PageURL != "https://www.flickr.com/photos/o1/lighthouse-1" {
		t.Errorf("page url = %q", got.Photos[0].PageURL)
	}
	if n := env.upstream.Load(); n != 2 {
		t.Errorf("expected preferred + global calls, got %d", n)
	}
}

func TestSearchPreferredHit(t *testing.T) {
	env := newTestEnv(t, true)

	_, body := env.do(t, "GET", "/api/search?q=otter&count=50")
	got := decode[SearchResponse](t, body)
	if got.Source != search.SourcePreferred || got.SourceLabel != "British Library" {
		t.Errorf("source = %s / %q", got.Source, got.SourceLabel)
	}
	if got.Count != 10 {
		t.Errorf("count should be clamped to 10, got %d", got.Count)
	}
	if n := env.upstream.Load(); n != 1 {
		t.Errorf("expected a single call, got %d", n)
	}
}

func TestSearchErrors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		path   string
		status int
		substr string
	}{
		{"/api/search", http.StatusBadRequest, "'q' is required"},
		{"/api/search?q=%20%20", http.StatusBadRequest, "'q' is required"},
		{"/api/search?q=broken", http.StatusBadGateway, "HTTP status 500 (preferred search)"},
		{"/api/search?q=toomany", http.StatusBadGateway, "Too many tags in ALL query (preferred search)"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := env.do(t, "GET", tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decode[ErrorResponse](t, body)
			if !strings.Contains(e.Message, tt.substr) {
				t.Errorf("message %q does not contain %q", e.Message, tt.substr)
			}
		})
	}
}

func TestPreferredFailureEnvelopeDoesNotFallBack(t *testing.T) {
	env := newTestEnv(t, true)

	resp, _ := env.do(t, "GET", "/api/search?q=toomany")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if n := env.upstream.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1 (no global fallback)", n)
	}
}

func TestUnconfiguredMakesNoUpstreamCalls(t *testing.T) {
	env := newTestEnv(t, false)

	for _, r := range []struct{ method, path string }{
		{"GET", "/api/search?q=lighthouse"},
		{"GET", "/api/inspiration"},
		{"POST", "/api/inspiration/reroll"},
		{"POST", "/api/inspiration/words/otter/reroll"},
	} {
		resp, body := env.do(t, r.method, r.path)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d", r.method, r.path, resp.StatusCode)
		}
		if e := decode[ErrorResponse](t, body); e.Error != "Configuration needed" {
			t.Errorf("%s %s: error = %q", r.method, r.path, e.Error)
		}
	}
	if n := env.upstream.Load(); n != 0 {
		t.Errorf("unconfigured server made %d upstream calls", n)
	}

	_, body := env.do(t, "GET", "/health")
	if h := decode[HealthResponse](t, body); h.Configured || h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestInspirationRerolls(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, "POST", "/api/inspiration/reroll")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reroll status = %d: %s", resp.StatusCode, body)
	}
	snap := decode[inspire.Snapshot](t, body)
	if len(snap.Words) != 3 || snap.Loading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	for _, w := range snap.Words {
		if w.Photo == nil || !strings.HasPrefix(w.Photo.ID, w.Word+"-") {
			t.Errorf("word %s shows %+v", w.Word, w.Photo)
		}
	}

	calls := env.upstream.Load()
	resp, body = env.do(t, "POST", "/api/inspiration/words/"+snap.Words[0].Word+"/reroll")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("word reroll status = %d: %s", resp.StatusCode, body)
	}
	if env.upstream.Load() != calls {
		t.Error("word reroll went upstream")
	}

	resp, _ = env.do(t, "POST", "/api/inspiration/words/zebra/reroll")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown word status = %d", resp.StatusCode)
	}

	_, body = env.do(t, "GET", "/api/inspiration")
	if got := decode[inspire.Snapshot](t, body); got.Generation != 1 {
		t.Errorf("generation = %d", got.Generation)
	}
}

func wsURL(base string) string {
	u, _ := url.Parse(base)
	u.Scheme = "ws"
	u.Path = "/api/inspiration/ws"
	return u.String()
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read ws message: %v", err)
	}
	return msg
}

func TestWebSocketInitAndPush(t *testing.T) {
	env := newTestEnv(t, true)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.http.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	init := readMessage(t, conn)
	if init.Type != "init" || !init.Configured || init.Session == "" || init.Panel == nil {
		t.Fatalf("unexpected init %+v", init)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if resp, _ := env.do(t, "POST", "/api/inspiration/reroll"); resp.StatusCode != http.StatusOK {
		t.Fatalf("reroll status = %d", resp.StatusCode)
	}

	for {
		msg := readMessage(t, conn)
		if msg.Type != realtime.EventPanel || msg.Panel == nil {
			t.Fatalf("unexpected message %+v", msg)
		}
		if msg.Session != init.Session {
			t.Errorf("session changed: %s vs %s", msg.Session, init.Session)
		}
		if !msg.Panel.Loading {
			if len(msg.Panel.Words) != 3 || msg.Panel.Generation != 1 {
				t.Errorf("settled panel %+v", msg.Panel)
			}
			break
		}
	}
}

func TestWebSocketUnconfigured(t *testing.T) {
	env := newTestEnv(t, false)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.http.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	init := readMessage(t, conn)
	if init.Configured || init.Panel != nil {
		t.Errorf("unexpected init %+v", init)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Errorf("expected a try-again-later close, got %v", err)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.do(t, "GET", "/health")
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id")
	}

	const id = "6f1c1f0e-4a8e-4bb4-9a57-8a3f8f0d3c11"
	req, _ := http.NewRequest("GET", env.http.URL+"/health", nil)
	req.Header.Set(RequestIDHeader, id)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp2.Body.Close()
	if got := resp2.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	env.do(t, "GET", "/api/search?q=otter")

	resp, body := env.do(t, "GET", "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, name := range []string{
		`sparks_http_requests_total{code="200",route="GET /api/search"}`,
		"sparks_upstream_requests_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

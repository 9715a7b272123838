package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/sparks/cmd/web/components"
	"github.com/rubiojr/sparks/cmd/web/components/types"
	"github.com/rubiojr/sparks/pkg/api"
	"github.com/rubiojr/sparks/pkg/config"
	"github.com/rubiojr/sparks/pkg/display"
	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/log"
	"github.com/rubiojr/sparks/pkg/realtime"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/rubiojr/sparks/pkg/version"
)

//go:embed web/static/*
var staticFS embed.FS

// panelLoadTimeout bounds a background panel load.
const panelLoadTimeout = 2 * time.Minute

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: "8080",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to",
				Value: "localhost",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	ctx       context.Context
	apiServer *api.Server
	hub       *realtime.Hub
	log       *log.Logger
}

func newWebServer(ctx context.Context, backend api.Backend, hub *realtime.Hub) *WebServer {
	apiServer := api.NewServer(backend)
	apiServer.SetHub(hub)
	return &WebServer{
		ctx:       ctx,
		apiServer: apiServer,
		hub:       hub,
		log:       log.ForService("web"),
	}
}

// Handler returns the UI and API routes behind the shared middleware.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.apiServer.RegisterRoutes(mux)

	// Web UI routes
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /inspiration/panel", s.handlePanel)
	mux.HandleFunc("POST /inspiration/reroll", s.handleRerollAll)
	mux.HandleFunc("POST /inspiration/words/{word}/reroll", s.handleRerollWord)

	// Static assets
	mux.HandleFunc("GET /static/", s.handleStatic)

	return api.Handler(mux)
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := realtime.NewHub(16)
	backend, err := buildBackend(ctx, cfg, hub.PublishPanel)
	if err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}

	webServer := newWebServer(ctx, backend, hub)
	if !backend.Configured() {
		webServer.log.Warnf("Flickr API key missing: set %s or edit %s", config.APIKeyEnv, configPath)
	}
	webServer.loadPanel(backend.Panel)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", host, port),
		Handler: webServer.Handler(),
	}

	l := webServer.log
	go func() {
		l.Infof("Starting web server on http://%s:%s", host, port)
		l.Infof("Available endpoints:")
		l.Infof("  Web UI:")
		l.Infof("    GET / - Search form, results and inspiration panel")
		l.Infof("    POST /inspiration/reroll - New inspiration words")
		l.Infof("    POST /inspiration/words/{word}/reroll - Another photo for one word")
		l.Infof("  API:")
		l.Infof("    GET /api/search - Search photos")
		l.Infof("    GET /api/inspiration - Current inspiration panel")
		l.Infof("    POST /api/inspiration/reroll - New inspiration words")
		l.Infof("    POST /api/inspiration/words/{word}/reroll - Another photo for one word")
		l.Infof("    GET /api/inspiration/ws - Live panel updates (websocket)")
		l.Infof("    GET /health - Health check")
		l.Infof("    GET /metrics - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("Server failed to start: %v", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				l.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			l.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			l.Infof("Watching config file for changes: %s", configPath)
		}
		events, watchErrors = watcher.Events, watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown(server, l)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				l.Infof("Received SIGHUP, reloading configuration...")
				webServer.reload(configPath)
				continue
			}
			return shutdown(server, l)
		case event, ok := <-events:
			if !ok {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
				continue
			}
			l.Infof("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					l.Infof("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					l.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			webServer.reload(configPath)
		case err, ok := <-watchErrors:
			if !ok {
				continue
			}
			l.Warnf("Config file watcher error: %v", err)
		}
	}
}

func shutdown(server *http.Server, l *log.Logger) error {
	l.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reload swaps in a backend built from the current config file. The old
// backend stays in place when the new config is invalid.
func (s *WebServer) reload(configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		s.log.Errorf("Failed to reload configuration: %v", err)
		return
	}
	backend, err := buildBackend(s.ctx, cfg, s.hub.PublishPanel)
	if err != nil {
		s.log.Errorf("Failed to reload configuration: %v", err)
		return
	}
	s.apiServer.SetBackend(backend)
	s.log.Infof("Configuration reloaded (configured: %t)", backend.Configured())
	s.loadPanel(backend.Panel)
}

// loadPanel samples the first word set in the background. The panel reports
// loading until every word has settled.
func (s *WebServer) loadPanel(p *inspire.Panel) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, panelLoadTimeout)
		defer cancel()
		if _, err := p.RerollAll(ctx); err != nil && !errors.Is(err, inspire.ErrSuperseded) {
			s.log.Warnf("initial inspiration load failed: %v", err)
		}
	}()
}

// Web UI Handlers

// handleHome renders the search form, the outcome of ?q= and the panel
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	b := s.apiServer.Backend()

	data := types.PageData{
		Title:        "Sparks",
		Version:      version.APIVersion(),
		Configured:   b.Configured(),
		Count:        b.Limits.Clamp(0),
		CountOptions: countOptions(b.Limits),
		Phase:        string(display.PhaseIdle),
	}

	if !b.Configured() {
		st := display.Settle("", false, nil)
		data.Phase, data.Notice = string(st.Phase), st.Message()
	} else if q := r.URL.Query(); strings.TrimSpace(q.Get("q")) != "" {
		params, _ := search.ParseParams(q, b.Limits)
		data.Query, data.Count = params.Query, params.Count

		st := display.Settle(params.Query, true, func() (*search.Result, error) {
			return b.Search.Search(r.Context(), params)
		})
		if st.Err != nil {
			s.log.Warnf("search %q failed: %v", params.Query, st.Err)
		}
		data.Phase, data.Message = string(st.Phase), st.Message()
		if st.Result != nil {
			data.SourceLabel = st.Result.SourceLabel
			data.Results = components.NewPhotoCards(st.Result.Photos)
		}
	}

	if b.Panel != nil {
		data.Panel = components.NewPanelData(b.Panel.Snapshot())
	}
	if r.URL.Query().Get("error") == "reroll" {
		data.Error = "Could not fetch new words. Please try again."
	}

	if err := components.Index(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handlePanel renders only the panel markup, used by the live updater
func (s *WebServer) handlePanel(w http.ResponseWriter, r *http.Request) {
	b := s.apiServer.Backend()
	if b.Panel == nil {
		http.Error(w, "not configured", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Panel(components.NewPanelData(b.Panel.Snapshot())).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleRerollAll replaces every word and redirects back home
func (s *WebServer) handleRerollAll(w http.ResponseWriter, r *http.Request) {
	b := s.apiServer.Backend()
	target := "/"
	if b.Panel != nil {
		if _, err := b.Panel.RerollAll(r.Context()); err != nil && !errors.Is(err, inspire.ErrSuperseded) {
			s.log.Warnf("reroll failed: %v", err)
			target = "/?error=reroll"
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleRerollWord draws another photo for one word and redirects back to it
func (s *WebServer) handleRerollWord(w http.ResponseWriter, r *http.Request) {
	b := s.apiServer.Backend()
	word := r.PathValue("word")
	if b.Panel != nil {
		if _, err := b.Panel.RerollWord(word); err != nil {
			s.log.Debugf("reroll of %q ignored: %v", word, err)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/#word-"+url.PathEscape(word), http.StatusSeeOther)
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/static/")
	if name == "" || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	content, err := staticFS.ReadFile("web/static/" + name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		s.log.Warnf("Error writing static content: %v", err)
	}
}

func countOptions(l search.Limits) []int {
	lo, hi := l.Min, l.Max
	if lo <= 0 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	opts := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		opts = append(opts, n)
	}
	return opts
}

// Package viewer serves a read-only local dashboard over the event store.
// The server binds to loopback only and never mutates stored data; it can
// run alongside an actively-appending collector and simply shows whatever
// has been durably written.
package viewer

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
	"github.com/0xbeekeeper/claw-diary/internal/analytics"
	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

//go:embed assets/index.html
var assetsFS embed.FS

// Server is the local HTTP viewer.
type Server struct {
	store *store.Store
	port  int

	mu    sync.RWMutex
	cache map[string]aggregate.DailySummary

	httpServer *http.Server
	watcher    *fsnotify.Watcher
}

// New builds a viewer over the given store.
func New(s *store.Store, port int) *Server {
	return &Server{
		store: s,
		port:  port,
		cache: make(map[string]aggregate.DailySummary),
	}
}

// Addr returns the loopback address the server binds to.
func (s *Server) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.port)
}

// Start binds the listener and begins serving in the background. The data
// directory is watched so cached summaries drop as the collector appends.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}

	s.startWatch()

	s.httpServer = &http.Server{Handler: s.Handler()}
	go s.httpServer.Serve(ln)
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the route table. Exposed separately so tests can drive
// the API without a live listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	sub, err := fs.Sub(assetsFS, "assets")
	if err == nil {
		mux.Handle("/", http.FileServer(http.FS(sub)))
	}

	mux.HandleFunc("/api/events", s.readOnly(s.handleEvents))
	mux.HandleFunc("/api/day", s.readOnly(s.handleDay))
	mux.HandleFunc("/api/week", s.readOnly(s.handleWeek))
	mux.HandleFunc("/api/stats", s.readOnly(s.handleStats))
	mux.HandleFunc("/api/search", s.readOnly(s.handleSearch))
	return mux
}

// readOnly rejects anything but GET. The viewer never mutates state.
func (s *Server) readOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	events, err := s.store.Load(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	store.SortByTime(events)
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := date.Format(store.DateFormat)
	s.mu.RLock()
	day, ok := s.cache[key]
	s.mu.RUnlock()

	if !ok {
		day, err = aggregate.SummarizeDay(s.store, date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.mu.Lock()
		if s.cache != nil {
			s.cache[key] = day
		}
		s.mu.Unlock()
	}
	writeJSON(w, day)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := aggregate.SummarizeWeek(s.store, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, week)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := analytics.Compute(s.store, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}
	events, err := s.store.Search(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, events)
}

// startWatch invalidates the day cache whenever the events directory
// changes. A watch that cannot be established is logged and skipped; the
// cache then simply never fills.
func (s *Server) startWatch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("warning: fs watch unavailable: %v", err)
		s.disableCache()
		return
	}
	if err := watcher.Add(s.store.Dir()); err != nil {
		log.Printf("warning: cannot watch %s: %v", s.store.Dir(), err)
		watcher.Close()
		s.disableCache()
		return
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.mu.Lock()
				s.cache = make(map[string]aggregate.DailySummary)
				s.mu.Unlock()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// disableCache keeps every /api/day request on the slow path. Without the
// watch there is no safe moment to serve a cached summary.
func (s *Server) disableCache() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// InvalidateDay drops one cached day. Used by tests and by callers that
// know a specific day changed.
func (s *Server) InvalidateDay(date time.Time) {
	s.mu.Lock()
	delete(s.cache, date.Format(store.DateFormat))
	s.mu.Unlock()
}

func requestDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation(store.DateFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want YYYY-MM-DD)", raw)
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("warning: encode response: %v", err)
	}
}

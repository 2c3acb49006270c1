// Package api serves read-only world observation over HTTP. Handlers never
// touch live simulation state: the tick loop publishes an immutable
// snapshot after each tick, and every request (and the websocket stream)
// reads the latest published one.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/talgya/hamlet/internal/persistence"
	"github.com/talgya/hamlet/internal/sim"
	"github.com/talgya/hamlet/internal/villager"
)

// Server serves the observer surface over HTTP.
type Server struct {
	DB   *persistence.DB
	Port int

	snap atomic.Pointer[sim.Snapshot]

	mu      sync.Mutex
	streams map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

// NewServer creates a server with no snapshot published yet.
func NewServer(db *persistence.DB, port int) *Server {
	return &Server{
		DB:      db,
		Port:    port,
		streams: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Observation is public and read-only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish makes a fresh snapshot visible to handlers and pushes it to
// websocket subscribers. Called from the tick goroutine.
func (s *Server) Publish(snap *sim.Snapshot) {
	s.snap.Store(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.streams {
		if err := conn.WriteJSON(snap); err != nil {
			conn.Close()
			delete(s.streams, conn)
		}
	}
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/villagers", s.handleVillagers)
	mux.HandleFunc("/api/v1/villager/", s.handleVillagerDetail)
	mux.HandleFunc("/api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("/api/v1/storage", s.handleStorage)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// current returns the latest snapshot, or nil before the first tick.
func (s *Server) current(w http.ResponseWriter) *sim.Snapshot {
	snap := s.snap.Load()
	if snap == nil {
		http.Error(w, "simulation warming up", http.StatusServiceUnavailable)
	}
	return snap
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}

// handleStatus returns the settlement-level overview.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	writeJSON(w, map[string]any{
		"tick":          snap.Tick,
		"time":          snap.Time,
		"night":         snap.Night,
		"population":    snap.Population,
		"storage":       snap.Storage,
		"jobs_pending":  snap.JobsPending,
		"jobs_assigned": snap.JobsAssigned,
		"buildings":     len(snap.Buildings),
	})
}

func (s *Server) handleVillagers(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	writeJSON(w, snap.Villagers)
}

// handleVillagerDetail serves GET /api/v1/villager/:id.
func (s *Server) handleVillagerDetail(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/villager/")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "bad villager id", http.StatusBadRequest)
		return
	}
	for i := range snap.Villagers {
		if snap.Villagers[i].ID == villager.ID(id) {
			writeJSON(w, snap.Villagers[i])
			return
		}
	}
	http.Error(w, "no such villager", http.StatusNotFound)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	writeJSON(w, snap.Buildings)
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	writeJSON(w, snap.Storage)
}

// handleEvents serves the persisted event log, newest first.
// ?limit=N caps the result (default 50, max 500).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	if s.DB == nil {
		// No persistence wired; fall back to the in-memory ring.
		snap := s.current(w)
		if snap == nil {
			return
		}
		events := snap.Events
		if len(events) > limit {
			events = events[len(events)-limit:]
		}
		writeJSON(w, events)
		return
	}

	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		http.Error(w, "event query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

// handleStream upgrades to a websocket and pushes every published snapshot
// until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	if snap := s.snap.Load(); snap != nil {
		if err := conn.WriteJSON(snap); err != nil {
			conn.Close()
			return
		}
	}

	s.mu.Lock()
	s.streams[conn] = struct{}{}
	n := len(s.streams)
	s.mu.Unlock()
	slog.Info("stream subscriber connected", "subscribers", n)

	// Drain (and discard) client frames so pings and closes are handled.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.streams, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

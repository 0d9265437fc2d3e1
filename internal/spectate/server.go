// Package spectate serves a read-only HTTP and WebSocket view of running matches.
package spectate

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
	"github.com/hailam/chessmind/internal/storage"
)

// History is the part of the match store the server reads.
type History interface {
	ListMatches() ([]storage.MatchRecord, error)
	LoadStats() (*storage.Stats, error)
}

type positionDTO struct {
	Board    []string `json:"board"` // 64 FEN letters from a1 to h8, "" for empty
	Turn     string   `json:"turn"`
	LastMove string   `json:"last_move,omitempty"`
	Status   string   `json:"status"`
	Ply      int      `json:"ply"`
	FEN      string   `json:"fen"`
}

func positionFromSnapshot(s rules.Snapshot) positionDTO {
	board := make([]string, len(s.Squares))
	for i, p := range s.Squares {
		board[i] = p.Letter()
	}
	return positionDTO{
		Board:    board,
		Turn:     s.Turn.String(),
		LastMove: s.LastMove,
		Status:   s.Status.String(),
		Ply:      s.Ply,
		FEN:      s.FEN,
	}
}

type cacheDTO struct {
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

// Server exposes the latest position, cache statistics and match history.
type Server struct {
	hub     *Hub
	caches  []*engine.TranspositionCache
	history History

	mu     sync.RWMutex
	latest *positionDTO
}

// NewServer creates a server. history may be nil when nothing is persisted.
func NewServer(hub *Hub, history History, caches ...*engine.TranspositionCache) *Server {
	return &Server{hub: hub, caches: caches, history: history}
}

// Publish records snap as the current position and pushes it to spectators. It matches
// match.Subscriber.
func (s *Server) Publish(snap rules.Snapshot) {
	dto := positionFromSnapshot(snap)
	s.mu.Lock()
	s.latest = &dto
	s.mu.Unlock()
	s.hub.Broadcast("position", dto)
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/position", s.handlePosition)
	r.Get("/api/cache", s.handleCache)
	r.Get("/api/matches", s.handleMatches)
	r.Get("/api/stats", s.handleStats)
	r.Get("/ws", s.serveWS)
	return r
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no match in progress"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	out := make([]cacheDTO, 0, len(s.caches))
	for _, c := range s.caches {
		out = append(out, cacheDTO{Entries: c.Len(), HitRate: c.HitRate()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []storage.MatchRecord{})
		return
	}
	records, err := s.history.ListMatches()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, storage.Stats{})
		return
	}
	stats, err := s.history.LoadStats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{send: make(chan []byte, clientQueue)}
	s.hub.Register(client)

	s.mu.RLock()
	if s.latest != nil {
		client.sendJSON(wsMessage{Type: "position", Payload: mustMarshal(s.latest)})
	}
	s.mu.RUnlock()

	go func() {
		defer conn.Close()
		if err := writeWithHeartbeat(conn, client.send); err != nil {
			log.Debug().Err(err).Msg("spectator disconnected")
		}
	}()

	// Spectators only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Unregister(client)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

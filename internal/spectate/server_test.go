package spectate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/rules"
	"github.com/hailam/chessmind/internal/storage"
)

type fakeHistory struct {
	records []storage.MatchRecord
}

func (f *fakeHistory) ListMatches() ([]storage.MatchRecord, error) { return f.records, nil }
func (f *fakeHistory) LoadStats() (*storage.Stats, error) {
	return &storage.Stats{GamesPlayed: len(f.records)}, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx.Done())

	cache := engine.NewTranspositionCache(0)
	cache.Put("k", 1, 1)
	history := &fakeHistory{records: []storage.MatchRecord{{White: "a", Black: "b", Result: "1-0"}}}
	srv := NewServer(hub, history, cache)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestAPI(t *testing.T) {
	srv, ts := newTestServer(t)

	var ping map[string]bool
	if code := getJSON(t, ts.URL+"/api/ping", &ping); code != http.StatusOK || !ping["ok"] {
		t.Errorf("ping: %d %v", code, ping)
	}

	if code := getJSON(t, ts.URL+"/api/position", nil); code != http.StatusNotFound {
		t.Errorf("position before any match: %d", code)
	}
	srv.Publish(rules.NewGame().Snapshot())
	var pos positionDTO
	if code := getJSON(t, ts.URL+"/api/position", &pos); code != http.StatusOK {
		t.Fatalf("position: %d", code)
	}
	if pos.Turn != "white" || pos.Board[4] != "K" || pos.Status != "*" || len(pos.Board) != 64 {
		t.Errorf("position = %+v", pos)
	}

	var caches []cacheDTO
	getJSON(t, ts.URL+"/api/cache", &caches)
	if len(caches) != 1 || caches[0].Entries != 1 {
		t.Errorf("cache = %+v", caches)
	}

	var matches []storage.MatchRecord
	getJSON(t, ts.URL+"/api/matches", &matches)
	if len(matches) != 1 || matches[0].Result != "1-0" {
		t.Errorf("matches = %+v", matches)
	}

	var stats storage.Stats
	getJSON(t, ts.URL+"/api/stats", &stats)
	if stats.GamesPlayed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWebSocketFeed(t *testing.T) {
	srv, ts := newTestServer(t)
	g := rules.NewGame()
	srv.Publish(g.Snapshot())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	read := func() positionDTO {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "position" {
			t.Fatalf("message type %q", msg.Type)
		}
		var dto positionDTO
		if err := json.Unmarshal(msg.Payload, &dto); err != nil {
			t.Fatal(err)
		}
		return dto
	}

	if first := read(); first.Ply != 0 {
		t.Errorf("initial ply = %d", first.Ply)
	}

	// Registration happens before the initial message is queued, so later broadcasts reach us.
	if err := g.ApplyUCI("e2e4"); err != nil {
		t.Fatal(err)
	}
	srv.Publish(g.Snapshot())
	if next := read(); next.LastMove != "e2e4" || next.Turn != "black" {
		t.Errorf("broadcast = %+v", next)
	}
}

func TestUnregisterClosesQueue(t *testing.T) {
	hub := NewHub()
	c := &Client{send: make(chan []byte, 1)}
	hub.Register(c)
	if hub.Len() != 1 {
		t.Fatalf("Len = %d", hub.Len())
	}
	hub.Unregister(c)
	hub.Unregister(c)
	if _, ok := <-c.send; ok {
		t.Errorf("send channel still open")
	}
	if hub.Len() != 0 {
		t.Errorf("Len = %d", hub.Len())
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tictactoe/internal/game"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, botDelay time.Duration) *Server {
	t.Helper()
	s, err := New(Config{
		BotFallbackAfter: botDelay,
		ReconnectWindow:  time.Minute,
		Difficulty:       10,
		Seed:             7,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func postMove(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/move", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, time.Second)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestSuggestMove(t *testing.T) {
	s := newTestServer(t, time.Second)
	rec := postMove(t, s.Handler(), `{"board":["OO.",".X.","..."],"mark":"X"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var got suggestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := suggestResponse{Key: 3, Row: 0, Col: 2, Tactic: "block"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestSuggestMoveBaselineAgent(t *testing.T) {
	s := newTestServer(t, time.Second)
	rec := postMove(t, s.Handler(), `{"board":["X..","...","..."],"mark":"o","agent":"baseline"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var got suggestResponse
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Tactic != "random" || got.Key < 2 || got.Key > 9 {
		t.Fatalf("got %+v", got)
	}
}

func TestSuggestMoveErrors(t *testing.T) {
	s := newTestServer(t, time.Second)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"board":`, http.StatusBadRequest},
		{"missing mark", `{"board":["..."]}`, http.StatusBadRequest},
		{"ragged board", `{"board":["...",".."],"mark":"X"}`, http.StatusBadRequest},
		{"bad mark", `{"board":["...","...","..."],"mark":"Z"}`, http.StatusBadRequest},
		{"unknown agent", `{"board":["...","...","..."],"mark":"X","agent":"deep"}`, http.StatusBadRequest},
		{"full board", `{"board":["XOX","XOO","OXX"],"mark":"X"}`, http.StatusConflict},
		{"board too large", oversizedBoard(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postMove(t, s.Handler(), tt.body); rec.Code != tt.code {
				t.Fatalf("status %d want %d: %s", rec.Code, tt.code, rec.Body)
			}
		})
	}
}

func oversizedBoard() string {
	rows := make([]string, game.MaxBoardSize+1)
	for i := range rows {
		rows[i] = strings.Repeat(".", game.MaxBoardSize+1)
	}
	body, _ := json.Marshal(map[string]any{"board": rows, "mark": "X"})
	return string(body)
}

func TestLeaderboardStartsEmpty(t *testing.T) {
	s := newTestServer(t, time.Second)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("leaderboard = %d %s", rec.Code, rec.Body)
	}
}

func TestGetGame(t *testing.T) {
	s := newTestServer(t, time.Second)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing game status %d", rec.Code)
	}

	g, err := s.Manager().StartBotGame("alice", 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/"+g.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		GameID string   `json:"gameId"`
		Board  []string `json:"board"`
		Turn   string   `json:"turn"`
		Status string   `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.GameID != g.ID || body.Turn != "X" || body.Status != "active" || len(body.Board) != 3 {
		t.Fatalf("body = %+v", body)
	}
}

func TestWebSocketRejectsBadQuery(t *testing.T) {
	s := newTestServer(t, time.Second)
	for _, q := range []string{"", "?username=bot", "?username=a&difficulty=20", "?username=a&size=1000000", "?username=a&size=0", "?username=a&size=x"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: status %d", q, rec.Code)
		}
	}
}

func readType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg["type"] == want {
			return msg
		}
	}
}

func TestWebSocketBotGame(t *testing.T) {
	s := newTestServer(t, 20*time.Millisecond)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?username=alice&size=3&difficulty=10"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	readType(t, conn, "waiting")
	hello := readType(t, conn, "init")
	if hello["mark"] != "X" || hello["opponent"] != "bot" {
		t.Fatalf("init = %v", hello)
	}

	if err := conn.WriteJSON(map[string]any{"type": "move", "key": 1}); err != nil {
		t.Fatal(err)
	}
	human := readType(t, conn, "state")
	if human["lastMove"] != float64(1) {
		t.Fatalf("first state = %v", human)
	}
	bot := readType(t, conn, "state")
	if bot["tactic"] == nil || bot["turn"] != "X" {
		t.Fatalf("bot state = %v", bot)
	}
	key, _ := bot["lastMove"].(float64)
	if key < 2 || key > 9 {
		t.Fatalf("bot played %v", bot["lastMove"])
	}
}

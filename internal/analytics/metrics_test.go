package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"tictactoe/internal/game"
)

// decode round-trips an envelope so payload values carry JSON types, the
// way the consumer sees them.
func decode(t *testing.T, event string, payload map[string]any) Envelope {
	t.Helper()
	data, err := json.Marshal(Envelope{Event: event, Payload: payload, Timestamp: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	return env
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Record(decode(t, EventGameFinished, map[string]any{
		"gameId": "g1", "winner": "alice", "duration": 30.0, "size": 3,
		"players": []string{"alice", game.BotName},
	}))
	m.Record(decode(t, EventGameFinished, map[string]any{
		"gameId": "g2", "winner": "", "duration": 10.0, "size": 4,
		"players": []string{"alice", "bob"},
	}))
	m.Record(decode(t, EventMovePlayed, map[string]any{"gameId": "g1", "key": 5}))
	m.Record(decode(t, EventBotDecision, map[string]any{"gameId": "g1", "tactic": "block"}))
	m.Record(decode(t, EventBotDecision, map[string]any{"gameId": "g1", "tactic": "block"}))
	m.Record(decode(t, EventBotDecision, map[string]any{"gameId": "g1"}))
	m.Record(decode(t, "unknown", nil))

	games, draws, moves := m.Totals()
	if games != 2 || draws != 1 || moves != 1 {
		t.Fatalf("totals = %d games, %d draws, %d moves", games, draws, moves)
	}
	if got := m.AverageDuration(); got != 20 {
		t.Fatalf("average duration = %v", got)
	}
	if wins := m.Wins(); wins["alice"] != 1 || len(wins) != 1 {
		t.Fatalf("wins = %v", wins)
	}
	if tactics := m.TacticCounts(); tactics["block"] != 2 || len(tactics) != 1 {
		t.Fatalf("tactics = %v", tactics)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userGames["alice"] != 2 || m.userGames[game.BotName] != 0 || m.userGames["bob"] != 1 {
		t.Fatalf("user games = %v", m.userGames)
	}
	if m.boardSizes[3] != 1 || m.boardSizes[4] != 1 {
		t.Fatalf("board sizes = %v", m.boardSizes)
	}
	if m.gamesPerDay["2024-05-01"] != 2 || m.gamesPerHour["2024-05-01 14:00"] != 2 {
		t.Fatalf("per day %v per hour %v", m.gamesPerDay, m.gamesPerHour)
	}
}

func TestAverageDurationEmpty(t *testing.T) {
	if got := NewMetrics().AverageDuration(); got != 0 {
		t.Fatalf("average of nothing = %v", got)
	}
}

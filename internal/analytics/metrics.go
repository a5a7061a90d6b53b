package analytics

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"tictactoe/internal/game"
)

// Metrics aggregates events read back from the topic.
type Metrics struct {
	mu            sync.Mutex
	winnerCounts  map[string]int
	gameDurations []float64
	gamesPerDay   map[string]int
	gamesPerHour  map[string]int
	userGames     map[string]int
	tacticCounts  map[string]int
	boardSizes    map[int]int
	totalGames    int
	draws         int
	moves         int
}

func NewMetrics() *Metrics {
	return &Metrics{
		winnerCounts: make(map[string]int),
		gamesPerDay:  make(map[string]int),
		gamesPerHour: make(map[string]int),
		userGames:    make(map[string]int),
		tacticCounts: make(map[string]int),
		boardSizes:   make(map[int]int),
	}
}

// Record folds one envelope into the totals.
func (m *Metrics) Record(e Envelope) {
	switch e.Event {
	case EventGameFinished:
		m.recordGameFinished(e.Payload, e.Timestamp)
	case EventBotDecision:
		m.recordDecision(e.Payload)
	case EventMovePlayed:
		m.mu.Lock()
		m.moves++
		m.mu.Unlock()
	}
}

func (m *Metrics) recordGameFinished(payload map[string]any, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalGames++

	if winner, ok := payload["winner"].(string); ok && winner != "" {
		m.winnerCounts[winner]++
	} else {
		m.draws++
	}

	if duration, ok := payload["duration"].(float64); ok {
		m.gameDurations = append(m.gameDurations, duration)
	}

	// JSON numbers decode as float64.
	if size, ok := payload["size"].(float64); ok {
		m.boardSizes[int(size)]++
	}

	m.gamesPerDay[timestamp.Format("2006-01-02")]++
	m.gamesPerHour[timestamp.Format("2006-01-02 15:00")]++

	if players, ok := payload["players"].([]any); ok {
		for _, p := range players {
			if username, ok := p.(string); ok && username != game.BotName {
				m.userGames[username]++
			}
		}
	}
}

func (m *Metrics) recordDecision(payload map[string]any) {
	tactic, ok := payload["tactic"].(string)
	if !ok || tactic == "" {
		return
	}
	m.mu.Lock()
	m.tacticCounts[tactic]++
	m.mu.Unlock()
}

func (m *Metrics) AverageDuration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.averageDurationLocked()
}

func (m *Metrics) averageDurationLocked() float64 {
	if len(m.gameDurations) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range m.gameDurations {
		sum += d
	}
	return sum / float64(len(m.gameDurations))
}

func (m *Metrics) TacticCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.tacticCounts)
}

func (m *Metrics) Wins() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.winnerCounts)
}

func (m *Metrics) Totals() (games, draws, moves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalGames, m.draws, m.moves
}

func (m *Metrics) Log(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("analytics summary",
		"totalGames", m.totalGames,
		"draws", m.draws,
		"movesPlayed", m.moves,
		"avgDurationSec", m.averageDurationLocked(),
		"winners", m.winnerCounts,
		"boardSizes", m.boardSizes,
		"tactics", m.tacticCounts,
		"gamesPerDay", m.gamesPerDay,
		"gamesPerHour", m.gamesPerHour,
		"userGames", m.userGames,
	)
}

package storage

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CompletedGame struct {
	ID        string
	Winner    string
	Status    string
	BoardSize int
	Moves     []int
	StartedAt time.Time
	EndedAt   time.Time
}

type LeaderboardRow struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

type Store interface {
	SaveGame(ctx context.Context, game CompletedGame) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// PostgresStore is safe for concurrent use: finish hooks run in their own
// goroutines while leaderboard requests read.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, url string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	winner TEXT,
	status TEXT,
	board_size INTEGER NOT NULL DEFAULT 3,
	moves TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMP,
	ended_at TIMESTAMP
);
`)
	return err
}

func (p *PostgresStore) SaveGame(ctx context.Context, game CompletedGame) error {
	if p == nil || p.pool == nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO games (id, winner, status, board_size, moves, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (id) DO NOTHING`,
		game.ID, game.Winner, game.Status, game.BoardSize, EncodeMoves(game.Moves), game.StartedAt, game.EndedAt)
	if err != nil {
		p.logger.Error("failed to save game", "gameId", game.ID, "err", err)
	}
	return err
}

func (p *PostgresStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT winner, COUNT(*) as wins
FROM games
WHERE winner IS NOT NULL AND winner <> ''
GROUP BY winner
ORDER BY wins DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Wins); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// EncodeMoves stores a move history as comma separated keys.
func EncodeMoves(moves []int) string {
	parts := make([]string, len(moves))
	for i, k := range moves {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, ",")
}

func DecodeMoves(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	moves := make([]int, len(parts))
	for i, part := range parts {
		k, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		moves[i] = k
	}
	return moves, nil
}

// MemoryStore keeps finished games in process when no database is set.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]CompletedGame
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]CompletedGame)}
}

func (m *MemoryStore) SaveGame(_ context.Context, game CompletedGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[game.ID]; ok {
		return nil
	}
	game.Moves = slices.Clone(game.Moves)
	m.games[game.ID] = game
	return nil
}

func (m *MemoryStore) GetLeaderboard(_ context.Context, limit int) ([]LeaderboardRow, error) {
	m.mu.Lock()
	wins := make(map[string]int)
	for _, g := range m.games {
		if g.Winner != "" {
			wins[g.Winner]++
		}
	}
	m.mu.Unlock()

	res := make([]LeaderboardRow, 0, len(wins))
	for name, n := range wins {
		res = append(res, LeaderboardRow{Username: name, Wins: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Wins != res[j].Wins {
			return res[i].Wins > res[j].Wins
		}
		return res[i].Username < res[j].Username
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

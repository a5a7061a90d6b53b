package game

import (
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// BotName is the username the bot plays under.
const BotName = "bot"

var ErrGameNotFound = errors.New("game not found")

type GameState struct {
	ID           string
	Board        *Board
	Status       string
	Winner       string
	WinnerMark   Mark
	StartedAt    time.Time
	EndedAt      time.Time
	Turn         Mark
	LastMoveAt   time.Time
	Players      map[string]*Player
	Bot          *Bot
	LastDecision *Decision
}

type Player struct {
	Username string
	Mark     Mark
	IsBot    bool
}

type Move struct {
	Username string
	GameID   string
	Key      int
}

// ManagerConfig holds the defaults new games are created with.
type ManagerConfig struct {
	ReconnectWindow time.Duration
	BoardSize       int
	Difficulty      int
	Rand            *Rand
	Logger          *slog.Logger
}

type Manager struct {
	mu             sync.RWMutex
	waiting        *Player
	games          map[string]*GameState
	userToGame     map[string]string
	reconnectAfter time.Duration
	boardSize      int
	difficulty     int
	rng            *Rand
	logger         *slog.Logger
	onFinish       func(*GameState)
}

func NewManager(cfg ManagerConfig, onFinish func(*GameState)) (*Manager, error) {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = DefaultBoardSize
	}
	if cfg.BoardSize < 0 || cfg.BoardSize > MaxBoardSize {
		return nil, ErrInvalidBoardSize
	}
	if cfg.Difficulty < MinDifficulty || cfg.Difficulty > MaxDifficulty {
		return nil, ErrInvalidDifficulty
	}
	if cfg.Rand == nil {
		cfg.Rand = NewRand(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		games:          make(map[string]*GameState),
		userToGame:     make(map[string]string),
		reconnectAfter: cfg.ReconnectWindow,
		boardSize:      cfg.BoardSize,
		difficulty:     cfg.Difficulty,
		rng:            cfg.Rand,
		logger:         cfg.Logger,
		onFinish:       onFinish,
	}, nil
}

// AssignPlayer joins a running game, pairs the user with the waiting
// player, or parks the user as the waiting player.
func (m *Manager) AssignPlayer(username string) (*GameState, *Player, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g := m.activeGameLocked(username); g != nil {
		return g.clone(), g.Players[username], false, nil
	}

	player := &Player{Username: username, Mark: MarkX}
	if m.waiting == nil || m.waiting.Username == username {
		m.waiting = player
		return nil, player, true, nil
	}

	board, err := NewBoard(m.boardSize)
	if err != nil {
		return nil, nil, false, err
	}
	opponent := m.waiting
	m.waiting = nil
	now := time.Now()
	g := &GameState{
		ID:         uuid.NewString(),
		Board:      board,
		Status:     StatusActive,
		Turn:       MarkX,
		StartedAt:  now,
		LastMoveAt: now,
		Players: map[string]*Player{
			opponent.Username: opponent,
			username:          {Username: username, Mark: MarkO},
		},
	}
	m.games[g.ID] = g
	m.userToGame[username] = g.ID
	m.userToGame[opponent.Username] = g.ID
	m.logger.Info("game started", "gameId", g.ID, "x", opponent.Username, "o", username, "size", m.boardSize)
	return g.clone(), g.Players[username], false, nil
}

// StartBotGame pairs a human with the bot. The human plays X and moves
// first. Zero size or a negative difficulty fall back to the manager
// defaults.
func (m *Manager) StartBotGame(human string, size, difficulty int) (*GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g := m.activeGameLocked(human); g != nil {
		return g.clone(), nil
	}
	if size == 0 {
		size = m.boardSize
	}
	if difficulty < 0 {
		difficulty = m.difficulty
	}
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	bot, err := NewBot(MarkO, difficulty, m.rng, m.logger)
	if err != nil {
		return nil, err
	}
	if m.waiting != nil && m.waiting.Username == human {
		m.waiting = nil
	}

	now := time.Now()
	g := &GameState{
		ID:         uuid.NewString(),
		Board:      board,
		Status:     StatusActive,
		Turn:       MarkX,
		StartedAt:  now,
		LastMoveAt: now,
		Players: map[string]*Player{
			human:   {Username: human, Mark: MarkX},
			BotName: {Username: BotName, Mark: MarkO, IsBot: true},
		},
		Bot: bot,
	}
	m.games[g.ID] = g
	m.userToGame[human] = g.ID
	m.logger.Info("bot game started", "gameId", g.ID, "user", human, "size", size, "difficulty", difficulty)
	return g.clone(), nil
}

func (m *Manager) HandleMove(move Move) (MoveResult, *GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(move)
}

// PlayBotTurn lets the bot move if it is its turn in an active game.
func (m *Manager) PlayBotTurn(gameID string) (Decision, MoveResult, *GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return Decision{}, MoveResult{}, nil, ErrGameNotFound
	}
	if g.Status == StatusFinished {
		return Decision{}, MoveResult{}, g.clone(), ErrGameFinished
	}
	if g.Bot == nil || g.Turn != g.Bot.Player {
		return Decision{}, MoveResult{}, g.clone(), ErrInvalidTurn
	}
	d, err := g.Bot.ChooseMove(g.Board.Snapshot())
	if err != nil {
		return Decision{}, MoveResult{}, g.clone(), err
	}
	g.LastDecision = &d
	res, view, err := m.applyLocked(Move{Username: BotName, GameID: gameID, Key: d.Key})
	return d, res, view, err
}

func (m *Manager) applyLocked(move Move) (MoveResult, *GameState, error) {
	g, ok := m.games[move.GameID]
	if !ok {
		return MoveResult{}, nil, ErrGameNotFound
	}
	if g.Status == StatusFinished {
		return MoveResult{}, g.clone(), ErrGameFinished
	}
	player, ok := g.Players[move.Username]
	if !ok || g.Turn != player.Mark {
		return MoveResult{}, g.clone(), ErrInvalidTurn
	}
	res, err := g.Board.Put(move.Key, player.Mark)
	if err != nil {
		return MoveResult{}, g.clone(), err
	}
	g.LastMoveAt = time.Now()
	switch {
	case res.Winner != Empty:
		g.Winner = move.Username
		g.WinnerMark = res.Winner
		m.finishLocked(g, g.LastMoveAt)
	case res.IsDraw:
		m.finishLocked(g, g.LastMoveAt)
	default:
		g.Turn = g.Turn.Opponent()
	}
	return res, g.clone(), nil
}

func (m *Manager) finishLocked(g *GameState, at time.Time) {
	g.Status = StatusFinished
	g.EndedAt = at
	m.logger.Info("game finished", "gameId", g.ID, "winner", g.Winner, "moves", len(g.Board.Moves()))
	if m.onFinish != nil {
		go m.onFinish(g.clone())
	}
}

func (m *Manager) activeGameLocked(username string) *GameState {
	if gid, ok := m.userToGame[username]; ok {
		if g, exists := m.games[gid]; exists && g.Status != StatusFinished {
			return g
		}
	}
	return nil
}

func (m *Manager) GetGame(gameID string) (*GameState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, false
	}
	return g.clone(), true
}

// GameForUser returns active game id for a username or fallback.
func (m *Manager) GameForUser(username, fallback string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.userToGame[username]; ok {
		return id
	}
	return fallback
}

// GetGameByUser retrieves a game using username if present.
func (m *Manager) GetGameByUser(username string) (*GameState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.userToGame[username]; ok {
		if g, exists := m.games[id]; exists {
			return g.clone(), true
		}
	}
	return nil, false
}

func (m *Manager) Abandon(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userToGame, username)
	if m.waiting != nil && m.waiting.Username == username {
		m.waiting = nil
	}
}

// MarkDisconnected updates last seen time so sweeper can forfeit
// after the reconnect window.
func (m *Manager) MarkDisconnected(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g := m.activeGameLocked(username); g != nil {
		g.LastMoveAt = time.Now()
	}
}

// SweepDisconnects forfeits games idle past the reconnect window and
// returns how many it closed.
func (m *Manager) SweepDisconnects(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	swept := 0
	for id, g := range m.games {
		if g.Status != StatusFinished && now.Sub(g.LastMoveAt) > m.reconnectAfter {
			g.Winner = remainingPlayer(g)
			if p, ok := g.Players[g.Winner]; ok {
				g.WinnerMark = p.Mark
			}
			m.logger.Info("game forfeited due to timeout", "gameId", id)
			m.finishLocked(g, now)
			swept++
		}
	}
	return swept
}

// remainingPlayer credits the forfeit to the side that did not stall: the
// player whose turn it is not.
func remainingPlayer(g *GameState) string {
	for name, p := range g.Players {
		if p.Mark != g.Turn {
			return name
		}
	}
	return BotName
}

func (g *GameState) clone() *GameState {
	c := *g
	board := *g.Board
	board.moves = g.Board.Moves()
	c.Board = &board
	c.Players = maps.Clone(g.Players)
	if g.LastDecision != nil {
		d := *g.LastDecision
		c.LastDecision = &d
	}
	return &c
}

// Opponent returns the other participant's username.
func (g *GameState) Opponent(username string) string {
	for name := range g.Players {
		if name != username {
			return name
		}
	}
	return ""
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tictactoe/internal/analytics"
	"tictactoe/internal/game"
	"tictactoe/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	router          *gin.Engine
	manager         *game.Manager
	agents          map[game.Kind]*game.Agent
	store           storage.Store
	analytics       *analytics.Producer
	logger          *slog.Logger
	connections     map[string]*wsClient
	connMu          sync.RWMutex
	botDelay        time.Duration
	reconnectWindow time.Duration
}

type Config struct {
	BotFallbackAfter time.Duration
	ReconnectWindow  time.Duration
	BoardSize        int
	Difficulty       int
	Seed             int64
	Store            storage.Store
	Analytics        *analytics.Producer
	Logger           *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	rng := game.NewRand(cfg.Seed)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	s := &Server{
		router:          router,
		agents:          make(map[game.Kind]*game.Agent),
		store:           cfg.Store,
		analytics:       cfg.Analytics,
		logger:          cfg.Logger,
		connections:     make(map[string]*wsClient),
		botDelay:        cfg.BotFallbackAfter,
		reconnectWindow: cfg.ReconnectWindow,
	}
	manager, err := game.NewManager(game.ManagerConfig{
		ReconnectWindow: cfg.ReconnectWindow,
		BoardSize:       cfg.BoardSize,
		Difficulty:      cfg.Difficulty,
		Rand:            rng,
		Logger:          cfg.Logger,
	}, s.onFinish)
	if err != nil {
		return nil, err
	}
	s.manager = manager
	for _, kind := range []game.Kind{game.KindBaseline, game.KindStrategic} {
		agent, err := game.NewAgent(kind, rng, cfg.Logger)
		if err != nil {
			return nil, err
		}
		s.agents[kind] = agent
	}

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/leaderboard", s.handleLeaderboard)
	router.POST("/api/move", s.handleSuggestMove)
	router.GET("/api/games/:id", s.handleGetGame)
	router.GET("/ws", s.handleWS)
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Tic-Tac-Toe server.\nPlay: ws://<host>/ws?username=<name>&size=3&difficulty=10\nSuggest: POST /api/move\n")
	})

	return s, nil
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Manager() *game.Manager { return s.manager }

func (s *Server) Run(ctx context.Context, addr string) error {
	go s.sweeper(ctx)
	srv := &http.Server{Addr: addr, Handler: s.router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweeper(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.manager.SweepDisconnects(now)
		}
	}
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	rows, err := s.store.GetLeaderboard(c.Request.Context(), 10)
	if err != nil {
		s.logger.Error("leaderboard query failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	if rows == nil {
		rows = []storage.LeaderboardRow{}
	}
	c.JSON(http.StatusOK, rows)
}

type suggestRequest struct {
	Board []string `json:"board" binding:"required"`
	Mark  string   `json:"mark" binding:"required"`
	Agent string   `json:"agent"`
}

type suggestResponse struct {
	Key    int         `json:"key"`
	Row    int         `json:"row"`
	Col    int         `json:"col"`
	Tactic game.Tactic `json:"tactic"`
}

// handleSuggestMove runs an agent against a posted position without
// touching any live game.
func (s *Server) handleSuggestMove(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := game.ParseSnapshot(req.Board)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mark, err := game.ParseMark(req.Mark)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := game.ParseKind(req.Agent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := s.agents[kind].SelectNextMove(snap, mark)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, game.ErrBoardFull) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	row, col := game.ToCoordinates(d.Key, snap.Size())
	c.JSON(http.StatusOK, suggestResponse{Key: d.Key, Row: row, Col: col, Tactic: d.Tactic})
}

func (s *Server) handleGetGame(c *gin.Context) {
	g, ok := s.manager.GetGame(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrGameNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, statePayload(g))
}

type wsClient struct {
	username string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	server   *Server
	gameID   string
	size     int
	level    int
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(c *gin.Context) {
	username := c.Query("username")
	if username == "" || username == game.BotName {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	size := 0
	if v := c.Query("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > game.MaxBoardSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": game.ErrInvalidBoardSize.Error()})
			return
		}
		size = parsed
	}
	level := -1
	if v := c.Query("difficulty"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < game.MinDifficulty || parsed > game.MaxDifficulty {
			c.JSON(http.StatusBadRequest, gin.H{"error": game.ErrInvalidDifficulty.Error()})
			return
		}
		level = parsed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{
		username: username,
		conn:     conn,
		send:     make(chan []byte, 8),
		done:     make(chan struct{}),
		server:   s,
		gameID:   c.Query("gameId"),
		size:     size,
		level:    level,
	}
	s.register(client)

	go client.writePump()
	go client.readPump()
}

func (s *Server) register(c *wsClient) {
	s.connMu.Lock()
	s.connections[c.username] = c
	s.connMu.Unlock()
}

func (s *Server) unregister(c *wsClient) {
	s.connMu.Lock()
	if cur, ok := s.connections[c.username]; ok && cur == c {
		delete(s.connections, c.username)
	}
	s.connMu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) readPump() {
	defer c.server.unregister(c)
	s := c.server

	var gameState *game.GameState

	// Rejoin if gameId provided
	if c.gameID != "" {
		if g, ok := s.manager.GetGame(c.gameID); ok {
			if _, exists := g.Players[c.username]; exists {
				gameState = g
				s.pushInit(g, c.username)
			}
		}
	}
	if gameState == nil {
		g, _, waiting, err := s.manager.AssignPlayer(c.username)
		switch {
		case err != nil:
			c.sendJSON(map[string]any{"type": "error", "message": err.Error()})
			return
		case waiting:
			c.sendJSON(map[string]any{"type": "waiting", "message": "waiting for opponent"})
			time.AfterFunc(s.botDelay, func() {
				select {
				case <-c.done:
					return
				default:
				}
				// Only trigger if still unpaired
				if g, ok := s.manager.GetGameByUser(c.username); ok && g.Status != game.StatusFinished {
					return
				}
				g, err := s.manager.StartBotGame(c.username, c.size, c.level)
				if err != nil {
					c.sendJSON(map[string]any{"type": "error", "message": err.Error()})
					return
				}
				s.pushInit(g, c.username)
			})
		default:
			s.pushInit(g, c.username)
			if peer := g.Opponent(c.username); peer != "" {
				s.pushInit(g, peer)
			}
		}
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			s.manager.MarkDisconnected(c.username)
			return
		}
		var msg struct {
			Type string `json:"type"`
			Key  int    `json:"key"`
		}
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "move" {
			continue
		}
		move := game.Move{
			Username: c.username,
			GameID:   s.manager.GameForUser(c.username, c.gameID),
			Key:      msg.Key,
		}
		res, g, err := s.manager.HandleMove(move)
		if err != nil {
			c.sendJSON(map[string]any{"type": "error", "message": err.Error()})
			continue
		}
		s.broadcastState(g, res)
		if g.Bot != nil && g.Status == game.StatusActive && g.Turn == g.Bot.Player {
			s.playBotTurn(g.ID)
		}
	}
}

func statePayload(g *game.GameState) map[string]any {
	return map[string]any{
		"type":   "state",
		"gameId": g.ID,
		"size":   g.Board.Size(),
		"board":  g.Board.Snapshot().Rows(),
		"moves":  g.Board.Moves(),
		"turn":   g.Turn.String(),
		"status": g.Status,
		"winner": g.Winner,
	}
}

func (s *Server) pushInit(g *game.GameState, username string) {
	mark := ""
	if p, ok := g.Players[username]; ok {
		mark = p.Mark.String()
	}
	payload := statePayload(g)
	payload["type"] = "init"
	payload["you"] = username
	payload["mark"] = mark
	payload["opponent"] = g.Opponent(username)
	payload["timestamp"] = time.Now().UTC()
	s.sendToUser(username, payload)
}

func (s *Server) broadcastState(g *game.GameState, res game.MoveResult) {
	payload := statePayload(g)
	payload["lastMove"] = res.Key
	if len(res.Winning) > 0 {
		payload["winningLine"] = res.Winning
	}
	if g.LastDecision != nil && g.LastDecision.Key == res.Key {
		payload["tactic"] = g.LastDecision.Tactic
	}
	for uname, p := range g.Players {
		if p.IsBot {
			continue
		}
		s.sendToUser(uname, payload)
	}
	s.analytics.Publish(context.Background(), analytics.EventMovePlayed, map[string]any{
		"gameId":  g.ID,
		"key":     res.Key,
		"status":  g.Status,
		"winner":  g.Winner,
		"players": humanPlayers(g),
	})
}

func humanPlayers(g *game.GameState) []string {
	players := make([]string, 0, len(g.Players))
	for uname, p := range g.Players {
		if !p.IsBot {
			players = append(players, uname)
		}
	}
	return players
}

func (s *Server) sendToUser(username string, payload map[string]any) {
	s.connMu.RLock()
	client, ok := s.connections[username]
	s.connMu.RUnlock()
	if !ok {
		return
	}
	client.sendJSON(payload)
}

func (s *Server) onFinish(g *game.GameState) {
	ctx := context.Background()
	err := s.store.SaveGame(ctx, storage.CompletedGame{
		ID:        g.ID,
		Winner:    g.Winner,
		Status:    g.Status,
		BoardSize: g.Board.Size(),
		Moves:     g.Board.Moves(),
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	})
	if err != nil {
		s.logger.Warn("save game failed", "gameId", g.ID, "err", err)
	}
	players := make([]string, 0, len(g.Players))
	for uname := range g.Players {
		players = append(players, uname)
	}
	s.analytics.Publish(ctx, analytics.EventGameFinished, map[string]any{
		"gameId":    g.ID,
		"winner":    g.Winner,
		"status":    g.Status,
		"size":      g.Board.Size(),
		"moves":     len(g.Board.Moves()),
		"players":   players,
		"duration":  g.EndedAt.Sub(g.StartedAt).Seconds(),
		"startedAt": g.StartedAt,
		"endedAt":   g.EndedAt,
	})
}

func (s *Server) playBotTurn(gameID string) {
	d, res, g, err := s.manager.PlayBotTurn(gameID)
	if err != nil {
		s.logger.Warn("bot move failed", "gameId", gameID, "err", err)
		return
	}
	s.analytics.Publish(context.Background(), analytics.EventBotDecision, map[string]any{
		"gameId":     g.ID,
		"key":        d.Key,
		"tactic":     string(d.Tactic),
		"size":       g.Board.Size(),
		"difficulty": g.Bot.Difficulty,
	})
	s.broadcastState(g, res)
}

func (c *wsClient) sendJSON(v any) {
	data, _ := json.Marshal(v)
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

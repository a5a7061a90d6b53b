package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tictactoe/internal/analytics"
	"tictactoe/internal/game"
	"tictactoe/internal/server"
	"tictactoe/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(os.Getenv("LOG_LEVEL"))}))
	slog.SetDefault(logger)

	// Check for PORT first (used by Render, Fly.io, Heroku, etc.)
	port := os.Getenv("PORT")
	var addr string
	if port != "" {
		addr = ":" + port
	} else {
		addr = getEnv("ADDR", ":8080")
	}
	botDelay := durationEnv("BOT_DELAY", 10*time.Second)
	reconnect := durationEnv("RECONNECT_WINDOW", 30*time.Second)
	size := intEnv("BOARD_SIZE", game.DefaultBoardSize)
	difficulty := intEnv("BOT_DIFFICULTY", game.DefaultDifficulty)
	// RANDOM_SEED=0 (the default) seeds from the clock; any other value
	// makes bot play reproducible.
	seed := int64(intEnv("RANDOM_SEED", 0))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		pg, err := storage.NewPostgresStore(ctx, dsn, logger)
		if err != nil {
			logger.Warn("postgres disabled", "err", err)
		} else {
			if err := pg.EnsureTables(ctx); err != nil {
				logger.Warn("postgres ensure tables failed", "err", err)
			}
			defer pg.Close()
			store = pg
		}
	}

	var producer *analytics.Producer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnv("KAFKA_TOPIC", "game-events")
		producer = analytics.NewProducer(strings.Split(brokers, ","), topic, logger)
		defer producer.Close()
	}

	srv, err := server.New(server.Config{
		BotFallbackAfter: botDelay,
		ReconnectWindow:  reconnect,
		BoardSize:        size,
		Difficulty:       difficulty,
		Seed:             seed,
		Store:            store,
		Analytics:        producer,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger.Info("server listening", "addr", addr, "size", size, "difficulty", difficulty)
	if err := srv.Run(ctx, addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return time.Duration(parsed) * time.Second
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func logLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}

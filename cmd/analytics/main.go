package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"tictactoe/internal/analytics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	broker := getenv("KAFKA_BROKER", "localhost:9092")
	topic := getenv("KAFKA_TOPIC", "game-events")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: "analytics-consumer",
	})
	defer reader.Close()

	logger.Info("analytics consumer listening", "broker", broker, "topic", topic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := analytics.NewMetrics()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.Log(logger)
			}
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				metrics.Log(logger)
				return
			}
			logger.Error("read error", "err", err)
			os.Exit(1)
		}
		var e analytics.Envelope
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			logger.Warn("failed to unmarshal event", "err", err)
			continue
		}
		metrics.Record(e)
		logger.Debug("event", "event", e.Event, "gameId", e.Payload["gameId"], "winner", e.Payload["winner"], "tactic", e.Payload["tactic"])
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

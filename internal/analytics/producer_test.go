package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishKeysByGame(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, quietLogger())
	p.Publish(context.Background(), EventBotDecision, map[string]any{
		"gameId": "g-1",
		"key":    5,
		"tactic": "center",
	})

	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "g-1" {
		t.Fatalf("key = %q", msg.Key)
	}
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != EventBotDecision || env.Payload["tactic"] != "center" || env.Timestamp.IsZero() {
		t.Fatalf("envelope = %+v", env)
	}

	p.Close()
	if !w.closed {
		t.Fatal("writer not closed")
	}
}

func TestPublishSwallowsWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, quietLogger())
	p.Publish(context.Background(), EventMovePlayed, map[string]any{"key": 1})
	if len(w.msgs) != 0 {
		t.Fatal("message recorded despite error")
	}
}

func TestNilProducerIsNoop(t *testing.T) {
	if p := NewProducer(nil, "events", nil); p != nil {
		t.Fatal("producer without brokers should be nil")
	}
	var p *Producer
	p.Publish(context.Background(), EventGameFinished, nil)
	p.Close()
}

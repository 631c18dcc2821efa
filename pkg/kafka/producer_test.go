package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, "occupancy", "")

	msg, err := NewMessage().
		WithKey("prop-1").
		WithValue(map[string]string{"type": "booking.created"}).
		WithEventType("booking.created").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	got := w.msgs[0]
	if string(got.Key) != "prop-1" {
		t.Errorf("key = %q", got.Key)
	}
	if header(got, HeaderEventType) != "booking.created" {
		t.Errorf("event-type header = %q", header(got, HeaderEventType))
	}
	if header(got, HeaderEventID) == "" {
		t.Error("event id header was not generated")
	}
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{}, nil, "occupancy", "")

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("error = %v, want ErrEmptyKey", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("error = %v, want ErrEmptyValue", err)
	}
}

func TestProducer_ClosedProducer(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, "occupancy", "")

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !w.closed {
		t.Error("writer was not closed")
	}
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("v")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("error = %v, want ErrProducerClosed", err)
	}
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	w := &recordingWriter{err: writeErr}
	dlq := &recordingWriter{}
	p := NewProducerWithWriter(w, dlq, "occupancy", "occupancy-dlq")

	err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("v"), Headers: map[string]string{}})
	if !errors.Is(err, writeErr) {
		t.Fatalf("error = %v, want %v", err, writeErr)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("dlq received %d messages, want 1", len(dlq.msgs))
	}
	if header(dlq.msgs[0], HeaderOriginalTopic) != "occupancy" {
		t.Errorf("original-topic header = %q", header(dlq.msgs[0], HeaderOriginalTopic))
	}
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{}, nil, "occupancy", "")

	var order []string
	mw := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		}
	}
	p.Use(mw("first"))
	p.Use(mw("second"))

	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("v")}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware order = %v", order)
	}
}

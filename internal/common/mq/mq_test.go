package mq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestMemoryQueueDelivers(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	got := make(chan *Message, 2)
	handler := func(ctx context.Context, m *Message) error {
		got <- m
		return nil
	}
	if err := q.Subscribe(context.Background(), "scores", handler, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := q.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msg := NewMessage([]byte("ABC P1"))
	msg.SetHeader("country", "3")
	if err := q.Publish(context.Background(), "scores", msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case m := <-got:
		if string(m.Body) != "ABC P1" || m.ID != msg.ID {
			t.Fatalf("unexpected message %+v", m)
		}
		if v, _ := m.GetHeader("country"); v != "3" {
			t.Fatalf("expected header country=3, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected message to be delivered")
	}
}

func TestMemoryQueueRetriesThenDeadLetter(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	var attempts int32
	failing := func(ctx context.Context, m *Message) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("unavailable")
	}
	dead := make(chan *Message, 1)
	opts := &SubscribeOptions{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetterTopic: "scores.dead"}
	if err := q.Subscribe(context.Background(), "scores", failing, opts); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := q.Subscribe(context.Background(), "scores.dead", func(ctx context.Context, m *Message) error {
		dead <- m
		return nil
	}, nil); err != nil {
		t.Fatalf("subscribe dead letter: %v", err)
	}
	if err := q.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	msg := NewMessage([]byte("x"))
	msg.MaxRetries = 2
	if err := q.Publish(context.Background(), "scores", msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case m := <-dead:
		if n := atomic.LoadInt32(&attempts); n != 3 {
			t.Fatalf("expected 3 attempts, got %d", n)
		}
		if m.RetryCount != 3 {
			t.Fatalf("expected retry count 3, got %d", m.RetryCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected dead letter message")
	}
}

func TestMemoryQueueRejectsInvalid(t *testing.T) {
	q := NewMemoryQueue()
	if err := q.Publish(context.Background(), "", NewMessage(nil)); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if err := q.Subscribe(context.Background(), "t", nil, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
	_ = q.Close()
	if err := q.Publish(context.Background(), "t", NewMessage(nil)); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestKafkaMessageRoundTrip(t *testing.T) {
	msg := NewMessage([]byte("body"))
	msg.SetHeader("event", "scores")
	msg.RetryCount = 1
	km := toKafkaMessage("topic", msg)
	if km.Topic != "topic" || string(km.Key) != msg.ID {
		t.Fatalf("unexpected kafka message %+v", km)
	}
	back := fromKafkaMessage(kafka.Message{Key: km.Key, Value: km.Value, Headers: km.Headers, Time: km.Time})
	if back.ID != msg.ID || string(back.Body) != "body" {
		t.Fatalf("unexpected message %+v", back)
	}
	if back.RetryCount != 1 || back.MaxRetries != 3 {
		t.Fatalf("expected retry info preserved, got %d/%d", back.RetryCount, back.MaxRetries)
	}
	if v, _ := back.GetHeader("event"); v != "scores" {
		t.Fatalf("expected event header, got %q", v)
	}
	if !back.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("expected timestamp %v, got %v", msg.Timestamp, back.Timestamp)
	}
}

func TestNewKafkaQueueRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaQueue(KafkaConfig{}); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

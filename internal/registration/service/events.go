package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matholymp/internal/common/mq"
	"matholymp/pkg/utils/logger"

	"go.uber.org/zap"
)

// EventsTopic carries notifications of changes to scores and countries.
const EventsTopic = "registration.events"

const (
	EventScoresEntered  = "scores_entered"
	EventBoundariesSet  = "medal_boundaries_set"
	EventCountryRetired = "country_retired"
	EventRegistration   = "registration_changed"
)

// ChangeEvent is the body of a message on EventsTopic.
type ChangeEvent struct {
	Type      string    `json:"type"`
	CountryID int64     `json:"country_id,omitempty"`
	Problem   int       `json:"problem,omitempty"`
	Text      string    `json:"text,omitempty"`
	Time      time.Time `json:"time"`
}

// EventPublisher announces changes to other instances.
type EventPublisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// MQPublisher publishes change events to a message queue.
type MQPublisher struct {
	producer   mq.Producer
	topic      string
	maxElapsed time.Duration
}

func NewMQPublisher(producer mq.Producer, maxElapsed time.Duration) *MQPublisher {
	if maxElapsed <= 0 {
		maxElapsed = 10 * time.Second
	}
	return &MQPublisher{producer: producer, topic: EventsTopic, maxElapsed: maxElapsed}
}

func (p *MQPublisher) Publish(ctx context.Context, ev ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	msg := mq.NewMessage(body)
	msg.SetHeader("type", ev.Type)
	return mq.PublishWithRetry(ctx, p.producer, p.topic, msg, p.maxElapsed)
}

// publish drops the cached documents of this instance and then announces ev
// in the background, after the change has been committed. The request does
// not wait for the queue; a failed publish only delays other instances until
// their cached text expires.
func (s *Service) publish(ctx context.Context, ev ChangeEvent) {
	if ev.Time.IsZero() {
		ev.Time = s.now().UTC()
	}
	if err := s.invalidate(ctx); err != nil {
		logger.Warn(ctx, "invalidate cached documents failed", zap.Error(err))
	}
	if s.events == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.events.Publish(bg, ev); err != nil {
			logger.Error(bg, "publish change event failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}()
}

// Close waits for change events still being published, or for ctx to end.
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notifier receives change events, for example to push them to websocket
// clients.
type Notifier interface {
	Notify(ev ChangeEvent)
}

// ChangeHandler returns the consumer of EventsTopic: it drops cached
// documents and forwards the event to notifier, which may be nil.
func (s *Service) ChangeHandler(notifier Notifier) mq.HandlerFunc {
	return func(ctx context.Context, message *mq.Message) error {
		var ev ChangeEvent
		if err := json.Unmarshal(message.Body, &ev); err != nil {
			logger.Warn(ctx, "discard malformed change event", zap.String("id", message.ID), zap.Error(err))
			return nil
		}
		if err := s.invalidate(ctx); err != nil {
			return err
		}
		if notifier != nil {
			notifier.Notify(ev)
		}
		return nil
	}
}

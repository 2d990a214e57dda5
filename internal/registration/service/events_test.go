package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"matholymp/internal/common/mq"
)

type heldPublisher struct {
	release chan struct{}
	got     chan ChangeEvent
	ctxErr  chan error
}

func newHeldPublisher() *heldPublisher {
	return &heldPublisher{
		release: make(chan struct{}),
		got:     make(chan ChangeEvent, 1),
		ctxErr:  make(chan error, 1),
	}
}

func (p *heldPublisher) Publish(ctx context.Context, ev ChangeEvent) error {
	<-p.release
	p.ctxErr <- ctx.Err()
	p.got <- ev
	return nil
}

type recordingNotifier struct {
	events chan ChangeEvent
}

func (n *recordingNotifier) Notify(ev ChangeEvent) {
	n.events <- ev
}

func TestPublishDoesNotHoldRequest(t *testing.T) {
	env := newTestEnv(t)
	pub := newHeldPublisher()
	env.svc.events = pub

	ctx, cancel := context.WithCancel(env.admin())
	done := make(chan error, 1)
	go func() { done <- env.svc.SetRegistrationEnabled(ctx, false) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected registration change, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected request to return before the event is published")
	}
	cancel()
	close(pub.release)

	closeCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if err := env.svc.Close(closeCtx); err != nil {
		t.Fatalf("expected pending publish to finish, got %v", err)
	}
	if ev := <-pub.got; ev.Type != EventRegistration || ev.Time.IsZero() {
		t.Fatalf("unexpected event %+v", ev)
	}
	if err := <-pub.ctxErr; err != nil {
		t.Fatalf("expected publish context to outlive the request, got %v", err)
	}
}

func TestCloseStopsWaitingAtDeadline(t *testing.T) {
	env := newTestEnv(t)
	pub := newHeldPublisher()
	env.svc.events = pub
	defer close(pub.release)

	if err := env.svc.SetRegistrationEnabled(env.admin(), false); err != nil {
		t.Fatalf("expected registration change, got %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := env.svc.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestChangeEventsReachOtherInstances(t *testing.T) {
	env := newTestEnv(t)
	queue := mq.NewMemoryQueue()
	t.Cleanup(func() { _ = queue.Close() })
	notifier := &recordingNotifier{events: make(chan ChangeEvent, 1)}
	if err := queue.Subscribe(context.Background(), EventsTopic, env.svc.ChangeHandler(notifier), nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := queue.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	abc := env.createCountry(t, "ABC", "Alphabetia")
	env.svc.events = NewMQPublisher(queue, time.Second)
	if err := env.svc.RetireCountry(env.admin(), abc); err != nil {
		t.Fatalf("retire country: %v", err)
	}
	select {
	case ev := <-notifier.events:
		if ev.Type != EventCountryRetired || ev.CountryID != abc {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected retirement to be announced")
	}
}

func TestChangeHandlerDiscardsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{events: make(chan ChangeEvent, 1)}
	handler := env.svc.ChangeHandler(notifier)
	if err := handler(context.Background(), mq.NewMessage([]byte("{"))); err != nil {
		t.Fatalf("expected malformed event to be dropped, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notification")
	}
}

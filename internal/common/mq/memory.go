package mq

import (
	"context"
	"errors"
	"sync"
)

// MemoryQueue is an in-process MessageQueue. Every subscription receives
// every message published to its topic after it subscribed. It serves
// single-instance deployments and tests.
type MemoryQueue struct {
	mu      sync.RWMutex
	subs    map[string][]*memorySubscription
	started bool
	closed  bool
}

type memorySubscription struct {
	handler HandlerFunc
	opts    SubscribeOptions
	ch      chan *Message
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	wg      sync.WaitGroup
	queue   *MemoryQueue
}

const memoryBuffer = 256

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{subs: make(map[string][]*memorySubscription)}
}

func (q *MemoryQueue) Publish(ctx context.Context, topic string, message *Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	if topic == "" {
		return errors.New("topic is required")
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	for _, sub := range q.subs[topic] {
		m := cloneMessage(message)
		select {
		case sub.ch <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (q *MemoryQueue) PublishBatch(ctx context.Context, topic string, messages []*Message) error {
	if len(messages) == 0 {
		return errors.New("messages are required")
	}
	for _, m := range messages {
		if err := q.Publish(ctx, topic, m); err != nil {
			return err
		}
	}
	return nil
}

func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler HandlerFunc, opts *SubscribeOptions) error {
	if topic == "" {
		return errors.New("topic is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}
	var options SubscribeOptions
	if opts != nil {
		options = *opts
	}
	options.SetDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	sub := &memorySubscription{
		handler: handler,
		opts:    options,
		ch:      make(chan *Message, memoryBuffer),
		queue:   q,
	}
	sub.ctx, sub.cancel = context.WithCancel(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	q.subs[topic] = append(q.subs[topic], sub)
	if q.started {
		sub.start()
	}
	return nil
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	if q.started {
		return nil
	}
	for _, subs := range q.subs {
		for _, sub := range subs {
			sub.start()
		}
	}
	q.started = true
	return nil
}

// Stop cancels every subscription and waits for its workers.
func (q *MemoryQueue) Stop() error {
	q.mu.Lock()
	all := make([]*memorySubscription, 0)
	for _, subs := range q.subs {
		all = append(all, subs...)
	}
	q.started = false
	q.mu.Unlock()
	for _, sub := range all {
		sub.cancel()
	}
	for _, sub := range all {
		sub.wg.Wait()
	}
	return nil
}

func (q *MemoryQueue) Ping(ctx context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	return nil
}

func (q *MemoryQueue) Close() error {
	_ = q.Stop()
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}

func (s *memorySubscription) start() {
	s.once.Do(func() {
		for i := 0; i < s.opts.Concurrency; i++ {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				for {
					select {
					case <-s.ctx.Done():
						return
					case m := <-s.ch:
						if err := deliver(s.ctx, s.handler, m, s.opts); err != nil && s.ctx.Err() == nil &&
							s.opts.DeadLetterTopic != "" {
							_ = s.queue.Publish(s.ctx, s.opts.DeadLetterTopic, m)
						}
					}
				}
			}()
		}
	})
}

func cloneMessage(m *Message) *Message {
	c := *m
	c.Headers = make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		c.Headers[k] = v
	}
	c.Body = append([]byte(nil), m.Body...)
	return &c
}

package mq

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// deliver calls handler until it succeeds or the retry budget is spent,
// waiting with exponential backoff in between.
func deliver(ctx context.Context, handler HandlerFunc, m *Message, opts SubscribeOptions) error {
	maxRetries := m.MaxRetries
	if maxRetries == 0 {
		maxRetries = opts.MaxRetries
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.RetryDelay
	b.MaxInterval = 30 * opts.RetryDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
	return backoff.Retry(func() error {
		err := handler(ctx, m)
		if err != nil {
			m.RetryCount++
		}
		return err
	}, policy)
}

// PublishWithRetry publishes message, retrying transient broker failures
// with exponential backoff for at most maxElapsed.
func PublishWithRetry(ctx context.Context, p Producer, topic string, message *Message, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = maxElapsed
	return backoff.Retry(func() error {
		return p.Publish(ctx, topic, message)
	}, backoff.WithContext(b, ctx))
}

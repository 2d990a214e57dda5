package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/zeromicro/go-zero/core/syncx"
)

// TextCache holds generated documents (scoreboards, CSV exports) keyed by
// name. Each name has a generation counter; invalidating a name bumps the
// counter so every instance regenerates on its next read. Concurrent
// regenerations of the same name and generation within one process share a
// single call of the generator.
type TextCache struct {
	store  Cache
	prefix string
	ttl    time.Duration
	flight syncx.SingleFlight
}

// NewTextCache returns a TextCache storing entries under prefix.
func NewTextCache(store Cache, prefix string, ttl time.Duration) *TextCache {
	return &TextCache{store: store, prefix: prefix, ttl: ttl, flight: syncx.NewSingleFlight()}
}

func (t *TextCache) generationKey(name string) string {
	return t.prefix + ":gen:" + name
}

func (t *TextCache) textKey(name string, gen int64) string {
	return t.prefix + ":text:" + name + ":" + strconv.FormatInt(gen, 10)
}

func (t *TextCache) generation(ctx context.Context, name string) (int64, error) {
	v, err := t.store.Get(ctx, t.generationKey(name))
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	gen, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad cache generation %q: %w", v, err)
	}
	return gen, nil
}

// Get returns the cached text for name, generating and storing it when no
// entry exists for the current generation. hit reports whether the text
// came from the store.
func (t *TextCache) Get(ctx context.Context, name string, gen func(context.Context) (string, error)) (text string, hit bool, err error) {
	g, err := t.generation(ctx, name)
	if err != nil {
		return "", false, err
	}
	key := t.textKey(name, g)
	cached, err := t.store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if cached == NullCacheValue {
		return "", true, nil
	}
	if cached != "" {
		return cached, true, nil
	}
	v, err := t.flight.Do(key, func() (any, error) {
		text, err := gen(ctx)
		if err != nil {
			return "", err
		}
		// An empty document is stored as the null marker.
		stored := text
		if stored == "" {
			stored = NullCacheValue
		}
		if err := t.store.Set(ctx, key, stored, JitterTTL(t.ttl)); err != nil {
			return "", err
		}
		return text, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

// Invalidate bumps the generation of every name.
func (t *TextCache) Invalidate(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return t.store.Pipeline(ctx, func(pipe Pipeliner) error {
		for _, name := range names {
			if err := pipe.Incr(t.generationKey(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const tagVersionPrefix = "tagv:"

// Tagged scopes cached values to a set of tags. Each tag owns a version counter;
// invalidating a tag bumps its counter so every key derived from the old version
// is never read again and simply ages out of the store.
type Tagged struct {
	store  Cache
	prefix string
}

func NewTagged(store Cache, prefix string) *Tagged {
	if store == nil {
		store = NewNoop()
	}
	return &Tagged{store: store, prefix: prefix}
}

// Slot is a versioned cache key resolved once per read so a concurrent
// invalidation cannot make a stale write visible under the new version.
type Slot struct {
	store Cache
	key   string
}

func (t *Tagged) Slot(ctx context.Context, key string, tags ...string) (Slot, error) {
	var b strings.Builder
	b.WriteString(t.prefix)
	b.WriteString(key)
	for _, tag := range tags {
		version, err := t.version(ctx, tag)
		if err != nil {
			return Slot{}, fmt.Errorf("tag %s version: %w", tag, err)
		}
		b.WriteString("|")
		b.WriteString(tag)
		b.WriteString("@")
		b.WriteString(version)
	}
	return Slot{store: t.store, key: b.String()}, nil
}

func (t *Tagged) version(ctx context.Context, tag string) (string, error) {
	raw, ok, err := t.store.Get(ctx, tagVersionPrefix+tag)
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	return string(raw), nil
}

// Invalidate marks every tag stale. It attempts all tags even if one fails.
func (t *Tagged) Invalidate(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range tags {
		if _, err := t.store.Incr(ctx, tagVersionPrefix+tag); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

func (s Slot) Key() string {
	return s.key
}

func (s Slot) Get(ctx context.Context) ([]byte, bool, error) {
	return s.store.Get(ctx, s.key)
}

// Set is a no-op for a non-positive ttl, which is how caching is disabled.
func (s Slot) Set(ctx context.Context, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.store.Set(ctx, s.key, value, ttl)
}

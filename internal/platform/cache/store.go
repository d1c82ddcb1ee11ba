package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer is told about every lookup, labelled by the key namespace
// (the part before the first ':').
type Observer interface {
	CountCacheLookup(namespace string, hit bool)
}

type entry struct {
	value   any
	expires time.Time
}

// Store is an in-process TTL map. Concurrent misses on one key share a
// single load. A zero TTL keeps entries until they are dropped.
type Store struct {
	ttl      time.Duration
	observer Observer
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

type Option func(*Store)

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key joins parts into a namespaced key such as "archive:level:600".
func Key(namespace string, parts ...string) string {
	return strings.Join(append([]string{namespace}, parts...), ":")
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.ttl > 0 && !s.now().Before(e.expires) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.expires.Equal(e.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		ok = false
	}
	if s.observer != nil {
		ns, _, _ := strings.Cut(key, ":")
		s.observer.CountCacheLookup(ns, ok)
	}
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (s *Store) store(key string, value any) {
	e := entry{value: value}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Drop removes the given keys.
func (s *Store) Drop(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
}

// DropNamespace removes every key of a namespace.
func (s *Store) DropNamespace(namespace string) {
	prefix := namespace + ":"
	s.mu.Lock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet read.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Load returns the cached value for key or runs load once for all
// concurrent callers. Errors are not cached.
func Load[T any](ctx context.Context, s *Store, key string, load func(context.Context) (T, error)) (T, error) {
	if s == nil || key == "" {
		return load(ctx)
	}
	if v, ok := s.lookup(key); ok {
		return asType[T](key, v)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.RLock()
		e, ok := s.entries[key]
		s.mu.RUnlock()
		if ok && (s.ttl <= 0 || s.now().Before(e.expires)) {
			return e.value, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return asType[T](key, v)
}

func asType[T any](key string, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T", key, v)
	}
	return out, nil
}

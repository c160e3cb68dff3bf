// Package ratelimit implements sliding-window request counting per key.
//
// A key may record at most Limit hits inside any trailing Window. Every check
// drops hits older than the window, compares the remainder to the limit and,
// when under it, records the new hit. Stores perform that sequence atomically
// per key so concurrent requests cannot both slip in under the limit.
package ratelimit

import (
	"context"
	"time"
)

// Clock returns the current time. Tests inject a manual clock.
type Clock func() time.Time

// Store holds hit timestamps per key.
type Store interface {
	// Hit evicts timestamps at or before now-window, then records now if fewer
	// than limit remain. It returns whether the hit was recorded and the
	// number of hits in the window afterwards.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
}

type Limiter struct {
	store  Store
	clock  Clock
	window time.Duration
	limit  int
}

type Option func(*Limiter)

// WithClock overrides time.Now.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

func New(store Store, window time.Duration, limit int, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		clock:  time.Now,
		window: window,
		limit:  limit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow checks key and records the attempt when it is under the limit.
// On a store error the decision is Allowed so that a broken store never
// blocks traffic; callers should log the error.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	allowed, count, err := l.store.Hit(ctx, key, l.clock(), l.window, l.limit)
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Count:     count,
		Limit:     l.limit,
		Remaining: remaining,
	}, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Package inflight de-duplicates concurrent calls sharing a key. A key is
// only remembered while its call is running, so a failed call is retried by
// the next caller.
package inflight

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Group runs at most one function per key at a time.
type Group[T any] struct {
	g       singleflight.Group
	pending atomic.Int64
}

// Do runs fn for key unless a call for key is already running, in which
// case it waits for that call and returns its value and error. fn runs
// detached from ctx cancellation so waiting callers are not failed by the
// one that started it; ctx only bounds how long this caller waits.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	ch := g.g.DoChan(key, func() (any, error) {
		g.pending.Add(1)
		defer g.pending.Add(-1)

		return fn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, fmt.Errorf("waiting for %q: %w", key, ctx.Err())
	case res := <-ch:
		// fn may return a partial value alongside its error
		v, _ := res.Val.(T)
		return v, res.Shared, res.Err
	}
}

// Forget drops key so the next Do starts a new call.
func (g *Group[T]) Forget(key string) {
	g.g.Forget(key)
}

// Len returns the number of calls currently running.
func (g *Group[T]) Len() int {
	return int(g.pending.Load())
}

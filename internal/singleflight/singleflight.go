package singleflight

import (
	"context"
	"sync"
)

// Group manages a set of in-flight calls to prevent duplicate work.
// A key is forgotten as soon as its call returns, so a later Do with the
// same key always runs fn again.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

// call is the shared pending result for one key.
type call[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

// New creates a new Group.
func New[T any]() *Group[T] {
	return &Group[T]{
		m: make(map[string]*call[T]),
	}
}

// Do executes fn, making sure only one execution is in flight for a given
// key at a time. Callers arriving while it runs wait for it and receive the
// same result; shared reports whether the result came from another caller's
// execution. fn runs in the first caller's goroutine and is never cancelled
// by Do. A waiting caller whose ctx ends returns ctx.Err() without affecting
// the execution.
func (g *Group[T]) Do(ctx context.Context, key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		c.waiters++
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err(), true
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	normalReturn := false
	defer func() {
		if !normalReturn {
			c.err = ErrCallPanicked
		}
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	normalReturn = true
	return c.val, c.err, false
}

// InFlight reports whether a call for key is currently running.
func (g *Group[T]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.m[key]
	return ok
}

// Waiters returns how many callers joined the running call for key.
func (g *Group[T]) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.m[key]; ok {
		return c.waiters
	}
	return 0
}

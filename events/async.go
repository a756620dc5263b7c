package events

import (
	"context"
	"errors"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/langstore/translation"
	"github.com/pitabwire/langstore/workerpool"
)

// ErrNotifierClosed is returned for events sent after Close started.
var ErrNotifierClosed = errors.New("missing key notifier is closed")

// AsyncNotifier hands missing key events to a worker pool so lookups do not wait on the
// broker. Failed deliveries are retried with backoff.
type AsyncNotifier struct {
	pool     workerpool.WorkerPool
	next     translation.MissingKeyNotifier
	retries  int
	onFailed func(ctx context.Context, event translation.MissingKey, err error)

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

var _ translation.MissingKeyNotifier = (*AsyncNotifier)(nil)

// AsyncOption configures an AsyncNotifier.
type AsyncOption func(*AsyncNotifier)

// WithRetries sets how many times a failed delivery is retried.
func WithRetries(retries int) AsyncOption {
	return func(n *AsyncNotifier) {
		if retries >= 0 {
			n.retries = retries
		}
	}
}

// WithDeliveryFailureHandler is called once an event could not be delivered at all.
func WithDeliveryFailureHandler(f func(ctx context.Context, event translation.MissingKey, err error)) AsyncOption {
	return func(n *AsyncNotifier) {
		n.onFailed = f
	}
}

// NewAsyncNotifier delivers to next on pool.
func NewAsyncNotifier(pool workerpool.WorkerPool, next translation.MissingKeyNotifier, opts ...AsyncOption) *AsyncNotifier {
	n := &AsyncNotifier{pool: pool, next: next, retries: 3}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyMissingKey queues event. It only fails when the notifier is closed or the pool
// refuses the task.
func (n *AsyncNotifier) NotifyMissingKey(ctx context.Context, event translation.MissingKey) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrNotifierClosed
	}
	n.inflight.Add(1)
	n.mu.Unlock()

	// the lookup's context may be cancelled as soon as the lookup returns
	taskCtx := context.WithoutCancel(ctx)

	err := workerpool.SubmitWithRetry(taskCtx, n.pool, n.retries,
		func(ctx context.Context) error {
			return n.next.NotifyMissingKey(ctx, event)
		},
		func(ctx context.Context, err error) {
			defer n.inflight.Done()
			if err == nil {
				return
			}

			util.Log(ctx).WithError(err).
				WithField("key", event.Key).
				WithField("path", event.Path).
				Error("missing key event was dropped")
			if n.onFailed != nil {
				n.onFailed(ctx, event, err)
			}
		})
	if err != nil {
		n.inflight.Done()
	}
	return err
}

// Close stops accepting events and waits until every accepted event was delivered or
// dropped, including deliveries waiting out a retry backoff. The pool must stay open until
// Close returns.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

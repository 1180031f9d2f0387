// Package gateway runs store mutations one at a time on a background worker
// and refreshes the list after each successful one.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/charmbracelet/pagelist/internal/pubsub"
	"github.com/google/uuid"
)

// ErrClosed is reported for mutations submitted to, or still queued in, a
// closed gateway.
var ErrClosed = errors.New("gateway closed")

// Op is the kind of a mutation.
type Op string

const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Store applies mutations to the row store.
type Store[R any, K comparable] interface {
	Insert(ctx context.Context, row R) error
	Delete(ctx context.Context, key K) error
}

// Invalidator is refreshed after every successful mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result reports the outcome of one mutation. Err is a *MutationError when
// the store rejected it. RefreshErr is set when the mutation succeeded but
// the following invalidation did not.
type Result struct {
	ID         string
	Op         Op
	Err        error
	RefreshErr error
}

// MutationError reports a failed insert or delete. The displayed list is
// left as it was.
type MutationError struct {
	ID  string
	Op  Op
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

type job[R any, K comparable] struct {
	id  string
	op  Op
	row R
	key K
}

// Gateway accepts mutations without blocking and applies them in order.
type Gateway[R any, K comparable] struct {
	*pubsub.Broker[Result]

	store  Store[R, K]
	inv    Invalidator
	logger *slog.Logger

	mu      sync.Mutex
	queue   []job[R, K]
	wake    chan struct{}
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns a gateway writing to store and refreshing inv. Call Start to
// begin processing.
func New[R any, K comparable](store Store[R, K], inv Invalidator, logger *slog.Logger) *Gateway[R, K] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway[R, K]{
		Broker: pubsub.NewBroker[Result](),
		store:  store,
		inv:    inv,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. It is a no-op after the first call.
func (g *Gateway[R, K]) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.closed {
		return
	}
	g.started = true
	ctx, g.cancel = context.WithCancel(ctx)
	go g.run(ctx)
}

// Insert queues row for insertion and returns its ticket.
func (g *Gateway[R, K]) Insert(row R) string {
	return g.enqueue(job[R, K]{op: OpInsert, row: row})
}

// Delete queues the row with key for deletion and returns its ticket.
func (g *Gateway[R, K]) Delete(key K) string {
	return g.enqueue(job[R, K]{op: OpDelete, key: key})
}

// Pending returns the number of queued mutations not yet started.
func (g *Gateway[R, K]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Close lets the mutation in progress finish and fails the queued ones with
// ErrClosed. The event broker is shut down last.
func (g *Gateway[R, K]) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	started := g.started
	cancel := g.cancel
	g.mu.Unlock()

	if started {
		cancel()
		<-g.done
	}

	g.mu.Lock()
	left := g.queue
	g.queue = nil
	g.mu.Unlock()
	for _, j := range left {
		g.fail(j, ErrClosed)
	}
	g.Shutdown()
}

func (g *Gateway[R, K]) enqueue(j job[R, K]) string {
	j.id = uuid.NewString()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.fail(j, ErrClosed)
		return j.id
	}
	g.queue = append(g.queue, j)
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
	g.logger.Debug("Queued mutation", "id", j.id, "op", j.op)
	return j.id
}

func (g *Gateway[R, K]) next() (job[R, K], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || len(g.queue) == 0 {
		return job[R, K]{}, false
	}
	j := g.queue[0]
	g.queue[0] = job[R, K]{}
	g.queue = g.queue[1:]
	return j, true
}

func (g *Gateway[R, K]) run(ctx context.Context) {
	defer close(g.done)
	for {
		for {
			if ctx.Err() != nil {
				return
			}
			j, ok := g.next()
			if !ok {
				break
			}
			// Cancelling ctx stops the loop, not the write in progress.
			g.process(context.WithoutCancel(ctx), j)
		}

		select {
		case <-ctx.Done():
			return
		case <-g.wake:
		}
	}
}

func (g *Gateway[R, K]) process(ctx context.Context, j job[R, K]) {
	var err error
	switch j.op {
	case OpInsert:
		err = g.store.Insert(ctx, j.row)
	case OpDelete:
		err = g.store.Delete(ctx, j.key)
	default:
		err = fmt.Errorf("unknown mutation %q", j.op)
	}
	if err != nil {
		g.fail(j, err)
		return
	}

	res := Result{ID: j.id, Op: j.op}
	if g.inv != nil {
		if err := g.inv.Invalidate(ctx); err != nil {
			g.logger.Warn("Failed to refresh list after mutation", "id", j.id, "op", j.op, "error", err)
			res.RefreshErr = err
		}
	}

	g.logger.Debug("Applied mutation", "id", j.id, "op", j.op)
	evt := pubsub.CreatedEvent
	if j.op == OpDelete {
		evt = pubsub.DeletedEvent
	}
	g.Publish(evt, res)
}

func (g *Gateway[R, K]) fail(j job[R, K], err error) {
	merr := &MutationError{ID: j.id, Op: j.op, Err: err}
	g.logger.Warn("Mutation failed", "id", j.id, "op", j.op, "error", err)
	g.Publish(pubsub.FailedEvent, Result{ID: j.id, Op: j.op, Err: merr})
}

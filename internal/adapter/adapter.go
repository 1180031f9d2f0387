// Package adapter keeps a rendering surface in step with a stream of list
// snapshots. Diffs are computed off the rendering goroutine; only the newest
// submitted snapshot is ever applied.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/pagelist/internal/csync"
	"github.com/charmbracelet/pagelist/internal/diff"
	"github.com/charmbracelet/pagelist/internal/paging"
)

// ErrStaleSnapshot is reported for an update superseded by a newer submit
// before it could be applied.
var ErrStaleSnapshot = errors.New("stale snapshot discarded")

// Surface is the rendering surface updates are dispatched to.
type Surface = diff.Updater

// Loader is told about every position the surface reads.
type Loader interface {
	Access(pos int)
}

// Update carries a snapshot and the ops turning the snapshot displayed at
// submit time into it.
type Update[T any] struct {
	Snapshot paging.Snapshot[T]
	Result   diff.Result
	gen      uint64
}

// Generation returns the submit generation of the update.
func (u Update[T]) Generation() uint64 {
	return u.gen
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	loader    Loader
	logger    *slog.Logger
	onDiscard func(error)
}

// WithLoader sets the loader notified on ItemAt.
func WithLoader(l Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDiscardHandler sets a function called with every discarded update's
// error.
func WithDiscardHandler(fn func(error)) Option {
	return func(o *options) {
		o.onDiscard = fn
	}
}

// Adapter is the presentation adapter.
type Adapter[T paging.Keyed] struct {
	surface   Surface
	contents  func(a, b paging.Entry[T]) bool
	loader    Loader
	logger    *slog.Logger
	onDiscard func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	updates chan Update[T]

	mu      sync.Mutex
	maxGen  uint64
	applied uint64
	closed  bool

	displayed *csync.Value[paging.Snapshot[T]]
	discarded atomic.Int64
}

// New returns an adapter driving surface. contents reports whether two rows
// with the same key render identically; nil treats them as always equal.
func New[T paging.Keyed](surface Surface, contents func(a, b T) bool, opts ...Option) *Adapter[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if contents == nil {
		contents = func(T, T) bool { return true }
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter[T]{
		surface:   surface,
		contents:  paging.EntryContents(contents),
		loader:    o.loader,
		logger:    o.logger,
		onDiscard: o.onDiscard,
		ctx:       ctx,
		cancel:    cancel,
		updates:   make(chan Update[T], 4),
		displayed: csync.NewValue(paging.Snapshot[T]{}),
	}
	return a
}

// Submit queues snap for display. The diff against the currently displayed
// snapshot is computed in the background and delivered on Updates. A later
// Submit supersedes any update not yet applied.
func (a *Adapter[T]) Submit(snap paging.Snapshot[T]) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.maxGen++
	gen := a.maxGen
	base := a.displayed.Get()
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		res := diff.Compute(base.Entries(), snap.Entries(), paging.SameEntry[T], a.contents)
		select {
		case a.updates <- Update[T]{Snapshot: snap, Result: res, gen: gen}:
		case <-a.ctx.Done():
		}
	}()
}

// Updates returns the channel computed updates are delivered on. Whoever
// owns the surface passes them to Apply. It is closed by Close.
func (a *Adapter[T]) Updates() <-chan Update[T] {
	return a.updates
}

// Apply dispatches u to the surface unless a newer snapshot has been
// submitted since, in which case u is discarded. It must be called from the
// goroutine that owns the surface. It reports whether u was applied.
func (a *Adapter[T]) Apply(u Update[T]) bool {
	a.mu.Lock()
	if a.closed || u.gen != a.maxGen || u.gen <= a.applied {
		latest := a.maxGen
		a.mu.Unlock()
		a.discard(fmt.Errorf("%w: generation %d, latest %d", ErrStaleSnapshot, u.gen, latest))
		return false
	}
	a.applied = u.gen
	// Latch first so the surface binds against the new list while the ops
	// are dispatched.
	a.displayed.Set(u.Snapshot)
	a.mu.Unlock()

	u.Result.Dispatch(a.surface)

	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		ins, rem, mov, chg := u.Result.Counts()
		a.logger.Debug("Applied list update",
			"generation", u.gen,
			"size", u.Snapshot.Len(),
			"inserts", ins, "removes", rem, "moves", mov, "changes", chg,
		)
	}
	return true
}

// Run applies updates until ctx is done or the adapter is closed.
func (a *Adapter[T]) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-a.updates:
			if !ok {
				return
			}
			a.Apply(u)
		}
	}
}

// ItemAt returns the row displayed at position pos and tells the loader
// about the access. It returns false for placeholders and positions outside
// the list. Positions past the end are still reported so a contiguous list
// can grow into them; the loader clamps to the store count.
func (a *Adapter[T]) ItemAt(pos int) (T, bool) {
	snap := a.displayed.Get()
	if a.loader != nil && pos >= 0 {
		a.loader.Access(snap.Offset() + pos)
	}
	return snap.At(pos)
}

// ItemCount returns the length of the displayed snapshot.
func (a *Adapter[T]) ItemCount() int {
	return a.displayed.Get().Len()
}

// Snapshot returns the displayed snapshot.
func (a *Adapter[T]) Snapshot() paging.Snapshot[T] {
	return a.displayed.Get()
}

// Discarded returns how many updates have been discarded as stale.
func (a *Adapter[T]) Discarded() int64 {
	return a.discarded.Load()
}

// Close stops pending diff computations and closes the update channel.
func (a *Adapter[T]) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
	close(a.updates)
}

func (a *Adapter[T]) discard(err error) {
	a.discarded.Add(1)
	a.logger.Debug("Discarded list update", "error", err)
	if a.onDiscard != nil {
		a.onDiscard(err)
	}
}

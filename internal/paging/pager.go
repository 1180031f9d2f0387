// Package paging loads rows from an ordered store one page at a time and
// keeps a bounded, sparse window of them in memory.
//
// A Pager never blocks its readers: positions whose page is not loaded yet
// read as placeholders and a background load is scheduled. Every change to
// the window publishes a new immutable Snapshot.
package paging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/pagelist/internal/csync"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Option configures a Pager.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for load and eviction events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Pager is the windowed loader. All window state is written under mu by the
// pager's own load and invalidate paths; everything else reads immutable
// snapshots.
type Pager[T Keyed] struct {
	src    Source[T]
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	flight singleflight.Group

	// invalidateMu keeps count refreshes from landing out of order.
	invalidateMu sync.Mutex

	mu         sync.Mutex
	closed     bool
	gen        uint64 // bumped on invalidation
	snapGen    uint64 // bumped on every publish
	count      int
	counted    bool
	pages      map[int]Page[T]
	loading    map[int]uint64 // scheduled offset -> generation
	lastAccess int

	failed  *csync.Map[int, error]
	current atomic.Pointer[Snapshot[T]]
	out     chan Snapshot[T]
}

// New returns a Pager reading from src. No query is issued until the first
// Invalidate or LoadPage.
func New[T Keyed](src Source[T], cfg Config, opts ...Option) (*Pager[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid paging config: %w", err)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pager[T]{
		src:     src,
		cfg:     cfg,
		logger:  o.logger,
		ctx:     ctx,
		cancel:  cancel,
		pages:   make(map[int]Page[T]),
		loading: make(map[int]uint64),
		failed:  csync.NewMap[int, error](),
		out:     make(chan Snapshot[T], 1),
	}
	p.current.Store(&Snapshot[T]{})
	return p, nil
}

// Config returns the pager's configuration.
func (p *Pager[T]) Config() Config {
	return p.cfg
}

// Snapshots returns the channel new snapshots are published on. It holds at
// most one snapshot: an unread snapshot is replaced by a newer one. The
// channel is closed by Close.
func (p *Pager[T]) Snapshots() <-chan Snapshot[T] {
	return p.out
}

// Snapshot returns the most recently published snapshot.
func (p *Pager[T]) Snapshot() Snapshot[T] {
	return *p.current.Load()
}

// Count returns the length of the current snapshot. With placeholders
// enabled this is the store count; otherwise it is the number of contiguous
// loaded rows.
func (p *Pager[T]) Count() int {
	return p.Snapshot().Len()
}

// TotalCount returns the store count seen by the last successful Invalidate.
func (p *Pager[T]) TotalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Invalidate refreshes the store count and drops every loaded page, then
// reloads the page around the most recently accessed position. If the count
// query fails the window is left untouched.
func (p *Pager[T]) Invalidate(ctx context.Context) error {
	p.invalidateMu.Lock()
	defer p.invalidateMu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}

	n, err := p.src.Count(ctx)
	if err != nil {
		p.logger.Warn("Failed to count rows", "error", err)
		return &QueryError{Op: "count", Err: err}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.gen++
	p.count = n
	p.counted = true
	clear(p.pages)
	clear(p.loading)
	p.failed.Reset(nil)
	p.lastAccess = max(0, min(p.lastAccess, n-1))
	anchor := p.alignLocked(p.lastAccess)
	gen := p.gen
	p.mu.Unlock()

	p.logger.Debug("Window invalidated", "count", n, "generation", gen, "anchor", anchor)

	if n == 0 {
		p.publish(gen)
		return nil
	}
	pg, err := p.load(ctx, gen, anchor, p.cfg.PageSize)
	if err != nil || len(pg.Items) == 0 {
		// Still expose the new count, as placeholders.
		p.publish(gen)
	}
	return err
}

// LoadPage returns the page of size rows starting at offset, querying the
// store on a miss. Concurrent requests for the same page share one query.
// LoadPage counts as an access to offset.
func (p *Pager[T]) LoadPage(ctx context.Context, offset, size int) (Page[T], error) {
	if offset < 0 || size <= 0 {
		return Page[T]{}, fmt.Errorf("invalid page request: offset=%d size=%d", offset, size)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Page[T]{}, ErrClosed
	}
	p.lastAccess = offset
	gen := p.gen
	p.mu.Unlock()

	return p.load(ctx, gen, offset, size)
}

// LoadRange returns up to limit rows starting at offset, loading the pages
// that cover them concurrently.
func (p *Pager[T]) LoadRange(ctx context.Context, offset, limit int) ([]T, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid range request: offset=%d limit=%d", offset, limit)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.lastAccess = offset
	gen := p.gen
	size := p.cfg.PageSize
	p.mu.Unlock()

	first := offset / size * size
	pages := make([]Page[T], 0, (offset+limit-first)/size+1)
	for off := first; off < offset+limit; off += size {
		pages = append(pages, Page[T]{Offset: off})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range pages {
		g.Go(func() error {
			pg, err := p.load(gctx, gen, pages[i].Offset, size)
			if err != nil {
				return err
			}
			pages[i] = pg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]T, 0, limit)
	for _, pg := range pages {
		for i, it := range pg.Items {
			pos := pg.Offset + i
			if pos >= offset && pos < offset+limit {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

// Access records pos as the most recently accessed position and schedules
// background loads for missing pages within the prefetch distance. A page
// whose last load failed is retried here.
func (p *Pager[T]) Access(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessLocked(pos)
}

// Get returns the row at absolute position pos if its page is loaded.
// Otherwise it returns false and schedules the load; it never blocks.
func (p *Pager[T]) Get(pos int) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accessLocked(pos)
	if pg, ok := p.pageAtLocked(pos); ok {
		return pg.Items[pos-pg.Offset], true
	}
	var zero T
	return zero, false
}

// State reports the load state of the page holding pos. For failed pages the
// query error is returned as well.
func (p *Pager[T]) State(pos int) (PageState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pageAtLocked(pos); ok {
		return StateLoaded, nil
	}
	if gen, ok := p.loading[p.alignLocked(pos)]; ok && gen == p.gen {
		return StateLoading, nil
	}
	for off, err := range p.failed.Seq2() {
		if pos >= off && pos < off+p.cfg.PageSize {
			return StateFailed, err
		}
	}
	return StateMissing, nil
}

// LoadedCount returns the number of rows currently held in memory.
func (p *Pager[T]) LoadedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadedLocked()
}

// Pages returns the offsets of the loaded pages, in no particular order.
func (p *Pager[T]) Pages() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	offsets := make([]int, 0, len(p.pages))
	for off := range p.pages {
		offsets = append(offsets, off)
	}
	return offsets
}

// Close stops background loads and closes the snapshot channel.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	close(p.out)
}

func (p *Pager[T]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pager[T]) alignLocked(pos int) int {
	return pos / p.cfg.PageSize * p.cfg.PageSize
}

func (p *Pager[T]) accessLocked(pos int) {
	if p.closed || pos < 0 {
		return
	}
	p.lastAccess = pos
	if !p.counted {
		return
	}

	dist := p.cfg.prefetch()
	lo := max(0, pos-dist)
	hi := min(p.count-1, pos+dist)
	for off := p.alignLocked(lo); off <= hi; off += p.cfg.PageSize {
		p.scheduleLocked(off)
	}
}

// scheduleLocked starts a background load of the page at off unless it is
// loaded or already on its way.
func (p *Pager[T]) scheduleLocked(off int) {
	if _, ok := p.pageAtLocked(off); ok {
		return
	}
	if gen, ok := p.loading[off]; ok && gen == p.gen {
		return
	}

	gen := p.gen
	p.loading[off] = gen
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, err := p.load(p.ctx, gen, off, p.cfg.PageSize)

		p.mu.Lock()
		if g, ok := p.loading[off]; ok && g == gen {
			delete(p.loading, off)
		}
		p.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Debug("Background page load failed", "offset", off, "error", err)
		}
	}()
}

// load fetches a page for generation gen, sharing in-flight queries.
func (p *Pager[T]) load(ctx context.Context, gen uint64, offset, size int) (Page[T], error) {
	p.mu.Lock()
	if pg, ok := p.pages[offset]; ok && gen == p.gen && (len(pg.Items) >= size || pg.End() >= p.count) {
		p.mu.Unlock()
		return pg, nil
	}
	p.mu.Unlock()

	key := fmt.Sprintf("%d/%d/%d", gen, offset, size)
	v, err, _ := p.flight.Do(key, func() (any, error) {
		return p.fetch(ctx, gen, offset, size)
	})
	if err != nil {
		return Page[T]{}, err
	}
	return v.(Page[T]), nil
}

func (p *Pager[T]) fetch(ctx context.Context, gen uint64, offset, size int) (Page[T], error) {
	items, err := p.src.Range(ctx, offset, size)
	if err != nil {
		qerr := &QueryError{Op: "range", Offset: offset, Limit: size, Err: err}
		p.mu.Lock()
		if gen == p.gen && !p.closed {
			p.failed.Set(offset, qerr)
		}
		p.mu.Unlock()
		p.logger.Warn("Failed to load page", "offset", offset, "size", size, "error", err)
		return Page[T]{}, qerr
	}

	page := Page[T]{Offset: offset, Items: items}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.gen {
		p.logger.Debug("Discarding page from an older window", "offset", offset, "generation", gen)
		return page, nil
	}

	p.failed.Del(offset)
	if len(items) == 0 {
		return page, nil
	}

	p.storeLocked(page)
	p.evictLocked()
	p.publishLocked()
	p.logger.Debug("Loaded page", "offset", offset, "rows", len(items), "loaded", p.loadedLocked())
	return page, nil
}

// storeLocked adds page to the window, dropping pages that overlap it or
// hold any of its keys.
func (p *Pager[T]) storeLocked(page Page[T]) {
	keys := make(map[string]struct{}, len(page.Items))
	for _, it := range page.Items {
		keys[it.Key()] = struct{}{}
	}

	for off, other := range p.pages {
		if off == page.Offset {
			continue
		}
		overlaps := other.Offset < page.End() && page.Offset < other.End()
		if overlaps || sharesKey(other, keys) {
			delete(p.pages, off)
			p.logger.Debug("Dropped conflicting page", "offset", off, "new_offset", page.Offset)
		}
	}
	p.pages[page.Offset] = page
}

func sharesKey[T Keyed](pg Page[T], keys map[string]struct{}) bool {
	for _, it := range pg.Items {
		if _, ok := keys[it.Key()]; ok {
			return true
		}
	}
	return false
}

// evictLocked removes the pages farthest from the last accessed position
// until the loaded rows fit in MaxSize. The page holding that position is
// never evicted.
func (p *Pager[T]) evictLocked() {
	if p.cfg.MaxSize <= 0 {
		return
	}

	loaded := p.loadedLocked()
	for loaded > p.cfg.MaxSize {
		victim, far := -1, -1
		for off, pg := range p.pages {
			if pg.Contains(p.lastAccess) {
				continue
			}
			if d := pg.distance(p.lastAccess); d > far || (d == far && off > victim) {
				victim, far = off, d
			}
		}
		if victim == -1 {
			return
		}
		loaded -= len(p.pages[victim].Items)
		delete(p.pages, victim)
		p.logger.Debug("Evicted page", "offset", victim, "distance", far, "loaded", loaded)
	}
}

func (p *Pager[T]) loadedLocked() int {
	var n int
	for _, pg := range p.pages {
		n += len(pg.Items)
	}
	return n
}

func (p *Pager[T]) pageAtLocked(pos int) (Page[T], bool) {
	for _, pg := range p.pages {
		if pg.Contains(pos) {
			return pg, true
		}
	}
	return Page[T]{}, false
}

func (p *Pager[T]) publish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.publishLocked()
}

// publishLocked builds a snapshot from the window and hands it to the
// snapshot channel, replacing an unread one.
func (p *Pager[T]) publishLocked() {
	if p.closed {
		return
	}

	p.snapGen++
	snap := p.buildLocked()
	p.current.Store(&snap)

	select {
	case p.out <- snap:
	default:
		select {
		case <-p.out:
		default:
		}
		p.out <- snap
	}
}

func (p *Pager[T]) buildLocked() Snapshot[T] {
	if p.cfg.EnablePlaceholders {
		entries := make([]Entry[T], p.count)
		for _, pg := range p.pages {
			for i, it := range pg.Items {
				if pos := pg.Offset + i; pos < p.count {
					entries[pos] = Entry[T]{Item: it, Loaded: true}
				}
			}
		}
		return Snapshot[T]{gen: p.snapGen, entries: entries}
	}

	start, ok := p.runStartLocked()
	if !ok {
		return Snapshot[T]{gen: p.snapGen}
	}
	var entries []Entry[T]
	for pg, ok := p.pages[start]; ok && len(pg.Items) > 0; pg, ok = p.pages[pg.End()] {
		for _, it := range pg.Items {
			entries = append(entries, Entry[T]{Item: it, Loaded: true})
		}
	}
	return Snapshot[T]{gen: p.snapGen, offset: start, entries: entries}
}

// runStartLocked returns the offset of the first page of the contiguous run
// of loaded pages nearest to the last accessed position.
func (p *Pager[T]) runStartLocked() (int, bool) {
	anchor, far := -1, -1
	for off, pg := range p.pages {
		if d := pg.distance(p.lastAccess); far == -1 || d < far || (d == far && off < anchor) {
			anchor, far = off, d
		}
	}
	if anchor == -1 {
		return 0, false
	}

	start := anchor
	for {
		prev, ok := p.pageEndingAtLocked(start)
		if !ok {
			return start, true
		}
		start = prev.Offset
	}
}

func (p *Pager[T]) pageEndingAtLocked(end int) (Page[T], bool) {
	for _, pg := range p.pages {
		if len(pg.Items) > 0 && pg.End() == end {
			return pg, true
		}
	}
	return Page[T]{}, false
}

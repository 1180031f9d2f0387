package paging

import (
	"cmp"
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cheese struct {
	id   int
	name string
}

func (c cheese) Key() string { return strconv.Itoa(c.id) }

// memStore is an in-memory Source sorted case-insensitively by name.
type memStore struct {
	mu     sync.Mutex
	rows   []cheese
	nextID int
	calls  int
	fail   map[int]error // range offset -> error
	gate   chan struct{} // when set, Range waits on it
	cntErr error
}

func newMemStore(names ...string) *memStore {
	s := &memStore{fail: make(map[int]error)}
	for _, n := range names {
		s.insert(n)
	}
	return s
}

func (s *memStore) insert(name string) cheese {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := cheese{id: s.nextID, name: name}
	s.rows = append(s.rows, c)
	slices.SortFunc(s.rows, func(a, b cheese) int {
		return cmp.Compare(strings.ToLower(a.name), strings.ToLower(b.name))
	})
	return c
}

func (s *memStore) delete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.DeleteFunc(s.rows, func(c cheese) bool { return c.id == id })
}

func (s *memStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cntErr != nil {
		return 0, s.cntErr
	}
	return len(s.rows), nil
}

func (s *memStore) Range(ctx context.Context, offset, limit int) ([]cheese, error) {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	err := s.fail[offset]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := min(offset+limit, len(s.rows))
	return slices.Clone(s.rows[offset:end]), nil
}

func (s *memStore) rangeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func names(items []cheese) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.name
	}
	return out
}

func newTestPager(t *testing.T, src Source[cheese], cfg Config) *Pager[cheese] {
	t.Helper()
	p, err := New(src, cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPager_FirstPageWithPlaceholders(t *testing.T) {
	t.Parallel()

	store := newMemStore("Gouda", "brie", "Cheddar")
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})

	require.NoError(t, p.Invalidate(t.Context()))
	require.Equal(t, 3, p.TotalCount())
	require.Equal(t, 3, p.Count())

	snap := p.Snapshot()
	require.Equal(t, []string{"brie", "Cheddar"}, names(snap.Items()))
	require.Equal(t, 1, snap.Placeholders())

	_, ok := snap.At(2)
	require.False(t, ok, "position 2 should be a placeholder before its page loads")

	state, err := p.State(2)
	require.NoError(t, err)
	require.Contains(t, []PageState{StateMissing, StateLoading}, state)

	_, ok = p.Get(2)
	require.False(t, ok)

	require.Eventually(t, func() bool {
		c, ok := p.Get(2)
		return ok && c.name == "Gouda"
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, p.Snapshot().Placeholders())
}

func TestPager_NoPlaceholdersPrefetchesNextPage(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p := newTestPager(t, store, Config{PageSize: 2, PrefetchDistance: 1})

	require.NoError(t, p.Invalidate(t.Context()))
	require.Equal(t, 3, p.TotalCount())
	require.Equal(t, 2, p.Count(), "only contiguous loaded rows are counted")
	require.Zero(t, p.Snapshot().Placeholders())

	// Far from the loaded boundary: nothing new is fetched.
	c, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, "Brie", c.name)
	require.Equal(t, 1, store.rangeCalls())

	// Approaching the boundary prefetches the next page.
	_, ok = p.Get(1)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return p.Count() == 3
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"Brie", "Cheddar", "Gouda"}, names(p.Snapshot().Items()))
}

func TestPager_CountMatchesStoreAfterInvalidate(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p := newTestPager(t, store, Config{PageSize: 4, EnablePlaceholders: true, MaxSize: 12})

	rng := rand.New(rand.NewPCG(1, 2))
	var ids []int
	for _, c := range store.rows {
		ids = append(ids, c.id)
	}

	for i := range 100 {
		if len(ids) > 0 && rng.IntN(3) == 0 {
			k := rng.IntN(len(ids))
			store.delete(ids[k])
			ids = slices.Delete(ids, k, k+1)
		} else {
			ids = append(ids, store.insert("cheese "+strconv.Itoa(rng.IntN(1000))).id)
		}

		require.NoError(t, p.Invalidate(t.Context()))
		live, err := store.Count(t.Context())
		require.NoError(t, err)
		require.Equal(t, live, p.TotalCount(), "iteration %d", i)
		require.Equal(t, live, p.Count(), "iteration %d", i)
	}
}

func TestPager_EvictsFarthestPages(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	for i := range 100 {
		store.insert("cheese " + strconv.Itoa(100+i))
	}
	p := newTestPager(t, store, Config{PageSize: 10, EnablePlaceholders: true, MaxSize: 30, PrefetchDistance: 5})
	require.NoError(t, p.Invalidate(t.Context()))

	for off := 0; off < 100; off += 10 {
		pg, err := p.LoadPage(t.Context(), off, 10)
		require.NoError(t, err)
		require.Len(t, pg.Items, 10)

		require.LessOrEqual(t, p.LoadedCount(), 30)
		require.Contains(t, p.Pages(), off, "the accessed page must survive eviction")
	}

	pages := p.Pages()
	slices.Sort(pages)
	require.Equal(t, []int{70, 80, 90}, pages)

	// Going back evicts the far end instead.
	_, err := p.LoadPage(t.Context(), 40, 10)
	require.NoError(t, err)
	pages = p.Pages()
	slices.Sort(pages)
	require.Equal(t, []int{40, 70, 80}, pages)
}

func TestPager_RangeFailureIsLocal(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda", "Havarti")
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})
	require.NoError(t, p.Invalidate(t.Context()))

	boom := errors.New("disk on fire")
	store.mu.Lock()
	store.fail[2] = boom
	store.mu.Unlock()

	_, err := p.LoadPage(t.Context(), 2, 2)
	require.ErrorIs(t, err, boom)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, "range", qerr.Op)
	require.Equal(t, 2, qerr.Offset)

	state, err := p.State(3)
	require.Equal(t, StateFailed, state)
	require.ErrorIs(t, err, boom)

	state, err = p.State(0)
	require.NoError(t, err)
	require.Equal(t, StateLoaded, state)
	require.Equal(t, []string{"Brie", "Cheddar"}, names(p.Snapshot().Items()))

	// No automatic retry loop: the store sees exactly one more call once the
	// page is requested again.
	calls := store.rangeCalls()
	store.mu.Lock()
	delete(store.fail, 2)
	store.mu.Unlock()

	pg, err := p.LoadPage(t.Context(), 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Gouda", "Havarti"}, names(pg.Items))
	require.Equal(t, calls+1, store.rangeCalls())

	state, err = p.State(2)
	require.NoError(t, err)
	require.Equal(t, StateLoaded, state)
}

func TestPager_CountFailureKeepsWindow(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})
	require.NoError(t, p.Invalidate(t.Context()))
	before := p.Snapshot()

	store.mu.Lock()
	store.cntErr = errors.New("locked")
	store.mu.Unlock()
	store.insert("Abbaye")

	err := p.Invalidate(t.Context())
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, "count", qerr.Op)
	require.Equal(t, 3, p.TotalCount())
	require.Equal(t, before.Generation(), p.Snapshot().Generation())
}

func TestPager_CoalescesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	gate := make(chan struct{})
	store.gate = gate
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})

	var wg sync.WaitGroup
	results := make(chan []string, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pg, err := p.LoadPage(context.Background(), 0, 2)
			if err == nil {
				results <- names(pg.Items)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return store.rangeCalls() == 1
	}, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()
	close(results)

	require.Equal(t, 1, store.rangeCalls())
	var got int
	for r := range results {
		require.Equal(t, []string{"Brie", "Cheddar"}, r)
		got++
	}
	require.Equal(t, 8, got)
}

func TestPager_AccessSchedulesOneLoadPerPage(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})
	require.NoError(t, p.Invalidate(t.Context()))
	require.Equal(t, 1, store.rangeCalls())

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	for range 10 {
		p.Access(2)
	}
	state, err := p.State(2)
	require.NoError(t, err)
	require.Equal(t, StateLoading, state)

	close(gate)
	require.Eventually(t, func() bool {
		s, _ := p.State(2)
		return s == StateLoaded
	}, time.Second, time.Millisecond)
	require.Equal(t, 2, store.rangeCalls())
}

func TestPager_DropsPagesWithDuplicateKeys(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p := newTestPager(t, store, Config{PageSize: 2, EnablePlaceholders: true})

	_, err := p.LoadPage(t.Context(), 0, 2)
	require.NoError(t, err)

	// The store shifts under the window without an invalidation.
	store.insert("Abbaye")

	pg, err := p.LoadPage(t.Context(), 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Cheddar", "Gouda"}, names(pg.Items))
	require.Equal(t, []int{2}, p.Pages())
}

func TestPager_LoadRange(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	for i := range 25 {
		store.insert("cheese " + strconv.Itoa(10+i))
	}
	p := newTestPager(t, store, Config{PageSize: 4, EnablePlaceholders: true})
	require.NoError(t, p.Invalidate(t.Context()))

	items, err := p.LoadRange(t.Context(), 3, 10)
	require.NoError(t, err)
	require.Len(t, items, 10)
	require.Equal(t, "cheese 13", items[0].name)
	require.Equal(t, "cheese 22", items[9].name)

	items, err = p.LoadRange(t.Context(), 22, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestPager_SnapshotsChannel(t *testing.T) {
	t.Parallel()

	store := newMemStore("Brie", "Cheddar", "Gouda")
	p, err := New[cheese](store, Config{PageSize: 2, EnablePlaceholders: true})
	require.NoError(t, err)

	require.NoError(t, p.Invalidate(t.Context()))
	require.NoError(t, p.Invalidate(t.Context()))

	// Unread snapshots are replaced by newer ones.
	snap := <-p.Snapshots()
	require.Equal(t, p.Snapshot().Generation(), snap.Generation())
	require.Equal(t, 3, snap.Len())

	p.Close()
	_, ok := <-p.Snapshots()
	require.False(t, ok)
	require.ErrorIs(t, p.Invalidate(t.Context()), ErrClosed)
	_, err = p.LoadPage(t.Context(), 0, 2)
	require.ErrorIs(t, err, ErrClosed)
}

func TestPager_EmptyStore(t *testing.T) {
	t.Parallel()

	p := newTestPager(t, newMemStore(), DefaultConfig())
	require.NoError(t, p.Invalidate(t.Context()))
	require.Zero(t, p.Count())
	_, ok := p.Get(0)
	require.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, Config{}.Validate())
	require.Error(t, Config{PageSize: 10, PrefetchDistance: -1}.Validate())
	require.Error(t, Config{PageSize: 10, MaxSize: -1}.Validate())
	require.ErrorContains(t, Config{PageSize: 10, MaxSize: 20}.Validate(), "too small")
	require.NoError(t, Config{PageSize: 10, MaxSize: 30}.Validate())
	require.NoError(t, Config{PageSize: 10, MaxSize: 20, PrefetchDistance: 5}.Validate())

	_, err := New[cheese](newMemStore(), Config{})
	require.Error(t, err)
}

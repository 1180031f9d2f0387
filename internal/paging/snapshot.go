package paging

import "slices"

// Entry is one position of a snapshot: a loaded row or a placeholder.
type Entry[T any] struct {
	Item   T
	Loaded bool
}

// Snapshot is an immutable point-in-time view of the list.
type Snapshot[T any] struct {
	gen     uint64
	offset  int
	entries []Entry[T]
}

// NewSnapshot builds a snapshot from fully loaded items. It is mostly useful
// for feeding an adapter from something other than a Pager.
func NewSnapshot[T any](gen uint64, items ...T) Snapshot[T] {
	entries := make([]Entry[T], len(items))
	for i, it := range items {
		entries[i] = Entry[T]{Item: it, Loaded: true}
	}
	return Snapshot[T]{gen: gen, entries: entries}
}

// FromEntries builds a snapshot from entries, placeholders included, whose
// first entry sits at absolute position offset.
func FromEntries[T any](gen uint64, offset int, entries ...Entry[T]) Snapshot[T] {
	return Snapshot[T]{gen: gen, offset: offset, entries: slices.Clone(entries)}
}

// Generation increases with every snapshot a Pager publishes.
func (s Snapshot[T]) Generation() uint64 {
	return s.gen
}

// Offset is the absolute position of the first entry. It is always zero
// with placeholders enabled.
func (s Snapshot[T]) Offset() int {
	return s.offset
}

// Len returns the number of entries, placeholders included.
func (s Snapshot[T]) Len() int {
	return len(s.entries)
}

// At returns the row at index i. The boolean is false for placeholders and
// out of range indices.
func (s Snapshot[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(s.entries) {
		var zero T
		return zero, false
	}
	e := s.entries[i]
	return e.Item, e.Loaded
}

// Entries returns a copy of the snapshot's entries.
func (s Snapshot[T]) Entries() []Entry[T] {
	return slices.Clone(s.entries)
}

// Items returns the loaded rows in order, skipping placeholders.
func (s Snapshot[T]) Items() []T {
	items := make([]T, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Loaded {
			items = append(items, e.Item)
		}
	}
	return items
}

// Placeholders returns how many entries are not loaded.
func (s Snapshot[T]) Placeholders() int {
	var n int
	for _, e := range s.entries {
		if !e.Loaded {
			n++
		}
	}
	return n
}

// SameEntry reports whether two entries can stand for the same logical
// item: two loaded rows with equal keys, or any pair involving a
// placeholder. A placeholder aligned with a loaded row then differs in
// contents, so a page arriving over placeholders shows up as changes in
// place rather than as removals and inserts.
func SameEntry[T Keyed](a, b Entry[T]) bool {
	if !a.Loaded || !b.Loaded {
		return true
	}
	return a.Item.Key() == b.Item.Key()
}

// EntryContents returns a content comparator over entries using eq for
// loaded rows. Placeholders always compare equal.
func EntryContents[T any](eq func(a, b T) bool) func(a, b Entry[T]) bool {
	return func(a, b Entry[T]) bool {
		if !a.Loaded || !b.Loaded {
			return a.Loaded == b.Loaded
		}
		return eq(a.Item, b.Item)
	}
}

package paging

import "context"

// Keyed is implemented by rows that carry a stable, unique identity key.
type Keyed interface {
	Key() string
}

// Source is the row store a Pager reads from. Range returns rows ordered by
// the source's sort key.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Range(ctx context.Context, offset, limit int) ([]T, error)
}

// Page is a contiguous run of rows starting at Offset.
type Page[T any] struct {
	Offset int
	Items  []T
}

// End returns the position just past the last row of the page.
func (p Page[T]) End() int {
	return p.Offset + len(p.Items)
}

// Contains reports whether pos falls inside the page.
func (p Page[T]) Contains(pos int) bool {
	return pos >= p.Offset && pos < p.End()
}

// distance returns how many rows separate pos from the page, zero if the page
// contains it.
func (p Page[T]) distance(pos int) int {
	switch {
	case len(p.Items) == 0:
		return abs(p.Offset - pos)
	case pos < p.Offset:
		return p.Offset - pos
	case pos >= p.End():
		return pos - (p.End() - 1)
	default:
		return 0
	}
}

// PageState describes a position's page.
type PageState int

const (
	StateMissing PageState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s PageState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "missing"
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

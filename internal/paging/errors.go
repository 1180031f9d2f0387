package paging

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Pager.
var ErrClosed = errors.New("pager closed")

// QueryError reports a failed count or range query against the store. A
// failed range query only affects the page at Offset.
type QueryError struct {
	Op     string // "count" or "range"
	Offset int
	Limit  int
	Err    error
}

func (e *QueryError) Error() string {
	if e.Op == "count" {
		return fmt.Sprintf("count query failed: %v", e.Err)
	}
	return fmt.Sprintf("range query [%d, %d) failed: %v", e.Offset, e.Offset+e.Limit, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Package diff computes minimal edit scripts between two list snapshots.
//
// Items are aligned on identity: a longest common subsequence is found with
// Myers' algorithm using the caller's identity predicate, leftover items that
// exist on both sides become moves, and everything else becomes an insert or
// a remove. Items matched on identity whose content differs are reported as
// changes.
package diff

import (
	"fmt"
	"slices"
)

// OpKind is the kind of a structural update.
type OpKind int

const (
	OpRemove OpKind = iota
	OpMove
	OpInsert
	OpChange
)

func (k OpKind) String() string {
	switch k {
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	case OpInsert:
		return "insert"
	case OpChange:
		return "change"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is a single structural update. Indices are relative to the list as it
// stands after every previous op in the same Result has been applied.
//
// For OpInsert and OpChange, Index is also the item's index in the new
// snapshot. For OpMove, Index is the source index and To the destination.
type Op struct {
	Kind  OpKind
	Index int
	To    int
}

func (o Op) String() string {
	if o.Kind == OpMove {
		return fmt.Sprintf("move %d->%d", o.Index, o.To)
	}
	return fmt.Sprintf("%s %d", o.Kind, o.Index)
}

// Updater receives structural updates, one call per op.
type Updater interface {
	InsertAt(index int)
	RemoveAt(index int)
	MoveTo(from, to int)
	ChangeAt(index int)
}

// Result is an ordered edit script transforming an old snapshot into a new
// one. Ops are ordered so that applying them one after another to a live
// indexed structure never invalidates a later index: removes high to low,
// then moves, then inserts low to high, then changes.
type Result struct {
	Ops    []Op
	OldLen int
	NewLen int
}

// Empty reports whether the result carries no updates.
func (r Result) Empty() bool {
	return len(r.Ops) == 0
}

// Counts returns the number of ops of each kind.
func (r Result) Counts() (inserts, removes, moves, changes int) {
	for _, op := range r.Ops {
		switch op.Kind {
		case OpInsert:
			inserts++
		case OpRemove:
			removes++
		case OpMove:
			moves++
		case OpChange:
			changes++
		}
	}
	return inserts, removes, moves, changes
}

// Dispatch forwards every op, in order, to u.
func (r Result) Dispatch(u Updater) {
	for _, op := range r.Ops {
		switch op.Kind {
		case OpRemove:
			u.RemoveAt(op.Index)
		case OpMove:
			u.MoveTo(op.Index, op.To)
		case OpInsert:
			u.InsertAt(op.Index)
		case OpChange:
			u.ChangeAt(op.Index)
		}
	}
}

// Compute returns the edit script turning old into new. same reports whether
// two items are the same logical item; contents reports whether two items
// that are the same logical item also render identically.
//
// Among alignments of equal length the one found first by Myers' algorithm
// is used. Because the alignment is a longest common subsequence, the number
// of moves is minimal when identities are unique.
func Compute[T any](old, new []T, same, contents func(a, b T) bool) Result {
	res := Result{OldLen: len(old), NewLen: len(new)}

	// oldTo[i] is the new index matched to old[i], or -1.
	oldTo := make([]int, len(old))
	newFrom := make([]int, len(new))
	for i := range oldTo {
		oldTo[i] = -1
	}
	for j := range newFrom {
		newFrom[j] = -1
	}

	for _, p := range myers(old, new, same) {
		oldTo[p.x] = p.y
		newFrom[p.y] = p.x
	}

	// moved marks old indices matched outside the common subsequence.
	moved := make([]bool, len(old))
	for j := range new {
		if newFrom[j] != -1 {
			continue
		}
		for i := range old {
			if oldTo[i] == -1 && same(old[i], new[j]) {
				oldTo[i] = j
				newFrom[j] = i
				moved[i] = true
				break
			}
		}
	}

	for i := len(old) - 1; i >= 0; i-- {
		if oldTo[i] == -1 {
			res.Ops = append(res.Ops, Op{Kind: OpRemove, Index: i})
		}
	}

	res.Ops = append(res.Ops, moves(oldTo, newFrom, moved)...)

	for j := range new {
		if newFrom[j] == -1 {
			res.Ops = append(res.Ops, Op{Kind: OpInsert, Index: j})
		}
	}

	for j := range new {
		if i := newFrom[j]; i != -1 && !contents(old[i], new[j]) {
			res.Ops = append(res.Ops, Op{Kind: OpChange, Index: j})
		}
	}

	return res
}

// moves returns the move ops that reorder the surviving old items into new
// order. Moved items are placed in new order, each directly after its
// predecessor in the new list, which keeps every already placed item in its
// final relative position.
func moves(oldTo, newFrom []int, moved []bool) []Op {
	var work []int // old indices of surviving items, in current order
	for i, j := range oldTo {
		if j != -1 {
			work = append(work, i)
		}
	}

	var ops []Op
	prev := -1 // old index of the previous surviving item in new order
	for _, i := range newFrom {
		if i == -1 {
			continue
		}
		if moved[i] {
			from := slices.Index(work, i)
			work = slices.Delete(work, from, from+1)
			to := 0
			if prev != -1 {
				to = slices.Index(work, prev) + 1
			}
			work = slices.Insert(work, to, i)
			if from != to {
				ops = append(ops, Op{Kind: OpMove, Index: from, To: to})
			}
		}
		prev = i
	}
	return ops
}

// Apply replays r against a copy of old, taking inserted and changed items
// from new. For a Result computed from old and new, the output holds the
// items of new in order.
func Apply[T any](old, new []T, r Result) []T {
	out := slices.Clone(old)
	for _, op := range r.Ops {
		switch op.Kind {
		case OpRemove:
			out = slices.Delete(out, op.Index, op.Index+1)
		case OpMove:
			item := out[op.Index]
			out = slices.Delete(out, op.Index, op.Index+1)
			out = slices.Insert(out, op.To, item)
		case OpInsert:
			out = slices.Insert(out, op.Index, new[op.Index])
		case OpChange:
			out[op.Index] = new[op.Index]
		}
	}
	return out
}

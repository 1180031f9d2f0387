package csync

import (
	"fmt"
	"reflect"
	"sync"
)

// Value is a concurrency-safe holder for a single value of type T.
//
// T must be a value type. Pointers, slices and maps would let callers mutate
// the shared state without holding the lock, so NewValue panics on them.
type Value[T any] struct {
	v  T
	mu sync.RWMutex
}

// NewValue returns a new Value holding v.
func NewValue[T any](v T) *Value[T] {
	if t := reflect.TypeOf(v); t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map:
			panic(fmt.Sprintf("csync: Value does not support %s types", t.Kind()))
		}
	}
	return &Value[T]{v: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set replaces the current value.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = value
}

// Swap replaces the current value and returns the previous one.
func (v *Value[T]) Swap(value T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.v
	v.v = value
	return old
}

package types

import (
	"fmt"
)

type ErrIndexOutOfRange struct {
	Index int
	Len   int
}

func NewErrIndexOutOfRange(idx, length int) *ErrIndexOutOfRange {
	return &ErrIndexOutOfRange{
		Index: idx,
		Len:   length,
	}
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index out of range. idx %d len %d", e.Index, e.Len)
}

// List is a growable slice with checked indexing. Deleting shifts
// every later element down by one.
type List[T any] struct {
	data []T
}

func NewList[T any]() *List[T] {
	return &List[T]{
		data: make([]T, 0),
	}
}

func (l *List[T]) inRange(idx int) bool {
	return idx >= 0 && idx < len(l.data)
}

func (l *List[T]) Get(idx int) (T, error) {
	var empty T
	if !l.inRange(idx) {
		return empty, NewErrIndexOutOfRange(idx, len(l.data))
	}

	return l.data[idx], nil
}

func (l *List[T]) Set(idx int, val T) error {
	if !l.inRange(idx) {
		return NewErrIndexOutOfRange(idx, len(l.data))
	}
	l.data[idx] = val
	return nil
}

func (l *List[T]) Append(val T) {
	l.data = append(l.data, val)
}

func (l *List[T]) Clear() {
	l.data = []T{}
}

func (l *List[T]) DeleteAt(idx int) error {
	if !l.inRange(idx) {
		return NewErrIndexOutOfRange(idx, len(l.data))
	}

	l.data = append(l.data[:idx], l.data[idx+1:]...)
	return nil
}

// Slice returns a copy of the elements
func (l *List[T]) Slice() []T {
	out := make([]T, len(l.data))
	copy(out, l.data)
	return out
}

func (l *List[T]) Len() int {
	return len(l.data)
}

// Package cursor provides an ordered collection with a current element that
// wraps around at both ends.
package cursor

import (
	"errors"
	"iter"
)

// ErrEmptyCollection is returned when the current element of an empty list is
// read, moved or removed.
var ErrEmptyCollection = errors.New("cursor: empty collection")

// Cloner is implemented by element types that can deep-copy themselves.
type Cloner[T any] interface {
	Clone() T
}

// List is a circular list with a current pointer. The zero value is an empty
// list ready to use.
type List[T Cloner[T]] struct {
	items []T
	pos   int
}

// New returns a list holding items in order, with the first one as current.
func New[T Cloner[T]](items ...T) *List[T] {
	l := &List[T]{items: make([]T, 0, len(items))}
	for _, item := range items {
		l.Append(item)
	}
	return l
}

// Len returns the number of elements. A nil list has length zero.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool {
	return l.Len() == 0
}

// Index returns the position of the current element, or -1 if the list is empty.
func (l *List[T]) Index() int {
	if l.IsEmpty() {
		return -1
	}
	return l.pos
}

// Current returns the current element.
func (l *List[T]) Current() (T, error) {
	var zero T
	if l.IsEmpty() {
		return zero, ErrEmptyCollection
	}
	return l.items[l.pos], nil
}

// Advance moves the current pointer one step forward, wrapping to the first
// element after the last one.
func (l *List[T]) Advance() error {
	if l.IsEmpty() {
		return ErrEmptyCollection
	}
	l.pos = (l.pos + 1) % len(l.items)
	return nil
}

// Retreat moves the current pointer one step backward, wrapping to the last
// element before the first one.
func (l *List[T]) Retreat() error {
	if l.IsEmpty() {
		return ErrEmptyCollection
	}
	l.pos = (l.pos - 1 + len(l.items)) % len(l.items)
	return nil
}

// Append adds item at the end. On an empty list it becomes the current element.
func (l *List[T]) Append(item T) {
	if len(l.items) == 0 {
		l.pos = 0
	}
	l.items = append(l.items, item)
}

// RemoveCurrent deletes the current element and returns it. The element that
// followed it takes its slot; removing the last element wraps to the first.
func (l *List[T]) RemoveCurrent() (T, error) {
	var zero T
	if l.IsEmpty() {
		return zero, ErrEmptyCollection
	}
	removed := l.items[l.pos]
	copy(l.items[l.pos:], l.items[l.pos+1:])
	l.items[len(l.items)-1] = zero
	l.items = l.items[:len(l.items)-1]

	if len(l.items) == 0 {
		l.pos = 0
	} else {
		l.pos %= len(l.items)
	}
	return removed, nil
}

// Clone returns a deep copy whose current element sits at the same index.
func (l *List[T]) Clone() *List[T] {
	if l == nil {
		return &List[T]{}
	}
	c := &List[T]{items: make([]T, len(l.items)), pos: l.pos}
	for i, item := range l.items {
		c.items[i] = item.Clone()
	}
	return c
}

// Window returns up to n elements starting at the current one and moving
// forward with wraparound. It does not move the cursor.
func (l *List[T]) Window(n int) []T {
	size := l.Len()
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, l.items[(l.pos+i)%size])
	}
	return out
}

// All yields the elements in insertion order, independent of the cursor.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if l == nil {
			return
		}
		for _, item := range l.items {
			if !yield(item) {
				return
			}
		}
	}
}

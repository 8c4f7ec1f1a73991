// internal/draft/list.go
package draft

// List is a generic ordered collection editor for the draft's structured
// sub-collections (colors, specifications, size rows, rating attributes).
// Identity is positional: indices shift after Remove, so callers must not
// hold an index across a removal. Insertion order is meaningful and
// duplicates are allowed.
type List[T any] struct {
	items []T
}

func NewList[T any](seed ...T) *List[T] {
	l := &List[T]{}
	l.items = append(l.items, seed...)
	return l
}

func (l *List[T]) Append(v T) {
	l.items = append(l.items, v)
}

// Update applies a field mutation to the record at index.
func (l *List[T]) Update(index int, fn func(*T)) error {
	if index < 0 || index >= len(l.items) {
		return ErrIndexOutOfRange
	}
	fn(&l.items[index])
	return nil
}

func (l *List[T]) Remove(index int) error {
	if index < 0 || index >= len(l.items) {
		return ErrIndexOutOfRange
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

func (l *List[T]) Get(index int) (T, error) {
	var zero T
	if index < 0 || index >= len(l.items) {
		return zero, ErrIndexOutOfRange
	}
	return l.items[index], nil
}

// Items returns a copy of the collection in insertion order.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	return len(l.items)
}

// Replace swaps the whole collection, preserving the given order.
func (l *List[T]) Replace(items []T) {
	l.items = append(l.items[:0:0], items...)
}

// Package stack provides a growable, typed stack used as the accumulator and
// output buffers of the tokenizer and as the operator and operand cellars of
// the evaluator.
//
// Two families of operations exist. The cheap ones (Pop, Clear) only move the
// logical top and keep the backing storage so that subsequent pushes reuse
// it. The "re" ones (RePop, ReClear) run the configured cleanup on discarded
// elements and reallocate the storage down to what is still live.
package stack

import (
	"fmt"
	"strings"
)

// DefaultCapacity is the element count a stack falls back to when it is
// emptied by RePop or ReClear and no default capacity was configured.
const DefaultCapacity = 16

// Stack is a contiguous, growable stack of T.
type Stack[T any] struct {
	items      []T // len(items) is the capacity; count is the logical size
	count      int
	defaultCap int

	// cleanup is invoked on an element before RePop or ReClear discards it.
	// It must only release what the element owns, never the slot itself.
	cleanup func(item *T)
}

// New returns an empty stack with no preallocated storage.
func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// WithCapacity returns an empty stack with room for n elements. n also
// becomes the default capacity.
func WithCapacity[T any](n int) *Stack[T] {
	if n < 0 {
		n = 0
	}
	return &Stack[T]{
		items:      make([]T, n),
		defaultCap: n,
	}
}

// SetCleanup installs the per-element destructor used by RePop and ReClear.
func (s *Stack[T]) SetCleanup(fn func(item *T)) {
	s.cleanup = fn
}

// SetDefaultCapacity sets the floor the stack is reallocated to when emptied.
func (s *Stack[T]) SetDefaultCapacity(n int) {
	if n < 0 {
		n = 0
	}
	s.defaultCap = n
}

// ExpandBy grows the backing storage by n elements.
func (s *Stack[T]) ExpandBy(n int) *Stack[T] {
	if n <= 0 {
		return s
	}
	s.realloc(len(s.items) + n)
	return s
}

// ShrinkToFit reallocates the backing storage to exactly the live elements.
func (s *Stack[T]) ShrinkToFit() *Stack[T] {
	s.realloc(s.count)
	return s
}

func (s *Stack[T]) realloc(n int) {
	items := make([]T, n)
	copy(items, s.items[:min(s.count, n)])
	s.items = items
	if s.count > n {
		s.count = n
	}
}

// Push copies v onto the top of the stack.
func (s *Stack[T]) Push(v T) *Stack[T] {
	if s.count+1 > len(s.items) {
		s.ExpandBy(max(len(s.items), 1))
	}
	s.items[s.count] = v
	s.count++
	return s
}

// Pop returns a copy of the top element and decrements the count. The slot
// is kept and will be overwritten by the next Push. The cleanup is not run.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.count == 0 {
		return zero, false
	}
	s.count--
	return s.items[s.count], true
}

// RePop removes the top element, copying it into out when out is non-nil,
// runs the cleanup on the discarded slot and reallocates the storage to the
// remaining footprint. An emptied stack is reallocated to its default
// capacity (DefaultCapacity when none was set).
func (s *Stack[T]) RePop(out *T) bool {
	if s.count == 0 {
		return false
	}
	s.count--
	top := &s.items[s.count]
	if out != nil {
		*out = *top
	}
	if s.cleanup != nil {
		s.cleanup(top)
	}
	if s.count == 0 {
		s.realloc(s.floor())
	} else {
		s.realloc(s.count)
	}
	return true
}

// Clear resets the count to zero without running the cleanup or touching
// the backing storage.
func (s *Stack[T]) Clear() {
	s.count = 0
}

// ReClear runs the cleanup over every live element and reallocates the
// storage to the default capacity.
func (s *Stack[T]) ReClear() {
	if s.cleanup != nil {
		for i := 0; i < s.count; i++ {
			s.cleanup(&s.items[i])
		}
	}
	s.count = 0
	s.items = make([]T, s.floor())
}

func (s *Stack[T]) floor() int {
	if s.defaultCap > 0 {
		return s.defaultCap
	}
	return DefaultCapacity
}

// Clone returns a stack holding a plain copy of the live elements. The
// cleanup and default capacity are carried over.
func (s *Stack[T]) Clone() *Stack[T] {
	return s.DeepClone(nil)
}

// DeepClone returns a stack whose elements are produced by clone. A nil
// clone copies elements as-is.
func (s *Stack[T]) DeepClone(clone func(T) T) *Stack[T] {
	c := &Stack[T]{
		items:      make([]T, len(s.items)),
		count:      s.count,
		defaultCap: s.defaultCap,
		cleanup:    s.cleanup,
	}
	if clone == nil {
		copy(c.items, s.items[:s.count])
		return c
	}
	for i := 0; i < s.count; i++ {
		c.items[i] = clone(s.items[i])
	}
	return c
}

// Empty reports whether the stack holds no elements.
func (s *Stack[T]) Empty() bool {
	return s.count == 0
}

// Peek returns the top element, or nil when the stack is empty.
func (s *Stack[T]) Peek() *T {
	return s.At(s.count - 1)
}

// Last is an alias of Peek.
func (s *Stack[T]) Last() *T {
	return s.Peek()
}

// First returns the bottom element, or nil when the stack is empty.
func (s *Stack[T]) First() *T {
	return s.At(0)
}

// At returns the element at index i counted from the bottom, or nil when i
// is out of range. The pointer is only valid until the next mutation.
func (s *Stack[T]) At(i int) *T {
	if i < 0 || i >= s.count {
		return nil
	}
	return &s.items[i]
}

// Items returns the live elements bottom to top. The slice aliases the
// backing storage and must not be retained across mutations.
func (s *Stack[T]) Items() []T {
	return s.items[:s.count:s.count]
}

// Len returns the number of live elements.
func (s *Stack[T]) Len() int {
	return s.count
}

// Cap returns the number of elements the backing storage can hold.
func (s *Stack[T]) Cap() int {
	return len(s.items)
}

func (s *Stack[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stack{count: %d, capacity: %d, default: %d}", s.count, len(s.items), s.defaultCap)
	for i := s.count - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "\n  [%d] %v", i, s.items[i])
	}
	return sb.String()
}

// Package deque provides a slice-backed double-ended queue.
package deque

import "slices"

// Deque is a slice-backed double-ended queue.
// Elements are added and removed at the end, so it serves as a stack.
// Removal from the front advances an offset. The memory before the offset is
// reclaimed when the deque empties or needs to grow.
type Deque[Elem any] struct {
	el []Elem
	// left is the position of the leftmost valid element in el.
	// left >= len(el) implies the deque is empty.
	left int
}

// Len returns the number of elements in the deque.
func (d Deque[Elem]) Len() int {
	return len(d.el) - d.left
}

// Append adds elements to the end of the deque.
// If the elements do not fit, space vacated at the front is reused before
// the deque grows.
func (d Deque[Elem]) Append(ee ...Elem) Deque[Elem] {
	if d.left > 0 && len(d.el)+len(ee) > cap(d.el) {
		n := copy(d.el, d.el[d.left:])
		clear(d.el[n:])
		d.el = d.el[:n]
		d.left = 0
	}
	d.el = append(d.el, ee...)
	return d
}

// GrowEnd ensures there is space to [Append] at least n elements.
func (d Deque[Elem]) GrowEnd(n int) Deque[Elem] {
	d.el = slices.Grow(d.el, n)
	return d
}

// PopEnd removes and returns the last element of the deque.
// If the deque is empty, the result is the zero value and false.
// The vacated slot is cleared so the deque holds no reference to the element.
func (d Deque[Elem]) PopEnd() (Deque[Elem], Elem, bool) {
	var zero Elem
	if d.Len() == 0 {
		return d.Reset(), zero, false
	}
	k := len(d.el) - 1
	e := d.el[k]
	d.el[k] = zero
	d.el = d.el[:k]
	return d, e, true
}

// PopFront removes and returns the first element of the deque.
// If the deque is empty, the result is the zero value and false.
func (d Deque[Elem]) PopFront() (Deque[Elem], Elem, bool) {
	var zero Elem
	if d.Len() == 0 {
		return d.Reset(), zero, false
	}
	e := d.el[d.left]
	d.el[d.left] = zero
	d.left++
	if d.left == len(d.el) {
		d = d.Reset()
	}
	return d, e, true
}

// DropEnd removes n elements from the end of the deque.
// If n is negative, there is no change.
// If n is larger than the deque's size, the result is empty.
func (d Deque[Elem]) DropEnd(n int) Deque[Elem] {
	if n <= 0 {
		return d
	}
	if n >= d.Len() {
		return d.Reset()
	}
	clear(d.el[len(d.el)-n:])
	d.el = d.el[:len(d.el)-n]
	return d
}

// Reset removes all elements from the deque, keeping its memory.
func (d Deque[Elem]) Reset() Deque[Elem] {
	clear(d.el[d.left:])
	d.el = d.el[:0]
	d.left = 0
	return d
}

// Slice returns a view into the deque's memory.
func (d Deque[Elem]) Slice() []Elem {
	return d.el[d.left:]
}

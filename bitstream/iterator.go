package bitstream

import "fmt"

// cursor walks the set bits of one concrete model.
type cursor interface {
	kind() Kind
	clone() cursor
	// pos returns the current position; ok is false past the end.
	pos() (uint64, bool)
	next()
}

// Iterator visits set-bit positions in ascending order. Iterators are
// read-only and independent: copying one with Clone does not affect the
// original.
type Iterator struct {
	c cursor
}

// Done reports whether the iterator is past the last set bit.
func (it *Iterator) Done() bool {
	_, ok := it.c.pos()
	return !ok
}

// Value returns the current position. It panics when Done.
func (it *Iterator) Value() uint64 {
	p, ok := it.c.pos()
	if !ok {
		panic("bitstream: dereference of end iterator")
	}
	return p
}

// Next advances to the next set bit.
func (it *Iterator) Next() { it.c.next() }

// Clone returns an independent copy.
func (it *Iterator) Clone() Iterator { return Iterator{c: it.c.clone()} }

// Equal reports whether both iterators refer to the same position. Comparing
// iterators of different kinds panics.
func (it *Iterator) Equal(other *Iterator) bool {
	if it.c.kind() != other.c.kind() {
		panic(fmt.Sprintf("bitstream: bad iterator cast: %s vs %s", it.c.kind(), other.c.kind()))
	}
	p, ok := it.c.pos()
	q, ok2 := other.c.pos()
	if !ok || !ok2 {
		return ok == ok2
	}
	return p == q
}

type endCursor struct{ k Kind }

func (c endCursor) kind() Kind        { return c.k }
func (c endCursor) clone() cursor     { return c }
func (endCursor) pos() (uint64, bool) { return 0, false }
func (endCursor) next()               {}

// findCursor drives iteration through a model's findNext.
type findCursor struct {
	m    model
	at   uint64
	done bool
}

func newFindCursor(m model) *findCursor {
	p, ok := m.findFirst()
	return &findCursor{m: m, at: p, done: !ok}
}

func (c *findCursor) kind() Kind { return c.m.kind() }

func (c *findCursor) clone() cursor {
	cp := *c
	return &cp
}

func (c *findCursor) pos() (uint64, bool) { return c.at, !c.done }

func (c *findCursor) next() {
	if c.done {
		return
	}
	p, ok := c.m.findNext(c.at)
	c.at, c.done = p, !ok
}

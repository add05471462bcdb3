// Package greyring implements the intrusive doubly-linked ring used for
// both the per-rank grey rings and the per-pool segment rings: pool_link
// and grey_link are ring nodes embedded directly in the segment, so
// finding all grey segments of a given rank, or enumerating a pool's
// segments, is amortised constant time per attach/detach with no
// separate backing collection to keep in sync.
//
// The shape is the insertBack/remove idiom mSpanList-style free lists
// use: a sentinel Ring node whose Next/Prev always point somewhere, even
// when the ring is empty, so Insert/Remove never special-case the empty
// case.
package greyring

// Ring is an intrusive node embeddable directly into a struct (a segment).
// A detached Ring has Next == Prev == &itself.
type Ring struct {
	next, prev *Ring
}

// Init makes r a detached, self-referential ring node. Must be called
// before first use.
func (r *Ring) Init() {
	r.next = r
	r.prev = r
}

// IsAttached reports whether r has been inserted into some ring (including
// a ring that is its own sentinel with members — i.e. r is not pointing to
// itself).
func (r *Ring) IsAttached() bool {
	return r.next != r
}

// InsertAfter inserts r immediately after sentinel.
func (r *Ring) InsertAfter(sentinel *Ring) {
	r.prev = sentinel
	r.next = sentinel.next
	sentinel.next.prev = r
	sentinel.next = r
}

// Remove detaches r from whatever ring it is in. Safe to call on an
// already-detached node (it is then a no-op).
func (r *Ring) Remove() {
	r.prev.next = r.next
	r.next.prev = r.prev
	r.next = r
	r.prev = r
}

// Next returns the ring node after r, or sentinel itself if the ring
// (rooted at sentinel) has no other members.
func (r *Ring) Next() *Ring {
	return r.next
}

// Each calls fn for every node in the ring rooted at sentinel, in order,
// not including sentinel itself. fn must not mutate the ring.
func (sentinel *Ring) Each(fn func(*Ring)) {
	for n := sentinel.next; n != sentinel; n = n.next {
		fn(n)
	}
}

// Len counts the nodes in the ring rooted at sentinel, not including
// sentinel itself. O(n); intended for tests and CLI reporting, not the
// hot path.
func (sentinel *Ring) Len() int {
	n := 0
	sentinel.Each(func(*Ring) { n++ })
	return n
}

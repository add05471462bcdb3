// Package pool implements the minimal pool type the segment layer
// needs as a client: something that owns a ring of segments and can be
// compared by identity through arena.PoolRef. Pool allocation policy,
// generations, and chains are a client concern entirely out of scope
// here; this package exists only so pool_link has a real ring to
// attach to and detach from in tests, the CLI, and the examples.
package pool

import "github.com/kolkov/segkit/internal/seg/greyring"

// Pool owns a ring of segments allocated from it. A segment appends its
// pool_link to Ring on construction and detaches it on finish; the ring
// never holds segments directly, just their embedded Ring nodes.
type Pool struct {
	id   uint64
	Ring greyring.Ring
}

// New creates an empty pool identified by id. Callers are responsible
// for id uniqueness within an arena; this package does not allocate ids
// itself since that policy belongs to whatever higher layer creates
// pools of a particular kind.
func New(id uint64) *Pool {
	p := &Pool{id: id}
	p.Ring.Init()
	return p
}

// PoolID satisfies arena.PoolRef.
func (p *Pool) PoolID() uint64 {
	return p.id
}

// SegmentCount returns the number of segments currently on the pool's
// ring, walking it in O(n). Used by tests, the public seg.Pool wrapper,
// and the CLI's alloc command; nothing on the segment hot path calls
// this.
func (p *Pool) SegmentCount() int {
	return p.Ring.Len()
}

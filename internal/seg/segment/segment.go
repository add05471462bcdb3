// Package segment implements the generic Segment base class and, in
// gcseg.go, its GC-capable subclass: a contiguous, tract-aligned range
// of address space carrying colour, rank, summary, and shield state.
package segment

import (
	"unsafe"

	"github.com/kolkov/segkit/internal/seg/accessset"
	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/class"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/segassert"
	"github.com/kolkov/segkit/internal/seg/segevent"
	"github.com/kolkov/segkit/internal/seg/shield"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

const segSig uint32 = 0x5E95E601

// Segment is the generic base class: colour, rank, and shield
// bookkeeping for a tract-aligned address range. Pool kinds that need
// full reference tracking use GCSeg (gcseg.go), which embeds Segment;
// pool kinds that don't can allocate a Segment directly — its
// reference-oriented operations (summary, buffer, p, and the fused
// rank/summary setter) are not applicable and panic if called.
type Segment struct {
	limit      uintptr
	firstTract *arena.Tract

	rankSet rankset.RankSet
	white   traceset.TraceSet
	grey    traceset.TraceSet
	nailed  traceset.TraceSet

	pm    accessset.AccessSet
	sm    accessset.AccessSet
	depth int

	sig    uint32
	class  *class.Class[*Segment]
	arena  *arena.Arena
	shield shield.Shield
	pool   arena.PoolRef
}

// SegClass is the registry entry for the base Segment type.
var SegClass = class.New[*Segment]("Seg", unsafe.Sizeof(Segment{}), segSig, class.Ops[*Segment]{
	Init:       segInit,
	Finish:     segFinish,
	SetGrey:    segSetGrey,
	SetWhite:   segSetWhite,
	SetRankSet: segSetRankSet,
	Describe:   segDescribe,
})

// Allocate acquires size bytes of address space from a, binds every
// tract in the range to a new Segment, zeroes its collector state, and
// calls cls.Ops.Init. size must be a positive multiple of a's
// granularity. On any failure the address space already acquired is
// released before the error is returned.
func Allocate(a *arena.Arena, sh shield.Shield, cls *class.Class[*Segment], pool arena.PoolRef, size uintptr) (*Segment, error) {
	a.Enter()
	defer a.Leave()

	granule := a.Granularity()
	if size == 0 || size%granule != 0 {
		return nil, arena.ErrBadSize(size, granule)
	}

	if err := a.ControlAlloc(cls.Size); err != nil {
		segevent.AllocFail(cls.Name, size, err)
		return nil, err
	}

	base, err := a.AllocAddr(size)
	if err != nil {
		a.ControlFree(cls.Size)
		segevent.AllocFail(cls.Name, size, err)
		return nil, err
	}

	seg := &Segment{
		limit:  base + size,
		sig:    cls.Sig,
		class:  cls,
		arena:  a,
		shield: sh,
		pool:   pool,
	}
	bindTracts(a, base, size, pool, seg)
	seg.firstTract = a.TractAt(base)

	if err := cls.Ops.Init(seg, pool, base, seg.limit); err != nil {
		unbindTracts(a, base, size)
		a.FreeAddr(base, size)
		a.ControlFree(cls.Size)
		segevent.AllocFail(cls.Name, size, err)
		return nil, err
	}

	segevent.AllocOK(cls.Name, base, size)
	return seg, nil
}

// Free lowers any raised shield, runs the class's finish operation,
// clears the rank set, flushes the shield, unbinds every tract, checks
// the finish-time invariant, invalidates the segment's signature, and
// releases its address range.
func Free(seg *Segment) {
	a := seg.arena
	a.Enter()
	defer a.Leave()

	base, size := seg.Base(), seg.Size()

	if seg.sm != accessset.Empty {
		seg.shield.Lower(base, size, seg.sm)
		seg.sm = accessset.Empty
		seg.pm = accessset.Empty
		seg.depth = 0
	}
	seg.class.Ops.Finish(seg)
	seg.rankSet = rankset.Empty
	seg.shield.Flush()
	unbindTracts(a, base, size)

	segassert.Assert(seg.depth == 0 && seg.sm == accessset.Empty && seg.pm == accessset.Empty,
		"free: depth, sm and pm must all be empty before a segment's storage is released")

	seg.sig = 0

	a.FreeAddr(base, size)
	a.ControlFree(seg.class.Size)
	segevent.Freed(seg.class.Name, base, size)
}

func bindTracts(a *arena.Arena, base, size uintptr, pool arena.PoolRef, seg arena.SegRef) {
	granule := a.Granularity()
	for addr := base; addr < base+size; addr += granule {
		t := a.TractAt(addr)
		t.Pool = pool
		t.Seg = seg
		t.HasSeg = true
		t.White = traceset.Empty
	}
}

func unbindTracts(a *arena.Arena, base, size uintptr) {
	granule := a.Granularity()
	for addr := base; addr < base+size; addr += granule {
		t := a.TractOfAddr(addr)
		if t == nil {
			continue
		}
		t.Pool = nil
		t.Seg = nil
		t.HasSeg = false
		t.White = traceset.Empty
	}
}

// Base returns the segment's lowest address. On the barrier hot path,
// so its signature check is critical rather than unconditional.
func (s *Segment) Base() uintptr {
	segassert.Critical(s.sig == s.class.Sig, "use of a freed or corrupt segment")
	return s.firstTract.Base
}

// Limit returns the address one past the end of the segment.
func (s *Segment) Limit() uintptr {
	return s.limit
}

// Size returns the segment's length in bytes.
func (s *Segment) Size() uintptr {
	return s.limit - s.Base()
}

// SegBase satisfies arena.SegRef, letting a *Segment sit in a Tract's
// weak back-reference.
func (s *Segment) SegBase() uintptr {
	return s.Base()
}

// Pool returns the pool that owns this segment.
func (s *Segment) Pool() arena.PoolRef { return s.pool }

// Class returns the segment's class.
func (s *Segment) Class() *class.Class[*Segment] { return s.class }

// RankSet returns the segment's current rank set.
func (s *Segment) RankSet() rankset.RankSet { return s.rankSet }

// White returns the segment's current white set.
func (s *Segment) White() traceset.TraceSet { return s.white }

// Grey returns the segment's current grey set.
func (s *Segment) Grey() traceset.TraceSet { return s.grey }

// Nailed returns the segment's nailed set.
func (s *Segment) Nailed() traceset.TraceSet { return s.nailed }

// PM returns the segment's protection mode.
func (s *Segment) PM() accessset.AccessSet { return s.pm }

// SM returns the segment's shield mode.
func (s *Segment) SM() accessset.AccessSet { return s.sm }

// Depth returns the segment's shield depth. This package has no
// expose/cover operation, so depth counts no nesting: it is 1 while any
// shield mode is raised and 0 otherwise (see setMode in gcseg.go).
func (s *Segment) Depth() int { return s.depth }

// SetGrey dispatches to the class's set_grey operation.
func (s *Segment) SetGrey(g traceset.TraceSet) { s.class.Ops.SetGrey(s, g) }

// SetWhite dispatches to the class's set_white operation.
func (s *Segment) SetWhite(w traceset.TraceSet) { s.class.Ops.SetWhite(s, w) }

// SetRankSet dispatches to the class's set_rank_set operation.
func (s *Segment) SetRankSet(r rankset.RankSet) {
	segassert.Assert(r.IsValid(), "set_rank_set: a rank set must be empty or a singleton")
	s.class.Ops.SetRankSet(s, r)
}

// Summary dispatches to the class's summary operation.
func (s *Segment) Summary() refset.RefSet { return s.class.Ops.Summary(s) }

// SetSummary dispatches to the class's set_summary operation.
func (s *Segment) SetSummary(sum refset.RefSet) { s.class.Ops.SetSummary(s, sum) }

// SetRankAndSummary dispatches to the class's fused set_rank_summary
// operation, the atomic form that avoids ever exposing an intermediate
// state where rank and summary disagree about whether the segment is
// write-shielded.
func (s *Segment) SetRankAndSummary(r rankset.RankSet, sum refset.RefSet) {
	segassert.Assert(!r.IsEmpty() || sum.IsEmpty(), "set_rank_and_summary: summary must be empty when rank set is cleared")
	s.class.Ops.SetRankSummary(s, r, sum)
}

// Buffer dispatches to the class's buffer operation.
func (s *Segment) Buffer() any { return s.class.Ops.Buffer(s) }

// SetBuffer dispatches to the class's set_buffer operation.
func (s *Segment) SetBuffer(buf any) { s.class.Ops.SetBuffer(s, buf) }

// P dispatches to the class's p operation.
func (s *Segment) P() any { return s.class.Ops.P(s) }

// SetP dispatches to the class's set_p operation.
func (s *Segment) SetP(p any) { s.class.Ops.SetP(s, p) }

// Describe dispatches to the class's describe operation.
func (s *Segment) Describe() string { return s.class.Ops.Describe(s) }

func segInit(*Segment, arena.PoolRef, uintptr, uintptr) error {
	return nil
}

func segFinish(*Segment) {}

func segSetGrey(seg *Segment, g traceset.TraceSet) {
	segassert.Assert(g.IsEmpty() || !seg.rankSet.IsEmpty(),
		"set_grey: grey can only be nonempty when rank_set is nonempty")
	seg.grey = g
}

func segSetWhite(seg *Segment, w traceset.TraceSet) {
	granule := seg.arena.Granularity()
	for addr := seg.Base(); addr < seg.limit; addr += granule {
		if t := seg.arena.TractOfAddr(addr); t != nil {
			t.White = w
		}
	}
	seg.white = w
}

func segSetRankSet(seg *Segment, r rankset.RankSet) {
	seg.rankSet = r
}

func segDescribe(seg *Segment) string {
	return "Segment{class=" + seg.class.Name +
		" base=" + uintptrHex(seg.Base()) +
		" limit=" + uintptrHex(seg.limit) +
		" rank=" + seg.rankSet.String() +
		" grey=" + seg.grey.String() +
		" white=" + seg.white.String() +
		" sm=" + seg.sm.String() +
		" pm=" + seg.pm.String() + "}"
}

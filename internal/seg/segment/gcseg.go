package segment

import (
	"unsafe"

	"github.com/kolkov/segkit/internal/seg/accessset"
	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/class"
	"github.com/kolkov/segkit/internal/seg/greyring"
	poolpkg "github.com/kolkov/segkit/internal/seg/pool"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/segassert"
	"github.com/kolkov/segkit/internal/seg/segevent"
	"github.com/kolkov/segkit/internal/seg/shield"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

const gcSegSig uint32 = 0x5E95EBC0

// GCSeg is the reference-tracking subclass: a Segment plus a summary,
// a buffer slot, a client data slot, and the two ring links that make
// it findable in O(1) amortised time — pool_link for "every segment
// this pool owns", grey_link for "every grey segment of this rank".
//
// GCSeg cannot use class.Extend to inherit from SegClass: Extend needs
// both classes to share the same type parameter, and *GCSeg is not
// *Segment despite embedding it. Its operation vector instead calls
// through to SegClass.Ops explicitly wherever the base behaviour still
// applies — the same next-method call Extend would have wired in
// automatically, just written out at the one place it's needed.
type GCSeg struct {
	Segment

	summary refset.RefSet
	buffer  any
	client  any

	poolLink greyring.Ring
	greyLink greyring.Ring
}

// SegGCClass is the registry entry for GCSeg.
var SegGCClass = class.New[*GCSeg]("SegGC", unsafe.Sizeof(GCSeg{}), gcSegSig, class.Ops[*GCSeg]{
	Init:           gcInit,
	Finish:         gcFinish,
	SetGrey:        gcSetGrey,
	SetWhite:       gcSetWhite,
	SetRankSet:     gcSetRankSet,
	SetRankSummary: gcSetRankSummary,
	Summary:        gcSummary,
	SetSummary:     gcSetSummary,
	Buffer:         gcBuffer,
	SetBuffer:      gcSetBuffer,
	P:              gcP,
	SetP:           gcSetP,
	Describe:       gcDescribe,
})

// AllocateGC is the entry point for pools that need full reference
// tracking: it allocates a GCSeg and runs it through SegGCClass's
// init, which attaches pool_link and sets up an empty grey_link.
func AllocateGC(a *arena.Arena, sh shield.Shield, owner *poolpkg.Pool, size uintptr) (*GCSeg, error) {
	a.Enter()
	defer a.Leave()

	granule := a.Granularity()
	if size == 0 || size%granule != 0 {
		return nil, arena.ErrBadSize(size, granule)
	}

	if err := a.ControlAlloc(SegGCClass.Size); err != nil {
		segevent.AllocFail(SegGCClass.Name, size, err)
		return nil, err
	}

	base, err := a.AllocAddr(size)
	if err != nil {
		a.ControlFree(SegGCClass.Size)
		segevent.AllocFail(SegGCClass.Name, size, err)
		return nil, err
	}

	seg := &GCSeg{}
	seg.limit = base + size
	seg.sig = SegClass.Sig
	seg.class = SegClass
	seg.arena = a
	seg.shield = sh
	seg.pool = owner

	bindTracts(a, base, size, owner, seg)
	seg.firstTract = a.TractAt(base)

	if err := SegGCClass.Ops.Init(seg, owner, base, seg.limit); err != nil {
		unbindTracts(a, base, size)
		a.FreeAddr(base, size)
		a.ControlFree(SegGCClass.Size)
		segevent.AllocFail(SegGCClass.Name, size, err)
		return nil, err
	}

	segevent.AllocOK(SegGCClass.Name, base, size)
	return seg, nil
}

// FreeGC runs a GCSeg through the same lower/finish/flush/unbind
// sequence Free uses for the base class, dispatching through
// SegGCClass instead.
func FreeGC(seg *GCSeg) {
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
	SegGCClass.Ops.Finish(seg)
	seg.rankSet = rankset.Empty
	seg.shield.Flush()
	unbindTracts(a, base, size)

	segassert.Assert(seg.depth == 0 && seg.sm == accessset.Empty && seg.pm == accessset.Empty,
		"free: depth, sm and pm must all be empty before a segment's storage is released")

	seg.sig = 0

	a.FreeAddr(base, size)
	a.ControlFree(SegGCClass.Size)
	segevent.Freed(SegGCClass.Name, base, size)
}

// The accessors below shadow the ones Segment's embedding would
// otherwise promote unchanged. Go method promotion is not virtual
// dispatch: without these, calling SetGrey on a *GCSeg would run
// Segment's trivial SetGrey instead of GCSeg's grey-ring-and-shield
// version, because a promoted method is bound to the embedded
// Segment's own class, not the outer type's.

// SetGrey dispatches to SegGCClass's set_grey.
func (g *GCSeg) SetGrey(ts traceset.TraceSet) { SegGCClass.Ops.SetGrey(g, ts) }

// SetWhite dispatches to SegGCClass's set_white.
func (g *GCSeg) SetWhite(ts traceset.TraceSet) { SegGCClass.Ops.SetWhite(g, ts) }

// SetRankSet dispatches to SegGCClass's set_rank_set.
func (g *GCSeg) SetRankSet(r rankset.RankSet) {
	segassert.Assert(r.IsValid(), "set_rank_set: a rank set must be empty or a singleton")
	SegGCClass.Ops.SetRankSet(g, r)
}

// Summary dispatches to SegGCClass's summary.
func (g *GCSeg) Summary() refset.RefSet { return SegGCClass.Ops.Summary(g) }

// SetSummary dispatches to SegGCClass's set_summary.
func (g *GCSeg) SetSummary(sum refset.RefSet) { SegGCClass.Ops.SetSummary(g, sum) }

// SetRankAndSummary dispatches to SegGCClass's fused set_rank_summary.
func (g *GCSeg) SetRankAndSummary(r rankset.RankSet, sum refset.RefSet) {
	segassert.Assert(!r.IsEmpty() || sum.IsEmpty(), "set_rank_and_summary: summary must be empty when rank set is cleared")
	SegGCClass.Ops.SetRankSummary(g, r, sum)
}

// Buffer dispatches to SegGCClass's buffer.
func (g *GCSeg) Buffer() any { return SegGCClass.Ops.Buffer(g) }

// SetBuffer dispatches to SegGCClass's set_buffer.
func (g *GCSeg) SetBuffer(buf any) { SegGCClass.Ops.SetBuffer(g, buf) }

// P dispatches to SegGCClass's p.
func (g *GCSeg) P() any { return SegGCClass.Ops.P(g) }

// SetP dispatches to SegGCClass's set_p.
func (g *GCSeg) SetP(p any) { SegGCClass.Ops.SetP(g, p) }

// Describe dispatches to SegGCClass's describe.
func (g *GCSeg) Describe() string { return SegGCClass.Ops.Describe(g) }

func gcInit(seg *GCSeg, owner arena.PoolRef, base, limit uintptr) error {
	if err := SegClass.Ops.Init(&seg.Segment, owner, base, limit); err != nil {
		return err
	}
	p, ok := owner.(*poolpkg.Pool)
	segassert.Assert(ok, "gcseg init: pool does not provide a segment ring to attach pool_link to")
	seg.poolLink.Init()
	seg.poolLink.InsertAfter(&p.Ring)
	seg.greyLink.Init()
	seg.summary = refset.Empty
	seg.buffer = nil
	seg.client = nil
	return nil
}

func gcFinish(seg *GCSeg) {
	if seg.greyLink.IsAttached() {
		seg.greyLink.Remove()
	}
	segassert.Assert(seg.buffer == nil, "gcseg finish: buffer must be nil before a segment is freed")
	seg.poolLink.Remove()
	SegClass.Ops.Finish(&seg.Segment)
}

func gcSetGrey(seg *GCSeg, g traceset.TraceSet) {
	segassert.Assert(g.IsEmpty() || !seg.rankSet.IsEmpty(),
		"set_grey: grey can only be nonempty when rank_set is nonempty")

	wasAttached := seg.greyLink.IsAttached()
	seg.grey = g

	if g.IsEmpty() {
		if wasAttached {
			seg.greyLink.Remove()
		}
	} else if !wasAttached {
		seg.greyLink.InsertAfter(seg.arena.GreyRing(seg.rankSet.Single()))
	}

	updateReadShield(seg)
}

func gcSetWhite(seg *GCSeg, w traceset.TraceSet) {
	SegClass.Ops.SetWhite(&seg.Segment, w)
}

func gcSetRankSet(seg *GCSeg, r rankset.RankSet) {
	if r.IsEmpty() {
		segassert.Assert(seg.grey.IsEmpty(), "set_rank_set: grey must be cleared before rank_set is emptied")
	}
	seg.rankSet = r
	updateWriteShield(seg)
}

func gcSetRankSummary(seg *GCSeg, r rankset.RankSet, sum refset.RefSet) {
	// Fused so no observer ever sees a state where rank_set and summary
	// disagree about whether the write shield should be up.
	if r.IsEmpty() {
		segassert.Assert(seg.grey.IsEmpty(), "set_rank_summary: grey must be cleared before rank_set is emptied")
	}
	seg.rankSet = r
	seg.summary = sum
	updateWriteShield(seg)
}

func gcSummary(seg *GCSeg) refset.RefSet {
	return seg.summary
}

func gcSetSummary(seg *GCSeg, sum refset.RefSet) {
	seg.summary = sum
	updateWriteShield(seg)
}

func gcBuffer(seg *GCSeg) any { return seg.buffer }
func gcSetBuffer(seg *GCSeg, buf any) { seg.buffer = buf }
func gcP(seg *GCSeg) any       { return seg.client }
func gcSetP(seg *GCSeg, p any) { seg.client = p }

func gcDescribe(seg *GCSeg) string {
	return SegClass.Ops.Describe(&seg.Segment) +
		" summary=" + seg.summary.String() +
		" grey_attached=" + boolStr(seg.greyLink.IsAttached()) +
		" pool_attached=" + boolStr(seg.poolLink.IsAttached())
}

// updateReadShield raises the read shield exactly when the segment is
// grey for a trace that has flipped; it lowers it otherwise.
func updateReadShield(seg *GCSeg) {
	needed := !seg.grey.Inter(seg.arena.FlippedTraces()).IsEmpty()
	setMode(seg, accessset.Read, needed)
}

// updateWriteShield raises the write shield exactly when the segment
// has a nonempty rank set and a summary that has not degraded to
// Universal; it lowers it otherwise.
func updateWriteShield(seg *GCSeg) {
	needed := !seg.rankSet.IsEmpty() && seg.summary.IsStrictSubsetOfUniversal()
	setMode(seg, accessset.Write, needed)
}

// setMode raises or lowers one access mode and keeps pm in lockstep
// with sm: this repo never models a shield-expose window where the
// mutator is let through while the logical mode stays raised, so
// "protected" and "shielded" are the same thing here. depth mirrors
// whether sm is nonempty rather than counting real expose nesting, so
// that depth == 0 ⇔ sm == ∅ ∧ pm == ∅ holds by construction and Validate
// can check it unconditionally rather than only at finish time.
func setMode(seg *GCSeg, mode accessset.AccessSet, needed bool) {
	has := seg.sm.Has(mode)
	if needed == has {
		return
	}
	base, size := seg.Base(), seg.Size()
	if needed {
		seg.shield.Raise(base, size, mode)
		seg.sm = seg.sm.Add(mode)
		seg.pm = seg.pm.Add(mode)
		segevent.ShieldRaised(base, mode.String())
	} else {
		seg.shield.Lower(base, size, mode)
		seg.sm = seg.sm.Remove(mode)
		seg.pm = seg.pm.Remove(mode)
		segevent.ShieldLowered(base, mode.String())
	}
	if seg.sm == accessset.Empty {
		seg.depth = 0
	} else {
		seg.depth = 1
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

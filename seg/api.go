// Package seg provides the public API for the segment subsystem: an
// arena-backed allocator for garbage-collector segments, plus the
// mutators pools and a tracer use to keep colour, rank, summary, and
// shield state consistent.
//
// See doc.go for an overview and example_test.go for a runnable walkthrough.
package seg

import (
	"github.com/kolkov/segkit/internal/seg/accessset"
	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/pool"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/segment"
	"github.com/kolkov/segkit/internal/seg/shield"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

// Re-exported value types callers need to build arguments for the
// mutators below, so a caller never has to import internal/seg/*.
type (
	// Rank identifies the strength of references a segment may hold.
	Rank = rankset.Rank
	// RankSet is a segment's rank set: empty or a singleton.
	RankSet = rankset.RankSet
	// RefSet is a segment's summary: a conservative approximation of
	// the zones its references point into.
	RefSet = refset.RefSet
	// TraceSet is a bitset of trace identifiers, used for grey sets
	// and the arena's flipped-traces state.
	TraceSet = traceset.TraceSet
	// AccessSet is a subset of {read, write} shield/protection modes.
	AccessSet = accessset.AccessSet
)

// Rank, RefSet, and AccessSet values a caller builds arguments from.
const (
	Ambiguous = rankset.Ambiguous
	Exact     = rankset.Exact
	Final     = rankset.Final
	Weak      = rankset.Weak

	RefEmpty     = refset.Empty
	RefUniversal = refset.Universal

	Read  = accessset.Read
	Write = accessset.Write
)

// RankOf returns the singleton rank set containing r.
func RankOf(r Rank) RankSet { return rankset.Of(r) }

// TraceOf returns the singleton trace set containing id.
func TraceOf(id uint) TraceSet { return traceset.Of(id) }

// Arena is the address-space context segments are allocated from. One
// Arena owns one tract map, one set of per-rank grey rings, and the
// arena-entered lock. Allocate and Free take that lock themselves; the
// mutators, accessors, and lookups in this package do not take it.
type Arena struct {
	a  *arena.Arena
	sh shield.Shield
}

// ArenaConfig configures a new Arena.
type ArenaConfig struct {
	// GranuleSize is the alignment unit segments and tracts are
	// measured in. Zero picks the host's page size, the way
	// tools/calc_granule_size.go reports it.
	GranuleSize uintptr
	// Size is the total size of the address space the arena manages.
	// Zero picks a 64MiB default, large enough for the examples and
	// test suite without being a meaningful memory commitment.
	Size uintptr
	// ControlBudget bounds the control allocator used for segment
	// class headers. Zero means unbounded.
	ControlBudget uintptr
}

// NewArena creates an Arena with the given configuration and shield
// backend. A nil Shield is replaced with the platform default: a real
// mmap/mprotect-backed shield on unix, a pure-accounting one elsewhere.
func NewArena(cfg ArenaConfig, sh shield.Shield) *Arena {
	if sh == nil {
		sh = defaultShield()
	}
	return &Arena{
		a: arena.New(arena.Config{
			GranuleSize:   cfg.GranuleSize,
			Size:          cfg.Size,
			ControlBudget: cfg.ControlBudget,
		}),
		sh: sh,
	}
}

// Granularity returns the arena's alignment unit.
func (ar *Arena) Granularity() uintptr { return ar.a.Granularity() }

// SetFlippedTraces records which traces have flipped (passed the point
// at which mutator roots were blackened). Grey segments for a flipped
// trace require a read barrier; see SetGrey. SetFlippedTraces does not
// revisit segments that are already grey: a segment's read shield is
// re-evaluated against the flipped set on its next SetGrey call.
func (ar *Arena) SetFlippedTraces(ts TraceSet) { ar.a.SetFlippedTraces(ts) }

// FlippedTraces returns the arena's current flipped-traces set.
func (ar *Arena) FlippedTraces() TraceSet { return ar.a.FlippedTraces() }

// Pool groups segments under a common allocation policy. A Pool belongs
// to exactly one Arena for its lifetime.
type Pool struct {
	p *pool.Pool
}

// NewPool creates an empty pool identified by id. Callers are
// responsible for id uniqueness within an Arena.
func NewPool(id uint64) *Pool {
	return &Pool{p: pool.New(id)}
}

// SegmentCount returns the number of segments currently allocated from
// this pool.
func (p *Pool) SegmentCount() int { return p.p.SegmentCount() }

// Segment is a contiguous, tract-aligned range of address space with
// collector-visible colour, rank, summary, and shield state. Every
// Segment returned by this package is a reference-tracking segment —
// Allocate always builds the GC-capable class, since the interesting
// public operations (Summary, SetSummary, SetRankAndSummary, Buffer)
// only apply to it; a caller that truly wants the narrower base class
// can reach internal/seg/segment directly, but nothing in this package
// exposes that path.
type Segment = segment.Generic

// Allocate acquires size bytes of address space from ar for owner,
// binds every tract in the range to a new segment, and returns it with
// an empty colour, rank, and summary. size must be a positive multiple
// of ar.Granularity(); allocation failure (address space exhaustion or
// control-allocator budget exhaustion) is returned as an error, never a
// partially constructed Segment.
func Allocate(ar *Arena, owner *Pool, size uintptr) (Segment, error) {
	return segment.AllocateGC(ar.a, ar.sh, owner.p, size)
}

// Free lowers any raised shield itself (sm, pm and depth are reset to
// empty), runs the segment's finish operation (which detaches it from
// its grey ring and its pool's ring), unbinds every tract, and releases
// its address range and class storage. Free panics (via a fatal
// assertion, not a returned error) if the segment still has an
// allocation buffer attached.
func Free(s Segment) {
	segment.FreeGC(s.(*segment.GCSeg))
}

// SetGrey sets the segment's grey set, updating its grey-ring linkage
// and read-shield state to match. Precondition: g must be empty unless
// the segment's rank set is nonempty.
func SetGrey(s Segment, g TraceSet) { s.SetGrey(g) }

// SetWhite sets the segment's white set, on the segment and on every
// tract it covers.
func SetWhite(s Segment, w TraceSet) { s.SetWhite(w) }

// SetRankSet sets the segment's rank set. Precondition: r must be empty
// or a singleton, and the caller must have already cleared the
// segment's summary in the direction that would otherwise violate the
// empty-rank-implies-empty-summary invariant; SetRankAndSummary avoids
// that precondition entirely by changing both fields atomically.
func SetRankSet(s Segment, r RankSet) { s.SetRankSet(r) }

// Summary returns the segment's current summary.
func Summary(s Segment) RefSet { return s.Summary() }

// SetSummary sets the segment's summary, raising or lowering the write
// shield as the summary crosses to or from Universal. Precondition:
// the segment's rank set must be nonempty.
func SetSummary(s Segment, sum RefSet) { s.SetSummary(sum) }

// SetRankAndSummary sets the segment's rank set and summary together,
// the atomic form that never exposes an intermediate state where the
// two fields disagree about whether the write shield should be raised.
// Precondition: r empty implies sum empty.
func SetRankAndSummary(s Segment, r RankSet, sum RefSet) { s.SetRankAndSummary(r, sum) }

// Buffer returns the segment's attached allocation buffer, or nil.
func Buffer(s Segment) any { return s.Buffer() }

// SetBuffer attaches an allocation buffer to the segment, or clears it
// with a nil argument.
func SetBuffer(s Segment, buf any) { s.SetBuffer(buf) }

// P returns the segment's opaque client slot.
func P(s Segment) any { return s.P() }

// SetP sets the segment's opaque client slot.
func SetP(s Segment, p any) { s.SetP(p) }

// Describe returns a human-readable dump of the segment's state.
func Describe(s Segment) string { return s.Describe() }

// SegOf returns the segment covering addr in ar, if any.
func SegOf(ar *Arena, addr uintptr) (Segment, bool) { return segment.SegOf(ar.a, addr) }

// First returns the lowest-addressed segment in ar, if one exists.
func First(ar *Arena) (Segment, bool) { return segment.First(ar.a) }

// Next returns the segment immediately above cur in the same arena, if
// one exists.
func Next(ar *Arena, cur Segment) (Segment, bool) { return segment.Next(ar.a, cur) }

// Validate checks the structural invariants that must hold for any
// live segment: a well-formed address range, grey only nonempty while
// ranked, the shield mode a subset of the protection mode, and depth
// zero iff both modes are empty. It returns the first violation found,
// or nil if s is consistent.
func Validate(s Segment) error { return segment.Validate(s) }

func defaultGranuleSize() uintptr { return arena.DefaultConfig().GranuleSize }

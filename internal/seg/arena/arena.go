// Package arena implements the tract map and the simulated address-space
// allocator backing the segment subsystem: AllocAddr/FreeAddr over a
// flat address space, plus TractOfAddr/TractFirst/TractNext lookups.
//
// Segments normally treat their arena as an opaque consumed interface;
// this repo ships one concrete implementation so the segment layer has
// a real arena to allocate from in its tests, the CLI and the examples.
// The free-address bookkeeping is the first-fit extent list every
// mheap-shaped allocator implements over real OS memory; here it walks
// a simulated flat address space instead of asking the OS for pages,
// because nothing above this layer needs the addresses to be real except
// the shield backend, which does its own reservation.
package arena

import (
	"os"
	"sort"
	"sync"

	"github.com/kolkov/segkit/internal/seg/gid"
	"github.com/kolkov/segkit/internal/seg/greyring"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

// Config configures a simulated Arena.
type Config struct {
	// GranuleSize is the arena's alignment unit. Segments and tracts are
	// always granule-aligned and granule-sized multiples. Defaults to the
	// host's page size, picked the way tools/calc_granule_size.go reports it.
	GranuleSize uintptr

	// Size is the total size of the simulated address space.
	Size uintptr

	// ControlBudget bounds the simulated control allocator used for
	// segment class headers. Zero means unbounded.
	ControlBudget uintptr
}

// DefaultConfig returns a Config with sensible defaults: one page of
// granularity and a 64MiB simulated address space.
func DefaultConfig() Config {
	return Config{
		GranuleSize: uintptr(os.Getpagesize()),
		Size:        1 << 26,
	}
}

type extent struct {
	base, size uintptr
}

// Arena owns a simulated address space, its tract map, and the
// arena-global collector state (flipped traces, per-rank grey rings).
// All mutation goes through Enter/Leave, the "arena-entered" exclusive
// recursive lock every segment operation is required to hold.
type Arena struct {
	granule uintptr
	base    uintptr // base address of the simulated space
	limit   uintptr

	mu          sync.Mutex
	cond        *sync.Cond
	ownerGID    int64 // goroutine ID currently holding the lock; 0 means unheld
	depth       int   // recursion depth for ownerGID
	free        []extent
	tracts      map[uintptr]*Tract // keyed by granule-aligned address
	flipped     traceset.TraceSet
	greyRings   [rankset.Count]greyring.Ring
	controlUsed uintptr
	controlCap  uintptr // 0 means unbounded
}

// New creates a simulated Arena from cfg, filling in defaults for any
// zero fields.
func New(cfg Config) *Arena {
	if cfg.GranuleSize == 0 {
		cfg.GranuleSize = uintptr(os.Getpagesize())
	}
	if cfg.Size == 0 {
		cfg.Size = 1 << 26
	}
	// A nonzero, arbitrary-looking base makes bugs that assume addr==0
	// means "unset" visible immediately in tests.
	base := uintptr(0x10_0000_0000)
	a := &Arena{
		granule:    cfg.GranuleSize,
		base:       base,
		limit:      base + cfg.Size,
		tracts:     make(map[uintptr]*Tract),
		controlCap: cfg.ControlBudget,
	}
	a.free = []extent{{base: base, size: cfg.Size}}
	a.cond = sync.NewCond(&a.mu)
	for r := range a.greyRings {
		a.greyRings[r].Init()
	}
	return a
}

// Granularity returns the arena's alignment unit.
func (a *Arena) Granularity() uintptr {
	return a.granule
}

// Enter acquires the arena's exclusive lock. The lock is recursive: a
// goroutine that already holds it may call Enter again, from a nested
// class init/finish callback or from a shield trap handler running on
// the entering goroutine's own stack, without deadlocking against
// itself. Every Enter must be matched by a Leave.
//
// mu guards only the ownerGID/depth metadata, never the critical
// section a caller runs between Enter and Leave — holding mu across
// that section is what makes a plain sync.Mutex non-reentrant: the
// owner's own nested Enter would then block on mu forever, since it
// is the one holding it. A non-owning goroutine instead waits on cond,
// which Leave signals once depth drops to zero.
func (a *Arena) Enter() {
	g := gid.Current()
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.depth > 0 && a.ownerGID != g {
		a.cond.Wait()
	}
	a.ownerGID = g
	a.depth++
}

// Leave releases one level of the arena lock.
func (a *Arena) Leave() {
	a.mu.Lock()
	a.depth--
	if a.depth == 0 {
		a.ownerGID = 0
		a.cond.Signal()
	}
	a.mu.Unlock()
}

// AllocAddr reserves size bytes of address space, first-fit, and returns
// the base address. size must already be granule-aligned; callers
// (internal/seg/segment) are responsible for that.
func (a *Arena) AllocAddr(size uintptr) (uintptr, error) {
	for i, e := range a.free {
		if e.size < size {
			continue
		}
		base := e.base
		if e.size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = extent{base: e.base + size, size: e.size - size}
		}
		return base, nil
	}
	return 0, ErrOutOfMemory(size)
}

// FreeAddr returns [base, base+size) to the free extent list, coalescing
// with adjacent extents so repeated alloc/free cycles don't fragment the
// simulated space into unusable slivers — the same coalescing every
// mheap-shaped free list in the retrieved examples performs on span
// return.
func (a *Arena) FreeAddr(base, size uintptr) {
	a.free = append(a.free, extent{base: base, size: size})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].base < a.free[j].base })

	merged := a.free[:1]
	for _, e := range a.free[1:] {
		last := &merged[len(merged)-1]
		if last.base+last.size == e.base {
			last.size += e.size
		} else {
			merged = append(merged, e)
		}
	}
	a.free = merged
}

// ControlAlloc simulates allocating size bytes from the control pool used
// for segment class headers. In this Go implementation the header is
// really just the Go struct the caller already allocated; ControlAlloc
// exists so a control-budget exhaustion failure (a "commit limit" error)
// is reachable and testable without needing a real bump allocator
// underneath every segment header.
func (a *Arena) ControlAlloc(size uintptr) error {
	if a.controlCap != 0 && a.controlUsed+size > a.controlCap {
		return ErrCommitLimit(size)
	}
	a.controlUsed += size
	return nil
}

// ControlFree releases size bytes previously reserved by ControlAlloc.
func (a *Arena) ControlFree(size uintptr) {
	if size > a.controlUsed {
		a.controlUsed = 0
		return
	}
	a.controlUsed -= size
}

// FlippedTraces returns the arena-global set of traces past their flip
// point, consumed by the read-barrier rule: a segment needs its read
// shield raised whenever it is grey for a trace that has flipped.
func (a *Arena) FlippedTraces() traceset.TraceSet {
	return a.flipped
}

// SetFlippedTraces updates the arena-global flipped-trace set. Only the
// tracer (or, in this repo, tests and the CLI standing in for it) calls
// this; the segment layer only reads it.
func (a *Arena) SetFlippedTraces(ts traceset.TraceSet) {
	a.flipped = ts
}

// GreyRing returns the sentinel node for rank r's grey ring, the
// per-rank ring a trace's grey-work search walks: a segment with a
// nonempty, singleton rank set threads its grey_link into the ring for
// that rank whenever it turns grey.
func (a *Arena) GreyRing(r rankset.Rank) *greyring.Ring {
	return &a.greyRings[r]
}

// Package seg is the public entry point to the segment subsystem: the
// layer between a raw arena allocator and the pools and tracer of a
// garbage collector. A segment is a contiguous, arena-aligned range of
// address space carrying colour, rank, summary, and shield state.
//
// # Quick start
//
//	ar := seg.NewArena(seg.ArenaConfig{}, nil)
//	pool := seg.NewPool(1)
//
//	s, err := seg.Allocate(ar, pool, 4*ar.Granularity())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer seg.Free(s)
//
//	seg.SetRankAndSummary(s, seg.RankOf(seg.Exact), seg.RefUniversal)
//
// # Colour, rank, and the write barrier
//
// A segment's rank set says what kind of references it may hold
// (ambiguous, exact, final, weak — see [RankOf]); its summary is a
// conservative approximation of which zones those references point
// into. The write shield comes up exactly when the rank set is
// nonempty and the summary is not Universal — a Universal summary
// carries no information worth protecting. [SetRankAndSummary] changes
// both fields atomically so no observer ever sees them disagree about
// which side of that rule the segment is on; [SetRankSet] and
// [SetSummary] exist for the cases where only one field moves, and
// each carries the precondition that keeps the other field consistent
// across the call.
//
// # Grey sets and the read barrier
//
// [SetGrey] attaches or detaches the segment from its arena's per-rank
// grey ring and raises or lowers the read shield to match whether the
// segment's grey set overlaps the arena's flipped traces
// ([Arena.SetFlippedTraces]). A segment is grey for a trace if it may
// still contain untraced references for that trace; once the trace has
// flipped (mutator roots blackened), a grey segment needs its reads
// trapped so the collector can intervene before the mutator observes a
// stale reference.
//
// # Allocation and classes
//
// [Allocate] always builds the reference-tracking segment class: the
// base class with no summary or grey-ring support exists in
// internal/seg/segment for pool kinds that genuinely have no reference
// metadata to track, but every operation this package exposes beyond
// colour and shield state only makes sense on the GC-capable class, so
// that is the only one reachable from here.
package seg

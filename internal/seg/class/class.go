// Package class implements the segment class registry: an immutable,
// per-class operation vector with single inheritance and "next method"
// delegation.
//
// A class is generic over the concrete segment type it operates on
// (Class[S]) rather than over an untyped pointer, so the thirteen
// operation slots keep their real argument and return types instead of
// degrading into an any-typed dispatch table. This package has no
// dependency on internal/seg/segment — it sits below it in the
// dependency order, and segment instantiates Class[*Segment] and
// Class[*GCSeg] for its two built-in classes.
package class

import (
	"fmt"

	"github.com/kolkov/segkit/internal/seg/arena"
	"github.com/kolkov/segkit/internal/seg/rankset"
	"github.com/kolkov/segkit/internal/seg/refset"
	"github.com/kolkov/segkit/internal/seg/traceset"
)

// Ops is a segment class's operation vector: the thirteen slots a class
// definition fills in, copied by value so inheritance is a plain struct
// copy followed by selective overrides.
type Ops[S any] struct {
	Init           func(seg S, pool arena.PoolRef, base, limit uintptr) error
	Finish         func(seg S)
	SetGrey        func(seg S, g traceset.TraceSet)
	SetWhite       func(seg S, w traceset.TraceSet)
	SetRankSet     func(seg S, r rankset.RankSet)
	SetRankSummary func(seg S, r rankset.RankSet, s refset.RefSet)
	Summary        func(seg S) refset.RefSet
	SetSummary     func(seg S, s refset.RefSet)
	Buffer         func(seg S) any
	SetBuffer      func(seg S, buf any)
	P              func(seg S) any
	SetP           func(seg S, p any)
	Describe       func(seg S) string
}

// Class is an immutable per-class record: a name, a struct size (the
// class's segments must be at least this big), a signature stamped onto
// every instance, an optional parent for single inheritance, and the
// resolved operation vector.
type Class[S any] struct {
	Name   string
	Size   uintptr
	Sig    uint32
	Parent *Class[S]
	Ops    Ops[S]
}

// New defines a root class with no parent. Any operation slot left
// unset in ops is filled with a not-reached stub: calling it is a
// programming error, since the base class declares the operation
// inapplicable.
func New[S any](name string, size uintptr, sig uint32, ops Ops[S]) *Class[S] {
	return &Class[S]{
		Name: name,
		Size: size,
		Sig:  sig,
		Ops:  fillNotReached(name, ops),
	}
}

// Extend defines a subclass of parent. Every slot parent supplies is
// inherited; ops overrides only the slots it sets. An override can call
// parent.Ops.X(seg, ...) itself — the "next method" idiom — before or
// after its own work; this package never does that call implicitly.
func Extend[S any](parent *Class[S], name string, size uintptr, sig uint32, ops Ops[S]) *Class[S] {
	merged := parent.Ops
	if ops.Init != nil {
		merged.Init = ops.Init
	}
	if ops.Finish != nil {
		merged.Finish = ops.Finish
	}
	if ops.SetGrey != nil {
		merged.SetGrey = ops.SetGrey
	}
	if ops.SetWhite != nil {
		merged.SetWhite = ops.SetWhite
	}
	if ops.SetRankSet != nil {
		merged.SetRankSet = ops.SetRankSet
	}
	if ops.SetRankSummary != nil {
		merged.SetRankSummary = ops.SetRankSummary
	}
	if ops.Summary != nil {
		merged.Summary = ops.Summary
	}
	if ops.SetSummary != nil {
		merged.SetSummary = ops.SetSummary
	}
	if ops.Buffer != nil {
		merged.Buffer = ops.Buffer
	}
	if ops.SetBuffer != nil {
		merged.SetBuffer = ops.SetBuffer
	}
	if ops.P != nil {
		merged.P = ops.P
	}
	if ops.SetP != nil {
		merged.SetP = ops.SetP
	}
	if ops.Describe != nil {
		merged.Describe = ops.Describe
	}
	return &Class[S]{Name: name, Size: size, Sig: sig, Parent: parent, Ops: merged}
}

// IsA reports whether c descends from (or equals) ancestor, walking the
// single-inheritance parent chain.
func (c *Class[S]) IsA(ancestor *Class[S]) bool {
	for cls := c; cls != nil; cls = cls.Parent {
		if cls == ancestor {
			return true
		}
	}
	return false
}

func fillNotReached[S any](name string, ops Ops[S]) Ops[S] {
	if ops.Init == nil {
		ops.Init = func(S, arena.PoolRef, uintptr, uintptr) error {
			notReached(name, "init")
			return nil
		}
	}
	if ops.Finish == nil {
		ops.Finish = func(S) { notReached(name, "finish") }
	}
	if ops.SetGrey == nil {
		ops.SetGrey = func(S, traceset.TraceSet) { notReached(name, "set_grey") }
	}
	if ops.SetWhite == nil {
		ops.SetWhite = func(S, traceset.TraceSet) { notReached(name, "set_white") }
	}
	if ops.SetRankSet == nil {
		ops.SetRankSet = func(S, rankset.RankSet) { notReached(name, "set_rank_set") }
	}
	if ops.SetRankSummary == nil {
		ops.SetRankSummary = func(S, rankset.RankSet, refset.RefSet) { notReached(name, "set_rank_summary") }
	}
	if ops.Summary == nil {
		ops.Summary = func(S) refset.RefSet { notReached(name, "summary"); return refset.Empty }
	}
	if ops.SetSummary == nil {
		ops.SetSummary = func(S, refset.RefSet) { notReached(name, "set_summary") }
	}
	if ops.Buffer == nil {
		ops.Buffer = func(S) any { notReached(name, "buffer"); return nil }
	}
	if ops.SetBuffer == nil {
		ops.SetBuffer = func(S, any) { notReached(name, "set_buffer") }
	}
	if ops.P == nil {
		ops.P = func(S) any { notReached(name, "p"); return nil }
	}
	if ops.SetP == nil {
		ops.SetP = func(S, any) { notReached(name, "set_p") }
	}
	if ops.Describe == nil {
		ops.Describe = func(S) string { notReached(name, "describe"); return "" }
	}
	return ops
}

func notReached(className, op string) {
	panic(fmt.Sprintf("class %s: operation %q is not applicable to this class", className, op))
}

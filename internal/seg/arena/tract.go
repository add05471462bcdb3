package arena

import "github.com/kolkov/segkit/internal/seg/traceset"

// PoolRef is the minimal view of a pool the arena needs: just enough to
// compare "does this tract belong to that pool". Arena cannot import the
// pool package (pool owns segments, segments own tracts, tracts would
// need to import pool right back), so it only depends on this narrow
// interface rather than the concrete type.
type PoolRef interface {
	PoolID() uint64
}

// SegRef is a weak back-pointer from a tract to the segment covering it;
// it is not ownership. Arena stores it as this narrow interface rather
// than a concrete *segment.Segment to avoid importing the segment
// package.
type SegRef interface {
	SegBase() uintptr
}

// Tract is the arena-granule-sized record the tract map indexes by
// address. It is external to the segment layer proper but owned by this
// arena package so the module has a concrete tract map to allocate
// segments against.
type Tract struct {
	Base   uintptr
	Pool   PoolRef
	Seg    SegRef
	HasSeg bool
	White  traceset.TraceSet
	Client any
}

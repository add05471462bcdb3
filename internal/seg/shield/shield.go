// Package shield implements the protection interface consumed by the
// segment layer: Raise/Lower/Flush translate a segment's shield-mode
// changes into real (or simulated) page protection.
//
// The segment layer treats its backend as opaque; this package supplies
// two concrete implementations: UnixShield, a real mmap/mprotect backend
// built only under the unix build tag, and SimulatedShield, a
// pure-accounting backend available on every platform.
package shield

import "github.com/kolkov/segkit/internal/seg/accessset"

// Shield raises and lowers access barriers over byte ranges of a backing
// region. Raise(mode) on a range removes the modes in `mode` from what the
// mutator may do to that range (so raising Write means writes now trap);
// Lower restores them. Flush drains any deferred protection changes — on
// a real mmap backend this is where batched mprotect calls would actually
// be issued if this package buffered them (it doesn't, but the hook keeps
// parity with a segment free sequence that always lowers, finishes,
// flushes, then unbinds, in that order).
type Shield interface {
	// Reserve backs [base, base+size) with usable memory and returns the
	// address of that memory. The segment layer does not call it: a
	// segment's address range comes from the arena, not from Reserve.
	Reserve(size uintptr) (base uintptr, err error)

	// Release returns memory reserved by Reserve.
	Release(base, size uintptr)

	// Raise removes the given access modes from the range, so that
	// subsequent accesses of those modes trap.
	Raise(base, size uintptr, mode accessset.AccessSet)

	// Lower restores the given access modes to the range.
	Lower(base, size uintptr, mode accessset.AccessSet)

	// Flush drains any buffered protection changes for this shield.
	Flush()
}

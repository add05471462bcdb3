//go:build unix

package seg

import "github.com/kolkov/segkit/internal/seg/shield"

// defaultShield picks the real mmap/mprotect-backed shield on unix.
// Segment address ranges come from the arena rather than from the
// shield's Reserve, so raising or lowering a segment's shield through
// this backend changes no real page protection.
func defaultShield() shield.Shield {
	return shield.NewUnixShield()
}

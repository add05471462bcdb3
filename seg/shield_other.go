//go:build !unix

package seg

import "github.com/kolkov/segkit/internal/seg/shield"

// defaultShield falls back to pure accounting on platforms without a
// real mprotect-backed implementation.
func defaultShield() shield.Shield {
	return shield.NewSimulatedShield()
}

//go:build !unix

package shield

import (
	"testing"

	"github.com/kolkov/segkit/internal/seg/accessset"
)

func newTestShield() (Shield, func(base uintptr) accessset.AccessSet) {
	s := NewSimulatedShield()
	return s, s.Barred
}

func TestSimulatedShieldReserveRaiseLower(t *testing.T) {
	s, barred := newTestShield()

	base, err := s.Reserve(4096)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	defer s.Release(base, 4096)

	s.Raise(base, 4096, accessset.Read)
	if !barred(base).Has(accessset.Read) {
		t.Fatalf("Read not reported as barred after Raise")
	}

	s.Lower(base, 4096, accessset.Read)
	if barred(base).Has(accessset.Read) {
		t.Fatalf("Read still reported as barred after Lower")
	}
}

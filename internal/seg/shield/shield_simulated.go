package shield

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/segkit/internal/seg/accessset"
)

// SimulatedShield is a pure-accounting Shield: it tracks which access
// modes are currently barred per region without ever faulting a real
// access, the same "behaviourally equivalent, no OS calls" trade the
// teacher's goid_fallback.go makes when assembly goroutine-ID extraction
// isn't available for a platform. Available on every platform (not just
// non-unix ones) so callers — including the segment package's own
// tests — can exercise barrier bookkeeping without depending on a real
// mprotect backend being present.
type SimulatedShield struct {
	nextBase atomic.Uintptr
	mu       sync.Mutex
	barred   map[uintptr]accessset.AccessSet
	sizes    map[uintptr]uintptr
}

// NewSimulatedShield returns a Shield that accounts for raises/lowers
// without touching real memory protection.
func NewSimulatedShield() *SimulatedShield {
	s := &SimulatedShield{barred: make(map[uintptr]accessset.AccessSet), sizes: make(map[uintptr]uintptr)}
	s.nextBase.Store(0x10000)
	return s
}

func (s *SimulatedShield) Reserve(size uintptr) (uintptr, error) {
	base := s.nextBase.Add(size) - size
	s.mu.Lock()
	s.sizes[base] = size
	s.barred[base] = accessset.Empty
	s.mu.Unlock()
	return base, nil
}

func (s *SimulatedShield) Release(base, _ uintptr) {
	s.mu.Lock()
	delete(s.barred, base)
	delete(s.sizes, base)
	s.mu.Unlock()
}

func (s *SimulatedShield) Raise(base, _ uintptr, mode accessset.AccessSet) {
	s.mu.Lock()
	s.barred[base] = s.barred[base].Add(mode)
	s.mu.Unlock()
}

func (s *SimulatedShield) Lower(base, _ uintptr, mode accessset.AccessSet) {
	s.mu.Lock()
	s.barred[base] = s.barred[base].Remove(mode)
	s.mu.Unlock()
}

func (s *SimulatedShield) Flush() {}

// Barred reports which access modes are currently barred for base, for
// tests that want to observe SimulatedShield's bookkeeping directly.
func (s *SimulatedShield) Barred(base uintptr) accessset.AccessSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.barred[base]
}

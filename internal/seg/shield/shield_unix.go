//go:build unix

package shield

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/kolkov/segkit/internal/seg/accessset"
)

// UnixShield backs ranges obtained from Reserve with real anonymous
// mmap'd pages and raises or lowers barriers on them with
// golang.org/x/sys/unix.Mprotect, so a trapped access genuinely faults
// rather than being simulated. Raise and Lower on a base that Reserve
// did not return (such as a segment's arena address) do nothing. This
// is the same unix.Mprotect/unix.Msync family joshuapare-hivekit's
// hive/dirty/flush_unix.go reaches for to manage real pages; the segment
// layer needs write-protection rather than msync, so it calls Mprotect
// instead.
type UnixShield struct {
	mu      sync.Mutex
	regions map[uintptr][]byte          // base -> mmap'd slice, keyed for Release/Mprotect re-slicing
	barred  map[uintptr]accessset.AccessSet // base -> modes currently barred, for introspection in tests
}

// NewUnixShield returns a Shield backed by real page protection.
func NewUnixShield() *UnixShield {
	return &UnixShield{
		regions: make(map[uintptr][]byte),
		barred:  make(map[uintptr]accessset.AccessSet),
	}
}

func (s *UnixShield) Reserve(size uintptr) (uintptr, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("shield: mmap %d bytes: %w", size, err)
	}
	base := uintptr(unsafe.Pointer(&data[0]))

	s.mu.Lock()
	s.regions[base] = data
	s.mu.Unlock()
	return base, nil
}

func (s *UnixShield) Release(base, _ uintptr) {
	s.mu.Lock()
	data, ok := s.regions[base]
	delete(s.regions, base)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = unix.Munmap(data)
}

func (s *UnixShield) Raise(base, size uintptr, mode accessset.AccessSet) {
	s.protect(base, size, mode, true)
}

func (s *UnixShield) Lower(base, size uintptr, mode accessset.AccessSet) {
	s.protect(base, size, mode, false)
}

// protect updates the region's set of barred modes and recomputes the
// PROT_* bits from it. A barred Write means the region loses PROT_WRITE;
// a barred Read means it loses PROT_READ entirely (a read trap has to
// fault on read, so the page can carry no access at all). Lowering one
// mode restores full read/write access only once no mode is barred; with
// Write still barred the region stays read-only. The protection applies
// to the whole region, the OS's page granularity.
func (s *UnixShield) protect(base, size uintptr, mode accessset.AccessSet, raising bool) {
	s.mu.Lock()
	data, ok := s.regions[base]
	s.mu.Unlock()
	if !ok || len(data) == 0 {
		return
	}

	s.mu.Lock()
	cur := s.barred[base]
	if raising {
		cur = cur.Add(mode)
	} else {
		cur = cur.Remove(mode)
	}
	s.barred[base] = cur
	s.mu.Unlock()

	prot := unix.PROT_READ | unix.PROT_WRITE
	if cur.Has(accessset.Read) {
		prot = unix.PROT_NONE
	} else if cur.Has(accessset.Write) {
		prot = unix.PROT_READ
	}
	_ = unix.Mprotect(data[:size], prot)
}

func (s *UnixShield) Flush() {}

// Barred reports which access modes are currently barred for base, for
// tests that want to observe UnixShield's bookkeeping directly.
func (s *UnixShield) Barred(base uintptr) accessset.AccessSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.barred[base]
}

package arena

// The tract map is keyed by granule-aligned address, one cell per
// granule rather than one cell per byte. It is a plain map, not a
// sync.Map, and none of the functions here take the Arena's lock: the
// segment package adds tracts to it only from Allocate/AllocateGC,
// which hold that lock, while lookups (TractOfAddr, TractFirst,
// TractNext) read it under whatever locking their caller provides.

// TractAt returns the tract covering addr, creating it (unbound) if it
// does not exist yet. Only AllocAddr'd ranges should ever be queried this
// way; callers are expected to hold the arena lock.
func (a *Arena) TractAt(addr uintptr) *Tract {
	base := a.alignDown(addr)
	t, ok := a.tracts[base]
	if !ok {
		t = &Tract{Base: base}
		a.tracts[base] = t
	}
	return t
}

// TractOfAddr returns the tract at addr if one has been materialized, or
// nil. This is the read-only counterpart to TractAt used by lookups that
// must not conjure tracts for addresses nothing has touched.
func (a *Arena) TractOfAddr(addr uintptr) *Tract {
	return a.tracts[a.alignDown(addr)]
}

// TractFirst returns the lowest-addressed tract in the arena, or nil if
// none exist.
func (a *Arena) TractFirst() *Tract {
	return a.TractNext(a.base - a.granule)
}

// TractNext returns the tract immediately after the one based at addr, in
// address order, or nil if addr's tract is the last one materialized.
func (a *Arena) TractNext(addr uintptr) *Tract {
	best := uintptr(0)
	var found *Tract
	for base, t := range a.tracts {
		if base > addr && (found == nil || base < best) {
			best = base
			found = t
		}
	}
	return found
}

func (a *Arena) alignDown(addr uintptr) uintptr {
	return addr - (addr-a.base)%a.granule
}

// Package memory accounts for the OpenCV matrices the engine allocates, so a
// run can report native memory that was never released.
package memory

import (
	"sync"
)

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PeakBytes      int64
}

// InUse is the number of bytes allocated and not yet released.
func (s Stats) InUse() int64 { return s.TotalAllocated - s.TotalReleased }

type Tracker struct {
	mu          sync.Mutex
	allocations map[uint64]int64
	byTag       map[string]int64
	stats       Stats
}

func NewTracker() *Tracker {
	return &Tracker{
		allocations: make(map[uint64]int64),
		byTag:       make(map[string]int64),
	}
}

func (t *Tracker) TrackAllocation(id uint64, size int64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.allocations[id] = size
	t.byTag[tag]++
	t.stats.TotalAllocated += size
	t.stats.ActiveMats++
	t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.InUse())
}

// TrackDeallocation releases id. A size larger than the one recorded at
// allocation (an output Mat OpenCV filled in) is counted as allocated first,
// so PeakBytes covers output Mats too.
func (t *Tracker) TrackDeallocation(id uint64, size int64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recorded, ok := t.allocations[id]
	if !ok {
		return
	}
	if size > recorded {
		t.stats.TotalAllocated += size - recorded
		t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.InUse())
	} else {
		size = recorded
	}
	delete(t.allocations, id)
	t.byTag[tag]--
	if t.byTag[tag] == 0 {
		delete(t.byTag, tag)
	}
	t.stats.TotalReleased += size
	t.stats.ActiveMats--
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Leaks returns the number of live Mats per allocation tag.
func (t *Tracker) Leaks() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaks := make(map[string]int64, len(t.byTag))
	for tag, n := range t.byTag {
		leaks[tag] = n
	}
	return leaks
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.TrackAllocation(1, 100, "image")
	tr.TrackAllocation(2, 50, "mask")
	tr.TrackAllocation(3, 10, "image")

	s := tr.Stats()
	assert.Equal(t, int64(3), s.ActiveMats)
	assert.Equal(t, int64(160), s.InUse())
	assert.Equal(t, map[string]int64{"image": 2, "mask": 1}, tr.Leaks())

	tr.TrackDeallocation(1, 100, "image")
	tr.TrackDeallocation(2, 50, "mask")
	tr.TrackDeallocation(2, 50, "mask") // second release is ignored

	s = tr.Stats()
	assert.Equal(t, int64(1), s.ActiveMats)
	assert.Equal(t, int64(10), s.InUse())
	assert.Equal(t, int64(160), s.PeakBytes)
	assert.Equal(t, map[string]int64{"image": 1}, tr.Leaks())

	tr.TrackDeallocation(3, 10, "image")
	assert.Empty(t, tr.Leaks())
	assert.Zero(t, tr.Stats().InUse())
}

func TestTrackerCountsOutputGrowth(t *testing.T) {
	tr := NewTracker()
	tr.TrackAllocation(1, 100, "input")
	tr.TrackAllocation(2, 0, "output")

	// The output was filled by OpenCV before being released.
	tr.TrackDeallocation(2, 300, "output")
	s := tr.Stats()
	assert.Equal(t, int64(400), s.TotalAllocated)
	assert.Equal(t, int64(400), s.PeakBytes)
	assert.Equal(t, int64(100), s.InUse())

	tr.TrackDeallocation(1, 100, "input")
	assert.Zero(t, tr.Stats().InUse())
	assert.Empty(t, tr.Leaks())
}

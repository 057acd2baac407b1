package pipeline

import (
	"time"
)

// TransformStats aggregates the cells of one transform.
type TransformStats struct {
	Name      string
	Succeeded int
	Failed    int
	Total     time.Duration
}

// Mean is the average time spent per attempted cell.
func (t TransformStats) Mean() time.Duration {
	n := t.Succeeded + t.Failed
	if n == 0 {
		return 0
	}
	return t.Total / time.Duration(n)
}

// Summary is the outcome of a run. It is produced even when cells failed or
// the run was interrupted.
type Summary struct {
	Engine string
	Seed   uint64

	PairsSeen      int
	PairsProcessed int
	PairsSkipped   int

	CellsTotal     int
	CellsSucceeded int
	CellsFailed    int
	// CellsSkipped counts the cells of skipped pairs and the cells never
	// reached because the run was interrupted.
	CellsSkipped int

	BytesWritten int64
	Elapsed      time.Duration
	Interrupted  bool

	Transforms []TransformStats
}

func newSummary(engine string, seed uint64, transforms []string) *Summary {
	s := &Summary{Engine: engine, Seed: seed, Transforms: make([]TransformStats, len(transforms))}
	for i, name := range transforms {
		s.Transforms[i].Name = name
	}
	return s
}

func (s *Summary) recordCell(index int, e CellEvent) {
	t := &s.Transforms[index]
	t.Total += e.Duration
	if e.Status == CellSaved {
		t.Succeeded++
		s.CellsSucceeded++
		s.BytesWritten += e.Bytes
		return
	}
	t.Failed++
	s.CellsFailed++
}

func (s *Summary) recordPair(e PairEvent) {
	if e.Skipped {
		s.PairsSkipped++
		return
	}
	s.PairsProcessed++
}

// Complete reports whether every planned cell was written.
func (s *Summary) Complete() bool {
	return !s.Interrupted && s.CellsSucceeded == s.CellsTotal
}

package pipeline

import (
	"time"
)

// Reporter observes a run. It is called from one goroutine at a time and must
// not influence control flow.
type Reporter interface {
	RunStarted(plan Plan)
	CellFinished(event CellEvent)
	PairFinished(event PairEvent)
	RunFinished(summary *Summary)
}

// Plan is announced before the first pair is processed.
type Plan struct {
	Images     int
	Transforms []string
	Total      int
	Engine     string
	Seed       uint64
	Workers    int
}

type CellStatus int

const (
	CellSaved CellStatus = iota
	CellFailed
)

func (s CellStatus) String() string {
	if s == CellSaved {
		return "saved"
	}
	return "failed"
}

// CellEvent is one (pair, transform) completion. Index counts finished cells
// across the whole run, starting at 1.
type CellEvent struct {
	Index     int
	Total     int
	PairID    string
	ImageName string
	Transform string
	Status    CellStatus
	Err       error
	Bytes     int64
	Duration  time.Duration
}

// PairEvent closes one pair. Skipped pairs carry the reason in Err and have
// no cells.
type PairEvent struct {
	PairID    string
	ImageName string
	Skipped   bool
	Err       error
	Succeeded int
	Failed    int
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) RunStarted(Plan)        {}
func (NopReporter) CellFinished(CellEvent) {}
func (NopReporter) PairFinished(PairEvent) {}
func (NopReporter) RunFinished(*Summary)   {}

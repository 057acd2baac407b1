package report

import (
	"fmt"
	"io"

	"segmentation-augmentor/internal/pipeline"
)

// Text writes one line per cell and one per pair, framed by the run plan and
// the summary.
type Text struct {
	w io.Writer
}

var _ pipeline.Reporter = (*Text)(nil)

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) RunStarted(plan pipeline.Plan) { writePlan(t.w, plan) }

func (t *Text) CellFinished(e pipeline.CellEvent) { fmt.Fprintln(t.w, cellLine(e)) }

func (t *Text) PairFinished(e pipeline.PairEvent) { fmt.Fprintln(t.w, pairLine(e)) }

func (t *Text) RunFinished(s *pipeline.Summary) { WriteSummary(t.w, s) }

package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"segmentation-augmentor/internal/pipeline"
)

// Bar shows a single progress bar instead of per-cell lines. Skips and
// failures are held back and listed after the bar completes.
type Bar struct {
	w        io.Writer
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	problems []string
}

var _ pipeline.Reporter = (*Bar)(nil)

func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) RunStarted(plan pipeline.Plan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writePlan(b.w, plan)
	if plan.Total == 0 {
		return
	}
	b.bar = progressbar.NewOptions(plan.Total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("augmenting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (b *Bar) CellFinished(e pipeline.CellEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.Status != pipeline.CellSaved {
		b.problems = append(b.problems, cellLine(e))
	}
	if b.bar != nil {
		b.bar.Describe(e.Transform)
		_ = b.bar.Add(1)
	}
}

func (b *Bar) PairFinished(e pipeline.PairEvent) {
	if !e.Skipped {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.problems = append(b.problems, pairLine(e))
}

func (b *Bar) RunFinished(s *pipeline.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.release()
	for _, p := range b.problems {
		fmt.Fprintln(b.w, p)
	}
	WriteSummary(b.w, s)
}

// Shutdown releases the terminal line held by the bar. It is safe to call
// more than once and concurrently with the other methods.
func (b *Bar) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
}

func (b *Bar) release() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Exit()
	fmt.Fprintln(b.w)
	b.bar = nil
}

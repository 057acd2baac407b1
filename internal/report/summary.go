// Package report renders pipeline progress for humans.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"segmentation-augmentor/internal/pipeline"
)

const rule = "--------------------------------------------------"

func writePlan(w io.Writer, plan pipeline.Plan) {
	fmt.Fprintf(w, "Detected images          : %s\n", humanize.Comma(int64(plan.Images)))
	fmt.Fprintf(w, "Augmentations per image  : %d\n", len(plan.Transforms))
	fmt.Fprintf(w, "Total outputs to be saved: %s\n", humanize.Comma(int64(plan.Total)))
	fmt.Fprintln(w, rule)
}

// WriteSummary prints the end-of-run totals and one line per transform.
func WriteSummary(w io.Writer, s *pipeline.Summary) {
	fmt.Fprintln(w, rule)
	if s.Interrupted {
		fmt.Fprintln(w, "Run interrupted before all outputs were written.")
	}
	fmt.Fprintf(w, "Pairs   : %s seen, %s processed, %s skipped\n",
		humanize.Comma(int64(s.PairsSeen)), humanize.Comma(int64(s.PairsProcessed)), humanize.Comma(int64(s.PairsSkipped)))
	fmt.Fprintf(w, "Outputs : %s succeeded, %s failed, %s skipped (of %s)\n",
		humanize.Comma(int64(s.CellsSucceeded)), humanize.Comma(int64(s.CellsFailed)),
		humanize.Comma(int64(s.CellsSkipped)), humanize.Comma(int64(s.CellsTotal)))
	fmt.Fprintf(w, "Written : %s in %s (engine %s, seed %d)\n",
		humanize.Bytes(uint64(s.BytesWritten)), s.Elapsed.Round(time.Millisecond), s.Engine, s.Seed)

	if len(s.Transforms) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range s.Transforms {
		fmt.Fprintf(tw, "  %s\t%d ok\t%d failed\tavg %s\n", t.Name, t.Succeeded, t.Failed, t.Mean().Round(time.Microsecond))
	}
	tw.Flush()
}

func cellLine(e pipeline.CellEvent) string {
	prefix := fmt.Sprintf("[%d/%d] %s -> %s", e.Index, e.Total, e.ImageName, e.Transform)
	if e.Status == pipeline.CellSaved {
		return prefix + " saved"
	}
	return prefix + " FAILED: " + oneLine(e.Err)
}

func pairLine(e pipeline.PairEvent) string {
	if e.Skipped {
		return fmt.Sprintf("[WARNING] %s skipped: %s", e.ImageName, oneLine(e.Err))
	}
	return fmt.Sprintf("%s: %d succeeded, %d failed", e.ImageName, e.Succeeded, e.Failed)
}

func oneLine(err error) string {
	if err == nil {
		return "unknown error"
	}
	return strings.ReplaceAll(err.Error(), "\n", " ")
}

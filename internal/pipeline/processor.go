package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/dataset"
)

// run holds the state of one Coordinator.Run. mu serialises the summary, the
// global cell counter and every reporter call.
type run struct {
	c     *Coordinator
	seed  uint64
	total int

	mu      sync.Mutex
	index   int
	summary *Summary
}

func (r *run) processPair(ctx context.Context, pair dataset.Pair) {
	if ctx.Err() != nil {
		return
	}
	if err := dataset.Validate(pair); err != nil {
		r.skipPair(pair, err)
		return
	}
	sample, err := r.c.loader.Load(pair)
	if err != nil {
		r.skipPair(pair, err)
		return
	}

	event := PairEvent{PairID: pair.ID, ImageName: pair.ImageName()}
	for i, d := range r.c.registry.Descriptors() {
		if ctx.Err() != nil {
			break
		}
		if r.processCell(pair, sample, i, d) == CellSaved {
			event.Succeeded++
		} else {
			event.Failed++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.recordPair(event)
	r.c.reporter.PairFinished(event)
}

func (r *run) skipPair(pair dataset.Pair, err error) {
	r.c.logger.Warning("Coordinator", "pair skipped", map[string]interface{}{
		"pair":   pair.ID,
		"image":  pair.ImagePath,
		"reason": err.Error(),
	})

	event := PairEvent{PairID: pair.ID, ImageName: pair.ImageName(), Skipped: true, Err: err}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.recordPair(event)
	r.c.reporter.PairFinished(event)
}

func (r *run) processCell(pair dataset.Pair, sample augment.Sample, index int, d augment.Descriptor) CellStatus {
	start := time.Now()
	n, err := r.applyAndSave(pair, sample, d)

	event := CellEvent{
		Total:     r.total,
		PairID:    pair.ID,
		ImageName: pair.ImageName(),
		Transform: d.Name,
		Status:    CellSaved,
		Bytes:     n,
		Duration:  time.Since(start),
	}
	if err != nil {
		event.Status = CellFailed
		event.Err = err
		r.c.logger.Error("Coordinator", "cell failed", err, map[string]interface{}{
			"pair":      pair.ID,
			"transform": d.Name,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index++
	event.Index = r.index
	r.summary.recordCell(index, event)
	r.c.reporter.CellFinished(event)
	return event.Status
}

// applyAndSave writes the image first and then the mask. A mask that cannot
// be written takes its image with it, so every image in the output tree has
// its mask.
func (r *run) applyAndSave(pair dataset.Pair, sample augment.Sample, d augment.Descriptor) (int64, error) {
	res, err := r.apply(pair, sample, d)
	if err != nil {
		return 0, err
	}

	imagePath := r.c.layout.ImagePath(pair, d.Name)
	imageBytes, err := r.c.saver.Save(imagePath, res.Image)
	if err != nil {
		return 0, err
	}
	maskBytes, err := r.c.saver.Save(r.c.layout.MaskPath(pair, d.Name), res.Mask)
	if err != nil {
		if rmErr := os.Remove(imagePath); rmErr != nil && !os.IsNotExist(rmErr) {
			r.c.logger.Warning("Coordinator", "could not remove orphan image", map[string]interface{}{
				"path":  imagePath,
				"error": rmErr.Error(),
			})
		}
		return 0, err
	}
	return imageBytes + maskBytes, nil
}

// apply runs one descriptor with the cell's own random stream. Engine panics
// are confined to the cell.
func (r *run) apply(pair dataset.Pair, sample augment.Sample, d augment.Descriptor) (res augment.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = augment.Result{}
			err = &TransformError{PairID: pair.ID, Transform: d.Name, Err: errors.Errorf("engine panic: %v", p)}
		}
	}()

	rng := augment.CellRand(r.seed, pair.ID, d.Name)
	res, err = d.Apply(r.c.engine, rng, sample, r.c.fill)
	if err != nil {
		return augment.Result{}, &TransformError{PairID: pair.ID, Transform: d.Name, Err: err}
	}
	r.c.logger.Debug("Coordinator", "transform applied", map[string]interface{}{
		"pair":      pair.ID,
		"transform": d.Name,
		"class":     d.Class().String(),
		"params":    res.Params,
	})
	return res, nil
}

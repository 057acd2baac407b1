package pipeline

import (
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/config"
	"segmentation-augmentor/internal/dataset"
	"segmentation-augmentor/internal/logger"
)

// Coordinator is the dispatch loop: every validated pair goes through every
// registered transform, in registry order, and both outputs of each cell are
// written under the transform's directory.
type Coordinator struct {
	cfg      config.Config
	engine   augment.Engine
	registry *augment.Registry
	scanner  *dataset.Scanner
	loader   *Loader
	saver    *Saver
	layout   Layout
	fill     augment.Fill
	reporter Reporter
	logger   logger.Logger
}

func NewCoordinator(cfg config.Config, engine augment.Engine, reporter Reporter, log logger.Logger) (*Coordinator, error) {
	if engine == nil {
		return nil, errors.New("coordinator needs an augmentation engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Coordinator{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		scanner:  dataset.NewScanner(cfg.Input.ImageDir, cfg.Input.MaskDir, cfg.Naming),
		loader:   NewLoader(log),
		saver:    NewSaver(cfg.Output.JPEGQuality, log),
		layout:   Layout{ImageRoot: cfg.Output.ImageRoot, MaskRoot: cfg.Output.MaskRoot},
		fill:     cfg.Fill(),
		reporter: reporter,
		logger:   log,
	}, nil
}

func (c *Coordinator) Registry() *augment.Registry { return c.registry }

// Run processes the whole dataset once. Per-pair and per-cell failures are
// reported and skipped; only a missing input directory (ErrInputMissing) or
// an output tree that cannot be created (ErrOutputSetup) fail the run. When
// ctx is cancelled the loop stops before the next cell and the partial
// summary is still returned.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	for _, dir := range []string{c.cfg.Input.ImageDir, c.cfg.Input.MaskDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.Wrapf(ErrInputMissing, "%s: %v", dir, err)
		}
		if !info.IsDir() {
			return nil, errors.Wrapf(ErrInputMissing, "%s is not a directory", dir)
		}
	}
	seq, err := c.scanner.Scan()
	if err != nil {
		return nil, errors.Wrapf(ErrInputMissing, "%v", err)
	}
	pairs := slices.Collect(seq)

	names := c.registry.Names()
	if err := c.layout.Prepare(names); err != nil {
		return nil, err
	}

	seed := c.cfg.Augment.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := max(1, c.cfg.Run.Workers)

	r := &run{
		c:       c,
		seed:    seed,
		total:   len(pairs) * len(names),
		summary: newSummary(c.engine.Name(), seed, names),
	}
	r.summary.PairsSeen = len(pairs)
	r.summary.CellsTotal = r.total

	c.logger.Info("Coordinator", "run started", map[string]interface{}{
		"images":     len(pairs),
		"transforms": len(names),
		"engine":     c.engine.Name(),
		"seed":       seed,
		"workers":    workers,
	})
	c.reporter.RunStarted(Plan{
		Images:     len(pairs),
		Transforms: names,
		Total:      r.total,
		Engine:     c.engine.Name(),
		Seed:       seed,
		Workers:    workers,
	})

	if workers == 1 {
		for _, pair := range pairs {
			if ctx.Err() != nil {
				break
			}
			r.processPair(ctx, pair)
		}
	} else {
		c.runPool(ctx, r, pairs, workers)
	}

	s := r.summary
	s.Interrupted = ctx.Err() != nil
	s.CellsSkipped = s.CellsTotal - s.CellsSucceeded - s.CellsFailed
	s.Elapsed = time.Since(start)
	c.reporter.RunFinished(s)

	c.logger.Info("Coordinator", "run finished", map[string]interface{}{
		"pairs_processed": s.PairsProcessed,
		"pairs_skipped":   s.PairsSkipped,
		"cells_succeeded": s.CellsSucceeded,
		"cells_failed":    s.CellsFailed,
		"cells_skipped":   s.CellsSkipped,
		"interrupted":     s.Interrupted,
		"elapsed":         s.Elapsed.String(),
	})
	return s, nil
}

// runPool spreads pairs over a fixed number of goroutines. Output paths are
// unique per (transform, pair), so workers never contend for a file.
func (c *Coordinator) runPool(ctx context.Context, r *run, pairs []dataset.Pair, workers int) {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

dispatch:
	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.processPair(ctx, pair)
		}()
	}
	wg.Wait()
}

// Command seg-augment writes augmented copies of an image/mask segmentation
// dataset, one output directory per transform.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/config"
	"segmentation-augmentor/internal/engine/native"
	"segmentation-augmentor/internal/engine/opencv"
	"segmentation-augmentor/internal/logger"
	"segmentation-augmentor/internal/opencv/memory"
	"segmentation-augmentor/internal/pipeline"
	"segmentation-augmentor/internal/report"
	"segmentation-augmentor/internal/shutdown"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, list, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitFatal
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitFatal
	}

	if list {
		registry, err := cfg.Registry()
		if err != nil {
			fmt.Fprintln(stderr, "seg-augment:", err)
			return exitFatal
		}
		printRegistry(stdout, registry)
		return exitOK
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	base, err := logger.New(logger.Format(cfg.Log.Format), level)
	if err != nil {
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitFatal
	}
	log := base.With("run_id", uuid.NewString())

	mgr := shutdown.NewManager(context.Background(), log)
	mgr.Listen()
	defer mgr.Stop()
	defer mgr.Shutdown()

	engine, finish := newEngine(cfg, log)
	defer finish()

	var reporter pipeline.Reporter = report.NewText(stdout)
	if cfg.Run.Progress == config.ProgressBar {
		bar := report.NewBar(stdout)
		mgr.Register(bar)
		reporter = bar
	}

	coordinator, err := pipeline.NewCoordinator(cfg, engine, reporter, log)
	if err != nil {
		log.Error("Main", "cannot start run", err, nil)
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitFatal
	}
	summary, err := coordinator.Run(mgr.Context())
	if err != nil {
		log.Error("Main", "run aborted", err, nil)
		fmt.Fprintln(stderr, "seg-augment:", err)
		return exitFatal
	}
	if summary.Interrupted {
		return shutdown.ExitInterrupted
	}
	return exitOK
}

// usageError marks a malformed command line, as opposed to a configuration
// that parsed but cannot be used.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// parseArgs builds the run configuration: defaults, then the -config file,
// then every flag that was given explicitly.
func parseArgs(args []string, stderr io.Writer) (config.Config, bool, error) {
	def := config.Default()
	fs := flag.NewFlagSet("seg-augment", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  = fs.String("config", "", "YAML configuration file")
		list        = fs.Bool("list", false, "print the transform registry and exit")
		images      = fs.String("images", def.Input.ImageDir, "input image directory")
		masks       = fs.String("masks", def.Input.MaskDir, "input mask directory")
		outImages   = fs.String("out-images", def.Output.ImageRoot, "root of the augmented image tree")
		outMasks    = fs.String("out-masks", def.Output.MaskRoot, "root of the augmented mask tree")
		engine      = fs.String("engine", def.Augment.Engine, "augmentation engine: opencv or native")
		seed        = fs.Uint64("seed", def.Augment.Seed, "random seed, 0 derives one from the clock")
		workers     = fs.Int("workers", def.Run.Workers, "pairs processed concurrently")
		progress    = fs.String("progress", def.Run.Progress, "progress output: text or bar")
		background  = fs.Uint("background-label", uint(def.Augment.BackgroundLabel), "mask label for pixels exposed by geometric transforms")
		jpegQuality = fs.Int("jpeg-quality", def.Output.JPEGQuality, "JPEG quality for augmented images (1-100)")
		logLevel    = fs.String("log-level", def.Log.Level, "log level: debug, info, warn or error")
		logFormat   = fs.String("log-format", def.Log.Format, "log format: console or json")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, &usageError{err}
	}
	if fs.NArg() > 0 {
		return config.Config{}, false, &usageError{errors.Errorf("unexpected arguments %v", fs.Args())}
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return config.Config{}, false, err
		}
	}

	var bad error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "images":
			cfg.Input.ImageDir = *images
		case "masks":
			cfg.Input.MaskDir = *masks
		case "out-images":
			cfg.Output.ImageRoot = *outImages
		case "out-masks":
			cfg.Output.MaskRoot = *outMasks
		case "engine":
			cfg.Augment.Engine = *engine
		case "seed":
			cfg.Augment.Seed = *seed
		case "workers":
			cfg.Run.Workers = *workers
		case "progress":
			cfg.Run.Progress = *progress
		case "background-label":
			if *background > 255 {
				bad = errors.Errorf("-background-label %d does not fit in 8 bits", *background)
			}
			cfg.Augment.BackgroundLabel = uint8(*background)
		case "jpeg-quality":
			cfg.Output.JPEGQuality = *jpegQuality
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	return cfg, *list, bad
}

// newEngine returns the configured engine and a function to call once the
// run is over. For OpenCV that function reports Mats that were never closed.
func newEngine(cfg config.Config, log logger.Logger) (augment.Engine, func()) {
	if cfg.Augment.Engine == config.EngineNative {
		return native.New(), func() {}
	}

	tracker := memory.NewTracker()
	return opencv.New(tracker), func() {
		stats := tracker.Stats()
		fields := map[string]interface{}{
			"allocated": stats.TotalAllocated,
			"released":  stats.TotalReleased,
			"peak":      humanize.Bytes(uint64(stats.PeakBytes)),
		}
		if leaks := tracker.Leaks(); len(leaks) > 0 {
			fields["leaks"] = leaks
			log.Warning("Main", "OpenCV Mats were not released", fields)
			return
		}
		log.Debug("Main", "OpenCV memory", fields)
	}
}

func printRegistry(w io.Writer, r *augment.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCLASS\tKIND")
	for _, d := range r.Descriptors() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Class(), d.Op.Kind())
	}
	tw.Flush()
}

// Package config holds the immutable description of one augmentation run.
// Values start from Default, may be overlaid by a YAML file, and are checked
// by Validate before anything touches the filesystem.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/dataset"
	"segmentation-augmentor/internal/logger"
)

const (
	EngineOpenCV = "opencv"
	EngineNative = "native"

	ProgressText = "text"
	ProgressBar  = "bar"
)

type Config struct {
	Input      InputConfig        `yaml:"input"`
	Output     OutputConfig       `yaml:"output"`
	Naming     dataset.Convention `yaml:"naming"`
	Augment    AugmentConfig      `yaml:"augment"`
	Run        RunConfig          `yaml:"run"`
	Log        LogConfig          `yaml:"log"`
	Transforms []augment.Spec     `yaml:"transforms"`
}

type InputConfig struct {
	ImageDir string `yaml:"image_dir"`
	MaskDir  string `yaml:"mask_dir"`
}

type OutputConfig struct {
	ImageRoot   string `yaml:"image_root"`
	MaskRoot    string `yaml:"mask_root"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type AugmentConfig struct {
	Engine string `yaml:"engine"`
	// Seed 0 picks a fresh seed for every run.
	Seed            uint64   `yaml:"seed"`
	BackgroundLabel uint8    `yaml:"background_label"`
	ImageFill       [3]uint8 `yaml:"image_fill"`
}

type RunConfig struct {
	Workers  int    `yaml:"workers"`
	Progress string `yaml:"progress"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Input:  InputConfig{ImageDir: "X", MaskDir: "y"},
		Output: OutputConfig{ImageRoot: "augmented_X", MaskRoot: "augmented_y", JPEGQuality: 95},
		Naming: dataset.DefaultConvention(),
		Augment: AugmentConfig{
			Engine: EngineOpenCV,
		},
		Run: RunConfig{Workers: 1, Progress: ProgressText},
		Log: LogConfig{Level: logger.LevelFromEnv(), Format: "console"},
	}
}

// Load overlays the YAML document at path on top of Default. Keys absent
// from the file keep their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// ValidationError names the offending setting.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

func (c Config) Validate() error {
	for field, dir := range map[string]string{
		"input.image_dir":   c.Input.ImageDir,
		"input.mask_dir":    c.Input.MaskDir,
		"output.image_root": c.Output.ImageRoot,
		"output.mask_root":  c.Output.MaskRoot,
	} {
		if strings.TrimSpace(dir) == "" {
			return &ValidationError{Field: field, Value: `""`, Message: "must not be empty"}
		}
	}
	if filepath.Clean(c.Output.ImageRoot) == filepath.Clean(c.Output.MaskRoot) {
		return &ValidationError{Field: "output.mask_root", Value: c.Output.MaskRoot, Message: "must differ from output.image_root"}
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return &ValidationError{Field: "output.jpeg_quality", Value: c.Output.JPEGQuality, Message: "must be within 1..100"}
	}
	if err := c.Naming.Validate(); err != nil {
		return err
	}
	for _, ext := range c.Naming.ImageExtensions {
		if !writable(ext) {
			return &ValidationError{Field: "naming.image_extensions", Value: ext, Message: "outputs keep the input extension and this format cannot be written"}
		}
	}
	switch strings.ToLower(c.Naming.MaskExtension) {
	case ".jpg", ".jpeg":
		return &ValidationError{Field: "naming.mask_extension", Value: c.Naming.MaskExtension, Message: "lossy formats would corrupt label values"}
	}
	if !writable(c.Naming.MaskExtension) {
		return &ValidationError{Field: "naming.mask_extension", Value: c.Naming.MaskExtension, Message: "this format cannot be written"}
	}
	switch c.Augment.Engine {
	case EngineOpenCV, EngineNative:
	default:
		return &ValidationError{Field: "augment.engine", Value: c.Augment.Engine, Message: "must be opencv or native"}
	}
	if c.Run.Workers < 1 {
		return &ValidationError{Field: "run.workers", Value: c.Run.Workers, Message: "must be at least 1"}
	}
	switch c.Run.Progress {
	case ProgressText, ProgressBar:
	default:
		return &ValidationError{Field: "run.progress", Value: c.Run.Progress, Message: "must be text or bar"}
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error"}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be console or json"}
	}
	return nil
}

// writable reports whether the saver can encode files with extension ext.
// GIF is excluded because encoding quantises colours.
func writable(ext string) bool {
	format, err := imaging.FormatFromExtension(ext)
	return err == nil && format != imaging.GIF
}

// Fill is the border used where a geometric transform exposes pixels with no
// source: ImageFill for images and BackgroundLabel for masks.
func (c Config) Fill() augment.Fill {
	f := c.Augment.ImageFill
	return augment.Fill{
		Image: color.RGBA{R: f[0], G: f[1], B: f[2], A: 255},
		Label: c.Augment.BackgroundLabel,
	}
}

// Registry builds the transform registry from Transforms, or the default
// five-transform registry when none are configured.
func (c Config) Registry() (*augment.Registry, error) {
	r, err := augment.RegistryFromSpecs(c.Transforms)
	if err != nil {
		return nil, errors.Wrap(err, "transforms")
	}
	return r, nil
}

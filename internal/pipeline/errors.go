package pipeline

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

var (
	// ErrInputMissing aborts a run before any pair is processed.
	ErrInputMissing = errors.New("input directory missing")
	// ErrOutputSetup aborts a run when the output tree cannot be created.
	ErrOutputSetup = errors.New("output directory setup failed")
)

type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }

type UnreadableMaskError struct {
	Path string
	Err  error
}

func (e *UnreadableMaskError) Error() string {
	return fmt.Sprintf("unreadable mask %s: %v", e.Path, e.Err)
}

func (e *UnreadableMaskError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a pair whose image and mask differ in size.
type DimensionMismatchError struct {
	ImagePath string
	MaskPath  string
	Image     image.Point
	Mask      image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image %s is %dx%d but mask %s is %dx%d",
		e.ImagePath, e.Image.X, e.Image.Y, e.MaskPath, e.Mask.X, e.Mask.Y)
}

// TransformError is one transform failing on one pair.
type TransformError struct {
	PairID    string
	Transform string
	Err       error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s on pair %s: %v", e.Transform, e.PairID, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }

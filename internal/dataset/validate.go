package dataset

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// MissingMaskError reports an image whose derived mask path does not exist.
type MissingMaskError struct {
	ImagePath string
	MaskPath  string
}

func (e *MissingMaskError) Error() string {
	return fmt.Sprintf("mask not found for %s: expected %s", e.ImagePath, e.MaskPath)
}

// Validate confirms that the mask of pair exists and is a regular file.
// Any other stat failure (permissions, I/O) is wrapped and returned as is.
func Validate(pair Pair) error {
	info, err := os.Stat(pair.MaskPath)
	if errors.Is(err, os.ErrNotExist) {
		return &MissingMaskError{ImagePath: pair.ImagePath, MaskPath: pair.MaskPath}
	}
	if err != nil {
		return errors.Wrapf(err, "checking mask %s", pair.MaskPath)
	}
	if info.IsDir() {
		return &MissingMaskError{ImagePath: pair.ImagePath, MaskPath: pair.MaskPath}
	}
	return nil
}

package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"segmentation-augmentor/internal/dataset"
)

// Layout maps a (pair, transform) cell onto its two output files. Image and
// mask live in parallel <root>/<transform>/ directories and share the
// "-<transform>" suffix so they can be re-paired by name.
type Layout struct {
	ImageRoot string
	MaskRoot  string
}

func (l Layout) ImagePath(pair dataset.Pair, transform string) string {
	return filepath.Join(l.ImageRoot, transform, suffixed(pair.ImageName(), transform))
}

func (l Layout) MaskPath(pair dataset.Pair, transform string) string {
	return filepath.Join(l.MaskRoot, transform, suffixed(pair.MaskName(), transform))
}

// Prepare creates both roots and one subdirectory per transform. Existing
// directories are left as they are.
func (l Layout) Prepare(transforms []string) error {
	for _, root := range []string{l.ImageRoot, l.MaskRoot} {
		for _, name := range transforms {
			dir := filepath.Join(root, name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrapf(ErrOutputSetup, "%s: %v", dir, err)
			}
		}
	}
	return nil
}

func suffixed(filename, transform string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-" + transform + ext
}

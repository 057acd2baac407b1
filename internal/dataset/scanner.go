package dataset

import (
	"iter"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Pair is one image and the mask it is expected to align with. It is built
// once per scan and never modified.
type Pair struct {
	ID        string
	ImagePath string
	MaskPath  string
}

// ImageName is the base filename of the image.
func (p Pair) ImageName() string { return filepath.Base(p.ImagePath) }

// MaskName is the base filename of the mask.
func (p Pair) MaskName() string { return filepath.Base(p.MaskPath) }

// Scanner lists candidate pairs from an image directory.
type Scanner struct {
	ImageDir   string
	MaskDir    string
	Convention Convention
}

func NewScanner(imageDir, maskDir string, convention Convention) *Scanner {
	return &Scanner{ImageDir: imageDir, MaskDir: maskDir, Convention: convention}
}

// Scan lists the image directory and returns a sequence of candidates
// ordered by filename. The mask path of each candidate is derived from the
// naming convention only; whether it exists is checked by Validate.
//
// A missing or unreadable image directory is returned as an error before any
// candidate is produced.
func (s *Scanner) Scan() (iter.Seq[Pair], error) {
	entries, err := os.ReadDir(s.ImageDir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing image directory %s", s.ImageDir)
	}

	// os.ReadDir returns entries sorted by filename.
	return func(yield func(Pair) bool) {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			id, ok := s.Convention.ImageID(entry.Name())
			if !ok {
				continue
			}
			pair := Pair{
				ID:        id,
				ImagePath: filepath.Join(s.ImageDir, entry.Name()),
				MaskPath:  filepath.Join(s.MaskDir, s.Convention.MaskName(id)),
			}
			if !yield(pair) {
				return
			}
		}
	}, nil
}

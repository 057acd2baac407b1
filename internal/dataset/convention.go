// Package dataset discovers image/mask pairs on disk under a fixed naming
// convention: image_<id>.<ext> pairs with mask_<id>.<mask ext>.
package dataset

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Convention describes how image files are recognised and how the expected
// mask filename is derived from them.
type Convention struct {
	ImagePrefix     string   `yaml:"image_prefix"`
	MaskPrefix      string   `yaml:"mask_prefix"`
	ImageExtensions []string `yaml:"image_extensions"`
	MaskExtension   string   `yaml:"mask_extension"`
}

func DefaultConvention() Convention {
	return Convention{
		ImagePrefix:     "image_",
		MaskPrefix:      "mask_",
		ImageExtensions: []string{".jpg", ".jpeg", ".png"},
		MaskExtension:   ".png",
	}
}

func (c Convention) Validate() error {
	if c.ImagePrefix == "" || c.MaskPrefix == "" {
		return errors.New("naming: image and mask prefixes must not be empty")
	}
	if len(c.ImageExtensions) == 0 {
		return errors.New("naming: at least one image extension is required")
	}
	for _, ext := range append([]string{c.MaskExtension}, c.ImageExtensions...) {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return errors.Errorf("naming: extension %q must start with a dot", ext)
		}
	}
	return nil
}

// AcceptsImage reports whether filename has one of the accepted image
// extensions, case-insensitively.
func (c Convention) AcceptsImage(filename string) bool {
	ext := filepath.Ext(filename)
	for _, accepted := range c.ImageExtensions {
		if strings.EqualFold(ext, accepted) {
			return true
		}
	}
	return false
}

// ImageID extracts <id> from image_<id>.<ext>. ok is false when the name does
// not follow the convention.
func (c Convention) ImageID(filename string) (id string, ok bool) {
	if !c.AcceptsImage(filename) {
		return "", false
	}
	return c.stripID(filename, c.ImagePrefix)
}

// MaskName derives the expected mask filename for an image id.
func (c Convention) MaskName(id string) string {
	return c.MaskPrefix + id + c.MaskExtension
}

func (c Convention) stripID(filename, prefix string) (string, bool) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if !strings.HasPrefix(stem, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(stem, prefix)
	if id == "" {
		return "", false
	}
	return id, true
}

package augment

import (
	"strings"

	"github.com/pkg/errors"
)

// Class says whether a transform changes pixel values only or spatial layout.
type Class int

const (
	// Photometric transforms touch image intensities; the mask passes
	// through untouched.
	Photometric Class = iota
	// Geometric transforms move pixels; image and mask are warped together
	// with one shared parameter draw.
	Geometric
)

func (c Class) String() string {
	switch c {
	case Photometric:
		return "photometric"
	case Geometric:
		return "geometric"
	default:
		return "unknown"
	}
}

// Kind is the closed set of transform behaviours an Engine implements.
type Kind int

const (
	KindBrightnessContrast Kind = iota
	KindDefocus
	KindGlassBlur
	KindISONoise
	KindShiftScaleRotate
)

var kindNames = map[Kind]string{
	KindBrightnessContrast: "brightness_contrast",
	KindDefocus:            "defocus",
	KindGlassBlur:          "glass_blur",
	KindISONoise:           "iso_noise",
	KindShiftScaleRotate:   "shift_scale_rotate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Class of the kind. It is fixed per kind, never per descriptor.
func (k Kind) Class() Class {
	if k == KindShiftScaleRotate {
		return Geometric
	}
	return Photometric
}

func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, known := range kindNames {
		if known == name {
			return kind, nil
		}
	}
	return 0, errors.Errorf("unknown transform kind %q", name)
}

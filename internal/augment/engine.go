package augment

import (
	"image"
	"image/color"
)

// Engine is the augmentation capability the registry delegates to. Each
// method receives fully drawn parameters; an engine must not draw its own
// geometric parameters.
//
// Photometric methods only see the image. WarpAffine receives image and mask
// together and must apply the same matrix to both: bilinear sampling with
// Fill.Image outside the source for the image, nearest-neighbour sampling
// with Fill.Label outside the source for the mask.
type Engine interface {
	Name() string

	BrightnessContrast(img image.Image, p BrightnessContrastParams) (image.Image, error)
	Defocus(img image.Image, p DefocusParams) (image.Image, error)
	GlassBlur(img image.Image, p GlassBlurParams) (image.Image, error)
	ISONoise(img image.Image, p ISONoiseParams) (image.Image, error)

	WarpAffine(img image.Image, mask *image.Gray, p AffineParams, fill Fill) (image.Image, *image.Gray, error)
}

// Fill holds the constant border values used where a geometric transform
// exposes regions with no source data.
type Fill struct {
	Image color.RGBA
	Label uint8
}

// DefaultFill is black for images and label 0 (background) for masks.
func DefaultFill() Fill {
	return Fill{Image: color.RGBA{A: 255}, Label: 0}
}

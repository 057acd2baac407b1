package native

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/geometry"
)

// WarpAffine maps image and mask through the same matrix. The image is
// resampled bilinearly, the mask by nearest neighbour so that no label value
// is ever interpolated. Destination pixels whose source falls outside the
// raster keep the fill values.
func (e *Engine) WarpAffine(img image.Image, mask *image.Gray, p augment.AffineParams, fill augment.Fill) (image.Image, *image.Gray, error) {
	size := img.Bounds().Size()
	if size != mask.Bounds().Size() {
		return nil, nil, errors.Errorf("image is %v but mask is %v", size, mask.Bounds().Size())
	}
	if _, ok := p.Matrix.Inverse(); !ok {
		return nil, nil, errors.Errorf("affine matrix is singular (%s)", p)
	}
	s2d := toAff3(p.Matrix.ToEdgeCoordinates())
	rect := image.Rect(0, 0, size.X, size.Y)

	srcImg := image.NewRGBA(rect)
	stddraw.Draw(srcImg, rect, img, img.Bounds().Min, stddraw.Src)
	dstImg := image.NewRGBA(rect)
	stddraw.Draw(dstImg, rect, image.NewUniform(fill.Image), image.Point{}, stddraw.Src)
	draw.BiLinear.Transform(dstImg, s2d, srcImg, rect, draw.Src, nil)

	srcMask := image.NewGray(rect)
	stddraw.Draw(srcMask, rect, mask, mask.Bounds().Min, stddraw.Src)
	dstMask := image.NewGray(rect)
	stddraw.Draw(dstMask, rect, image.NewUniform(color.Gray{Y: fill.Label}), image.Point{}, stddraw.Src)
	draw.NearestNeighbor.Transform(dstMask, s2d, srcMask, rect, draw.Src, nil)

	return dstImg, dstMask, nil
}

func toAff3(t geometry.Affine) f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
}

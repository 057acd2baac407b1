// Package opencv implements the augmentation engine on top of gocv. Every
// call converts its inputs to Mats inside a safe.Scope and releases them
// before returning.
package opencv

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/engine/pixops"
	"segmentation-augmentor/internal/opencv/conversion"
	"segmentation-augmentor/internal/opencv/memory"
	"segmentation-augmentor/internal/opencv/safe"
)

type Engine struct {
	tracker *memory.Tracker
}

var _ augment.Engine = (*Engine)(nil)

func New(tracker *memory.Tracker) *Engine {
	if tracker == nil {
		tracker = memory.NewTracker()
	}
	return &Engine{tracker: tracker}
}

func (e *Engine) Name() string { return "opencv" }

// Tracker exposes Mat accounting for the end-of-run leak check.
func (e *Engine) Tracker() *memory.Tracker { return e.tracker }

func (e *Engine) BrightnessContrast(img image.Image, p augment.BrightnessContrastParams) (image.Image, error) {
	if p.Alpha < 0 {
		return nil, errors.Errorf("negative contrast factor %g", p.Alpha)
	}
	scope := safe.NewScope(e.tracker)
	defer scope.Close()

	src, err := conversion.ImageToBGR(scope, img)
	if err != nil {
		return nil, err
	}
	dst := scope.NewEmpty("brightness_contrast")
	m := src.Mat()
	m.ConvertToWithParams(dst.Ptr(), gocv.MatTypeCV8UC3, float32(p.Alpha), float32(p.Beta*255))
	return toImage(dst, "brightness_contrast")
}

func (e *Engine) Defocus(img image.Image, p augment.DefocusParams) (image.Image, error) {
	if p.Radius < 1 {
		return nil, errors.Errorf("defocus radius %d must be positive", p.Radius)
	}
	scope := safe.NewScope(e.tracker)
	defer scope.Close()

	src, err := conversion.ImageToBGR(scope, img)
	if err != nil {
		return nil, err
	}
	weights, side := pixops.DiskKernel(p.Radius, p.AliasBlur)
	kernel, err := scope.NewMat(side, side, gocv.MatTypeCV32FC1, "defocus_kernel")
	if err != nil {
		return nil, err
	}
	k := kernel.Mat()
	for i, w := range weights {
		k.SetFloatAt(i/side, i%side, w)
	}

	dst := scope.NewEmpty("defocus")
	gocv.Filter2D(src.Mat(), dst.Ptr(), -1, k, image.Pt(-1, -1), 0, gocv.BorderReflect101)
	return toImage(dst, "defocus")
}

func (e *Engine) GlassBlur(img image.Image, p augment.GlassBlurParams) (image.Image, error) {
	if p.MaxDelta < 1 || p.Iterations < 1 {
		return nil, errors.Errorf("glass blur needs max_delta and iterations >= 1, got %d and %d", p.MaxDelta, p.Iterations)
	}
	scope := safe.NewScope(e.tracker)
	defer scope.Close()

	src, err := conversion.ImageToBGR(scope, img)
	if err != nil {
		return nil, err
	}
	blurred := gaussian(scope, src, p.Sigma, "glass_blur_first")
	data, err := blurred.Bytes()
	if err != nil {
		return nil, err
	}
	rows, cols := blurred.Rows(), blurred.Cols()
	pixops.GlassShuffle(data, cols, rows, cols*3, 3, p.MaxDelta, p.Iterations, p.Seed)

	shuffled, err := conversion.FromBytes(scope, rows, cols, gocv.MatTypeCV8UC3, data, "glass_blur_shuffled")
	if err != nil {
		return nil, err
	}
	return toImage(gaussian(scope, shuffled, p.Sigma, "glass_blur_second"), "glass_blur")
}

// gaussian blurs with a kernel size derived from sigma. A non-positive sigma
// returns src unchanged.
func gaussian(scope *safe.Scope, src *safe.Mat, sigma float64, tag string) *safe.Mat {
	if sigma <= 0 {
		return src
	}
	dst := scope.NewEmpty(tag)
	gocv.GaussianBlur(src.Mat(), dst.Ptr(), image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)
	return dst
}

func (e *Engine) ISONoise(img image.Image, p augment.ISONoiseParams) (image.Image, error) {
	scope := safe.NewScope(e.tracker)
	defer scope.Close()

	src, err := conversion.ImageToBGR(scope, img)
	if err != nil {
		return nil, err
	}
	hls, err := conversion.BGRToHLS(scope, src)
	if err != nil {
		return nil, err
	}
	data, err := hls.Bytes()
	if err != nil {
		return nil, err
	}

	n := len(data) / 3
	lumStd := pixops.StdDev(n, func(i int) float64 { return float64(data[3*i+1]) / 255 })
	noise := pixops.NewNoiseSampler(p, lumStd)
	for i := 0; i < n; i++ {
		// 8-bit OpenCV hue is stored in half degrees.
		h := pixops.WrapDegrees(float64(data[3*i])+noise.HueShift()/2, 180)
		l := noise.Luminance(float64(data[3*i+1]) / 255)
		data[3*i] = uint8(math.Mod(math.Round(h), 180))
		data[3*i+1] = uint8(math.Min(255, math.Round(l*255)))
	}

	noisy, err := conversion.FromBytes(scope, hls.Rows(), hls.Cols(), gocv.MatTypeCV8UC3, data, "iso_noise_hls")
	if err != nil {
		return nil, err
	}
	bgr, err := conversion.HLSToBGR(scope, noisy)
	if err != nil {
		return nil, err
	}
	return toImage(bgr, "iso_noise")
}

// WarpAffine runs cv::warpAffine twice with one matrix: bilinear for the
// image and nearest neighbour for the mask, each with a constant border.
func (e *Engine) WarpAffine(img image.Image, mask *image.Gray, p augment.AffineParams, fill augment.Fill) (image.Image, *image.Gray, error) {
	size := img.Bounds().Size()
	if size != mask.Bounds().Size() {
		return nil, nil, errors.Errorf("image is %v but mask is %v", size, mask.Bounds().Size())
	}
	if _, ok := p.Matrix.Inverse(); !ok {
		return nil, nil, errors.Errorf("affine matrix is singular (%s)", p)
	}
	scope := safe.NewScope(e.tracker)
	defer scope.Close()

	src, err := conversion.ImageToBGR(scope, img)
	if err != nil {
		return nil, nil, err
	}
	srcMask, err := conversion.GrayToMat(scope, mask)
	if err != nil {
		return nil, nil, err
	}
	matrix, err := scope.NewMat(2, 3, gocv.MatTypeCV64FC1, "affine")
	if err != nil {
		return nil, nil, err
	}
	m := matrix.Mat()
	for r, row := range p.Matrix.Matrix() {
		for c, v := range row {
			m.SetDoubleAt(r, c, v)
		}
	}

	dst := scope.NewEmpty("warp_image")
	gocv.WarpAffineWithParams(src.Mat(), dst.Ptr(), m, size, gocv.InterpolationLinear, gocv.BorderConstant, fill.Image)

	label := fill.Label
	dstMask := scope.NewEmpty("warp_mask")
	gocv.WarpAffineWithParams(srcMask.Mat(), dstMask.Ptr(), m, size, gocv.InterpolationNearestNeighbor, gocv.BorderConstant,
		color.RGBA{R: label, G: label, B: label, A: label})

	out, err := toImage(dst, "warp_image")
	if err != nil {
		return nil, nil, err
	}
	if err := safe.ValidateMatForOperation(dstMask, "warp_mask"); err != nil {
		return nil, nil, err
	}
	outMask, err := conversion.MatToGray(dstMask)
	if err != nil {
		return nil, nil, err
	}
	return out, outMask, nil
}

func toImage(dst *safe.Mat, op string) (image.Image, error) {
	if err := safe.ValidateMatForOperation(dst, op); err != nil {
		return nil, errors.Wrap(err, "OpenCV produced no output")
	}
	return conversion.MatToNRGBA(dst)
}

// Package native is the pure-Go augmentation engine. It needs no cgo and is
// the engine the pipeline tests run against.
package native

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/engine/pixops"
)

type Engine struct{}

var _ augment.Engine = (*Engine)(nil)

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "native" }

func (e *Engine) BrightnessContrast(img image.Image, p augment.BrightnessContrastParams) (image.Image, error) {
	if p.Alpha < 0 {
		return nil, errors.Errorf("negative contrast factor %g", p.Alpha)
	}
	shift := p.Beta * 255
	adjust := func(v uint8) uint8 {
		return clamp8(p.Alpha*float64(v) + shift)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: adjust(c.R), G: adjust(c.G), B: adjust(c.B), A: c.A}
	}), nil
}

func (e *Engine) Defocus(img image.Image, p augment.DefocusParams) (image.Image, error) {
	if p.Radius < 1 {
		return nil, errors.Errorf("defocus radius %d must be positive", p.Radius)
	}
	kernel, _ := pixops.DiskKernel(p.Radius, p.AliasBlur)
	g := gift.New(gift.Convolution(kernel, false, false, false, 0))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst, nil
}

func (e *Engine) GlassBlur(img image.Image, p augment.GlassBlurParams) (image.Image, error) {
	if p.MaxDelta < 1 || p.Iterations < 1 {
		return nil, errors.Errorf("glass blur needs max_delta and iterations >= 1, got %d and %d", p.MaxDelta, p.Iterations)
	}
	blurred := imaging.Blur(img, p.Sigma)
	b := blurred.Bounds()
	pixops.GlassShuffle(blurred.Pix, b.Dx(), b.Dy(), blurred.Stride, 4, p.MaxDelta, p.Iterations, p.Seed)
	return imaging.Blur(blurred, p.Sigma), nil
}

func (e *Engine) ISONoise(img image.Image, p augment.ISONoiseParams) (image.Image, error) {
	src := imaging.Clone(img)
	b := src.Bounds()
	n := b.Dx() * b.Dy()

	hsl := make([][3]float64, n)
	for i := 0; i < n; i++ {
		off := (i/b.Dx())*src.Stride + (i%b.Dx())*4
		c := colorful.Color{
			R: float64(src.Pix[off]) / 255,
			G: float64(src.Pix[off+1]) / 255,
			B: float64(src.Pix[off+2]) / 255,
		}
		h, s, l := c.Hsl()
		hsl[i] = [3]float64{h, s, l}
	}

	lumStd := pixops.StdDev(n, func(i int) float64 { return hsl[i][2] })
	noise := pixops.NewNoiseSampler(p, lumStd)

	for i := 0; i < n; i++ {
		h := pixops.WrapDegrees(hsl[i][0]+noise.HueShift(), 360)
		l := noise.Luminance(hsl[i][2])
		r, g, bl := colorful.Hsl(h, hsl[i][1], l).Clamped().RGB255()

		off := (i/b.Dx())*src.Stride + (i%b.Dx())*4
		src.Pix[off], src.Pix[off+1], src.Pix[off+2] = r, g, bl
	}
	return src, nil
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

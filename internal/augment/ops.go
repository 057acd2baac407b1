package augment

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/pkg/errors"

	"segmentation-augmentor/internal/geometry"
)

// Op is the configured form of one transform kind: the ranges its random
// parameters are drawn from. The set of implementations is closed.
type Op interface {
	Kind() Kind
	Validate() error
	isOp()
}

// Range is an inclusive [min, max] interval.
type Range [2]float64

func (r Range) Min() float64 { return r[0] }
func (r Range) Max() float64 { return r[1] }

func (r Range) uniform(rng *rand.Rand) float64 {
	if r.Min() == r.Max() {
		return r.Min()
	}
	return r.Min() + rng.Float64()*(r.Max()-r.Min())
}

func (r Range) check(name string, lo, hi float64) error {
	if r.Min() > r.Max() {
		return errors.Errorf("%s: min %g is greater than max %g", name, r.Min(), r.Max())
	}
	if r.Min() < lo || r.Max() > hi {
		return errors.Errorf("%s: [%g, %g] outside [%g, %g]", name, r.Min(), r.Max(), lo, hi)
	}
	return nil
}

// symmetric draws from U(-limit, limit).
func symmetric(rng *rand.Rand, limit float64) float64 {
	return Range{-limit, limit}.uniform(rng)
}

// BrightnessContrast scales and shifts intensities:
// out = alpha*v + beta*255 with alpha = 1+U(-c,c), beta = U(-b,b).
type BrightnessContrast struct {
	BrightnessLimit float64 `yaml:"brightness_limit"`
	ContrastLimit   float64 `yaml:"contrast_limit"`
}

type BrightnessContrastParams struct {
	Alpha float64
	Beta  float64
}

func (BrightnessContrast) Kind() Kind { return KindBrightnessContrast }
func (BrightnessContrast) isOp()      {}

func (o BrightnessContrast) Validate() error {
	if o.BrightnessLimit < 0 || o.BrightnessLimit > 1 {
		return errors.Errorf("brightness_limit %g outside [0, 1]", o.BrightnessLimit)
	}
	if o.ContrastLimit < 0 || o.ContrastLimit > 1 {
		return errors.Errorf("contrast_limit %g outside [0, 1]", o.ContrastLimit)
	}
	return nil
}

func (o BrightnessContrast) draw(rng *rand.Rand) BrightnessContrastParams {
	return BrightnessContrastParams{
		Alpha: 1 + symmetric(rng, o.ContrastLimit),
		Beta:  symmetric(rng, o.BrightnessLimit),
	}
}

// Defocus convolves with an anti-aliased disk.
type Defocus struct {
	Radius    [2]int `yaml:"radius"`
	AliasBlur Range  `yaml:"alias_blur"`
}

type DefocusParams struct {
	Radius    int
	AliasBlur float64
}

func (Defocus) Kind() Kind { return KindDefocus }
func (Defocus) isOp()      {}

func (o Defocus) Validate() error {
	if o.Radius[0] < 1 || o.Radius[0] > o.Radius[1] {
		return errors.Errorf("radius [%d, %d] must satisfy 1 <= min <= max", o.Radius[0], o.Radius[1])
	}
	return o.AliasBlur.check("alias_blur", 0, 10)
}

func (o Defocus) draw(rng *rand.Rand) DefocusParams {
	return DefocusParams{
		Radius:    o.Radius[0] + rng.IntN(o.Radius[1]-o.Radius[0]+1),
		AliasBlur: o.AliasBlur.uniform(rng),
	}
}

// GlassBlur blurs, shuffles pixels within MaxDelta, and blurs again.
type GlassBlur struct {
	Sigma      float64 `yaml:"sigma"`
	MaxDelta   int     `yaml:"max_delta"`
	Iterations int     `yaml:"iterations"`
}

// GlassBlurParams carries the seed that drives the pixel shuffle so the
// engine's randomness is fixed by the descriptor draw.
type GlassBlurParams struct {
	Sigma      float64
	MaxDelta   int
	Iterations int
	Seed       uint64
}

func (GlassBlur) Kind() Kind { return KindGlassBlur }
func (GlassBlur) isOp()      {}

func (o GlassBlur) Validate() error {
	if o.Sigma < 0 {
		return errors.Errorf("sigma %g must not be negative", o.Sigma)
	}
	if o.MaxDelta < 1 {
		return errors.Errorf("max_delta %d must be at least 1", o.MaxDelta)
	}
	if o.Iterations < 1 {
		return errors.Errorf("iterations %d must be at least 1", o.Iterations)
	}
	return nil
}

func (o GlassBlur) draw(rng *rand.Rand) GlassBlurParams {
	return GlassBlurParams{Sigma: o.Sigma, MaxDelta: o.MaxDelta, Iterations: o.Iterations, Seed: rng.Uint64()}
}

// ISONoise simulates sensor noise in HLS space.
type ISONoise struct {
	ColorShift Range `yaml:"color_shift"`
	Intensity  Range `yaml:"intensity"`
}

type ISONoiseParams struct {
	ColorShift float64
	Intensity  float64
	Seed       uint64
}

func (ISONoise) Kind() Kind { return KindISONoise }
func (ISONoise) isOp()      {}

func (o ISONoise) Validate() error {
	if err := o.ColorShift.check("color_shift", 0, 1); err != nil {
		return err
	}
	return o.Intensity.check("intensity", 0, 1)
}

func (o ISONoise) draw(rng *rand.Rand) ISONoiseParams {
	return ISONoiseParams{
		ColorShift: o.ColorShift.uniform(rng),
		Intensity:  o.Intensity.uniform(rng),
		Seed:       rng.Uint64(),
	}
}

// ShiftScaleRotate is the geometric transform. Limits are symmetric:
// shift as a fraction of width/height, scale as 1±limit, rotation in degrees.
type ShiftScaleRotate struct {
	ShiftLimit  float64 `yaml:"shift_limit"`
	ScaleLimit  float64 `yaml:"scale_limit"`
	RotateLimit float64 `yaml:"rotate_limit"`
}

// AffineParams is one shared draw. Matrix is the only thing engines use; the
// other fields are kept for logs and tests.
type AffineParams struct {
	Angle  float64
	Scale  float64
	DX, DY float64
	Matrix geometry.Affine
}

func (p AffineParams) String() string {
	return fmt.Sprintf("angle=%.3f scale=%.4f dx=%.2f dy=%.2f", p.Angle, p.Scale, p.DX, p.DY)
}

func (ShiftScaleRotate) Kind() Kind { return KindShiftScaleRotate }
func (ShiftScaleRotate) isOp()      {}

func (o ShiftScaleRotate) Validate() error {
	if o.ShiftLimit < 0 || o.ShiftLimit >= 1 {
		return errors.Errorf("shift_limit %g outside [0, 1)", o.ShiftLimit)
	}
	if o.ScaleLimit < 0 || o.ScaleLimit >= 1 {
		return errors.Errorf("scale_limit %g outside [0, 1)", o.ScaleLimit)
	}
	if o.RotateLimit < 0 || o.RotateLimit > 180 {
		return errors.Errorf("rotate_limit %g outside [0, 180]", o.RotateLimit)
	}
	return nil
}

func (o ShiftScaleRotate) draw(rng *rand.Rand, size image.Point) AffineParams {
	p := AffineParams{
		Angle: symmetric(rng, o.RotateLimit),
		Scale: 1 + symmetric(rng, o.ScaleLimit),
		DX:    symmetric(rng, o.ShiftLimit) * float64(size.X),
		DY:    symmetric(rng, o.ShiftLimit) * float64(size.Y),
	}
	p.Matrix = geometry.RotationAbout(geometry.Center(size.X, size.Y), p.Angle, p.Scale).
		Then(geometry.Translation(p.DX, p.DY))
	return p
}

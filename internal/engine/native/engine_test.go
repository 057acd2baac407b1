package native

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/geometry"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func rgbAt(img image.Image, x, y int) [3]int {
	r, g, b, _ := img.At(x, y).RGBA()
	return [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
}

func TestBrightnessContrast(t *testing.T) {
	e := New()
	src := uniform(4, 3, color.NRGBA{R: 100, G: 10, B: 250, A: 255})

	same, err := e.BrightnessContrast(src, augment.BrightnessContrastParams{Alpha: 1})
	require.NoError(t, err)
	assert.Equal(t, src.Pix, same.(*image.NRGBA).Pix)

	out, err := e.BrightnessContrast(src, augment.BrightnessContrastParams{Alpha: 2, Beta: 0.1})
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())
	// 2*100+25.5, 2*10+25.5, clipped.
	assert.Equal(t, [3]int{226, 46, 255}, rgbAt(out, 1, 1))

	_, err = e.BrightnessContrast(src, augment.BrightnessContrastParams{Alpha: -1})
	assert.Error(t, err)
}

func TestBlursKeepUniformImagesUniform(t *testing.T) {
	e := New()
	c := color.NRGBA{R: 200, G: 90, B: 30, A: 255}
	src := uniform(24, 18, c)

	defocused, err := e.Defocus(src, augment.DefocusParams{Radius: 2, AliasBlur: 0.12})
	require.NoError(t, err)
	glass, err := e.GlassBlur(src, augment.GlassBlurParams{Sigma: 0.7, MaxDelta: 2, Iterations: 2, Seed: 3})
	require.NoError(t, err)

	for name, out := range map[string]image.Image{"defocus": defocused, "glass": glass} {
		require.Equal(t, src.Bounds(), out.Bounds(), name)
		for _, pt := range []image.Point{{0, 0}, {12, 9}, {23, 17}} {
			got := rgbAt(out, pt.X, pt.Y)
			assert.InDelta(t, 200, got[0], 1, name)
			assert.InDelta(t, 90, got[1], 1, name)
			assert.InDelta(t, 30, got[2], 1, name)
		}
	}
}

func TestDefocusRejectsZeroRadius(t *testing.T) {
	_, err := New().Defocus(gradient(4, 4), augment.DefocusParams{Radius: 0})
	assert.Error(t, err)
}

func TestISONoiseIsSeeded(t *testing.T) {
	e := New()
	src := gradient(16, 12)
	p := augment.ISONoiseParams{ColorShift: 0.03, Intensity: 0.3, Seed: 11}

	a, err := e.ISONoise(src, p)
	require.NoError(t, err)
	b, err := e.ISONoise(src, p)
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), a.Bounds())
	assert.Equal(t, a.(*image.NRGBA).Pix, b.(*image.NRGBA).Pix)
	assert.NotEqual(t, src.Pix, a.(*image.NRGBA).Pix)
	// The input is never modified in place.
	assert.Equal(t, gradient(16, 12).Pix, src.Pix)
}

func TestWarpQuarterTurnKeepsImageAndMaskAligned(t *testing.T) {
	const n = 4
	src := gradient(n, n)
	mask := image.NewGray(image.Rect(0, 0, n, n))
	for i := range mask.Pix {
		mask.Pix[i] = uint8(i)
	}
	p := augment.AffineParams{Angle: 90, Scale: 1, Matrix: geometry.RotationAbout(geometry.Center(n, n), 90, 1)}

	img, warped, err := New().WarpAffine(src, mask, p, augment.DefaultFill())
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), img.Bounds())
	require.Equal(t, mask.Bounds(), warped.Bounds())

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			// Every destination pixel came from exactly one source pixel; the
			// mask tells which one, and the image must agree.
			label := int(warped.GrayAt(x, y).Y)
			sx, sy := label%n, label/n
			want := rgbAt(src, sx, sy)
			got := rgbAt(img, x, y)
			for c := range want {
				assert.InDelta(t, want[c], got[c], 1, "pixel (%d,%d) from (%d,%d)", x, y, sx, sy)
			}
		}
	}
	// The top-left source pixel lands in the bottom-left corner.
	assert.Equal(t, uint8(0), warped.GrayAt(0, n-1).Y)
}

func TestWarpNeverInventsLabels(t *testing.T) {
	const w, h = 30, 20
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < 10:
				mask.SetGray(x, y, color.Gray{Y: 3})
			case x < 20:
				mask.SetGray(x, y, color.Gray{Y: 7})
			}
		}
	}
	allowed := map[uint8]bool{0: true, 3: true, 7: true, 255: true}

	for _, angle := range []float64{-4.3, 2.1, 17, 45} {
		m := geometry.RotationAbout(geometry.Center(w, h), angle, 0.87).Then(geometry.Translation(1.3, -0.6))
		_, out, err := New().WarpAffine(gradient(w, h), mask, augment.AffineParams{Matrix: m}, augment.Fill{Label: 255})
		require.NoError(t, err)
		for _, v := range out.Pix {
			assert.True(t, allowed[v], "angle %g produced label %d", angle, v)
		}
	}
}

func TestWarpFillsExposedArea(t *testing.T) {
	const w, h = 10, 6
	fill := augment.Fill{Image: color.RGBA{R: 1, G: 2, B: 3, A: 255}, Label: 200}
	mask := image.NewGray(image.Rect(0, 0, w, h))

	img, out, err := New().WarpAffine(gradient(w, h), mask, augment.AffineParams{Matrix: geometry.Translation(w, 0)}, fill)
	require.NoError(t, err)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(200), v)
	}
	assert.Equal(t, [3]int{1, 2, 3}, rgbAt(img, 4, 3))

	// Shifting by half the width exposes exactly the left half.
	img, out, err = New().WarpAffine(gradient(w, h), mask, augment.AffineParams{Matrix: geometry.Translation(w/2, 0)}, fill)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), out.GrayAt(w/2-1, 2).Y)
	assert.Equal(t, uint8(0), out.GrayAt(w/2, 2).Y)
	assert.Equal(t, [3]int{1, 2, 3}, rgbAt(img, 0, 0))
}

func TestWarpRejectsBadInput(t *testing.T) {
	e := New()
	_, _, err := e.WarpAffine(gradient(4, 4), image.NewGray(image.Rect(0, 0, 3, 4)), augment.AffineParams{Matrix: geometry.Translation(0, 0)}, augment.DefaultFill())
	assert.Error(t, err)

	singular := augment.AffineParams{Matrix: geometry.Affine{A: 1, B: 2, C: 2, D: 4}}
	_, _, err = e.WarpAffine(gradient(4, 4), image.NewGray(image.Rect(0, 0, 4, 4)), singular, augment.DefaultFill())
	assert.Error(t, err)
}

func TestDefaultRegistryRunsOnNativeEngine(t *testing.T) {
	s := augment.Sample{Image: gradient(20, 14), Mask: image.NewGray(image.Rect(0, 0, 20, 14))}
	for _, d := range augment.DefaultRegistry().Descriptors() {
		res, err := d.Apply(New(), augment.CellRand(5, "1", d.Name), s, augment.DefaultFill())
		require.NoError(t, err, d.Name)
		assert.Equal(t, s.Image.Bounds(), res.Image.Bounds(), d.Name)
		assert.Equal(t, s.Mask.Bounds(), res.Mask.Bounds(), d.Name)
	}
}

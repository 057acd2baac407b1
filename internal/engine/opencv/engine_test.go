package opencv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/engine/native"
	"segmentation-augmentor/internal/geometry"
	"segmentation-augmentor/internal/opencv/memory"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x * y) % 256), A: 255})
		}
	}
	return img
}

func TestBrightnessContrastMatchesNative(t *testing.T) {
	src := gradient(12, 9)
	p := augment.BrightnessContrastParams{Alpha: 1.3, Beta: -0.1}

	got, err := New(nil).BrightnessContrast(src, p)
	require.NoError(t, err)
	want, err := native.New().BrightnessContrast(src, p)
	require.NoError(t, err)

	g, w := got.(*image.NRGBA), want.(*image.NRGBA)
	for i := range g.Pix {
		assert.InDelta(t, w.Pix[i], g.Pix[i], 1, "byte %d", i)
	}
}

func TestQuarterTurnMatchesNative(t *testing.T) {
	const n = 6
	mask := image.NewGray(image.Rect(0, 0, n, n))
	for i := range mask.Pix {
		mask.Pix[i] = uint8(i)
	}
	p := augment.AffineParams{Angle: 90, Scale: 1, Matrix: geometry.RotationAbout(geometry.Center(n, n), 90, 1)}

	_, got, err := New(nil).WarpAffine(gradient(n, n), mask, p, augment.DefaultFill())
	require.NoError(t, err)
	_, want, err := native.New().WarpAffine(gradient(n, n), mask, p, augment.DefaultFill())
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestWarpUsesFillValues(t *testing.T) {
	const w, h = 8, 6
	fill := augment.Fill{Image: color.RGBA{R: 10, G: 20, B: 30, A: 255}, Label: 255}
	p := augment.AffineParams{Matrix: geometry.Translation(w/2, 0)}

	img, mask, err := New(nil).WarpAffine(gradient(w, h), image.NewGray(image.Rect(0, 0, w, h)), p, fill)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), mask.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), mask.GrayAt(w-1, 0).Y)

	r, g, b, _ := img.At(0, h-1).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestDefaultRegistryReleasesAllMats(t *testing.T) {
	tracker := memory.NewTracker()
	e := New(tracker)
	s := augment.Sample{Image: gradient(24, 16), Mask: image.NewGray(image.Rect(0, 0, 24, 16))}

	for _, d := range augment.DefaultRegistry().Descriptors() {
		res, err := d.Apply(e, augment.CellRand(3, "img", d.Name), s, augment.DefaultFill())
		require.NoError(t, err, d.Name)
		assert.Equal(t, s.Image.Bounds(), res.Image.Bounds(), d.Name)
		assert.Equal(t, s.Mask.Bounds(), res.Mask.Bounds(), d.Name)
	}
	assert.Zero(t, tracker.Stats().ActiveMats)
	assert.Empty(t, tracker.Leaks())
}

func TestRejectsInvalidParameters(t *testing.T) {
	e := New(nil)
	_, err := e.BrightnessContrast(gradient(2, 2), augment.BrightnessContrastParams{Alpha: -1})
	assert.Error(t, err)
	_, err = e.Defocus(gradient(2, 2), augment.DefocusParams{})
	assert.Error(t, err)
	_, err = e.GlassBlur(gradient(2, 2), augment.GlassBlurParams{})
	assert.Error(t, err)
}

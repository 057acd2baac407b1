package pixops

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segmentation-augmentor/internal/augment"
)

func TestDiskKernel(t *testing.T) {
	for _, radius := range []int{1, 2, 9} {
		kernel, side := DiskKernel(radius, 0.12)
		require.Equal(t, side*side, len(kernel))
		assert.Equal(t, 2*max(8, radius)+1, side)

		var sum float64
		for _, w := range kernel {
			assert.GreaterOrEqual(t, w, float32(0))
			sum += float64(w)
		}
		assert.InDelta(t, 1, sum, 1e-5, "radius %d", radius)

		// Symmetric, peaked at the centre, empty in the corners.
		centre := kernel[(side/2)*side+side/2]
		assert.Equal(t, slices.Max(kernel), centre)
		assert.Zero(t, kernel[0])
		assert.InDelta(t, kernel[(side/2)*side], kernel[(side/2)*side+side-1], 1e-9)
	}
}

func TestDiskKernelWithoutAliasBlur(t *testing.T) {
	kernel, side := DiskKernel(1, 0)
	var nonZero int
	for _, w := range kernel {
		if w > 0 {
			nonZero++
		}
	}
	// Radius 1: the centre and its four direct neighbours.
	assert.Equal(t, 5, nonZero)
	assert.Equal(t, 17, side)
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(2, 5))
	assert.Equal(t, 0, reflect101(3, 1))
}

func TestGlassShufflePreservesPixels(t *testing.T) {
	const w, h, ch = 9, 7, 3
	pix := make([]uint8, w*h*ch)
	for i := range pix {
		pix[i] = uint8(i)
	}
	orig := slices.Clone(pix)

	GlassShuffle(pix, w, h, w*ch, ch, 1, 2, 99)

	assert.NotEqual(t, orig, pix)
	sortedOrig, sortedNew := slices.Clone(orig), slices.Clone(pix)
	slices.Sort(sortedOrig)
	slices.Sort(sortedNew)
	assert.Equal(t, sortedOrig, sortedNew)

	// Pixels stay intact as triplets.
	for i := 0; i < len(pix); i += ch {
		assert.Equal(t, pix[i]+1, pix[i+1])
		assert.Equal(t, pix[i]+2, pix[i+2])
	}

	// Same seed, same shuffle.
	again := slices.Clone(orig)
	GlassShuffle(again, w, h, w*ch, ch, 1, 2, 99)
	assert.Equal(t, pix, again)
}

func TestGlassShuffleTooSmall(t *testing.T) {
	pix := []uint8{1, 2, 3, 4}
	GlassShuffle(pix, 2, 2, 2, 1, 1, 1, 5)
	assert.Equal(t, []uint8{1, 2, 3, 4}, pix)
}

func TestNoiseSampler(t *testing.T) {
	n := NewNoiseSampler(augment.ISONoiseParams{ColorShift: 0.03, Intensity: 0.3, Seed: 1}, 0.2)
	for i := 0; i < 100; i++ {
		l := n.Luminance(0.5)
		assert.GreaterOrEqual(t, l, 0.5)
	}
	assert.Equal(t, 1.0, n.Luminance(1))

	quiet := NewNoiseSampler(augment.ISONoiseParams{Seed: 1}, 0.2)
	assert.Zero(t, quiet.HueShift())
	assert.Equal(t, 0.25, quiet.Luminance(0.25))
}

func TestWrapDegreesAndStdDev(t *testing.T) {
	assert.InDelta(t, 350, WrapDegrees(-10, 360), 1e-9)
	assert.InDelta(t, 10, WrapDegrees(370, 360), 1e-9)
	assert.InDelta(t, 170, WrapDegrees(-10, 180), 1e-9)

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2, StdDev(len(values), func(i int) float64 { return values[i] }), 1e-9)
	assert.Zero(t, StdDev(0, nil))
}

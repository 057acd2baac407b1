// Package pixops holds the small pixel-level routines both augmentation
// engines need and that neither OpenCV nor the Go imaging libraries provide
// directly.
package pixops

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"segmentation-augmentor/internal/augment"
)

// DiskKernel returns a square, row-major convolution kernel holding a disk of
// the given radius smoothed by a Gaussian of sigma aliasBlur. The kernel side
// is 2*max(8, radius)+1 and its weights sum to 1.
func DiskKernel(radius int, aliasBlur float64) (kernel []float32, side int) {
	half := max(8, radius)
	side = 2*half + 1

	disk := make([]float64, side*side)
	r2 := radius * radius
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			if x*x+y*y <= r2 {
				disk[(y+half)*side+x+half] = 1
			}
		}
	}

	ksize := 3
	if radius > 8 {
		ksize = 5
	}
	smoothed := gaussianSmooth(disk, side, ksize, aliasBlur)

	var sum float64
	for _, v := range smoothed {
		sum += v
	}
	kernel = make([]float32, len(smoothed))
	for i, v := range smoothed {
		kernel[i] = float32(v / sum)
	}
	return kernel, side
}

// gaussianSmooth applies a separable ksize Gaussian with reflect-101 borders.
func gaussianSmooth(src []float64, side, ksize int, sigma float64) []float64 {
	if sigma <= 0 {
		return src
	}
	half := ksize / 2
	weights := make([]float64, ksize)
	var total float64
	for i := range weights {
		d := float64(i - half)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	tmp := make([]float64, len(src))
	dst := make([]float64, len(src))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			var acc float64
			for k, w := range weights {
				acc += w * src[y*side+reflect101(x+k-half, side)]
			}
			tmp[y*side+x] = acc
		}
	}
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			var acc float64
			for k, w := range weights {
				acc += w * tmp[reflect101(y+k-half, side)*side+x]
			}
			dst[y*side+x] = acc
		}
	}
	return dst
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// GlassShuffle swaps every pixel of an interleaved 8-bit buffer with a random
// neighbour at offset [-maxDelta, maxDelta) on each axis, walking from the
// bottom-right corner towards the top-left, iterations times. Only the first
// channels bytes of each pixel are moved.
func GlassShuffle(pix []uint8, width, height, stride, channels, maxDelta, iterations int, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	span := 2 * maxDelta
	for it := 0; it < iterations; it++ {
		for y := height - maxDelta; y > maxDelta; y-- {
			for x := width - maxDelta; x > maxDelta; x-- {
				dx := rng.IntN(span) - maxDelta
				dy := rng.IntN(span) - maxDelta
				a := y*stride + x*channels
				b := (y+dy)*stride + (x+dx)*channels
				for c := 0; c < channels; c++ {
					pix[a+c], pix[b+c] = pix[b+c], pix[a+c]
				}
			}
		}
	}
}

// NoiseSampler draws the per-pixel sensor noise of one ISONoise invocation.
type NoiseSampler struct {
	hue distuv.Normal
	lum distuv.Poisson
}

// NewNoiseSampler prepares the hue and luminance distributions. lumStd is the
// standard deviation of the image luminance on a 0..1 scale.
func NewNoiseSampler(p augment.ISONoiseParams, lumStd float64) *NoiseSampler {
	src := rand.NewPCG(p.Seed, p.Seed^0xbf58476d1ce4e5b9)
	return &NoiseSampler{
		hue: distuv.Normal{Mu: 0, Sigma: p.ColorShift * 360 * p.Intensity, Src: src},
		lum: distuv.Poisson{Lambda: lumStd * p.Intensity * 255, Src: src},
	}
}

// HueShift returns a hue offset in degrees.
func (n *NoiseSampler) HueShift() float64 {
	if n.hue.Sigma <= 0 {
		return 0
	}
	return n.hue.Rand()
}

// Luminance adds noise to l (0..1), pushing it towards 1 and never past it.
func (n *NoiseSampler) Luminance(l float64) float64 {
	if n.lum.Lambda <= 0 {
		return l
	}
	return l + n.lum.Rand()/255*(1-l)
}

// WrapDegrees folds h into [0, period).
func WrapDegrees(h, period float64) float64 {
	h = math.Mod(h, period)
	if h < 0 {
		h += period
	}
	return h
}

// StdDev of n samples produced by at.
func StdDev(n int, at func(i int) float64) float64 {
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := at(i)
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	return math.Sqrt(math.Max(0, sumSq/float64(n)-mean*mean))
}

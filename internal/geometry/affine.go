// Package geometry holds the 2x3 affine matrices shared by the warp engines.
//
// Coordinates are pixel indices: the centre of the top-left pixel is (0, 0),
// which is the convention OpenCV's warpAffine uses.
package geometry

import "math"

// Point is a 2D point in pixel-index coordinates.
type Point struct {
	X, Y float64
}

// Affine is a forward (source to destination) transform.
// [A B TX]
// [C D TY]
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// Translation returns a translation transform.
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, TX: tx, TY: ty}
}

// RotationAbout rotates by degrees counter-clockwise (as seen on screen, y
// pointing down) and scales about center. It is the matrix produced by
// cv::getRotationMatrix2D.
func RotationAbout(center Point, degrees, scale float64) Affine {
	rad := degrees * math.Pi / 180
	alpha := scale * math.Cos(rad)
	beta := scale * math.Sin(rad)
	return Affine{
		A: alpha, B: beta, TX: (1-alpha)*center.X - beta*center.Y,
		C: -beta, D: alpha, TY: beta*center.X + (1-alpha)*center.Y,
	}
}

// Center returns the pixel-index centre of a w x h raster.
func Center(w, h int) Point {
	return Point{X: float64(w-1) / 2, Y: float64(h-1) / 2}
}

// Apply maps p through the transform.
func (t Affine) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns t * other, i.e. other is applied first.
func (t Affine) Compose(other Affine) Affine {
	return Affine{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Then returns the transform that applies t and afterwards next.
func (t Affine) Then(next Affine) Affine {
	return next.Compose(t)
}

// Inverse returns the inverse transform, if it exists.
func (t Affine) Inverse() (Affine, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}

	invDet := 1.0 / det
	return Affine{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Matrix returns the row-major 2x3 coefficients.
func (t Affine) Matrix() [2][3]float64 {
	return [2][3]float64{
		{t.A, t.B, t.TX},
		{t.C, t.D, t.TY},
	}
}

// ToEdgeCoordinates re-expresses t for a coordinate system whose origin is
// the top-left corner of the top-left pixel (pixel centres at +0.5), which is
// what golang.org/x/image/draw expects.
func (t Affine) ToEdgeCoordinates() Affine {
	return Translation(0.5, 0.5).Compose(t).Compose(Translation(-0.5, -0.5))
}

// ApproxEqual compares two transforms coefficient by coefficient.
func (t Affine) ApproxEqual(other Affine, tol float64) bool {
	a, b := t.Matrix(), other.Matrix()
	for r := range a {
		for c := range a[r] {
			if math.Abs(a[r][c]-b[r][c]) > tol {
				return false
			}
		}
	}
	return true
}

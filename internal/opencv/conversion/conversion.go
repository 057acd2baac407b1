package conversion

import (
	"image"
	"image/draw"
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"segmentation-augmentor/internal/opencv/safe"
)

// ImageToBGR converts any image to a 3-channel BGR Mat owned by scope. Alpha
// is dropped.
func ImageToBGR(scope *safe.Scope, img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	b := img.Bounds()
	if err := safe.ValidateDimensions(b.Dx(), b.Dy(), "image to Mat"); err != nil {
		return nil, err
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	data := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := 0; y < b.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			data = append(data, row[x+2], row[x+1], row[x])
		}
	}
	return FromBytes(scope, b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, data, "bgr")
}

// GrayToMat converts a label mask to a single-channel Mat owned by scope.
func GrayToMat(scope *safe.Scope, mask *image.Gray) (*safe.Mat, error) {
	if mask == nil {
		return nil, errors.New("input mask is nil")
	}
	b := mask.Bounds()
	if err := safe.ValidateDimensions(b.Dx(), b.Dy(), "mask to Mat"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := mask.PixOffset(b.Min.X, y)
		data = append(data, mask.Pix[off:off+b.Dx()]...)
	}
	return FromBytes(scope, b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, data, "gray")
}

// FromBytes copies interleaved 8-bit pixel data into a new Mat.
func FromBytes(scope *safe.Scope, rows, cols int, matType gocv.MatType, data []byte, tag string) (*safe.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: wrapping %dx%d pixels", tag, cols, rows)
	}
	// The view borrows data; clone so the Mat owns its memory.
	owned := view.Clone()
	view.Close()
	runtime.KeepAlive(data)
	return scope.Own(owned, tag)
}

// MatToNRGBA converts a 3-channel BGR Mat to an opaque NRGBA image.
func MatToNRGBA(src *safe.Mat) (*image.NRGBA, error) {
	if err := safe.ValidateChannels(src, 3, "Mat to image"); err != nil {
		return nil, err
	}
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	rows, cols := src.Rows(), src.Cols()
	if len(data) != rows*cols*3 {
		return nil, errors.Errorf("Mat to image: expected %d bytes, got %d", rows*cols*3, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = data[i+2], data[i+1], data[i], 255
	}
	return img, nil
}

// MatToGray converts a single-channel 8-bit Mat to a grayscale image.
func MatToGray(src *safe.Mat) (*image.Gray, error) {
	if err := safe.ValidateChannels(src, 1, "Mat to mask"); err != nil {
		return nil, err
	}
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	rows, cols := src.Rows(), src.Cols()
	if len(data) != rows*cols {
		return nil, errors.Errorf("Mat to mask: expected %d bytes, got %d", rows*cols, len(data))
	}
	return &image.Gray{Pix: data, Stride: cols, Rect: image.Rect(0, 0, cols, rows)}, nil
}

package conversion

import (
	"gocv.io/x/gocv"

	"segmentation-augmentor/internal/opencv/safe"
)

// BGRToHLS converts to OpenCV's 8-bit HLS, where hue is stored in [0, 180).
func BGRToHLS(scope *safe.Scope, src *safe.Mat) (*safe.Mat, error) {
	return convert(scope, src, gocv.ColorBGRToHLS, "hls")
}

func HLSToBGR(scope *safe.Scope, src *safe.Mat) (*safe.Mat, error) {
	return convert(scope, src, gocv.ColorHLSToBGR, "bgr")
}

func convert(scope *safe.Scope, src *safe.Mat, code gocv.ColorConversionCode, tag string) (*safe.Mat, error) {
	if err := safe.ValidateChannels(src, 3, "color conversion to "+tag); err != nil {
		return nil, err
	}
	dst := scope.NewEmpty(tag)
	gocv.CvtColor(src.Mat(), dst.Ptr(), code)
	if err := safe.ValidateMatForOperation(dst, "color conversion to "+tag); err != nil {
		return nil, err
	}
	return dst, nil
}

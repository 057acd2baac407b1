package pipeline

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/dataset"
	"segmentation-augmentor/internal/logger"
)

// Loader decodes a validated pair into an augmentation sample.
type Loader struct {
	logger logger.Logger
}

func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{logger: log}
}

// Load decodes image and mask and checks that their sizes agree. Failures
// come back as *UnreadableImageError, *UnreadableMaskError or
// *DimensionMismatchError.
func (l *Loader) Load(pair dataset.Pair) (augment.Sample, error) {
	img, err := l.LoadImage(pair.ImagePath)
	if err != nil {
		return augment.Sample{}, err
	}
	mask, err := l.LoadMask(pair.MaskPath)
	if err != nil {
		return augment.Sample{}, err
	}
	if img.Bounds().Size() != mask.Bounds().Size() {
		return augment.Sample{}, &DimensionMismatchError{
			ImagePath: pair.ImagePath,
			MaskPath:  pair.MaskPath,
			Image:     img.Bounds().Size(),
			Mask:      mask.Bounds().Size(),
		}
	}

	l.logger.Debug("Loader", "pair loaded", map[string]interface{}{
		"pair":   pair.ID,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})
	return augment.Sample{Image: img, Mask: mask}, nil
}

// LoadImage decodes any registered format into an NRGBA image anchored at
// the origin.
func (l *Loader) LoadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &UnreadableImageError{Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &UnreadableImageError{Path: path, Err: errors.New("image has no pixels")}
	}
	return imaging.Clone(img), nil
}

// LoadMask decodes a label mask. Paletted masks keep their palette indices as
// labels; every other colour model is converted to 8-bit gray.
func (l *Loader) LoadMask(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableMaskError{Path: path, Err: err}
	}
	defer f.Close()

	decoded, format, err := image.Decode(f)
	if err != nil {
		return nil, &UnreadableMaskError{Path: path, Err: err}
	}
	b := decoded.Bounds()
	if b.Empty() {
		return nil, &UnreadableMaskError{Path: path, Err: errors.New("mask has no pixels")}
	}

	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src := decoded.(type) {
	case *image.Paletted:
		for y := 0; y < b.Dy(); y++ {
			copy(mask.Pix[y*mask.Stride:y*mask.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	default:
		if _, gray := decoded.(*image.Gray); !gray {
			l.logger.Debug("Loader", "converting colour mask to gray", map[string]interface{}{
				"path":   path,
				"format": format,
				"model":  colorModelName(decoded),
			})
		}
		draw.Draw(mask, mask.Bounds(), decoded, b.Min, draw.Src)
	}
	return mask, nil
}

func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.Gray16:
		return "gray16"
	case *image.RGBA, *image.NRGBA:
		return "rgba"
	case *image.RGBA64, *image.NRGBA64:
		return "rgba64"
	case *image.YCbCr:
		return "ycbcr"
	default:
		return "other"
	}
}

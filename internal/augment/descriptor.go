package augment

import (
	"image"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// Sample is a decoded image and its label mask.
type Sample struct {
	Image image.Image
	Mask  *image.Gray
}

// Descriptor is one registry entry: a unique name bound to a configured Op.
type Descriptor struct {
	Name string
	Op   Op
}

// Class is derived from the op kind.
func (d Descriptor) Class() Class { return d.Op.Kind().Class() }

// Result is the augmented sample plus the parameters drawn for it.
type Result struct {
	Sample
	Params any
}

// Apply draws this descriptor's random parameters once from rng and runs them
// through engine. Photometric results carry the input mask unchanged;
// geometric results carry the mask warped by the same draw as the image.
func (d Descriptor) Apply(engine Engine, rng *rand.Rand, s Sample, fill Fill) (Result, error) {
	if s.Image == nil || s.Mask == nil {
		return Result{}, errors.New("sample needs both an image and a mask")
	}
	size := s.Image.Bounds().Size()
	if size != s.Mask.Bounds().Size() {
		return Result{}, errors.Errorf("image is %v but mask is %v", size, s.Mask.Bounds().Size())
	}

	var (
		out    = Result{Sample: Sample{Mask: s.Mask}}
		err    error
		params any
	)
	switch op := d.Op.(type) {
	case BrightnessContrast:
		p := op.draw(rng)
		params = p
		out.Image, err = engine.BrightnessContrast(s.Image, p)
	case Defocus:
		p := op.draw(rng)
		params = p
		out.Image, err = engine.Defocus(s.Image, p)
	case GlassBlur:
		p := op.draw(rng)
		params = p
		out.Image, err = engine.GlassBlur(s.Image, p)
	case ISONoise:
		p := op.draw(rng)
		params = p
		out.Image, err = engine.ISONoise(s.Image, p)
	case ShiftScaleRotate:
		p := op.draw(rng, size)
		params = p
		out.Image, out.Mask, err = engine.WarpAffine(s.Image, s.Mask, p, fill)
	default:
		return Result{}, errors.Errorf("transform %s: unsupported op %T", d.Name, d.Op)
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s engine: %s", engine.Name(), d.Name)
	}
	if out.Image == nil || out.Mask == nil {
		return Result{}, errors.Errorf("%s engine: %s returned an empty result", engine.Name(), d.Name)
	}
	out.Params = params
	return out, nil
}

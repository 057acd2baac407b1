package augment

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Spec is the configuration-file form of a descriptor:
//
//   - name: StrongRotate
//     kind: shift_scale_rotate
//     params: {rotate_limit: 30}
//
// Params omitted from the file keep the default values of the kind.
type Spec struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// Descriptor decodes the spec into a validated descriptor.
func (s Spec) Descriptor() (Descriptor, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "transform %s", s.Name)
	}

	op := defaultOp(kind)
	if s.Params.Kind != 0 {
		switch o := op.(type) {
		case BrightnessContrast:
			err = s.Params.Decode(&o)
			op = o
		case Defocus:
			err = s.Params.Decode(&o)
			op = o
		case GlassBlur:
			err = s.Params.Decode(&o)
			op = o
		case ISONoise:
			err = s.Params.Decode(&o)
			op = o
		case ShiftScaleRotate:
			err = s.Params.Decode(&o)
			op = o
		}
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "transform %s: decoding %s params", s.Name, kind)
		}
	}

	d := Descriptor{Name: s.Name, Op: op}
	if err := op.Validate(); err != nil {
		return Descriptor{}, errors.Wrapf(err, "transform %s", s.Name)
	}
	return d, nil
}

// RegistryFromSpecs builds a registry in spec order. An empty list yields the
// default registry.
func RegistryFromSpecs(specs []Spec) (*Registry, error) {
	if len(specs) == 0 {
		return DefaultRegistry(), nil
	}
	r, _ := NewRegistry()
	for _, spec := range specs {
		d, err := spec.Descriptor()
		if err != nil {
			return nil, err
		}
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func defaultOp(kind Kind) Op {
	for _, d := range DefaultDescriptors() {
		if d.Op.Kind() == kind {
			return d.Op
		}
	}
	panic("no default op for kind " + kind.String())
}

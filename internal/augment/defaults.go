package augment

// DefaultDescriptors is the standard augmentation set: four photometric
// transforms followed by one geometric transform.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name: "RandomBrightnessContrast",
			Op:   BrightnessContrast{BrightnessLimit: 0.35, ContrastLimit: 0.35},
		},
		{
			Name: "Defocus",
			Op:   Defocus{Radius: [2]int{1, 2}, AliasBlur: Range{0.1, 0.15}},
		},
		{
			Name: "GlassBlur",
			Op:   GlassBlur{Sigma: 0.1, MaxDelta: 1, Iterations: 1},
		},
		{
			Name: "ISONoise",
			Op:   ISONoise{ColorShift: Range{0.02, 0.03}, Intensity: Range{0.2, 0.3}},
		},
		{
			Name: "ShiftScaleRotate",
			Op:   ShiftScaleRotate{ShiftLimit: 0.02, ScaleLimit: 0.2, RotateLimit: 5},
		},
	}
}

// DefaultRegistry builds a registry from DefaultDescriptors.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDescriptors()...)
	if err != nil {
		panic(err)
	}
	return r
}

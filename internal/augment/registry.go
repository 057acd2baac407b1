package augment

import (
	"hash/fnv"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Registry is the ordered set of descriptors applied to every pair.
// Build it once before a run; it is read-only afterwards.
type Registry struct {
	descriptors []Descriptor
	index       map[string]int
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(descriptors))}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends d. Names must be unique and usable as a single directory
// name, and the op must validate.
func (r *Registry) Register(d Descriptor) error {
	if err := checkName(d.Name); err != nil {
		return err
	}
	if d.Op == nil {
		return errors.Errorf("transform %s: missing op", d.Name)
	}
	if _, exists := r.index[d.Name]; exists {
		return errors.Errorf("transform %s registered twice", d.Name)
	}
	if err := d.Op.Validate(); err != nil {
		return errors.Wrapf(err, "transform %s", d.Name)
	}
	r.index[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
	return nil
}

// checkName rejects names that would not stay one path segment below an
// output root.
func checkName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("transform name must not be empty")
	case name == "." || name == "..":
		return errors.Errorf("transform name %q is reserved", name)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator),
		filepath.Base(name) != name:
		return errors.Errorf("transform name %q must not contain a path separator", name)
	}
	return nil
}

// Descriptors returns the entries in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Name
	}
	return names
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

func (r *Registry) Len() int { return len(r.descriptors) }

// CellRand returns the generator for one (pair, transform) cell. The stream
// depends only on the run seed and the two names, so it does not change with
// worker count or with the position of the transform in the registry.
func CellRand(seed uint64, pairID, transform string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(pairID))
	h.Write([]byte{0})
	h.Write([]byte(transform))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

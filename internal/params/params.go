// Package params maps named, shaped parameter collections to and from the
// flat vectors an optimizer works on.
package params

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/tensor"
)

// Set is an insertion-ordered mapping from name to tensor.
type Set struct {
	names  []string
	values map[string]tensor.Tensor
}

// New returns an empty Set.
func New() *Set {
	return &Set{values: make(map[string]tensor.Tensor)}
}

// Put stores v under name. Re-putting a name keeps its original position.
func (s *Set) Put(name string, v tensor.Tensor) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns the value stored under name.
func (s *Set) Get(name string) (tensor.Tensor, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the names in insertion order.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.names) }

// Layout returns the (name, shape) blocks of the set in insertion order.
func (s *Set) Layout() Layout {
	l := make(Layout, len(s.names))
	for i, name := range s.names {
		l[i] = Block{Name: name, Shape: slices.Clone(s.values[name].Shape)}
	}
	return l
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	out := New()
	for _, name := range s.names {
		out.Put(name, s.values[name].Clone())
	}
	return out
}

// Block is one named, shaped region of a flat vector.
type Block struct {
	Name  string
	Shape []int
}

// Size returns the number of elements in the block.
func (b Block) Size() int { return tensor.SizeOf(b.Shape) }

// Layout describes how a flat vector splits into named blocks.
type Layout []Block

// Size returns the total number of elements.
func (l Layout) Size() int {
	n := 0
	for _, b := range l {
		n += b.Size()
	}
	return n
}

// Compatible reports whether both layouts hold the same number of elements.
func (l Layout) Compatible(o Layout) bool {
	return l.Size() == o.Size()
}

// Labels expands the layout into one label per element. Blocks of size k > 1
// become name_0 ... name_{k-1}; single-element blocks keep the bare name.
func (l Layout) Labels() []string {
	labels := make([]string, 0, l.Size())
	for _, b := range l {
		k := b.Size()
		if k == 1 {
			labels = append(labels, b.Name)
			continue
		}
		for i := range k {
			labels = append(labels, fmt.Sprintf("%s_%d", b.Name, i))
		}
	}
	return labels
}

// Flatten concatenates every value of s, in insertion order, into one vector.
func Flatten(s *Set) []float64 {
	vec := make([]float64, 0, s.Layout().Size())
	for _, name := range s.names {
		vec = append(vec, s.values[name].Data...)
	}
	return vec
}

// Unflatten slices vec into consecutive blocks described by layout and
// reshapes each slice to its block's shape.
func Unflatten(vec []float64, layout Layout) (*Set, error) {
	if len(vec) != layout.Size() {
		return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "vector has %d elements, layout needs %d", len(vec), layout.Size())
	}
	out := New()
	offset := 0
	for _, b := range layout {
		n := b.Size()
		t, err := tensor.New(b.Shape, vec[offset:offset+n])
		if err != nil {
			return nil, err
		}
		out.Put(b.Name, t)
		offset += n
	}
	return out, nil
}

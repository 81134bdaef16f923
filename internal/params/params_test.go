package params

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet() *Set {
	s := New()
	s.Put("beta", tensor.Vector(1.5))
	s.Put("unconstrained_alpha", tensor.Scalar(0.99))
	m, _ := tensor.New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	s.Put("weights", m)
	return s
}

func TestSet_PreservesInsertionOrder(t *testing.T) {
	s := New()
	s.Put("z", tensor.Scalar(1))
	s.Put("a", tensor.Scalar(2))
	s.Put("z", tensor.Scalar(3))

	assert.Equal(t, []string{"z", "a"}, s.Names())
	v, ok := s.Get("z")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.Data[0])
}

func TestFlatten(t *testing.T) {
	vec := Flatten(sampleSet())
	assert.Equal(t, []float64{1.5, 0.99, 1, 2, 3, 4, 5, 6}, vec)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for trial := range 20 {
		// --- Arrange ---
		original := New()
		for b := range 1 + rng.IntN(4) {
			shape := make([]int, rng.IntN(3))
			for i := range shape {
				shape[i] = 1 + rng.IntN(3)
			}
			v := tensor.Zeros(shape)
			for i := range v.Data {
				v.Data[i] = rng.NormFloat64()
			}
			original.Put(string(rune('a'+b)), v)
		}

		// --- Act ---
		restored, err := Unflatten(Flatten(original), original.Layout())

		// --- Assert ---
		require.NoError(t, err)
		require.Equal(t, original.Names(), restored.Names(), "trial %d", trial)
		for _, name := range original.Names() {
			want, _ := original.Get(name)
			got, _ := restored.Get(name)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("trial %d, block %s mismatch (-want +got):\n%s", trial, name, diff)
			}
		}
	}
}

func TestUnflatten_ShapeMismatch(t *testing.T) {
	layout := sampleSet().Layout()
	_, err := Unflatten([]float64{1, 2, 3}, layout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mapvarerr.ErrShapeMismatch))
}

func TestLayout(t *testing.T) {
	layout := sampleSet().Layout()

	assert.Equal(t, 8, layout.Size())
	assert.Equal(t, []string{
		"beta", "unconstrained_alpha",
		"weights_0", "weights_1", "weights_2", "weights_3", "weights_4", "weights_5",
	}, layout.Labels())

	other := Layout{{Name: "flat", Shape: []int{8}}}
	assert.True(t, layout.Compatible(other))
	assert.False(t, layout.Compatible(Layout{{Name: "flat", Shape: []int{7}}}))
}

func TestUnflatten_CopiesData(t *testing.T) {
	vec := []float64{1, 2}
	s, err := Unflatten(vec, Layout{{Name: "x", Shape: []int{2}}})
	require.NoError(t, err)
	vec[0] = 42

	x, _ := s.Get("x")
	assert.Equal(t, 1.0, x.Data[0])
}

func TestClone(t *testing.T) {
	s := sampleSet()
	c := s.Clone()
	v, _ := c.Get("beta")
	v.Data[0] = -1

	orig, _ := s.Get("beta")
	assert.Equal(t, 1.5, orig.Data[0])
}

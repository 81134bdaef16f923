package tensor

import (
	"errors"
	"testing"

	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeMustMatchData(t *testing.T) {
	_, err := New([]int{2, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mapvarerr.ErrShapeMismatch))

	m, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Size())
}

func TestScalarHasSizeOne(t *testing.T) {
	s := Scalar(3)
	assert.Empty(t, s.Shape)
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 1, SizeOf(nil))
}

func TestBroadcastShape(t *testing.T) {
	testCases := []struct {
		name    string
		shapes  [][]int
		want    []int
		wantErr bool
	}{
		{name: "scalar and vector", shapes: [][]int{{}, {5}}, want: []int{5}},
		{name: "vector and one-element vector", shapes: [][]int{{5}, {1}}, want: []int{5}},
		{name: "scalar and one-element vector keeps rank", shapes: [][]int{{}, {1}}, want: []int{1}},
		{name: "identical shapes", shapes: [][]int{{2, 3}, {2, 3}}, want: []int{2, 3}},
		{name: "incompatible shapes", shapes: [][]int{{2}, {3}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BroadcastShape(tc.shapes...)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, mapvarerr.ErrShapeMismatch))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArithmeticBroadcasts(t *testing.T) {
	x := Vector(1, 2, 3)
	beta := Vector(2)
	alpha := Scalar(0.5)

	scaled, err := Mul(beta, x)
	require.NoError(t, err)
	loc, err := Add(alpha, scaled)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, loc.Shape)
	assert.Equal(t, []float64{2.5, 4.5, 6.5}, loc.Data)
}

func TestMean(t *testing.T) {
	m, err := Mean([]Tensor{Vector(1, 2), Vector(3, 6)})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, m.Data)

	_, err = Mean([]Tensor{Vector(1, 2), Vector(3)})
	assert.Error(t, err)
}

func TestReshapeCopies(t *testing.T) {
	v := Vector(1, 2, 3, 4)
	m, err := v.Reshape([]int{2, 2})
	require.NoError(t, err)
	m.Data[0] = 99
	assert.Equal(t, 1.0, v.Data[0])
}

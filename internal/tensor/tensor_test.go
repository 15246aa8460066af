package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid shape and data", func(t *testing.T) {
		tr, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, tr.Shape())
		assert.Equal(t, 6, tr.Size())
	})

	t.Run("mismatched data length", func(t *testing.T) {
		_, err := New([]int{2, 2}, []float64{1, 2, 3})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrShapeData)
	})

	t.Run("negative dimension", func(t *testing.T) {
		_, err := New([]int{-1}, nil)
		assert.Error(t, err)
	})

	t.Run("scalar", func(t *testing.T) {
		s := Scalar(4.5)
		assert.Empty(t, s.Shape())
		assert.Equal(t, 1, s.Size())
		assert.Equal(t, []float64{4.5}, s.Data())
	})
}

func TestShapeIsCopied(t *testing.T) {
	tr := MustNew([]int{2}, []float64{1, 2})
	shape := tr.Shape()
	shape[0] = 99
	assert.Equal(t, []int{2}, tr.Shape())
}

func TestEqual(t *testing.T) {
	a := MustNew([]int{2}, []float64{1, 2})
	b := MustNew([]int{2}, []float64{1, 2})
	c := MustNew([]int{2}, []float64{1, 3})
	d := MustNew([]int{1, 2}, []float64{1, 2})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, d))
	assert.True(t, SameShape(a, c))
	assert.False(t, SameShape(a, d))
}

func TestSeriesElementShape(t *testing.T) {
	t.Run("uniform", func(t *testing.T) {
		s := FromMatrix([][]float64{{1, 2}, {3, 4}, {5, 6}})
		shape, err := s.ElementShape()
		require.NoError(t, err)
		assert.Equal(t, []int{2}, shape)
	})

	t.Run("ragged", func(t *testing.T) {
		s := Series{MustNew([]int{2}, []float64{1, 2}), MustNew([]int{3}, []float64{1, 2, 3})}
		_, err := s.ElementShape()
		assert.ErrorIs(t, err, ErrRaggedSeries)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Series{}.ElementShape()
		assert.Error(t, err)
	})
}

func TestSeriesStack(t *testing.T) {
	s := FromMatrix([][]float64{{1, 2}, {3, 4}})
	stacked, err := s.Stack()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, stacked.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4}, stacked.Data())
}

func TestFromValues(t *testing.T) {
	s := FromValues([]float64{7, 8, 9})
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{8}, s[1].Data())
	assert.Empty(t, s[1].Shape())
}

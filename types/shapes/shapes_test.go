package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(dtypes.Float32, 32, 128)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 32*128, s.Size())
	assert.Equal(t, 32, s.Dim(0))
	assert.Equal(t, 128, s.Dim(-1))
	assert.Equal(t, "(Float32)[32 128]", s.String())
	assert.True(t, s.Ok())

	require.Panics(t, func() { Make(dtypes.Float32, 3, 0) })
	require.Panics(t, func() { s.Dim(2) })
}

func TestScalar(t *testing.T) {
	s := Scalar(dtypes.Float64)
	assert.True(t, s.IsScalar())
	assert.Equal(t, 0, s.Rank())
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, "(Float64)", s.String())
}

func TestMemory(t *testing.T) {
	assert.Equal(t, uintptr(4*6), Make(dtypes.Float32, 2, 3).Memory())
	assert.Equal(t, uintptr(8*6), Make(dtypes.Float64, 2, 3).Memory())
}

func TestEqualAndClone(t *testing.T) {
	s := Make(dtypes.Int32, 4, 5)
	assert.True(t, s.Equal(Make(dtypes.Int32, 4, 5)))
	assert.False(t, s.Equal(Make(dtypes.Int64, 4, 5)))
	assert.False(t, s.Equal(Make(dtypes.Int32, 4)))

	c := s.Clone()
	c.Dimensions[0] = 7
	assert.Equal(t, 4, s.Dimensions[0], "clone must not share the dimensions slice")
}

func TestZeroValueIsInvalid(t *testing.T) {
	var s Shape
	assert.False(t, s.Ok())
	assert.False(t, s.IsScalar())
}

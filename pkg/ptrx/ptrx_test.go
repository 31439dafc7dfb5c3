package ptrx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	v := int64(3)
	p := To(v)
	v = 4
	assert.Equal(t, int64(3), *p)
}

func TestValue(t *testing.T) {
	assert.Equal(t, "x", Value[string](nil, "x"))
	assert.Equal(t, "y", Value(To("y"), "x"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal[int](nil, nil))
	assert.False(t, Equal(To(1), nil))
	assert.True(t, Equal(To(1), To(1)))
	assert.False(t, Equal(To(1), To(2)))
}

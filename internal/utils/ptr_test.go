package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtr_CopiesValue(t *testing.T) {
	threshold := 60.0
	p := Ptr(threshold)
	require.NotNil(t, p)

	threshold = 75
	assert.Equal(t, 60.0, *p)

	*p = 10
	assert.Equal(t, 75.0, threshold)
}

func TestPtr_DistinctPointers(t *testing.T) {
	a, b := Ptr(3), Ptr(3)
	assert.NotSame(t, a, b)
	assert.Equal(t, *a, *b)
}

package spatialerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreindex/spatial3d/spatial/spatialerr"
)

func TestWrapUnwrap(t *testing.T) {
	t.Parallel()
	err := spatialerr.New(spatialerr.NotFound, "entity 42")
	assert.True(t, errors.Is(err, spatialerr.NotFound))
	assert.False(t, errors.Is(err, spatialerr.Conflict))
	assert.Equal(t, "not found: entity 42", err.Error())
}

func TestNewf(t *testing.T) {
	t.Parallel()
	err := spatialerr.Newf(spatialerr.InvalidInput, "coord[%d]=%v is negative", 2, -1.5)
	assert.True(t, errors.Is(err, spatialerr.InvalidInput))
	assert.Equal(t, "invalid input: coord[2]=-1.5 is negative", err.Error())
}

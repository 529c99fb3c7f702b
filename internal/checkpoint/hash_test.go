package checkpoint

import (
	"testing"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleHashIsStableRegardlessOfFieldOrder(t *testing.T) {
	a := map[string]model.Value{
		"name": model.NewString("ada"),
		"age":  model.NewNumber(36),
	}
	b := map[string]model.Value{
		"age":  model.NewNumber(36),
		"name": model.NewString("ada"),
	}

	hashA, err := SampleHash(a)
	require.NoError(t, err)
	hashB, err := SampleHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)
}

func TestSampleHashDiffersOnContentChange(t *testing.T) {
	hashA, err := SampleHash(map[string]model.Value{"name": model.NewString("ada")})
	require.NoError(t, err)
	hashB, err := SampleHash(map[string]model.Value{"name": model.NewString("grace")})
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

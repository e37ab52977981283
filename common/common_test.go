package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendError(t *testing.T) {
	t.Parallel()
	errA := errors.New("a")
	errB := errors.New("b")
	assert.NoError(t, AppendError(nil, nil))
	assert.ErrorIs(t, AppendError(nil, errA), errA)
	assert.ErrorIs(t, AppendError(errA, nil), errA)
	err := AppendError(errA, errB)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestGenerateFileName(t *testing.T) {
	t.Parallel()
	_, err := GenerateFileName("", "json")
	assert.ErrorIs(t, err, ErrNilArguments)
	_, err = GenerateFileName("run", "")
	assert.ErrorIs(t, err, ErrNilArguments)

	name, err := GenerateFileName("SMA Crossover 2020:06/18", ".json")
	require.NoError(t, err)
	assert.Equal(t, "sma-crossover-2020-06-18.json", name)
}

package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingAreaCommitClearsOnSuccess(t *testing.T) {
	var area StagingArea[string]
	area.Stage("a", "b")
	area.Stage("c")

	var written []string
	n, err := area.Commit(func(items []string) error {
		written = items
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, written)
	assert.Zero(t, area.Len())
}

func TestStagingAreaCommitKeepsItemsOnFailure(t *testing.T) {
	var area StagingArea[int]
	area.Stage(1, 2, 3)

	n, err := area.Commit(func(items []int) error {
		items[0] = 99
		return errors.New("store down")
	})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int{1, 2, 3}, area.List())
}

func TestStagingAreaListIsACopy(t *testing.T) {
	var area StagingArea[string]
	area.Stage("x")
	list := area.List()
	list[0] = "changed"
	assert.Equal(t, []string{"x"}, area.List())
	assert.Equal(t, 1, area.Clear())
	assert.Empty(t, area.List())
}

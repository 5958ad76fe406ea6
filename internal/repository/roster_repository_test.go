package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

func TestRosterRepositoryList(t *testing.T) {
	store := sheet.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureHeader(ctx, "roster", []string{"學號", "姓名", "班級", "座號"}))
	require.NoError(t, store.AppendRows(ctx, "roster", [][]string{
		{" 100001 ", "X", "ClassA", "01"},
		{"", "無學號", "ClassA", "02"},
		{"100002", "Y", "ClassA"},
	}))

	students, err := NewRosterRepository(store, "roster").List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "100001", students[0].ID)
	assert.Empty(t, students[1].Seat)
	assert.Empty(t, students[1].Phone)
}

func TestRosterRepositoryMissingTableIsAnError(t *testing.T) {
	_, err := NewRosterRepository(sheet.NewMemoryStore(), "roster").List(context.Background())
	assert.ErrorIs(t, err, sheet.ErrTableNotFound)
}

package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHeader(t *testing.T) {
	got := SanitizeHeader([]string{"學號", "", "姓名", "姓名", " ", "姓名_2", "姓名"})
	assert.Equal(t, []string{"學號", "column_2", "姓名", "姓名_2", "column_5", "姓名_2_2", "姓名_3"}, got)
}

func TestToRecordsDefaultsMissingCells(t *testing.T) {
	values := [][]string{
		{"學號", "姓名", "班級", "電話"},
		{"100001", "王小明", "餐一忠"},
		{"", "", "", ""},
		{" 100002 ", "李小華", "資處一孝", "0912"},
	}
	records := ToRecords(values)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0]["電話"])
	assert.Equal(t, "100002", records[1]["學號"])
	assert.Equal(t, "0912", records[1]["電話"])
}

func TestMemoryStoreAppendAndOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureHeader(ctx, "t", []string{"a", "b"}))
	require.NoError(t, store.EnsureHeader(ctx, "t", []string{"ignored"}))

	require.NoError(t, store.AppendRows(ctx, "t", [][]string{{"1", "2"}, {"3", "4"}}))
	values, err := store.Values(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, values)

	require.NoError(t, store.Overwrite(ctx, "t", [][]string{{"9", "9"}}))
	values, err = store.Values(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"9", "9"}}, values)
}

func TestMemoryStoreFailedAppendLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureHeader(ctx, "t", []string{"a"}))
	store.FailAppends(errors.New("quota exceeded"))

	err := store.AppendRows(ctx, "t", [][]string{{"1"}, {"2"}})
	require.Error(t, err)

	values, err := store.Values(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestMemoryStoreUnknownTable(t *testing.T) {
	_, err := NewMemoryStore().Values(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

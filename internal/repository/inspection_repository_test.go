package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

func TestInspectionRepositoryRoundTrip(t *testing.T) {
	store := sheet.NewMemoryStore()
	repo := NewInspectionRepository(store, "inspections")
	ctx := context.Background()
	require.NoError(t, repo.EnsureTable(ctx))

	records := []models.InspectionRecord{
		{Date: "2026-10-18", TimeSlot: models.TimeSlots[0], Kind: models.RecordKindIndividual, Class: "ClassA", Seat: "01", StudentID: "100001", StudentName: "X", Status: "遲到缺席", Score: -3, Reporter: "導師-林老師"},
		{Date: "2026-10-18", TimeSlot: models.TimeSlots[4], Kind: models.RecordKindClass, Class: "餐一忠", Status: "午休良好", Score: models.ScorePoint, Reporter: "生輔員-陳生輔"},
	}
	require.NoError(t, repo.Append(ctx, records))

	values, err := store.Values(ctx, "inspections")
	require.NoError(t, err)
	assert.Equal(t, InspectionHeader, values[0])
	assert.Equal(t, "-0.03", values[1][8])
	assert.Equal(t, "個人", values[1][2])

	got, malformed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	assert.Equal(t, records, got)
}

func TestInspectionRepositoryReadsLegacyRows(t *testing.T) {
	store := sheet.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureHeader(ctx, "inspections", InspectionHeader))
	require.NoError(t, store.AppendRows(ctx, "inspections", [][]string{
		{"2026-10-17", "1230-1300 午休", "班級整體表現", "餐一忠", "無", "-", "—", "午休吵鬧", "-1", "教官-王"},
		{"2026-10-17", "1230-1300 午休", "班級", "餐一孝", "", "", "", "備註", "n/a", "教官-王"},
		{"", "", "", "", "", "", "", "", "", ""},
	}))

	got, malformed, err := NewInspectionRepository(store, "inspections").List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, malformed)
	require.Len(t, got, 1)
	assert.Equal(t, models.RecordKindClass, got[0].Kind)
	assert.Empty(t, got[0].Seat)
	assert.Empty(t, got[0].StudentID)
	assert.Equal(t, models.Score(-100), got[0].Score)
}

func TestInspectionRepositoryMissingTable(t *testing.T) {
	got, malformed, err := NewInspectionRepository(sheet.NewMemoryStore(), "inspections").List(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, malformed)
}

func TestInspectionRepositoryAppendFailure(t *testing.T) {
	store := sheet.NewMemoryStore()
	repo := NewInspectionRepository(store, "inspections")
	require.NoError(t, repo.EnsureTable(context.Background()))
	store.FailAppends(errors.New("unreachable"))

	err := repo.Append(context.Background(), []models.InspectionRecord{{Date: "2026-10-18"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append inspections")
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// InspectionHeader is the fixed column order of the inspection table.
var InspectionHeader = []string{"日期", "時間", "對象", "班級", "座號", "學號", "姓名", "狀況", "得分", "回報人"}

// InspectionRepository appends and reads patrol records.
type InspectionRepository struct {
	store sheet.Store
	table string
}

// NewInspectionRepository constructs the repository for the named table.
func NewInspectionRepository(store sheet.Store, table string) *InspectionRepository {
	return &InspectionRepository{store: store, table: table}
}

// Table returns the backing table name.
func (r *InspectionRepository) Table() string { return r.table }

// EnsureTable writes the header row into an empty table.
func (r *InspectionRepository) EnsureTable(ctx context.Context) error {
	if err := r.store.EnsureHeader(ctx, r.table, InspectionHeader); err != nil {
		return fmt.Errorf("ensure %s header: %w", r.table, err)
	}
	return nil
}

// Append writes every record in one bulk append.
func (r *InspectionRepository) Append(ctx context.Context, records []models.InspectionRecord) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = inspectionRow(rec)
	}
	if err := r.store.AppendRows(ctx, r.table, rows); err != nil {
		return fmt.Errorf("append %s: %w", r.table, err)
	}
	return nil
}

// List returns the full committed history in store order. Rows whose score
// cell cannot be parsed are skipped and counted in malformed.
func (r *InspectionRepository) List(ctx context.Context) (records []models.InspectionRecord, malformed int, err error) {
	rows, err := sheet.Records(ctx, r.store, r.table)
	if err != nil {
		if errors.Is(err, sheet.ErrTableNotFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read %s: %w", r.table, err)
	}
	records = make([]models.InspectionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := inspectionFromRecord(row)
		if err != nil {
			malformed++
			continue
		}
		records = append(records, rec)
	}
	return records, malformed, nil
}

func inspectionRow(rec models.InspectionRecord) []string {
	return []string{
		rec.Date,
		rec.TimeSlot,
		rec.Kind.SheetLabel(),
		rec.Class,
		rec.Seat,
		rec.StudentID,
		rec.StudentName,
		rec.Status,
		rec.Score.String(),
		rec.Reporter,
	}
}

func inspectionFromRecord(row map[string]string) (models.InspectionRecord, error) {
	score, err := models.ParseScore(row["得分"])
	if err != nil {
		return models.InspectionRecord{}, err
	}
	kind, ok := models.ParseRecordKind(row["對象"])
	if !ok {
		kind = models.RecordKind(row["對象"])
	}
	return models.InspectionRecord{
		Date:        row["日期"],
		TimeSlot:    row["時間"],
		Kind:        kind,
		Class:       row["班級"],
		Seat:        blankPlaceholder(row["座號"]),
		StudentID:   blankPlaceholder(row["學號"]),
		StudentName: blankPlaceholder(row["姓名"]),
		Status:      row["狀況"],
		Score:       score,
		Reporter:    row["回報人"],
	}, nil
}

// blankPlaceholder clears the "none" markers older rows used for empty cells.
func blankPlaceholder(v string) string {
	switch strings.TrimSpace(v) {
	case "無", "-", "—":
		return ""
	}
	return v
}

package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// RosterHeader is the column set of the external roster table.
var RosterHeader = []string{"學號", "姓名", "班級", "座號", "電話", "家長電話"}

// RosterRepository reads the externally maintained student roster.
type RosterRepository struct {
	store sheet.Store
	table string
}

// NewRosterRepository constructs the repository for the named table.
func NewRosterRepository(store sheet.Store, table string) *RosterRepository {
	return &RosterRepository{store: store, table: table}
}

// List returns every roster row with an id. Missing columns default to "".
func (r *RosterRepository) List(ctx context.Context) ([]models.Student, error) {
	rows, err := sheet.Records(ctx, r.store, r.table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.table, err)
	}
	students := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		if row["學號"] == "" {
			continue
		}
		students = append(students, models.Student{
			ID:            row["學號"],
			Name:          row["姓名"],
			Class:         row["班級"],
			Seat:          row["座號"],
			Phone:         row["電話"],
			GuardianPhone: row["家長電話"],
		})
	}
	return students, nil
}

package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// DisciplineHeader is the fixed column order of the recommendation table.
var DisciplineHeader = []string{"日期", "類別", "學號", "班級", "座號姓名", "項目", "事由", "建議次數", "提報人"}

// DisciplineRepository appends disciplinary recommendation rows.
type DisciplineRepository struct {
	store sheet.Store
	table string
}

// NewDisciplineRepository constructs the repository for the named table.
func NewDisciplineRepository(store sheet.Store, table string) *DisciplineRepository {
	return &DisciplineRepository{store: store, table: table}
}

// Table returns the backing table name.
func (r *DisciplineRepository) Table() string { return r.table }

// EnsureTable writes the header row into an empty table.
func (r *DisciplineRepository) EnsureTable(ctx context.Context) error {
	if err := r.store.EnsureHeader(ctx, r.table, DisciplineHeader); err != nil {
		return fmt.Errorf("ensure %s header: %w", r.table, err)
	}
	return nil
}

// Append writes every recommendation in one bulk append.
func (r *DisciplineRepository) Append(ctx context.Context, recs []models.DisciplinaryRecommendation) error {
	if err := r.store.AppendRows(ctx, r.table, DisciplineRows(recs)); err != nil {
		return fmt.Errorf("append %s: %w", r.table, err)
	}
	return nil
}

// DisciplineRows renders recommendations in DisciplineHeader order.
func DisciplineRows(recs []models.DisciplinaryRecommendation) [][]string {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{
			rec.Date,
			rec.Kind.Label(),
			rec.StudentID,
			rec.Class,
			rec.SeatName,
			rec.Item,
			rec.Reason,
			strconv.Itoa(rec.Count),
			rec.Submitter,
		}
	}
	return rows
}

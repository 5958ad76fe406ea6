package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// LeaveHeader is the fixed column order of the leave request table.
var LeaveHeader = []string{"登記日期", "班級", "座號", "學號", "姓名", "假別", "開始日期", "結束日期", "時間細節", "外宿地點", "聯絡方式", "處理人員"}

// LeaveRepository appends leave request rows.
type LeaveRepository struct {
	store sheet.Store
	table string
}

// NewLeaveRepository constructs the repository for the named table.
func NewLeaveRepository(store sheet.Store, table string) *LeaveRepository {
	return &LeaveRepository{store: store, table: table}
}

// Table returns the backing table name.
func (r *LeaveRepository) Table() string { return r.table }

// EnsureTable writes the header row into an empty table.
func (r *LeaveRepository) EnsureTable(ctx context.Context) error {
	if err := r.store.EnsureHeader(ctx, r.table, LeaveHeader); err != nil {
		return fmt.Errorf("ensure %s header: %w", r.table, err)
	}
	return nil
}

// Append writes every request in one bulk append.
func (r *LeaveRepository) Append(ctx context.Context, requests []models.LeaveRequest) error {
	if err := r.store.AppendRows(ctx, r.table, LeaveRows(requests)); err != nil {
		return fmt.Errorf("append %s: %w", r.table, err)
	}
	return nil
}

// LeaveRows renders requests in LeaveHeader order.
func LeaveRows(requests []models.LeaveRequest) [][]string {
	rows := make([][]string, len(requests))
	for i, req := range requests {
		rows[i] = []string{
			req.RecordDate,
			req.Class,
			req.Seat,
			req.StudentID,
			req.StudentName,
			req.Category.Label(),
			req.StartDate,
			req.EndDate,
			req.Detail,
			req.Location,
			req.Contact,
			req.Handler,
		}
	}
	return rows
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// TableContent is the raw content of one logbook table.
type TableContent struct {
	Table  string     `json:"table"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// OverwriteTableRequest replaces every row below the header.
type OverwriteTableRequest struct {
	Rows [][]string `json:"rows"`
}

// MaintenanceService gives administrators raw access to the logbook tables.
type MaintenanceService struct {
	store     sheet.Store
	tables    map[string]string
	snapshots map[string]func(ctx context.Context) error
	logger    *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService. tables maps the
// public alias (e.g. "inspections") to the store table name.
func NewMaintenanceService(store sheet.Store, tables map[string]string, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{store: store, tables: tables, logger: logger}
}

// Tables lists the editable table aliases.
func (s *MaintenanceService) Tables() []string {
	out := make([]string, 0, len(s.tables))
	for alias := range s.tables {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Read returns the header (sanitized) and body of a table.
func (s *MaintenanceService) Read(ctx context.Context, identity models.Identity, alias string) (*TableContent, error) {
	table, err := s.resolve(identity, alias)
	if err != nil {
		return nil, err
	}
	values, err := s.store.Values(ctx, table)
	if err == nil && len(values) == 0 {
		err = sheet.ErrTableNotFound
	}
	if err != nil {
		if errors.Is(err, sheet.ErrTableNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("table %s has no rows", alias))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read table")
	}
	body := sheet.Body(values)
	if body == nil {
		body = [][]string{}
	}
	return &TableContent{Table: alias, Header: sheet.SanitizeHeader(values[0]), Rows: body}, nil
}

// Overwrite replaces the body of a table. Rows wider than the header are rejected.
func (s *MaintenanceService) Overwrite(ctx context.Context, identity models.Identity, alias string, req OverwriteTableRequest) (*TableContent, error) {
	table, err := s.resolve(identity, alias)
	if err != nil {
		return nil, err
	}
	values, err := s.store.Values(ctx, table)
	if err == nil && len(values) == 0 {
		err = sheet.ErrTableNotFound
	}
	if err != nil {
		if errors.Is(err, sheet.ErrTableNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("table %s has no header", alias))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read table")
	}
	width := len(values[0])
	for i, row := range req.Rows {
		if len(row) > width {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d has %d cells, header has %d", i+1, len(row), width))
		}
	}

	if err := s.store.Overwrite(ctx, table, req.Rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to overwrite table")
	}
	s.logger.Warn("table body overwritten",
		zap.String("table", table),
		zap.Int("rows", len(req.Rows)),
		zap.String("by", identity.ReporterLabel()),
	)
	rows := req.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return &TableContent{Table: alias, Header: sheet.SanitizeHeader(values[0]), Rows: rows}, nil
}

func (s *MaintenanceService) resolve(identity models.Identity, alias string) (string, error) {
	if !identity.Can(models.ModeMaintenance) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "table maintenance requires an administrator")
	}
	table, ok := s.tables[alias]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown table %q", alias))
	}
	return table, nil
}

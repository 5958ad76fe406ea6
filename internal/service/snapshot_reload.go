package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

// SnapshotStatus is the outcome of one forced snapshot reload.
type SnapshotStatus struct {
	Name     string `json:"name"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// RegisterSnapshot makes a cached snapshot reloadable through ReloadSnapshots.
func (s *MaintenanceService) RegisterSnapshot(name string, reload func(ctx context.Context) error) {
	if s.snapshots == nil {
		s.snapshots = make(map[string]func(ctx context.Context) error)
	}
	s.snapshots[name] = reload
}

// ReloadSnapshots rereads every registered snapshot in the calling request.
// A failed reload keeps the previous snapshot and is reported as degraded.
func (s *MaintenanceService) ReloadSnapshots(ctx context.Context, identity models.Identity) ([]SnapshotStatus, error) {
	if !identity.Can(models.ModeMaintenance) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "snapshot reload requires an administrator")
	}
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SnapshotStatus, 0, len(names))
	for _, name := range names {
		status := SnapshotStatus{Name: name}
		if err := s.snapshots[name](ctx); err != nil {
			status.Degraded = true
			status.Error = err.Error()
		}
		out = append(out, status)
	}
	s.logger.Info("snapshots reloaded", zap.Int("count", len(out)), zap.String("by", identity.ReporterLabel()))
	return out, nil
}

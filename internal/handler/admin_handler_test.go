package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type maintenanceServiceMock struct {
	alias     string
	rows      [][]string
	statuses  []service.SnapshotStatus
	reloadErr error
}

func (m *maintenanceServiceMock) Tables() []string {
	return []string{"discipline", "inspections", "leaves"}
}

func (m *maintenanceServiceMock) Read(ctx context.Context, identity models.Identity, alias string) (*service.TableContent, error) {
	m.alias = alias
	if alias != "inspections" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown table")
	}
	return &service.TableContent{Table: alias, Header: []string{"日期"}, Rows: [][]string{{"2026-10-18"}}}, nil
}

func (m *maintenanceServiceMock) Overwrite(ctx context.Context, identity models.Identity, alias string, req service.OverwriteTableRequest) (*service.TableContent, error) {
	m.alias = alias
	m.rows = req.Rows
	return &service.TableContent{Table: alias, Header: []string{"日期"}, Rows: req.Rows}, nil
}

func (m *maintenanceServiceMock) ReloadSnapshots(ctx context.Context, identity models.Identity) ([]service.SnapshotStatus, error) {
	return m.statuses, m.reloadErr
}

var adminIdentity = models.Identity{Account: "admin", Role: models.RoleAdmin, Name: "管理者", Scope: models.ScopeSchoolWide}

func TestAdminHandlerRead(t *testing.T) {
	mock := &maintenanceServiceMock{}
	h := NewAdminHandler(mock)

	c, w := newGinContext(http.MethodGet, "/admin/sheets/inspections", nil)
	c.Params = gin.Params{{Key: "table", Value: "inspections"}}
	withSession(c, adminIdentity)
	h.Read(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["rows"])

	c, w = newGinContext(http.MethodGet, "/admin/sheets/accounts", nil)
	c.Params = gin.Params{{Key: "table", Value: "accounts"}}
	withSession(c, adminIdentity)
	h.Read(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlerOverwrite(t *testing.T) {
	mock := &maintenanceServiceMock{}
	h := NewAdminHandler(mock)

	c, w := newGinContext(http.MethodPut, "/admin/sheets/leaves", []byte(`{"rows":[["a","b"]]}`))
	c.Params = gin.Params{{Key: "table", Value: "leaves"}}
	withSession(c, adminIdentity)
	h.Overwrite(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "leaves", mock.alias)
	assert.Equal(t, [][]string{{"a", "b"}}, mock.rows)

	c, w = newGinContext(http.MethodPut, "/admin/sheets/leaves", []byte(`{"rows":"nope"}`))
	c.Params = gin.Params{{Key: "table", Value: "leaves"}}
	withSession(c, adminIdentity)
	h.Overwrite(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandlerReloadSnapshots(t *testing.T) {
	mock := &maintenanceServiceMock{statuses: []service.SnapshotStatus{{Name: "accounts"}, {Name: "roster", Degraded: true, Error: "down"}}}
	h := NewAdminHandler(mock)

	c, w := newGinContext(http.MethodPost, "/admin/snapshots/reload", nil)
	withSession(c, adminIdentity)
	h.ReloadSnapshots(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"degraded":true`)

	mock.reloadErr = appErrors.Clone(appErrors.ErrForbidden, "snapshot reload requires an administrator")
	c, w = newGinContext(http.MethodPost, "/admin/snapshots/reload", nil)
	withSession(c, supervisorIdentity)
	h.ReloadSnapshots(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/response"
)

type maintenanceService interface {
	Tables() []string
	Read(ctx context.Context, identity models.Identity, alias string) (*service.TableContent, error)
	Overwrite(ctx context.Context, identity models.Identity, alias string, req service.OverwriteTableRequest) (*service.TableContent, error)
	ReloadSnapshots(ctx context.Context, identity models.Identity) ([]service.SnapshotStatus, error)
}

// AdminHandler exposes raw table maintenance for administrators.
type AdminHandler struct {
	service maintenanceService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc maintenanceService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Tables godoc
// @Summary List editable logbook tables
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sheets [get]
func (h *AdminHandler) Tables(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Tables(), nil)
}

// Read godoc
// @Summary Read a logbook table
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param table path string true "inspections, leaves or discipline"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/sheets/{table} [get]
func (h *AdminHandler) Read(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	content, err := h.service.Read(c.Request.Context(), sess.Identity, c.Param("table"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, map[string]interface{}{"rows": len(content.Rows)})
}

// Overwrite godoc
// @Summary Replace every row below the header of a logbook table
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param table path string true "inspections, leaves or discipline"
// @Param payload body service.OverwriteTableRequest true "New body rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/sheets/{table} [put]
func (h *AdminHandler) Overwrite(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	var req service.OverwriteTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid table payload"))
		return
	}
	content, err := h.service.Overwrite(c.Request.Context(), sess.Identity, c.Param("table"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, map[string]interface{}{"rows": len(content.Rows)})
}

// ReloadSnapshots godoc
// @Summary Reread the cached roster and account tables
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/snapshots/reload [post]
func (h *AdminHandler) ReloadSnapshots(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	statuses, err := h.service.ReloadSnapshots(c.Request.Context(), sess.Identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

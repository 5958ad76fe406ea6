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

type inspectionService interface {
	Stage(ctx context.Context, sess *service.Session, req models.StageInspectionRequest) (*models.InspectionRecord, error)
	Staged(sess *service.Session) []models.InspectionRecord
	Clear(sess *service.Session) int
	Commit(ctx context.Context, sess *service.Session) (*models.BatchReceipt, error)
	Summarize(ctx context.Context, identity models.Identity, date, scope string) (*models.InspectionSummary, error)
}

// InspectionHandler exposes patrol staging, commit and summary endpoints.
type InspectionHandler struct {
	service inspectionService
}

// NewInspectionHandler creates a new handler.
func NewInspectionHandler(svc inspectionService) *InspectionHandler {
	return &InspectionHandler{service: svc}
}

// Stage godoc
// @Summary Stage a patrol observation
// @Tags Inspections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.StageInspectionRequest true "Observation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /inspections/staged [post]
func (h *InspectionHandler) Stage(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	var req models.StageInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid inspection payload"))
		return
	}
	record, err := h.service.Stage(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record, map[string]interface{}{"staged": sess.Inspections.Len()})
}

// Staged godoc
// @Summary List staged observations of this session
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inspections/staged [get]
func (h *InspectionHandler) Staged(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	records := h.service.Staged(sess)
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"staged": len(records)})
}

// Clear godoc
// @Summary Discard staged observations of this session
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inspections/staged [delete]
func (h *InspectionHandler) Clear(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cleared": h.service.Clear(sess)}, nil)
}

// Commit godoc
// @Summary Write every staged observation in one batch
// @Description On failure nothing is written and the staged list is kept for retry
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /inspections/commit [post]
func (h *InspectionHandler) Commit(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	receipt, err := h.service.Commit(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Summary godoc
// @Summary Summarise one day of committed observations
// @Description Privileged roles see every row in scope; other roles see only their own rows
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param scope query string false "Class label or 全校"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /inspections/summary [get]
func (h *InspectionHandler) Summary(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	summary, err := h.service.Summarize(c.Request.Context(), sess.Identity, c.Query("date"), c.Query("scope"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

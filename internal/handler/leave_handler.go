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

type leaveService interface {
	Add(ctx context.Context, sess *service.Session, req models.AddLeaveRequest) ([]models.LeaveRequest, error)
	Cart(sess *service.Session) []models.LeaveRequest
	Clear(sess *service.Session) int
	Submit(ctx context.Context, sess *service.Session) (*models.SubmitReceipt, error)
}

type receiptRenderer interface {
	Receipt(sess *service.Session, kind, format string) (*service.RenderedDocument, error)
}

// LeaveHandler exposes the leave cart endpoints.
type LeaveHandler struct {
	service leaveService
	printer receiptRenderer
}

// NewLeaveHandler creates a new handler.
func NewLeaveHandler(svc leaveService, printer receiptRenderer) *LeaveHandler {
	return &LeaveHandler{service: svc, printer: printer}
}

// Add godoc
// @Summary Add leave requests for one or more students to the cart
// @Tags Leaves
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.AddLeaveRequest true "Leave entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves/cart [post]
func (h *LeaveHandler) Add(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	var req models.AddLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}
	entries, err := h.service.Add(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entries, map[string]interface{}{"cart": sess.Leaves.Len()})
}

// Cart godoc
// @Summary List the leave cart of this session
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/cart [get]
func (h *LeaveHandler) Cart(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	entries := h.service.Cart(sess)
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"cart": len(entries)})
}

// Clear godoc
// @Summary Empty the leave cart of this session
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/cart [delete]
func (h *LeaveHandler) Clear(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cleared": h.service.Clear(sess)}, nil)
}

// Submit godoc
// @Summary Write the leave cart in one batch
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /leaves/submit [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	receipt, err := h.service.Submit(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Receipt godoc
// @Summary Download the print sheet of the last submitted leave batch
// @Tags Leaves
// @Security BearerAuth
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /leaves/receipt [get]
func (h *LeaveHandler) Receipt(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	doc, err := h.printer.Receipt(sess, service.ReceiptLeave, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Payload)
}

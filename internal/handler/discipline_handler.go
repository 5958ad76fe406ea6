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

type disciplineService interface {
	Add(ctx context.Context, sess *service.Session, req models.AddDisciplineRequest) ([]models.DisciplinaryRecommendation, error)
	Cart(sess *service.Session) []models.DisciplinaryRecommendation
	Clear(sess *service.Session) int
	Submit(ctx context.Context, sess *service.Session) (*models.SubmitReceipt, error)
}

// DisciplineHandler exposes the recommendation cart endpoints.
type DisciplineHandler struct {
	service disciplineService
	printer receiptRenderer
}

// NewDisciplineHandler creates a new handler.
func NewDisciplineHandler(svc disciplineService, printer receiptRenderer) *DisciplineHandler {
	return &DisciplineHandler{service: svc, printer: printer}
}

// Add godoc
// @Summary Add reward or penalty recommendations to the cart
// @Tags Discipline
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.AddDisciplineRequest true "Recommendation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /discipline/cart [post]
func (h *DisciplineHandler) Add(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	var req models.AddDisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recommendation payload"))
		return
	}
	entries, err := h.service.Add(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entries, map[string]interface{}{"cart": sess.Discipline.Len()})
}

// Cart godoc
// @Summary List the recommendation cart of this session
// @Tags Discipline
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /discipline/cart [get]
func (h *DisciplineHandler) Cart(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	entries := h.service.Cart(sess)
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"cart": len(entries)})
}

// Clear godoc
// @Summary Empty the recommendation cart of this session
// @Tags Discipline
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /discipline/cart [delete]
func (h *DisciplineHandler) Clear(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cleared": h.service.Clear(sess)}, nil)
}

// Submit godoc
// @Summary Write the recommendation cart in one batch
// @Tags Discipline
// @Security BearerAuth
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /discipline/submit [post]
func (h *DisciplineHandler) Submit(c *gin.Context) {
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
// @Summary Download the print sheet of the last submitted recommendation batch
// @Tags Discipline
// @Security BearerAuth
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /discipline/receipt [get]
func (h *DisciplineHandler) Receipt(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	doc, err := h.printer.Receipt(sess, service.ReceiptDiscipline, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Payload)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-patrol-api/internal/middleware"
	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/response"
)

type rosterService interface {
	Resolve(ctx context.Context, id string) (models.Student, error)
	Classes(ctx context.Context) []string
	Degraded() bool
}

type scoringTable interface {
	Categories(kind models.RecordKind) ([]service.CategoryRule, error)
}

// RosterHandler exposes roster lookups and the scoring rule table.
type RosterHandler struct {
	roster  rosterService
	scoring scoringTable
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(roster rosterService, scoring scoringTable) *RosterHandler {
	return &RosterHandler{roster: roster, scoring: scoring}
}

// Resolve godoc
// @Summary Look up a student by id
// @Tags Roster
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster/{studentId} [get]
func (h *RosterHandler) Resolve(c *gin.Context) {
	student, err := h.roster.Resolve(c.Request.Context(), c.Param("studentId"))
	if h.roster.Degraded() {
		middleware.SetMeta(c, "roster_degraded", true)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, middleware.ExtractMeta(c))
}

// Classes godoc
// @Summary List known class labels
// @Tags Roster
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/classes [get]
func (h *RosterHandler) Classes(c *gin.Context) {
	classes := h.roster.Classes(c.Request.Context())
	if h.roster.Degraded() {
		middleware.SetMeta(c, "roster_degraded", true)
	}
	response.JSON(c, http.StatusOK, classes, middleware.ExtractMeta(c))
}

// Categories godoc
// @Summary List scoring categories for a record kind
// @Tags Scoring
// @Security BearerAuth
// @Produce json
// @Param kind query string true "class or individual"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scoring/categories [get]
func (h *RosterHandler) Categories(c *gin.Context) {
	kind, ok := models.ParseRecordKind(c.Query("kind"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be class or individual"))
		return
	}
	rules, err := h.scoring.Categories(kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

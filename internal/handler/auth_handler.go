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

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	LoginSelfDeclared(ctx context.Context, req models.SelfDeclaredLoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	SessionInfo(sess *service.Session) models.SessionInfo
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate staff account
// @Description Check account and password against the account table and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// LoginSelfDeclared godoc
// @Summary Open a patrol-only session from a declared role and name
// @Description Legacy login without verification; disabled unless configured
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SelfDeclaredLoginRequest true "Declaration"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login/self-declared [post]
func (h *AuthHandler) LoginSelfDeclared(c *gin.Context) {
	var req models.SelfDeclaredLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.LoginSelfDeclared(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Close the current session
// @Description Destroys the session and discards anything still staged in it
// @Tags Authentication
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	if err := h.service.Logout(c.Request.Context(), sess.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Describe the current session
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		return
	}
	response.JSON(c, http.StatusOK, h.service.SessionInfo(sess), nil)
}

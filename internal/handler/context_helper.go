package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-patrol-api/internal/middleware"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/response"
)

// sessionFromContext returns the caller's session or writes 401 and returns nil.
func sessionFromContext(c *gin.Context) *service.Session {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return sess
}

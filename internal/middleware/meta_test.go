package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetMeta(c, "roster_degraded", true)
	assert.Equal(t, map[string]interface{}{"roster_degraded": true}, ExtractMeta(c))
	assert.Nil(t, ExtractMeta(nil))
}

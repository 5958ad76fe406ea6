package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, header string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return seen, rec.Header().Get(headerKey)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	seen, echoed := serve(t, "tablet-42")
	assert.Equal(t, "tablet-42", seen)
	assert.Equal(t, "tablet-42", echoed)
}

func TestMiddlewareReplacesUnusableID(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("x", 65), "巡查"} {
		seen, echoed := serve(t, header)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, header)
		assert.Equal(t, seen, echoed)
	}
}

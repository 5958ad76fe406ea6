package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type authenticatorMock struct {
	sessions map[string]*service.Session
}

func (m *authenticatorMock) Authenticate(token string) (*service.Session, error) {
	sess, ok := m.sessions[token]
	if !ok {
		return nil, appErrors.Wrap(errors.New("bad token"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return sess, nil
}

func newProtectedRouter(auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		sess := SessionFromContext(c)
		c.String(http.StatusOK, sess.Identity.Name+"|"+c.GetString(ContextSessionIDKey))
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTAttachesSession(t *testing.T) {
	store := service.NewSessionStore(0)
	sess := store.Create(models.Identity{Role: models.RoleSupervisor, Name: "陳生輔", Scope: models.ScopeSchoolWide})
	r := newProtectedRouter(&authenticatorMock{sessions: map[string]*service.Session{"good": sess}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "陳生輔|"+sess.ID, rec.Body.String())
}

func TestJWTRejectsMissingOrInvalidToken(t *testing.T) {
	r := newProtectedRouter(&authenticatorMock{})
	for _, header := range []string{"", "Token abc", "Bearer unknown"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireMode(t *testing.T) {
	store := service.NewSessionStore(0)
	counselor := store.Create(models.Identity{Role: models.RoleCounselor, Name: "黃輔導", Scope: models.ScopeSchoolWide})
	supervisor := store.Create(models.Identity{Role: models.RoleSupervisor, Name: "陳生輔", Scope: models.ScopeSchoolWide})
	auth := &authenticatorMock{sessions: map[string]*service.Session{"c": counselor, "s": supervisor}}
	r := newProtectedRouter(auth, RequireMode(models.ModePatrol))

	cases := map[string]int{"c": http.StatusForbidden, "s": http.StatusOK}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, token)
	}
}

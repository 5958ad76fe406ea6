package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type authServiceMock struct {
	loginReq  models.LoginRequest
	loginErr  error
	loggedOut string
	logoutErr error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600}, nil
}

func (m *authServiceMock) LoginSelfDeclared(ctx context.Context, req models.SelfDeclaredLoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "self-declared login is disabled")
}

func (m *authServiceMock) Logout(ctx context.Context, sessionID string) error {
	m.loggedOut = sessionID
	return m.logoutErr
}

func (m *authServiceMock) SessionInfo(sess *service.Session) models.SessionInfo {
	return sess.Info(0)
}

func TestAuthHandlerLogin(t *testing.T) {
	mock := &authServiceMock{}
	h := NewAuthHandler(mock)
	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"account":"s01","password":"pw"}`))
	c.Request.Header.Set("User-Agent", "patrol-tablet")

	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s01", mock.loginReq.Account)
	assert.Equal(t, "patrol-tablet", mock.loginReq.UserAgent)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"access_token":"token"`)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid account or password")})
	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"account":"s01","password":"bad"}`))

	h.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, w).Error.Code)
}

func TestAuthHandlerSelfDeclaredDisabled(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})
	c, w := newGinContext(http.MethodPost, "/auth/declare", []byte(`{"role":"生輔員","name":"A"}`))

	h.LoginSelfDeclared(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandlerLogoutAndMe(t *testing.T) {
	mock := &authServiceMock{}
	h := NewAuthHandler(mock)

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	withSession(c, supervisorIdentity)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"PATROL"`)

	c, w = newGinContext(http.MethodPost, "/auth/logout", nil)
	sess := withSession(c, supervisorIdentity)
	h.Logout(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, sess.ID, mock.loggedOut)
}

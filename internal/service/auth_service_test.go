package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type accountRepoMock struct {
	accounts  []models.Account
	listErr   error
	createErr error
	ensured   int
}

func (m *accountRepoMock) EnsureTable(ctx context.Context) error {
	m.ensured++
	return nil
}

func (m *accountRepoMock) List(ctx context.Context) ([]models.Account, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Account(nil), m.accounts...), nil
}

func (m *accountRepoMock) Create(ctx context.Context, account models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.accounts = append(m.accounts, account)
	return nil
}

func newAuthServiceForTest(t *testing.T, repo *accountRepoMock, mutate func(*AuthConfig)) (*AuthService, *SessionStore) {
	t.Helper()
	cfg := AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		AccountsCacheTTL:  time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	sessions := NewSessionStore(time.Hour)
	return NewAuthService(repo, sessions, validator.New(), zap.NewNop(), cfg), sessions
}

func TestAuthServiceLoginWithHashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("patrol-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &accountRepoMock{accounts: []models.Account{
		{Account: "s01", Password: string(hash), RoleRaw: "生輔員", Name: "陳生輔", Scope: ""},
	}}
	svc, sessions := newAuthServiceForTest(t, repo, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Account: "s01", Password: "patrol-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleSupervisor, resp.Session.Identity.Role)
	assert.Equal(t, models.ScopeSchoolWide, resp.Session.Identity.Scope)
	assert.Equal(t, 1, sessions.Len())

	sess, err := svc.Authenticate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.SessionID, sess.ID)
	assert.Equal(t, "生輔員-陳生輔", sess.Identity.ReporterLabel())
}

func TestAuthServiceLoginWithPlaintextPassword(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{
		{Account: "t01", Password: "1234", RoleRaw: "導師", Name: "林老師", Scope: "ClassA"},
	}}
	svc, _ := newAuthServiceForTest(t, repo, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Account: "t01", Password: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "ClassA", resp.Session.Identity.Scope)

	_, err = svc.Login(context.Background(), models.LoginRequest{Account: "t01", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Account: "nobody", Password: "1234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsClassScopedRoleWithoutClass(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{
		{Account: "t02", Password: "pw", RoleRaw: "導師", Name: "無班導師", Scope: ""},
		{Account: "x01", Password: "pw", RoleRaw: "工友", Name: "某人"},
	}}
	svc, sessions := newAuthServiceForTest(t, repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "t02", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Account: "x01", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, sessions.Len())
}

func TestAuthServiceLoginStoreUnavailable(t *testing.T) {
	repo := &accountRepoMock{listErr: errors.New("timeout")}
	svc, _ := newAuthServiceForTest(t, repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "a", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSelfDeclaredLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, &accountRepoMock{}, nil)
	_, err := svc.LoginSelfDeclared(context.Background(), models.SelfDeclaredLoginRequest{Role: "學務主任", Name: "A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	svc, _ = newAuthServiceForTest(t, &accountRepoMock{}, func(cfg *AuthConfig) { cfg.AllowSelfDeclared = true })
	resp, err := svc.LoginSelfDeclared(context.Background(), models.SelfDeclaredLoginRequest{Role: "學務主任", Name: " A "})
	require.NoError(t, err)
	assert.True(t, resp.Session.Identity.SelfDeclared)
	assert.Equal(t, "A", resp.Session.Identity.Name)
	assert.Equal(t, []models.Mode{models.ModePatrol}, resp.Session.Modes)
}

func TestAuthServiceLogoutInvalidatesToken(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{{Account: "s01", Password: "pw", RoleRaw: "SUPERVISOR", Name: "S"}}}
	svc, _ := newAuthServiceForTest(t, repo, nil)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Account: "s01", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, resp.Session.SessionID))

	_, err = svc.Authenticate(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	err = svc.Logout(ctx, resp.Session.SessionID)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{{Account: "s01", Password: "pw", RoleRaw: "SUPERVISOR", Name: "S"}}}
	issuer, _ := newAuthServiceForTest(t, repo, func(cfg *AuthConfig) { cfg.AccessTokenSecret = "other" })
	verifier, _ := newAuthServiceForTest(t, repo, nil)

	resp, err := issuer.Login(context.Background(), models.LoginRequest{Account: "s01", Password: "pw"})
	require.NoError(t, err)
	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceEnsureBootstrapAdmin(t *testing.T) {
	repo := &accountRepoMock{}
	svc, _ := newAuthServiceForTest(t, repo, func(cfg *AuthConfig) {
		cfg.BootstrapAccount = "root"
		cfg.BootstrapPassword = "changeme"
	})
	ctx := context.Background()

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx))
	require.Len(t, repo.accounts, 1)
	created := repo.accounts[0]
	assert.Equal(t, "root", created.Account)
	assert.Equal(t, "系統管理員", created.RoleRaw)
	assert.NotEqual(t, "changeme", created.Password)

	resp, err := svc.Login(ctx, models.LoginRequest{Account: "root", Password: "changeme"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Session.Identity.Role)

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx))
	assert.Len(t, repo.accounts, 1)
	assert.Equal(t, 2, repo.ensured)
}

func TestAuthServiceSelfDeclaredRequiresName(t *testing.T) {
	svc, sessions := newAuthServiceForTest(t, &accountRepoMock{}, func(cfg *AuthConfig) { cfg.AllowSelfDeclared = true })

	_, err := svc.LoginSelfDeclared(context.Background(), models.SelfDeclaredLoginRequest{Role: "導師", Name: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, sessions.Len())

	resp, err := svc.LoginSelfDeclared(context.Background(), models.SelfDeclaredLoginRequest{Role: "導師", Name: "林"})
	require.NoError(t, err)
	assert.Equal(t, "導師-林"+models.SelfDeclaredMark, resp.Session.Identity.ReporterLabel())
}

func TestAuthServiceLoginRejectsAccountWithoutName(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{
		{Account: "", Password: "pw", RoleRaw: "生輔員", Name: "  "},
	}}
	svc, sessions := newAuthServiceForTest(t, repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "  ", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, sessions.Len())
}

func TestAuthServiceLoginWarnsAboutUnknownClassScope(t *testing.T) {
	repo := &accountRepoMock{accounts: []models.Account{
		{Account: "t01", Password: "pw", RoleRaw: "導師", Name: "林老師", Scope: "餐一仁"},
		{Account: "t02", Password: "pw", RoleRaw: "導師", Name: "王老師", Scope: "餐一忠"},
	}}
	core, logs := observer.New(zap.WarnLevel)
	svc := NewAuthService(repo, NewSessionStore(time.Hour), validator.New(), zap.New(core), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		AccountsCacheTTL:  time.Minute,
	})
	svc.UseClassCatalog(newTestRoster(studentZ).KnownClass)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "t01", Password: "pw"})
	require.NoError(t, err, "an unknown class scope is logged, not rejected")
	_, err = svc.Login(context.Background(), models.LoginRequest{Account: "t02", Password: "pw"})
	require.NoError(t, err)

	entries := logs.FilterMessage("account scope is not a known class").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "餐一仁", entries[0].ContextMap()["scope"])
}

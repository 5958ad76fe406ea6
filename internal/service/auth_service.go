package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type accountRepository interface {
	EnsureTable(ctx context.Context) error
	List(ctx context.Context) ([]models.Account, error)
	Create(ctx context.Context, account models.Account) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AccountsCacheTTL  time.Duration
	AllowSelfDeclared bool

	BootstrapAccount  string
	BootstrapPassword string
	BootstrapName     string
}

// AuthService binds callers to identities and manages their sessions.
type AuthService struct {
	repo       accountRepository
	accounts   *SnapshotCache[[]models.Account]
	sessions   *SessionStore
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
	knownClass func(ctx context.Context, class string) bool
}

// NewAuthService constructs an AuthService instance. The account table is
// cached in process only; password cells never leave the service.
func NewAuthService(repo accountRepository, sessions *SessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "patrol-logbook"
	}
	return &AuthService{
		repo:      repo,
		accounts:  NewSnapshotCache[[]models.Account]("accounts", config.AccountsCacheTTL, repo.List, nil, logger),
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Login checks an account and password against the account table.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	accounts, _ := s.accounts.Get(ctx)
	if len(accounts) == 0 && s.accounts.Degraded() {
		return nil, appErrors.Clone(appErrors.ErrStoreUnavailable, "account table unavailable")
	}

	account, ok := findAccount(accounts, req.Account)
	if !ok || !passwordMatches(account.Password, req.Password) {
		s.logger.Info("login rejected", zap.String("account", req.Account), zap.String("ip", req.IP))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid account or password")
	}

	role, ok := models.ParseRole(account.RoleRaw)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("account role %q is not recognised", account.RoleRaw))
	}
	identity := models.Identity{
		Account: account.Account,
		Role:    role,
		Name:    strings.TrimSpace(account.Name),
		Scope:   models.NormalizeScope(account.Scope),
	}
	if identity.Name == "" {
		identity.Name = strings.TrimSpace(account.Account)
	}
	if identity.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account has no display name")
	}
	if role.Capability().ClassScoped && identity.SchoolWide() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account requires a class scope")
	}
	if role.Capability().ClassScoped && s.knownClass != nil && !s.knownClass(ctx, identity.Scope) {
		s.logger.Warn("account scope is not a known class",
			zap.String("account", account.Account),
			zap.String("scope", identity.Scope),
		)
	}

	s.logger.Info("login succeeded", zap.String("account", account.Account), zap.String("role", string(role)), zap.String("ip", req.IP))
	return s.openSession(identity)
}

// LoginSelfDeclared binds an unverified role and name. It is only available
// when enabled and always yields a patrol-only, school-wide identity.
func (s *AuthService) LoginSelfDeclared(ctx context.Context, req models.SelfDeclaredLoginRequest) (*models.LoginResponse, error) {
	if !s.config.AllowSelfDeclared {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "self-declared login is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", req.Role))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	identity := models.Identity{
		Role:         role,
		Name:         name,
		Scope:        models.ScopeSchoolWide,
		SelfDeclared: true,
	}
	return s.openSession(identity)
}

// UseClassCatalog lets Login warn about class-scoped accounts whose scope is
// not a known class label.
func (s *AuthService) UseClassCatalog(known func(ctx context.Context, class string) bool) {
	s.knownClass = known
}

// ReloadAccounts rereads the account table immediately.
func (s *AuthService) ReloadAccounts(ctx context.Context) error {
	return s.accounts.Reload(ctx)
}

// Logout destroys the session and everything it staged.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(tokenString string) (*Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions.Get(claims.SessionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or logged out")
	}
	return sess, nil
}

// SessionInfo describes sess for clients.
func (s *AuthService) SessionInfo(sess *Session) models.SessionInfo {
	return sess.Info(s.sessions.IdleTTL())
}

// EnsureBootstrapAdmin seeds one administrator row when the account table
// has no accounts. Without a configured password a random one is generated
// and logged once.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context) error {
	if err := s.repo.EnsureTable(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to prepare account table")
	}
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read account table")
	}
	if len(accounts) > 0 {
		return nil
	}

	account := s.config.BootstrapAccount
	if account == "" {
		account = "admin"
	}
	name := s.config.BootstrapName
	if name == "" {
		name = "管理者"
	}
	password := s.config.BootstrapPassword
	generated := false
	if password == "" {
		password, err = randomPassword()
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate bootstrap password")
		}
		generated = true
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.Create(ctx, models.Account{
		Account:  account,
		Password: string(hash),
		RoleRaw:  models.RoleAdmin.Label(),
		Name:     name,
		Scope:    models.ScopeSchoolWide,
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to seed administrator")
	}
	s.accounts.Invalidate(ctx)

	fields := []zap.Field{zap.String("account", account)}
	if generated {
		fields = append(fields, zap.String("password", password))
	}
	s.logger.Warn("bootstrap administrator created", fields...)
	return nil
}

func (s *AuthService) openSession(identity models.Identity) (*models.LoginResponse, error) {
	sess := s.sessions.Create(identity)
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		SessionID: sess.ID,
		Role:      identity.Role,
		Name:      identity.Name,
		Scope:     identity.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   identity.Account,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Session:     s.SessionInfo(sess),
	}, nil
}

func findAccount(accounts []models.Account, name string) (models.Account, bool) {
	name = strings.TrimSpace(name)
	for _, a := range accounts {
		if a.Account == name {
			return a, true
		}
	}
	return models.Account{}, false
}

// passwordMatches accepts bcrypt hashes and, for older rows, plaintext cells.
func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds account credentials.
type LoginRequest struct {
	Account   string `json:"account" validate:"required,max=64"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SelfDeclaredLoginRequest is the legacy role + name declaration.
type SelfDeclaredLoginRequest struct {
	Role string `json:"role" validate:"required"`
	Name string `json:"name" validate:"required,max=32"`
}

// LoginResponse returns the session token and bound identity.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Session     SessionInfo `json:"session"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	SessionID string `json:"sid"`
	Role      Role   `json:"role"`
	Name      string `json:"name"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

package models

import (
	"strings"
	"time"
)

// Identity binds a caller to a role, a display name and an authorized scope
// for the lifetime of one session.
type Identity struct {
	Account      string `json:"account,omitempty"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	Scope        string `json:"scope"`
	SelfDeclared bool   `json:"self_declared,omitempty"`
}

// SelfDeclaredMark tags reporter labels of unverified identities so they can
// never equal the label of an account holder.
const SelfDeclaredMark = "（自填）"

// ReporterLabel is the reporter value written into committed rows.
func (i Identity) ReporterLabel() string {
	label := i.Role.Label() + "-" + i.Name
	if i.SelfDeclared {
		label += SelfDeclaredMark
	}
	return label
}

// Reported reports whether a committed row with the given reporter belongs
// to this identity. Account holders never own rows written by self-declared
// callers, whatever name those callers chose.
func (i Identity) Reported(reporter string) bool {
	if reporter != i.ReporterLabel() {
		return false
	}
	return i.SelfDeclared || !strings.HasSuffix(reporter, SelfDeclaredMark)
}

// SchoolWide reports whether the identity may act across classes.
func (i Identity) SchoolWide() bool {
	return NormalizeScope(i.Scope) == ScopeSchoolWide
}

// CoversClass reports whether class lies inside the identity's scope.
func (i Identity) CoversClass(class string) bool {
	return i.SchoolWide() || i.Scope == class
}

// Can reports whether the identity may use mode. Self-declared identities
// are limited to patrol entry.
func (i Identity) Can(mode Mode) bool {
	if i.SelfDeclared {
		return mode == ModePatrol
	}
	return i.Role.Capability().Allows(mode)
}

// Privileged reports whether the identity sees every reporter's rows.
func (i Identity) Privileged() bool {
	return !i.SelfDeclared && i.Role.Capability().Privileged
}

// SessionInfo describes a live session to clients.
type SessionInfo struct {
	SessionID string     `json:"session_id"`
	Identity  Identity   `json:"identity"`
	Modes     []Mode     `json:"modes"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

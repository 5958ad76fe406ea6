package models

import "strings"

// Role represents a staff role bound to an identity.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleDirector        Role = "DIRECTOR"
	RoleSupervisor      Role = "SUPERVISOR"
	RoleCounselor       Role = "COUNSELOR"
	RoleHomeroomTeacher Role = "HOMEROOM_TEACHER"
	RoleOther           Role = "OTHER"
)

// Mode is an application area a role may enter.
type Mode string

const (
	ModePatrol      Mode = "PATROL"
	ModeLeave       Mode = "LEAVE"
	ModeDiscipline  Mode = "DISCIPLINE"
	ModeReport      Mode = "REPORT"
	ModeMaintenance Mode = "MAINTENANCE"
)

// ScopeSchoolWide is the authorized scope covering every class.
const ScopeSchoolWide = "全校"

// Capability is the static permission entry for a role.
type Capability struct {
	Modes       []Mode `json:"modes"`
	Privileged  bool   `json:"privileged"`
	ClassScoped bool   `json:"class_scoped"`
}

// Allows reports whether the capability includes mode.
func (c Capability) Allows(mode Mode) bool {
	for _, m := range c.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

var capabilities = map[Role]Capability{
	RoleAdmin: {
		Modes:      []Mode{ModePatrol, ModeLeave, ModeDiscipline, ModeReport, ModeMaintenance},
		Privileged: true,
	},
	RoleDirector: {
		Modes:      []Mode{ModePatrol, ModeLeave, ModeDiscipline, ModeReport},
		Privileged: true,
	},
	RoleSupervisor: {
		Modes:      []Mode{ModePatrol, ModeReport},
		Privileged: true,
	},
	RoleCounselor: {
		Modes: []Mode{ModeLeave, ModeDiscipline, ModeReport},
	},
	RoleHomeroomTeacher: {
		Modes:       []Mode{ModePatrol, ModeDiscipline, ModeReport},
		ClassScoped: true,
	},
	RoleOther: {
		Modes: []Mode{ModePatrol},
	},
}

var roleLabels = map[Role]string{
	RoleAdmin:           "系統管理員",
	RoleDirector:        "學務主任",
	RoleSupervisor:      "生輔員",
	RoleCounselor:       "輔導老師",
	RoleHomeroomTeacher: "導師",
	RoleOther:           "其他",
}

var roleAliases = map[string]Role{
	"系統管理員": RoleAdmin,
	"學務主任":  RoleDirector,
	"生輔員":   RoleSupervisor,
	"管理員":   RoleSupervisor,
	"教官":    RoleSupervisor,
	"輔導老師":  RoleCounselor,
	"輔導員":   RoleCounselor,
	"導師":    RoleHomeroomTeacher,
	"其他":    RoleOther,
}

// ParseRole accepts either the role code or its sheet label.
func ParseRole(raw string) (Role, bool) {
	raw = strings.TrimSpace(raw)
	if r, ok := roleAliases[raw]; ok {
		return r, true
	}
	r := Role(strings.ToUpper(strings.ReplaceAll(raw, "-", "_")))
	if _, ok := capabilities[r]; ok {
		return r, true
	}
	return "", false
}

// Capability returns the static capability entry; unknown roles get none.
func (r Role) Capability() Capability {
	return capabilities[r]
}

// Label returns the display label written into reporter columns.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// NormalizeScope maps blank and school-wide spellings to ScopeSchoolWide.
func NormalizeScope(raw string) string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", ScopeSchoolWide, "school-wide", "school_wide", "all", "*":
		return ScopeSchoolWide
	}
	return raw
}

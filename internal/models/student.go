package models

// UnknownMarker is written where a roster lookup failed in legacy rows; it
// never identifies a real student.
const UnknownMarker = "未知"

// Student is a read-only roster entry owned by the external roster source.
type Student struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Class         string `json:"class"`
	Seat          string `json:"seat"`
	Phone         string `json:"phone,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
}

// Known reports whether the entry refers to a resolved student.
func (s Student) Known() bool {
	return s.ID != "" && s.Name != "" && s.Name != UnknownMarker
}

package models

import "strings"

// LeaveCategory enumerates leave request types.
type LeaveCategory string

const (
	LeaveSick       LeaveCategory = "SICK"
	LeavePersonal   LeaveCategory = "PERSONAL"
	LeaveOvernight  LeaveCategory = "OVERNIGHT"
	LeaveLateReturn LeaveCategory = "LATE_RETURN"
	LeaveHomeVisit  LeaveCategory = "HOME_VISIT"
)

var leaveLabels = map[LeaveCategory]string{
	LeaveSick:       "病假",
	LeavePersonal:   "事假",
	LeaveOvernight:  "外宿",
	LeaveLateReturn: "晚歸",
	LeaveHomeVisit:  "返鄉",
}

// Label is the sheet value for the category.
func (c LeaveCategory) Label() string {
	if l, ok := leaveLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseLeaveCategory accepts the code or the sheet label.
func ParseLeaveCategory(raw string) (LeaveCategory, bool) {
	raw = strings.TrimSpace(raw)
	for c, label := range leaveLabels {
		if raw == label || strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

// LeaveRequest is one student's row of a submitted leave batch.
type LeaveRequest struct {
	RecordDate  string        `json:"record_date"`
	Class       string        `json:"class"`
	Seat        string        `json:"seat"`
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Category    LeaveCategory `json:"category"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Detail      string        `json:"detail,omitempty"`
	Location    string        `json:"location,omitempty"`
	Contact     string        `json:"contact,omitempty"`
	Handler     string        `json:"handler"`
}

// AddLeaveRequest adds one entry per student sharing the same category,
// date range and details.
type AddLeaveRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=50,dive,required"`
	Category   string   `json:"category" validate:"required"`
	StartDate  string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Detail     string   `json:"detail" validate:"max=200"`
	Location   string   `json:"location" validate:"max=100"`
	Contact    string   `json:"contact" validate:"max=100"`
}

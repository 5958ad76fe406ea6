package models

import (
	"strings"
	"time"
)

// RecordKind separates whole-class observations from individual ones.
type RecordKind string

const (
	RecordKindClass      RecordKind = "class"
	RecordKindIndividual RecordKind = "individual"
)

// SheetLabel is the value stored in the target column.
func (k RecordKind) SheetLabel() string {
	switch k {
	case RecordKindClass:
		return "班級"
	case RecordKindIndividual:
		return "個人"
	}
	return string(k)
}

// ParseRecordKind accepts the code or the sheet label.
func ParseRecordKind(raw string) (RecordKind, bool) {
	switch strings.TrimSpace(raw) {
	case "class", "班級", "班級整體表現":
		return RecordKindClass, true
	case "individual", "個人", "個人違規紀錄":
		return RecordKindIndividual, true
	}
	return "", false
}

// StatusCategory is an entry of the scoring rule table.
type StatusCategory string

const (
	CategoryOrderGood      StatusCategory = "ORDER_GOOD"
	CategoryNapGood        StatusCategory = "NAP_GOOD"
	CategoryTeacherPresent StatusCategory = "TEACHER_PRESENT"
	CategoryNapNoisy       StatusCategory = "NAP_NOISY"
	CategoryPowerNotSaved  StatusCategory = "POWER_NOT_SAVED"
	CategoryAbsentFivePlus StatusCategory = "ABSENT_FIVE_PLUS"

	CategoryLateAbsent    StatusCategory = "LATE_ABSENT"
	CategoryWandering     StatusCategory = "WANDERING"
	CategoryCoopLoitering StatusCategory = "COOP_LOITERING"
	CategoryDressCode     StatusCategory = "DRESS_CODE"
	CategoryNoSchoolbag   StatusCategory = "NO_SCHOOLBAG"
	CategoryGoodDeed      StatusCategory = "GOOD_DEED"

	CategoryOther StatusCategory = "OTHER"
)

// Direction is the explicit sign chosen for an OTHER entry.
type Direction string

const (
	DirectionAdd      Direction = "ADD"
	DirectionSubtract Direction = "SUBTRACT"
	DirectionNone     Direction = "NONE"
)

// Sign returns +1, -1 or 0; ok is false for unknown directions.
func (d Direction) Sign() (sign int64, ok bool) {
	switch d {
	case DirectionAdd:
		return 1, true
	case DirectionSubtract:
		return -1, true
	case DirectionNone:
		return 0, true
	}
	return 0, false
}

// TimeSlots are the patrol periods of a school day.
var TimeSlots = []string{
	"0810-0900 第一節",
	"0910-1000 第二節",
	"1010-1100 第三節",
	"1110-1200 第四節",
	"1230-1300 午休",
	"1310-1400 第五節",
	"1410-1500 第六節",
	"1510-1600 第七節",
}

// ValidTimeSlot reports whether slot is one of TimeSlots.
func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// InspectionRecord is one patrol observation. Committed records are never
// updated or deleted.
type InspectionRecord struct {
	Date        string         `json:"date"`
	TimeSlot    string         `json:"time_slot"`
	Kind        RecordKind     `json:"kind"`
	Class       string         `json:"class"`
	Seat        string         `json:"seat,omitempty"`
	StudentID   string         `json:"student_id,omitempty"`
	StudentName string         `json:"student_name,omitempty"`
	Category    StatusCategory `json:"category,omitempty"`
	Status      string         `json:"status"`
	Score       Score          `json:"score"`
	Reporter    string         `json:"reporter"`
}

// StageInspectionRequest is the user entry for one observation.
type StageInspectionRequest struct {
	TimeSlot      string   `json:"time_slot" validate:"required"`
	Kind          string   `json:"kind" validate:"required,oneof=class individual"`
	Class         string   `json:"class"`
	StudentID     string   `json:"student_id"`
	Category      string   `json:"category" validate:"required"`
	Note          string   `json:"note" validate:"max=200"`
	Direction     string   `json:"direction" validate:"omitempty,oneof=ADD SUBTRACT NONE"`
	ScoreOverride *float64 `json:"score_override" validate:"omitempty,min=-100,max=100"`
}

// ScoreTotal is a rounded score sum for one grouping key.
type ScoreTotal struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	Total Score  `json:"total"`
}

// InspectionSummary is the role-scoped view of one day's committed records.
type InspectionSummary struct {
	Date           string             `json:"date"`
	Scope          string             `json:"scope"`
	Privileged     bool               `json:"privileged"`
	Records        []InspectionRecord `json:"records"`
	ClassTotals    []ScoreTotal       `json:"class_totals"`
	ReporterTotals []ScoreTotal       `json:"reporter_totals"`
	Total          Score              `json:"total"`
}

// BatchReceipt acknowledges a committed batch.
type BatchReceipt struct {
	BatchID     string    `json:"batch_id"`
	Table       string    `json:"table"`
	Rows        int       `json:"rows"`
	CommittedAt time.Time `json:"committed_at"`
}

package models

import "strings"

// DisciplineKind separates rewards from penalties.
type DisciplineKind string

const (
	DisciplineReward  DisciplineKind = "REWARD"
	DisciplinePenalty DisciplineKind = "PENALTY"
)

// Label is the sheet value for the kind.
func (k DisciplineKind) Label() string {
	switch k {
	case DisciplineReward:
		return "獎勵"
	case DisciplinePenalty:
		return "懲處"
	}
	return string(k)
}

// ParseDisciplineKind accepts the code or the sheet label.
func ParseDisciplineKind(raw string) (DisciplineKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "REWARD", "獎勵":
		return DisciplineReward, true
	case "PENALTY", "懲處":
		return DisciplinePenalty, true
	}
	return "", false
}

// DisciplineItems lists the recommendable items per kind, lightest first.
var DisciplineItems = map[DisciplineKind][]string{
	DisciplineReward:  {"嘉獎", "小功", "大功"},
	DisciplinePenalty: {"警告", "小過", "大過"},
}

// ValidDisciplineItem reports whether item belongs to kind.
func ValidDisciplineItem(kind DisciplineKind, item string) bool {
	for _, it := range DisciplineItems[kind] {
		if it == item {
			return true
		}
	}
	return false
}

// DisciplinaryRecommendation is one row of a submitted recommendation batch.
type DisciplinaryRecommendation struct {
	Date      string         `json:"date"`
	Kind      DisciplineKind `json:"kind"`
	StudentID string         `json:"student_id"`
	Class     string         `json:"class"`
	SeatName  string         `json:"seat_name"`
	Item      string         `json:"item"`
	Reason    string         `json:"reason"`
	Count     int            `json:"count"`
	Submitter string         `json:"submitter"`
}

// AddDisciplineRequest adds one recommendation per student sharing the same
// kind, item, justification and count.
type AddDisciplineRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=50,dive,required"`
	Kind       string   `json:"kind" validate:"required"`
	Item       string   `json:"item" validate:"required"`
	Reason     string   `json:"reason" validate:"required,max=300"`
	Count      int      `json:"count" validate:"required,min=1,max=3"`
}

package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

// CategoryRule is one row of the scoring rule table.
type CategoryRule struct {
	Category     models.StatusCategory `json:"category"`
	Label        string                `json:"label"`
	Delta        models.Score          `json:"delta"`
	RequiresNote bool                  `json:"requires_note"`
}

// ScoreResult is the evaluated delta and the status text stored with it.
type ScoreResult struct {
	Delta  models.Score
	Status string
}

// ScoringTable maps status categories to signed deltas per record kind.
type ScoringTable struct {
	units map[models.RecordKind]models.Score
	rules map[models.RecordKind][]CategoryRule
}

// NewScoringTable returns the standard rule table: whole points for class
// records and 0.03 for individual records.
func NewScoringTable() *ScoringTable {
	classUnit := models.ScorePoint
	individualUnit := 3 * models.ScoreHundredth
	return &ScoringTable{
		units: map[models.RecordKind]models.Score{
			models.RecordKindClass:      classUnit,
			models.RecordKindIndividual: individualUnit,
		},
		rules: map[models.RecordKind][]CategoryRule{
			models.RecordKindClass: {
				{Category: models.CategoryOrderGood, Label: "秩序良好", Delta: classUnit},
				{Category: models.CategoryNapGood, Label: "午休良好", Delta: classUnit},
				{Category: models.CategoryTeacherPresent, Label: "導師入班", Delta: classUnit},
				{Category: models.CategoryNapNoisy, Label: "午休吵鬧", Delta: -classUnit},
				{Category: models.CategoryPowerNotSaved, Label: "未節電", Delta: -classUnit},
				{Category: models.CategoryAbsentFivePlus, Label: "缺席5人以上", Delta: -classUnit},
				{Category: models.CategoryOther, Label: "其他", RequiresNote: true},
			},
			models.RecordKindIndividual: {
				{Category: models.CategoryLateAbsent, Label: "遲到缺席", Delta: -individualUnit},
				{Category: models.CategoryWandering, Label: "遊蕩", Delta: -individualUnit},
				{Category: models.CategoryCoopLoitering, Label: "合作社逗留", Delta: -individualUnit},
				{Category: models.CategoryDressCode, Label: "服儀不整"},
				{Category: models.CategoryNoSchoolbag, Label: "未帶書包"},
				{Category: models.CategoryGoodDeed, Label: "好人好事", Delta: individualUnit},
				{Category: models.CategoryOther, Label: "其他", RequiresNote: true},
			},
		},
	}
}

// Categories lists the rules for kind in display order.
func (t *ScoringTable) Categories(kind models.RecordKind) ([]CategoryRule, error) {
	rules, ok := t.rules[kind]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown record kind %q", kind))
	}
	return append([]CategoryRule(nil), rules...), nil
}

// Unit is the step size of kind.
func (t *ScoringTable) Unit(kind models.RecordKind) models.Score {
	return t.units[kind]
}

// Evaluate derives the delta and status text for an entry. The OTHER bucket
// needs a note and an explicit direction; its sign is never read from the note.
func (t *ScoringTable) Evaluate(kind models.RecordKind, category models.StatusCategory, note string, direction models.Direction) (ScoreResult, error) {
	rules, ok := t.rules[kind]
	if !ok {
		return ScoreResult{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown record kind %q", kind))
	}
	note = strings.TrimSpace(note)

	for _, rule := range rules {
		if rule.Category != category {
			continue
		}
		if !rule.RequiresNote {
			status := rule.Label
			if note != "" {
				status = rule.Label + "：" + note
			}
			return ScoreResult{Delta: rule.Delta, Status: status}, nil
		}
		if note == "" {
			return ScoreResult{}, appErrors.Clone(appErrors.ErrValidation, "a description is required for other")
		}
		sign, ok := direction.Sign()
		if !ok {
			return ScoreResult{}, appErrors.Clone(appErrors.ErrValidation, "direction must be ADD, SUBTRACT or NONE for other")
		}
		return ScoreResult{Delta: models.Score(sign) * t.units[kind], Status: note}, nil
	}
	return ScoreResult{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("category %q is not valid for %s records", category, kind))
}

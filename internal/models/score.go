package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Score is a signed point value in fixed-point hundredths, so ±0.03 deltas
// add up without floating point drift.
type Score int64

// Common score units.
const (
	ScorePoint     Score = 100
	ScoreHundredth Score = 1
)

// NewScore rounds points to the nearest hundredth.
func NewScore(points float64) Score {
	return Score(math.Round(points * 100))
}

// ParseScore reads a score cell such as "-0.03", "1" or "+2". Blank cells are zero.
func ParseScore(raw string) (Score, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(raw, "+"), 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", raw, err)
	}
	return NewScore(f), nil
}

// Float returns the score in points.
func (s Score) Float() float64 {
	return float64(s) / 100
}

// String formats the score in its shortest form: "1", "-0.03", "0".
func (s Score) String() string {
	return strconv.FormatFloat(s.Float(), 'f', -1, 64)
}

// Fixed formats the score with exactly two decimals.
func (s Score) Fixed() string {
	sign := ""
	v := int64(s)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the score as a two-decimal JSON number.
func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(s.Fixed()), nil
}

// UnmarshalJSON accepts a JSON number.
func (s *Score) UnmarshalJSON(data []byte) error {
	parsed, err := ParseScore(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package models

import (
	"time"

	"github.com/noah-isme/sma-patrol-api/pkg/export"
)

// SubmitReceipt is returned by a successful cart submission and kept on the
// session so the print sheet can be rendered afterwards.
type SubmitReceipt struct {
	BatchID     string         `json:"batch_id"`
	Table       string         `json:"table"`
	Title       string         `json:"title"`
	Rows        int            `json:"rows"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Submitter   string         `json:"submitter"`
	Dataset     export.Dataset `json:"dataset"`
}

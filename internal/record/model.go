package record

import "time"

// Pass is the inspection outcome parsed from a filename.
type Pass string

// Inspection outcomes. PassUnknown is stored as NULL.
const (
	PassOK      Pass = "OK"
	PassNG      Pass = "NG"
	PassUnknown Pass = ""
)

// ImageRecord is one ingested inspection image. Records are immutable once
// created; the canonical file path is the primary key.
type ImageRecord struct {
	Path       string    `json:"path"`
	Station    string    `json:"station,omitempty"`
	Model      string    `json:"model,omitempty"`
	Pass       Pass      `json:"pass,omitempty"`
	JobCount   *int      `json:"job_count,omitempty"`
	CaptureTS  time.Time `json:"ts"`
	Mtime      time.Time `json:"mtime"`
	IngestedAt time.Time `json:"ingested_at"`
}

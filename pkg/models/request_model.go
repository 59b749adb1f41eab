package models

import "time"

// Request is one generation outcome as stored in the ledger.
type Request struct {
	ID            int        `json:"id" db:"id"`
	CorrelationID string     `json:"correlationId" db:"correlation_id"`
	Status        TaskStatus `json:"status" db:"status"`
	Code          string     `json:"code" db:"code"`
	Prompt        string     `json:"prompt" db:"prompt"`
	AspectRatio   string     `json:"aspectRatio" db:"aspect_ratio"`
	Resolution    string     `json:"resolution" db:"resolution"`
	FileCount     int        `json:"fileCount" db:"file_count"`
	ImageURL      string     `json:"imageUrl,omitempty" db:"image_url"`
	Width         int        `json:"width,omitempty" db:"width"`
	Height        int        `json:"height,omitempty" db:"height"`
	DurationMS    int64      `json:"durationMs" db:"duration_ms"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

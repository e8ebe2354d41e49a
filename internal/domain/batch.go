package domain

import "time"

// BatchJobStatus represents the lifecycle status of a provider batch job.
// Transitions are monotonic: pending -> processing -> completed|failed.
type BatchJobStatus string

const (
	BatchJobStatusPending    BatchJobStatus = "pending"
	BatchJobStatusProcessing BatchJobStatus = "processing"
	BatchJobStatusCompleted  BatchJobStatus = "completed"
	BatchJobStatusFailed     BatchJobStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s BatchJobStatus) Terminal() bool {
	return s == BatchJobStatusCompleted || s == BatchJobStatusFailed
}

// BatchJob represents one bulk-inference submission tracked against the
// provider. ItemCount is fixed at creation; only the lifecycle manager
// mutates a job after the batcher persists it.
type BatchJob struct {
	ID             string         `gorm:"type:text;primaryKey" json:"id"`
	CorrelationKey string         `gorm:"type:text;not null;uniqueIndex:idx_batch_jobs_key" json:"correlation_key"`
	ItemCount      int            `gorm:"not null" json:"item_count"`
	Status         BatchJobStatus `gorm:"type:text;index:idx_batch_jobs_status;default:pending" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName returns the database table name for BatchJob.
func (BatchJob) TableName() string {
	return "batch_jobs"
}

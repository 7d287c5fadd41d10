package models

import (
	"time"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
)

// NotificationJob is one durable fan-out unit. Direct jobs carry a target
// user; topic jobs carry a topic and resolve subscribers at processing time.
// A job with zero active targets completes as a no-op success.
type NotificationJob struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  *uint     `gorm:"index" json:"user_id"`
	Topic   string    `gorm:"type:varchar(64);index" json:"topic"`
	Kind    string    `gorm:"type:varchar(32);not null" json:"kind"`
	Payload string    `gorm:"type:text;not null" json:"payload"`
	Status  JobStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// TraceID correlates the job with downstream push-provider logs.
	TraceID string `gorm:"type:varchar(36)" json:"trace_id"`
}

func (NotificationJob) TableName() string {
	return "notification_jobs"
}

// NotificationDelivery records the per-(job, device) outcome. Retries walk
// Attempts up with exponential backoff until the cap, then the delivery goes
// terminal and the device is deactivated.
type NotificationDelivery struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobID    uint `gorm:"not null;uniqueIndex:idx_job_device" json:"job_id"`
	DeviceID uint `gorm:"not null;uniqueIndex:idx_job_device;index" json:"device_id"`

	Attempts    int        `gorm:"default:0" json:"attempts"`
	Delivered   bool       `gorm:"default:false;index" json:"delivered"`
	GaveUp      bool       `gorm:"default:false;index" json:"gave_up"`
	LastAttempt *time.Time `json:"last_attempt"`
	NextRetry   *time.Time `gorm:"index" json:"next_retry"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
}

func (NotificationDelivery) TableName() string {
	return "notification_deliveries"
}

// Terminal reports whether this delivery needs no further attempts.
func (d *NotificationDelivery) Terminal() bool {
	return d.Delivered || d.GaveUp
}

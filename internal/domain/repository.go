package domain

import "time"

// JobRecord is the stored form of a job, written on every status transition
type JobRecord struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	Kind           JobKind    `json:"kind" gorm:"not null;index"`
	URL            string     `json:"url" gorm:"not null"`
	DestinationDir string     `json:"destination"`
	Format         string     `json:"format,omitempty"`
	Resolution     int        `json:"resolution,omitempty"`
	Subtitles      bool       `json:"subtitles"`
	Status         JobStatus  `json:"status" gorm:"not null;index"`
	Progress       float64    `json:"progress"`
	LastMessage    string     `json:"last_message,omitempty"`
	ErrorKind      ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty" gorm:"type:text"`
	Title          string     `json:"title,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewJobRecord builds the stored form of a job
func NewJobRecord(job *DownloadJob) *JobRecord {
	rec := &JobRecord{
		ID:             job.ID,
		Kind:           job.Request.Kind,
		URL:            job.Request.SourceURL,
		DestinationDir: job.Request.DestinationDir,
		Format:         string(job.Request.TargetFormat),
		Subtitles:      job.Request.SubtitlesEnabled,
		Status:         job.Status,
		Progress:       job.ProgressFraction,
		LastMessage:    job.LastMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
		CompletedAt:    job.CompletedAt,
	}
	if job.Request.TargetResolutionHeight != nil {
		rec.Resolution = *job.Request.TargetResolutionHeight
	}
	if job.Err != nil {
		rec.ErrorKind = job.Err.Kind
		rec.ErrorMessage = job.Err.Message
	}
	if job.Metadata != nil {
		rec.Title = job.Metadata.Title
	}
	return rec
}

// JobFilter narrows a FindAll query; zero fields match everything
type JobFilter struct {
	Status JobStatus
	Kind   JobKind
}

// JobRepository defines the interface for job record persistence
type JobRepository interface {
	// Save inserts or updates a record
	Save(record *JobRecord) error

	// FindByID finds a record by job ID
	FindByID(id string) (*JobRecord, error)

	// FindAll finds records matching the filter, newest first
	FindAll(filter JobFilter) ([]*JobRecord, error)

	// GetStats returns counts per status
	GetStats() (*JobStats, error)
}

// JobStats represents job statistics
type JobStats struct {
	Total          int64 `json:"total"`
	Idle           int64 `json:"idle"`
	Validating     int64 `json:"validating"`
	Fetching       int64 `json:"fetching"`
	Downloading    int64 `json:"downloading"`
	PostProcessing int64 `json:"post_processing"`
	Completed      int64 `json:"completed"`
	Failed         int64 `json:"failed"`
}

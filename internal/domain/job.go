package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobKind represents what a job fetches
type JobKind string

const (
	KindPlaylist   JobKind = "playlist"
	KindSingleItem JobKind = "single_item"
)

// Tag returns the log tag used for lines emitted by jobs of this kind
func (k JobKind) Tag() string {
	if k == KindPlaylist {
		return "[Playlist]"
	}
	return "[Video]"
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusIdle           JobStatus = "idle"
	StatusValidating     JobStatus = "validating"
	StatusFetching       JobStatus = "fetching"
	StatusDownloading    JobStatus = "downloading"
	StatusPostProcessing JobStatus = "post_processing"
	StatusCompleted      JobStatus = "completed"
	StatusFailed         JobStatus = "failed"
)

// IsTerminal checks if the status can never change again
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TargetFormat is the export format of a single item
type TargetFormat string

const (
	FormatVideo TargetFormat = "mp4"
	FormatMP3   TargetFormat = "mp3"
	FormatWAV   TargetFormat = "wav"
)

// IsAudio reports whether the format is audio-only
func (f TargetFormat) IsAudio() bool {
	return f == FormatMP3 || f == FormatWAV
}

// ValidateFormat checks if a target format is known
func ValidateFormat(f TargetFormat) bool {
	return f == FormatVideo || f == FormatMP3 || f == FormatWAV
}

// ProbePolicy controls whether a single item is probed before it is downloaded
type ProbePolicy string

const (
	ProbeDefault      ProbePolicy = ""
	ProbeNone         ProbePolicy = "none"
	ProbeThenDownload ProbePolicy = "probe_then_download"
	ProbeThenWait     ProbePolicy = "probe_then_wait"
)

// ValidateProbePolicy checks if a probe policy is known
func ValidateProbePolicy(p ProbePolicy) bool {
	switch p {
	case ProbeDefault, ProbeNone, ProbeThenDownload, ProbeThenWait:
		return true
	}
	return false
}

// DefaultSubtitleLanguages is used when subtitles are enabled without languages
var DefaultSubtitleLanguages = []string{"en"}

// JobRequest is the caller's description of a job. It is not modified after submission.
type JobRequest struct {
	Kind              JobKind  `json:"kind"`
	SourceURL         string   `json:"url"`
	DestinationDir    string   `json:"destination"`
	SubtitlesEnabled  bool     `json:"subtitles"`
	SubtitleLanguages []string `json:"subtitle_languages,omitempty"`

	// Single item only
	TargetFormat           TargetFormat `json:"format,omitempty"`
	TargetResolutionHeight *int         `json:"resolution,omitempty"`
	Probe                  ProbePolicy  `json:"probe,omitempty"`
}

// Languages returns the subtitle languages, falling back to the defaults
func (r JobRequest) Languages() []string {
	if len(r.SubtitleLanguages) == 0 {
		return append([]string(nil), DefaultSubtitleLanguages...)
	}
	return append([]string(nil), r.SubtitleLanguages...)
}

// Clone returns a deep copy of the request
func (r JobRequest) Clone() JobRequest {
	c := r
	if r.SubtitleLanguages != nil {
		c.SubtitleLanguages = append([]string(nil), r.SubtitleLanguages...)
	}
	if r.TargetResolutionHeight != nil {
		h := *r.TargetResolutionHeight
		c.TargetResolutionHeight = &h
	}
	return c
}

// Height returns a pointer to h, for building requests
func Height(h int) *int {
	return &h
}

// DownloadJob is a single unit of work owned by the job manager
type DownloadJob struct {
	ID               string
	Request          JobRequest
	Status           JobStatus
	ProgressFraction float64
	LastMessage      string
	Err              *JobError
	Metadata         *MediaMetadata
	AwaitingStart    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// NewDownloadJob creates a job in the idle state
func NewDownloadJob(req JobRequest) *DownloadJob {
	now := time.Now()
	return &DownloadJob{
		ID:        uuid.New().String(),
		Request:   req.Clone(),
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// allowedTransitions lists the legal non-failure moves of the state machine.
// Failed is reachable from every non-terminal state.
var allowedTransitions = map[JobStatus][]JobStatus{
	StatusIdle:           {StatusValidating},
	StatusValidating:     {StatusFetching, StatusDownloading, StatusPostProcessing, StatusCompleted},
	StatusFetching:       {StatusDownloading, StatusPostProcessing, StatusCompleted},
	StatusDownloading:    {StatusPostProcessing, StatusCompleted},
	StatusPostProcessing: {StatusDownloading, StatusCompleted},
}

// CanTransition reports whether the job may move to the given status
func (j *DownloadJob) CanTransition(to JobStatus) bool {
	if j.Status.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for _, s := range allowedTransitions[j.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the job to a new status
func (j *DownloadJob) Transition(to JobStatus, message string) error {
	if !j.CanTransition(to) {
		return fmt.Errorf("illegal transition %s -> %s", j.Status, to)
	}
	j.Status = to
	if message != "" {
		j.LastMessage = message
	}
	now := time.Now()
	j.UpdatedAt = now
	if to.IsTerminal() {
		j.ProgressFraction = 0
		j.AwaitingStart = false
		j.CompletedAt = &now
	}
	return nil
}

// MarkCompleted marks the job as completed
func (j *DownloadJob) MarkCompleted(message string) error {
	return j.Transition(StatusCompleted, message)
}

// MarkFailed marks the job as failed with a classified error
func (j *DownloadJob) MarkFailed(err *JobError, message string) error {
	if err := j.Transition(StatusFailed, message); err != nil {
		return err
	}
	j.Err = err
	return nil
}

// SetProgress records a new progress fraction while downloading
func (j *DownloadJob) SetProgress(fraction float64) {
	if j.Status != StatusDownloading {
		return
	}
	j.ProgressFraction = fraction
	j.UpdatedAt = time.Now()
}

// Snapshot returns an immutable view of the job
func (j *DownloadJob) Snapshot() Snapshot {
	s := Snapshot{
		JobID:            j.ID,
		Kind:             j.Request.Kind,
		SourceURL:        j.Request.SourceURL,
		Status:           j.Status,
		ProgressFraction: j.ProgressFraction,
		LastMessage:      j.LastMessage,
		AwaitingStart:    j.AwaitingStart,
		UpdatedAt:        j.UpdatedAt,
	}
	if j.Err != nil {
		e := *j.Err
		s.Error = &e
	}
	if j.Metadata != nil {
		m := j.Metadata.Clone()
		s.Metadata = &m
	}
	return s
}

// Snapshot is a point-in-time, read-only view of a job
type Snapshot struct {
	JobID            string         `json:"job_id"`
	Kind             JobKind        `json:"kind"`
	SourceURL        string         `json:"url"`
	Status           JobStatus      `json:"status"`
	ProgressFraction float64        `json:"progress"`
	LastMessage      string         `json:"last_message"`
	Error            *JobError      `json:"error,omitempty"`
	Metadata         *MediaMetadata `json:"metadata,omitempty"`
	AwaitingStart    bool           `json:"awaiting_start,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsTerminal checks if the snapshot describes a finished job
func (s Snapshot) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// ValidateKind checks if a job kind is valid
func ValidateKind(kind JobKind) bool {
	return kind == KindPlaylist || kind == KindSingleItem
}

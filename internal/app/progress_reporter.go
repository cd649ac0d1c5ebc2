package app

import "github.com/yourusername/youtubify-go/internal/domain"

// ProgressUpdate is a normalized progress signal
type ProgressUpdate struct {
	Phase       domain.JobStatus
	Fraction    float64
	HasFraction bool
}

// ProgressReporter normalizes raw engine progress events for a single job.
// Within one transfer the emitted fraction never decreases. It is not safe for
// concurrent use; the job manager calls it under the job's lock.
type ProgressReporter struct {
	last         float64
	transferring bool
}

// NewProgressReporter creates a reporter with no progress recorded
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{}
}

// Last returns the last emitted fraction
func (r *ProgressReporter) Last() float64 {
	return r.last
}

// Report converts a raw event. ok is false when the event carries nothing new.
func (r *ProgressReporter) Report(ev domain.ProgressEvent) (update ProgressUpdate, ok bool) {
	switch ev.Kind {
	case domain.ProgressBytes:
		started := false
		if !r.transferring {
			// A new transfer (next stream or playlist entry) starts from zero.
			r.transferring = true
			r.last = 0
			started = true
		}

		total := ev.Total()
		if total <= 0 {
			if started {
				return ProgressUpdate{Phase: domain.StatusDownloading, Fraction: r.last}, true
			}
			return ProgressUpdate{}, false
		}

		fraction := clampFraction(float64(ev.DownloadedBytes) / float64(total))
		if fraction <= r.last && !started {
			return ProgressUpdate{}, false
		}
		if fraction > r.last {
			r.last = fraction
		}
		return ProgressUpdate{Phase: domain.StatusDownloading, Fraction: r.last, HasFraction: true}, true

	case domain.ProgressTransferComplete:
		r.transferring = false
		return ProgressUpdate{Phase: domain.StatusPostProcessing, Fraction: r.last}, true
	}

	return ProgressUpdate{}, false
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

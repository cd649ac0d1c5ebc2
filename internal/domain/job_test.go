package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *DownloadJob {
	return NewDownloadJob(JobRequest{
		Kind:           KindSingleItem,
		SourceURL:      "https://example/watch?v=1",
		DestinationDir: "/tmp/out",
		TargetFormat:   FormatVideo,
	})
}

func TestNewDownloadJob(t *testing.T) {
	job := newTestJob()

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusIdle, job.Status)
	assert.Equal(t, 0.0, job.ProgressFraction)
	assert.Nil(t, job.Err)
	assert.Nil(t, job.CompletedAt)
}

func TestNewDownloadJob_UniqueIDs(t *testing.T) {
	a := newTestJob()
	b := newTestJob()
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewDownloadJob_CopiesRequest(t *testing.T) {
	langs := []string{"en", "de"}
	height := 720
	req := JobRequest{Kind: KindSingleItem, SourceURL: "u", DestinationDir: "d", SubtitleLanguages: langs, TargetResolutionHeight: &height}

	job := NewDownloadJob(req)
	langs[0] = "fr"
	height = 1080

	assert.Equal(t, []string{"en", "de"}, job.Request.SubtitleLanguages)
	assert.Equal(t, 720, *job.Request.TargetResolutionHeight)
}

func TestDownloadJob_HappyPath(t *testing.T) {
	job := newTestJob()

	require.NoError(t, job.Transition(StatusValidating, "Starting download..."))
	require.NoError(t, job.Transition(StatusFetching, "Fetching video info..."))
	require.NoError(t, job.Transition(StatusDownloading, ""))
	job.SetProgress(0.5)
	assert.Equal(t, 0.5, job.ProgressFraction)
	require.NoError(t, job.Transition(StatusPostProcessing, "Post-processing..."))
	require.NoError(t, job.MarkCompleted("Download complete!"))

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, "Download complete!", job.LastMessage)
	assert.Equal(t, 0.0, job.ProgressFraction)
	assert.NotNil(t, job.CompletedAt)
}

func TestDownloadJob_PostProcessingBackToDownloading(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.Transition(StatusValidating, ""))
	require.NoError(t, job.Transition(StatusDownloading, ""))
	require.NoError(t, job.Transition(StatusPostProcessing, ""))
	assert.NoError(t, job.Transition(StatusDownloading, ""))
}

func TestDownloadJob_IllegalTransitions(t *testing.T) {
	job := newTestJob()

	assert.Error(t, job.Transition(StatusDownloading, ""), "idle must validate first")
	require.NoError(t, job.Transition(StatusValidating, ""))
	require.NoError(t, job.Transition(StatusDownloading, ""))
	assert.Error(t, job.Transition(StatusFetching, ""))
}

func TestDownloadJob_TerminalIsImmutable(t *testing.T) {
	for _, terminal := range []JobStatus{StatusCompleted, StatusFailed} {
		t.Run(string(terminal), func(t *testing.T) {
			job := newTestJob()
			require.NoError(t, job.Transition(StatusValidating, ""))
			if terminal == StatusFailed {
				require.NoError(t, job.MarkFailed(NewJobError(ErrorEngine, errors.New("boom")), "Download error: boom"))
			} else {
				require.NoError(t, job.MarkCompleted("done"))
			}

			for _, s := range []JobStatus{StatusIdle, StatusValidating, StatusFetching, StatusDownloading, StatusPostProcessing, StatusCompleted, StatusFailed} {
				assert.False(t, job.CanTransition(s), "terminal job must not move to %s", s)
			}
			assert.Error(t, job.MarkFailed(NewJobError(ErrorEngine, nil), ""))
			assert.Equal(t, terminal, job.Status)
		})
	}
}

func TestDownloadJob_SetProgressOutsideDownloading(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.Transition(StatusValidating, ""))

	job.SetProgress(0.7)

	assert.Equal(t, 0.0, job.ProgressFraction)
}

func TestDownloadJob_MarkFailed(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.Transition(StatusValidating, ""))
	require.NoError(t, job.Transition(StatusDownloading, ""))
	job.SetProgress(0.4)

	require.NoError(t, job.MarkFailed(NewJobError(ErrorEngine, errors.New("HTTP 403")), "Download error: HTTP 403"))

	assert.Equal(t, StatusFailed, job.Status)
	require.NotNil(t, job.Err)
	assert.Equal(t, ErrorEngine, job.Err.Kind)
	assert.Equal(t, "HTTP 403", job.Err.Message)
	assert.Equal(t, 0.0, job.ProgressFraction)
}

func TestDownloadJob_SnapshotIsDetached(t *testing.T) {
	job := newTestJob()
	meta := NewMediaMetadata("t", []int{720})
	job.Metadata = &meta
	job.Err = NewJobError(ErrorEngine, errors.New("x"))

	snap := job.Snapshot()
	job.Metadata.Heights[0] = 1
	job.Err.Message = "changed"

	assert.Equal(t, []int{720}, snap.Metadata.Heights)
	assert.Equal(t, "x", snap.Error.Message)
	assert.Equal(t, job.ID, snap.JobID)
}

func TestJobKind_Tag(t *testing.T) {
	assert.Equal(t, "[Playlist]", KindPlaylist.Tag())
	assert.Equal(t, "[Video]", KindSingleItem.Tag())
}

func TestJobRequest_Languages(t *testing.T) {
	assert.Equal(t, []string{"en"}, JobRequest{}.Languages())
	assert.Equal(t, []string{"de", "fr"}, JobRequest{SubtitleLanguages: []string{"de", "fr"}}.Languages())
}

func TestValidateFormat(t *testing.T) {
	assert.True(t, ValidateFormat(FormatVideo))
	assert.True(t, ValidateFormat(FormatMP3))
	assert.True(t, ValidateFormat(FormatWAV))
	assert.False(t, ValidateFormat("flac"))
	assert.True(t, FormatMP3.IsAudio())
	assert.False(t, FormatVideo.IsAudio())
}

func TestValidateKindAndProbePolicy(t *testing.T) {
	assert.True(t, ValidateKind(KindPlaylist))
	assert.True(t, ValidateKind(KindSingleItem))
	assert.False(t, ValidateKind("channel"))
	assert.True(t, ValidateProbePolicy(ProbeDefault))
	assert.True(t, ValidateProbePolicy(ProbeThenWait))
	assert.False(t, ValidateProbePolicy("later"))
}

func TestJobError_Is(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewJobError(ErrorMissingURL, errors.New("empty url")))

	assert.True(t, errors.Is(err, ErrMissingURL))
	assert.False(t, errors.Is(err, ErrMissingDestination))
	assert.Equal(t, ErrorMissingURL, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, "missing_url: empty url", NewJobError(ErrorMissingURL, errors.New("empty url")).Error())
}

func TestJobError_Unwrap(t *testing.T) {
	cause := errors.New("network down")
	err := NewJobError(ErrorMetadataFetch, cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, ErrorMissingURL.IsInputError())
	assert.False(t, ErrorEngine.IsInputError())
}

func TestNewMediaMetadata(t *testing.T) {
	meta := NewMediaMetadata("Clip", []int{1080, 360, 0, 720, 1080, 4320, -1, 2160, 360})

	assert.Equal(t, "Clip", meta.Title)
	assert.Equal(t, []int{360, 720, 1080, 2160}, meta.Heights)

	best, ok := meta.Best()
	assert.True(t, ok)
	assert.Equal(t, 2160, best)
	assert.True(t, meta.HasHeight(720))
	assert.False(t, meta.HasHeight(480))
}

func TestMediaMetadata_BestEmpty(t *testing.T) {
	_, ok := NewMediaMetadata("", nil).Best()
	assert.False(t, ok)
}

func TestProgressEvent_Total(t *testing.T) {
	assert.Equal(t, int64(10), ProgressEvent{TotalBytes: 10, TotalBytesEstimate: 20}.Total())
	assert.Equal(t, int64(20), ProgressEvent{TotalBytesEstimate: 20}.Total())
	assert.Equal(t, int64(0), ProgressEvent{}.Total())
}

func TestNewJobRecord(t *testing.T) {
	job := NewDownloadJob(JobRequest{Kind: KindSingleItem, SourceURL: "u", DestinationDir: "d", TargetFormat: FormatMP3, TargetResolutionHeight: Height(480)})
	require.NoError(t, job.Transition(StatusValidating, ""))
	require.NoError(t, job.MarkFailed(NewJobError(ErrorEngine, errors.New("boom")), "Download error: boom"))

	rec := NewJobRecord(job)

	assert.Equal(t, job.ID, rec.ID)
	assert.Equal(t, "mp3", rec.Format)
	assert.Equal(t, 480, rec.Resolution)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, ErrorEngine, rec.ErrorKind)
	assert.Equal(t, "boom", rec.ErrorMessage)
}

package domain

import (
	"context"
	"sort"
)

// MaxResolutionHeight is the tallest rendition offered for selection
const MaxResolutionHeight = 2160

// AudioQualityKbps is the fixed audio re-encoding target
const AudioQualityKbps = 192

// NamingScheme is the abstract policy for output filenames
type NamingScheme string

const (
	NamingPositionAndTitle NamingScheme = "position_and_title"
	NamingTitleOnly        NamingScheme = "title_only"
)

// SelectionKind describes which streams the engine should pick
type SelectionKind string

const (
	SelectBestVideoAudio SelectionKind = "best_video_audio"
	SelectBestAudio      SelectionKind = "best_audio"
)

// StreamSelection is the engine-neutral stream selection expression
type StreamSelection struct {
	Kind SelectionKind `json:"kind"`
	// MaxHeight constrains video streams to height <= MaxHeight; 0 means unconstrained
	MaxHeight int `json:"max_height,omitempty"`
}

// PostProcessDirective asks the engine to re-encode audio after the transfer
type PostProcessDirective struct {
	Codec       TargetFormat `json:"codec"`
	QualityKbps int          `json:"quality_kbps"`
}

// SubtitleRequest asks the engine to fetch subtitles
type SubtitleRequest struct {
	Enabled   bool     `json:"enabled"`
	Languages []string `json:"languages,omitempty"`
}

// EngineParameters is the resolved parameter set handed to the fetch engine
type EngineParameters struct {
	OutputDir      string                `json:"output_dir"`
	Naming         NamingScheme          `json:"naming"`
	Selection      StreamSelection       `json:"selection"`
	PostProcess    *PostProcessDirective `json:"post_process,omitempty"`
	Subtitles      SubtitleRequest       `json:"subtitles"`
	ExpandPlaylist bool                  `json:"expand_playlist"`
}

// ProgressKind is the type of a raw engine progress event
type ProgressKind string

const (
	ProgressBytes            ProgressKind = "downloading"
	ProgressTransferComplete ProgressKind = "finished"
)

// ProgressEvent is a raw progress callback from the engine.
// Byte counts are 0 when the engine does not know them.
type ProgressEvent struct {
	Kind               ProgressKind
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
}

// Total returns the exact total if known, otherwise the estimate
func (e ProgressEvent) Total() int64 {
	if e.TotalBytes > 0 {
		return e.TotalBytes
	}
	return e.TotalBytesEstimate
}

// ProgressFunc receives raw progress events on the engine's goroutine
type ProgressFunc func(ProgressEvent)

// ProbeResult is the engine's raw answer to a metadata probe
type ProbeResult struct {
	Title   string
	Heights []int
}

// FetchEngine is the external media fetch engine
type FetchEngine interface {
	// Probe returns metadata for url without downloading anything
	Probe(ctx context.Context, url string) (*ProbeResult, error)

	// Download transfers url according to params, reporting progress via onProgress
	Download(ctx context.Context, url string, params EngineParameters, onProgress ProgressFunc) error
}

// MediaMetadata is the normalized result of a probe
type MediaMetadata struct {
	Title   string `json:"title"`
	Heights []int  `json:"heights"`
}

// NewMediaMetadata deduplicates heights, drops values outside (0, 2160] and sorts ascending
func NewMediaMetadata(title string, heights []int) MediaMetadata {
	seen := make(map[int]struct{}, len(heights))
	out := make([]int, 0, len(heights))
	for _, h := range heights {
		if h <= 0 || h > MaxResolutionHeight {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Ints(out)
	return MediaMetadata{Title: title, Heights: out}
}

// Best returns the highest available height
func (m MediaMetadata) Best() (int, bool) {
	if len(m.Heights) == 0 {
		return 0, false
	}
	return m.Heights[len(m.Heights)-1], true
}

// HasHeight reports whether h was among the probed heights
func (m MediaMetadata) HasHeight(h int) bool {
	for _, v := range m.Heights {
		if v == h {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (m MediaMetadata) Clone() MediaMetadata {
	return MediaMetadata{Title: m.Title, Heights: append([]int(nil), m.Heights...)}
}

// LogSink is an append-only sink for human-readable status lines
type LogSink interface {
	Write(line string)
}

// Notifier is told when jobs reach a terminal state
type Notifier interface {
	NotifyJobCompleted(snapshot Snapshot)
	NotifyJobFailed(snapshot Snapshot)
}

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/youtubify-go/internal/domain"
)

func TestResolveOptions_Playlist(t *testing.T) {
	req := domain.JobRequest{
		Kind:           domain.KindPlaylist,
		SourceURL:      "https://example.com/playlist?list=PL1",
		DestinationDir: "/tmp/out",
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", params.OutputDir)
	assert.Equal(t, domain.NamingPositionAndTitle, params.Naming)
	assert.True(t, params.ExpandPlaylist)
	assert.Equal(t, domain.SelectBestVideoAudio, params.Selection.Kind)
	assert.Zero(t, params.Selection.MaxHeight)
	assert.Nil(t, params.PostProcess)
	assert.False(t, params.Subtitles.Enabled)
}

func TestResolveOptions_PlaylistSubtitles(t *testing.T) {
	req := domain.JobRequest{
		Kind:             domain.KindPlaylist,
		SourceURL:        "https://example.com/playlist?list=PL1",
		DestinationDir:   "/tmp/out",
		SubtitlesEnabled: true,
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)
	assert.True(t, params.Subtitles.Enabled)
	assert.Equal(t, []string{"en"}, params.Subtitles.Languages)
}

func TestResolveOptions_SingleItemAudio(t *testing.T) {
	for _, format := range []domain.TargetFormat{domain.FormatMP3, domain.FormatWAV} {
		t.Run(string(format), func(t *testing.T) {
			req := domain.JobRequest{
				Kind:                   domain.KindSingleItem,
				SourceURL:              "https://example.com/watch?v=1",
				DestinationDir:         "/tmp/out",
				TargetFormat:           format,
				TargetResolutionHeight: domain.Height(720),
			}

			params, err := ResolveOptions(req, nil)
			require.NoError(t, err)

			assert.Equal(t, domain.NamingTitleOnly, params.Naming)
			assert.False(t, params.ExpandPlaylist)
			assert.Equal(t, domain.SelectBestAudio, params.Selection.Kind)
			assert.Zero(t, params.Selection.MaxHeight, "resolution is ignored for audio")
			require.NotNil(t, params.PostProcess)
			assert.Equal(t, format, params.PostProcess.Codec)
			assert.Equal(t, 192, params.PostProcess.QualityKbps)
		})
	}
}

func TestResolveOptions_SingleItemVideo(t *testing.T) {
	req := domain.JobRequest{
		Kind:                   domain.KindSingleItem,
		SourceURL:              "https://example.com/watch?v=1",
		DestinationDir:         "/tmp/out",
		TargetFormat:           domain.FormatVideo,
		TargetResolutionHeight: domain.Height(720),
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectBestVideoAudio, params.Selection.Kind)
	assert.Equal(t, 720, params.Selection.MaxHeight)
	assert.Nil(t, params.PostProcess)
}

func TestResolveOptions_DefaultsToVideo(t *testing.T) {
	req := domain.JobRequest{
		Kind:           domain.KindSingleItem,
		SourceURL:      "https://example.com/watch?v=1",
		DestinationDir: "/tmp/out",
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectBestVideoAudio, params.Selection.Kind)
	assert.Zero(t, params.Selection.MaxHeight)
}

func TestResolveOptions_ProbedHeights(t *testing.T) {
	probed := domain.NewMediaMetadata("clip", []int{360, 720, 1080})
	req := domain.JobRequest{
		Kind:                   domain.KindSingleItem,
		SourceURL:              "https://example.com/watch?v=1",
		DestinationDir:         "/tmp/out",
		TargetResolutionHeight: domain.Height(1080),
	}

	params, err := ResolveOptions(req, &probed)
	require.NoError(t, err)
	assert.Equal(t, 1080, params.Selection.MaxHeight)

	req.TargetResolutionHeight = domain.Height(1440)
	_, err = ResolveOptions(req, &probed)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidOptions)
	assert.Contains(t, err.Error(), "360p, 720p, 1080p")
}

func TestResolveOptions_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		req  domain.JobRequest
	}{
		{
			name: "unknown format",
			req:  domain.JobRequest{Kind: domain.KindSingleItem, TargetFormat: "flac"},
		},
		{
			name: "non-positive height",
			req:  domain.JobRequest{Kind: domain.KindSingleItem, TargetResolutionHeight: domain.Height(0)},
		},
		{
			name: "height above the tallest rendition",
			req:  domain.JobRequest{Kind: domain.KindSingleItem, TargetResolutionHeight: domain.Height(99999)},
		},
		{
			name: "unknown kind",
			req:  domain.JobRequest{Kind: "channel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveOptions(tt.req, nil)
			require.Error(t, err)
			assert.Equal(t, domain.ErrorInvalidOptions, domain.KindOf(err))
		})
	}
}

func TestResolveOptions_CleansLanguages(t *testing.T) {
	req := domain.JobRequest{
		Kind:              domain.KindSingleItem,
		DestinationDir:    "/tmp/out",
		SubtitlesEnabled:  true,
		SubtitleLanguages: []string{" de ", "", "fr"},
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "fr"}, params.Subtitles.Languages)
}

func TestResolveOptions_DoesNotMutateRequest(t *testing.T) {
	langs := []string{"en", "es"}
	req := domain.JobRequest{
		Kind:              domain.KindSingleItem,
		DestinationDir:    "/tmp/out",
		SubtitlesEnabled:  true,
		SubtitleLanguages: langs,
	}

	params, err := ResolveOptions(req, nil)
	require.NoError(t, err)
	params.Subtitles.Languages[0] = "xx"
	assert.Equal(t, "en", langs[0])
}

package app

import (
	"strconv"
	"strings"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// ResolveOptions turns a job request into the fetch engine's parameter set.
// probed is the metadata of an earlier probe of the same URL, or nil when the
// URL was never probed. It has no side effects.
func ResolveOptions(req domain.JobRequest, probed *domain.MediaMetadata) (domain.EngineParameters, error) {
	params := domain.EngineParameters{
		OutputDir: req.DestinationDir,
	}

	if req.SubtitlesEnabled {
		params.Subtitles = domain.SubtitleRequest{
			Enabled:   true,
			Languages: cleanLanguages(req.Languages()),
		}
	}

	switch req.Kind {
	case domain.KindPlaylist:
		params.Naming = domain.NamingPositionAndTitle
		params.ExpandPlaylist = true
		params.Selection = domain.StreamSelection{Kind: domain.SelectBestVideoAudio}
		return params, nil

	case domain.KindSingleItem:
		params.Naming = domain.NamingTitleOnly
		params.ExpandPlaylist = false

		format := req.TargetFormat
		if format == "" {
			format = domain.FormatVideo
		}
		if !domain.ValidateFormat(format) {
			return domain.EngineParameters{}, domain.Errorf(domain.ErrorInvalidOptions, "unsupported format %q", format)
		}

		if format.IsAudio() {
			params.Selection = domain.StreamSelection{Kind: domain.SelectBestAudio}
			params.PostProcess = &domain.PostProcessDirective{
				Codec:       format,
				QualityKbps: domain.AudioQualityKbps,
			}
			return params, nil
		}

		params.Selection = domain.StreamSelection{Kind: domain.SelectBestVideoAudio}
		if h := req.TargetResolutionHeight; h != nil {
			if *h <= 0 || *h > domain.MaxResolutionHeight {
				return domain.EngineParameters{}, domain.Errorf(domain.ErrorInvalidOptions,
					"resolution must be between 1 and %d, got %d", domain.MaxResolutionHeight, *h)
			}
			if probed != nil && !probed.HasHeight(*h) {
				return domain.EngineParameters{}, domain.Errorf(domain.ErrorInvalidOptions,
					"resolution %dp is not available (probed: %s)", *h, formatHeights(probed.Heights))
			}
			params.Selection.MaxHeight = *h
		}
		return params, nil

	default:
		return domain.EngineParameters{}, domain.Errorf(domain.ErrorInvalidOptions, "unknown job kind %q", req.Kind)
	}
}

func cleanLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return append(out, domain.DefaultSubtitleLanguages...)
	}
	return out
}

// formatHeights renders heights the way the resolution picker shows them
func formatHeights(heights []int) string {
	if len(heights) == 0 {
		return "none"
	}
	parts := make([]string, len(heights))
	for i, h := range heights {
		parts[i] = heightLabel(h)
	}
	return strings.Join(parts, ", ")
}

func heightLabel(h int) string {
	return strconv.Itoa(h) + "p"
}

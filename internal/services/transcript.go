package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/types"
)

// TranscriptResult is what one acquisition attempt produced. Strategies are
// never merged; the first one to succeed wins outright.
type TranscriptResult struct {
	Text     string
	Segments []CaptionSegment
	Source   types.TranscriptSource
}

type TranscriptService interface {
	// Acquire walks the strategy chain in order and returns the first
	// success plus any caller-visible warnings. Individual strategy
	// failures are non-fatal; only the whole chain failing is an error.
	Acquire(ctx context.Context, videoURL string) (*TranscriptResult, []string, error)
}

// transcriptStrategy is one rung of the fallback ladder. A nil result with a
// nil error is not allowed: either produce a transcript or explain why not.
type transcriptStrategy struct {
	name string
	run  func(ctx context.Context, videoURL string) (*TranscriptResult, error)
}

type transcriptService struct {
	log       *logger.Logger
	media     MediaToolsService
	timedtext TimedTextClient
	metadata  VideoMetadataService
	speech    SpeechService

	audioEnabled    bool
	maxAudioSeconds int
}

func NewTranscriptService(
	log *logger.Logger,
	media MediaToolsService,
	timedtext TimedTextClient,
	metadata VideoMetadataService,
	speech SpeechService,
	audioEnabled bool,
	maxAudioSeconds int,
) TranscriptService {
	return &transcriptService{
		log:             log.With("service", "TranscriptService"),
		media:           media,
		timedtext:       timedtext,
		metadata:        metadata,
		speech:          speech,
		audioEnabled:    audioEnabled,
		maxAudioSeconds: maxAudioSeconds,
	}
}

func (ts *transcriptService) Acquire(ctx context.Context, videoURL string) (*TranscriptResult, []string, error) {
	ctx = defaultCtx(ctx)
	if strings.TrimSpace(videoURL) == "" {
		return nil, nil, apierr.Validation("video url is required")
	}

	strategies := []transcriptStrategy{
		{name: "captions", run: ts.captionsViaYtdlp},
		{name: "captions-api", run: ts.captionsViaTimedText},
		{name: "metadata", run: ts.metadataPseudoTranscript},
		{name: "audio", run: ts.audioTranscription},
	}

	var warnings []string
	for _, strat := range strategies {
		result, err := strat.run(ctx, videoURL)
		if err != nil {
			ts.log.Warn("Transcript strategy unavailable", "strategy", strat.name, "error", err)
			continue
		}
		ts.log.Info("Transcript acquired", "strategy", strat.name, "chars", len(result.Text))
		if result.Source == types.TranscriptSourceMetadata {
			warnings = append(warnings, MetadataOnlyWarning)
		}
		return result, warnings, nil
	}

	return nil, nil, apierr.Validation("no transcript available for this video")
}

func (ts *transcriptService) captionsViaYtdlp(ctx context.Context, videoURL string) (*TranscriptResult, error) {
	vtt, err := ts.media.FetchCaptionsVTT(ctx, videoURL)
	if err != nil {
		return nil, apierr.StrategyUnavailable("caption fetch failed: %v", err)
	}
	text := VTTToText(vtt)
	if text == "" {
		return nil, apierr.StrategyUnavailable("video has no caption track")
	}
	return &TranscriptResult{Text: text, Source: types.TranscriptSourceCaptions}, nil
}

func (ts *transcriptService) captionsViaTimedText(ctx context.Context, videoURL string) (*TranscriptResult, error) {
	videoID := ExtractYouTubeVideoID(videoURL)
	if videoID == "" {
		return nil, apierr.StrategyUnavailable("could not parse video id from url")
	}
	text, segments, err := ts.timedtext.FetchTranscript(ctx, videoID)
	if err != nil {
		return nil, apierr.StrategyUnavailable("timedtext captions failed: %v", err)
	}
	return &TranscriptResult{Text: text, Segments: segments, Source: types.TranscriptSourceCaptions}, nil
}

func (ts *transcriptService) metadataPseudoTranscript(ctx context.Context, videoURL string) (*TranscriptResult, error) {
	md := ts.metadata.GetMetadata(ctx, videoURL)
	if md == nil || strings.TrimSpace(md.Title) == "" {
		return nil, apierr.StrategyUnavailable("no metadata or title available")
	}
	text := fmt.Sprintf("Video title: %s", md.Title)
	if md.Description != "" {
		text += fmt.Sprintf("\nDescription: %s", md.Description)
	}
	return &TranscriptResult{Text: text, Source: types.TranscriptSourceMetadata}, nil
}

// audioTranscription is the only strategy with side effects worth gating: it
// downloads audio with yt-dlp, which hosted environments should avoid
// because of upstream bot detection. Enabled by flag for local use.
func (ts *transcriptService) audioTranscription(ctx context.Context, videoURL string) (*TranscriptResult, error) {
	if !ts.audioEnabled {
		return nil, apierr.StrategyUnavailable("audio transcription disabled")
	}
	if ts.speech == nil {
		return nil, apierr.StrategyUnavailable("speech service not configured")
	}

	// Cheap pre-check against the cap when the duration is already known.
	if md := ts.metadata.GetMetadata(ctx, videoURL); md != nil && ts.maxAudioSeconds > 0 && md.DurationSec > ts.maxAudioSeconds {
		return nil, apierr.StrategyUnavailable("audio too long (%ds, max %ds)", md.DurationSec, ts.maxAudioSeconds)
	}

	dir, cleanup, err := ts.media.MakeTempDir()
	if err != nil {
		return nil, apierr.StrategyUnavailable("temp dir: %v", err)
	}
	defer cleanup()

	audioPath, err := ts.media.DownloadAudio(ctx, videoURL, dir)
	if err != nil {
		return nil, apierr.StrategyUnavailable("audio download failed: %v", err)
	}

	text, err := ts.speech.TranscribeFile(ctx, audioPath, ts.maxAudioSeconds)
	if err != nil {
		return nil, apierr.StrategyUnavailable("transcription failed: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apierr.StrategyUnavailable("transcription returned empty result")
	}
	return &TranscriptResult{Text: text, Source: types.TranscriptSourceAudio}, nil
}

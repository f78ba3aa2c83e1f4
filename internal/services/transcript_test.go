package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type fakeMediaTools struct {
	vtt           string
	vttErr        error
	audioPath     string
	audioErr      error
	downloadCalls int
}

func (f *fakeMediaTools) FetchCaptionsVTT(ctx context.Context, url string) (string, error) {
	return f.vtt, f.vttErr
}

func (f *fakeMediaTools) DumpVideoInfo(ctx context.Context, url string) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeMediaTools) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	f.downloadCalls++
	return f.audioPath, f.audioErr
}

func (f *fakeMediaTools) ConvertToWav16kMono(ctx context.Context, src, dst string) error { return nil }

func (f *fakeMediaTools) SliceWav(ctx context.Context, src string, startSec, durSec float64, dst string) error {
	return nil
}

func (f *fakeMediaTools) ProbeDurationSeconds(ctx context.Context, path string) (float64, error) {
	return 0, nil
}

func (f *fakeMediaTools) MakeTempDir() (string, func(), error) {
	return "/tmp/test", func() {}, nil
}

type fakeTimedText struct {
	text     string
	segments []CaptionSegment
	err      error
}

func (f *fakeTimedText) FetchTranscript(ctx context.Context, videoID string) (string, []CaptionSegment, error) {
	return f.text, f.segments, f.err
}

type fakeMetadata struct {
	md *types.VideoMetadata
}

func (f *fakeMetadata) GetMetadata(ctx context.Context, videoURL string) *types.VideoMetadata {
	return f.md
}

type fakeSpeech struct {
	text  string
	err   error
	calls int
}

func (f *fakeSpeech) TranscribeFile(ctx context.Context, audioPath string, maxAudioSeconds int) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeSpeech) Close() error { return nil }

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestAcquire_CaptionsWinFirst(t *testing.T) {
	media := &fakeMediaTools{vtt: "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nboil the pasta\n"}
	speech := &fakeSpeech{}
	svc := NewTranscriptService(testLogger(t), media,
		&fakeTimedText{err: fmt.Errorf("should not be called")},
		&fakeMetadata{}, speech, true, 900)

	result, warnings, err := svc.Acquire(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if result.Source != types.TranscriptSourceCaptions {
		t.Fatalf("unexpected source %q", result.Source)
	}
	if !strings.Contains(result.Text, "boil the pasta") {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if media.downloadCalls != 0 || speech.calls != 0 {
		t.Fatal("later strategies ran after captions succeeded")
	}
}

func TestAcquire_TimedTextSecond(t *testing.T) {
	media := &fakeMediaTools{vttErr: fmt.Errorf("yt-dlp blocked")}
	timedtext := &fakeTimedText{
		text:     "add the garlic now",
		segments: []CaptionSegment{{Text: "add the garlic now", StartSec: 1, EndSec: 3}},
	}
	svc := NewTranscriptService(testLogger(t), media, timedtext, &fakeMetadata{}, &fakeSpeech{}, false, 900)

	result, warnings, err := svc.Acquire(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if result.Source != types.TranscriptSourceCaptions {
		t.Fatalf("unexpected source %q", result.Source)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("expected segments to pass through, got %d", len(result.Segments))
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}

func TestAcquire_MetadataFallbackWarns(t *testing.T) {
	media := &fakeMediaTools{vttErr: fmt.Errorf("blocked")}
	timedtext := &fakeTimedText{err: fmt.Errorf("no track")}
	metadata := &fakeMetadata{md: &types.VideoMetadata{
		Title:       "Best Carbonara",
		Description: "Eggs, guanciale, pecorino.",
	}}
	svc := NewTranscriptService(testLogger(t), media, timedtext, metadata, &fakeSpeech{}, false, 900)

	result, warnings, err := svc.Acquire(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if result.Source != types.TranscriptSourceMetadata {
		t.Fatalf("unexpected source %q", result.Source)
	}
	if !strings.Contains(result.Text, "Video title: Best Carbonara") {
		t.Fatalf("pseudo-transcript missing title: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Description: Eggs") {
		t.Fatalf("pseudo-transcript missing description: %q", result.Text)
	}
	if len(warnings) != 1 || warnings[0] != MetadataOnlyWarning {
		t.Fatalf("expected metadata-only warning, got %v", warnings)
	}
}

func TestAcquire_AudioDisabledByFlag(t *testing.T) {
	media := &fakeMediaTools{vttErr: fmt.Errorf("blocked")}
	speech := &fakeSpeech{text: "should never be used"}
	svc := NewTranscriptService(testLogger(t), media,
		&fakeTimedText{err: fmt.Errorf("no track")},
		&fakeMetadata{}, speech, false, 900)

	_, _, err := svc.Acquire(context.Background(), watchURL)
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected VALIDATION when every strategy fails, got %v", err)
	}
	if speech.calls != 0 || media.downloadCalls != 0 {
		t.Fatal("audio strategy ran while disabled")
	}
}

func TestAcquire_AudioRunsWhenEnabled(t *testing.T) {
	media := &fakeMediaTools{vttErr: fmt.Errorf("blocked"), audioPath: "/tmp/test/audio.m4a"}
	speech := &fakeSpeech{text: "today we make ramen"}
	svc := NewTranscriptService(testLogger(t), media,
		&fakeTimedText{err: fmt.Errorf("no track")},
		&fakeMetadata{}, speech, true, 900)

	result, warnings, err := svc.Acquire(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if result.Source != types.TranscriptSourceAudio {
		t.Fatalf("unexpected source %q", result.Source)
	}
	if result.Text != "today we make ramen" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}

func TestAcquire_AudioRejectedOverDurationCap(t *testing.T) {
	media := &fakeMediaTools{vttErr: fmt.Errorf("blocked")}
	speech := &fakeSpeech{text: "never"}
	metadata := &fakeMetadata{md: &types.VideoMetadata{Title: "", DurationSec: 3600}}
	svc := NewTranscriptService(testLogger(t), media,
		&fakeTimedText{err: fmt.Errorf("no track")},
		metadata, speech, true, 900)

	_, _, err := svc.Acquire(context.Background(), watchURL)
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected terminal VALIDATION error, got %v", err)
	}
	if speech.calls != 0 {
		t.Fatal("speech ran despite the duration cap")
	}
}

func TestAcquire_EmptyURL(t *testing.T) {
	svc := NewTranscriptService(testLogger(t), &fakeMediaTools{}, &fakeTimedText{}, &fakeMetadata{}, &fakeSpeech{}, false, 900)
	_, _, err := svc.Acquire(context.Background(), "  ")
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

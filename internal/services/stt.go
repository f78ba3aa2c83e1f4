package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/utils"
)

// Chunk length stays under the synchronous recognize limit (~60s) with
// headroom.
const sttChunkSec = 55.0

const sttParallelWorkers = 6

type SpeechService interface {
	// TranscribeFile converts the audio to 16k mono wav, chunks it and
	// transcribes the chunks in parallel, reassembling in order. Audio past
	// maxAudioSeconds is ignored.
	TranscribeFile(ctx context.Context, audioPath string, maxAudioSeconds int) (string, error)
	Close() error
}

type speechService struct {
	log    *logger.Logger
	client *speech.Client
	media  MediaToolsService

	languageCode string
	model        string
	maxRetries   int
}

func NewSpeechService(log *logger.Logger, media MediaToolsService) (SpeechService, error) {
	slog := log.With("service", "SpeechService")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()
	var c *speech.Client
	var err error
	if creds != "" {
		c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = speech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &speechService{
		log:          slog,
		client:       c,
		media:        media,
		languageCode: utils.GetEnv("STT_LANGUAGE_CODE", "en-US", log),
		model:        utils.GetEnv("STT_MODEL", "", log),
		maxRetries:   3,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) TranscribeFile(ctx context.Context, audioPath string, maxAudioSeconds int) (string, error) {
	ctx = defaultCtx(ctx)
	ctx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	dir, cleanup, err := s.media.MakeTempDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	wavPath := filepath.Join(dir, "audio.wav")
	if err := s.media.ConvertToWav16kMono(ctx, audioPath, wavPath); err != nil {
		return "", err
	}

	totalSec, err := s.media.ProbeDurationSeconds(ctx, wavPath)
	if err != nil {
		return "", err
	}
	s.log.Info("Audio ready for transcription", "duration_sec", totalSec)

	if maxAudioSeconds > 0 && totalSec > float64(maxAudioSeconds) {
		s.log.Warn("Audio exceeds cap, transcribing only the head",
			"duration_sec", totalSec, "max_audio_seconds", maxAudioSeconds)
		totalSec = float64(maxAudioSeconds)
	}

	rcfg := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            16000,
		LanguageCode:               s.languageCode,
		EnableAutomaticPunctuation: true,
		Model:                      s.model,
	}

	// Short audio: one long-running call, no chunking overhead.
	if totalSec <= 60 {
		content, err := os.ReadFile(wavPath)
		if err != nil {
			return "", fmt.Errorf("failed to read wav: %w", err)
		}
		text, err := s.recognizeLongRunning(ctx, rcfg, content)
		if err != nil {
			return "", err
		}
		return text, nil
	}

	// Long audio: slice into chunks and recognize in parallel.
	type chunk struct {
		idx   int
		start float64
		dur   float64
	}
	var chunks []chunk
	for start, idx := 0.0, 0; start < totalSec; idx++ {
		dur := sttChunkSec
		if remaining := totalSec - start; remaining < dur {
			dur = remaining
		}
		chunks = append(chunks, chunk{idx: idx, start: start, dur: dur})
		start += dur
	}
	s.log.Info("Transcribing in parallel chunks", "chunks", len(chunks))

	parts := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sttParallelWorkers)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%04d.wav", c.idx))
			if err := s.media.SliceWav(gctx, wavPath, c.start, c.dur, chunkPath); err != nil {
				return err
			}
			content, err := os.ReadFile(chunkPath)
			if err != nil {
				return fmt.Errorf("failed to read chunk %d: %w", c.idx, err)
			}
			var text string
			if c.dur >= sttChunkSec {
				text, err = s.recognizeLongRunning(gctx, rcfg, content)
			} else {
				text, err = s.recognizeSync(gctx, rcfg, content)
			}
			if err != nil {
				return fmt.Errorf("chunk %d: %w", c.idx, err)
			}
			parts[c.idx] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	transcript := strings.Join(nonEmpty, " ")
	s.log.Info("Transcription done", "chars", len(transcript))
	return transcript, nil
}

func (s *speechService) recognizeLongRunning(ctx context.Context, rcfg *speechpb.RecognitionConfig, content []byte) (string, error) {
	req := &speechpb.LongRunningRecognizeRequest{
		Config: rcfg,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: content}},
	}
	var resp *speechpb.LongRunningRecognizeResponse
	err := s.retry(ctx, func() error {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return err
		}
		resp, err = op.Wait(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	return joinResults(resp.GetResults()), nil
}

func (s *speechService) recognizeSync(ctx context.Context, rcfg *speechpb.RecognitionConfig, content []byte) (string, error) {
	req := &speechpb.RecognizeRequest{
		Config: rcfg,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: content}},
	}
	var resp *speechpb.RecognizeResponse
	err := s.retry(ctx, func() error {
		var rerr error
		resp, rerr = s.client.Recognize(ctx, req)
		return rerr
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	return joinResults(resp.GetResults()), nil
}

func (s *speechService) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !isRetryableGRPC(lastErr) {
			return lastErr
		}
		s.log.Warn("Speech call failed, retrying", "attempt", attempt, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return lastErr
}

func isRetryableGRPC(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}

func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	var parts []string
	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

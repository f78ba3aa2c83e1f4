package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cookclip/cookclip-backend/internal/logger"
)

// MediaToolsService is the glue around system binaries:
//
// REQUIRED BINARIES in the runtime:
// - yt-dlp for caption/metadata/audio fetching
// - ffmpeg for audio conversion and slicing
// - ffprobe (ffmpeg package) for duration probing
//
// Calls are synchronous; each one gets its own timeout and temp dir.
type MediaToolsService interface {
	// FetchCaptionsVTT writes caption tracks with --skip-download and returns
	// the raw VTT of the first track found, or "" when the video has none.
	FetchCaptionsVTT(ctx context.Context, url string) (string, error)
	// DumpVideoInfo returns the raw --dump-json metadata blob.
	DumpVideoInfo(ctx context.Context, url string) ([]byte, error)
	// DownloadAudio extracts the audio track as m4a into dir.
	DownloadAudio(ctx context.Context, url string, dir string) (string, error)

	ConvertToWav16kMono(ctx context.Context, src, dst string) error
	SliceWav(ctx context.Context, src string, startSec, durSec float64, dst string) error
	ProbeDurationSeconds(ctx context.Context, path string) (float64, error)

	MakeTempDir() (string, func(), error)
}

type mediaToolsService struct {
	log *logger.Logger

	ytdlpPath   string
	ffmpegPath  string
	ffprobePath string

	workRoot       string
	defaultTimeout time.Duration
}

func NewMediaToolsService(log *logger.Logger) MediaToolsService {
	return &mediaToolsService{
		log:            log.With("service", "MediaToolsService"),
		ytdlpPath:      "yt-dlp",
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
		workRoot:       filepath.Join(os.TempDir(), "cookclip-media"),
		defaultTimeout: 2 * time.Minute,
	}
}

func (m *mediaToolsService) MakeTempDir() (string, func(), error) {
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create work root: %w", err)
	}
	dir, err := os.MkdirTemp(m.workRoot, "job-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.log.Debug("Failed to clean up temp dir", "dir", dir, "error", rmErr)
		}
	}
	return dir, cleanup, nil
}

func (m *mediaToolsService) FetchCaptionsVTT(ctx context.Context, url string) (string, error) {
	dir, cleanup, err := m.MakeTempDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	outTpl := filepath.Join(dir, "%(id)s.%(ext)s")
	args := []string{
		"--skip-download",
		"--write-auto-subs",
		"--write-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "vtt",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-o", outTpl,
		url,
	}
	if _, err := m.run(ctx, m.defaultTimeout, m.ytdlpPath, args...); err != nil {
		return "", fmt.Errorf("yt-dlp captions fetch failed: %w", err)
	}

	vtts, err := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if err != nil || len(vtts) == 0 {
		return "", nil
	}
	data, err := os.ReadFile(vtts[0])
	if err != nil {
		return "", fmt.Errorf("failed to read caption file: %w", err)
	}
	return string(data), nil
}

func (m *mediaToolsService) DumpVideoInfo(ctx context.Context, url string) ([]byte, error) {
	out, err := m.run(ctx, 30*time.Second, m.ytdlpPath,
		"--dump-json",
		"--no-playlist",
		"--quiet",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata dump failed: %w", err)
	}
	return out, nil
}

func (m *mediaToolsService) DownloadAudio(ctx context.Context, url string, dir string) (string, error) {
	audioPath := filepath.Join(dir, "audio.m4a")
	args := []string{
		"-x",
		"--audio-format", "m4a",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-o", audioPath,
		url,
	}
	if cookie := strings.TrimSpace(os.Getenv("YOUTUBE_COOKIE")); cookie != "" {
		args = append(args, "--cookies", cookie)
	}
	if _, err := m.run(ctx, 5*time.Minute, m.ytdlpPath, args...); err != nil {
		return "", fmt.Errorf("yt-dlp audio download failed: %w", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file missing after download: %w", err)
	}
	return audioPath, nil
}

func (m *mediaToolsService) ConvertToWav16kMono(ctx context.Context, src, dst string) error {
	_, err := m.run(ctx, m.defaultTimeout, m.ffmpegPath,
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dst,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg wav conversion failed: %w", err)
	}
	return nil
}

func (m *mediaToolsService) SliceWav(ctx context.Context, src string, startSec, durSec float64, dst string) error {
	_, err := m.run(ctx, m.defaultTimeout, m.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(startSec, 'f', 3, 64),
		"-t", strconv.FormatFloat(durSec, 'f', 3, 64),
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dst,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg slice failed: %w", err)
	}
	return nil
}

func (m *mediaToolsService) ProbeDurationSeconds(ctx context.Context, path string) (float64, error) {
	out, err := m.run(ctx, 30*time.Second, m.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", string(out), err)
	}
	return dur, nil
}

func (m *mediaToolsService) run(ctx context.Context, timeout time.Duration, bin string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(defaultCtx(ctx), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	m.log.Debug("Ran media tool", "bin", bin, "elapsed", time.Since(start).String())
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s: %s", bin, msg)
	}
	return stdout.Bytes(), nil
}

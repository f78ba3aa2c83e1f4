package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cookclip/cookclip-backend/internal/logger"
)

// ExtractYouTubeVideoID pulls the 11-character id out of watch, share and
// shorts URLs. Returns "" when the URL carries no recognizable id.
func ExtractYouTubeVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0], "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				return strings.SplitN(rest, "/", 2)[0]
			}
		}
	}
	return ""
}

var (
	vttTagRe    = regexp.MustCompile(`<[^>]+>`)
	vttSpacesRe = regexp.MustCompile(`\s+`)
	vttCueNumRe = regexp.MustCompile(`^\d+$`)
)

// VTTToText flattens a WEBVTT caption track to plain text, dropping
// timestamps, cue numbers and styling tags.
func VTTToText(vtt string) string {
	var lines []string
	for _, line := range strings.Split(vtt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "WEBVTT") || strings.Contains(line, "-->") {
			continue
		}
		// Header metadata and comment blocks from yt-dlp output.
		if strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		line = vttTagRe.ReplaceAllString(line, "")
		if vttCueNumRe.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	text := strings.Join(lines, " ")
	return strings.TrimSpace(vttSpacesRe.ReplaceAllString(text, " "))
}

// CaptionSegment is one timed caption chunk from the timedtext API.
type CaptionSegment struct {
	Text     string  `json:"text"`
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
}

// TimedTextClient fetches captions from YouTube's timedtext endpoint. It is
// the second-chance captions strategy: a different upstream path that
// sometimes works when yt-dlp is blocked.
type TimedTextClient interface {
	FetchTranscript(ctx context.Context, videoID string) (string, []CaptionSegment, error)
}

type timedTextClient struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
}

func NewTimedTextClient(log *logger.Logger) TimedTextClient {
	return &timedTextClient{
		log:        log.With("service", "TimedTextClient"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    "https://www.youtube.com/api/timedtext",
	}
}

type timedTextEvent struct {
	TStartMs    int64 `json:"tStartMs"`
	DDurationMs int64 `json:"dDurationMs"`
	Segs        []struct {
		UTF8 string `json:"utf8"`
	} `json:"segs"`
}

type timedTextResponse struct {
	Events []timedTextEvent `json:"events"`
}

func (t *timedTextClient) FetchTranscript(ctx context.Context, videoID string) (string, []CaptionSegment, error) {
	ctx = defaultCtx(ctx)
	if videoID == "" {
		return "", nil, fmt.Errorf("video id is empty")
	}

	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", "en")
	q.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", nil, err
	}
	res, err := t.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("timedtext request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", nil, fmt.Errorf("timedtext request failed: %s", res.Status)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return "", nil, err
	}
	// The endpoint answers 200 with an empty body when no track exists.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil, fmt.Errorf("no caption track for video %s", videoID)
	}

	var parsed timedTextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, fmt.Errorf("timedtext response unparseable: %w", err)
	}

	var segments []CaptionSegment
	var parts []string
	for _, ev := range parsed.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(vttSpacesRe.ReplaceAllString(sb.String(), " "))
		if text == "" {
			continue
		}
		start := float64(ev.TStartMs) / 1000.0
		segments = append(segments, CaptionSegment{
			Text:     text,
			StartSec: start,
			EndSec:   start + float64(ev.DDurationMs)/1000.0,
		})
		parts = append(parts, text)
	}
	if len(segments) == 0 {
		return "", nil, fmt.Errorf("caption track for video %s is empty", videoID)
	}
	return strings.Join(parts, " "), segments, nil
}

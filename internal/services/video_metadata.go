package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/types"
	"github.com/cookclip/cookclip-backend/internal/utils"
)

type VideoMetadataService interface {
	// GetMetadata resolves title/author/thumbnail/duration/description for a
	// video URL. Prefers the Data API when an API key is configured and
	// falls back to a yt-dlp metadata dump. Returns nil when nothing can be
	// resolved; callers treat that as strategy failure, not a hard error.
	GetMetadata(ctx context.Context, videoURL string) *types.VideoMetadata
}

type videoMetadataService struct {
	log   *logger.Logger
	media MediaToolsService
	yt    *youtube.Service
}

func NewVideoMetadataService(log *logger.Logger, media MediaToolsService) VideoMetadataService {
	slog := log.With("service", "VideoMetadataService")

	var yt *youtube.Service
	if apiKey := utils.GetEnv("YOUTUBE_API_KEY", "", nil); apiKey != "" {
		svc, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
		if err != nil {
			slog.Warn("YouTube Data API unavailable, will rely on yt-dlp", "error", err)
		} else {
			yt = svc
		}
	}

	return &videoMetadataService{log: slog, media: media, yt: yt}
}

func (vs *videoMetadataService) GetMetadata(ctx context.Context, videoURL string) *types.VideoMetadata {
	ctx = defaultCtx(ctx)
	videoID := ExtractYouTubeVideoID(videoURL)
	if videoID == "" {
		vs.log.Warn("Could not extract video id from URL", "url", videoURL)
		return nil
	}

	if vs.yt != nil {
		if md := vs.fromDataAPI(ctx, videoID); md != nil {
			return md
		}
	}
	return vs.fromYtdlp(ctx, videoURL, videoID)
}

func (vs *videoMetadataService) fromDataAPI(ctx context.Context, videoID string) *types.VideoMetadata {
	call := vs.yt.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		vs.log.Warn("YouTube Data API lookup failed", "video_id", videoID, "error", err)
		return nil
	}
	if len(resp.Items) == 0 {
		return nil
	}
	item := resp.Items[0]

	md := &types.VideoMetadata{
		VideoID:     videoID,
		Title:       item.Snippet.Title,
		Author:      item.Snippet.ChannelTitle,
		Description: item.Snippet.Description,
		DurationSec: int(parseISO8601Duration(item.ContentDetails.Duration).Seconds()),
	}
	if item.Snippet.Thumbnails != nil {
		switch {
		case item.Snippet.Thumbnails.High != nil:
			md.ThumbnailURL = item.Snippet.Thumbnails.High.Url
		case item.Snippet.Thumbnails.Default != nil:
			md.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
	}
	if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		md.UploadDate = ts.Format("January 2, 2006")
	}
	return md
}

type ytdlpInfo struct {
	Title       string  `json:"title"`
	Thumbnail   string  `json:"thumbnail"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

func (vs *videoMetadataService) fromYtdlp(ctx context.Context, videoURL, videoID string) *types.VideoMetadata {
	raw, err := vs.media.DumpVideoInfo(ctx, videoURL)
	if err != nil {
		vs.log.Warn("yt-dlp metadata fetch failed", "video_id", videoID, "error", err)
		return nil
	}
	var info ytdlpInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		vs.log.Warn("yt-dlp metadata unparseable", "video_id", videoID, "error", err)
		return nil
	}

	md := &types.VideoMetadata{
		VideoID:      videoID,
		Title:        info.Title,
		ThumbnailURL: info.Thumbnail,
		Author:       info.Uploader,
		DurationSec:  int(info.Duration),
		Description:  info.Description,
	}
	if md.Title == "" {
		md.Title = "Untitled"
	}
	if md.Author == "" {
		md.Author = info.Channel
	}
	if md.Author == "" {
		md.Author = "Unknown"
	}
	if md.ThumbnailURL == "" && len(info.Thumbnails) > 0 {
		md.ThumbnailURL = info.Thumbnails[0].URL
	}
	// upload_date arrives as YYYYMMDD
	if info.UploadDate != "" {
		if ts, err := time.Parse("20060102", info.UploadDate); err == nil {
			md.UploadDate = ts.Format("January 2, 2006")
		} else {
			md.UploadDate = info.UploadDate
		}
	}
	return md
}

var isoDurRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(s string) time.Duration {
	m := isoDurRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var d time.Duration
	parse := func(v string, unit time.Duration) {
		if v == "" {
			return
		}
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			d += time.Duration(n) * unit
		}
	}
	parse(m[1], time.Hour)
	parse(m[2], time.Minute)
	parse(m[3], time.Second)
	return d
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/pkg/httpx"
	"github.com/cookclip/cookclip-backend/internal/pkg/pointers"
	"github.com/cookclip/cookclip-backend/internal/utils"
)

// GeminiClient is the one place the backend talks to the model. JSON calls
// request application/json output and strip any markdown fences the model
// wraps around it anyway; parsing stays with the caller.
type GeminiClient interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
}

type geminiClient struct {
	log    *logger.Logger
	client *genai.Client
	model  string

	maxRetries int
	timeout    time.Duration
}

func NewGeminiClient(log *logger.Logger) (GeminiClient, error) {
	apiKey := utils.GetEnv("GEMINI_API_KEY", "", nil)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash", log)
	timeoutSec := utils.GetEnvAsInt("GEMINI_TIMEOUT_SECONDS", 120, log)
	maxRetries := utils.GetEnvAsInt("GEMINI_MAX_RETRIES", 3, log)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiClient{
		log:        log.With("service", "GeminiClient"),
		client:     client,
		model:      model,
		maxRetries: maxRetries,
		timeout:    time.Duration(timeoutSec) * time.Second,
	}, nil
}

func (g *geminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      pointers.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}
	text, err := g.generate(ctx, prompt, cfg)
	if err != nil {
		return "", err
	}
	cleaned := CleanModelText(text)
	if cleaned == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return cleaned, nil
}

func (g *geminiClient) GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: pointers.Ptr(float32(0.3)),
		TopP:        pointers.Ptr(float32(0.95)),
		TopK:        pointers.Ptr(float32(40)),
	}
	if maxOutputTokens > 0 {
		cfg.MaxOutputTokens = maxOutputTokens
	}
	text, err := g.generate(ctx, prompt, cfg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *geminiClient) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	ctx = defaultCtx(ctx)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, err := g.client.Models.GenerateContent(callCtx, g.model, contents, cfg)
		cancel()
		if err == nil {
			return result.Text(), nil
		}
		lastErr = err
		g.log.Warn("Gemini call failed", "attempt", attempt, "model", g.model, "error", err)
		if ctx.Err() != nil || !httpx.IsRetryableError(err) && !looksRetryable(err) {
			break
		}
		if attempt < g.maxRetries {
			time.Sleep(httpx.Backoff(attempt, time.Second, 10*time.Second))
		}
	}
	return "", fmt.Errorf("gemini generate failed after retries: %w", lastErr)
}

// looksRetryable covers API-level errors the transport classifier cannot
// see (the genai SDK flattens HTTP status into the error string).
func looksRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(msg, "DEADLINE_EXCEEDED") ||
		strings.Contains(msg, "500") || strings.Contains(msg, "503")
}

// CleanModelText strips markdown code fences and isolates the first JSON
// object when the model decorates its output.
func CleanModelText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[7:]
	} else if strings.HasPrefix(text, "```") {
		text = text[3:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/services"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type ExtractHandler struct {
	transcriptService services.TranscriptService
	metadataService   services.VideoMetadataService
	extractionService services.ExtractionService
	askAIService      services.AskAIService
}

func NewExtractHandler(
	transcriptService services.TranscriptService,
	metadataService services.VideoMetadataService,
	extractionService services.ExtractionService,
	askAIService services.AskAIService,
) *ExtractHandler {
	return &ExtractHandler{
		transcriptService: transcriptService,
		metadataService:   metadataService,
		extractionService: extractionService,
		askAIService:      askAIService,
	}
}

// Extract runs the full pipeline for one video URL: transcript acquisition,
// metadata lookup, then LLM extraction. Nothing is persisted; saving is a
// separate, authenticated call.
func (eh *ExtractHandler) Extract(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		RespondError(c, apierr.Validation("url is required"))
		return
	}

	ctx := c.Request.Context()
	transcript, warnings, err := eh.transcriptService.Acquire(ctx, req.URL)
	if err != nil {
		RespondError(c, err)
		return
	}

	// Metadata is best effort; extraction proceeds without it.
	metadata := eh.metadataService.GetMetadata(ctx, req.URL)

	recipe, err := eh.extractionService.Extract(ctx, transcript.Text, transcript.Source)
	if err != nil {
		RespondError(c, err)
		return
	}

	if warnings == nil {
		warnings = []string{}
	}
	RespondOK(c, gin.H{
		"recipe":            recipe,
		"video_metadata":    metadata,
		"transcript":        transcript.Text,
		"transcript_source": string(transcript.Source),
		"warnings":          warnings,
	})
}

// Ask answers a question about a not-yet-saved extraction. The client sends
// back the recipe and transcript it got from Extract.
func (eh *ExtractHandler) Ask(c *gin.Context) {
	var req struct {
		Recipe     *types.RecipeLLMOutput `json:"recipe"`
		Transcript string                 `json:"transcript"`
		Question   string                 `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}
	answer, err := eh.askAIService.Ask(c.Request.Context(), req.Recipe, req.Transcript, req.Question)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"answer": answer})
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/types"
)

const extractionSystemPrompt = `You are a meticulous recipe extraction assistant.
Given a transcript of a cooking video, you MUST return ONLY JSON following EXACTLY this schema:

{
  "title": string,
  "servings": number|null,
  "ingredients": [
    {
      "name": string,
      "amount": number|null,
      "unit": string|null,
      "prep": string|null,
      "source": "explicit" | "inferred",
      "evidence": { "start_sec": number, "end_sec": number, "quote": string },
      "suggested_amount": number|null,
      "suggested_unit": string|null
    }
  ],
  "steps": [
    {
      "step_number": number,
      "text": string,
      "start_sec": number,
      "end_sec": number,
      "evidence_quote": string
    }
  ],
  "missing_info": [string],
  "notes": [string]
}

Rules:
- NEVER hallucinate precise quantities or units. If the creator does NOT explicitly say an amount or unit, set amount=null and unit=null and set source="inferred".
- If the creator explicitly says an amount (e.g., "2 cups of flour"), set source="explicit".
- When amount is null you may fill suggested_amount/suggested_unit with a typical value, clearly separate from what was said.
- evidence_quote must be a short excerpt (<= 20 words) from the transcript.
- steps must be concise imperative sentences ("Chop the onions", "Preheat the oven to 180C").
- step_number starts at 1 and increases by exactly 1.
- Timestamps are seconds from the start of the video.
- If any important information is missing or unclear, add a short description to missing_info.

Return ONLY the JSON object, no explanation.`

const metadataOnlyNote = `NOTE: No transcript was available for this video. You are given only the video title and description. Build a plausible recipe, mark every ingredient source="inferred", use 0 for timestamps, and record in missing_info that the recipe is speculative because no transcript was available.`

// MetadataOnlyWarning is surfaced to the caller whenever extraction ran
// without a real transcript.
const MetadataOnlyWarning = "No captions were available for this video; the recipe was generated from the title and description only and may be inaccurate."

type ExtractionService interface {
	// Extract turns transcript text (or a metadata pseudo-transcript) into a
	// validated recipe. A schema violation in the model output is terminal;
	// there is no silent repair and no re-ask.
	Extract(ctx context.Context, transcript string, source types.TranscriptSource) (*types.RecipeLLMOutput, error)
}

type extractionService struct {
	log    *logger.Logger
	gemini GeminiClient
}

func NewExtractionService(log *logger.Logger, gemini GeminiClient) ExtractionService {
	return &extractionService{
		log:    log.With("service", "ExtractionService"),
		gemini: gemini,
	}
}

func (es *extractionService) Extract(ctx context.Context, transcript string, source types.TranscriptSource) (*types.RecipeLLMOutput, error) {
	ctx = defaultCtx(ctx)
	if strings.TrimSpace(transcript) == "" {
		return nil, apierr.Validation("transcript text is empty")
	}

	prompt := buildExtractionPrompt(transcript, source)

	raw, err := es.gemini.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(fmt.Errorf("recipe extraction call failed: %w", err))
	}

	var out types.RecipeLLMOutput
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&out); err != nil {
		es.log.Warn("Model returned unparseable JSON", "error", err)
		return nil, apierr.LLMResponseInvalid(fmt.Errorf("model output is not valid JSON: %w", err))
	}

	if err := ValidateRecipeOutput(&out); err != nil {
		es.log.Warn("Model output failed schema validation", "error", err)
		return nil, apierr.LLMResponseInvalid(err)
	}

	// Coerce absent optional lists so the API never serializes null arrays.
	if out.MissingInfo == nil {
		out.MissingInfo = []string{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}

	es.log.Info("Extraction succeeded",
		"ingredients", len(out.Ingredients),
		"steps", len(out.Steps),
		"transcript_source", string(source))
	return &out, nil
}

func buildExtractionPrompt(transcript string, source types.TranscriptSource) string {
	var b strings.Builder
	b.WriteString("SYSTEM INSTRUCTIONS:\n")
	b.WriteString(extractionSystemPrompt)
	b.WriteString("\n\nUSER REQUEST:\n")
	b.WriteString("You are given a raw transcript of a cooking video.\n")
	b.WriteString("Build a structured recipe strictly following the JSON schema.\n")
	if source == types.TranscriptSourceMetadata {
		b.WriteString("\n")
		b.WriteString(metadataOnlyNote)
		b.WriteString("\n")
	}
	b.WriteString("\nTRANSCRIPT:\n")
	b.WriteString(transcript)
	return b.String()
}

// ValidateRecipeOutput enforces the fixed schema: required fields present,
// provenance tags legal, step ordinals contiguous from 1, and every time
// span ordered.
func ValidateRecipeOutput(out *types.RecipeLLMOutput) error {
	if out == nil {
		return fmt.Errorf("recipe output is nil")
	}
	if strings.TrimSpace(out.Title) == "" {
		return fmt.Errorf("missing required field: title")
	}
	if out.Ingredients == nil {
		return fmt.Errorf("missing required field: ingredients")
	}
	if out.Steps == nil {
		return fmt.Errorf("missing required field: steps")
	}
	for i, ing := range out.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredient %d: missing name", i)
		}
		if ing.Source != types.IngredientSourceExplicit && ing.Source != types.IngredientSourceInferred {
			return fmt.Errorf("ingredient %d (%s): invalid source %q", i, ing.Name, ing.Source)
		}
		if ing.Evidence.StartSec > ing.Evidence.EndSec {
			return fmt.Errorf("ingredient %d (%s): evidence span start %.1f after end %.1f", i, ing.Name, ing.Evidence.StartSec, ing.Evidence.EndSec)
		}
		if ing.Evidence.StartSec < 0 {
			return fmt.Errorf("ingredient %d (%s): negative evidence start", i, ing.Name)
		}
	}
	for i, step := range out.Steps {
		if step.StepNumber != i+1 {
			return fmt.Errorf("step %d: ordinal %d breaks the contiguous 1-based sequence", i, step.StepNumber)
		}
		if strings.TrimSpace(step.Text) == "" {
			return fmt.Errorf("step %d: missing text", step.StepNumber)
		}
		if step.StartSec > step.EndSec {
			return fmt.Errorf("step %d: start %.1f after end %.1f", step.StepNumber, step.StartSec, step.EndSec)
		}
		if step.StartSec < 0 {
			return fmt.Errorf("step %d: negative start", step.StepNumber)
		}
	}
	return nil
}

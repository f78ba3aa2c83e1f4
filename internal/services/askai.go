package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/types"
)

// Transcripts beyond this are truncated before prompting; the head is
// usually enough context to answer a question and keeps latency down.
const askTranscriptMaxChars = 4000

const askSystemPrompt = `You are a cooking assistant. Answer the user's question using ONLY the provided Recipe data and Transcript as sources.

Rules:
1) If the answer is explicitly supported by Recipe or Transcript, say so and cite where:
   - Use citations like: [Recipe: Ingredients], [Recipe: Step 3], [Transcript].
2) If the answer is NOT supported, say "Not specified in the recipe/transcript" and give a best-practice suggestion.
   - Do NOT claim the recipe/transcript says something it doesn't.
3) Be practical and concise. Prefer concrete numbers when giving suggestions (temps, times, ratios), and include safe ranges when uncertain.
4) If the user asks for substitutions, dietary changes, scaling, or troubleshooting, give 2-4 options with tradeoffs.
5) Output format:
   - Source: Recipe | Transcript | Suggestion
   - Answer: (2-6 sentences or bullets)`

type AskAIService interface {
	// Ask answers one question against the recipe and optional transcript.
	// There is no conversation memory; every call re-sends full context.
	Ask(ctx context.Context, recipe *types.RecipeLLMOutput, transcript, question string) (string, error)
}

type askAIService struct {
	log    *logger.Logger
	gemini GeminiClient
}

func NewAskAIService(log *logger.Logger, gemini GeminiClient) AskAIService {
	return &askAIService{
		log:    log.With("service", "AskAIService"),
		gemini: gemini,
	}
}

func (as *askAIService) Ask(ctx context.Context, recipe *types.RecipeLLMOutput, transcript, question string) (string, error) {
	ctx = defaultCtx(ctx)
	if recipe == nil {
		return "", apierr.Validation("recipe context is required")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apierr.Validation("question is required")
	}

	if len(transcript) > askTranscriptMaxChars {
		as.log.Debug("Truncating transcript for question context", "from", len(transcript), "to", askTranscriptMaxChars)
		transcript = transcript[:askTranscriptMaxChars] + "\n[... transcript truncated ...]"
	}

	prompt := buildAskPrompt(recipe, transcript, question)
	answer, err := as.gemini.GenerateText(ctx, prompt, 500)
	if err != nil {
		return "", apierr.UpstreamUnavailable(fmt.Errorf("failed to answer question: %w", err))
	}
	if answer == "" {
		return "I couldn't generate an answer. Please try rephrasing your question.", nil
	}
	return answer, nil
}

func buildAskPrompt(recipe *types.RecipeLLMOutput, transcript, question string) string {
	var b strings.Builder
	b.WriteString(askSystemPrompt)
	b.WriteString("\n\nContext:\n[Recipe]\n")
	fmt.Fprintf(&b, "Title: %s\n", recipe.Title)
	if recipe.Servings != nil {
		fmt.Fprintf(&b, "Servings: %d\n", *recipe.Servings)
	} else {
		b.WriteString("Servings: Not specified\n")
	}

	b.WriteString("\nIngredients:\n")
	for _, ing := range recipe.Ingredients {
		b.WriteString(formatIngredientLine(ing))
		b.WriteString("\n")
	}

	b.WriteString("\nSteps:\n")
	for _, step := range recipe.Steps {
		fmt.Fprintf(&b, "%d. %s\n", step.StepNumber, step.Text)
	}

	if strings.TrimSpace(transcript) != "" {
		b.WriteString("\n[Transcript]\n")
		b.WriteString(transcript)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

func formatIngredientLine(ing types.Ingredient) string {
	var line string
	switch {
	case ing.Amount != nil && ing.Unit != nil:
		line = fmt.Sprintf("- %s: %g %s", ing.Name, *ing.Amount, *ing.Unit)
	case ing.SuggestedAmount != nil && ing.SuggestedUnit != nil:
		line = fmt.Sprintf("- %s: ~%g %s (AI-suggested)", ing.Name, *ing.SuggestedAmount, *ing.SuggestedUnit)
	default:
		line = fmt.Sprintf("- %s: (amount not specified)", ing.Name)
	}
	if ing.Prep != nil && *ing.Prep != "" {
		line += ", " + *ing.Prep
	}
	return line
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/pkg/pointers"
	"github.com/cookclip/cookclip-backend/internal/types"
)

func TestAsk_BuildsPromptWithFullContext(t *testing.T) {
	gemini := &fakeGemini{textResponse: "Source: Recipe\nAnswer: Six eggs."}
	svc := NewAskAIService(testLogger(t), gemini)

	answer, err := svc.Ask(context.Background(), sampleOutput(), "crack in six eggs", "How many eggs?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer == "" {
		t.Fatal("empty answer")
	}

	prompt := gemini.lastPrompt
	for _, want := range []string{
		"Title: Shakshuka",
		"Servings: 4",
		"- eggs: 6 whole",
		"- paprika: ~1 tsp (AI-suggested)",
		"1. Soften the onions.",
		"2. Crack in the eggs.",
		"[Transcript]",
		"crack in six eggs",
		"Question: How many eggs?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAsk_TruncatesLongTranscript(t *testing.T) {
	gemini := &fakeGemini{textResponse: "Answer"}
	svc := NewAskAIService(testLogger(t), gemini)

	long := strings.Repeat("a", askTranscriptMaxChars+500)
	if _, err := svc.Ask(context.Background(), sampleOutput(), long, "What now?"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(gemini.lastPrompt, "[... transcript truncated ...]") {
		t.Fatal("transcript was not truncated")
	}
	if strings.Contains(gemini.lastPrompt, strings.Repeat("a", askTranscriptMaxChars+1)) {
		t.Fatal("full transcript leaked into prompt")
	}
}

func TestAsk_EmptyAnswerGetsFallback(t *testing.T) {
	gemini := &fakeGemini{textResponse: ""}
	svc := NewAskAIService(testLogger(t), gemini)

	answer, err := svc.Ask(context.Background(), sampleOutput(), "", "Why?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(answer, "rephrasing") {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
}

func TestAsk_Validation(t *testing.T) {
	svc := NewAskAIService(testLogger(t), &fakeGemini{})

	if _, err := svc.Ask(context.Background(), nil, "", "Why?"); !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected VALIDATION for nil recipe, got %v", err)
	}
	if _, err := svc.Ask(context.Background(), sampleOutput(), "", "   "); !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected VALIDATION for empty question, got %v", err)
	}
}

func TestFormatIngredientLine(t *testing.T) {
	cases := []struct {
		name string
		ing  types.Ingredient
		want string
	}{
		{
			name: "explicit amount",
			ing:  types.Ingredient{Name: "flour", Amount: pointers.Ptr(250.0), Unit: pointers.Ptr("g")},
			want: "- flour: 250 g",
		},
		{
			name: "suggested amount",
			ing:  types.Ingredient{Name: "salt", SuggestedAmount: pointers.Ptr(0.5), SuggestedUnit: pointers.Ptr("tsp")},
			want: "- salt: ~0.5 tsp (AI-suggested)",
		},
		{
			name: "no amount",
			ing:  types.Ingredient{Name: "pepper"},
			want: "- pepper: (amount not specified)",
		},
		{
			name: "with prep",
			ing:  types.Ingredient{Name: "garlic", Amount: pointers.Ptr(3.0), Unit: pointers.Ptr("cloves"), Prep: pointers.Ptr("minced")},
			want: "- garlic: 3 cloves, minced",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatIngredientLine(tc.ing); got != tc.want {
				t.Fatalf("formatIngredientLine = %q, want %q", got, tc.want)
			}
		})
	}
}

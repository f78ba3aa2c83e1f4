package types

// Shapes the extraction model must return. Field names match the JSON schema
// embedded in the extraction prompt; validation lives in the extraction
// service.

type TranscriptSource string

const (
	TranscriptSourceCaptions TranscriptSource = "captions"
	TranscriptSourceMetadata TranscriptSource = "metadata"
	TranscriptSourceAudio    TranscriptSource = "audio"
)

const (
	IngredientSourceExplicit = "explicit"
	IngredientSourceInferred = "inferred"
)

type Evidence struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Quote    string  `json:"quote"`
}

type Ingredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
	Prep   *string  `json:"prep"`
	// "explicit" when the creator stated the amount, "inferred" otherwise.
	Source   string   `json:"source"`
	Evidence Evidence `json:"evidence"`
	// Model-suggested values, only meaningful when amount/unit are null.
	SuggestedAmount *float64 `json:"suggested_amount,omitempty"`
	SuggestedUnit   *string  `json:"suggested_unit,omitempty"`
}

type Step struct {
	StepNumber    int     `json:"step_number"`
	Text          string  `json:"text"`
	StartSec      float64 `json:"start_sec"`
	EndSec        float64 `json:"end_sec"`
	EvidenceQuote string  `json:"evidence_quote"`
	SuggestedText *string `json:"suggested_text,omitempty"`
}

type RecipeLLMOutput struct {
	Title       string       `json:"title"`
	Servings    *int         `json:"servings"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	MissingInfo []string     `json:"missing_info"`
	Notes       []string     `json:"notes"`
}

// VideoMetadata is what the extract endpoint reports about the source video.
type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Author       string `json:"author"`
	UploadDate   string `json:"upload_date,omitempty"`
	DurationSec  int    `json:"duration,omitempty"`
	Description  string `json:"description,omitempty"`
}

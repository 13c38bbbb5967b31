package hf

import (
	"encoding/json"
	"fmt"
)

type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ShapeError means the collaborator answered 200 but the body matched none
// of the known generation response shapes. Distinct from APIError so
// callers can degrade differently for a malformed success than for a
// transport or server failure.
type ShapeError struct {
	Body string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unrecognized generation response shape: %.120s", e.Body)
}

// GenerationParams are the knobs forwarded to a text-generation model.
type GenerationParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters GenerationParams `json:"parameters"`
}

type extractionRequest struct {
	Inputs string `json:"inputs"`
}

type generatedObject struct {
	GeneratedText string `json:"generated_text"`
	SummaryText   string `json:"summary_text"`
	Text          string `json:"text"`
}

func (o generatedObject) value() (string, bool) {
	switch {
	case o.GeneratedText != "":
		return o.GeneratedText, true
	case o.SummaryText != "":
		return o.SummaryText, true
	case o.Text != "":
		return o.Text, true
	default:
		return "", false
	}
}

// DecodeGenerated normalizes the three response shapes inference endpoints
// are known to return for generation-style tasks: a bare JSON string, an
// object carrying a generation-text field, or an array of such objects.
// The first usable field wins. Both the summarizer and the answer composer
// decode through here so shape sniffing lives in exactly one place.
func DecodeGenerated(data []byte) (string, error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return asString, nil
	}

	var asObject generatedObject
	if err := json.Unmarshal(data, &asObject); err == nil {
		if text, ok := asObject.value(); ok {
			return text, nil
		}
	}

	var asList []generatedObject
	if err := json.Unmarshal(data, &asList); err == nil {
		for _, item := range asList {
			if text, ok := item.value(); ok {
				return text, nil
			}
		}
	}

	// Arrays of bare strings show up from some endpoints too.
	var asStringList []string
	if err := json.Unmarshal(data, &asStringList); err == nil && len(asStringList) > 0 {
		return asStringList[0], nil
	}

	return "", &ShapeError{Body: string(data)}
}

type asrChunk struct {
	Timestamp []float64 `json:"timestamp"`
	Text      string    `json:"text"`
}

type asrResponse struct {
	Text   string     `json:"text"`
	Chunks []asrChunk `json:"chunks"`
}

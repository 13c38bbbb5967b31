package hf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
)

// Client talks to the HuggingFace Inference API. Every outbound call runs
// under the configured retry schedule; callers decide what to degrade to
// when the schedule is exhausted.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *utils.Logger
	cfg        *config.HuggingFaceConfig
	retry      utils.RetryConfig
}

func NewClient(cfg *config.Config, logger *utils.Logger) (*Client, error) {
	if cfg.HuggingFace.Token == "" {
		return nil, fmt.Errorf("HF_API_TOKEN is required")
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.HuggingFace.URL, "/"),
		token:   cfg.HuggingFace.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		logger: logger,
		cfg:    &cfg.HuggingFace,
		retry: utils.RetryConfig{
			MaxRetries: cfg.HuggingFace.MaxRetries,
			Schedule:   cfg.HuggingFace.RetryBackoff,
		},
	}, nil
}

// FeatureExtraction embeds text with the configured embedding model. The
// response may be nested ([[...]] for single-input batches); it is
// flattened to a 1-D vector.
func (c *Client) FeatureExtraction(reqID *string, text string) ([]float64, error) {
	body, err := json.Marshal(extractionRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	respBody, err := c.post(reqID, c.cfg.EmbeddingModel, "application/json", body)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	vector := flatten(raw, nil)
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding response contained no numbers")
	}

	c.logger.Debug(reqID, "Embedded %d chars into %d dimensions", len(text), len(vector))

	return vector, nil
}

// Generate runs a prompt through the given generation model and decodes
// whichever response shape comes back.
func (c *Client) Generate(reqID *string, model, prompt string, params GenerationParams) (string, error) {
	body, err := json.Marshal(generationRequest{Inputs: prompt, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	c.logger.Debug(reqID, "Sending generation request to %s (%d chars)", model, len(prompt))

	respBody, err := c.post(reqID, model, "application/json", body)
	if err != nil {
		return "", err
	}

	text, err := DecodeGenerated(respBody)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// TextGeneration uses the configured QA model with default parameters.
func (c *Client) TextGeneration(reqID *string, prompt string) (string, error) {
	return c.Generate(reqID, c.cfg.GenerationModel, prompt, GenerationParams{
		MaxNewTokens: c.cfg.MaxNewTokens,
		Temperature:  c.cfg.Temperature,
		DoSample:     c.cfg.DoSample,
	})
}

// Translation asks the generation model for an English rendering of text.
// The token budget scales with the input so long passages are not cut off
// mid-sentence.
func (c *Client) Translation(reqID *string, text string) (string, error) {
	prompt := "Translate the following text to English: " + text

	return c.Generate(reqID, c.cfg.GenerationModel, prompt, GenerationParams{
		MaxNewTokens: len(text) + 100,
		Temperature:  0.1,
		DoSample:     true,
	})
}

// Summarize uses the configured summarization model.
func (c *Client) Summarize(reqID *string, prompt string) (string, error) {
	return c.Generate(reqID, c.cfg.SummaryModel, prompt, GenerationParams{
		MaxNewTokens: 500,
		Temperature:  0.3,
		DoSample:     c.cfg.DoSample,
	})
}

// AutomaticSpeechRecognition transcribes raw audio bytes with the
// configured Whisper model. When the response carries timestamped chunks
// they become individual segments; otherwise the whole text is one
// segment starting at zero.
func (c *Client) AutomaticSpeechRecognition(reqID *string, audio []byte) ([]transcript.Segment, error) {
	respBody, err := c.post(reqID, c.cfg.WhisperModel, "audio/wav", audio)
	if err != nil {
		return nil, err
	}

	var resp asrResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	if len(resp.Chunks) == 0 {
		if strings.TrimSpace(resp.Text) == "" {
			return nil, fmt.Errorf("transcription returned no text")
		}
		return []transcript.Segment{{Text: resp.Text, Start: 0, Duration: 0}}, nil
	}

	segments := make([]transcript.Segment, 0, len(resp.Chunks))
	for _, chunk := range resp.Chunks {
		segment := transcript.Segment{Text: chunk.Text}
		if len(chunk.Timestamp) == 2 {
			segment.Start = chunk.Timestamp[0]
			segment.Duration = chunk.Timestamp[1] - chunk.Timestamp[0]
		}
		segments = append(segments, segment)
	}

	return segments, nil
}

func (c *Client) post(reqID *string, model, contentType string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)

	var respBody []byte
	err := utils.Retry(c.retry, c.logger, reqID, "hf "+model, func() error {
		req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		c.setAuthHeaders(req)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp)
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return respBody, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
}

func (c *Client) handleAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(body),
	}
}

// flatten collapses arbitrarily nested JSON arrays of numbers into one
// vector, in order.
func flatten(value any, out []float64) []float64 {
	switch v := value.(type) {
	case float64:
		return append(out, v)
	case []any:
		for _, item := range v {
			out = flatten(item, out)
		}
		return out
	default:
		return out
	}
}

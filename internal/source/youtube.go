package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[?&]|$)`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`embed/([0-9A-Za-z_-]{11})`),
}

var bareVideoIDRe = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ExtractVideoID pulls the 11-character video ID out of a URL or
// accepts a bare ID as-is.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty video URL")
	}
	if bareVideoIDRe.MatchString(input) {
		return input, nil
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract a video ID from %q", input)
}

// TimedTextClient fetches caption tracks from YouTube's timedtext
// endpoint in the json3 format.
type TimedTextClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *utils.Logger
}

func NewTimedTextClient(cfg *config.Config, logger *utils.Logger) *TimedTextClient {
	return &TimedTextClient{
		baseURL: "https://www.youtube.com/api/timedtext",
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// timedtext json3 payload: a flat list of events, each with a start
// offset, a duration and utf8 text runs.
type timedTextResponse struct {
	Events []timedTextEvent `json:"events"`
}

type timedTextEvent struct {
	TStartMs    int64          `json:"tStartMs"`
	DDurationMs int64          `json:"dDurationMs"`
	Segs        []timedTextSeg `json:"segs"`
}

type timedTextSeg struct {
	Utf8 string `json:"utf8"`
}

// Fetch tries each preferred language in order and returns the first
// caption track that yields segments.
func (c *TimedTextClient) Fetch(reqID *string, videoID string, languages []string) ([]transcript.Segment, VideoInfo, error) {
	info := VideoInfo{
		VideoID: videoID,
		Title:   fmt.Sprintf("Video %s", videoID),
		URL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
	}

	if len(languages) == 0 {
		languages = []string{"en"}
	}

	var lastErr error
	for _, lang := range languages {
		segments, err := c.fetchLanguage(reqID, videoID, lang)
		if err != nil {
			lastErr = err
			c.logger.Debug(reqID, "timedtext fetch for %s lang %s failed: %v", videoID, lang, err)
			continue
		}
		if len(segments) == 0 {
			lastErr = fmt.Errorf("empty caption track for language %s", lang)
			continue
		}
		info.Language = lang
		c.logger.Info(reqID, "fetched %d caption segments for %s (lang %s)", len(segments), videoID, lang)
		return segments, info, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no caption track found")
	}
	return nil, info, &AcquisitionError{Cause: classifyCaptionError(lastErr), VideoID: videoID, Err: lastErr}
}

func (c *TimedTextClient) fetchLanguage(reqID *string, videoID, lang string) ([]transcript.Segment, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building timedtext request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading timedtext response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("no captions: %w", errNotFound)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("timedtext rate limited: %w", errRateLimited)
	case http.StatusForbidden:
		return nil, fmt.Errorf("timedtext access denied: %w", errAccessDenied)
	default:
		return nil, fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	if len(body) == 0 {
		return nil, nil
	}
	return DecodeTimedText(body)
}

// DecodeTimedText converts a json3 caption payload into segments.
// Events without text runs (styling markers) are skipped.
func DecodeTimedText(body []byte) ([]transcript.Segment, error) {
	var payload timedTextResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding timedtext payload: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.Utf8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, transcript.Segment{
			Text:     text,
			Start:    float64(ev.TStartMs) / 1000.0,
			Duration: float64(ev.DDurationMs) / 1000.0,
		})
	}
	return segments, nil
}

var (
	errNotFound     = fmt.Errorf("not found")
	errRateLimited  = fmt.Errorf("rate limited")
	errAccessDenied = fmt.Errorf("access denied")
)

func classifyCaptionError(err error) AcquisitionCause {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limited"):
		return CauseRateLimited
	case strings.Contains(msg, "access denied"):
		return CauseAccessDenied
	case strings.Contains(msg, "sign in"):
		return CauseSignInRequired
	case strings.Contains(msg, "private"):
		return CausePrivate
	case strings.Contains(msg, "age"):
		return CauseAgeRestricted
	case strings.Contains(msg, "unavailable"):
		return CauseUnavailable
	case strings.Contains(msg, "disabled"):
		return CauseDisabled
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no caption"), strings.Contains(msg, "empty caption"):
		return CauseNotFound
	default:
		return CauseUnknown
	}
}

package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
)

// Recognizer turns raw audio into timed transcript segments.
type Recognizer interface {
	AutomaticSpeechRecognition(reqID *string, audio []byte) ([]transcript.Segment, error)
}

// AudioTranscriber resolves a video's audio through a sidecar service
// and runs speech recognition over it. It only engages when caption
// acquisition failed and a resolver URL is configured.
type AudioTranscriber struct {
	resolverURL string
	httpClient  *http.Client
	recognizer  Recognizer
	logger      *utils.Logger
}

func NewAudioTranscriber(cfg *config.Config, recognizer Recognizer, logger *utils.Logger) *AudioTranscriber {
	return &AudioTranscriber{
		resolverURL: cfg.Source.AudioResolverURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		recognizer: recognizer,
		logger:     logger,
	}
}

// Enabled reports whether a resolver endpoint has been configured.
func (t *AudioTranscriber) Enabled() bool {
	return t.resolverURL != ""
}

type resolverMeta struct {
	DurationSeconds int    `json:"duration_seconds"`
	Error           string `json:"error"`
}

// Transcribe downloads the video's audio from the resolver and feeds
// it to the recognizer. Videos longer than maxDuration seconds are
// rejected before any audio is downloaded.
func (t *AudioTranscriber) Transcribe(reqID *string, videoID string, maxDuration int) ([]transcript.Segment, error) {
	if !t.Enabled() {
		return nil, &AcquisitionError{Cause: CauseUnknown, VideoID: videoID, Err: fmt.Errorf("audio resolver not configured")}
	}

	duration, err := t.probeDuration(reqID, videoID)
	if err != nil {
		return nil, err
	}
	if maxDuration > 0 && duration > maxDuration {
		return nil, &AcquisitionError{
			Cause:   CauseTooLong,
			VideoID: videoID,
			Err:     fmt.Errorf("video is %ds, limit is %ds", duration, maxDuration),
		}
	}

	audio, err := t.fetchAudio(reqID, videoID)
	if err != nil {
		return nil, err
	}
	t.logger.Info(reqID, "resolved %d bytes of audio for %s, running speech recognition", len(audio), videoID)

	segments, err := t.recognizer.AutomaticSpeechRecognition(reqID, audio)
	if err != nil {
		return nil, &AcquisitionError{Cause: CauseUnknown, VideoID: videoID, Err: fmt.Errorf("speech recognition failed: %w", err)}
	}
	return segments, nil
}

func (t *AudioTranscriber) probeDuration(reqID *string, videoID string) (int, error) {
	endpoint := fmt.Sprintf("%s/probe?%s", t.resolverURL, url.Values{"v": {videoID}}.Encode())
	resp, err := t.httpClient.Get(endpoint)
	if err != nil {
		return 0, &AcquisitionError{Cause: CauseUnavailable, VideoID: videoID, Err: fmt.Errorf("probing audio resolver: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, t.resolverError(resp, videoID)
	}

	var meta resolverMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return 0, &AcquisitionError{Cause: CauseUnknown, VideoID: videoID, Err: fmt.Errorf("decoding probe response: %w", err)}
	}
	return meta.DurationSeconds, nil
}

func (t *AudioTranscriber) fetchAudio(reqID *string, videoID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/audio?%s", t.resolverURL, url.Values{"v": {videoID}}.Encode())
	resp, err := t.httpClient.Get(endpoint)
	if err != nil {
		return nil, &AcquisitionError{Cause: CauseUnavailable, VideoID: videoID, Err: fmt.Errorf("fetching audio: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, t.resolverError(resp, videoID)
	}
	return io.ReadAll(resp.Body)
}

func (t *AudioTranscriber) resolverError(resp *http.Response, videoID string) error {
	var meta resolverMeta
	_ = json.NewDecoder(resp.Body).Decode(&meta)
	err := fmt.Errorf("resolver returned status %d: %s", resp.StatusCode, meta.Error)

	cause := CauseUnavailable
	switch resp.StatusCode {
	case http.StatusNotFound:
		cause = CauseNotFound
	case http.StatusTooManyRequests:
		cause = CauseRateLimited
	case http.StatusForbidden:
		cause = CauseAccessDenied
	case http.StatusUnauthorized:
		cause = CauseSignInRequired
	}
	if meta.Error != "" {
		cause = classifyCaptionError(fmt.Errorf("%s", meta.Error))
		if cause == CauseUnknown {
			cause = CauseUnavailable
		}
	}
	return &AcquisitionError{Cause: cause, VideoID: videoID, Err: err}
}

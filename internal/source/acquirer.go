package source

import (
	"fmt"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
)

// Acquisition method labels recorded on the pipeline result.
const (
	MethodCaptions = "captions"
	MethodAudio    = "audio_transcription"
	MethodDemo     = "demo_content"
)

// Acquirer runs the transcript acquisition chain: caption tracks
// first, then audio transcription when enabled, then built-in demo
// content as the last resort.
type Acquirer struct {
	fetcher     Fetcher
	transcriber *AudioTranscriber
	cfg         *config.SourceConfig
	logger      *utils.Logger
}

func NewAcquirer(fetcher Fetcher, transcriber *AudioTranscriber, cfg *config.Config, logger *utils.Logger) *Acquirer {
	return &Acquirer{
		fetcher:     fetcher,
		transcriber: transcriber,
		cfg:         &cfg.Source,
		logger:      logger,
	}
}

// Acquisition is the outcome of the chain: the segments, where they
// came from, and the friendly note explaining a degraded result.
type Acquisition struct {
	Segments []transcript.Segment
	Info     VideoInfo
	Method   string
	Notice   string
}

// Acquire resolves the input to a video ID and walks the fallback
// chain. It only returns an error when the input itself is unusable;
// every acquisition failure degrades to demo content instead.
func (a *Acquirer) Acquire(reqID *string, input string) (Acquisition, error) {
	if IsDemoURL(input) {
		segments, info := DemoContent()
		return Acquisition{Segments: segments, Info: info, Method: MethodDemo}, nil
	}

	videoID, err := ExtractVideoID(input)
	if err != nil {
		return Acquisition{}, fmt.Errorf("invalid video URL: %w", err)
	}

	segments, info, err := a.fetcher.Fetch(reqID, videoID, a.cfg.PreferredLanguages)
	if err == nil {
		return Acquisition{Segments: segments, Info: info, Method: MethodCaptions}, nil
	}
	captionErr := err
	a.logger.Info(reqID, "caption acquisition for %s failed: %v", videoID, err)

	if a.transcriber != nil && a.transcriber.Enabled() {
		audioSegments, audioErr := a.transcriber.Transcribe(reqID, videoID, a.cfg.MaxVideoDuration)
		if audioErr == nil {
			info.VideoID = videoID
			return Acquisition{Segments: audioSegments, Info: info, Method: MethodAudio}, nil
		}
		a.logger.Info(reqID, "audio transcription for %s failed: %v", videoID, audioErr)
		captionErr = audioErr
	}

	notice := "The video's transcript could not be obtained."
	if acqErr, ok := AsAcquisition(captionErr); ok {
		notice = acqErr.FriendlyMessage()
	}
	a.logger.Info(reqID, "falling back to demo content for %s", videoID)

	segments, demoInfo := DemoContent()
	return Acquisition{
		Segments: segments,
		Info:     demoInfo,
		Method:   MethodDemo,
		Notice:   notice + " Showing demo content instead.",
	}, nil
}

package source

import (
	"errors"
	"fmt"

	"github.com/wgomg/kukulkan/internal/transcript"
)

type VideoInfo struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration string `json:"duration"`
	URL      string `json:"url"`
	Language string `json:"language"`
}

// Fetcher acquires a video's transcript segments from a caption source.
type Fetcher interface {
	Fetch(reqID *string, videoID string, languages []string) ([]transcript.Segment, VideoInfo, error)
}

// Transcriber derives segments from the video's audio when no caption
// track is available.
type Transcriber interface {
	Transcribe(reqID *string, videoID string, maxDuration int) ([]transcript.Segment, error)
}

type AcquisitionCause int

const (
	CauseUnknown AcquisitionCause = iota
	CauseNotFound
	CauseDisabled
	CauseUnavailable
	CauseRateLimited
	CauseSignInRequired
	CausePrivate
	CauseAgeRestricted
	CauseTooLong
	CauseAccessDenied
)

// AcquisitionError reports that neither captions nor audio yielded a
// transcript. Each cause maps to a distinct user-facing message.
type AcquisitionError struct {
	Cause   AcquisitionCause
	VideoID string
	Err     error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s: %s (%v)", e.VideoID, e.FriendlyMessage(), e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

func (e *AcquisitionError) FriendlyMessage() string {
	switch e.Cause {
	case CauseNotFound:
		return "No transcript could be found for this video."
	case CauseDisabled:
		return "Transcripts are disabled for this video."
	case CauseUnavailable:
		return "This video is unavailable."
	case CauseRateLimited:
		return "Too many requests right now, please try again in a few minutes."
	case CauseSignInRequired:
		return "This video requires sign-in or has bot protection, please try a different video."
	case CausePrivate:
		return "This video is private, please try a different video."
	case CauseAgeRestricted:
		return "This video is age-restricted, please try a different video."
	case CauseTooLong:
		return "This video is too long for audio transcription."
	case CauseAccessDenied:
		return "Access to this video's audio was denied."
	default:
		return "The video's transcript could not be obtained."
	}
}

// AsAcquisition unwraps err into an AcquisitionError when it carries one.
func AsAcquisition(err error) (*AcquisitionError, bool) {
	var acqErr *AcquisitionError
	if errors.As(err, &acqErr) {
		return acqErr, true
	}
	return nil, false
}

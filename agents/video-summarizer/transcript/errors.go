package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies why a transcript could not be fetched.
type Kind int

const (
	KindGeneric Kind = iota
	// KindBlocked means YouTube refused the request (rate limit or bot check),
	// typical for cloud provider IP ranges.
	KindBlocked
	// KindNoTranscript means the video has no usable caption track.
	KindNoTranscript
)

func (k Kind) String() string {
	switch k {
	case KindBlocked:
		return "blocked"
	case KindNoTranscript:
		return "no_transcript"
	default:
		return "generic"
	}
}

// Message is the user-facing explanation for this kind of failure.
func (k Kind) Message() string {
	switch k {
	case KindBlocked:
		return "YouTube is blocking transcript requests from this server. Please try again later."
	case KindNoTranscript:
		return "No transcript is available for this video. Captions may be disabled."
	default:
		return "Could not retrieve video transcript. The video may not have one, or it might be private."
	}
}

// Error is returned by Client.Fetch and by providers.
type Error struct {
	Kind    Kind
	VideoID string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcript %s (%s): %v", e.VideoID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of err, defaulting to KindGeneric.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindGeneric
}

func newError(kind Kind, videoID string, err error) *Error {
	return &Error{Kind: kind, VideoID: videoID, Err: err}
}

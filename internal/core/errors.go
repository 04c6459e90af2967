package core

import (
	"errors"
	"fmt"
)

// Pipeline failure classes. Each maps to a distinct user-facing reply
// and rejection metric label.
var (
	// ErrUserInputRejected means the message was classified as something
	// the pipeline refuses to process (non-music link, album, playlist).
	ErrUserInputRejected = errors.New("input rejected")
	// ErrLinkMetadataUnreadable means a streaming link was recognized but
	// no usable title could be extracted from its page.
	ErrLinkMetadataUnreadable = errors.New("link metadata unreadable")
	// ErrNoMatchFound means every source tier was exhausted without a match.
	ErrNoMatchFound = errors.New("no match found")
	// ErrDownloadFailed means a source was located but the audio download failed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrMergeFailed means audio and cover could not be merged into a video.
	ErrMergeFailed = errors.New("merge failed")
)

// RejectInput wraps a rejection reason so errors.Is(err, ErrUserInputRejected)
// holds while the message key for the reply is preserved.
func RejectInput(reason string, args ...any) error {
	return &RejectionError{Reason: reason, Args: args}
}

// RejectionError carries the i18n message key explaining why an input
// was turned away, plus any formatting arguments for the reply.
type RejectionError struct {
	Reason string
	Args   []any
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("input rejected: %s", e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrUserInputRejected
}

// FailureReason returns the metric label for a pipeline error.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUserInputRejected):
		return "input_rejected"
	case errors.Is(err, ErrLinkMetadataUnreadable):
		return "link_unreadable"
	case errors.Is(err, ErrNoMatchFound):
		return "no_match"
	case errors.Is(err, ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, ErrMergeFailed):
		return "merge_failed"
	default:
		return "internal"
	}
}

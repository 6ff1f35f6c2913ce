package transcript

import (
	"errors"
	"strings"
)

// Errors surfaced by the transcript engine and its collaborators.
var (
	// Directory errors
	ErrNetwork  = errors.New("network request failed")
	ErrNotFound = errors.New("article not found")

	// Article errors
	ErrMissingLanguageVersion = errors.New("language version not available")
	ErrInvalidArticle         = errors.New("invalid article data")

	// Submission errors
	ErrEmptyInput   = errors.New("no text provided")
	ErrNotSupported = errors.New("operation not supported by this source")

	// Controller errors
	ErrSuperseded    = errors.New("request superseded by a newer selection")
	ErrInvalidState  = errors.New("invalid state for operation")
	ErrLineBreakSeek = errors.New("cannot seek to a line break")
	ErrNoAudio       = errors.New("no audio element attached")
)

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for errors that are corrected silently.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for errors shown to the user without state loss.
	SeverityWarning
	// SeverityError is for failed operations.
	SeverityError
)

// TranscriptError adds the component and action to an underlying error.
type TranscriptError struct {
	Err       error
	Component string // controller, resolver, directory, player
	Action    string
	Severity  ErrorSeverity
}

// Error implements the error interface.
func (e *TranscriptError) Error() string {
	if e.Err == nil {
		return e.Component + ": " + e.Action + ": unknown error"
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TranscriptError) Unwrap() error {
	return e.Err
}

// NewError wraps err with component and action context.
func NewError(err error, component, action string) *TranscriptError {
	return &TranscriptError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
	}
}

// WithSeverity sets the error severity.
func (e *TranscriptError) WithSeverity(severity ErrorSeverity) *TranscriptError {
	e.Severity = severity
	return e
}

// UserMessage maps err to the single human-readable line stored in the
// snapshot's error slot.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Article not found."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the article server: " + networkDetail(err)
	case errors.Is(err, ErrMissingLanguageVersion):
		return "That language is not available for this article."
	case errors.Is(err, ErrEmptyInput):
		return "Please enter some text to convert."
	case errors.Is(err, ErrNotSupported):
		return "This article source does not support that."
	case errors.Is(err, ErrInvalidArticle):
		return "The article data is malformed."
	default:
		return err.Error()
	}
}

// networkDetail returns the text that follows the ErrNetwork prefix.
func networkDetail(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.Unwrap(e) == ErrNetwork {
			return strings.TrimPrefix(e.Error(), ErrNetwork.Error()+": ")
		}
	}
	return err.Error()
}

package voice

import "fmt"

// ErrorCategory classifies recognition failures. Only NoSpeech is
// transient; Aborted is silent; the rest are terminal and reported.
type ErrorCategory int

const (
	CategoryNoSpeech ErrorCategory = iota
	CategoryPermissionDenied
	CategoryNoDevice
	CategoryNetwork
	CategoryUnsupported
	CategoryAborted
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryNoSpeech:
		return "no-speech"
	case CategoryPermissionDenied:
		return "permission-denied"
	case CategoryNoDevice:
		return "no-device"
	case CategoryNetwork:
		return "network"
	case CategoryUnsupported:
		return "unsupported"
	case CategoryAborted:
		return "user-aborted"
	default:
		return "unknown"
	}
}

// Message returns the human-readable explanation surfaced for a
// terminal category.
func (c ErrorCategory) Message() string {
	switch c {
	case CategoryPermissionDenied:
		return "Microphone access was denied. Allow microphone use in the browser settings and make sure the site is served over HTTPS."
	case CategoryNoDevice:
		return "No microphone was found. Check that a microphone is connected."
	case CategoryNetwork:
		return "A network error interrupted speech recognition. Check the connection."
	case CategoryUnsupported:
		return "Speech recognition is not available in this browser or context. Use a recent browser over HTTPS."
	default:
		return ""
	}
}

// Terminal reports whether the category ends listening without retry.
func (c ErrorCategory) Terminal() bool {
	switch c {
	case CategoryNoSpeech, CategoryAborted:
		return false
	default:
		return true
	}
}

// RecognitionError is a categorized speech-recognition failure.
type RecognitionError struct {
	Category ErrorCategory
	Cause    error
}

func (e *RecognitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech recognition: %s: %v", e.Category, e.Cause)
	}
	return fmt.Sprintf("speech recognition: %s", e.Category)
}

func (e *RecognitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

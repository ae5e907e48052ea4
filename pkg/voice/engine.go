// Package voice coordinates a speech-recognition engine and a
// speech-synthesis engine around a chat session, so that listen ->
// transcribe -> send -> speak-reply -> relisten forms a closed loop
// with at most one active recognition and one active playback sequence
// at any instant.
package voice

import "context"

// Recognizer abstracts a continuous speech-recognition engine.
//
// Engines reject a Start issued before their own stop has completed, so
// restarts must wait for the OnEnd confirmation, not fire from the
// error handler.
type Recognizer interface {
	// SetHandlers registers the event callbacks. Call once, before Start.
	SetHandlers(handlers RecognizerHandlers)

	// Start begins a recognition run.
	Start() error

	// Stop requests the current run to end. OnEnd fires when the engine
	// has fully stopped.
	Stop()
}

// RecognizerHandlers are the engine's event callbacks.
type RecognizerHandlers struct {
	// OnStart fires when the engine is actually capturing.
	OnStart func()

	// OnResult delivers a final transcript. The run ends naturally
	// afterwards (OnEnd still fires).
	OnResult func(transcript string)

	// OnEnd is the stop confirmation: the engine has fully stopped,
	// whatever the cause.
	OnEnd func()

	// OnError reports a categorized recognition failure.
	OnError func(err *RecognitionError)
}

// Synthesizer abstracts a speech-synthesis engine that plays one
// utterance at a time.
type Synthesizer interface {
	// Speak synthesizes and plays one segment. done runs exactly once,
	// when playback finishes or fails.
	Speak(text string, done func(err error))

	// Cancel aborts the in-progress utterance, if any.
	Cancel()
}

// MicrophoneProbe checks audio-device access before the first
// recognition start, so permission failures carry a precise cause
// instead of a generic engine error.
type MicrophoneProbe interface {
	// Probe acquires the audio device and immediately releases it.
	Probe(ctx context.Context) error
}

// Origin identifies the transport context the loop runs in. Speech
// capture requires a secure origin, with an allowance for local
// development hosts.
type Origin struct {
	Scheme   string
	Hostname string
}

var devHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
}

// Secure reports whether speech capture is permitted on this origin.
func (o Origin) Secure() bool {
	if o.Scheme == "https" || o.Scheme == "wss" {
		return true
	}
	return devHosts[o.Hostname]
}

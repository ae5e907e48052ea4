package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultRestartDelay = 400 * time.Millisecond

// InputState describes what the microphone side of the loop is doing.
type InputState int

const (
	// InputIdle means no capture is active and none is scheduled.
	InputIdle InputState = iota
	// InputListening means the recognizer is capturing speech.
	InputListening
	// InputRecovering means capture ended without speech and a
	// restart is scheduled once the recognizer confirms it stopped.
	InputRecovering
)

func (s InputState) String() string {
	switch s {
	case InputIdle:
		return "idle"
	case InputListening:
		return "listening"
	case InputRecovering:
		return "recovering"
	default:
		return fmt.Sprintf("input_state(%d)", int(s))
	}
}

// Loop drives the hands-free conversation cycle: listen, forward the
// transcript to the chat session, speak the reply, listen again.
//
// Restarting capture after a no-speech timeout waits for the engine's
// stop confirmation; starting a recognizer that has not finished
// stopping is rejected by every engine this was written against.
type Loop struct {
	rec     Recognizer
	speaker *Speaker
	probe   MicrophoneProbe
	origin  *Origin

	send        func(text string) error
	sessionOpen func() bool
	notify      func(category ErrorCategory, message string)

	restartDelay time.Duration
	logger       *slog.Logger

	mu             sync.Mutex
	state          InputState
	generation     uint64
	pendingRestart bool
	manualStop     bool
	probed         bool
	starting       bool
}

// LoopConfig carries the collaborators a Loop needs.
type LoopConfig struct {
	Recognizer Recognizer
	Speaker    *Speaker
	Probe      MicrophoneProbe

	// Origin enables the secure-origin gate; nil skips it for
	// contexts that are not browser-hosted.
	Origin *Origin

	// Send forwards a final transcript to the chat session.
	Send func(text string) error
	// SessionOpen reports whether the chat session can accept sends.
	// Transcripts captured while it returns false are dropped.
	SessionOpen func() bool
	// Notify surfaces terminal voice errors to the user.
	Notify func(category ErrorCategory, message string)

	RestartDelay time.Duration
	Logger       *slog.Logger
}

// NewLoop wires the recognizer, speaker and probe into a conversation
// loop. The loop is idle until Start.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Recognizer == nil {
		return nil, errors.New("voice: recognizer is required")
	}
	if cfg.Speaker == nil {
		return nil, errors.New("voice: speaker is required")
	}
	if cfg.Send == nil {
		return nil, errors.New("voice: send function is required")
	}

	l := &Loop{
		rec:          cfg.Recognizer,
		speaker:      cfg.Speaker,
		probe:        cfg.Probe,
		origin:       cfg.Origin,
		send:         cfg.Send,
		sessionOpen:  cfg.SessionOpen,
		notify:       cfg.Notify,
		restartDelay: cfg.RestartDelay,
		logger:       cfg.Logger,
	}
	if l.sessionOpen == nil {
		l.sessionOpen = func() bool { return true }
	}
	if l.notify == nil {
		l.notify = func(ErrorCategory, string) {}
	}
	if l.restartDelay <= 0 {
		l.restartDelay = defaultRestartDelay
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	l.rec.SetHandlers(RecognizerHandlers{
		OnStart:  l.onStart,
		OnResult: l.onResult,
		OnEnd:    l.onEnd,
		OnError:  l.onError,
	})
	l.speaker.SetSequenceDoneHandler(l.onSpeechDone)
	return l, nil
}

// State returns the current input state.
func (l *Loop) State() InputState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start begins listening. The first call probes microphone access; a
// denied probe surfaces as a permission error and the loop stays idle.
// On an insecure origin Start fails immediately without touching the
// microphone.
func (l *Loop) Start(ctx context.Context) error {
	if l.origin != nil && !l.origin.Secure() {
		err := &RecognitionError{Category: CategoryUnsupported}
		l.notify(CategoryUnsupported, err.Category.Message())
		return err
	}

	l.mu.Lock()
	if l.state == InputListening || l.starting {
		l.mu.Unlock()
		return nil
	}
	l.starting = true
	needProbe := !l.probed && l.probe != nil
	l.manualStop = false
	l.pendingRestart = false
	l.mu.Unlock()

	if needProbe {
		if err := l.probe.Probe(ctx); err != nil {
			var rerr *RecognitionError
			if !errors.As(err, &rerr) {
				rerr = &RecognitionError{Category: CategoryNoDevice, Cause: err}
			}
			l.mu.Lock()
			l.starting = false
			l.mu.Unlock()
			l.notify(rerr.Category, rerr.Category.Message())
			return rerr
		}
		l.mu.Lock()
		l.probed = true
		l.mu.Unlock()
	}

	l.speaker.Cancel()

	l.mu.Lock()
	l.generation++
	l.state = InputListening
	l.starting = false
	l.mu.Unlock()

	if err := l.rec.Start(); err != nil {
		l.mu.Lock()
		l.state = InputIdle
		l.mu.Unlock()
		return err
	}
	return nil
}

// Stop ends listening at the user's request. No automatic restart
// follows, even if the recognizer reports a recoverable error on the
// way down.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.manualStop = true
	l.pendingRestart = false
	l.generation++
	l.state = InputIdle
	l.mu.Unlock()

	l.rec.Stop()
	l.speaker.Cancel()
}

// HandleBotReply speaks a bot message. Call it for every bot message
// the chat session delivers while voice mode is active.
func (l *Loop) HandleBotReply(text string) {
	l.speaker.Speak(text)
}

func (l *Loop) onStart() {
	l.mu.Lock()
	if !l.manualStop {
		l.state = InputListening
	}
	l.mu.Unlock()
}

func (l *Loop) onResult(transcript string) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return
	}
	if !l.sessionOpen() {
		l.logger.Debug("dropping transcript, chat session not open")
		return
	}
	if err := l.send(transcript); err != nil {
		l.logger.Debug("transcript send failed", "error", err)
	}
}

func (l *Loop) onError(rerr *RecognitionError) {
	if rerr == nil {
		return
	}

	switch rerr.Category {
	case CategoryNoSpeech:
		// Recoverable. The restart itself waits for onEnd so the
		// engine has actually released the capture pipeline.
		l.mu.Lock()
		if !l.manualStop {
			l.pendingRestart = true
			l.state = InputRecovering
		}
		l.mu.Unlock()
	case CategoryAborted:
		// Expected side effect of Stop; nothing to report.
	default:
		l.mu.Lock()
		l.pendingRestart = false
		l.state = InputIdle
		l.mu.Unlock()
		l.notify(rerr.Category, rerr.Category.Message())
	}
}

func (l *Loop) onEnd() {
	l.mu.Lock()
	if l.manualStop || !l.pendingRestart {
		l.state = InputIdle
		l.mu.Unlock()
		return
	}
	l.pendingRestart = false
	gen := l.generation
	l.mu.Unlock()

	time.AfterFunc(l.restartDelay, func() {
		l.mu.Lock()
		stale := l.generation != gen || l.manualStop
		if !stale {
			l.state = InputListening
		}
		l.mu.Unlock()
		if stale {
			return
		}
		if err := l.rec.Start(); err != nil {
			l.logger.Debug("listen restart failed", "error", err)
			l.mu.Lock()
			l.state = InputIdle
			l.mu.Unlock()
		}
	})
}

// onSpeechDone resumes listening after the bot finishes speaking,
// unless the user has stopped voice mode.
func (l *Loop) onSpeechDone() {
	l.mu.Lock()
	if l.manualStop {
		l.mu.Unlock()
		return
	}
	l.generation++
	l.state = InputListening
	l.mu.Unlock()

	if err := l.rec.Start(); err != nil {
		l.logger.Debug("relisten failed", "error", err)
		l.mu.Lock()
		l.state = InputIdle
		l.mu.Unlock()
	}
}

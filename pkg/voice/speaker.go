package voice

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultSegmentPause = 80 * time.Millisecond
	defaultSettleDelay  = 500 * time.Millisecond
)

// Speaker plays bot replies through a Synthesizer one cleaned segment
// at a time. Each call to Speak starts a new sequence and supersedes
// whatever was playing: stale segments never reach the synthesizer and
// a superseded sequence never fires the completion callback.
type Speaker struct {
	synth Synthesizer

	pause  time.Duration
	settle time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	seq      uint64
	speaking bool

	// onSequenceDone runs after the latest sequence finishes all of
	// its segments and the settle delay elapses with no newer Speak.
	onSequenceDone func()
}

// SpeakerOption configures a Speaker.
type SpeakerOption func(*Speaker)

// WithSegmentPause sets the silence inserted between segments.
func WithSegmentPause(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.pause = d }
}

// WithSettleDelay sets how long playback must stay quiet after the
// last segment before the sequence counts as done.
func WithSettleDelay(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.settle = d }
}

// WithSpeakerLogger sets the logger for playback diagnostics.
func WithSpeakerLogger(l *slog.Logger) SpeakerOption {
	return func(s *Speaker) { s.logger = l }
}

// NewSpeaker wraps synth with segment sequencing.
func NewSpeaker(synth Synthesizer, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		synth:  synth,
		pause:  defaultSegmentPause,
		settle: defaultSettleDelay,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSequenceDoneHandler registers the callback invoked when the latest
// sequence completes. Must be set before the first Speak.
func (s *Speaker) SetSequenceDoneHandler(fn func()) {
	s.mu.Lock()
	s.onSequenceDone = fn
	s.mu.Unlock()
}

// Speaking reports whether a sequence is currently playing.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Speak cancels any in-flight sequence and plays text as a fresh one.
// Text that cleans down to nothing still completes the sequence, so
// the done handler fires and the caller can resume listening.
func (s *Speaker) Speak(text string) {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.speaking = true
	s.mu.Unlock()

	s.synth.Cancel()

	segments := SplitSegments(text)
	if len(segments) == 0 {
		s.finishSequence(id)
		return
	}
	s.playNext(id, segments, 0)
}

// Cancel stops playback without starting a new sequence. The cancelled
// sequence's completion callback never fires.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	s.seq++
	s.speaking = false
	s.mu.Unlock()
	s.synth.Cancel()
}

// current reports whether id is still the latest sequence.
func (s *Speaker) current(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == id
}

func (s *Speaker) playNext(id uint64, segments []string, i int) {
	if !s.current(id) {
		return
	}
	if i >= len(segments) {
		s.finishSequence(id)
		return
	}

	s.synth.Speak(segments[i], func(err error) {
		if err != nil {
			s.logger.Debug("segment playback failed", "segment", i, "error", err)
			s.mu.Lock()
			if s.seq == id {
				s.speaking = false
			}
			s.mu.Unlock()
			return
		}
		if !s.current(id) {
			return
		}
		time.AfterFunc(s.pause, func() {
			s.playNext(id, segments, i+1)
		})
	})
}

// finishSequence waits out the settle delay and then reports the
// sequence done, unless a newer Speak arrived in the meantime.
func (s *Speaker) finishSequence(id uint64) {
	time.AfterFunc(s.settle, func() {
		s.mu.Lock()
		if s.seq != id {
			s.mu.Unlock()
			return
		}
		s.speaking = false
		done := s.onSequenceDone
		s.mu.Unlock()

		if done != nil {
			done()
		}
	})
}

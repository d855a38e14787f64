package session

// ListenAction is what the caller must do after a listening toggle.
type ListenAction int

const (
	ListenStart ListenAction = iota
	ListenStop
)

// Speech holds two independent state machines. Listening: Idle -> Listening
// on start, back to Idle on result, error or stop. Speaking: Idle ->
// Speaking when an assistant reply is voiced, back to Idle when playback
// ends. Neither flag affects the other.
type Speech struct {
	listening bool
	speaking  bool
}

// Listening reports whether speech input is active.
func (s *Speech) Listening() bool { return s.listening }

// Speaking reports whether a reply is being voiced.
func (s *Speech) Speaking() bool { return s.speaking }

// Toggle decides the listening transition for a user request: starting while
// already listening stops instead.
func (s *Speech) Toggle() ListenAction {
	if s.listening {
		return ListenStop
	}
	return ListenStart
}

// ListenStarted records the recognizer becoming active.
func (s *Speech) ListenStarted() { s.listening = true }

// ListenEnded records a result, an error or an explicit stop.
func (s *Speech) ListenEnded() { s.listening = false }

// SpeakStarted records playback starting.
func (s *Speech) SpeakStarted() { s.speaking = true }

// SpeakEnded records playback completing. Any completion resets the flag,
// even when other utterances are still queued.
func (s *Speech) SpeakEnded() { s.speaking = false }

// Package speech provides speech-to-text through a transcription daemon
// reached over a Unix socket and text-to-speech through a system command.
package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

var (
	// ErrUnsupported means the capability is absent on this machine.
	ErrUnsupported = errors.New("speech not supported")

	// ErrNoSpeech means recognition ended without an utterance.
	ErrNoSpeech = errors.New("no speech recognized")

	// ErrStopped means the capture was stopped before a result arrived.
	ErrStopped = errors.New("capture stopped")
)

// Recognizer starts one-utterance speech captures.
type Recognizer interface {
	Available() bool
	Begin(ctx context.Context) (Capture, error)
}

// Capture is a single active recognition.
type Capture interface {
	// Wait blocks until one final utterance is recognized or the capture
	// ends. It returns ErrStopped after Stop and ErrNoSpeech when recording
	// ended with nothing heard.
	Wait() (string, error)
	Stop() error
}

// Synthesizer voices text. Speak blocks until playback completes.
type Synthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string) error
}

// DefaultSocketPath returns the transcription daemon socket under the user
// config directory.
func DefaultSocketPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "steno", "steno.sock")
}

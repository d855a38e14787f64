package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// baseWordsPerMinute is the default speaking rate of say and espeak; the
// configured rate is a multiplier on it.
const baseWordsPerMinute = 175

// candidates are probed in order when no synthesizer is configured.
var candidates = []string{"say", "espeak-ng", "espeak"}

// CommandSynthesizer voices text by running a system TTS command. Utterances
// are serialized: a second Speak waits for the first to finish.
type CommandSynthesizer struct {
	path string
	name string
	rate float64
	log  *zap.Logger

	mu sync.Mutex
}

// NewCommandSynthesizer resolves name on PATH. An empty name probes the
// known commands; "none" disables speech output.
func NewCommandSynthesizer(name string, rate float64, log *zap.Logger) *CommandSynthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CommandSynthesizer{rate: rate, log: log}
	if name == "none" {
		return s
	}

	names := candidates
	if name != "" {
		names = []string{name}
	}
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			s.path, s.name = p, n
			break
		}
	}
	if s.path == "" {
		log.Debug("no speech synthesizer found", zap.Strings("tried", names))
	}
	return s
}

// Available reports whether a command was found.
func (s *CommandSynthesizer) Available() bool { return s.path != "" }

// Speak runs the command and waits for playback to end.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if !s.Available() {
		return ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.path, s.args(text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.name, err, out)
	}
	return nil
}

func (s *CommandSynthesizer) args(text string) []string {
	var args []string
	if s.rate > 0 {
		wpm := strconv.Itoa(int(baseWordsPerMinute * s.rate))
		if s.name == "say" {
			args = append(args, "-r", wpm)
		} else {
			args = append(args, "-s", wpm)
		}
	}
	// "--" keeps replies that start with a dash from parsing as flags.
	return append(args, "--", text)
}

var _ Synthesizer = (*CommandSynthesizer)(nil)

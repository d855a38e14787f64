package speech

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestSynthesizerDisabled(t *testing.T) {
	s := NewCommandSynthesizer("none", 1.06, nil)
	if s.Available() {
		t.Error("Available() = true for disabled synthesizer")
	}
	if err := s.Speak(context.Background(), "hi"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestSynthesizerMissingCommand(t *testing.T) {
	s := NewCommandSynthesizer("pdfchat-no-such-tts", 1.06, nil)
	if s.Available() {
		t.Error("Available() = true for missing command")
	}
}

func TestSynthesizerArgs(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want []string
	}{
		{"say", 1.06, []string{"-r", "185", "--", "-hello"}},
		{"espeak", 1.06, []string{"-s", "185", "--", "-hello"}},
		{"espeak-ng", 0, []string{"--", "-hello"}},
	}
	for _, tt := range tests {
		s := &CommandSynthesizer{name: tt.name, rate: tt.rate}
		if got := s.args("-hello"); !slices.Equal(got, tt.want) {
			t.Errorf("%s args = %q, want %q", tt.name, got, tt.want)
		}
	}
}

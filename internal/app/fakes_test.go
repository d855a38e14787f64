package app

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/speech"
)

var errBoom = errors.New("boom")

// fakeBackend serves canned responses and counts calls per operation.
type fakeBackend struct {
	mu sync.Mutex

	docs      []string
	summaries map[string]api.Summary
	history   map[string][]api.HistoryMessage
	reply     string

	listErr, uploadErr, removeErr, removeAllErr, historyErr, chatErr error

	calls       map[string]int
	historyArgs []string
	chatArgs    []api.ChatRequest
	uploaded    [][]api.File
}

func newFakeBackend(docs ...string) *fakeBackend {
	return &fakeBackend{
		docs:    docs,
		history: map[string][]api.HistoryMessage{},
		reply:   "the answer",
		calls:   map[string]int{},
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) ListPDFs(context.Context) (api.PDFList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return api.PDFList{}, f.listErr
	}
	return api.PDFList{PDFNames: append([]string{}, f.docs...), Summaries: f.summaries}, nil
}

func (f *fakeBackend) Upload(_ context.Context, files []api.File) (api.PDFList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["upload"]++
	f.uploaded = append(f.uploaded, files)
	if f.uploadErr != nil {
		return api.PDFList{}, f.uploadErr
	}
	sums := map[string]api.Summary{}
	for _, file := range files {
		f.docs = append(f.docs, file.Name)
		sums[file.Name] = api.Summary{Pages: 1, Size: float64(len(file.Content)) / 1024}
	}
	return api.PDFList{PDFNames: append([]string{}, f.docs...), Summaries: sums}, nil
}

func (f *fakeBackend) RemovePDF(_ context.Context, name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["remove"]++
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	var out []string
	for _, d := range f.docs {
		if d != name {
			out = append(out, d)
		}
	}
	f.docs = out
	return append([]string{}, out...), nil
}

func (f *fakeBackend) RemoveAllPDFs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["removeAll"]++
	if f.removeAllErr != nil {
		return nil, f.removeAllErr
	}
	f.docs = nil
	return []string{}, nil
}

func (f *fakeBackend) History(_ context.Context, pdf string) ([]api.HistoryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["history"]++
	f.historyArgs = append(f.historyArgs, pdf)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[pdf], nil
}

func (f *fakeBackend) Chat(_ context.Context, message, pdf string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["chat"]++
	f.chatArgs = append(f.chatArgs, api.ChatRequest{Message: message, PDFName: pdf})
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.reply, nil
}

// fakeRecognizer hands out captures that resolve to text or err.
type fakeRecognizer struct {
	available bool
	text      string
	err       error
	begun     int
}

func (r *fakeRecognizer) Available() bool { return r.available }

func (r *fakeRecognizer) Begin(context.Context) (speech.Capture, error) {
	r.begun++
	return &fakeCapture{text: r.text, err: r.err}, nil
}

type fakeCapture struct {
	text    string
	err     error
	stopped bool
}

func (c *fakeCapture) Wait() (string, error) {
	if c.stopped {
		return "", speech.ErrStopped
	}
	return c.text, c.err
}

func (c *fakeCapture) Stop() error {
	c.stopped = true
	return nil
}

// fakeSynth records spoken text.
type fakeSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (s *fakeSynth) Available() bool { return true }

func (s *fakeSynth) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

// fakePrefs stores the dark-mode flag in memory.
type fakePrefs struct {
	dark  bool
	saved []bool
}

func (p *fakePrefs) DarkMode() (bool, error) { return p.dark, nil }

func (p *fakePrefs) SetDarkMode(dark bool) error {
	p.dark = dark
	p.saved = append(p.saved, dark)
	return nil
}

// update applies one message.
func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// collect runs cmd and returns the messages the model acts on. Spinner
// ticks, cursor blinks and toast expiries are dropped so tests settle.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case spinner.TickMsg, ClearToastMsg:
		return nil
	case PDFsLoadedMsg, UploadDoneMsg, RemoveDoneMsg, RemoveAllDoneMsg,
		HistoryLoadedMsg, ChatReplyMsg, ListenStartedMsg, ListenResultMsg,
		SpeakDoneMsg, darkSavedMsg, tea.QuitMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

// settle runs cmd and feeds every resulting message back until quiet.
func settle(m Model, cmd tea.Cmd) Model {
	queue := collect(cmd)
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		var next tea.Cmd
		m, next = update(m, msg)
		queue = append(queue, collect(next)...)
	}
	return m
}

// send applies msg and settles everything it triggers.
func send(m Model, msg tea.Msg) Model {
	m, cmd := update(m, msg)
	return settle(m, cmd)
}

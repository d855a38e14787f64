package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/session"
	"github.com/jwulff/pdfchat/internal/speech"
)

// toastTTL is how long a toast stays visible.
const toastTTL = 2600 * time.Millisecond

// Backend is the chat server as seen by the view-model.
type Backend interface {
	ListPDFs(ctx context.Context) (api.PDFList, error)
	Upload(ctx context.Context, files []api.File) (api.PDFList, error)
	RemovePDF(ctx context.Context, name string) ([]string, error)
	RemoveAllPDFs(ctx context.Context) ([]string, error)
	History(ctx context.Context, pdfName string) ([]api.HistoryMessage, error)
	Chat(ctx context.Context, message, pdfName string) (string, error)
}

// Preferences persists UI settings across runs.
type Preferences interface {
	DarkMode() (bool, error)
	SetDarkMode(dark bool) error
}

// requestContext bounds a call by timeout; zero means unbounded.
func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// loadPDFsCmd fetches the document set on startup.
func loadPDFsCmd(b Backend, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		list, err := b.ListPDFs(ctx)
		return PDFsLoadedMsg{List: list, Err: err}
	}
}

// uploadCmd reads paths from disk and uploads them in one request.
func uploadCmd(b Backend, timeout time.Duration, paths []string) tea.Cmd {
	if len(paths) == 0 {
		return nil
	}
	return func() tea.Msg {
		files, err := ReadFiles(paths)
		if err != nil {
			return UploadDoneMsg{Count: len(paths), Err: err}
		}
		ctx, cancel := requestContext(timeout)
		defer cancel()
		list, err := b.Upload(ctx, files)
		return UploadDoneMsg{Count: len(paths), List: list, Err: err}
	}
}

// removeCmd removes one document.
func removeCmd(b Backend, timeout time.Duration, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		docs, err := b.RemovePDF(ctx, name)
		return RemoveDoneMsg{Name: name, Documents: docs, Err: err}
	}
}

// removeAllCmd removes every document.
func removeAllCmd(b Backend, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		docs, err := b.RemoveAllPDFs(ctx)
		return RemoveAllDoneMsg{Documents: docs, Err: err}
	}
}

// historyCmd fetches the transcript for selection under generation gen.
func historyCmd(b Backend, timeout time.Duration, gen uint64, selection string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		history, err := b.History(ctx, selection)
		return HistoryLoadedMsg{Gen: gen, Selection: selection, History: history, Err: err}
	}
}

// chatCmd sends one message.
func chatCmd(b Backend, timeout time.Duration, p session.PendingMessage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		reply, err := b.Chat(ctx, p.Text, p.Selection)
		return ChatReplyMsg{Pending: p, Reply: reply, Err: err}
	}
}

// listenCmd starts a speech capture.
func listenCmd(r speech.Recognizer) tea.Cmd {
	return func() tea.Msg {
		c, err := r.Begin(context.Background())
		if err != nil {
			return ListenResultMsg{Err: err}
		}
		return ListenStartedMsg{Capture: c}
	}
}

// waitCaptureCmd blocks until the capture yields an utterance or ends.
func waitCaptureCmd(c speech.Capture) tea.Cmd {
	return func() tea.Msg {
		text, err := c.Wait()
		return ListenResultMsg{Text: text, Err: err}
	}
}

// stopCaptureCmd stops an active capture; its wait command reports the end.
func stopCaptureCmd(c speech.Capture) tea.Cmd {
	return func() tea.Msg {
		c.Stop()
		return nil
	}
}

// speakCmd voices text and reports when playback ends.
func speakCmd(s speech.Synthesizer, text string) tea.Cmd {
	return func() tea.Msg {
		return SpeakDoneMsg{Err: s.Speak(context.Background(), text)}
	}
}

// saveDarkCmd persists the dark-mode preference.
func saveDarkCmd(p Preferences, dark bool) tea.Cmd {
	return func() tea.Msg {
		return darkSavedMsg{Err: p.SetDarkMode(dark)}
	}
}

// clearToastCmd fires after ttl to clear toast seq.
func clearToastCmd(seq int, ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return ClearToastMsg{Seq: seq}
	})
}

// ExpandPaths resolves upload arguments: plain paths, globs and
// directories (every *.pdf inside). Arguments matching nothing are dropped.
func ExpandPaths(args []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		arg = expandHome(arg)
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			pdfs, _ := filepath.Glob(filepath.Join(m, "*.pdf"))
			for _, p := range pdfs {
				add(p)
			}
		}
	}
	return out
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// ReadFiles loads each path as an upload payload named by its base name.
func ReadFiles(paths []string) ([]api.File, error) {
	files := make([]api.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, api.File{Name: filepath.Base(p), Content: data})
	}
	return files, nil
}

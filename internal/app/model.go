package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/markdown"
	"github.com/jwulff/pdfchat/internal/session"
	"github.com/jwulff/pdfchat/internal/speech"
	"github.com/jwulff/pdfchat/internal/ui"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusInput PanelFocus = iota
	FocusDocs
)

// ToastKind selects the toast color.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastDanger
)

// Toast texts.
const (
	ToastUploaded     = "PDF(s) uploaded!"
	ToastUploadFailed = "Failed to upload!"
	ToastServerError  = "Server error!"
	ToastRemovedAll   = "Removed all PDFs."
	ToastUnreachable  = "Could not reach the server."
)

const defaultPlaceholder = "Ask about your PDFs... (/upload <files> to add)"

type toast struct {
	Text string
	Kind ToastKind
	Seq  int
}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmRemove
	confirmRemoveAll
)

// confirmation is the pending destructive action behind the y/n modal.
type confirmation struct {
	kind confirmKind
	name string
}

func (c confirmation) prompt() string {
	if c.kind == confirmRemoveAll {
		return "Remove ALL PDFs?"
	}
	return fmt.Sprintf("Remove %q?", c.name)
}

// Options wire the model to its collaborators. Recognizer, Synthesizer and
// Preferences may be nil. Assistant turns loaded from history are spoken
// unless MuteHistory is set.
type Options struct {
	Backend      Backend
	Recognizer   speech.Recognizer
	Synthesizer  speech.Synthesizer
	Preferences  Preferences
	Log          *zap.Logger
	Timeout      time.Duration
	MuteHistory  bool
	Dark         bool
}

// Model is the root bubbletea model: the session view-model plus its
// terminal rendering.
type Model struct {
	backend      Backend
	recognizer   speech.Recognizer
	synth        speech.Synthesizer
	prefs        Preferences
	log          *zap.Logger
	timeout      time.Duration
	speakHistory bool

	sess *session.Session

	// UI state
	focus     PanelFocus
	docCursor int
	confirm   confirmation
	toast     toast
	toastSeq  int
	toastTTL  time.Duration
	inflight  int
	uploads   int // uploads awaiting a response
	width     int
	height    int

	// Speech capture
	capture         speech.Capture
	captureStarting bool

	dark     bool
	styles   ui.Styles
	md       *markdown.Renderer
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
}

// New creates a Model. The stored dark-mode preference, when readable,
// overrides opts.Dark.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	dark := opts.Dark
	if opts.Preferences != nil {
		if d, err := opts.Preferences.DarkMode(); err != nil {
			log.Warn("read dark mode preference", zap.Error(err))
		} else {
			dark = d
		}
	}
	styles := ui.New(dark)

	ti := textinput.New()
	ti.Placeholder = defaultPlaceholder
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		backend:      opts.Backend,
		recognizer:   opts.Recognizer,
		synth:        opts.Synthesizer,
		prefs:        opts.Preferences,
		log:          log,
		timeout:      opts.Timeout,
		speakHistory: !opts.MuteHistory,
		sess:         session.New(),
		focus:        FocusInput,
		toastTTL:     toastTTL,
		inflight:     1, // Init always issues the document load.
		dark:         dark,
		styles:       styles,
		md:           markdown.New(56, dark),
		input:        ti,
		viewport:     viewport.New(60, 20),
		spinner:      sp,
	}
}

// Session exposes the view-model state.
func (m Model) Session() *session.Session { return m.sess }

// Init loads the document set.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadPDFsCmd(m.backend, m.timeout),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PDFsLoadedMsg:
		m.finishRequest()
		if msg.Err != nil {
			m.log.Error("load documents", zap.Error(msg.Err))
			m.sess.Transcript().AppendNotice(session.NoticeUnreachable)
			m.refresh()
			return m, m.showToast(ToastUnreachable, ToastDanger)
		}
		return m, m.applyDocuments(msg.List.PDFNames, summaries(msg.List))

	case UploadDoneMsg:
		m.finishRequest()
		if m.uploads > 0 {
			m.uploads--
		}
		if m.uploads == 0 {
			m.input.Placeholder = defaultPlaceholder
		}
		if msg.Err != nil {
			m.log.Error("upload", zap.Int("files", msg.Count), zap.Error(msg.Err))
			m.sess.Transcript().AppendNotice(session.NoticeUploadFailed)
			m.refresh()
			return m, m.showToast(ToastUploadFailed, ToastDanger)
		}
		sums := summaries(msg.List)
		if sums == nil {
			sums = map[string]session.Summary{}
		}
		return m, tea.Batch(
			m.applyDocuments(msg.List.PDFNames, sums),
			m.showToast(ToastUploaded, ToastSuccess),
		)

	case RemoveDoneMsg:
		m.finishRequest()
		if msg.Err != nil {
			m.log.Warn("remove document", zap.String("name", msg.Name), zap.Error(msg.Err))
			return m, nil
		}
		return m, tea.Batch(
			m.applyDocuments(msg.Documents, nil),
			m.showToast("Removed "+msg.Name, ToastSuccess),
		)

	case RemoveAllDoneMsg:
		m.finishRequest()
		if msg.Err != nil {
			m.log.Warn("remove all documents", zap.Error(msg.Err))
			return m, nil
		}
		return m, tea.Batch(
			m.applyDocuments(msg.Documents, nil),
			m.showToast(ToastRemovedAll, ToastSuccess),
		)

	case HistoryLoadedMsg:
		m.finishRequest()
		return m, m.applyHistory(msg)

	case ChatReplyMsg:
		m.finishRequest()
		if msg.Err != nil {
			m.log.Error("chat", zap.String("pdf", msg.Pending.Selection), zap.Error(msg.Err))
			if !m.sess.FailSend(msg.Pending) {
				return m, nil
			}
			m.refresh()
			return m, m.showToast(ToastServerError, ToastDanger)
		}
		if !m.sess.CompleteSend(msg.Pending, msg.Reply) {
			m.log.Debug("dropped late reply", zap.String("pdf", msg.Pending.Selection))
			return m, nil
		}
		m.refresh()
		return m, m.speak(msg.Reply)

	case ListenStartedMsg:
		m.captureStarting = false
		m.capture = msg.Capture
		m.sess.Speech().ListenStarted()
		return m, waitCaptureCmd(msg.Capture)

	case ListenResultMsg:
		m.captureStarting = false
		m.capture = nil
		m.sess.Speech().ListenEnded()
		var cmd tea.Cmd
		switch {
		case msg.Err == nil && msg.Text != "":
			m.input.SetValue(msg.Text)
			m.input.CursorEnd()
			cmd = m.setFocus(FocusInput)
		case errors.Is(msg.Err, speech.ErrUnsupported):
			m.sess.Transcript().AppendNotice(session.NoticeNoSpeech)
			m.refresh()
		case msg.Err != nil && !speech.IsStopped(msg.Err) && !errors.Is(msg.Err, speech.ErrNoSpeech):
			m.log.Warn("speech recognition", zap.Error(msg.Err))
		}
		return m, cmd

	case SpeakDoneMsg:
		m.sess.Speech().SpeakEnded()
		if msg.Err != nil {
			m.log.Debug("speech synthesis", zap.Error(msg.Err))
		}
		return m, nil

	case darkSavedMsg:
		if msg.Err != nil {
			m.log.Warn("save dark mode preference", zap.Error(msg.Err))
		}
		return m, nil

	case ClearToastMsg:
		if msg.Seq == m.toast.Seq {
			m.toast = toast{}
		}
		return m, nil
	}

	return m, nil
}

// applyDocuments installs a server-authoritative document set and fetches
// the history of the recomputed selection.
func (m *Model) applyDocuments(docs []string, sums map[string]session.Summary) tea.Cmd {
	fetch := m.sess.SetDocuments(docs, sums)
	m.docCursor = min(m.docCursor, max(0, len(m.docEntries())-1))
	m.refresh()
	if !fetch {
		return nil
	}
	return m.fetchHistory()
}

// fetchHistory issues a history request for the current selection.
func (m *Model) fetchHistory() tea.Cmd {
	gen := m.sess.BeginHistory()
	m.inflight++
	return historyCmd(m.backend, m.timeout, gen, m.sess.Selection())
}

func (m *Model) applyHistory(msg HistoryLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.log.Warn("load history", zap.String("pdf", msg.Selection), zap.Error(msg.Err))
		if m.sess.FailHistory(msg.Gen) {
			m.refresh()
		}
		return nil
	}

	turns := make([]session.HistoryTurn, 0, len(msg.History))
	for _, h := range msg.History {
		turns = append(turns, session.HistoryTurn{User: h.Role == "user", Content: h.Content})
	}
	if !m.sess.ApplyHistory(msg.Gen, turns) {
		m.log.Debug("discarded stale history", zap.String("pdf", msg.Selection), zap.Uint64("gen", msg.Gen))
		return nil
	}
	m.refresh()

	if !m.speakHistory {
		return nil
	}
	var cmds []tea.Cmd
	for _, t := range turns {
		if !t.User {
			cmds = append(cmds, m.speak(t.Content))
		}
	}
	return tea.Batch(cmds...)
}

// SelectDocument makes id the selection and re-fetches its history, even
// when id is already selected. Unselectable ids are ignored.
func (m *Model) SelectDocument(id string) tea.Cmd {
	if err := m.sess.Select(id); err != nil {
		m.log.Debug("ignored selection", zap.String("id", id), zap.Error(err))
		return nil
	}
	m.refresh()
	return m.fetchHistory()
}

// SendMessage sends text scoped to the current selection.
func (m *Model) SendMessage(text string) tea.Cmd {
	p, ok, err := m.sess.BeginSend(strings.TrimSpace(text))
	if err != nil {
		m.refresh()
		return nil
	}
	if !ok {
		return nil
	}
	m.input.Reset()
	m.refresh()
	m.inflight++
	return chatCmd(m.backend, m.timeout, p)
}

// Upload uploads the files at paths. An empty list does nothing.
func (m *Model) Upload(paths []string) tea.Cmd {
	if len(paths) == 0 {
		return nil
	}
	m.sess.Transcript().AppendNotice(session.NoticeUploading)
	m.input.Placeholder = fmt.Sprintf("📎 %d PDF(s) selected", len(paths))
	m.refresh()
	m.inflight++
	m.uploads++
	return uploadCmd(m.backend, m.timeout, paths)
}

// RemoveDocument removes name after confirmation.
func (m *Model) RemoveDocument(name string) tea.Cmd {
	m.inflight++
	return removeCmd(m.backend, m.timeout, name)
}

// RemoveAllDocuments removes every document after confirmation.
func (m *Model) RemoveAllDocuments() tea.Cmd {
	m.inflight++
	return removeAllCmd(m.backend, m.timeout)
}

func (m *Model) finishRequest() {
	if m.inflight > 0 {
		m.inflight--
	}
}

func (m *Model) showToast(text string, kind ToastKind) tea.Cmd {
	m.toastSeq++
	m.toast = toast{Text: text, Kind: kind, Seq: m.toastSeq}
	return clearToastCmd(m.toastSeq, m.toastTTL)
}

// speak voices text when a synthesizer is present.
func (m *Model) speak(text string) tea.Cmd {
	if m.synth == nil || !m.synth.Available() || strings.TrimSpace(text) == "" {
		return nil
	}
	m.sess.Speech().SpeakStarted()
	return speakCmd(m.synth, text)
}

func (m *Model) toggleListening() tea.Cmd {
	if m.recognizer == nil || !m.recognizer.Available() {
		m.sess.Transcript().AppendNotice(session.NoticeNoSpeech)
		m.refresh()
		return nil
	}
	if m.captureStarting {
		return nil
	}
	switch m.sess.Speech().Toggle() {
	case session.ListenStop:
		if m.capture != nil {
			return stopCaptureCmd(m.capture)
		}
		return nil
	default:
		m.captureStarting = true
		return listenCmd(m.recognizer)
	}
}

func (m *Model) toggleDark() tea.Cmd {
	m.dark = !m.dark
	m.styles = ui.New(m.dark)
	m.spinner.Style = m.styles.Spinner
	m.md.SetDark(m.dark)
	m.refresh()
	if m.prefs == nil {
		return nil
	}
	return saveDarkCmd(m.prefs, m.dark)
}

func (m *Model) setFocus(f PanelFocus) tea.Cmd {
	m.focus = f
	if f == FocusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) quit() tea.Cmd {
	if m.capture != nil {
		m.capture.Stop()
	}
	return tea.Quit
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirm.kind != confirmNone {
		return m.handleConfirmKey(key)
	}

	switch key {
	case KeyCtrlC:
		return m, m.quit()
	case KeyTab:
		if m.focus == FocusInput {
			return m, m.setFocus(FocusDocs)
		}
		return m, m.setFocus(FocusInput)
	case KeyMic:
		return m, m.toggleListening()
	case KeyDark:
		return m, m.toggleDark()
	case KeyPageUp, KeyPageDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == FocusDocs {
		return m.handleDocsKey(key)
	}

	if key == KeyEnter {
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleDocsKey(key string) (tea.Model, tea.Cmd) {
	entries := m.docEntries()

	switch key {
	case KeyQuit:
		return m, m.quit()
	case KeyJ, KeyDown:
		if m.docCursor < len(entries)-1 {
			m.docCursor++
		}
	case KeyK, KeyUp:
		if m.docCursor > 0 {
			m.docCursor--
		}
	case KeyEnter:
		if m.docCursor < len(entries) {
			return m, m.SelectDocument(entries[m.docCursor])
		}
	case KeyRemove:
		if m.docCursor < len(entries) && entries[m.docCursor] != session.AllDocuments {
			m.confirm = confirmation{kind: confirmRemove, name: entries[m.docCursor]}
		}
	case KeyRemoveAll:
		m.confirm = confirmation{kind: confirmRemoveAll}
	}
	return m, nil
}

func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyConfirmYes, KeyEnter:
		c := m.confirm
		m.confirm = confirmation{}
		if c.kind == confirmRemoveAll {
			return m, m.RemoveAllDocuments()
		}
		return m, m.RemoveDocument(c.name)
	case KeyConfirmNo, KeyEsc:
		m.confirm = confirmation{}
	case KeyCtrlC:
		return m, m.quit()
	}
	return m, nil
}

// submit handles enter in the input line: a slash command or a message.
func (m *Model) submit() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	if !strings.HasPrefix(line, "/") {
		return m.SendMessage(line)
	}
	m.input.Reset()
	return m.runCommand(line)
}

func (m *Model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case CmdUpload:
		return m.Upload(ExpandPaths(fields[1:]))
	case CmdRemove:
		if !m.sess.IsSelectable(arg) || arg == session.AllDocuments {
			return m.showToast("No PDF named "+arg, ToastInfo)
		}
		m.confirm = confirmation{kind: confirmRemove, name: arg}
	case CmdRemoveAll:
		m.confirm = confirmation{kind: confirmRemoveAll}
	case CmdSelect:
		if strings.EqualFold(arg, "all") {
			arg = session.AllDocuments
		}
		if !m.sess.IsSelectable(arg) {
			return m.showToast("No PDF named "+arg, ToastInfo)
		}
		return m.SelectDocument(arg)
	case CmdDark:
		return m.toggleDark()
	case CmdMic:
		return m.toggleListening()
	case CmdQuit:
		return m.quit()
	default:
		return m.showToast("Unknown command "+fields[0], ToastInfo)
	}
	return nil
}

// docEntries lists the selectable ids in panel order.
func (m Model) docEntries() []string {
	docs := m.sess.Documents()
	if len(docs) > 1 {
		return append([]string{session.AllDocuments}, docs...)
	}
	return docs
}

func summaries(list api.PDFList) map[string]session.Summary {
	if list.Summaries == nil {
		return nil
	}
	out := make(map[string]session.Summary, len(list.Summaries))
	for name, s := range list.Summaries {
		out[name] = session.Summary{Pages: s.Pages, SizeKB: s.Size}
	}
	return out
}

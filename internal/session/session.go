// Package session holds the client-side view of a PDF chat session: the
// document set, the current selection, the rendered transcript and the
// speech flags. All mutation goes through the methods below; the backend
// response applied through them is treated as ground truth.
package session

import (
	"errors"
	"slices"
)

// AllDocuments is the selection sentinel for "every document". It is only a
// valid selection while more than one document exists.
const AllDocuments = "__ALL__"

// Notices rendered into the transcript.
const (
	NoticeStartChatting  = "Start chatting about this PDF!"
	NoticeSelectDocument = "📎 Please upload and select a PDF."
	NoticeUploading      = "⏳ Uploading PDFs..."
	NoticeUploadFailed   = "❗ Failed to upload PDFs. Try again."
	NoticeServerError    = "❗ Server error. Please try again later."
	NoticeHistoryFailed  = "❗ Could not load chat history."
	NoticeUnreachable    = "❗ Could not reach the server."
	NoticeNoSpeech       = "🚫 Speech recognition not supported"
	PendingThinking      = "Thinking..."
)

var (
	// ErrNoSelection is returned when a message is sent with nothing selected.
	ErrNoSelection = errors.New("no document selected")

	// ErrUnknownDocument is returned by Select for names not in the set.
	ErrUnknownDocument = errors.New("unknown document")
)

// Summary is informational metadata for one document.
type Summary struct {
	Pages  int
	SizeKB float64
}

// Session is the Session View-Model state. The zero value is not usable;
// call New.
type Session struct {
	documents []string
	summaries map[string]Summary
	selection string

	transcript *Transcript
	speech     Speech

	// historyGen identifies the latest issued history fetch; responses
	// carrying an older generation are stale.
	historyGen uint64
}

// New returns an empty session: no documents, no selection, empty transcript.
func New() *Session {
	return &Session{
		summaries:  make(map[string]Summary),
		transcript: NewTranscript(),
	}
}

// Documents returns the document set in server order.
func (s *Session) Documents() []string {
	return slices.Clone(s.documents)
}

// Summary returns the metadata for name, if known.
func (s *Session) Summary(name string) (Summary, bool) {
	sum, ok := s.summaries[name]
	return sum, ok
}

// Selection returns the current selection: "", a document name or AllDocuments.
func (s *Session) Selection() string { return s.selection }

// Empty reports whether the document set is empty; the welcome card shows
// exactly when this is true.
func (s *Session) Empty() bool { return len(s.documents) == 0 }

// Transcript returns the transcript for the current selection.
func (s *Session) Transcript() *Transcript { return s.transcript }

// Speech returns the speech state machines.
func (s *Session) Speech() *Speech { return &s.speech }

// DefaultSelection is the selection implied by a document set: empty for
// none, the sole document for one, AllDocuments for more.
func DefaultSelection(documents []string) string {
	switch len(documents) {
	case 0:
		return ""
	case 1:
		return documents[0]
	default:
		return AllDocuments
	}
}

// SetDocuments replaces the document set and summaries and recomputes the
// selection, overwriting any explicit pick. A nil summaries map keeps the
// summaries of documents that are still present. It reports whether the new
// selection needs its history fetched; when it does not, the transcript has
// been cleared.
func (s *Session) SetDocuments(documents []string, summaries map[string]Summary) bool {
	s.documents = slices.Clone(documents)

	if summaries != nil {
		s.summaries = make(map[string]Summary, len(summaries))
		for k, v := range summaries {
			s.summaries[k] = v
		}
	} else {
		for name := range s.summaries {
			if !slices.Contains(s.documents, name) {
				delete(s.summaries, name)
			}
		}
	}

	s.selection = DefaultSelection(s.documents)
	if s.selection == "" {
		// Outstanding history fetches are for documents that no longer exist.
		s.historyGen++
		s.transcript.Clear()
		return false
	}
	return true
}

// IsSelectable reports whether id may become the selection.
func (s *Session) IsSelectable(id string) bool {
	if id == AllDocuments {
		return len(s.documents) > 1
	}
	return slices.Contains(s.documents, id)
}

// Select makes id the current selection. The caller always re-fetches the
// history afterwards, even when id equals the previous selection.
func (s *Session) Select(id string) error {
	if !s.IsSelectable(id) {
		return ErrUnknownDocument
	}
	s.selection = id
	return nil
}

// BeginHistory records a new history fetch for the current selection and
// returns its generation.
func (s *Session) BeginHistory() uint64 {
	s.historyGen++
	return s.historyGen
}

// HistoryTurn is one message of a fetched history.
type HistoryTurn struct {
	User    bool
	Content string
}

// ApplyHistory replaces the transcript with a fetched history. Responses for
// any generation other than the latest issued one are discarded and it
// returns false. An empty history renders the start-chatting notice.
func (s *Session) ApplyHistory(gen uint64, turns []HistoryTurn) bool {
	if gen != s.historyGen {
		return false
	}
	s.transcript.Clear()
	if len(turns) == 0 {
		s.transcript.AppendNotice(NoticeStartChatting)
		return true
	}
	for _, t := range turns {
		if t.User {
			s.transcript.AppendUser(t.Content)
		} else {
			s.transcript.AppendAssistant(t.Content)
		}
	}
	return true
}

// FailHistory renders a history fetch failure if gen is still current.
func (s *Session) FailHistory(gen uint64) bool {
	if gen != s.historyGen {
		return false
	}
	s.transcript.Clear()
	s.transcript.AppendNotice(NoticeHistoryFailed)
	return true
}

// PendingMessage identifies an in-flight chat request.
type PendingMessage struct {
	ID         int
	Generation uint64
	Selection  string
	Text       string
}

// BeginSend validates and starts sending text. With no selection it appends
// the select-a-document notice and returns ErrNoSelection; no request may
// be made. With blank text it returns ok=false and changes nothing.
// Otherwise the user message and the thinking placeholder are appended.
func (s *Session) BeginSend(text string) (PendingMessage, bool, error) {
	if s.selection == "" {
		s.transcript.AppendNotice(NoticeSelectDocument)
		return PendingMessage{}, false, ErrNoSelection
	}
	if text == "" {
		return PendingMessage{}, false, nil
	}
	s.transcript.AppendUser(text)
	id := s.transcript.AppendPending(PendingThinking)
	return PendingMessage{
		ID:         id,
		Generation: s.transcript.Generation(),
		Selection:  s.selection,
		Text:       text,
	}, true, nil
}

// CompleteSend turns the placeholder into the assistant reply. It returns
// false when the transcript was replaced since the send began.
func (s *Session) CompleteSend(p PendingMessage, reply string) bool {
	if p.Generation != s.transcript.Generation() {
		return false
	}
	return s.transcript.Resolve(p.ID, reply)
}

// FailSend removes the placeholder and appends the server-error notice.
func (s *Session) FailSend(p PendingMessage) bool {
	if p.Generation != s.transcript.Generation() {
		return false
	}
	if !s.transcript.Discard(p.ID) {
		return false
	}
	s.transcript.AppendNotice(NoticeServerError)
	return true
}

package app

import (
	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/session"
	"github.com/jwulff/pdfchat/internal/speech"
)

// PDFsLoadedMsg carries the initial document set.
type PDFsLoadedMsg struct {
	List api.PDFList
	Err  error
}

// UploadDoneMsg carries the document set after an upload.
type UploadDoneMsg struct {
	Count int
	List  api.PDFList
	Err   error
}

// RemoveDoneMsg carries the document set after removing one document.
type RemoveDoneMsg struct {
	Name      string
	Documents []string
	Err       error
}

// RemoveAllDoneMsg carries the (empty) document set after removing all.
type RemoveAllDoneMsg struct {
	Documents []string
	Err       error
}

// HistoryLoadedMsg carries a history fetch result tagged with the
// generation it was issued under.
type HistoryLoadedMsg struct {
	Gen       uint64
	Selection string
	History   []api.HistoryMessage
	Err       error
}

// ChatReplyMsg carries the reply to one sent message.
type ChatReplyMsg struct {
	Pending session.PendingMessage
	Reply   string
	Err     error
}

// ListenStartedMsg is sent when the recognizer becomes active.
type ListenStartedMsg struct {
	Capture speech.Capture
}

// ListenResultMsg ends a capture with text or an error.
type ListenResultMsg struct {
	Text string
	Err  error
}

// SpeakDoneMsg is sent when one utterance finishes playing.
type SpeakDoneMsg struct {
	Err error
}

// ClearToastMsg clears the toast with the given sequence number.
type ClearToastMsg struct {
	Seq int
}

// darkSavedMsg reports persisting the dark-mode preference.
type darkSavedMsg struct {
	Err error
}

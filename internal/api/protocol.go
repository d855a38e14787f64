// Package api provides the HTTP client and wire types for the PDF chat
// backend. Responses are decoded into typed structs and validated before
// they reach the caller.
package api

// AllDocuments is the pdf_name sentinel that scopes history and chat to
// every uploaded document at once.
const AllDocuments = "__ALL__"

// Summary is the per-document metadata the backend reports after upload.
type Summary struct {
	Pages int     `json:"pages"`
	Size  float64 `json:"size"` // KB
}

// PDFList is returned by /get_pdfs, /upload, /remove_pdf and /remove_all_pdfs.
// Summaries is only present for /get_pdfs and /upload.
type PDFList struct {
	Status    string             `json:"status,omitempty"`
	Message   string             `json:"message,omitempty"`
	PDFNames  []string           `json:"pdf_names" validate:"required"`
	Summaries map[string]Summary `json:"summaries,omitempty"`
}

// HistoryMessage is one chat turn as stored by the backend. Role is "user"
// for user turns; the backend writes "bot" for its own replies.
type HistoryMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	PDFName string `json:"pdf_name"`
}

// RemoveRequest is the body of POST /remove_pdf.
type RemoveRequest struct {
	Filename string `json:"filename"`
}

type historyResponse struct {
	History []HistoryMessage `json:"history" validate:"required,dive"`
}

type chatResponse struct {
	Reply *string `json:"reply" validate:"required"`
}

type statusResponse struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message,omitempty"`
}

// File is one document payload for Upload.
type File struct {
	Name    string
	Content []byte
}

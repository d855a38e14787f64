// Package apitest provides an in-memory PDF chat backend for tests. It keeps
// per-cookie sessions the way the real server does and records every
// request it serves.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jwulff/pdfchat/internal/api"
)

const sessionCookie = "session"

type document struct {
	pages int
	size  float64
}

type state struct {
	order   []string
	docs    map[string]document
	history map[string][]api.HistoryMessage
}

func newState() *state {
	return &state{
		docs:    make(map[string]document),
		history: make(map[string][]api.HistoryMessage),
	}
}

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// Server is a fake backend. Reply computes the assistant reply for /chat;
// the default echoes the message.
type Server struct {
	*httptest.Server

	Reply func(message, pdfName string) string

	mu       sync.Mutex
	sessions map[string]*state
	requests []Request
	fail     map[string]int
}

// NewServer starts a fake backend. Close it when done.
func NewServer() *Server {
	s := &Server{
		sessions: make(map[string]*state),
		fail:     make(map[string]int),
		Reply: func(message, _ string) string {
			return "You asked: " + message
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/get_pdfs", s.getPDFs)
	mux.HandleFunc("/upload", s.upload)
	mux.HandleFunc("/remove_pdf", s.removePDF)
	mux.HandleFunc("/remove_all_pdfs", s.removeAll)
	mux.HandleFunc("/get_history", s.getHistory)
	mux.HandleFunc("/chat", s.chat)
	mux.HandleFunc("/reset", s.reset)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// FailNext makes the next n requests to path answer 500.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = n
}

// Requests returns a copy of every request served so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit path.
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Sessions returns how many distinct sessions the server has created.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			data, _ := io.ReadAll(r.Body)
			body = string(data)
			r.Body = io.NopCloser(strings.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
		})
		failing := s.fail[r.URL.Path] > 0
		if failing {
			s.fail[r.URL.Path]--
		}
		s.mu.Unlock()

		if failing {
			http.Error(w, `{"error":"injected failure"}`, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session returns the caller's state, creating one and setting the cookie
// when the request carries none. Callers hold s.mu.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *state {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if st, ok := s.sessions[c.Value]; ok {
			return st
		}
	}
	id := uuid.NewString()
	st := newState()
	s.sessions[id] = st
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/"})
	return st
}

func (s *Server) getPDFs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)

	summaries := make(map[string]api.Summary, len(st.order))
	for _, name := range st.order {
		d := st.docs[name]
		summaries[name] = api.Summary{Pages: d.pages, Size: d.size}
	}
	writeJSON(w, map[string]any{"pdf_names": names(st), "summaries": summaries})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)

	summaries := map[string]api.Summary{}
	for _, fh := range r.MultipartForm.File["pdfs"] {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			continue
		}
		d := document{pages: 1, size: float64(fh.Size) / 1024.0}
		if _, ok := st.docs[fh.Filename]; !ok {
			st.order = append(st.order, fh.Filename)
		}
		st.docs[fh.Filename] = d
		summaries[fh.Filename] = api.Summary{Pages: d.pages, Size: d.size}
	}
	writeJSON(w, map[string]any{"status": "ok", "pdf_names": names(st), "summaries": summaries})
}

func (s *Server) removePDF(w http.ResponseWriter, r *http.Request) {
	var req api.RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)

	if _, ok := st.docs[req.Filename]; !ok {
		writeJSON(w, map[string]any{"status": "error", "message": "PDF not found"})
		return
	}
	delete(st.docs, req.Filename)
	delete(st.history, req.Filename)
	kept := st.order[:0]
	for _, n := range st.order {
		if n != req.Filename {
			kept = append(kept, n)
		}
	}
	st.order = kept
	writeJSON(w, map[string]any{"status": "ok", "pdf_names": names(st)})
}

func (s *Server) removeAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)
	*st = *newState()
	writeJSON(w, map[string]any{"status": "ok", "pdf_names": []string{}})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	pdfName := r.URL.Query().Get("pdf_name")

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)

	history := []api.HistoryMessage{}
	if pdfName == api.AllDocuments {
		for _, h := range st.history {
			history = append(history, h...)
		}
	} else {
		history = append(history, st.history[pdfName]...)
	}
	writeJSON(w, map[string]any{"history": history})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.session(w, r)

	if len(st.docs) == 0 {
		writeJSON(w, map[string]any{"reply": "No PDF uploaded. Please upload a PDF first."})
		return
	}
	if _, ok := st.docs[req.PDFName]; !ok && req.PDFName != api.AllDocuments {
		writeJSON(w, map[string]any{"reply": "PDF not found or has been removed. Please upload or select a valid PDF."})
		return
	}

	reply := s.Reply(strings.TrimSpace(req.Message), req.PDFName)
	st.history[req.PDFName] = append(st.history[req.PDFName],
		api.HistoryMessage{Role: "user", Content: strings.TrimSpace(req.Message)},
		api.HistoryMessage{Role: "bot", Content: reply},
	)
	writeJSON(w, map[string]any{"reply": reply})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, err := r.Cookie(sessionCookie); err == nil {
		delete(s.sessions, c.Value)
	}
	writeJSON(w, map[string]any{"status": "ok"})
}

func names(st *state) []string {
	out := make([]string, 0, len(st.order))
	return append(out, st.order...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}

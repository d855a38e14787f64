package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 * 1024 * 1024

var validate = validator.New()

// CookieStore persists the backend session cookies between runs.
type CookieStore interface {
	Cookies(origin string) ([]*http.Cookie, error)
	SaveCookies(origin string, cookies []*http.Cookie) error
}

// Client talks to the PDF chat backend over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	cookies CookieStore
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is replaced
// by the client's own jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithCookieStore restores session cookies from s and saves them back after
// every response that sets one.
func WithCookieStore(s CookieStore) Option {
	return func(c *Client) { c.cookies = s }
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	c := &Client{
		base: base,
		http: &http.Client{},
		jar:  jar,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = jar

	if c.cookies != nil {
		saved, err := c.cookies.Cookies(c.origin())
		if err != nil {
			c.log.Warn("restore cookies", zap.Error(err))
		} else if len(saved) > 0 {
			c.jar.SetCookies(c.base, saved)
		}
	}

	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// ListPDFs fetches the current document set and summaries.
func (c *Client) ListPDFs(ctx context.Context) (PDFList, error) {
	var out PDFList
	err := c.do(ctx, http.MethodGet, "/get_pdfs", nil, nil, "", &out)
	return out, err
}

// Upload sends files as repeated "pdfs" multipart fields.
func (c *Client) Upload(ctx context.Context, files []File) (PDFList, error) {
	if len(files) == 0 {
		return PDFList{}, ErrNoFiles
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("pdfs", f.Name)
		if err != nil {
			return PDFList{}, fmt.Errorf("build upload: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return PDFList{}, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return PDFList{}, fmt.Errorf("build upload: %w", err)
	}

	var out PDFList
	err := c.do(ctx, http.MethodPost, "/upload", nil, &buf, mw.FormDataContentType(), &out)
	return out, err
}

// RemovePDF removes one document and returns the remaining names.
func (c *Client) RemovePDF(ctx context.Context, name string) ([]string, error) {
	body, err := json.Marshal(RemoveRequest{Filename: name})
	if err != nil {
		return nil, fmt.Errorf("marshal remove: %w", err)
	}
	var out PDFList
	if err := c.do(ctx, http.MethodPost, "/remove_pdf", nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return out.PDFNames, nil
}

// RemoveAllPDFs removes every document and returns the (empty) remaining set.
func (c *Client) RemoveAllPDFs(ctx context.Context) ([]string, error) {
	var out PDFList
	if err := c.do(ctx, http.MethodPost, "/remove_all_pdfs", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return out.PDFNames, nil
}

// History fetches the transcript for a document name or AllDocuments.
func (c *Client) History(ctx context.Context, pdfName string) ([]HistoryMessage, error) {
	var out historyResponse
	q := url.Values{"pdf_name": {pdfName}}
	if err := c.do(ctx, http.MethodGet, "/get_history", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// Chat sends a message scoped to pdfName and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, message, pdfName string) (string, error) {
	body, err := json.Marshal(ChatRequest{Message: message, PDFName: pdfName})
	if err != nil {
		return "", fmt.Errorf("marshal chat: %w", err)
	}
	var out chatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return "", err
	}
	return *out.Reply, nil
}

// Reset clears the whole backend session: documents and histories.
func (c *Client) Reset(ctx context.Context) error {
	var out statusResponse
	return c.do(ctx, http.MethodPost, "/reset", nil, nil, "", &out)
}

// statusCarrier is implemented by responses that can report status "error"
// with a 200.
type statusCarrier interface {
	serverStatus() (status, message string)
}

func (l PDFList) serverStatus() (string, string)        { return l.Status, l.Message }
func (s statusResponse) serverStatus() (string, string) { return s.Status, s.Message }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if len(resp.Cookies()) > 0 {
		c.persistCookies()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, path, err)
	}
	if sc, ok := out.(statusCarrier); ok {
		if status, msg := sc.serverStatus(); status == "error" {
			return &ServerError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *Client) persistCookies() {
	if c.cookies == nil {
		return
	}
	if err := c.cookies.SaveCookies(c.origin(), c.jar.Cookies(c.base)); err != nil {
		c.log.Warn("save cookies", zap.Error(err))
	}
}

func (c *Client) origin() string {
	return c.base.Scheme + "://" + c.base.Host
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(data []byte) string {
	var probe struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &probe) == nil {
		if probe.Message != "" {
			return probe.Message
		}
		if probe.Error != "" {
			return probe.Error
		}
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/pdfchat/internal/api/apitest"
)

// isolate keeps config, database and log inside a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PDFCHAT_URL", "")
	t.Setenv("PDFCHAT_TIMEOUT", "")
	t.Setenv("PDFCHAT_DB", filepath.Join(dir, "pdfchat.db"))
	t.Setenv("PDFCHAT_LOG_FILE", filepath.Join(dir, "pdfchat.log"))
	t.Setenv("PDFCHAT_SPEECH", "false")
	return dir
}

// run executes one CLI invocation against srv and returns its stdout.
func run(t *testing.T, srv *apitest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0o644))
	return path
}

func TestListEmpty(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	out, err := run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "No PDF uploaded.\n", out)
}

func TestUploadThenListKeepsSession(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docs, 0o755))
	writePDF(t, docs, "a.pdf")
	writePDF(t, docs, "b.pdf")

	out, err := run(t, srv, "", "upload", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded 2 PDF(s)")

	// The session cookie is persisted, so a second invocation sees the same set.
	out, err = run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a.pdf\t1 pages")
	assert.Contains(t, out, "b.pdf\t1 pages")
	assert.Equal(t, 1, srv.Sessions())
}

func TestUploadNothingMakesNoRequest(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := run(t, srv, "", "upload", filepath.Join(dir, "missing-*.pdf"))
	require.Error(t, err)
	assert.Zero(t, srv.Count("/upload"))
}

func TestAskDefaultsToSoleDocument(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	var scoped string
	srv.Reply = func(message, pdfName string) string {
		scoped = pdfName
		return "You asked: " + message
	}

	_, err := run(t, srv, "", "upload", writePDF(t, dir, "only.pdf"))
	require.NoError(t, err)

	out, err := run(t, srv, "", "ask", "--raw", "what", "is", "this?")
	require.NoError(t, err)
	assert.Equal(t, "You asked: what is this?\n", out)
	assert.Equal(t, "only.pdf", scoped)
}

func TestAskAllDocuments(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	var scoped string
	srv.Reply = func(message, pdfName string) string {
		scoped = pdfName
		return "ok"
	}

	_, err := run(t, srv, "", "upload", writePDF(t, dir, "a.pdf"), writePDF(t, dir, "b.pdf"))
	require.NoError(t, err)

	_, err = run(t, srv, "", "ask", "--raw", "summarize")
	require.NoError(t, err)
	assert.Equal(t, "__ALL__", scoped)

	_, err = run(t, srv, "", "ask", "--raw", "--pdf", "b.pdf", "and this one?")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", scoped)
}

func TestAskWithoutDocumentsFails(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := run(t, srv, "", "ask", "hello")
	require.ErrorIs(t, err, errNoDocuments)
	assert.Zero(t, srv.Count("/chat"))
}

func TestHistory(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := run(t, srv, "", "upload", writePDF(t, dir, "a.pdf"))
	require.NoError(t, err)

	out, err := run(t, srv, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "Start chatting about this PDF!\n", out)

	_, err = run(t, srv, "", "ask", "--raw", "hello")
	require.NoError(t, err)

	out, err = run(t, srv, "", "history", "--pdf", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "you: hello\nassistant: You asked: hello\n", out)
}

func TestRemoveConfirmation(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := run(t, srv, "", "upload", writePDF(t, dir, "a.pdf"), writePDF(t, dir, "b.pdf"))
	require.NoError(t, err)

	out, err := run(t, srv, "n\n", "remove", "a.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, `Remove "a.pdf"? [y/N]`)
	assert.Zero(t, srv.Count("/remove_pdf"))

	out, err = run(t, srv, "y\n", "remove", "a.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed a.pdf; 1 left.")

	out, err = run(t, srv, "", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "b.pdf\t"), out)
	assert.NotContains(t, out, "a.pdf")
}

func TestRemoveAllAndReset(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := run(t, srv, "", "upload", writePDF(t, dir, "a.pdf"), writePDF(t, dir, "b.pdf"))
	require.NoError(t, err)

	out, err := run(t, srv, "", "remove-all", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Removed all PDFs.\n", out)

	out, err = run(t, srv, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "No PDF uploaded.\n", out)

	out, err = run(t, srv, "", "reset")
	require.NoError(t, err)
	assert.Equal(t, "Session reset.\n", out)
}

func TestServerErrorSurfaces(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()
	srv.FailNext("/get_pdfs", 1)

	_, err := run(t, srv, "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list PDFs")
}

func TestFailedCommandReleasesStore(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()
	srv.FailNext("/get_pdfs", 1)

	c := &cli{}
	cmd := c.command()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", srv.URL, "list"})

	require.Error(t, cmd.Execute())
	assert.Nil(t, c.store, "store should be closed after a failed run")
	assert.Nil(t, c.log, "logger should be synced and released after a failed run")
}

func TestURLFlagOverridesBadConfigFile(t *testing.T) {
	dir := isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  base_url: not-a-url\n"), 0o644))

	out, err := run(t, srv, "", "--config", path, "list")
	require.NoError(t, err)
	assert.Equal(t, "No PDF uploaded.\n", out)
}

func TestInvalidURLRejected(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer()
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "not a url", "list"})
	require.Error(t, cmd.Execute())
}

package markdown

import (
	"strings"
	"testing"
)

func TestRenderKeepsText(t *testing.T) {
	r := New(60, true)
	out := r.Render("The answer is **42**.")
	if !strings.Contains(out, "42") {
		t.Errorf("rendered output lost content: %q", out)
	}
	if strings.Contains(out, "**") {
		t.Errorf("emphasis markers not rendered: %q", out)
	}
}

func TestRenderBlankPassesThrough(t *testing.T) {
	r := New(60, false)
	for _, in := range []string{"", "   "} {
		if got := r.Render(in); got != in {
			t.Errorf("Render(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestRenderTrimsOuterNewlines(t *testing.T) {
	r := New(40, false)
	out := r.Render("hello")
	if strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
		t.Errorf("output has outer newlines: %q", out)
	}
}

func TestSetDarkAndWidthRebuild(t *testing.T) {
	r := New(40, false)
	r.Render("x")
	if r.term == nil {
		t.Fatal("renderer not built")
	}

	r.SetDark(false)
	if r.term == nil {
		t.Error("unchanged theme should keep the renderer")
	}
	r.SetDark(true)
	if r.term != nil {
		t.Error("theme change should drop the renderer")
	}

	r.Render("x")
	r.SetWidth(80)
	if r.term != nil {
		t.Error("width change should drop the renderer")
	}
}

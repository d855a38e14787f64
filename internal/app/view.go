package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/pdfchat/internal/session"
)

// Rows outside the main panels: header, status, two dividers, toast,
// input and footer.
const reservedRows = 7

func (m Model) docsPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(24, m.width*30/100)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.docsPanelWidth()-1)
}

func (m Model) bodyHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(5, m.height-reservedRows)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	tw := m.transcriptPanelWidth()
	m.viewport.Width = tw - 2
	m.viewport.Height = m.bodyHeight() - 1
	m.md.SetWidth(max(20, tw-6))
	m.input.Width = max(10, width-6)
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	divider := m.styles.Divider.Render(strings.Repeat("─", m.width))

	var main string
	if m.confirm.kind != confirmNone {
		main = m.renderConfirm()
	} else {
		main = m.renderMainContent()
	}

	return strings.Join([]string{
		m.renderHeader(),
		m.renderStatusBar(),
		divider,
		main,
		divider,
		m.renderToast(),
		m.input.View(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) selectionLabel() string {
	switch sel := m.sess.Selection(); sel {
	case "":
		return "No PDF uploaded."
	case session.AllDocuments:
		return "PDF: All PDFs"
	default:
		return "PDF: " + sel
	}
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("PDF CHAT")
	label := m.styles.Dim.Render(" — " + m.selectionLabel())

	var badge string
	if m.dark {
		badge = m.styles.DarkBadge.Render(" [DARK]")
	}
	return title + label + badge
}

func (m Model) renderStatusBar() string {
	n := len(m.sess.Documents())
	parts := []string{m.styles.Status.Render(fmt.Sprintf("📄 %d PDF(s)", n))}

	sp := m.sess.Speech()
	if sp.Listening() {
		parts = append(parts, m.styles.ListeningDot.Render("● LISTENING"))
	} else if m.recognizer != nil && m.recognizer.Available() {
		parts = append(parts, m.styles.IdleDot.Render("○ MIC"))
	} else {
		parts = append(parts, m.styles.IdleDot.Render("🚫 MIC"))
	}
	if sp.Speaking() {
		parts = append(parts, m.styles.SpeakingDot.Render("♪ SPEAKING"))
	}
	if m.inflight > 0 {
		parts = append(parts, m.spinner.View()+m.styles.Dim.Render(" working"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderMainContent() string {
	h := m.bodyHeight()
	docs := m.renderDocsPanel(m.docsPanelWidth(), h)
	transcript := m.renderTranscriptPanel(h)

	col := make([]string, h)
	for i := range col {
		col[i] = m.styles.Divider.Render("│")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, docs, strings.Join(col, "\n"), transcript)
}

func (m Model) renderDocsPanel(width, height int) string {
	entries := m.docEntries()

	title := fmt.Sprintf("PDFS (%d)", len(m.sess.Documents()))
	var header string
	if m.focus == FocusDocs {
		header = m.styles.PanelTitleActive.Render(title)
	} else {
		header = m.styles.PanelTitle.Render(title)
	}

	lines := []string{header}
	if len(entries) == 0 {
		lines = append(lines, m.styles.Dim.Render("  No PDFs yet"))
	}
	for i, id := range entries {
		label := id
		if id == session.AllDocuments {
			label = "All PDFs"
		}
		label = truncateToWidth("📄 "+label, width-4)

		marker := "  "
		if i == m.docCursor && m.focus == FocusDocs {
			marker = m.styles.Cursor.Render("> ")
		}
		if id == m.sess.Selection() {
			label = m.styles.Selected.Render(label)
		}
		lines = append(lines, marker+label)

		if sum, ok := m.sess.Summary(id); ok {
			lines = append(lines, m.styles.Dim.Render("     "+formatSummary(sum)))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTranscriptPanel(height int) string {
	var header string
	if m.focus == FocusInput {
		header = m.styles.PanelTitleActive.Render(" CHAT")
	} else {
		header = m.styles.PanelTitle.Render(" CHAT")
	}
	body := lipgloss.NewStyle().PaddingLeft(1).Render(m.viewport.View())
	return lipgloss.NewStyle().Height(height).Render(header + "\n" + body)
}

// renderTranscript renders every entry for the viewport.
func (m Model) renderTranscript() string {
	width := max(10, m.viewport.Width-2)
	wrap := lipgloss.NewStyle().Width(width)

	var blocks []string
	if m.sess.Empty() {
		blocks = append(blocks, m.styles.Welcome.Render(
			m.styles.Title.Render("Welcome to PDF Chat")+"\n\n"+
				"Upload PDFs with /upload <files> and ask\n"+
				"questions about them. ctrl+r speaks a question.",
		))
	}

	for _, e := range m.sess.Transcript().Entries() {
		switch {
		case e.Pending:
			blocks = append(blocks, m.styles.Pending.Render("⋯ "+e.Text))
		case e.Role == session.RoleUser:
			blocks = append(blocks, m.styles.UserLabel.Render("🧑 You")+"\n"+wrap.Render(e.Text))
		case e.Role == session.RoleAssistant:
			blocks = append(blocks, m.styles.AssistantLabel.Render("🤖 Assistant")+"\n"+m.md.Render(e.Text))
		default:
			blocks = append(blocks, m.styles.Notice.Render(wrap.Render(e.Text)))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderConfirm() string {
	box := m.styles.Modal.Render(
		m.styles.Title.Render(m.confirm.prompt()) + "\n\n" +
			m.styles.FooterKey.Render("y") + m.styles.FooterDesc.Render(" Yes   ") +
			m.styles.FooterKey.Render("n") + m.styles.FooterDesc.Render(" No"),
	)
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderToast() string {
	switch m.toast.Kind {
	case ToastSuccess:
		return m.styles.ToastSuccess.Render(m.toast.Text)
	case ToastDanger:
		return m.styles.ToastDanger.Render(m.toast.Text)
	default:
		return m.styles.ToastInfo.Render(m.toast.Text)
	}
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return m.styles.FooterKey.Render(k) + m.styles.FooterDesc.Render(" "+desc)
	}

	var parts []string
	if m.focus == FocusDocs {
		parts = append(parts,
			key("j/k", "Nav"),
			key("Enter", "Select"),
			key("x", "Remove"),
			key("X", "Remove all"),
			key("q", "Quit"),
		)
	} else {
		parts = append(parts,
			key("Enter", "Send"),
			key("/upload", "Add PDFs"),
			key("^C", "Quit"),
		)
	}
	parts = append(parts,
		key("Tab", "Focus"),
		key("^R", "Mic"),
		key("^T", "Dark"),
		key("PgUp/PgDn", "Scroll"),
	)
	return strings.Join(parts, "  ")
}

// formatSummary renders summary metadata the way the document list shows it.
func formatSummary(s session.Summary) string {
	return fmt.Sprintf("%d pages, %s KB", s.Pages, strconv.FormatFloat(s.SizeKB, 'f', -1, 64))
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

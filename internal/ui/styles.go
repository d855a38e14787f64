package ui

import "github.com/charmbracelet/lipgloss"

// Palette is one color scheme.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Subtle  lipgloss.Color
	Danger  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Card    lipgloss.Color
	Dark    bool
}

// LightPalette is the default scheme.
func LightPalette() Palette {
	return Palette{
		Primary: lipgloss.Color("#0E7490"),
		Accent:  lipgloss.Color("#A21CAF"),
		Text:    lipgloss.Color("#1F2937"),
		Muted:   lipgloss.Color("#6B7280"),
		Subtle:  lipgloss.Color("#D1D5DB"),
		Danger:  lipgloss.Color("#DC2626"),
		Success: lipgloss.Color("#16A34A"),
		Warning: lipgloss.Color("#B45309"),
		Card:    lipgloss.Color("#F3F4F6"),
	}
}

// DarkPalette is the dark-mode scheme.
func DarkPalette() Palette {
	return Palette{
		Primary: lipgloss.Color("#00FFFF"),
		Accent:  lipgloss.Color("#FF00FF"),
		Text:    lipgloss.Color("#FFFFFF"),
		Muted:   lipgloss.Color("#666666"),
		Subtle:  lipgloss.Color("#444444"),
		Danger:  lipgloss.Color("#FF5555"),
		Success: lipgloss.Color("#00FF00"),
		Warning: lipgloss.Color("#FFFF00"),
		Card:    lipgloss.Color("#1F2937"),
		Dark:    true,
	}
}

// Styles are the lipgloss styles for one palette.
type Styles struct {
	Palette Palette

	Title  lipgloss.Style
	Header lipgloss.Style
	Status lipgloss.Style

	ListeningDot lipgloss.Style
	SpeakingDot  lipgloss.Style
	IdleDot      lipgloss.Style
	DarkBadge    lipgloss.Style

	PanelTitle       lipgloss.Style
	PanelTitleActive lipgloss.Style
	Selected         lipgloss.Style
	Cursor           lipgloss.Style
	Dim              lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Notice         lipgloss.Style
	Pending        lipgloss.Style

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastDanger  lipgloss.Style

	Modal   lipgloss.Style
	Welcome lipgloss.Style

	FooterKey  lipgloss.Style
	FooterDesc lipgloss.Style
	Divider    lipgloss.Style
	Spinner    lipgloss.Style
}

// New returns the styles for dark or light mode.
func New(dark bool) Styles {
	p := LightPalette()
	if dark {
		p = DarkPalette()
	}

	return Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Header: lipgloss.NewStyle().
			Foreground(p.Primary),
		Status: lipgloss.NewStyle().
			Foreground(p.Muted),

		ListeningDot: lipgloss.NewStyle().
			Foreground(p.Danger).
			Bold(true),
		SpeakingDot: lipgloss.NewStyle().
			Foreground(p.Success).
			Bold(true),
		IdleDot: lipgloss.NewStyle().
			Foreground(p.Muted),
		DarkBadge: lipgloss.NewStyle().
			Foreground(p.Warning).
			Bold(true),

		PanelTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text),
		PanelTitleActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Selected: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),
		Dim: lipgloss.NewStyle().
			Foreground(p.Muted),

		UserLabel: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),
		Notice: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),
		Pending: lipgloss.NewStyle().
			Foreground(p.Warning),

		ToastInfo: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		ToastSuccess: lipgloss.NewStyle().
			Foreground(p.Success).
			Bold(true),
		ToastDanger: lipgloss.NewStyle().
			Foreground(p.Danger).
			Bold(true),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Danger).
			Padding(1, 3),
		Welcome: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),

		FooterKey: lipgloss.NewStyle().
			Foreground(p.Warning).
			Bold(true),
		FooterDesc: lipgloss.NewStyle().
			Foreground(p.Muted),
		Divider: lipgloss.NewStyle().
			Foreground(p.Subtle),
		Spinner: lipgloss.NewStyle().
			Foreground(p.Accent),
	}
}

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/pdfchat/internal/app"
	"github.com/jwulff/pdfchat/internal/logging"
	"github.com/jwulff/pdfchat/internal/speech"
)

// runTUI starts the interactive interface.
func (c *cli) runTUI() error {
	timeout, err := c.cfg.Timeout()
	if err != nil {
		return err
	}
	opts := app.Options{
		Backend:      c.client,
		Preferences:  c.store,
		Log:          logging.Module(c.log, "app"),
		Timeout:      timeout,
		MuteHistory:  !c.cfg.Speech.SpeakHistory,
	}
	if c.cfg.Speech.Enabled {
		opts.Recognizer = speech.NewDaemonRecognizer(
			c.cfg.Speech.DaemonSocket,
			c.cfg.Speech.Locale,
			logging.Module(c.log, "speech"),
		)
		opts.Synthesizer = speech.NewCommandSynthesizer(
			c.cfg.Speech.Synthesizer,
			c.cfg.Speech.Rate,
			logging.Module(c.log, "speech"),
		)
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/lifeskills-engine/internal/config"
	"github.com/jwebster45206/lifeskills-engine/internal/logger"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	catalog, err := loadCatalog(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load content: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so engine logs are dropped.
	ctrl := session.NewController(catalog, session.WithLogger(logger.Discard()))
	pacer := session.NewPacer(ctrl, session.SystemClock(), session.Delays{
		Tip:     cfg.TipDelay,
		Advance: cfg.AdvanceDelay,
	})

	var p *tea.Program
	ui := NewConsoleUI(ctrl, pacer)
	ui.SetSender(func(msg tea.Msg) { p.Send(msg) })

	p = tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// loadCatalog opens the configured content. Rejected stories are reported
// to w and skipped unless STRICT_CONTENT is set.
func loadCatalog(cfg *config.Config, w io.Writer) (*content.Catalog, error) {
	catalog, err := content.Open(cfg.ContentPath)
	if catalog == nil {
		return nil, err
	}
	if err != nil {
		if cfg.StrictContent {
			return nil, err
		}
		fmt.Fprintf(w, "Some content was rejected and will be skipped:\n%v\n", err)
	}
	if len(catalog.Stories()) == 0 {
		return nil, fmt.Errorf("no playable stories in %s", cfg.ContentPath)
	}
	return catalog, nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/freebet/internal/counting"
	"github.com/lox/freebet/internal/randutil"
	"github.com/lox/freebet/internal/tui"
	"github.com/muesli/termenv"
)

// DrillCmd runs the Hi-Lo counting drill
type DrillCmd struct {
	Pace    time.Duration `default:"1s" help:"Pause between cards"`
	NoColor bool          `help:"Disable colours"`
	LogFile string        `help:"Write logs to this file; the drill owns the terminal"`
}

func (c *DrillCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	logger := g.newLogger(logOut, cfg)

	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if c.Pace <= 0 {
		return fmt.Errorf("pace must be positive, got %s", c.Pace)
	}

	drill := counting.NewDrill(randutil.New(g.seed(logger)))
	return tui.RunDrill(drill, logger, tui.WithDrillPace(c.Pace))
}

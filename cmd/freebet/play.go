package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/freebet/internal/game"
	"github.com/lox/freebet/internal/randutil"
	"github.com/lox/freebet/internal/statsfile"
	"github.com/lox/freebet/internal/tui"
	"github.com/muesli/termenv"
)

// PlayCmd runs the terminal table
type PlayCmd struct {
	StatsFile   string         `env:"FREEBET_STATS_FILE" help:"Statistics file (overrides config)"`
	RevealDelay *time.Duration `help:"Pause between dealer cards, 0 to play the dealer out at once (overrides config)"`
	Bet         string         `help:"Opening bet (defaults to the table minimum)"`
	ShowCount   bool           `help:"Show the Hi-Lo count panel at start"`
	NoColor     bool           `help:"Disable colours"`
	LogFile     string         `help:"Write logs to this file; the table owns the terminal"`
}

func (c *PlayCmd) Run(g *Globals) error {
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

	delay, err := cfg.RevealDelay()
	if err != nil {
		return err
	}
	if c.RevealDelay != nil {
		delay = *c.RevealDelay
	}

	statsPath := cfg.Play.StatsFile
	if c.StatsFile != "" {
		statsPath = c.StatsFile
	}
	stats, err := statsfile.Load(statsPath)
	if err != nil {
		return fmt.Errorf("stats file %s: %w", statsPath, err)
	}

	rules := cfg.Rules()
	bet := rules.MinBet
	if c.Bet != "" {
		if bet, err = game.ParseBet(c.Bet); err != nil {
			return err
		}
	}

	seed := g.seed(logger)
	engine := game.NewEngine(randutil.New(seed), logger,
		game.WithRules(rules),
		game.WithStats(stats))

	logger.Info("Starting table",
		"decks", rules.NumDecks,
		"balance", engine.Balance(),
		"stats_file", statsPath,
		"reveal_delay", delay)

	save := func(s game.Stats) error {
		return statsfile.Save(statsPath, s)
	}
	return tui.Run(engine, logger,
		tui.WithRevealDelay(delay),
		tui.WithStatsSaver(save),
		tui.WithShowCount(c.ShowCount || cfg.Play.ShowCount),
		tui.WithBet(bet))
}

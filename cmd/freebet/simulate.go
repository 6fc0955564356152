package main

import (
	"os"

	"github.com/lox/freebet/internal/simulator"
	"github.com/shopspring/decimal"
)

// SimulateCmd plays rounds with basic strategy and reports the results
type SimulateCmd struct {
	Rounds       int     `short:"n" help:"Rounds to play (overrides config)"`
	Workers      int     `short:"w" help:"Worker goroutines, 0 for one per CPU (overrides config)"`
	Bet          float64 `help:"Base bet (overrides config)"`
	CountBetting bool    `help:"Size bets from the Hi-Lo true count"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := g.newLogger(os.Stderr, cfg)

	rounds := cfg.Simulate.Rounds
	if c.Rounds > 0 {
		rounds = c.Rounds
	}
	workers := cfg.Simulate.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}
	bet := cfg.Simulate.Bet
	if c.Bet > 0 {
		bet = c.Bet
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	sim := simulator.New(simulator.Config{
		Rounds:       rounds,
		Workers:      workers,
		Bet:          decimal.NewFromFloat(bet),
		CountBetting: c.CountBetting || cfg.Simulate.CountBetting,
		Seed:         g.seed(logger),
		Rules:        cfg.Rules(),
		Logger:       logger,
	})
	result, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	simulator.PrintSummary(os.Stdout, result)
	return nil
}

// Package config loads table rules and command settings from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/freebet/internal/game"
	"github.com/shopspring/decimal"
)

// DefaultFile is the config file looked up when none is given
const DefaultFile = "freebet.hcl"

// Config is the complete file configuration
type Config struct {
	LogLevel string            `hcl:"log_level,optional"`
	Table    *TableSettings    `hcl:"table,block"`
	Play     *PlaySettings     `hcl:"play,block"`
	Server   *ServerSettings   `hcl:"server,block"`
	Simulate *SimulateSettings `hcl:"simulate,block"`
}

// TableSettings are the house rules. Pointer fields distinguish an explicit
// zero from an omitted value.
type TableSettings struct {
	NumDecks         int      `hcl:"num_decks,optional"`
	MinBet           float64  `hcl:"min_bet,optional"`
	MaxBet           *float64 `hcl:"max_bet,optional"`
	StartingBalance  float64  `hcl:"starting_balance,optional"`
	ReshuffleBelow   *int     `hcl:"reshuffle_below,optional"`
	CountResetBelow  *int     `hcl:"count_reset_below,optional"`
	DealerHitsSoft17 bool     `hcl:"dealer_hits_soft_17,optional"`
}

// PlaySettings configure the terminal player
type PlaySettings struct {
	StatsFile   string `hcl:"stats_file,optional"`
	RevealDelay string `hcl:"reveal_delay,optional"`
	ShowCount   bool   `hcl:"show_count,optional"`
}

// ServerSettings configure the session server
type ServerSettings struct {
	Address        string   `hcl:"address,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

// SimulateSettings configure the simulator
type SimulateSettings struct {
	Rounds       int     `hcl:"rounds,optional"`
	Workers      int     `hcl:"workers,optional"`
	Bet          float64 `hcl:"bet,optional"`
	CountBetting bool    `hcl:"count_betting,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source, applies defaults and validates the result
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", formatDiags(diags))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func formatDiags(diags hcl.Diagnostics) string {
	if len(diags) == 1 {
		return diags[0].Error()
	}
	return diags.Error()
}

func (c *Config) applyDefaults() {
	defaults := game.DefaultRules()

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Table == nil {
		c.Table = &TableSettings{}
	}
	t := c.Table
	if t.NumDecks == 0 {
		t.NumDecks = defaults.NumDecks
	}
	if t.MinBet == 0 {
		t.MinBet = defaults.MinBet.InexactFloat64()
	}
	if t.MaxBet == nil {
		v := defaults.MaxBet.InexactFloat64()
		t.MaxBet = &v
	}
	if t.StartingBalance == 0 {
		t.StartingBalance = defaults.StartingBalance.InexactFloat64()
	}
	if t.ReshuffleBelow == nil {
		v := defaults.ReshuffleBelow
		t.ReshuffleBelow = &v
	}
	if t.CountResetBelow == nil {
		v := defaults.CountResetBelow
		t.CountResetBelow = &v
	}

	if c.Play == nil {
		c.Play = &PlaySettings{}
	}
	if c.Play.StatsFile == "" {
		c.Play.StatsFile = "blackjack_stats.json"
	}
	if c.Play.RevealDelay == "" {
		c.Play.RevealDelay = "1s"
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost:8080"
	}

	if c.Simulate == nil {
		c.Simulate = &SimulateSettings{}
	}
	if c.Simulate.Rounds == 0 {
		c.Simulate.Rounds = 100000
	}
	if c.Simulate.Workers == 0 {
		c.Simulate.Workers = runtime.NumCPU()
	}
	if c.Simulate.Bet == 0 {
		c.Simulate.Bet = t.MinBet
	}
}

// Rules converts the table block into engine rules
func (c *Config) Rules() game.Rules {
	t := c.Table
	return game.Rules{
		NumDecks:         t.NumDecks,
		MinBet:           decimal.NewFromFloat(t.MinBet),
		MaxBet:           decimal.NewFromFloat(*t.MaxBet),
		StartingBalance:  decimal.NewFromFloat(t.StartingBalance),
		ReshuffleBelow:   *t.ReshuffleBelow,
		CountResetBelow:  *t.CountResetBelow,
		DealerHitsSoft17: t.DealerHitsSoft17,
	}
}

// RevealDelay parses the play block's reveal delay
func (c *Config) RevealDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Play.RevealDelay)
	if err != nil {
		return 0, fmt.Errorf("play: invalid reveal_delay %q: %w", c.Play.RevealDelay, err)
	}
	return d, nil
}

// Validate checks ranges across all blocks
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if d, err := c.RevealDelay(); err != nil {
		return err
	} else if d < 0 {
		return fmt.Errorf("play: reveal_delay must not be negative")
	}
	if c.Simulate.Rounds < 1 {
		return fmt.Errorf("simulate: rounds must be positive, got %d", c.Simulate.Rounds)
	}
	if c.Simulate.Workers < 1 {
		return fmt.Errorf("simulate: workers must be positive, got %d", c.Simulate.Workers)
	}
	if c.Simulate.Bet < c.Table.MinBet {
		return fmt.Errorf("simulate: bet %v is below the table minimum %v", c.Simulate.Bet, c.Table.MinBet)
	}
	return nil
}

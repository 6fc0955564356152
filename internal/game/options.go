package game

import (
	"fmt"

	"github.com/lox/freebet/internal/deck"
	"github.com/shopspring/decimal"
)

// Rules are the table parameters of an engine
type Rules struct {
	NumDecks         int             `json:"numDecks"`
	MinBet           decimal.Decimal `json:"minBet"`
	MaxBet           decimal.Decimal `json:"maxBet"` // zero means no table maximum
	StartingBalance  decimal.Decimal `json:"startingBalance"`
	ReshuffleBelow   int             `json:"reshuffleBelow"`  // refill the shoe at round start below this many cards
	CountResetBelow  int             `json:"countResetBelow"` // reset the count at round start below this many cards
	DealerHitsSoft17 bool            `json:"dealerHitsSoft17"`
}

// DefaultRules returns a six deck table with a 5 minimum and 500 maximum
func DefaultRules() Rules {
	return Rules{
		NumDecks:        6,
		MinBet:          decimal.NewFromInt(5),
		MaxBet:          decimal.NewFromInt(500),
		StartingBalance: decimal.NewFromInt(1000),
		ReshuffleBelow:  50,
		CountResetBelow: 3 * deck.CardsPerDeck,
	}
}

// Validate checks that the rules describe a playable table
func (r Rules) Validate() error {
	if r.NumDecks < 1 || r.NumDecks > 8 {
		return fmt.Errorf("num_decks must be between 1 and 8, got %d", r.NumDecks)
	}
	if !r.MinBet.IsPositive() {
		return fmt.Errorf("min_bet must be positive, got %s", r.MinBet)
	}
	if r.MaxBet.IsNegative() {
		return fmt.Errorf("max_bet must not be negative, got %s", r.MaxBet)
	}
	if r.MaxBet.IsPositive() && r.MaxBet.LessThan(r.MinBet) {
		return fmt.Errorf("max_bet (%s) must be at least min_bet (%s)", r.MaxBet, r.MinBet)
	}
	if r.StartingBalance.IsNegative() {
		return fmt.Errorf("starting_balance must not be negative, got %s", r.StartingBalance)
	}
	if r.ReshuffleBelow < 0 || r.ReshuffleBelow >= r.NumDecks*deck.CardsPerDeck {
		return fmt.Errorf("reshuffle_below must be between 0 and %d, got %d", r.NumDecks*deck.CardsPerDeck-1, r.ReshuffleBelow)
	}
	if r.CountResetBelow < 0 {
		return fmt.Errorf("count_reset_below must not be negative, got %d", r.CountResetBelow)
	}
	return nil
}

// Option configures an Engine during creation
type Option func(*engineConfig)

type engineConfig struct {
	rules   Rules
	shoe    *deck.Shoe
	balance *decimal.Decimal
	stats   *Stats
}

// WithRules replaces the default table rules
func WithRules(rules Rules) Option {
	return func(c *engineConfig) {
		c.rules = rules
	}
}

// WithShoe uses a prepared shoe instead of building one from the RNG.
// Tests use this together with Shoe.Arrange.
func WithShoe(shoe *deck.Shoe) Option {
	return func(c *engineConfig) {
		c.shoe = shoe
	}
}

// WithBalance overrides the rules' starting balance
func WithBalance(balance decimal.Decimal) Option {
	return func(c *engineConfig) {
		c.balance = &balance
	}
}

// WithStats restores persisted statistics. The balance is taken from the
// last balance history entry, as with SetStats.
func WithStats(stats Stats) Option {
	return func(c *engineConfig) {
		c.stats = &stats
	}
}

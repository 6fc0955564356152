package game

import (
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
)

// Snapshot is a read-only copy of everything a presentation layer needs
type Snapshot struct {
	RoundID        string
	Phase          Phase
	Balance        decimal.Decimal
	Bet            decimal.Decimal
	Hands          []*hand.Hand
	ActiveIndex    int
	Dealer         *hand.Hand
	Recommended    strategy.Action
	Stats          Stats
	RunningCount   int
	TrueCount      float64
	RemainingCards int
	RemainingDecks int
	RecommendedBet decimal.Decimal
	Settlement     *Settlement
}

// Snapshot copies the engine state
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		RoundID:        e.roundID,
		Phase:          e.phase,
		Balance:        e.balance,
		Bet:            e.Bet(),
		Hands:          e.Hands(),
		ActiveIndex:    e.active,
		Dealer:         e.Dealer(),
		Recommended:    e.Recommended(),
		Stats:          e.Stats(),
		RunningCount:   e.counter.RunningCount(),
		TrueCount:      e.TrueCount(),
		RemainingCards: e.shoe.RemainingCards(),
		RemainingDecks: e.shoe.RemainingDecks(),
		RecommendedBet: e.RecommendedBet(),
		Settlement:     e.settlement,
	}
}

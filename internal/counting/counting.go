// Package counting implements a Hi-Lo card counter.
package counting

import (
	"math"

	"github.com/lox/freebet/internal/deck"
	"github.com/shopspring/decimal"
)

// Tracker keeps the Hi-Lo running count for a shoe. The zero value is ready
// to use.
type Tracker struct {
	running    int
	cardsDealt int
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Tag returns the Hi-Lo weight of a rank: +1 for 2-6, -1 for tens and aces
func Tag(r deck.Rank) int {
	switch {
	case r >= deck.Two && r <= deck.Six:
		return 1
	case r >= deck.Ten:
		return -1
	default:
		return 0
	}
}

// Observe counts a face-up card once and marks it counted. Face-down and
// already counted cards are ignored.
func (t *Tracker) Observe(c *deck.Card) {
	if !c.FaceUp || c.Counted {
		return
	}
	t.cardsDealt++
	t.running += Tag(c.Rank)
	c.Counted = true
}

// ObserveAll observes each card in place
func (t *Tracker) ObserveAll(cards []deck.Card) {
	for i := range cards {
		t.Observe(&cards[i])
	}
}

func (t *Tracker) Reset() {
	t.running = 0
	t.cardsDealt = 0
}

func (t *Tracker) RunningCount() int {
	return t.running
}

func (t *Tracker) CardsDealt() int {
	return t.cardsDealt
}

// TrueCount divides the running count by the remaining decks and rounds to
// one decimal, halves rounding up.
func (t *Tracker) TrueCount(remainingDecks int) float64 {
	if remainingDecks <= 0 {
		return 0
	}
	return math.Floor(float64(t.running)/float64(remainingDecks)*10+0.5) / 10
}

// BetMultiplier is the bet ramp: 1 at or below zero, 2 at exactly 1, 4 at
// exactly 2 and 8 from 3 up. Fractional counts in between stay at 1.
func BetMultiplier(trueCount float64) int64 {
	switch {
	case trueCount <= 0:
		return 1
	case trueCount == 1:
		return 2
	case trueCount == 2:
		return 4
	case trueCount >= 3:
		return 8
	default:
		return 1
	}
}

// RecommendedBet scales minBet by the bet ramp and caps it at maxBet.
// A non-positive maxBet means no cap.
func RecommendedBet(trueCount float64, minBet, maxBet decimal.Decimal) decimal.Decimal {
	bet := minBet.Mul(decimal.NewFromInt(BetMultiplier(trueCount)))
	if maxBet.IsPositive() && bet.GreaterThan(maxBet) {
		return maxBet
	}
	return bet
}

// Advice describes the counting situation for a true count
func Advice(trueCount float64) string {
	switch {
	case trueCount <= -3:
		return "The shoe favours the dealer. Bet the minimum."
	case trueCount <= 0:
		return "Slightly unfavourable. Keep to the minimum bet."
	case trueCount == 1:
		return "Slightly favourable. Raise the bet a little."
	case trueCount == 2:
		return "Favourable. Raise the bet."
	default:
		return "Very favourable. Bet the maximum."
	}
}

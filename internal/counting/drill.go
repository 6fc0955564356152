package counting

import (
	"math/rand/v2"

	"github.com/lox/freebet/internal/deck"
)

// Drill deals a single deck one card at a time so a player can practise
// keeping the running count. Unlike a game shoe it never refills: the drill
// ends when the deck runs out.
type Drill struct {
	shoe    *deck.Shoe
	tracker Tracker
	last    deck.Card
	dealt   int
}

// NewDrill returns a drill over a freshly shuffled deck
func NewDrill(rng *rand.Rand) *Drill {
	return NewDrillWithShoe(deck.NewShoe(1, rng))
}

// NewDrillWithShoe runs the drill over an existing shoe, which lets tests
// arrange the order of the cards
func NewDrillWithShoe(shoe *deck.Shoe) *Drill {
	return &Drill{shoe: shoe}
}

// Restart reshuffles a full deck and zeroes the count
func (d *Drill) Restart() {
	d.shoe.Reset(1)
	d.tracker.Reset()
	d.last = deck.Card{}
	d.dealt = 0
}

// Next deals and counts the next card. It returns false once the deck is
// exhausted.
func (d *Drill) Next() (deck.Card, bool) {
	if d.Done() {
		return deck.Card{}, false
	}
	card := d.shoe.Draw(true)
	d.tracker.Observe(&card)
	d.last = card
	d.dealt++
	return card, true
}

// Check compares a guess with the running count of the cards dealt so far
func (d *Drill) Check(guess int) (correct bool, actual int) {
	actual = d.tracker.RunningCount()
	return guess == actual, actual
}

// Last returns the most recently dealt card
func (d *Drill) Last() (deck.Card, bool) {
	return d.last, d.dealt > 0
}

func (d *Drill) Dealt() int {
	return d.dealt
}

func (d *Drill) Remaining() int {
	return d.shoe.RemainingCards()
}

// Done reports whether every card of the deck has been dealt
func (d *Drill) Done() bool {
	return d.shoe.RemainingCards() == 0
}

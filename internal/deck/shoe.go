package deck

import (
	"fmt"
	"math"
	rand "math/rand/v2"
)

// CardsPerDeck is the size of one standard deck
const CardsPerDeck = 52

// Shoe holds one or more 52-card decks shuffled together. The top of the
// shoe is the end of the slice, so drawing is a pop.
type Shoe struct {
	cards    []Card
	numDecks int
	rng      *rand.Rand
	shuffles int // number of fills since creation
}

// NewShoe creates a shuffled shoe of numDecks decks using rng.
// numDecks below 1 is treated as a single deck.
func NewShoe(numDecks int, rng *rand.Rand) *Shoe {
	if rng == nil {
		panic("rng is required for shoe creation")
	}
	s := &Shoe{rng: rng}
	s.Reset(numDecks)
	return s
}

// Reset rebuilds the shoe with a full sequence of numDecks decks and shuffles it
func (s *Shoe) Reset(numDecks int) {
	if numDecks < 1 {
		numDecks = 1
	}
	s.numDecks = numDecks

	size := numDecks * CardsPerDeck
	if cap(s.cards) < size {
		s.cards = make([]Card, 0, size)
	}
	s.cards = s.cards[:0]

	for range numDecks {
		for _, suit := range Suits {
			for rank := Two; rank <= Ace; rank++ {
				s.cards = append(s.cards, NewCard(suit, rank))
			}
		}
	}

	s.shuffles++
	s.Shuffle()
}

// Shuffle randomizes the order of the remaining cards using Fisher-Yates
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the top card, refilling the shoe first if it is empty.
// The returned card has not been counted yet and is marked fresh.
func (s *Shoe) Draw(faceUp bool) Card {
	card := s.PeekNext()
	s.cards = s.cards[:len(s.cards)-1]

	card.FaceUp = faceUp
	card.Counted = false
	card.Fresh = true
	return card
}

// PeekNextIndex returns the index of the card the next Draw will return.
// An empty shoe is refilled first so the index is always valid.
func (s *Shoe) PeekNextIndex() int {
	if len(s.cards) == 0 {
		s.Reset(s.numDecks)
	}
	return len(s.cards) - 1
}

// PeekNext returns the card the next Draw will return without removing it
func (s *Shoe) PeekNext() Card {
	return s.cards[s.PeekNextIndex()]
}

// Peek returns up to n upcoming cards in draw order without removing them.
// Fewer than n cards are returned when the shoe would need a refill.
func (s *Shoe) Peek(n int) []Card {
	n = min(n, len(s.cards))
	if n <= 0 {
		return nil
	}
	upcoming := make([]Card, n)
	for i := range n {
		upcoming[i] = s.cards[len(s.cards)-1-i]
	}
	return upcoming
}

// Arrange moves the given cards to the top of the shoe so they are drawn in
// order. Matching cards are swapped up from deeper in the shoe, so the shoe
// still holds exactly the cards of its fill.
func (s *Shoe) Arrange(cards ...Card) error {
	top := len(s.cards) - 1
	for i, want := range cards {
		pos := top - i
		if pos < 0 {
			return fmt.Errorf("shoe has only %d cards, cannot arrange %d", len(s.cards), len(cards))
		}

		found := -1
		for j := pos; j >= 0; j-- {
			if s.cards[j].Same(want) {
				found = j
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("card %s not available in shoe", want)
		}
		s.cards[pos], s.cards[found] = s.cards[found], s.cards[pos]
	}
	return nil
}

// RemainingCards returns the number of cards left in the shoe
func (s *Shoe) RemainingCards() int {
	return len(s.cards)
}

// RemainingDecks returns the remaining shoe depth in whole decks, never below one
func (s *Shoe) RemainingDecks() int {
	decks := int(math.Round(float64(len(s.cards)) / CardsPerDeck))
	return max(1, decks)
}

// NumDecks returns the number of decks in a full fill
func (s *Shoe) NumDecks() int {
	return s.numDecks
}

// Shuffles returns how many times the shoe has been filled. Observers compare
// it across rounds to detect a reshuffle.
func (s *Shoe) Shuffles() int {
	return s.shuffles
}

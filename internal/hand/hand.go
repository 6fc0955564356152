package hand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/freebet/internal/deck"
	"github.com/shopspring/decimal"
)

// Result is the settled outcome of a hand
type Result int

const (
	ResultNone Result = iota
	ResultWin
	ResultLoss
	ResultPush
	ResultBlackjack
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	case ResultPush:
		return "push"
	case ResultBlackjack:
		return "blackjack"
	default:
		return ""
	}
}

// IsWin reports whether the result pays the player (win or blackjack)
func (r Result) IsWin() bool {
	return r == ResultWin || r == ResultBlackjack
}

// MarshalText encodes the result by name so JSON snapshots stay readable
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	for _, v := range []Result{ResultNone, ResultWin, ResultLoss, ResultPush, ResultBlackjack} {
		if v.String() == string(text) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown result: %q", text)
}

// Hand is a player or dealer hand. Status flags are recomputed whenever the
// cards change, so Busted and Blackjack always agree with Total.
type Hand struct {
	Cards []deck.Card
	Bet   decimal.Decimal

	FreeBet     bool // wager was placed by the house through a free split
	Busted      bool
	Blackjack   bool
	Doubled     bool
	FreeDoubled bool
	Split       bool
	Stood       bool

	Result   Result
	Winnings decimal.Decimal
}

// New creates an empty hand carrying bet
func New(bet decimal.Decimal, freeBet bool) *Hand {
	return &Hand{Bet: bet, FreeBet: freeBet}
}

// AddCard appends a card and refreshes status
func (h *Hand) AddCard(c deck.Card) {
	h.Cards = append(h.Cards, c)
	h.updateStatus()
}

// RemoveLast pops the last card. Only used to move a card across a split.
func (h *Hand) RemoveLast() (deck.Card, bool) {
	if len(h.Cards) == 0 {
		return deck.Card{}, false
	}
	last := len(h.Cards) - 1
	c := h.Cards[last]
	h.Cards = h.Cards[:last]
	h.updateStatus()
	return c, true
}

// Reveal turns every card face up
func (h *Hand) Reveal() {
	for i := range h.Cards {
		h.Cards[i].FaceUp = true
	}
	h.updateStatus()
}

func (h *Hand) updateStatus() {
	total := h.Total()
	h.Busted = total > 21
	h.Blackjack = len(h.Cards) == 2 && total == 21
}

// Total returns the best total of the face-up cards. Aces count 11 and fall
// back to 1 one at a time while the hand would bust.
func (h *Hand) Total() int {
	total, aces := 0, 0
	for _, c := range h.Cards {
		if !c.FaceUp {
			continue
		}
		total += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsSoft reports whether an ace is still being counted as 11
func (h *Hand) IsSoft() bool {
	hard, hasAce := 0, false
	for _, c := range h.Cards {
		if !c.FaceUp {
			continue
		}
		if c.IsAce() {
			hasAce = true
			hard++
			continue
		}
		hard += c.Value()
	}
	if !hasAce {
		return false
	}
	total := h.Total()
	return hard != total && total <= 21
}

// IsPair reports whether the hand is exactly two cards of the same rank
func (h *Hand) IsPair() bool {
	return len(h.Cards) == 2 && h.Cards[0].Rank == h.Cards[1].Rank
}

func (h *Hand) CanSplit() bool {
	return h.IsPair() && !h.Stood && !h.Busted && !h.Doubled
}

func (h *Hand) CanDouble() bool {
	return len(h.Cards) == 2 && !h.Stood && !h.Busted
}

// IsFreeDoubleEligible reports whether the house will fund a double: two
// cards totalling 9, 10 or 11.
func (h *Hand) IsFreeDoubleEligible() bool {
	if !h.CanDouble() {
		return false
	}
	total := h.Total()
	return total >= 9 && total <= 11
}

// IsFreeSplitEligible reports whether the house will fund a split. Every pair
// except ten-valued cards qualifies.
func (h *Hand) IsFreeSplitEligible() bool {
	return h.CanSplit() && !h.Cards[0].Rank.IsTenValued()
}

func (h *Hand) Len() int {
	return len(h.Cards)
}

// UpCard returns the first card, which for the dealer is the exposed card
func (h *Hand) UpCard() (deck.Card, bool) {
	if len(h.Cards) == 0 {
		return deck.Card{}, false
	}
	return h.Cards[0], true
}

// Clone returns a deep copy
func (h *Hand) Clone() *Hand {
	c := *h
	c.Cards = append([]deck.Card(nil), h.Cards...)
	return &c
}

// String renders the hand like "As 7d (soft 18)". Face-down cards show as "??".
func (h *Hand) String() string {
	var b strings.Builder
	for i, c := range h.Cards {
		if i > 0 {
			b.WriteByte(' ')
		}
		if c.FaceUp {
			b.WriteString(c.String())
		} else {
			b.WriteString("??")
		}
	}
	b.WriteString(" (")
	if h.IsSoft() {
		b.WriteString("soft ")
	}
	b.WriteString(strconv.Itoa(h.Total()))
	b.WriteByte(')')
	return b.String()
}

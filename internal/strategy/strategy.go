// Package strategy holds the basic-strategy charts for standard and free-bet
// blackjack and looks up the recommended action for a hand.
package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/hand"
)

// Action is a basic-strategy decision
type Action int

const (
	None Action = iota
	Hit
	Stand
	Double
	Split
)

// String returns the chart letter for the action
func (a Action) String() string {
	switch a {
	case Hit:
		return "H"
	case Stand:
		return "S"
	case Double:
		return "D"
	case Split:
		return "P"
	default:
		return "-"
	}
}

// Name returns the lowercase action name used on the wire
func (a Action) Name() string {
	switch a {
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	case Double:
		return "double"
	case Split:
		return "split"
	default:
		return "none"
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.Name()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	if string(text) == "none" {
		*a = None
		return nil
	}
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction accepts either the chart letter or the action name
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "hit":
		return Hit, nil
	case "s", "stand":
		return Stand, nil
	case "d", "double":
		return Double, nil
	case "p", "split":
		return Split, nil
	default:
		return None, fmt.Errorf("unknown action: %q", s)
	}
}

// Category selects one of the three sub-tables of a chart
type Category int

const (
	Hard Category = iota
	Soft
	Pairs
)

func (c Category) String() string {
	switch c {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	case Pairs:
		return "pairs"
	default:
		return "unknown"
	}
}

// DealerColumns labels the ten dealer up-card columns
var DealerColumns = [10]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "A"}

const (
	hardMin = 5
	hardMax = 21
	softMin = 13
	softMax = 21
)

// Row is one chart line
type Row struct {
	Label   string
	Actions [10]Action
}

// Table is an immutable strategy chart
type Table struct {
	name  string
	hard  [hardMax - hardMin + 1][10]Action
	soft  [softMax - softMin + 1][10]Action
	pairs [10][10]Action // index 0..8 = ranks 2..10, 9 = ace
}

// Name identifies the chart ("standard" or "free")
func (t *Table) Name() string {
	return t.name
}

// DealerIndex maps a dealer up-card rank to a chart column
func DealerIndex(r deck.Rank) int {
	switch {
	case r == deck.Ace:
		return 9
	case r.IsTenValued():
		return 8
	default:
		return int(r) - 2
	}
}

// Recommend returns the chart action for h against the dealer's up-card.
// Double is downgraded to Hit once the hand holds more than two cards.
func (t *Table) Recommend(h *hand.Hand, dealerUp deck.Rank) Action {
	col := DealerIndex(dealerUp)
	if col < 0 || col > 9 {
		return Hit
	}

	action := Hit
	total := h.Total()
	switch {
	case h.IsPair():
		// pair rows share the dealer column layout: 2..9, ten group, ace
		action = t.pairs[DealerIndex(h.Cards[0].Rank)][col]
	case h.IsSoft() && total >= softMin && total <= softMax:
		action = t.soft[total-softMin][col]
	case total >= hardMin && total <= hardMax:
		action = t.hard[total-hardMin][col]
	}

	if action == Double && h.Len() > 2 {
		return Hit
	}
	return action
}

// Lookup returns the raw chart entry for a row key and dealer column.
// For Pairs the key is the pair rank with tens as 10 and aces as 11.
func (t *Table) Lookup(c Category, key int, dealerUp deck.Rank) (Action, bool) {
	col := DealerIndex(dealerUp)
	if col < 0 || col > 9 {
		return None, false
	}
	switch c {
	case Hard:
		if key < hardMin || key > hardMax {
			return None, false
		}
		return t.hard[key-hardMin][col], true
	case Soft:
		if key < softMin || key > softMax {
			return None, false
		}
		return t.soft[key-softMin][col], true
	case Pairs:
		if key < 2 || key > 11 {
			return None, false
		}
		return t.pairs[key-2][col], true
	}
	return None, false
}

// Rows returns the chart lines of a category in display order
func (t *Table) Rows(c Category) []Row {
	var rows []Row
	switch c {
	case Hard:
		for i, actions := range t.hard {
			rows = append(rows, Row{Label: strconv.Itoa(hardMin + i), Actions: actions})
		}
	case Soft:
		for i, actions := range t.soft {
			rows = append(rows, Row{Label: "A," + strconv.Itoa(softMin+i-11), Actions: actions})
		}
	case Pairs:
		for i, actions := range t.pairs {
			label := strconv.Itoa(i+2) + "," + strconv.Itoa(i+2)
			if i == 9 {
				label = "A,A"
			}
			rows = append(rows, Row{Label: label, Actions: actions})
		}
	}
	return rows
}

// Standard returns the chart for hands played with the player's own money
func Standard() *Table {
	return standardTable
}

// FreeBet returns the chart for hands riding on a free bet
func FreeBet() *Table {
	return freeBetTable
}

// For returns the chart for the given wager type
func For(freeBet bool) *Table {
	if freeBet {
		return freeBetTable
	}
	return standardTable
}

// Recommend looks up h in the chart for the wager type
func Recommend(h *hand.Hand, dealerUp deck.Rank, freeBet bool) Action {
	return For(freeBet).Recommend(h, dealerUp)
}

package game

import (
	"math"

	"github.com/shopspring/decimal"
)

var defaultInitialBalance = decimal.NewFromInt(1000)

// Stats is the cumulative record kept across rounds. Its JSON shape is the
// one written to the stats file.
type Stats struct {
	TotalHands        int               `json:"totalHands"`
	Wins              int               `json:"wins"`
	Losses            int               `json:"losses"`
	Pushes            int               `json:"pushes"`
	FreeDoubles       int               `json:"freeDoubles"`
	FreeSplits        int               `json:"freeSplits"`
	FreeSplitBothWins int               `json:"freeSplitBothWins"`
	Dealer22s         int               `json:"dealer22s"`
	Blackjacks        int               `json:"blackjacks"`
	BalanceHistory    []decimal.Decimal `json:"balanceHistory"`
}

// Clone returns a copy that does not share the balance history
func (s Stats) Clone() Stats {
	s.BalanceHistory = append([]decimal.Decimal(nil), s.BalanceHistory...)
	return s
}

// WinPercentage is wins per round as a rounded percentage. Wins are counted
// per hand, so split rounds can push it past 100.
func (s Stats) WinPercentage() int {
	if s.TotalHands == 0 {
		return 0
	}
	return int(math.Round(float64(s.Wins) / float64(s.TotalHands) * 100))
}

// ProfitLoss is the last balance minus the first
func (s Stats) ProfitLoss() decimal.Decimal {
	return s.CurrentBalance().Sub(s.InitialBalance())
}

// InitialBalance is the first balance history entry, 1000 when empty
func (s Stats) InitialBalance() decimal.Decimal {
	if len(s.BalanceHistory) == 0 {
		return defaultInitialBalance
	}
	return s.BalanceHistory[0]
}

// CurrentBalance is the last balance history entry, 1000 when empty
func (s Stats) CurrentBalance() decimal.Decimal {
	if len(s.BalanceHistory) == 0 {
		return defaultInitialBalance
	}
	return s.BalanceHistory[len(s.BalanceHistory)-1]
}

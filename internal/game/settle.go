package game

import (
	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/hand"
	"github.com/shopspring/decimal"
)

var (
	payEven      = decimal.NewFromInt(2)
	payBlackjack = decimal.NewFromFloat(2.5)
	payFreeDbl   = decimal.NewFromInt(3)
)

// HandOutcome is the settled result of one player hand
type HandOutcome struct {
	Index       int             `json:"index"`
	Cards       []deck.Card     `json:"-"`
	Total       int             `json:"total"`
	Bet         decimal.Decimal `json:"bet"`
	FreeBet     bool            `json:"freeBet"`
	Doubled     bool            `json:"doubled"`
	FreeDoubled bool            `json:"freeDoubled"`
	Split       bool            `json:"split"`
	Result      hand.Result     `json:"result"`
	Winnings    decimal.Decimal `json:"winnings"`
}

// Settlement summarises a settled round
type Settlement struct {
	RoundID        string          `json:"roundId"`
	DealerTotal    int             `json:"dealerTotal"`
	DealerBusted   bool            `json:"dealerBusted"`
	Dealer22       bool            `json:"dealer22"`
	Hands          []HandOutcome   `json:"hands"`
	FreeSplitBonus decimal.Decimal `json:"freeSplitBonus"`
	Winnings       decimal.Decimal `json:"winnings"` // total credited to the balance
	Staked         decimal.Decimal `json:"staked"`   // total taken from the balance this round
	Balance        decimal.Decimal `json:"balance"`
}

// Net is the round's effect on the balance
func (s *Settlement) Net() decimal.Decimal {
	return s.Winnings.Sub(s.Staked)
}

// Settle pays out the round, updates statistics and feeds every exposed card
// to the counter. It may be called once per round, after the dealer is done.
func (e *Engine) Settle() (*Settlement, error) {
	if e.phase != PhaseSettled || e.settled {
		return nil, illegal("cannot settle during %s", e.phase)
	}

	dealerTotal := e.dealer.Total()
	dealerBusted := e.dealer.Busted
	dealer22 := dealerBusted && dealerTotal == 22

	e.stats.TotalHands++
	if dealer22 {
		e.stats.Dealer22s++
	}

	s := &Settlement{
		RoundID:        e.roundID,
		DealerTotal:    dealerTotal,
		DealerBusted:   dealerBusted,
		Dealer22:       dealer22,
		FreeSplitBonus: decimal.Zero,
		Winnings:       decimal.Zero,
		Staked:         e.staked,
	}

	for i, h := range e.hands {
		h.Result, h.Winnings = e.settleHand(h, dealerTotal, dealerBusted, dealer22)

		switch {
		case h.Result.IsWin():
			e.stats.Wins++
		case h.Result == hand.ResultLoss:
			e.stats.Losses++
		case h.Result == hand.ResultPush:
			e.stats.Pushes++
		}

		s.Winnings = s.Winnings.Add(h.Winnings)
		s.Hands = append(s.Hands, HandOutcome{
			Index:       i,
			Cards:       append([]deck.Card(nil), h.Cards...),
			Total:       h.Total(),
			Bet:         h.Bet,
			FreeBet:     h.FreeBet,
			Doubled:     h.Doubled,
			FreeDoubled: h.FreeDoubled,
			Split:       h.Split,
			Result:      h.Result,
			Winnings:    h.Winnings,
		})
	}

	// bet×3 − bet×4 brings a doubly won free split back to three bets
	for _, g := range e.freeSplits {
		if g.first.Result.IsWin() && g.second.Result.IsWin() {
			bonus := g.bet.Mul(payFreeDbl).Sub(g.bet.Mul(payEven).Mul(payEven))
			s.FreeSplitBonus = s.FreeSplitBonus.Add(bonus)
			e.stats.FreeSplitBothWins++
		}
	}
	s.Winnings = s.Winnings.Add(s.FreeSplitBonus)

	e.balance = e.balance.Add(s.Winnings)
	e.stats.BalanceHistory = append(e.stats.BalanceHistory, e.balance)
	s.Balance = e.balance

	e.counter.ObserveAll(e.dealer.Cards)
	for _, h := range e.hands {
		e.counter.ObserveAll(h.Cards)
	}

	e.settled = true
	e.settlement = s
	e.logger.Info("Round settled",
		"round", e.roundID,
		"dealer", dealerTotal,
		"hands", len(e.hands),
		"winnings", s.Winnings,
		"balance", e.balance,
		"running_count", e.counter.RunningCount())
	return s, nil
}

func (e *Engine) settleHand(h *hand.Hand, dealerTotal int, dealerBusted, dealer22 bool) (hand.Result, decimal.Decimal) {
	result, winnings := compareHand(h, e.dealer, dealerTotal, dealerBusted, dealer22)

	if h.FreeBet {
		switch {
		case result == hand.ResultLoss:
			winnings = decimal.Zero
		case h.Split && result.IsWin():
			winnings = h.Bet.Mul(payEven)
		}
	}
	return result, winnings
}

func compareHand(h, dealer *hand.Hand, dealerTotal int, dealerBusted, dealer22 bool) (hand.Result, decimal.Decimal) {
	switch {
	case h.Busted:
		return hand.ResultLoss, decimal.Zero
	case dealer22:
		return hand.ResultPush, h.Bet
	case dealerBusted:
		if h.Blackjack {
			return hand.ResultWin, h.Bet.Mul(payBlackjack)
		}
		return hand.ResultWin, winPayout(h)
	case h.Blackjack && dealer.Blackjack:
		return hand.ResultPush, h.Bet
	case h.Blackjack:
		return hand.ResultBlackjack, h.Bet.Mul(payBlackjack)
	case dealer.Blackjack:
		return hand.ResultLoss, decimal.Zero
	}

	total := h.Total()
	switch {
	case total > dealerTotal:
		return hand.ResultWin, winPayout(h)
	case total < dealerTotal:
		return hand.ResultLoss, decimal.Zero
	default:
		return hand.ResultPush, h.Bet
	}
}

// winPayout is stake plus winnings for a non-blackjack win. A paid double
// already carries the doubled bet.
func winPayout(h *hand.Hand) decimal.Decimal {
	if h.FreeDoubled {
		return h.Bet.Mul(payFreeDbl)
	}
	return h.Bet.Mul(payEven)
}

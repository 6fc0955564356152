package game

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/randutil"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertDec(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %d, got %s", msg, want, got)
}

// newTestEngine returns an engine whose shoe deals cards in the given order:
// player, player, dealer up, dealer hole, then every later draw.
func newTestEngine(t *testing.T, cards string, opts ...Option) *Engine {
	t.Helper()
	shoe := deck.NewShoe(6, randutil.New(42))
	require.NoError(t, shoe.Arrange(deck.MustParseCards(cards)...))
	opts = append([]Option{WithShoe(shoe)}, opts...)
	return NewEngine(randutil.New(42), log.New(io.Discard), opts...)
}

func startRound(t *testing.T, e *Engine, bet int64) {
	t.Helper()
	require.NoError(t, e.InitRound(dec(bet)))
	require.NoError(t, e.DealInitial())
}

func finishRound(t *testing.T, e *Engine) *Settlement {
	t.Helper()
	require.Equal(t, PhaseDealerTurn, e.Phase())
	require.NoError(t, e.DealerPlay())
	s, err := e.Settle()
	require.NoError(t, err)
	return s
}

func TestPushRound(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 9h 7c 9d 3s")

	require.NoError(t, e.InitRound(dec(10)))
	assertDec(t, 990, e.Balance(), "bet deducted at round start")
	require.NoError(t, e.DealInitial())
	require.Equal(t, PhasePlayerTurn, e.Phase())

	require.NoError(t, e.Stand())
	s := finishRound(t, e)

	assert.Equal(t, 19, s.DealerTotal)
	require.Len(t, s.Hands, 1)
	assert.Equal(t, hand.ResultPush, s.Hands[0].Result)
	assertDec(t, 10, s.Winnings, "winnings")
	assertDec(t, 1000, e.Balance(), "balance")
	assert.True(t, s.Net().IsZero())

	stats := e.Stats()
	assert.Equal(t, 1, stats.Pushes)
	assert.Equal(t, 1, stats.TotalHands)
	require.Len(t, stats.BalanceHistory, 2)
	assertDec(t, 1000, stats.BalanceHistory[1], "history")

	assert.Equal(t, 0, e.Counter().RunningCount())
	assert.Equal(t, 5, e.Counter().CardsDealt())
}

func TestSettlementPayouts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cards   string
		play    func(t *testing.T, e *Engine)
		result  hand.Result
		balance int64
	}{
		{
			name:    "blackjack pays three to two",
			cards:   "As Kh 9c 7d 2s",
			result:  hand.ResultBlackjack,
			balance: 1015,
		},
		{
			name:    "blackjack against a busted dealer",
			cards:   "As Kh 9c 7d Ts",
			result:  hand.ResultWin,
			balance: 1015,
		},
		{
			name:    "both blackjack push",
			cards:   "As Kh Ac Kd",
			result:  hand.ResultPush,
			balance: 1000,
		},
		{
			name:  "dealer blackjack beats 20",
			cards: "Ts Qh Ac Kd",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Stand())
			},
			result:  hand.ResultLoss,
			balance: 990,
		},
		{
			name:  "higher total wins even money",
			cards: "Ts Qh 9c 8d",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Stand())
			},
			result:  hand.ResultWin,
			balance: 1010,
		},
		{
			name:  "lower total loses",
			cards: "Ts 7h 9c Td",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Stand())
			},
			result:  hand.ResultLoss,
			balance: 990,
		},
		{
			name:  "dealer bust pays even money",
			cards: "Ts 3h 9c 6d Kd",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Stand())
			},
			result:  hand.ResultWin,
			balance: 1010,
		},
		{
			name:  "paid double pays the doubled bet",
			cards: "6s 5h 9c 7d Ts 2c",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Double(false))
			},
			result:  hand.ResultWin,
			balance: 1020,
		},
		{
			name:  "free double pays three bets",
			cards: "6s 5h 9c 7d Ts 2c",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Double(true))
			},
			result:  hand.ResultWin,
			balance: 1020,
		},
		{
			name:  "free double against a busted dealer",
			cards: "6s 5h 9c 7d 2s Tc",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Double(true))
			},
			result:  hand.ResultWin,
			balance: 1020,
		},
		{
			name:  "free double loss keeps only the stake lost",
			cards: "6s 5h 9c Td 2s",
			play: func(t *testing.T, e *Engine) {
				require.NoError(t, e.Double(true))
			},
			result:  hand.ResultLoss,
			balance: 990,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cards)
			startRound(t, e, 10)
			if tt.play != nil {
				tt.play(t, e)
			}
			s := finishRound(t, e)
			require.Len(t, s.Hands, 1)
			assert.Equal(t, tt.result, s.Hands[0].Result)
			assertDec(t, tt.balance, e.Balance(), "balance")
			assertDec(t, tt.balance, s.Balance, "settlement balance")
		})
	}
}

func TestDealerBlackjackHiddenUntilReveal(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 9h Ac Kd")
	startRound(t, e, 10)

	d := e.Dealer()
	require.Equal(t, 2, d.Len())
	assert.False(t, d.Cards[1].FaceUp)
	assert.Equal(t, 11, d.Total())
	assert.False(t, d.Blackjack)

	require.NoError(t, e.Stand())
	require.NoError(t, e.DealerPlay())
	d = e.Dealer()
	assert.True(t, d.Cards[1].FaceUp)
	assert.True(t, d.Blackjack)
	assert.Equal(t, 2, d.Len())
}

func TestPlayerBlackjackSkipsToDealer(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "As Kh 9c 7d 2s")
	startRound(t, e, 10)

	assert.Equal(t, PhaseDealerTurn, e.Phase())
	assert.Equal(t, 1, e.Stats().Blackjacks)
	assert.ErrorIs(t, e.Hit(), ErrIllegalAction)
}

func TestDealer22PushesStandingHands(t *testing.T) {
	t.Parallel()
	// split the eights, stand on 18, bust the other hand, dealer makes 22
	e := newTestEngine(t, "8s 8h Tc 6d Ts 7c 9d 6s")
	startRound(t, e, 10)

	require.NoError(t, e.Split(false))
	assertDec(t, 980, e.Balance(), "paid split deducted")
	require.NoError(t, e.Stand())
	require.NoError(t, e.Hit())
	require.Equal(t, PhaseDealerTurn, e.Phase(), "bust advances past the last hand")

	s := finishRound(t, e)
	assert.True(t, s.Dealer22)
	assert.Equal(t, 22, s.DealerTotal)
	require.Len(t, s.Hands, 2)
	assert.Equal(t, hand.ResultPush, s.Hands[0].Result)
	assert.Equal(t, hand.ResultLoss, s.Hands[1].Result)
	assertDec(t, 990, e.Balance(), "balance")

	stats := e.Stats()
	assert.Equal(t, 1, stats.Dealer22s)
	assert.Equal(t, 1, stats.Pushes)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.TotalHands)
}

func TestAllBustedDealerDrawsNothing(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 6h 5c 6d Kc")
	startRound(t, e, 10)

	require.NoError(t, e.Hit())
	require.Equal(t, PhaseDealerTurn, e.Phase())

	preview, err := e.PreviewDealer()
	require.NoError(t, err)
	assert.Empty(t, preview)

	s := finishRound(t, e)
	assert.Equal(t, 2, e.Dealer().Len())
	assert.True(t, e.Dealer().Cards[1].FaceUp)
	assert.Equal(t, hand.ResultLoss, s.Hands[0].Result)
	assertDec(t, 990, e.Balance(), "balance")
}

func TestFreeSplitBothWin(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "8s 8h Tc 7d Ts Th")
	startRound(t, e, 10)

	assert.Equal(t, strategy.Split, e.Recommended())
	require.NoError(t, e.Split(true))
	assertDec(t, 990, e.Balance(), "free split costs nothing")

	hands := e.Hands()
	require.Len(t, hands, 2)
	assert.False(t, hands[0].FreeBet)
	assert.True(t, hands[1].FreeBet)
	assert.True(t, hands[0].Split)
	assert.True(t, hands[1].Split)
	assert.Equal(t, "8s Ts (18)", hands[0].String())
	assert.Equal(t, "8h Th (18)", hands[1].String())

	require.NoError(t, e.Stand())
	require.NoError(t, e.Stand())
	s := finishRound(t, e)

	assertDec(t, 20, s.Hands[0].Winnings, "paid hand")
	assertDec(t, 20, s.Hands[1].Winnings, "free hand")
	assertDec(t, -10, s.FreeSplitBonus, "bonus")
	assertDec(t, 30, s.Winnings, "total")
	assertDec(t, 1020, e.Balance(), "balance")
	assertDec(t, 20, s.Net(), "net")

	stats := e.Stats()
	assert.Equal(t, 1, stats.FreeSplits)
	assert.Equal(t, 1, stats.FreeSplitBothWins)
	assert.Equal(t, 2, stats.Wins)
}

func TestFreeSplitLossCostsNothing(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "8s 8h Tc 7d Ts 6c")
	startRound(t, e, 10)

	require.NoError(t, e.Split(true))
	require.NoError(t, e.Stand())
	require.NoError(t, e.Stand())
	s := finishRound(t, e)

	assert.Equal(t, hand.ResultWin, s.Hands[0].Result)
	assert.Equal(t, hand.ResultLoss, s.Hands[1].Result)
	assertDec(t, 0, s.Hands[1].Winnings, "free hand loss")
	assert.True(t, s.FreeSplitBonus.IsZero())
	assertDec(t, 1010, e.Balance(), "balance")
	assert.Equal(t, 0, e.Stats().FreeSplitBothWins)
}

func TestFreeSplitPushReturnsTheFreeBet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cards    string
		dealer22 bool
	}{
		// both split hands make 18
		{"tie", "8s 8h Tc 8d Ts Th", false},
		{"dealer 22", "8s 8h 6c Td Ts Th 6d", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cards)
			startRound(t, e, 10)

			require.NoError(t, e.Split(true))
			require.NoError(t, e.Stand())
			require.NoError(t, e.Stand())
			s := finishRound(t, e)

			assert.Equal(t, tt.dealer22, s.Dealer22)
			require.Len(t, s.Hands, 2)
			assert.Equal(t, hand.ResultPush, s.Hands[0].Result)
			assert.Equal(t, hand.ResultPush, s.Hands[1].Result)
			assertDec(t, 10, s.Hands[1].Winnings, "the free hand's push pays its bet")
			assertDec(t, 20, s.Winnings, "total")
			assertDec(t, 10, s.Staked, "only the opening bet was staked")
			assertDec(t, 1010, e.Balance(), "balance")
		})
	}
}

func TestSplitAcesMakeBlackjack(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "As Ah 9c 7d Ks Kh 2c")
	startRound(t, e, 10)

	require.NoError(t, e.Split(true))
	hands := e.Hands()
	assert.True(t, hands[0].Blackjack)
	assert.True(t, hands[1].Blackjack)

	require.NoError(t, e.Stand())
	require.NoError(t, e.Stand())
	s := finishRound(t, e)

	assert.Equal(t, hand.ResultBlackjack, s.Hands[0].Result)
	assertDec(t, 25, s.Hands[0].Winnings, "paid split blackjack")
	assertDec(t, 20, s.Hands[1].Winnings, "free split blackjack pays even money")
	assertDec(t, 1025, e.Balance(), "balance")
	assert.Equal(t, 0, e.Stats().Blackjacks, "blackjacks counted at the deal only")
}

func TestSplitInsertsAfterActiveHand(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "8s 8h 9c 7d 8c 2s Ts Th")
	startRound(t, e, 10)

	require.NoError(t, e.Split(true))
	hands := e.Hands()
	require.True(t, hands[0].IsPair())

	err := e.Split(true)
	assert.ErrorIs(t, err, ErrIllegalAction, "a free split hand cannot be free split again")
	require.Len(t, e.Hands(), 2)

	require.NoError(t, e.Split(false))
	hands = e.Hands()
	require.Len(t, hands, 3)
	assert.Equal(t, "8s Ts (18)", hands[0].String())
	assert.Equal(t, "8c Th (18)", hands[1].String())
	assert.Equal(t, "8h 2s (10)", hands[2].String())
	assert.False(t, hands[1].FreeBet)
	assert.True(t, hands[2].FreeBet)
	assertDec(t, 980, e.Balance(), "one paid split")
}

func TestRePairAfterFreeSplitFollowsChart(t *testing.T) {
	t.Parallel()
	// 4,4 vs 2 splits free, then the first hand draws another 4
	e := newTestEngine(t, "4s 4h 2c 7d 4d 9s")
	startRound(t, e, 10)

	assert.True(t, e.FreeSplitAvailable())
	require.NoError(t, e.Split(true))

	hands := e.Hands()
	require.True(t, hands[0].IsPair())
	require.True(t, hands[0].IsFreeSplitEligible())
	assert.False(t, e.FreeSplitAvailable(), "the group already used its free split")
	assert.Equal(t, strategy.Hit, e.Recommended(), "standard chart hits 4,4 against a 2")

	correct, rec := e.CheckAction(strategy.Split)
	assert.False(t, correct)
	assert.Equal(t, strategy.Hit, rec)

	require.NoError(t, e.Hit())
	assert.Equal(t, 0, e.ActiveIndex())
}

func TestTenPairsCannotFreeSplit(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts Th 9c 7d 2s 3s")
	startRound(t, e, 10)

	assert.ErrorIs(t, e.Split(true), ErrIllegalAction)
	assert.Len(t, e.Hands(), 1)
	assert.Equal(t, strategy.Stand, e.Recommended())

	require.NoError(t, e.Split(false))
	assert.Len(t, e.Hands(), 2)
}

func TestInsufficientFunds(t *testing.T) {
	t.Parallel()

	t.Run("double", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, "6s 5h 9c 7d Ts", WithBalance(dec(15)))
		startRound(t, e, 10)

		assert.ErrorIs(t, e.Double(false), ErrInsufficientFunds)
		assertDec(t, 5, e.Balance(), "balance untouched")
		assert.Equal(t, 2, e.Hands()[0].Len())
		assert.Equal(t, PhasePlayerTurn, e.Phase())

		require.NoError(t, e.Double(true))
		assert.Equal(t, 3, e.Hands()[0].Len())
	})

	t.Run("split", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, "7s 7h 9c 7d Ts Tc", WithBalance(dec(15)))
		startRound(t, e, 10)

		assert.ErrorIs(t, e.Split(false), ErrInsufficientFunds)
		assert.Len(t, e.Hands(), 1)
		assertDec(t, 5, e.Balance(), "balance untouched")

		require.NoError(t, e.Split(true))
		assert.Len(t, e.Hands(), 2)
	})
}

func TestIneligibleFreeDouble(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 2h 9c 7d 5s")
	startRound(t, e, 10)

	assert.ErrorIs(t, e.Double(true), ErrIllegalAction)
	assert.Equal(t, 0, e.Stats().FreeDoubles)

	require.NoError(t, e.Hit())
	assert.ErrorIs(t, e.Double(false), ErrIllegalAction, "three cards cannot double")
}

func TestSplitGuard(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "8s 8h 9c 7d Ts Th")
	startRound(t, e, 10)

	e.pendingSplit.Store(1)
	assert.ErrorIs(t, e.Split(false), ErrSplitInProgress)
	assert.Len(t, e.Hands(), 1)
	assertDec(t, 990, e.Balance(), "balance")

	e.pendingSplit.Store(0)
	require.NoError(t, e.Split(false))
	assert.Equal(t, int32(0), e.pendingSplit.Load(), "token released")
}

func TestIllegalPhases(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 9h 7c 9d 3s")

	assert.ErrorIs(t, e.DealInitial(), ErrIllegalAction, "deal without bet")
	assert.ErrorIs(t, e.Hit(), ErrIllegalAction)
	assert.ErrorIs(t, e.Stand(), ErrIllegalAction)
	assert.ErrorIs(t, e.Double(false), ErrIllegalAction)
	assert.ErrorIs(t, e.Split(false), ErrIllegalAction)
	assert.ErrorIs(t, e.DealerPlay(), ErrIllegalAction)
	_, err := e.Settle()
	assert.ErrorIs(t, err, ErrIllegalAction)
	_, err = e.PreviewDealer()
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.Equal(t, strategy.None, e.Recommended())

	require.NoError(t, e.InitRound(dec(10)))
	assert.ErrorIs(t, e.InitRound(dec(10)), ErrIllegalAction, "bet already placed")
	require.NoError(t, e.DealInitial())
	assert.ErrorIs(t, e.DealInitial(), ErrIllegalAction)
	assert.ErrorIs(t, e.DealerPlay(), ErrIllegalAction)
	assert.ErrorIs(t, e.InitRound(dec(10)), ErrIllegalAction)

	require.NoError(t, e.Stand())
	assert.ErrorIs(t, e.InitRound(dec(10)), ErrIllegalAction, "round not settled")
	require.NoError(t, e.DealerPlay())
	assert.ErrorIs(t, e.InitRound(dec(10)), ErrIllegalAction, "settle not yet called")

	_, err = e.Settle()
	require.NoError(t, err)
	_, err = e.Settle()
	assert.ErrorIs(t, err, ErrIllegalAction, "second settle")
	balance := e.Balance()
	assertDec(t, 1000, balance, "balance")

	require.NoError(t, e.InitRound(dec(10)))
	assert.Equal(t, PhaseBetting, e.Phase())
}

func TestBetValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		bet  int64
	}{
		{"below minimum", 4},
		{"above maximum", 501},
		{"above balance", 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, "Ts 9h", WithBalance(dec(200)))
			err := e.InitRound(dec(tt.bet))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, "bet", verr.Field)
			assertDec(t, 200, e.Balance(), "balance untouched")
			assert.ErrorIs(t, e.DealInitial(), ErrIllegalAction, "round did not start")
		})
	}
}

func TestParseBet(t *testing.T) {
	t.Parallel()
	bet, err := ParseBet(" 12.5 ")
	require.NoError(t, err)
	assert.True(t, bet.Equal(decimal.NewFromFloat(12.5)))

	for _, input := range []string{"", "abc", "-5", "0"} {
		_, err := ParseBet(input)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "input %q", input)
	}
}

func TestSteppedDealer(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 8h 5c 6d 2s 3h 4d")
	startRound(t, e, 10)
	require.NoError(t, e.Stand())

	remaining := e.Shoe().RemainingCards()
	preview, err := e.PreviewDealer()
	require.NoError(t, err)
	assert.Equal(t, "2s 3h 4d", deck.FormatCards(preview))
	assert.Equal(t, remaining, e.Shoe().RemainingCards(), "preview leaves the shoe alone")
	assert.False(t, e.Dealer().Cards[1].FaceUp, "preview leaves the hole card alone")

	require.NoError(t, e.RevealDealer())
	assert.True(t, e.Dealer().Cards[1].FaceUp)
	assert.ErrorIs(t, e.DealerPlay(), ErrIllegalAction, "modes cannot be mixed")

	var drawn []deck.Card
	for {
		card, drew, err := e.DealerDrawOne()
		require.NoError(t, err)
		if !drew {
			break
		}
		drawn = append(drawn, card)
		require.Equal(t, PhaseDealerTurn, e.Phase())
	}
	assert.Equal(t, deck.FormatCards(preview), deck.FormatCards(drawn))
	assert.Equal(t, PhaseSettled, e.Phase())
	assert.Equal(t, 20, e.Dealer().Total())

	s, err := e.Settle()
	require.NoError(t, err)
	assert.Equal(t, hand.ResultLoss, s.Hands[0].Result)
}

func TestDealerPlayBlocksStepping(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 8h 5c 6d 2s 3h 4d")
	startRound(t, e, 10)
	require.NoError(t, e.Stand())
	require.NoError(t, e.DealerPlay())

	_, _, err := e.DealerDrawOne()
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.Equal(t, "5c 6d 2s 3h 4d", deck.FormatCards(e.Dealer().Cards))
}

func TestDealerHitsSoft17Rule(t *testing.T) {
	t.Parallel()
	rules := DefaultRules()
	rules.DealerHitsSoft17 = true
	e := newTestEngine(t, "Ts 8h As 6d 2c", WithRules(rules))
	startRound(t, e, 10)
	require.NoError(t, e.Stand())
	s := finishRound(t, e)
	assert.Equal(t, 19, s.DealerTotal)

	stands := newTestEngine(t, "Ts 8h As 6d 2c")
	startRound(t, stands, 10)
	require.NoError(t, stands.Stand())
	s = finishRound(t, stands)
	assert.Equal(t, 17, s.DealerTotal)
}

func TestCountUpdatedOncePerRound(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts Kh 7c 9d 3s 5c 5d 9s 8h")
	startRound(t, e, 10)
	require.NoError(t, e.Stand())
	require.NoError(t, e.DealerPlay())
	assert.Equal(t, 0, e.Counter().CardsDealt(), "nothing counted before settlement")

	_, err := e.Settle()
	require.NoError(t, err)
	assert.Equal(t, -1, e.Counter().RunningCount())
	assert.Equal(t, 5, e.Counter().CardsDealt())

	// a deep shoe keeps the count across rounds
	require.NoError(t, e.InitRound(dec(10)))
	assert.Equal(t, -1, e.Counter().RunningCount())
	require.NoError(t, e.DealInitial())
	require.NoError(t, e.Stand())
	finishRound(t, e)
	assert.Equal(t, 1, e.Counter().RunningCount())
}

func TestReshuffleResetsCount(t *testing.T) {
	t.Parallel()
	rules := DefaultRules()
	rules.NumDecks = 1
	rules.ReshuffleBelow = 50
	rules.CountResetBelow = 0

	shoe := deck.NewShoe(1, randutil.New(3))
	require.NoError(t, shoe.Arrange(deck.MustParseCards("Ts Kh 7c 9d 3s")...))
	e := NewEngine(randutil.New(3), log.New(io.Discard), WithRules(rules), WithShoe(shoe))

	startRound(t, e, 10)
	require.NoError(t, e.Stand())
	finishRound(t, e)
	require.Equal(t, -1, e.Counter().RunningCount())

	require.NoError(t, e.InitRound(dec(10)))
	assert.Equal(t, 2, e.Shoe().Shuffles())
	assert.Equal(t, deck.CardsPerDeck, e.Shoe().RemainingCards())
	assert.Equal(t, 0, e.Counter().RunningCount())
}

func TestShallowShoeResetsCount(t *testing.T) {
	t.Parallel()
	rules := DefaultRules()
	rules.NumDecks = 1
	rules.ReshuffleBelow = 0
	rules.CountResetBelow = deck.CardsPerDeck

	shoe := deck.NewShoe(1, randutil.New(3))
	require.NoError(t, shoe.Arrange(deck.MustParseCards("Ts Kh 7c 9d 3s")...))
	e := NewEngine(randutil.New(3), log.New(io.Discard), WithRules(rules), WithShoe(shoe))

	startRound(t, e, 10)
	require.NoError(t, e.Stand())
	finishRound(t, e)
	require.Equal(t, -1, e.Counter().RunningCount())

	require.NoError(t, e.InitRound(dec(10)))
	assert.Equal(t, 1, e.Shoe().Shuffles(), "no reshuffle")
	assert.Equal(t, 0, e.Counter().RunningCount())
}

func TestRecommended(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  strategy.Action
	}{
		{"hard 16 vs 9 hits", "Ts 6h 9c 7d", strategy.Hit},
		{"hard 16 vs 6 stands", "Ts 6h 6c 7d", strategy.Stand},
		{"hard 9 is a free double", "5s 4h Tc 7d", strategy.Double},
		{"pair of sixes is a free split", "6s 6h Tc 7d", strategy.Split},
		{"soft 18 vs ace hits", "As 7h Ac 7d", strategy.Hit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cards)
			startRound(t, e, 10)
			assert.Equal(t, tt.want, e.Recommended())
		})
	}
}

func TestCheckAction(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 6h Tc 7d")
	startRound(t, e, 10)

	correct, rec := e.CheckAction(strategy.Stand)
	assert.False(t, correct)
	assert.Equal(t, strategy.Hit, rec)

	correct, _ = e.CheckAction(strategy.Hit)
	assert.True(t, correct)

	free := newTestEngine(t, "5s 6h Tc 7d")
	startRound(t, free, 10)
	correct, rec = free.CheckAction(strategy.Double)
	assert.True(t, correct)
	assert.Equal(t, strategy.Double, rec)
}

func TestStatsRestore(t *testing.T) {
	t.Parallel()
	e := NewEngine(randutil.New(1), log.New(io.Discard))
	assertDec(t, 1000, e.Balance(), "default balance")
	require.Len(t, e.Stats().BalanceHistory, 1)

	e.SetStats(Stats{Wins: 3, TotalHands: 4, BalanceHistory: []decimal.Decimal{dec(1000), dec(1200)}})
	assertDec(t, 1200, e.Balance(), "balance from history")
	assert.Equal(t, 3, e.Stats().Wins)
	assertDec(t, 200, e.Stats().ProfitLoss(), "profit")
	assert.Equal(t, 75, e.Stats().WinPercentage())

	e.SetStats(Stats{Losses: 2})
	assertDec(t, 1200, e.Balance(), "empty history keeps balance")
	history := e.Stats().BalanceHistory
	require.Len(t, history, 1)
	assertDec(t, 1200, history[0], "seeded history")

	e.ResetStats()
	stats := e.Stats()
	assert.Equal(t, 0, stats.Losses)
	require.Len(t, stats.BalanceHistory, 1)
	assertDec(t, 1200, stats.BalanceHistory[0], "reset history")

	stats.BalanceHistory[0] = dec(1)
	assertDec(t, 1200, e.Stats().BalanceHistory[0], "stats are copied")
}

func TestWithStatsOption(t *testing.T) {
	t.Parallel()
	e := NewEngine(randutil.New(1), log.New(io.Discard),
		WithStats(Stats{BalanceHistory: []decimal.Decimal{dec(1000), dec(750)}}))
	assertDec(t, 750, e.Balance(), "balance")
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 6h 9c 7d")
	startRound(t, e, 10)

	snap := e.Snapshot()
	assert.Equal(t, PhasePlayerTurn, snap.Phase)
	assert.NotEmpty(t, snap.RoundID)
	assertDec(t, 10, snap.Bet, "bet")
	assertDec(t, 990, snap.Balance, "balance")
	assert.Equal(t, strategy.Hit, snap.Recommended)
	assert.False(t, snap.Dealer.Cards[1].FaceUp)
	assert.Equal(t, 6*deck.CardsPerDeck-4, snap.RemainingCards)
	assertDec(t, 5, snap.RecommendedBet, "recommended bet at neutral count")

	snap.Hands[0].AddCard(deck.NewCard(deck.Clubs, deck.King))
	assert.Equal(t, 2, e.Hands()[0].Len())
	assert.Equal(t, 16, e.ActiveHand().Total())
}

func TestRoundIDsAreUnique(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, "Ts 9h 7c 9d 3s")
	startRound(t, e, 10)
	first := e.RoundID()
	require.NoError(t, e.Stand())
	finishRound(t, e)

	require.NoError(t, e.InitRound(dec(10)))
	assert.NotEqual(t, first, e.RoundID())
	assert.Nil(t, e.LastSettlement())
}

func TestRulesValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultRules().Validate())

	bad := DefaultRules()
	bad.NumDecks = 0
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.MaxBet = dec(1)
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.ReshuffleBelow = 6 * deck.CardsPerDeck
	assert.Error(t, bad.Validate())

	noMax := DefaultRules()
	noMax.MaxBet = decimal.Zero
	assert.NoError(t, noMax.Validate())
}

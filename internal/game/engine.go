package game

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/freebet/internal/counting"
	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
)

// Phase is the stage of the current round
type Phase int

const (
	PhaseBetting Phase = iota
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseBetting:
		return "betting"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseDealerTurn:
		return "dealer_turn"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, v := range []Phase{PhaseBetting, PhasePlayerTurn, PhaseDealerTurn, PhaseSettled} {
		if v.String() == string(text) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %q", text)
}

type dealerMode int

const (
	dealerModeNone dealerMode = iota
	dealerModeAll
	dealerModeStepped
)

// freeSplitGroup pairs the hand that was free-split with the sibling it produced
type freeSplitGroup struct {
	first, second *hand.Hand
	bet           decimal.Decimal
}

func (g freeSplitGroup) contains(h *hand.Hand) bool {
	return g.first == h || g.second == h
}

// Engine runs free bet blackjack rounds against a single shoe. It is not
// safe for concurrent use; callers serialise actions.
type Engine struct {
	rules   Rules
	shoe    *deck.Shoe
	counter *counting.Tracker
	logger  *log.Logger

	phase      Phase
	roundID    string
	bet        decimal.Decimal
	betPlaced  bool
	staked     decimal.Decimal // money taken from the balance this round
	hands      []*hand.Hand
	active     int
	dealer     *hand.Hand
	freeSplits []freeSplitGroup
	dealerMode dealerMode
	revealed   bool
	settled    bool
	settlement *Settlement

	balance      decimal.Decimal
	stats        Stats
	lastShuffles int

	// pendingSplit holds active index + 1 while a split is being applied
	pendingSplit atomic.Int32
}

// NewEngine creates an engine. The RNG is required so that shuffles are
// explicit and reproducible; it is unused when WithShoe is given.
func NewEngine(rng *rand.Rand, logger *log.Logger, opts ...Option) *Engine {
	if rng == nil {
		panic("rng is required for engine creation")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	cfg := &engineConfig{rules: DefaultRules()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rules.NumDecks < 1 {
		cfg.rules.NumDecks = 1
	}

	shoe := cfg.shoe
	if shoe == nil {
		shoe = deck.NewShoe(cfg.rules.NumDecks, rng)
	}

	e := &Engine{
		rules:        cfg.rules,
		shoe:         shoe,
		counter:      counting.NewTracker(),
		logger:       logger.WithPrefix("engine"),
		phase:        PhaseBetting,
		dealer:       hand.New(decimal.Zero, false),
		balance:      cfg.rules.StartingBalance,
		lastShuffles: shoe.Shuffles(),
	}
	if cfg.balance != nil {
		e.balance = *cfg.balance
	}
	e.stats = Stats{BalanceHistory: []decimal.Decimal{e.balance}}
	if cfg.stats != nil {
		e.SetStats(*cfg.stats)
	}
	return e
}

// InitRound validates and places the bet for a new round. It is allowed
// before the first round and after the previous round has been settled.
func (e *Engine) InitRound(bet decimal.Decimal) error {
	switch {
	case e.phase == PhaseBetting && !e.betPlaced:
	case e.phase == PhaseSettled && e.settled:
	default:
		return illegal("cannot start a round during %s", e.phase)
	}
	if err := e.validateBet(bet); err != nil {
		return err
	}

	if e.shoe.RemainingCards() < e.rules.ReshuffleBelow {
		e.shoe.Reset(e.rules.NumDecks)
		e.logger.Debug("Shoe replenished", "decks", e.rules.NumDecks)
	}
	if e.shoe.Shuffles() != e.lastShuffles || e.shoe.RemainingCards() < e.rules.CountResetBelow {
		e.counter.Reset()
		e.lastShuffles = e.shoe.Shuffles()
		e.logger.Debug("Count reset", "remaining", e.shoe.RemainingCards())
	}

	e.balance = e.balance.Sub(bet)
	e.bet = bet
	e.staked = bet
	e.betPlaced = true
	e.hands = []*hand.Hand{hand.New(bet, false)}
	e.active = 0
	e.dealer = hand.New(decimal.Zero, false)
	e.freeSplits = nil
	e.dealerMode = dealerModeNone
	e.revealed = false
	e.settled = false
	e.settlement = nil
	e.roundID = uuid.NewString()
	e.phase = PhaseBetting

	e.logger.Debug("Round initialised", "round", e.roundID, "bet", bet, "balance", e.balance)
	return nil
}

func (e *Engine) validateBet(bet decimal.Decimal) error {
	if bet.LessThan(e.rules.MinBet) {
		return &ValidationError{Field: "bet", Value: bet.String(), Reason: "below the table minimum of " + e.rules.MinBet.String()}
	}
	if e.rules.MaxBet.IsPositive() && bet.GreaterThan(e.rules.MaxBet) {
		return &ValidationError{Field: "bet", Value: bet.String(), Reason: "above the table maximum of " + e.rules.MaxBet.String()}
	}
	if bet.GreaterThan(e.balance) {
		return &ValidationError{Field: "bet", Value: bet.String(), Reason: "exceeds balance of " + e.balance.String()}
	}
	return nil
}

// DealInitial deals two cards each, the dealer's second face down. A player
// blackjack skips straight to the dealer's turn.
func (e *Engine) DealInitial() error {
	if e.phase != PhaseBetting || !e.betPlaced {
		return illegal("cannot deal during %s without a bet", e.phase)
	}

	player := e.hands[0]
	player.AddCard(e.shoe.Draw(true))
	player.AddCard(e.shoe.Draw(true))
	e.dealer.AddCard(e.shoe.Draw(true))
	e.dealer.AddCard(e.shoe.Draw(false))

	e.phase = PhasePlayerTurn
	e.logger.Debug("Dealt", "player", player, "dealer", e.dealer)

	if player.Blackjack {
		e.stats.Blackjacks++
		e.phase = PhaseDealerTurn
		e.logger.Debug("Player blackjack")
	}
	return nil
}

// Hit draws a card into the active hand and moves on if it busts
func (e *Engine) Hit() error {
	if e.phase != PhasePlayerTurn {
		return illegal("cannot hit during %s", e.phase)
	}
	h := e.hands[e.active]
	h.AddCard(e.shoe.Draw(true))
	e.logger.Debug("Hit", "hand", e.active, "cards", h)
	if h.Busted {
		e.advance()
	}
	return nil
}

// Stand finishes the active hand
func (e *Engine) Stand() error {
	if e.phase != PhasePlayerTurn {
		return illegal("cannot stand during %s", e.phase)
	}
	e.hands[e.active].Stood = true
	e.logger.Debug("Stand", "hand", e.active)
	e.advance()
	return nil
}

// Double doubles the active hand and draws exactly one card. A free double
// leaves the balance alone and is only offered on hard 9, 10 and 11.
func (e *Engine) Double(free bool) error {
	if e.phase != PhasePlayerTurn {
		return illegal("cannot double during %s", e.phase)
	}
	h := e.hands[e.active]
	if !h.CanDouble() {
		return illegal("hand %d cannot double", e.active)
	}

	if free {
		if !h.IsFreeDoubleEligible() {
			return illegal("hand %d is not eligible for a free double", e.active)
		}
		h.FreeDoubled = true
		e.stats.FreeDoubles++
	} else {
		if e.balance.LessThan(h.Bet) {
			return ErrInsufficientFunds
		}
		e.balance = e.balance.Sub(h.Bet)
		e.staked = e.staked.Add(h.Bet)
		h.Bet = h.Bet.Mul(decimal.NewFromInt(2))
		h.Doubled = true
	}

	h.AddCard(e.shoe.Draw(true))
	h.Stood = true
	e.logger.Debug("Double", "hand", e.active, "free", free, "cards", h)
	e.advance()
	return nil
}

// Split moves the active pair's second card to a new hand right after it
// and deals one card to each. The new hand rides on a free bet when free is
// set; otherwise its wager comes from the balance.
func (e *Engine) Split(free bool) error {
	if !e.pendingSplit.CompareAndSwap(0, int32(e.active+1)) {
		return ErrSplitInProgress
	}
	defer e.pendingSplit.Store(0)

	if e.phase != PhasePlayerTurn {
		return illegal("cannot split during %s", e.phase)
	}
	h := e.hands[e.active]
	if !h.CanSplit() {
		return illegal("hand %d cannot split", e.active)
	}
	if free {
		if !h.IsFreeSplitEligible() {
			return illegal("hand %d is not eligible for a free split", e.active)
		}
		if e.inFreeSplit(h) {
			return illegal("hand %d was already free split", e.active)
		}
	} else if e.balance.LessThan(h.Bet) {
		return ErrInsufficientFunds
	}

	if !free {
		e.balance = e.balance.Sub(h.Bet)
		e.staked = e.staked.Add(h.Bet)
	}

	sibling := hand.New(h.Bet, free)
	card, _ := h.RemoveLast()
	sibling.AddCard(card)
	h.AddCard(e.shoe.Draw(true))
	sibling.AddCard(e.shoe.Draw(true))
	h.Split = true
	sibling.Split = true

	e.hands = append(e.hands, nil)
	copy(e.hands[e.active+2:], e.hands[e.active+1:])
	e.hands[e.active+1] = sibling

	if free {
		e.stats.FreeSplits++
		e.freeSplits = append(e.freeSplits, freeSplitGroup{first: h, second: sibling, bet: h.Bet})
	}

	e.logger.Debug("Split", "hand", e.active, "free", free, "hands", len(e.hands))
	return nil
}

// FreeSplitAvailable reports whether Split(true) would be accepted for the
// active hand. A hand that came out of a free split cannot be free split
// again.
func (e *Engine) FreeSplitAvailable() bool {
	if e.phase != PhasePlayerTurn || e.active >= len(e.hands) {
		return false
	}
	h := e.hands[e.active]
	return h.CanSplit() && h.IsFreeSplitEligible() && !e.inFreeSplit(h)
}

func (e *Engine) inFreeSplit(h *hand.Hand) bool {
	for _, g := range e.freeSplits {
		if g.contains(h) {
			return true
		}
	}
	return false
}

func (e *Engine) advance() {
	e.active++
	if e.active >= len(e.hands) {
		e.phase = PhaseDealerTurn
		e.logger.Debug("Dealer turn")
	}
}

func (e *Engine) allHandsBusted() bool {
	for _, h := range e.hands {
		if !h.Busted {
			return false
		}
	}
	return true
}

func (e *Engine) dealerNeedsCard(d *hand.Hand) bool {
	total := d.Total()
	if total < 17 {
		return true
	}
	return e.rules.DealerHitsSoft17 && total == 17 && d.IsSoft()
}

func (e *Engine) reveal() {
	if !e.revealed {
		e.dealer.Reveal()
		e.revealed = true
	}
}

// DealerPlay reveals the hole card and draws the dealer out in one go.
// Nothing is drawn when every player hand has busted.
func (e *Engine) DealerPlay() error {
	if e.phase != PhaseDealerTurn {
		return illegal("dealer cannot play during %s", e.phase)
	}
	if e.dealerMode == dealerModeStepped {
		return illegal("dealer is already drawing card by card")
	}
	e.dealerMode = dealerModeAll
	e.reveal()

	if !e.allHandsBusted() {
		for e.dealerNeedsCard(e.dealer) {
			e.dealer.AddCard(e.shoe.Draw(true))
		}
	}

	e.phase = PhaseSettled
	e.logger.Debug("Dealer finished", "cards", e.dealer)
	return nil
}

// RevealDealer flips the hole card and commits the round to stepped dealer
// play. It is implied by the first DealerDrawOne.
func (e *Engine) RevealDealer() error {
	if e.phase != PhaseDealerTurn {
		return illegal("cannot reveal during %s", e.phase)
	}
	if e.dealerMode == dealerModeAll {
		return illegal("dealer is already playing out")
	}
	e.dealerMode = dealerModeStepped
	e.reveal()
	return nil
}

// DealerDrawOne draws at most one dealer card. When the dealer needs no
// more cards the round moves to Settled and drew is false.
func (e *Engine) DealerDrawOne() (card deck.Card, drew bool, err error) {
	if err := e.RevealDealer(); err != nil {
		return deck.Card{}, false, err
	}

	if e.allHandsBusted() || !e.dealerNeedsCard(e.dealer) {
		e.phase = PhaseSettled
		e.logger.Debug("Dealer finished", "cards", e.dealer)
		return deck.Card{}, false, nil
	}

	card = e.shoe.Draw(true)
	e.dealer.AddCard(card)
	e.logger.Debug("Dealer draws", "card", card, "total", e.dealer.Total())
	return card, true, nil
}

// PreviewDealer returns the cards the dealer is going to draw, read from the
// top of the shoe without touching it. The preview stops early when the shoe
// would need a refill mid-draw.
func (e *Engine) PreviewDealer() ([]deck.Card, error) {
	if e.phase != PhaseDealerTurn {
		return nil, illegal("cannot preview the dealer during %s", e.phase)
	}
	if e.allHandsBusted() {
		return nil, nil
	}

	sim := e.dealer.Clone()
	sim.Reveal()

	var upcoming []deck.Card
	// dealer can never need more than 11 cards to reach 17
	for _, c := range e.shoe.Peek(11) {
		if !e.dealerNeedsCard(sim) {
			break
		}
		c.FaceUp = true
		sim.AddCard(c)
		upcoming = append(upcoming, c)
	}
	return upcoming, nil
}

// Recommended returns the suggested action for the active hand. Free double
// and free split opportunities always win over the chart.
func (e *Engine) Recommended() strategy.Action {
	if e.phase != PhasePlayerTurn || e.active >= len(e.hands) {
		return strategy.None
	}
	h := e.hands[e.active]
	switch {
	case h.IsFreeDoubleEligible():
		return strategy.Double
	case e.FreeSplitAvailable():
		return strategy.Split
	}
	up, ok := e.dealer.UpCard()
	if !ok {
		return strategy.None
	}
	return strategy.Recommend(h, up.Rank, h.FreeBet)
}

// CheckAction grades a player decision against Recommended before it is
// applied. Taking a free double or free split is always correct.
func (e *Engine) CheckAction(a strategy.Action) (correct bool, recommended strategy.Action) {
	recommended = e.Recommended()
	if recommended == strategy.None {
		return false, recommended
	}
	h := e.hands[e.active]
	switch {
	case a == strategy.Double && h.IsFreeDoubleEligible():
		return true, recommended
	case a == strategy.Split && e.FreeSplitAvailable():
		return true, recommended
	}
	return a == recommended, recommended
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	return e.phase
}

// RoundID returns the identifier of the current or last round
func (e *Engine) RoundID() string {
	return e.roundID
}

// Rules returns the table rules
func (e *Engine) Rules() Rules {
	return e.rules
}

// Balance returns the player's balance
func (e *Engine) Balance() decimal.Decimal {
	return e.balance
}

// Bet returns the wager placed for the current round
func (e *Engine) Bet() decimal.Decimal {
	return e.bet
}

// Hands returns deep copies of the player hands
func (e *Engine) Hands() []*hand.Hand {
	out := make([]*hand.Hand, len(e.hands))
	for i, h := range e.hands {
		out[i] = h.Clone()
	}
	return out
}

// ActiveHand returns a copy of the hand being played, or nil outside the
// player turn
func (e *Engine) ActiveHand() *hand.Hand {
	if e.phase != PhasePlayerTurn || e.active >= len(e.hands) {
		return nil
	}
	return e.hands[e.active].Clone()
}

// ActiveIndex returns the index of the hand being played
func (e *Engine) ActiveIndex() int {
	return e.active
}

// Dealer returns a copy of the dealer hand. The hole card stays face down
// until the dealer's turn.
func (e *Engine) Dealer() *hand.Hand {
	return e.dealer.Clone()
}

// Counter returns the Hi-Lo tracker
func (e *Engine) Counter() *counting.Tracker {
	return e.counter
}

// Shoe returns the engine's shoe
func (e *Engine) Shoe() *deck.Shoe {
	return e.shoe
}

// TrueCount returns the current true count for the remaining shoe
func (e *Engine) TrueCount() float64 {
	return e.counter.TrueCount(e.shoe.RemainingDecks())
}

// RecommendedBet sizes the next bet from the true count
func (e *Engine) RecommendedBet() decimal.Decimal {
	return counting.RecommendedBet(e.TrueCount(), e.rules.MinBet, e.rules.MaxBet)
}

// LastSettlement returns the settlement of the current round, or nil
func (e *Engine) LastSettlement() *Settlement {
	return e.settlement
}

// Stats returns a copy of the statistics
func (e *Engine) Stats() Stats {
	return e.stats.Clone()
}

// SetStats restores statistics and takes the balance from the last history
// entry. An empty history is seeded with the current balance.
func (e *Engine) SetStats(s Stats) {
	e.stats = s.Clone()
	if len(e.stats.BalanceHistory) == 0 {
		e.stats.BalanceHistory = []decimal.Decimal{e.balance}
	}
	e.balance = e.stats.BalanceHistory[len(e.stats.BalanceHistory)-1]
}

// ResetStats clears the statistics, keeping the current balance as the
// first history entry
func (e *Engine) ResetStats() {
	e.stats = Stats{BalanceHistory: []decimal.Decimal{e.balance}}
}

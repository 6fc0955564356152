// Package tui is the terminal blackjack table. It drives a game.Engine from
// key presses and paces the dealer's draws on a quartz clock.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/freebet/internal/counting"
	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/game"
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
)

const (
	defaultRevealDelay = time.Second
	historyLimit       = 200
)

// dealerTickMsg asks for the next paced dealer card of a round
type dealerTickMsg struct {
	round string
}

// Option configures a Model
type Option func(*Model)

// WithClock replaces the real clock, for tests
func WithClock(clock quartz.Clock) Option {
	return func(m *Model) {
		m.clock = clock
	}
}

// WithRevealDelay sets the pause between dealer cards. Zero plays the
// dealer out at once.
func WithRevealDelay(d time.Duration) Option {
	return func(m *Model) {
		m.delay = d
	}
}

// WithStatsSaver is called with the statistics after every settled round
// and after a stats reset
func WithStatsSaver(save func(game.Stats) error) Option {
	return func(m *Model) {
		m.save = save
	}
}

// WithShowCount starts with the count panel visible
func WithShowCount(show bool) Option {
	return func(m *Model) {
		m.showCount = show
	}
}

// WithBet sets the opening bet
func WithBet(bet decimal.Decimal) Option {
	return func(m *Model) {
		m.bet = bet
	}
}

// Model is the Bubble Tea model for one player at the table
type Model struct {
	engine *game.Engine
	logger *log.Logger
	clock  quartz.Clock
	delay  time.Duration
	save   func(game.Stats) error

	keys    keyMap
	help    help.Model
	history viewport.Model
	lines   []string

	bet       decimal.Decimal
	showCount bool
	revealing bool
	quitting  bool

	message  string
	feedback string

	width  int
	height int
}

// New creates a model around engine
func New(engine *game.Engine, logger *log.Logger, opts ...Option) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Model{
		engine:  engine,
		logger:  logger.WithPrefix("tui"),
		clock:   quartz.NewReal(),
		delay:   defaultRevealDelay,
		keys:    defaultKeyMap(),
		help:    help.New(),
		history: viewport.New(40, 8),
		bet:     engine.Rules().MinBet,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.bet = m.clampBet(m.bet)
	return m
}

// Run starts the interactive program and blocks until the player quits
func Run(engine *game.Engine, logger *log.Logger, opts ...Option) error {
	_, err := tea.NewProgram(New(engine, logger, opts...), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.Width = max(msg.Width-4, 10)
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)
		return m, nil

	case dealerTickMsg:
		if !m.revealing || msg.round != m.engine.RoundID() {
			return m, nil
		}
		return m, m.dealerStep()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Deal):
		return m.deal()
	case key.Matches(msg, m.keys.Hit):
		return m.act(strategy.Hit)
	case key.Matches(msg, m.keys.Stand):
		return m.act(strategy.Stand)
	case key.Matches(msg, m.keys.Double):
		return m.act(strategy.Double)
	case key.Matches(msg, m.keys.Split):
		return m.act(strategy.Split)
	case key.Matches(msg, m.keys.BetUp):
		m.setBet(m.bet.Mul(decimal.NewFromInt(2)))
	case key.Matches(msg, m.keys.BetDown):
		m.setBet(m.bet.Div(decimal.NewFromInt(2)).Floor())
	case key.Matches(msg, m.keys.BetAdvice):
		m.setBet(m.engine.RecommendedBet())
	case key.Matches(msg, m.keys.Count):
		m.showCount = !m.showCount
	case key.Matches(msg, m.keys.Reset):
		m.engine.ResetStats()
		m.logHistory(InfoStyle.Render("Statistics reset"))
		m.persist()
		m.message = SuccessStyle.Render("Statistics reset")
	}
	return nil
}

func (m *Model) clampBet(bet decimal.Decimal) decimal.Decimal {
	rules := m.engine.Rules()
	if rules.MaxBet.IsPositive() && bet.GreaterThan(rules.MaxBet) {
		bet = rules.MaxBet
	}
	if bet.LessThan(rules.MinBet) {
		bet = rules.MinBet
	}
	return bet
}

func (m *Model) setBet(bet decimal.Decimal) {
	m.bet = m.clampBet(bet)
	m.message = InfoStyle.Render("Next bet " + money(m.bet))
}

func (m *Model) setError(err error) {
	m.logger.Debug("Action refused", "error", err)
	m.message = ErrorStyle.Render(err.Error())
}

// deal places the bet and deals a new round
func (m *Model) deal() tea.Cmd {
	if err := m.engine.InitRound(m.bet); err != nil {
		m.setError(err)
		return nil
	}
	if err := m.engine.DealInitial(); err != nil {
		m.setError(err)
		return nil
	}
	m.message = ""
	m.feedback = ""
	if m.engine.Hands()[0].Blackjack {
		m.message = SuccessStyle.Render("Blackjack!")
	}
	return m.afterPlayerAction()
}

// act grades and applies a player decision. Double and split are free
// whenever the hand qualifies.
func (m *Model) act(a strategy.Action) tea.Cmd {
	if m.engine.Phase() != game.PhasePlayerTurn {
		m.message = WarningStyle.Render("No hand to play, press enter to deal")
		return nil
	}
	h := m.engine.ActiveHand()
	correct, recommended := m.engine.CheckAction(a)

	var err error
	freeTaken := false
	switch a {
	case strategy.Hit:
		err = m.engine.Hit()
	case strategy.Stand:
		err = m.engine.Stand()
	case strategy.Double:
		freeTaken = h.IsFreeDoubleEligible()
		err = m.engine.Double(freeTaken)
	case strategy.Split:
		freeTaken = m.engine.FreeSplitAvailable()
		err = m.engine.Split(freeTaken)
	}
	if err != nil {
		m.setError(err)
		return nil
	}

	m.message = ""
	switch {
	case freeTaken:
		m.feedback = FreeBetStyle.Render("Free " + a.Name() + "!")
	case correct:
		m.feedback = SuccessStyle.Render("Correct")
	default:
		m.feedback = WarningStyle.Render("Basic strategy says " + recommended.Name())
	}
	return m.afterPlayerAction()
}

func (m *Model) afterPlayerAction() tea.Cmd {
	if m.engine.Phase() != game.PhaseDealerTurn {
		return nil
	}
	if m.delay <= 0 {
		if err := m.engine.DealerPlay(); err != nil {
			m.setError(err)
			return nil
		}
		m.finish()
		return nil
	}
	if err := m.engine.RevealDealer(); err != nil {
		m.setError(err)
		return nil
	}
	m.revealing = true
	return m.scheduleDealer()
}

// scheduleDealer arms the clock for the next dealer card. The timer is
// registered before the command runs so a mock clock can be advanced
// straight away.
func (m *Model) scheduleDealer() tea.Cmd {
	ch := make(chan tea.Msg, 1)
	round := m.engine.RoundID()
	m.clock.AfterFunc(m.delay, func() {
		ch <- dealerTickMsg{round: round}
	}, "tui", "dealer")
	return func() tea.Msg {
		return <-ch
	}
}

func (m *Model) dealerStep() tea.Cmd {
	card, drew, err := m.engine.DealerDrawOne()
	if err != nil {
		m.revealing = false
		m.setError(err)
		return nil
	}
	if drew {
		m.logger.Debug("Dealer card shown", "card", card)
		return m.scheduleDealer()
	}
	m.finish()
	return nil
}

// finish settles the round and records the outcome
func (m *Model) finish() {
	m.revealing = false
	s, err := m.engine.Settle()
	if err != nil {
		m.setError(err)
		return
	}

	net := s.Net()
	switch {
	case s.Dealer22:
		m.message = WarningStyle.Render("Dealer 22, standing hands push")
	case net.IsPositive():
		m.message = SuccessStyle.Render("You win " + money(net))
	case net.IsNegative():
		m.message = ErrorStyle.Render("You lose " + money(net.Neg()))
	default:
		m.message = InfoStyle.Render("Push")
	}
	if s.FreeSplitBonus.IsNegative() {
		m.message += " " + FreeBetStyle.Render("(free split pays 3 bets)")
	}

	m.logHistory(fmt.Sprintf("%s dealer %s | %s | %s",
		time.Now().Format("15:04"), renderHand(m.engine.Dealer()), outcomeSummary(s), signedMoney(net)))
	m.persist()
}

func (m *Model) persist() {
	if m.save == nil {
		return
	}
	if err := m.save(m.engine.Stats()); err != nil {
		m.logger.Warn("Failed to save stats", "error", err)
		m.message += " " + WarningStyle.Render("(stats not saved)")
	}
}

func (m *Model) logHistory(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > historyLimit {
		m.lines = m.lines[len(m.lines)-historyLimit:]
	}
	m.history.SetContent(strings.Join(m.lines, "\n"))
	m.history.GotoBottom()
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("FREE BET BLACKJACK"))
	b.WriteString(" ")
	b.WriteString(InfoStyle.Render("free doubles on 9-11, free splits except tens, dealer 22 pushes"))
	b.WriteString("\n\n")

	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	if m.feedback != "" {
		b.WriteString("\n" + m.feedback)
	}
	if m.message != "" {
		b.WriteString("\n" + m.message)
	}
	b.WriteString("\n")

	if len(m.lines) > 0 {
		b.WriteString(PaneStyle.Render(m.history.View()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTable() string {
	var b strings.Builder
	dealer := m.engine.Dealer()
	b.WriteString(HandInfoStyle.Render("Dealer: "))
	if dealer.Len() > 0 {
		b.WriteString(renderHand(dealer))
	}
	b.WriteString("\n\n")

	playing := m.engine.Phase() == game.PhasePlayerTurn
	for i, h := range m.engine.Hands() {
		if h.Len() == 0 {
			continue
		}
		marker := "  "
		label := fmt.Sprintf("Hand %d: ", i+1)
		if playing && i == m.engine.ActiveIndex() {
			marker = ActiveHandStyle.Render("▶ ")
			label = ActiveHandStyle.Render(label)
		}
		b.WriteString(marker + label + renderHand(h) + " " + InfoStyle.Render(money(h.Bet)))
		if tags := handTags(h); tags != "" {
			b.WriteString(" " + FreeBetStyle.Render(tags))
		}
		if h.Result != hand.ResultNone {
			b.WriteString(" " + resultLabel(h))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	stats := m.engine.Stats()
	balance := fmt.Sprintf("Balance: %s  Next bet: %s", money(m.engine.Balance()), money(m.bet))
	if phase := m.engine.Phase(); phase == game.PhasePlayerTurn || phase == game.PhaseDealerTurn {
		balance += "  In play: " + money(m.engine.Bet())
	}
	lines := []string{
		balance,
		InfoStyle.Render(fmt.Sprintf("Hands: %d  Win%%: %d  P/L: %s  Free doubles: %d  Free splits: %d  Dealer 22s: %d",
			stats.TotalHands, stats.WinPercentage(), signedMoney(stats.ProfitLoss()),
			stats.FreeDoubles, stats.FreeSplits, stats.Dealer22s)),
	}

	if m.showCount {
		tc := m.engine.TrueCount()
		lines = append(lines,
			WarningStyle.Render(fmt.Sprintf("Running: %+d  True: %+.1f  Decks left: %d  Suggested bet: %s",
				m.engine.Counter().RunningCount(), tc, m.engine.Shoe().RemainingDecks(), money(m.engine.RecommendedBet()))),
			InfoStyle.Render(counting.Advice(tc)))
		if rec := m.engine.Recommended(); rec != strategy.None {
			lines = append(lines, InfoStyle.Render("Hint: "+rec.Name()))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCard(c deck.Card) string {
	switch {
	case !c.FaceUp:
		return HiddenCardStyle.Render("??")
	case c.IsRed():
		return RedCardStyle.Render(c.Pretty())
	default:
		return BlackCardStyle.Render(c.Pretty())
	}
}

func renderHand(h *hand.Hand) string {
	cards := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		cards[i] = renderCard(c)
	}
	total := fmt.Sprintf("(%d)", h.Total())
	if h.IsSoft() {
		total = fmt.Sprintf("(soft %d)", h.Total())
	}
	return strings.Join(cards, " ") + " " + InfoStyle.Render(total)
}

func handTags(h *hand.Hand) string {
	var tags []string
	if h.FreeBet {
		tags = append(tags, "FREE SPLIT")
	}
	if h.FreeDoubled {
		tags = append(tags, "FREE DOUBLE")
	}
	if h.Doubled {
		tags = append(tags, "DOUBLED")
	}
	return strings.Join(tags, " ")
}

func resultLabel(h *hand.Hand) string {
	switch h.Result {
	case hand.ResultBlackjack:
		return SuccessStyle.Render("BLACKJACK " + money(h.Winnings))
	case hand.ResultWin:
		return SuccessStyle.Render("WIN " + money(h.Winnings))
	case hand.ResultPush:
		return InfoStyle.Render("PUSH")
	default:
		if h.Busted {
			return ErrorStyle.Render("BUST")
		}
		return ErrorStyle.Render("LOSE")
	}
}

func outcomeSummary(s *game.Settlement) string {
	parts := make([]string, len(s.Hands))
	for i, h := range s.Hands {
		parts[i] = fmt.Sprintf("%d %s", h.Total, h.Result)
	}
	return strings.Join(parts, ", ")
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + money(d.Neg())
	}
	return "+" + money(d)
}

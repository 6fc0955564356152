package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/freebet/internal/counting"
)

// DrillPaces are the dealing speeds the drill steps through, slowest first
var DrillPaces = []time.Duration{
	2 * time.Second,
	time.Second,
	500 * time.Millisecond,
	250 * time.Millisecond,
}

// drillTickMsg asks for the next card of a dealing run
type drillTickMsg struct {
	run int
}

type drillKeyMap struct {
	Start  key.Binding
	Pause  key.Binding
	Check  key.Binding
	Slower key.Binding
	Faster key.Binding
	Quit   key.Binding
}

func defaultDrillKeyMap() drillKeyMap {
	return drillKeyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "new deck"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Check: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "check count"),
		),
		Slower: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "slower"),
		),
		Faster: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "faster"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k drillKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Check, k.Slower, k.Faster, k.Quit}
}

// FullHelp implements help.KeyMap
func (k drillKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// DrillOption configures a DrillModel
type DrillOption func(*DrillModel)

// WithDrillClock replaces the real clock, for tests
func WithDrillClock(clock quartz.Clock) DrillOption {
	return func(m *DrillModel) {
		m.clock = clock
	}
}

// WithDrillPace sets the pause between cards
func WithDrillPace(d time.Duration) DrillOption {
	return func(m *DrillModel) {
		if d > 0 {
			m.pace = d
		}
	}
}

// DrillModel deals a deck at a steady pace while the player keeps the
// running count and checks it whenever they like
type DrillModel struct {
	drill  *counting.Drill
	logger *log.Logger
	clock  quartz.Clock
	pace   time.Duration

	keys  drillKeyMap
	help  help.Model
	input textinput.Model

	run      int // bumped whenever pending ticks must be dropped
	dealing  bool
	started  bool
	finished bool // the tick after the last card
	quitting bool

	result string
}

// NewDrill creates a drill screen. Dealing starts when the player asks.
func NewDrill(drill *counting.Drill, logger *log.Logger, opts ...DrillOption) *DrillModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ti := textinput.New()
	ti.Placeholder = "running count"
	ti.Focus()
	ti.CharLimit = 4
	ti.Width = 16
	ti.Prompt = "Count> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Validate = func(s string) error {
		if s == "" || s == "-" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}

	m := &DrillModel{
		drill:  drill,
		logger: logger.WithPrefix("drill"),
		clock:  quartz.NewReal(),
		pace:   time.Second,
		keys:   defaultDrillKeyMap(),
		help:   help.New(),
		input:  ti,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunDrill starts the drill program and blocks until the player quits
func RunDrill(drill *counting.Drill, logger *log.Logger, opts ...DrillOption) error {
	_, err := tea.NewProgram(NewDrill(drill, logger, opts...), tea.WithAltScreen()).Run()
	return err
}

func (m *DrillModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *DrillModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case drillTickMsg:
		if !m.dealing || msg.run != m.run {
			return m, nil
		}
		return m, m.deal()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Start):
			return m, m.start()
		case key.Matches(msg, m.keys.Pause):
			return m, m.togglePause()
		case key.Matches(msg, m.keys.Check):
			m.check()
			return m, nil
		case key.Matches(msg, m.keys.Slower):
			return m, m.changePace(-1)
		case key.Matches(msg, m.keys.Faster):
			return m, m.changePace(1)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start shuffles a new deck and deals its first card at once
func (m *DrillModel) start() tea.Cmd {
	m.drill.Restart()
	m.input.SetValue("")
	m.result = ""
	m.started = true
	m.finished = false
	m.dealing = true
	m.run++
	m.logger.Debug("Drill started", "pace", m.pace)
	return m.deal()
}

func (m *DrillModel) togglePause() tea.Cmd {
	if !m.started || m.finished {
		return nil
	}
	m.run++
	m.dealing = !m.dealing
	if m.dealing {
		return m.schedule()
	}
	return nil
}

// changePace steps through DrillPaces. A positive step deals faster.
func (m *DrillModel) changePace(step int) tea.Cmd {
	i := paceIndex(m.pace) + step
	i = max(0, min(i, len(DrillPaces)-1))
	if DrillPaces[i] == m.pace {
		return nil
	}
	m.pace = DrillPaces[i]
	if !m.dealing {
		return nil
	}
	m.run++
	return m.schedule()
}

// paceIndex returns the slot of the slowest listed pace at or faster than d
func paceIndex(d time.Duration) int {
	for i, p := range DrillPaces {
		if p <= d {
			return i
		}
	}
	return len(DrillPaces) - 1
}

func (m *DrillModel) deal() tea.Cmd {
	card, ok := m.drill.Next()
	if !ok {
		m.dealing = false
		m.finished = true
		m.logger.Debug("Drill finished")
		return nil
	}
	m.logger.Debug("Drill card", "card", card, "dealt", m.drill.Dealt())
	return m.schedule()
}

// schedule arms the clock for the next card of the current run
func (m *DrillModel) schedule() tea.Cmd {
	ch := make(chan tea.Msg, 1)
	run := m.run
	m.clock.AfterFunc(m.pace, func() {
		ch <- drillTickMsg{run: run}
	}, "tui", "drill")
	return func() tea.Msg {
		return <-ch
	}
}

func (m *DrillModel) check() {
	if !m.started {
		m.result = WarningStyle.Render("Press s to deal a deck")
		return
	}
	guess, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil {
		m.result = WarningStyle.Render("Type the running count first")
		return
	}
	correct, actual := m.drill.Check(guess)
	if correct {
		m.result = SuccessStyle.Render(fmt.Sprintf("Correct! The running count is %+d", actual))
	} else {
		m.result = ErrorStyle.Render(fmt.Sprintf("Not quite. The running count is %+d", actual))
	}
	m.logger.Debug("Count checked", "guess", guess, "actual", actual, "dealt", m.drill.Dealt())
}

func (m *DrillModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Hi-Lo counting drill"))
	b.WriteString("\n\n")

	card := InfoStyle.Render("--")
	switch last, ok := m.drill.Last(); {
	case m.finished:
		card = WarningStyle.Render("End of deck")
	case ok:
		card = renderCard(last)
	}
	b.WriteString(PaneStyle.Padding(1, 4).Render(card))
	b.WriteString("\n\n")

	state := "dealing"
	switch {
	case !m.started:
		state = "press s to start"
	case m.finished:
		state = "finished"
	case !m.dealing:
		state = "paused"
	}
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Cards: %d/%d  Pace: %s  (%s)",
		m.drill.Dealt(), m.drill.Dealt()+m.drill.Remaining(), m.pace, state)))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.result != "" {
		b.WriteString(m.result)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

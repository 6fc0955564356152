package tui

import (
	"context"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"
	"github.com/lox/freebet/internal/counting"
	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDrill(opts ...DrillOption) *DrillModel {
	return NewDrill(counting.NewDrill(randutil.New(11)), nil, opts...)
}

func pressDrill(m *DrillModel, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// tick advances the clock past the pending timer and delivers its message
func tick(ctx context.Context, t *testing.T, m *DrillModel, clock *quartz.Mock, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	clock.Advance(m.pace).MustWait(ctx)
	_, next := m.Update(cmd())
	return next
}

func TestDrillDealsOnTheClock(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	m := newTestDrill(WithDrillClock(clock))
	assert.Contains(t, m.View(), "press s to start")

	cmd := pressDrill(m, "s")
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.drill.Dealt(), "the first card is dealt at once")
	assert.Contains(t, m.View(), "Cards: 1/52")

	cmd = tick(ctx, t, m, clock, cmd)
	assert.Equal(t, 2, m.drill.Dealt())
	assert.NotNil(t, cmd)
}

func TestDrillCheck(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	m := newTestDrill(WithDrillClock(clock))

	pressDrill(m, "enter")
	assert.Contains(t, m.View(), "Press s to deal a deck")

	// start deals one random card, so compare against the drill itself
	pressDrill(m, "s")
	_, actual := m.drill.Check(0)

	pressDrill(m, "enter")
	assert.Contains(t, m.View(), "Type the running count first")

	m.input.SetValue(strconv.Itoa(actual))
	pressDrill(m, "enter")
	assert.Contains(t, m.View(), "Correct!")

	m.input.SetValue(strconv.Itoa(actual + 2))
	pressDrill(m, "enter")
	assert.Contains(t, m.View(), "Not quite.")
}

func TestDrillPause(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	m := newTestDrill(WithDrillClock(clock))

	pending := pressDrill(m, "s")
	assert.Nil(t, pressDrill(m, "space"))
	assert.Contains(t, m.View(), "(paused)")

	assert.Nil(t, tick(ctx, t, m, clock, pending), "a tick from before the pause is dropped")
	assert.Equal(t, 1, m.drill.Dealt())

	resumed := pressDrill(m, "space")
	tick(ctx, t, m, clock, resumed)
	assert.Equal(t, 2, m.drill.Dealt())
}

func TestDrillPace(t *testing.T) {
	t.Parallel()
	m := newTestDrill(WithDrillClock(quartz.NewMock(t)))

	tests := []struct {
		key  string
		want time.Duration
	}{
		{"]", 500 * time.Millisecond},
		{"]", 250 * time.Millisecond},
		{"]", 250 * time.Millisecond},
		{"[", 500 * time.Millisecond},
		{"[", time.Second},
		{"[", 2 * time.Second},
		{"[", 2 * time.Second},
	}
	for _, tt := range tests {
		pressDrill(m, tt.key)
		assert.Equal(t, tt.want, m.pace, "after %q", tt.key)
	}
	assert.Contains(t, m.View(), "Pace: 2s")
}

func TestDrillRunsOutTheDeck(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	m := newTestDrill(WithDrillClock(clock), WithDrillPace(250*time.Millisecond))

	cmd := pressDrill(m, "s")
	for range deck.CardsPerDeck {
		cmd = tick(ctx, t, m, clock, cmd)
	}
	assert.Nil(t, cmd)
	assert.Equal(t, deck.CardsPerDeck, m.drill.Dealt())
	assert.Contains(t, m.View(), "End of deck")
	assert.Nil(t, pressDrill(m, "space"), "a finished deck cannot resume")

	m.input.SetValue("0")
	pressDrill(m, "enter")
	assert.Contains(t, m.View(), "Correct! The running count is +0")

	cmd = pressDrill(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

package counting

import (
	"testing"

	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrillCountsDealtCards(t *testing.T) {
	t.Parallel()
	shoe := deck.NewShoe(1, randutil.New(1))
	require.NoError(t, shoe.Arrange(deck.MustParseCards("5s Kh 7d 2c")...))
	d := NewDrillWithShoe(shoe)

	_, ok := d.Last()
	assert.False(t, ok)

	tests := []struct {
		card  string
		count int
	}{
		{"5s", 1},
		{"Kh", 0},
		{"7d", 0},
		{"2c", 1},
	}
	for _, tt := range tests {
		card, ok := d.Next()
		require.True(t, ok)
		assert.Equal(t, tt.card, card.String())
		assert.True(t, card.FaceUp)

		correct, actual := d.Check(tt.count)
		assert.True(t, correct, "after %s", tt.card)
		assert.Equal(t, tt.count, actual)
	}

	correct, actual := d.Check(3)
	assert.False(t, correct)
	assert.Equal(t, 1, actual)

	last, ok := d.Last()
	require.True(t, ok)
	assert.Equal(t, "2c", last.String())
	assert.Equal(t, 4, d.Dealt())
	assert.Equal(t, deck.CardsPerDeck-4, d.Remaining())
}

func TestDrillEndsWithTheDeck(t *testing.T) {
	t.Parallel()
	d := NewDrill(randutil.New(7))

	for range deck.CardsPerDeck {
		_, ok := d.Next()
		require.True(t, ok)
	}
	assert.True(t, d.Done())

	_, ok := d.Next()
	assert.False(t, ok, "the drill never refills")
	assert.Equal(t, deck.CardsPerDeck, d.Dealt())

	correct, actual := d.Check(0)
	assert.True(t, correct, "a full deck is balanced")
	assert.Equal(t, 0, actual)
}

func TestDrillRestart(t *testing.T) {
	t.Parallel()
	d := NewDrill(randutil.New(9))
	for range 10 {
		d.Next()
	}

	d.Restart()
	assert.Equal(t, 0, d.Dealt())
	assert.Equal(t, deck.CardsPerDeck, d.Remaining())
	_, actual := d.Check(0)
	assert.Equal(t, 0, actual)
	_, ok := d.Last()
	assert.False(t, ok)
}

package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	d := New()

	assert.Equal(t, 40, d.CardsLeft())
	assert.Equal(t, Card{Rank: 1, Suit: Denari}, *d.Cards[0])
	assert.Equal(t, Card{Rank: 10, Suit: Coppe}, *d.Cards[39])

	// every rank appears exactly four times
	ranks := make(map[int]int)
	for _, card := range d.Cards {
		ranks[card.Rank]++
	}
	for rank := 1; rank <= 10; rank++ {
		assert.Equal(t, 4, ranks[rank], "rank %d", rank)
	}
}

func TestDeck_Shuffle(t *testing.T) {
	d := New()
	before := d.HashCode()

	d.SetSeed(1)
	d.Shuffle()
	seeded := d.HashCode()
	assert.NotEqual(t, before, seeded)

	// the same seed yields the same permutation
	d2 := New()
	d2.SetSeed(1)
	d2.Shuffle()
	assert.Equal(t, seeded, d2.HashCode())

	// still a 40-card deck after shuffling
	assert.Equal(t, 40, d.CardsLeft())

	d.Shuffle()
	assert.NotEqual(t, seeded, d.HashCode())
}

func TestDeck_Draw(t *testing.T) {
	d := New()

	if !d.CanDraw(40) {
		t.Errorf("expected CanDraw(40) to be true")
	}

	if d.CanDraw(41) {
		t.Errorf("expected CanDraw(41) to be false")
	}

	for i := 0; i < 40; i++ {
		card, err := d.Draw()
		if card == nil {
			t.Error("expected card, got nil")
		}

		if err != nil {
			t.Errorf("expected err to be nil, got %v", err)
		}
	}

	if d.CanDraw(1) {
		t.Errorf("expected CanDraw(1) to be false")
	}

	card, err := d.Draw()
	if card != nil {
		t.Errorf("expected card to be nil, got %#v", card)
	}

	if err != ErrEndOfDeck {
		t.Errorf("expected err to be ErrEndOfDeck, got %#v", err)
	}

	d.Shuffle()
	if !d.CanDraw(40) {
		t.Errorf("expected Shuffle() to rebuild the deck")
	}
}

func TestCardFromString(t *testing.T) {
	a := assert.New(t)

	a.Equal(Card{Rank: 7, Suit: Denari}, *CardFromString("7d"))
	a.Equal(Card{Rank: 10, Suit: Coppe}, *CardFromString("10c"))
	a.Nil(CardFromString(""))

	a.Panics(func() { CardFromString("11d") })
	a.Panics(func() { CardFromString("7h") })
}

func TestCardsToString(t *testing.T) {
	cards := CardsFromString("1d,8s,10b")
	assert.Equal(t, "1d,8s,10b", CardsToString(cards))
	assert.Equal(t, "", CardsToString(nil))
}

func TestCard_Equal(t *testing.T) {
	a := assert.New(t)
	a.True(CardFromString("5s").Equal(CardFromString("5s")))
	a.False(CardFromString("5s").Equal(CardFromString("5b")))
	a.False(CardFromString("5s").Equal(CardFromString("6s")))
}

package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Suit represents an Italian card suit
type Suit string

// suit constants
const (
	Denari  Suit = "denari"
	Spade   Suit = "spade"
	Bastoni Suit = "bastoni"
	Coppe   Suit = "coppe"
)

// Suits are the four suits in deck order
var Suits = []Suit{Denari, Spade, Bastoni, Coppe}

// MaxRank is the highest rank in the deck
const MaxRank = 10

// Card is an individual playing card
// Ranks run 1 through 10; 8 is the fante, 9 the cavallo, and 10 the re
type Card struct {
	Rank int  `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c *Card) String() string {
	var suit string
	switch c.Suit {
	case Denari:
		suit = "d"
	case Spade:
		suit = "s"
	case Bastoni:
		suit = "b"
	case Coppe:
		suit = "c"
	default:
		panic("unknown suit")
	}

	return fmt.Sprintf("%d%s", c.Rank, suit)
}

// Equal returns true if the cards are equal (matches suit and rank)
func (c *Card) Equal(card *Card) bool {
	return c.Suit == card.Suit && c.Rank == card.Rank
}

var cardRx = regexp.MustCompile(`(?i)^([1-9]|10)([dsbc])\z`)

// CardFromString returns a Card from the string.
// The string must be in the format of <rank><suit> where rank is 1-10 and suit in [dsbc]
func CardFromString(s string) *Card {
	if s == "" {
		return nil
	}

	match := cardRx.FindStringSubmatch(s)
	if match == nil {
		panic(fmt.Sprintf("could not parse card: %s", s))
	}

	rank, err := strconv.Atoi(match[1])
	if err != nil {
		panic(fmt.Sprintf("could not parse card `%s`: %v", s, err))
	}

	var suit Suit
	switch strings.ToLower(match[2]) {
	case "d":
		suit = Denari
	case "s":
		suit = Spade
	case "b":
		suit = Bastoni
	case "c":
		suit = Coppe
	default:
		// should never be hit due to the regexp
		panic("unknown suit")
	}

	return &Card{
		Rank: rank,
		Suit: suit,
	}
}

// CardsFromString will return a slice of cards from a string like "7d,8s,10c"
func CardsFromString(s string) []*Card {
	if s == "" {
		return []*Card{}
	}

	cardStrings := strings.Split(s, ",")
	cards := make([]*Card, len(cardStrings))
	for i, card := range cardStrings {
		cards[i] = CardFromString(card)
	}

	return cards
}

// CardsToString will convert a slice of cards to a string in the format of 7d,8s,10c
func CardsToString(cards []*Card) string {
	c := make([]string, len(cards))
	for i, card := range cards {
		c[i] = card.String()
	}

	return strings.Join(c, ",")
}

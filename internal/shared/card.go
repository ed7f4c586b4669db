package shared

import "fmt"

// Suit represents the suit of a card.
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
)

// Rank represents the rank of a card. Ace is high.
type Rank int

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Card represents a single card in a Spades game. A card has no identity
// beyond its (suit, rank) pair.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Define suit order for sorting hands (display order, spades last)
var suitOrder = map[Suit]int{
	Clubs:    0,
	Diamonds: 1,
	Hearts:   2,
	Spades:   3,
}

// Less orders cards by (suit, rank) for deterministic hand display.
func (c Card) Less(other Card) bool {
	if c.Suit != other.Suit {
		return suitOrder[c.Suit] < suitOrder[other.Suit]
	}
	return c.Rank < other.Rank
}

// Valid reports whether the card is a member of the standard 52-card deck.
func (c Card) Valid() bool {
	_, ok := suitOrder[c.Suit]
	return ok && c.Rank >= 2 && c.Rank <= Ace
}

func (c Card) String() string {
	return fmt.Sprintf("%d of %s", c.Rank, c.Suit)
}

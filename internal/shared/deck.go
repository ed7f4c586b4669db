package shared

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

const (
	// NumSeats is the number of players at the table.
	NumSeats = 4
	// HandSize is the number of cards dealt to each seat per round.
	HandSize = 13
	// DeckSize is the number of cards in a full deck.
	DeckSize = NumSeats * HandSize
)

// Deck represents a collection of cards.
type Deck struct {
	Cards []Card
}

// NewDeck creates a standard 52-card deck: 4 suits, ranks 2 through Ace.
func NewDeck() *Deck {
	suits := []Suit{Clubs, Diamonds, Hearts, Spades}

	cards := make([]Card, 0, DeckSize)
	for _, suit := range suits {
		for rank := Rank(2); rank <= Ace; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}

	return &Deck{Cards: cards}
}

// Shuffle randomizes the order of cards in the deck using the provided
// source. rng may be nil, in which case the shared global source is used.
func (d *Deck) Shuffle(rng *rand.Rand) {
	swap := func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
	if rng != nil {
		rng.Shuffle(len(d.Cards), swap)
	} else {
		rand.Shuffle(len(d.Cards), swap)
	}
}

// Deal splits the deck into NumSeats hands of HandSize cards, assigning
// card i to seat i mod NumSeats, then sorts each hand by (suit, rank).
// The deck must hold exactly DeckSize cards; anything else is a
// configuration fault that aborts round setup.
func (d *Deck) Deal() ([NumSeats][]Card, error) {
	var hands [NumSeats][]Card
	if len(d.Cards) != DeckSize {
		return hands, fmt.Errorf("deck holds %d cards, want %d", len(d.Cards), DeckSize)
	}

	for i := range hands {
		hands[i] = make([]Card, 0, HandSize)
	}
	for i, card := range d.Cards {
		seat := i % NumSeats
		hands[seat] = append(hands[seat], card)
	}
	for i := range hands {
		hand := hands[i]
		sort.Slice(hand, func(a, b int) bool { return hand[a].Less(hand[b]) })
	}

	d.Cards = nil
	return hands, nil
}

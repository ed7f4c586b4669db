package shared

import "log"

// PlayedCard stores a card along with the seat that played it.
type PlayedCard struct {
	Card Card `json:"card"`
	Seat int  `json:"seat"`
}

// Trick represents a single trick: an ordered sequence of up to NumSeats
// played cards, each tagged with its seat.
type Trick struct {
	Cards       []PlayedCard // Cards played in the current trick, in play order
	WinnerSeat  int          // Seat that won the trick (-1 if not determined)
}

// NewTrick creates a new empty trick.
func NewTrick() *Trick {
	return &Trick{
		Cards:      []PlayedCard{},
		WinnerSeat: -1,
	}
}

// AddCard appends a card and the seat that played it to the trick.
func (t *Trick) AddCard(card Card, seat int) {
	t.Cards = append(t.Cards, PlayedCard{Card: card, Seat: seat})
}

// LeadSuit returns the suit of the first card played, or "" for an empty
// trick.
func (t *Trick) LeadSuit() Suit {
	if len(t.Cards) == 0 {
		return ""
	}
	return t.Cards[0].Card.Suit
}

// DetermineWinner determines the winning seat of a completed trick.
// Spades trump: if any spade was played the highest spade wins, otherwise
// the highest card of the lead suit wins. Calling this on a trick without
// exactly NumSeats cards is a fault.
func (t *Trick) DetermineWinner() int {
	if len(t.Cards) != NumSeats {
		log.Panicf("Error: cannot determine winner of a trick with %d cards.", len(t.Cards))
	}

	best := -1
	bestIsSpade := false
	var bestRank Rank
	leadSuit := t.LeadSuit()

	for _, played := range t.Cards {
		card := played.Card
		switch {
		case card.Suit == Spades:
			if !bestIsSpade || card.Rank > bestRank {
				best = played.Seat
				bestIsSpade = true
				bestRank = card.Rank
			}
		case !bestIsSpade && card.Suit == leadSuit:
			if best == -1 || card.Rank > bestRank {
				best = played.Seat
				bestRank = card.Rank
			}
		}
	}

	t.WinnerSeat = best
	return best
}

package game

import "spades-game/internal/shared"

// IsLegalPlay reports whether playing card from hand is legal against the
// current trick. It is a pure function of its inputs.
//
// Leading: a spade may only be led once spades are broken, or when the
// hand holds nothing but spades. Following: the lead suit must be
// followed when the hand can; a void hand may play anything, including a
// spade (which is what breaks spades).
//
// The card is assumed to be present in hand; callers treat a card that is
// not as a protocol violation, not a legality failure.
func IsLegalPlay(card shared.Card, hand []shared.Card, trick *shared.Trick, spadesBroken bool) bool {
	if trick == nil || len(trick.Cards) == 0 {
		if card.Suit != shared.Spades {
			return true
		}
		return spadesBroken || handOnlySpades(hand)
	}

	leadSuit := trick.LeadSuit()
	if hasSuit(hand, leadSuit) {
		return card.Suit == leadSuit
	}
	return true
}

// LegalPlays returns the cards in hand that may legally be played now.
// Every non-empty hand has at least one legal play.
func LegalPlays(hand []shared.Card, trick *shared.Trick, spadesBroken bool) []shared.Card {
	var out []shared.Card
	for _, c := range hand {
		if IsLegalPlay(c, hand, trick, spadesBroken) {
			out = append(out, c)
		}
	}
	return out
}

// lowestLegalPlay is the deterministic timeout fallback: the legal card
// with the lowest rank, suit order breaking ties. Returns false for an
// empty hand.
func lowestLegalPlay(hand []shared.Card, trick *shared.Trick, spadesBroken bool) (shared.Card, bool) {
	legal := LegalPlays(hand, trick, spadesBroken)
	if len(legal) == 0 {
		return shared.Card{}, false
	}
	lowest := legal[0]
	for _, c := range legal[1:] {
		if c.Rank < lowest.Rank || (c.Rank == lowest.Rank && c.Less(lowest)) {
			lowest = c
		}
	}
	return lowest, true
}

func hasSuit(hand []shared.Card, suit shared.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func handOnlySpades(hand []shared.Card) bool {
	if len(hand) == 0 {
		return false
	}
	for _, c := range hand {
		if c.Suit != shared.Spades {
			return false
		}
	}
	return true
}

package shared

// Player represents one seated player in a Spades game.
type Player struct {
	ID        string // Unique identifier for the player
	Name      string // Player's chosen name
	Hand      []Card // Cards currently held by the player
	AutoPilot bool   // True once the player has left; the engine acts for them
}

// NewPlayer creates a new player with the given ID and name.
func NewPlayer(id string, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: []Card{},
	}
}

// RemoveCard removes a card from the player's hand.
func (p *Player) RemoveCard(card Card) bool {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HasCard reports whether the card is currently in the player's hand.
func (p *Player) HasCard(card Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// HasSuit reports whether the player holds at least one card of the suit.
func (p *Player) HasSuit(suit Suit) bool {
	for _, card := range p.Hand {
		if card.Suit == suit {
			return true
		}
	}
	return false
}

// HasOnlySuit reports whether every card in the hand is of the given suit.
// An empty hand reports false.
func (p *Player) HasOnlySuit(suit Suit) bool {
	if len(p.Hand) == 0 {
		return false
	}
	for _, card := range p.Hand {
		if card.Suit != suit {
			return false
		}
	}
	return true
}

package shared

import (
	"math/rand/v2"
	"testing"
)

func TestNewDeckIntegrity(t *testing.T) {
	deck := NewDeck()
	if len(deck.Cards) != DeckSize {
		t.Fatalf("deck has %d cards, want %d", len(deck.Cards), DeckSize)
	}
	seen := map[Card]bool{}
	for _, c := range deck.Cards {
		if !c.Valid() {
			t.Fatalf("invalid card in deck: %v", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card in deck: %v", c)
		}
		seen[c] = true
	}
}

func TestShuffleIsSeededPermutation(t *testing.T) {
	a := NewDeck()
	b := NewDeck()
	a.Shuffle(rand.New(rand.NewPCG(7, 7)))
	b.Shuffle(rand.New(rand.NewPCG(7, 7)))

	for i := range a.Cards {
		if a.Cards[i] != b.Cards[i] {
			t.Fatalf("same seed produced different orders at %d: %v vs %v", i, a.Cards[i], b.Cards[i])
		}
	}

	// Still a permutation of the full deck
	seen := map[Card]bool{}
	for _, c := range a.Cards {
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Fatalf("shuffle lost cards: %d unique, want %d", len(seen), DeckSize)
	}
}

func TestDealPartitionsDeck(t *testing.T) {
	deck := NewDeck()
	deck.Shuffle(rand.New(rand.NewPCG(1, 2)))
	hands, err := deck.Deal()
	if err != nil {
		t.Fatalf("deal: %v", err)
	}

	seen := map[Card]bool{}
	for seat, hand := range hands {
		if len(hand) != HandSize {
			t.Fatalf("seat %d has %d cards, want %d", seat, len(hand), HandSize)
		}
		for i, c := range hand {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
			if i > 0 && hand[i].Less(hand[i-1]) {
				t.Fatalf("seat %d hand not sorted at %d: %v before %v", seat, i, hand[i-1], hand[i])
			}
		}
	}
	if len(seen) != DeckSize {
		t.Fatalf("deal covered %d cards, want %d", len(seen), DeckSize)
	}
}

func TestDealRequiresFullDeck(t *testing.T) {
	deck := NewDeck()
	deck.Cards = deck.Cards[:DeckSize-1]
	if _, err := deck.Deal(); err == nil {
		t.Fatal("expected error dealing a short deck")
	}

	empty := &Deck{}
	if _, err := empty.Deal(); err == nil {
		t.Fatal("expected error dealing an empty deck")
	}
}

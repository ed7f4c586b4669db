package shared

import "testing"

func TestDetermineWinner_TableDriven(t *testing.T) {
	cases := []struct {
		name  string
		plays []PlayedCard
		want  int
	}{
		{
			name: "lone low spade beats high lead suit",
			plays: []PlayedCard{
				{Card{Clubs, 2}, 0},
				{Card{Clubs, King}, 1},
				{Card{Spades, 3}, 2},
				{Card{Clubs, Ace}, 3},
			},
			want: 2,
		},
		{
			name: "no spades, highest of lead suit wins",
			plays: []PlayedCard{
				{Card{Hearts, 10}, 0},
				{Card{Hearts, 2}, 1},
				{Card{Diamonds, King}, 2},
				{Card{Hearts, Ace}, 3},
			},
			want: 3,
		},
		{
			name: "off-suit ace never wins",
			plays: []PlayedCard{
				{Card{Clubs, 7}, 1},
				{Card{Diamonds, Ace}, 2},
				{Card{Hearts, Ace}, 3},
				{Card{Clubs, 9}, 0},
			},
			want: 0,
		},
		{
			name: "highest of several spades wins",
			plays: []PlayedCard{
				{Card{Diamonds, Queen}, 3},
				{Card{Spades, 4}, 0},
				{Card{Spades, Jack}, 1},
				{Card{Diamonds, Ace}, 2},
			},
			want: 1,
		},
		{
			name: "spades led, highest spade wins",
			plays: []PlayedCard{
				{Card{Spades, 9}, 2},
				{Card{Spades, 10}, 3},
				{Card{Spades, Ace}, 0},
				{Card{Spades, 2}, 1},
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trick := NewTrick()
			for _, p := range tc.plays {
				trick.AddCard(p.Card, p.Seat)
			}
			if got := trick.DetermineWinner(); got != tc.want {
				t.Fatalf("winner = %d, want %d", got, tc.want)
			}
			if trick.WinnerSeat != tc.want {
				t.Fatalf("WinnerSeat = %d, want %d", trick.WinnerSeat, tc.want)
			}
		})
	}
}

func TestDetermineWinnerPanicsOnShortTrick(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic resolving an incomplete trick")
		}
	}()
	trick := NewTrick()
	trick.AddCard(Card{Clubs, 5}, 0)
	trick.DetermineWinner()
}

package game

import (
	"testing"

	"spades-game/internal/shared"
)

func TestScoreBid(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name        string
		bid, tricks int
		want        int
	}{
		{"made bid with overtricks", 5, 7, 52},
		{"made bid exactly", 4, 4, 40},
		{"failed bid", 8, 6, -80},
		{"failed bid by one", 3, 2, -30},
		{"bid one, swept", 1, 13, 22},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.ScoreBid(tc.bid, tc.tricks); got != tc.want {
				t.Fatalf("ScoreBid(%d, %d) = %d, want %d", tc.bid, tc.tricks, got, tc.want)
			}
		})
	}
}

func TestScoreNil(t *testing.T) {
	rules := DefaultRules()
	if got := rules.ScoreNil(0); got != 100 {
		t.Fatalf("successful nil = %d, want 100", got)
	}
	if got := rules.ScoreNil(2); got != -100 {
		t.Fatalf("failed nil = %d, want -100", got)
	}
	if got := rules.ScoreNil(1); got != -100 {
		t.Fatalf("failed nil by one = %d, want -100", got)
	}
}

func TestSettleBagsAcrossRounds(t *testing.T) {
	rules := DefaultRules()

	// 2+2+2 overtricks across three rounds: penalty lands when 5 is crossed
	bags, penalty := rules.SettleBags(0, 2)
	if bags != 2 || penalty != 0 {
		t.Fatalf("round 1: bags=%d penalty=%d", bags, penalty)
	}
	bags, penalty = rules.SettleBags(bags, 2)
	if bags != 4 || penalty != 0 {
		t.Fatalf("round 2: bags=%d penalty=%d", bags, penalty)
	}
	bags, penalty = rules.SettleBags(bags, 2)
	if bags != 1 || penalty != 100 {
		t.Fatalf("round 3: bags=%d penalty=%d, want 1 and 100", bags, penalty)
	}

	// Two full thresholds in one settlement
	bags, penalty = rules.SettleBags(4, 7)
	if bags != 1 || penalty != 200 {
		t.Fatalf("double threshold: bags=%d penalty=%d, want 1 and 200", bags, penalty)
	}
}

func TestScoreTeamRoundSolo(t *testing.T) {
	rules := DefaultRules()
	team := &shared.Team{Seats: []int{2}, TeamNumber: 3}
	bids := [shared.NumSeats]int{3, 4, 5, 1}
	tricks := [shared.NumSeats]int{3, 3, 7, 0}

	rs := rules.ScoreTeamRound(team, bids, tricks)
	if rs.Delta != 52 {
		t.Fatalf("delta = %d, want 52", rs.Delta)
	}
	if rs.BagsAdded != 2 || rs.Bags != 2 || rs.BagPenalty != 0 {
		t.Fatalf("bags = %+v", rs)
	}
}

func TestScoreTeamRoundPartneredWithNil(t *testing.T) {
	rules := DefaultRules()
	// Seat 0 bids nil and stays clean, seat 2 bids 4 and takes 5
	team := &shared.Team{Seats: []int{0, 2}, TeamNumber: 1}
	bids := [shared.NumSeats]int{0, 3, 4, 3}
	tricks := [shared.NumSeats]int{0, 4, 5, 4}

	rs := rules.ScoreTeamRound(team, bids, tricks)
	if rs.Delta != 100+41 {
		t.Fatalf("delta = %d, want 141", rs.Delta)
	}
	if rs.BagsAdded != 1 {
		t.Fatalf("bags added = %d, want 1", rs.BagsAdded)
	}
}

func TestScoreTeamRoundFailedNilTricksDoNotHelp(t *testing.T) {
	rules := DefaultRules()
	// Seat 1 fails nil with 2 tricks; those tricks neither make the
	// partner's bid nor become bags
	team := &shared.Team{Seats: []int{1, 3}, TeamNumber: 2}
	bids := [shared.NumSeats]int{3, 0, 4, 5}
	tricks := [shared.NumSeats]int{3, 2, 4, 4}

	rs := rules.ScoreTeamRound(team, bids, tricks)
	if rs.Delta != -100-50 {
		t.Fatalf("delta = %d, want -150", rs.Delta)
	}
	if rs.BagsAdded != 0 {
		t.Fatalf("bags added = %d, want 0", rs.BagsAdded)
	}
}

func TestScoreTeamRoundBagPenaltyInDelta(t *testing.T) {
	rules := DefaultRules()
	team := &shared.Team{Seats: []int{0}, TeamNumber: 1, Bags: 4}
	bids := [shared.NumSeats]int{2, 0, 0, 0}
	tricks := [shared.NumSeats]int{4, 0, 0, 0}

	rs := rules.ScoreTeamRound(team, bids, tricks)
	// 22 for the made bid and overtricks, -100 sandbag penalty
	if rs.Delta != 22-100 {
		t.Fatalf("delta = %d, want -78", rs.Delta)
	}
	if rs.Bags != 1 || rs.BagPenalty != 100 {
		t.Fatalf("bags=%d penalty=%d, want 1 and 100", rs.Bags, rs.BagPenalty)
	}
}

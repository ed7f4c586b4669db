package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"spades-game/internal/protocol"
	"spades-game/internal/shared"
)

func testPlayers() [shared.NumSeats]*shared.Player {
	var players [shared.NumSeats]*shared.Player
	for i := range players {
		players[i] = shared.NewPlayer(fmt.Sprintf("id-%d", i), fmt.Sprintf("P%d", i))
	}
	return players
}

func newTestGame(cfg Config) *Game {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(42, 42))
	}
	return NewGame(testPlayers(), cfg)
}

// messageCounter counts broadcast message types. Only safe for games
// driven from the test goroutine (no timers).
type messageCounter map[string]int

func (mc messageCounter) sender() MessageSender {
	return func(clientID string, message []byte) {
		var msg protocol.Message
		if err := json.Unmarshal(message, &msg); err == nil {
			mc[msg.Type]++
		}
	}
}

func TestBiddingProtocol(t *testing.T) {
	g := newTestGame(Config{Mode: shared.Solo})
	g.StartGameLoop(func(string, []byte) {})

	if g.Phase != Bidding {
		t.Fatalf("phase = %s, want Bidding", g.Phase)
	}
	// Round 1 dealer is seat 0, so seat 1 opens the bidding
	if g.CurrentSeat != 1 {
		t.Fatalf("first bidder = %d, want 1", g.CurrentSeat)
	}

	// Out-of-turn bid is rejected without mutating anything
	if err := g.SubmitBid(2, 4); err != ErrNotYourTurn {
		t.Fatalf("out-of-turn bid: err = %v, want ErrNotYourTurn", err)
	}
	if g.Bids[2] != bidUnset || g.CurrentSeat != 1 {
		t.Fatal("rejected bid mutated state")
	}

	// Out-of-range bids are rejected
	for _, v := range []int{-1, 14} {
		if err := g.SubmitBid(1, v); err != ErrInvalidBid {
			t.Fatalf("bid %d: err = %v, want ErrInvalidBid", v, err)
		}
	}
	if err := g.SubmitBid(7, 3); err != ErrUnknownSeat {
		t.Fatalf("bad seat: err = %v, want ErrUnknownSeat", err)
	}

	// Playing in the bidding phase is rejected
	if err := g.PlayCard(1, g.Players[1].Hand[0]); err != ErrWrongPhase {
		t.Fatalf("play during bidding: err = %v, want ErrWrongPhase", err)
	}

	// Bids go around the table, 0 (nil) included
	for i, bid := range []int{3, 0, 4, 5} {
		seat := (1 + i) % shared.NumSeats
		if err := g.SubmitBid(seat, bid); err != nil {
			t.Fatalf("bid seat %d: %v", seat, err)
		}
	}

	if g.Phase != Playing {
		t.Fatalf("phase = %s, want Playing after four bids", g.Phase)
	}
	// First to act is the seat left of the dealer
	if g.CurrentSeat != 1 {
		t.Fatalf("first to act = %d, want 1", g.CurrentSeat)
	}
	want := [shared.NumSeats]int{5, 3, 0, 4}
	if g.Bids != want {
		t.Fatalf("bids = %v, want %v", g.Bids, want)
	}

	// Bidding is closed now
	if err := g.SubmitBid(1, 2); err != ErrWrongPhase {
		t.Fatalf("late bid: err = %v, want ErrWrongPhase", err)
	}
}

func TestSpadesBreaking(t *testing.T) {
	g := newTestGame(Config{})
	g.Phase = Playing
	g.Round = 1
	g.CurrentSeat = 0
	g.Players[0].Hand = []shared.Card{card(shared.Clubs, 2), card(shared.Spades, shared.Queen)}
	g.Players[1].Hand = []shared.Card{card(shared.Clubs, 5)}
	g.Players[2].Hand = []shared.Card{card(shared.Diamonds, 7), card(shared.Spades, 3)}
	g.Players[3].Hand = []shared.Card{card(shared.Clubs, shared.Ace)}

	// Spade lead before spades are broken is illegal while holding clubs
	if err := g.PlayCard(0, card(shared.Spades, shared.Queen)); err != ErrIllegalPlay {
		t.Fatalf("unbroken spade lead: err = %v, want ErrIllegalPlay", err)
	}
	if len(g.Players[0].Hand) != 2 || len(g.CurrentTrick.Cards) != 0 {
		t.Fatal("rejected play mutated state")
	}

	if err := g.PlayCard(0, card(shared.Clubs, 2)); err != nil {
		t.Fatalf("lead: %v", err)
	}
	// Following out of suit while holding the lead suit is illegal
	if err := g.PlayCard(1, card(shared.Clubs, shared.King)); err != ErrCardNotInHand {
		t.Fatalf("foreign card: err = %v, want ErrCardNotInHand", err)
	}
	if err := g.PlayCard(1, card(shared.Clubs, 5)); err != nil {
		t.Fatalf("follow: %v", err)
	}

	// Seat 2 is void in clubs; its spade is legal and breaks spades
	if err := g.PlayCard(2, card(shared.Spades, 3)); err != nil {
		t.Fatalf("void spade: %v", err)
	}
	if !g.SpadesBroken {
		t.Fatal("spades not marked broken")
	}

	if err := g.PlayCard(3, card(shared.Clubs, shared.Ace)); err != nil {
		t.Fatalf("last card: %v", err)
	}

	// Trick resolved: the lone spade wins and leads next
	if g.TricksWon[2] != 1 {
		t.Fatalf("tricks won = %v, want seat 2 to have 1", g.TricksWon)
	}
	if g.CurrentSeat != 2 {
		t.Fatalf("current seat = %d, want trick winner 2", g.CurrentSeat)
	}
	if len(g.CurrentTrick.Cards) != 0 {
		t.Fatal("trick not cleared after resolution")
	}
}

func TestRoundCompletion(t *testing.T) {
	counts := messageCounter{}
	g := newTestGame(Config{Mode: shared.Partnered})
	g.StartGameLoop(counts.sender())

	for i, bid := range []int{3, 3, 3, 3} {
		seat := (1 + i) % shared.NumSeats
		if err := g.SubmitBid(seat, bid); err != nil {
			t.Fatalf("bid seat %d: %v", seat, err)
		}
	}

	for plays := 0; g.Phase == Playing; plays++ {
		if plays > shared.DeckSize {
			t.Fatal("round did not terminate")
		}
		seat := g.CurrentSeat
		legal := LegalPlays(g.Players[seat].Hand, g.CurrentTrick, g.SpadesBroken)
		if len(legal) == 0 {
			t.Fatalf("seat %d has no legal play", seat)
		}
		if err := g.PlayCard(seat, legal[0]); err != nil {
			t.Fatalf("play %d seat %d: %v", plays, seat, err)
		}
	}

	// Exactly 13 tricks and exactly one round completion, each
	// broadcast once per player
	if got := counts["trick_end"]; got != shared.HandSize*shared.NumSeats {
		t.Fatalf("trick_end count = %d, want %d", got, shared.HandSize*shared.NumSeats)
	}
	if got := counts["round_end"]; got != shared.NumSeats {
		t.Fatalf("round_end count = %d, want %d", got, shared.NumSeats)
	}

	// No winner yet at the default target: a fresh round is dealt
	if g.Phase != Bidding {
		t.Fatalf("phase = %s, want Bidding for round 2", g.Phase)
	}
	if g.Round != 2 {
		t.Fatalf("round = %d, want 2", g.Round)
	}
	for seat, p := range g.Players {
		if len(p.Hand) != shared.HandSize {
			t.Fatalf("seat %d re-dealt %d cards, want %d", seat, len(p.Hand), shared.HandSize)
		}
	}
	if g.TricksWon != ([shared.NumSeats]int{}) || g.SpadesBroken {
		t.Fatal("per-round state not reset")
	}
}

func TestCheckWinner(t *testing.T) {
	cases := []struct {
		name       string
		scores     []int
		round      int
		wantWinner int
		wantDraw   bool
		wantDone   bool
	}{
		{"nobody at target", []int{120, 80}, 3, -1, false, false},
		{"single winner", []int{210, 80}, 3, 0, false, true},
		{"both cross, higher wins", []int{210, 260}, 3, 1, false, true},
		{"exact tie at target is a draw", []int{200, 200}, 3, -1, true, true},
		{"round cap, highest wins", []int{120, 80}, 25, 0, false, true},
		{"round cap tie is a draw", []int{90, 90}, 25, -1, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGame(Config{Mode: shared.Partnered, TargetScore: 200, MaxRounds: 25})
			g.Round = tc.round
			for i, s := range tc.scores {
				g.Teams[i].Score = s
			}
			winner, draw, done := g.checkWinner()
			if winner != tc.wantWinner || draw != tc.wantDraw || done != tc.wantDone {
				t.Fatalf("checkWinner = (%d, %t, %t), want (%d, %t, %t)",
					winner, draw, done, tc.wantWinner, tc.wantDraw, tc.wantDone)
			}
		})
	}
}

func TestFinishedRejectsMutations(t *testing.T) {
	g := newTestGame(Config{})
	g.Phase = Finished

	if err := g.SubmitBid(0, 3); err != ErrGameFinished {
		t.Fatalf("bid after finish: err = %v, want ErrGameFinished", err)
	}
	if err := g.PlayCard(0, card(shared.Clubs, 2)); err != ErrGameFinished {
		t.Fatalf("play after finish: err = %v, want ErrGameFinished", err)
	}
}

func TestTurnTimeoutAutoBids(t *testing.T) {
	g := newTestGame(Config{Mode: shared.Solo, TurnTimeout: 10 * time.Millisecond})
	g.StartGameLoop(func(string, []byte) {})
	t.Cleanup(func() {
		// Park the game so its timers stop re-arming
		g.mu.Lock()
		g.Phase = Finished
		g.commitTurn()
		g.mu.Unlock()
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := g.Snapshot("")
		if snap.Phase == string(Playing) {
			for seat, bid := range snap.Bids {
				if bid < 1 || bid > shared.HandSize {
					t.Fatalf("auto bid for seat %d = %d, want 1..13", seat, bid)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("bidding never completed via timeouts, phase %s", snap.Phase)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDisconnectEngagesAutopilot(t *testing.T) {
	g := newTestGame(Config{Mode: shared.Solo})
	g.StartGameLoop(func(string, []byte) {})

	// Seat 1 is to bid; their departure must not stall the round
	g.HandlePlayerDisconnect("id-1")

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := g.Snapshot("")
		if snap.Bids[1] != bidUnset {
			if snap.CurrentSeat != 2 {
				t.Fatalf("current seat = %d, want 2 after autopilot bid", snap.CurrentSeat)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("autopilot never bid for the disconnected seat")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFullGameSolo(t *testing.T) {
	g := newTestGame(Config{Mode: shared.Solo, TargetScore: 100})
	done := make(chan Result, 1)
	g.OnFinished = func(r Result) { done <- r }
	g.StartGameLoop(func(string, []byte) {})

	for steps := 0; g.Phase != Finished; steps++ {
		if steps > 10000 {
			t.Fatal("game did not terminate")
		}
		seat := g.CurrentSeat
		switch g.Phase {
		case Bidding:
			if err := g.SubmitBid(seat, 3); err != nil {
				t.Fatalf("bid seat %d: %v", seat, err)
			}
		case Playing:
			legal := LegalPlays(g.Players[seat].Hand, g.CurrentTrick, g.SpadesBroken)
			if err := g.PlayCard(seat, legal[0]); err != nil {
				t.Fatalf("play seat %d: %v", seat, err)
			}
		default:
			t.Fatalf("unexpected phase %s", g.Phase)
		}
	}

	var result Result
	select {
	case result = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnFinished never fired")
	}

	if result.Draw {
		if result.WinnerTeam != -1 {
			t.Fatalf("draw with winner %d", result.WinnerTeam)
		}
	} else {
		winner := result.Teams[result.WinnerTeam]
		for _, team := range result.Teams {
			if team.Score > winner.Score {
				t.Fatalf("team %d has %d, beating declared winner's %d", team.TeamNumber, team.Score, winner.Score)
			}
		}
	}
	if result.Rounds != g.Round {
		t.Fatalf("result rounds = %d, want %d", result.Rounds, g.Round)
	}
	if result.PlayerNames[2] != "P2" {
		t.Fatalf("player names = %v", result.PlayerNames)
	}

	// Terminal state accepts nothing further
	if err := g.SubmitBid(0, 3); err != ErrGameFinished {
		t.Fatalf("post-game bid: err = %v, want ErrGameFinished", err)
	}
}

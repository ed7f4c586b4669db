package game

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"spades-game/internal/protocol"
	"spades-game/internal/shared"

	"github.com/google/uuid"
)

// GamePhase represents the current phase of the game.
type GamePhase string

const (
	Setup     GamePhase = "Setup"     // Waiting for 4 seats (the Hub manages occupancy)
	Bidding   GamePhase = "Bidding"   // Collecting the 4 bids for the round
	Playing   GamePhase = "Playing"   // Players are playing tricks
	RoundOver GamePhase = "RoundOver" // Transient: a round (13 tricks) is being scored
	Finished  GamePhase = "Finished"  // Terminal: winner decided or explicit draw
)

// Rejection reasons. Every rejected mutation returns one of these and
// leaves the game state untouched.
var (
	ErrGameFinished  = errors.New("game is already over")
	ErrWrongPhase    = errors.New("action not valid in the current phase")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrUnknownSeat   = errors.New("unknown seat")
	ErrInvalidBid    = errors.New("bid must be between 0 and 13")
	ErrCardNotInHand = errors.New("card not in your hand")
	ErrIllegalPlay   = errors.New("card is not a legal play")
)

const bidUnset = -1

// MessageSender defines the function signature for sending messages back to clients.
// The Hub will provide an implementation of this.
type MessageSender func(clientID string, message []byte)

// Config parameterizes a game instance. Zero values select the defaults.
type Config struct {
	Mode        shared.Mode
	TargetScore int           // cumulative score that ends the game
	MaxRounds   int           // hard cap on rounds; highest score wins at the cap
	Stake       int           // wagered amount, settled by the wallet layer
	TurnTimeout time.Duration // deadline for the seat to act; 0 disables timers
	Rules       RuleSet
	Rand        *rand.Rand // injectable for deterministic deals and auto-bids
}

// Result describes a finished game for persistence and settlement.
type Result struct {
	GameID      string
	Mode        shared.Mode
	Stake       int
	Rounds      int
	Draw        bool
	WinnerTeam  int // index into Teams, -1 on draw
	Teams       []*shared.Team
	PlayerNames [shared.NumSeats]string
}

// Game is the authoritative state machine for one Spades game. All
// mutations go through the per-game mutex; different games are fully
// independent.
type Game struct {
	ID      string
	Players [shared.NumSeats]*shared.Player
	Teams   []*shared.Team
	Config  Config

	Phase        GamePhase
	Round        int
	DealerSeat   int
	CurrentSeat  int
	Bids         [shared.NumSeats]int
	TricksWon    [shared.NumSeats]int
	TricksPlayed int
	SpadesBroken bool
	CurrentTrick *shared.Trick

	WinnerTeam int
	Draw       bool

	// OnFinished, when set, is invoked once with the final result.
	OnFinished func(Result)

	rng         *rand.Rand
	turnGen     int
	turnTimer   *time.Timer
	mu          sync.Mutex
	sendMessage MessageSender
}

// NewGame initializes a new game instance for four seated players.
func NewGame(players [shared.NumSeats]*shared.Player, cfg Config) *Game {
	if cfg.Mode == "" {
		cfg.Mode = shared.Partnered
	}
	if cfg.TargetScore == 0 {
		cfg.TargetScore = 200
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = 25
	}
	if (cfg.Rules == RuleSet{}) {
		cfg.Rules = DefaultRules()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Game{
		ID:           uuid.NewString(),
		Players:      players,
		Teams:        shared.NewTeams(cfg.Mode),
		Config:       cfg,
		Phase:        Setup,
		DealerSeat:   -1,
		CurrentSeat:  -1,
		CurrentTrick: shared.NewTrick(),
		WinnerTeam:   -1,
		rng:          rng,
	}
	for i := range g.Bids {
		g.Bids[i] = bidUnset
	}
	return g
}

// StartGameLoop announces the game and deals the first round.
// It's called in a goroutine by the Hub.
func (g *Game) StartGameLoop(sender MessageSender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendMessage = sender
	log.Printf("Game %s: Starting game loop (%s, target %d).", g.ID, g.Config.Mode, g.Config.TargetScore)

	startPayload := protocol.GameStartPayload{
		GameID:      g.ID,
		Mode:        string(g.Config.Mode),
		Stake:       g.Config.Stake,
		TargetScore: g.Config.TargetScore,
		Players:     g.playerInfos(),
		Teams:       g.teamInfos(),
	}
	startMsg, _ := protocol.NewMessage("game_start", startPayload)
	g.broadcast(startMsg)

	g.startRound()
}

// startRound deals a fresh round and opens bidding. Assumes lock is held.
func (g *Game) startRound() {
	if g.Phase == Finished {
		log.Printf("Game %s: Cannot start round, game is over.", g.ID)
		return
	}

	g.Round++
	g.DealerSeat = (g.Round - 1) % shared.NumSeats
	log.Printf("Game %s: Starting round %d, dealer seat %d.", g.ID, g.Round, g.DealerSeat)

	deck := shared.NewDeck()
	deck.Shuffle(g.rng)
	hands, err := deck.Deal()
	if err != nil {
		// Configuration fault: unrecoverable for this game instance only.
		log.Printf("Game %s: Fatal deal error: %v", g.ID, err)
		g.Phase = Finished
		g.broadcastError("Internal server error during dealing.")
		return
	}

	for i, hand := range hands {
		g.Players[i].Hand = hand
		dealMsg, _ := protocol.NewMessage("deal_hand", protocol.DealHandPayload{Round: g.Round, Hand: hand})
		g.sendToPlayer(g.Players[i].ID, dealMsg)
	}

	for i := range g.Bids {
		g.Bids[i] = bidUnset
		g.TricksWon[i] = 0
	}
	g.TricksPlayed = 0
	g.SpadesBroken = false
	g.CurrentTrick = shared.NewTrick()

	g.Phase = Bidding
	g.CurrentSeat = (g.DealerSeat + 1) % shared.NumSeats

	g.broadcastGameState()
	g.beginTurn()
}

// SubmitBid records a bid for the seat whose turn it is to bid.
func (g *Game) SubmitBid(seat, value int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitBid(seat, value, false)
}

// submitBid validates and applies a bid. Assumes lock is held.
func (g *Game) submitBid(seat, value int, auto bool) error {
	if g.Phase == Finished {
		return ErrGameFinished
	}
	if g.Phase != Bidding {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= shared.NumSeats {
		return ErrUnknownSeat
	}
	if seat != g.CurrentSeat || g.Bids[seat] != bidUnset {
		return ErrNotYourTurn
	}
	if value < 0 || value > shared.HandSize {
		return ErrInvalidBid
	}

	g.Bids[seat] = value
	g.commitTurn()
	log.Printf("Game %s: Seat %d (%s) bid %d (auto=%t).", g.ID, seat, g.Players[seat].Name, value, auto)

	bidMsg, _ := protocol.NewMessage("bid_placed", protocol.BidPlacedPayload{
		PlayerID: g.Players[seat].ID,
		Seat:     seat,
		Value:    value,
		IsNil:    value == 0,
		Auto:     auto,
	})
	g.broadcast(bidMsg)

	if g.allBidsIn() {
		// First to act is the seat left of the dealer, always.
		g.Phase = Playing
		g.CurrentSeat = (g.DealerSeat + 1) % shared.NumSeats
		log.Printf("Game %s: Bidding complete, seat %d leads.", g.ID, g.CurrentSeat)
	} else {
		g.CurrentSeat = (g.CurrentSeat + 1) % shared.NumSeats
	}

	g.broadcastGameState()
	g.beginTurn()
	return nil
}

func (g *Game) allBidsIn() bool {
	for _, b := range g.Bids {
		if b == bidUnset {
			return false
		}
	}
	return true
}

// PlayCard plays a card for the seat whose turn it is to act.
func (g *Game) PlayCard(seat int, card shared.Card) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playCard(seat, card, false)
}

// playCard validates and applies a card play. Assumes lock is held.
func (g *Game) playCard(seat int, card shared.Card, auto bool) error {
	if g.Phase == Finished {
		return ErrGameFinished
	}
	if g.Phase != Playing {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= shared.NumSeats {
		return ErrUnknownSeat
	}
	if seat != g.CurrentSeat {
		return ErrNotYourTurn
	}

	player := g.Players[seat]
	if !card.Valid() || !player.HasCard(card) {
		return ErrCardNotInHand
	}
	if !IsLegalPlay(card, player.Hand, g.CurrentTrick, g.SpadesBroken) {
		return ErrIllegalPlay
	}

	player.RemoveCard(card)
	if card.Suit == shared.Spades && !g.SpadesBroken {
		g.SpadesBroken = true
		log.Printf("Game %s: Spades broken by seat %d.", g.ID, seat)
	}
	g.CurrentTrick.AddCard(card, seat)
	g.commitTurn()
	log.Printf("Game %s: Seat %d (%s) played %s (auto=%t).", g.ID, seat, player.Name, card, auto)

	playedMsg, _ := protocol.NewMessage("card_played", protocol.CardPlayedPayload{
		PlayerID: player.ID,
		Seat:     seat,
		Card:     card,
		Auto:     auto,
	})
	g.broadcast(playedMsg)

	if len(g.CurrentTrick.Cards) == shared.NumSeats {
		g.endTrick()
	} else {
		g.CurrentSeat = (g.CurrentSeat + 1) % shared.NumSeats
		g.broadcastGameState()
		g.beginTurn()
	}
	return nil
}

// endTrick resolves a completed trick. Assumes lock is held.
func (g *Game) endTrick() {
	winner := g.CurrentTrick.DetermineWinner()
	g.TricksWon[winner]++
	g.TricksPlayed++
	log.Printf("Game %s: Trick %d won by seat %d (%s).", g.ID, g.TricksPlayed, winner, g.Players[winner].Name)

	trickMsg, _ := protocol.NewMessage("trick_end", protocol.TrickEndPayload{
		WinnerSeat: winner,
		WinnerID:   g.Players[winner].ID,
		Cards:      g.CurrentTrick.Cards,
	})
	g.broadcast(trickMsg)

	g.CurrentTrick = shared.NewTrick()
	g.CurrentSeat = winner

	if g.TricksPlayed == shared.HandSize {
		g.endRound()
	} else {
		g.broadcastGameState()
		g.beginTurn()
	}
}

// endRound scores the finished round, checks the win condition, and
// either re-deals or finishes the game. Assumes lock is held.
func (g *Game) endRound() {
	g.Phase = RoundOver
	log.Printf("Game %s: Round %d complete, scoring.", g.ID, g.Round)

	infos := make([]protocol.TeamRoundInfo, len(g.Teams))
	for i, team := range g.Teams {
		rs := g.Config.Rules.ScoreTeamRound(team, g.Bids, g.TricksWon)
		team.Score += rs.Delta
		team.Bags = rs.Bags
		infos[i] = protocol.TeamRoundInfo{
			TeamNumber: team.TeamNumber,
			Delta:      rs.Delta,
			BagPenalty: rs.BagPenalty,
			Bags:       rs.Bags,
			Total:      team.Score,
		}
		log.Printf("Game %s: Team %d round delta %d (bag penalty %d), total %d, bags %d.",
			g.ID, team.TeamNumber, rs.Delta, rs.BagPenalty, team.Score, team.Bags)
	}

	roundMsg, _ := protocol.NewMessage("round_end", protocol.RoundEndPayload{Round: g.Round, Scores: infos})
	g.broadcast(roundMsg)

	if winner, draw, done := g.checkWinner(); done {
		g.finish(winner, draw)
		return
	}
	g.startRound()
}

// checkWinner applies the win condition after a scoring step: any unit at
// or above the target ends the game, the higher score winning; an exact
// tie at the top is a draw. Hitting the round cap ends the game the same
// way on whatever the scores are.
func (g *Game) checkWinner() (winner int, draw, done bool) {
	best, bestScore := -1, 0
	tied := false
	for i, team := range g.Teams {
		if best == -1 || team.Score > bestScore {
			best, bestScore, tied = i, team.Score, false
		} else if team.Score == bestScore {
			tied = true
		}
	}

	if bestScore < g.Config.TargetScore && g.Round < g.Config.MaxRounds {
		return -1, false, false
	}
	if tied {
		return -1, true, true
	}
	return best, false, true
}

// finish moves the game to its terminal state. Assumes lock is held.
func (g *Game) finish(winner int, draw bool) {
	g.Phase = Finished
	g.WinnerTeam = winner
	g.Draw = draw
	g.CurrentSeat = -1
	g.commitTurn()

	payload := protocol.GameOverPayload{
		Draw:  draw,
		Stake: g.Config.Stake,
		Teams: g.teamInfos(),
	}
	if !draw {
		payload.WinningTeamID = g.Teams[winner].ID
		payload.WinningSeats = g.Teams[winner].Seats
		log.Printf("Game %s: Game over, team %d wins with %d.", g.ID, g.Teams[winner].TeamNumber, g.Teams[winner].Score)
	} else {
		log.Printf("Game %s: Game over in a draw.", g.ID)
	}
	overMsg, _ := protocol.NewMessage("game_over", payload)
	g.broadcast(overMsg)

	if g.OnFinished != nil {
		result := Result{
			GameID:     g.ID,
			Mode:       g.Config.Mode,
			Stake:      g.Config.Stake,
			Rounds:     g.Round,
			Draw:       draw,
			WinnerTeam: winner,
			Teams:      g.Teams,
		}
		for i, p := range g.Players {
			result.PlayerNames[i] = p.Name
		}
		go g.OnFinished(result)
	}
}

// --- Turn timers and automatic actions ---

// commitTurn invalidates the pending turn deadline. Assumes lock is held.
func (g *Game) commitTurn() {
	g.turnGen++
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}

// beginTurn notifies the seat now to act and arms its deadline. A seat on
// autopilot is acted for immediately. Assumes lock is held.
func (g *Game) beginTurn() {
	if g.Phase != Bidding && g.Phase != Playing {
		return
	}
	g.notifyCurrentPlayerTurn()

	gen := g.turnGen
	if g.Players[g.CurrentSeat].AutoPilot {
		go g.autoAct(gen)
		return
	}
	if g.Config.TurnTimeout > 0 {
		g.turnTimer = time.AfterFunc(g.Config.TurnTimeout, func() { g.autoAct(gen) })
	}
}

// autoAct takes the fallback action for a stalled or vacated seat: a bid
// from the injected source during bidding, the lowest legal card during
// play. A stale generation means the seat acted in time.
func (g *Game) autoAct(gen int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.turnGen {
		return
	}

	seat := g.CurrentSeat
	switch g.Phase {
	case Bidding:
		value := 1 + g.rng.IntN(shared.HandSize)
		log.Printf("Game %s: Seat %d stalled, auto-bidding %d.", g.ID, seat, value)
		if err := g.submitBid(seat, value, true); err != nil {
			log.Printf("Game %s: Auto-bid failed: %v", g.ID, err)
		}
	case Playing:
		card, ok := lowestLegalPlay(g.Players[seat].Hand, g.CurrentTrick, g.SpadesBroken)
		if !ok {
			log.Printf("Game %s: Seat %d stalled with no legal play.", g.ID, seat)
			return
		}
		log.Printf("Game %s: Seat %d stalled, auto-playing %s.", g.ID, seat, card)
		if err := g.playCard(seat, card, true); err != nil {
			log.Printf("Game %s: Auto-play failed: %v", g.ID, err)
		}
	}
}

// --- External entry points used by the Hub ---

// HandlePlayerAction processes incoming actions from a player.
func (g *Game) HandlePlayerAction(clientID string, msg protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOf(clientID)
	if seat == -1 {
		log.Printf("Game %s: Action from unknown client ID %s", g.ID, clientID)
		return
	}

	var err error
	switch msg.Type {
	case "submit_bid":
		var payload protocol.SubmitBidPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.sendErrorToPlayer(clientID, "Invalid submit_bid message.")
			return
		}
		err = g.submitBid(seat, payload.Value, false)

	case "play_card":
		var payload protocol.PlayCardPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.sendErrorToPlayer(clientID, "Invalid play_card message.")
			return
		}
		err = g.playCard(seat, shared.Card{Suit: payload.Suit, Rank: payload.Rank}, false)

	default:
		log.Printf("Game %s: Received unhandled action type '%s' from %s", g.ID, msg.Type, clientID)
		return
	}

	if err != nil {
		log.Printf("Game %s: Rejected %s from seat %d: %v", g.ID, msg.Type, seat, err)
		g.sendErrorToPlayer(clientID, err.Error())
	}
}

// HandlePlayerDisconnect puts a departed player's seat on autopilot so
// the round keeps making progress. The game never forfeits mid-round.
func (g *Game) HandlePlayerDisconnect(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase == Finished {
		return
	}
	seat := g.seatOf(clientID)
	if seat == -1 {
		log.Printf("Game %s: Disconnect from unknown client ID %s", g.ID, clientID)
		return
	}

	g.Players[seat].AutoPilot = true
	log.Printf("Game %s: Seat %d (%s) disconnected, autopilot engaged.", g.ID, seat, g.Players[seat].Name)

	leftMsg, _ := protocol.NewMessage("player_left", protocol.PlayerLeftPayload{PlayerID: clientID})
	g.broadcast(leftMsg)

	if seat == g.CurrentSeat && (g.Phase == Bidding || g.Phase == Playing) {
		go g.autoAct(g.turnGen)
	}
}

// Snapshot returns the game state as seen by one viewer: all public
// state plus only that viewer's hand.
func (g *Game) Snapshot(viewerID string) protocol.GameStatePayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked(viewerID)
}

func (g *Game) snapshotLocked(viewerID string) protocol.GameStatePayload {
	payload := protocol.GameStatePayload{
		Phase:        string(g.Phase),
		Round:        g.Round,
		CurrentSeat:  g.CurrentSeat,
		CurrentTrick: append([]shared.PlayedCard{}, g.CurrentTrick.Cards...),
		Bids:         g.Bids,
		TricksWon:    g.TricksWon,
		SpadesBroken: g.SpadesBroken,
		Teams:        g.teamInfos(),
	}
	if g.CurrentSeat >= 0 {
		payload.CurrentID = g.Players[g.CurrentSeat].ID
	}
	if seat := g.seatOf(viewerID); seat != -1 {
		payload.Hand = append([]shared.Card{}, g.Players[seat].Hand...)
	}
	return payload
}

// --- Messaging helpers (assume lock is held) ---

func (g *Game) broadcast(message []byte) {
	if g.sendMessage == nil {
		return
	}
	for _, player := range g.Players {
		if player != nil {
			g.sendMessage(player.ID, message)
		}
	}
}

func (g *Game) sendToPlayer(playerID string, message []byte) {
	if g.sendMessage == nil {
		return
	}
	g.sendMessage(playerID, message)
}

func (g *Game) sendErrorToPlayer(playerID string, errorMsg string) {
	msgBytes, err := protocol.NewMessage("error", protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Game %s: Error creating error message for %s: %v", g.ID, playerID, err)
		return
	}
	g.sendToPlayer(playerID, msgBytes)
}

func (g *Game) broadcastError(errorMsg string) {
	msgBytes, err := protocol.NewMessage("error", protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Game %s: Error creating broadcast error message: %v", g.ID, err)
		return
	}
	g.broadcast(msgBytes)
}

// broadcastGameState sends each player their own view of the game.
func (g *Game) broadcastGameState() {
	if g.sendMessage == nil {
		return
	}
	for _, player := range g.Players {
		msgBytes, _ := protocol.NewMessage("game_state_update", g.snapshotLocked(player.ID))
		g.sendMessage(player.ID, msgBytes)
	}
}

// notifyCurrentPlayerTurn sends the 'your_turn' message.
func (g *Game) notifyCurrentPlayerTurn() {
	current := g.Players[g.CurrentSeat]

	payload := protocol.YourTurnPayload{
		PlayerID: current.ID,
		Phase:    string(g.Phase),
	}
	if g.Phase == Playing {
		payload.ValidMoves = LegalPlays(current.Hand, g.CurrentTrick, g.SpadesBroken)
	}
	msgBytes, _ := protocol.NewMessage("your_turn", payload)
	g.sendToPlayer(current.ID, msgBytes)
}

// --- Utility helpers ---

func (g *Game) playerInfos() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, shared.NumSeats)
	for i, p := range g.Players {
		infos[i] = protocol.PlayerInfo{ID: p.ID, Name: p.Name, Seat: i}
	}
	return infos
}

func (g *Game) teamInfos() []protocol.TeamInfo {
	infos := make([]protocol.TeamInfo, len(g.Teams))
	for i, t := range g.Teams {
		infos[i] = protocol.TeamInfo{
			ID:         t.ID,
			Seats:      t.Seats,
			Score:      t.Score,
			Bags:       t.Bags,
			TeamNumber: t.TeamNumber,
		}
	}
	return infos
}

// seatOf finds the seat (0-3) of a player by ID. Returns -1 if not found.
func (g *Game) seatOf(playerID string) int {
	for i, p := range g.Players {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}

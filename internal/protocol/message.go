package protocol

import (
	"encoding/json"

	"spades-game/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "join_game", "play_card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// --- Client -> Server Payload Structs ---

type CreateGamePayload struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`         // "partnered" or "solo"
	Stake       int    `json:"stake"`        // wagered amount, settled externally
	TargetScore int    `json:"target_score"` // winning score; 0 for the server default
}

type JoinGamePayload struct {
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

type SubmitBidPayload struct {
	Value int `json:"value"` // 0 through 13; 0 is nil
}

type PlayCardPayload struct {
	Suit shared.Suit `json:"suit"`
	Rank shared.Rank `json:"rank"`
}

// --- Server -> Client Payload Structs ---

type GameCreatedPayload struct {
	GameCode string `json:"game_code"`
}

type LobbyUpdatePayload struct {
	Players []PlayerInfo `json:"players"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat int    `json:"seat"`
}

type TeamInfo struct {
	ID         string `json:"id"`
	Seats      []int  `json:"seats"`
	Score      int    `json:"score"`
	Bags       int    `json:"bags"`
	TeamNumber int    `json:"team_number"`
}

type GameStartPayload struct {
	GameID      string       `json:"game_id"`
	Mode        string       `json:"mode"`
	Stake       int          `json:"stake"`
	TargetScore int          `json:"target_score"`
	Players     []PlayerInfo `json:"players"`
	Teams       []TeamInfo   `json:"teams"`
}

type DealHandPayload struct {
	Round int           `json:"round"`
	Hand  []shared.Card `json:"hand"`
}

type YourTurnPayload struct {
	PlayerID   string        `json:"player_id"`
	Phase      string        `json:"phase"`
	ValidMoves []shared.Card `json:"valid_moves,omitempty"`
}

type BidPlacedPayload struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
	Value    int    `json:"value"`
	IsNil    bool   `json:"is_nil"`
	Auto     bool   `json:"auto,omitempty"` // true when the engine bid on a stalled seat's behalf
}

type CardPlayedPayload struct {
	PlayerID string      `json:"player_id"`
	Seat     int         `json:"seat"`
	Card     shared.Card `json:"card"`
	Auto     bool        `json:"auto,omitempty"`
}

type GameStatePayload struct {
	Phase        string               `json:"phase"`
	Round        int                  `json:"round"`
	CurrentSeat  int                  `json:"current_seat"`
	CurrentID    string               `json:"current_player_id"`
	CurrentTrick []shared.PlayedCard  `json:"current_trick"`
	Bids         [shared.NumSeats]int `json:"bids"` // -1 for a seat that has not bid
	TricksWon    [shared.NumSeats]int `json:"tricks_won"`
	SpadesBroken bool                 `json:"spades_broken"`
	Hand         []shared.Card        `json:"hand,omitempty"` // only the viewer's own hand
	Teams        []TeamInfo           `json:"teams"`
}

type TrickEndPayload struct {
	WinnerSeat int                 `json:"winner_seat"`
	WinnerID   string              `json:"winner_id"`
	Cards      []shared.PlayedCard `json:"cards"`
}

type RoundEndPayload struct {
	Round  int             `json:"round"`
	Scores []TeamRoundInfo `json:"scores"`
}

type TeamRoundInfo struct {
	TeamNumber int `json:"team_number"`
	Delta      int `json:"delta"`
	BagPenalty int `json:"bag_penalty"`
	Bags       int `json:"bags"`
	Total      int `json:"total"`
}

type GameOverPayload struct {
	WinningTeamID string     `json:"winning_team_id,omitempty"`
	WinningSeats  []int      `json:"winning_seats,omitempty"`
	Draw          bool       `json:"draw"`
	Stake         int        `json:"stake"`
	Teams         []TeamInfo `json:"teams"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		msg := Message{Type: msgType}
		return json.Marshal(msg)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}

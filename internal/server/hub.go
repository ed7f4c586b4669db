package server

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"spades-game/internal/database"
	"spades-game/internal/game"
	"spades-game/internal/protocol"
	"spades-game/internal/shared"

	"github.com/google/uuid"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

const gameCodeLength = 5 // Length of the unique game code

// lobbySettings are the game parameters chosen by the lobby creator.
type lobbySettings struct {
	mode        shared.Mode
	stake       int
	targetScore int
}

// HubConfig carries server-wide game defaults.
type HubConfig struct {
	TurnTimeout time.Duration // per-turn deadline applied to every game
	TargetScore int           // default target score when the creator picks none
}

// Hub manages active WebSocket connections, lobbies, and game rooms.
type Hub struct {
	config         HubConfig
	db             *database.Service
	clients        map[*Client]bool
	lobbies        map[string][]*Client     // Map game code to list of clients in the lobby
	settings       map[string]lobbySettings // Map game code to the creator's settings
	games          map[string]*game.Game    // Map game code to game instance
	clientToGame   map[*Client]string       // Map client to game code (lobby or active game)
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	clientMu       sync.RWMutex
	lobbyMu        sync.RWMutex
	gameMu         sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub(db *database.Service, config HubConfig) *Hub {
	return &Hub{
		config:         config,
		db:             db,
		clients:        make(map[*Client]bool),
		lobbies:        make(map[string][]*Client),
		settings:       make(map[string]lobbySettings),
		games:          make(map[string]*game.Game),
		clientToGame:   make(map[*Client]string),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
	}
}

// generateGameCode creates a unique alphanumeric game code.
func (h *Hub) generateGameCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		var sb strings.Builder
		for i := 0; i < gameCodeLength; i++ {
			sb.WriteByte(letters[rand.IntN(len(letters))])
		}
		code := sb.String()

		h.lobbyMu.RLock()
		_, lobbyExists := h.lobbies[code]
		h.lobbyMu.RUnlock()

		h.gameMu.RLock()
		_, gameExists := h.games[code]
		h.gameMu.RUnlock()

		if !lobbyExists && !gameExists {
			return code
		}
		log.Printf("Generated game code %s collided, retrying...", code)
	}
}

// Run starts the Hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.ID = uuid.NewString() // Assign a unique ID upon registration
			log.Printf("Client %s (%s) connected", client.ID, client.conn.RemoteAddr())
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.clientMu.Lock()
			gameCode, inGameOrLobby := h.clientToGame[client]
			_, clientExists := h.clients[client]

			if clientExists {
				delete(h.clients, client)
				delete(h.clientToGame, client)
				close(client.send)
				log.Printf("Client %s (%s) disconnected", client.ID, client.Name)
			}
			h.clientMu.Unlock()

			if inGameOrLobby {
				h.removeFromLobbyOrGame(client, gameCode)
			} else if clientExists {
				log.Printf("Client %s disconnected before joining/creating a game.", client.ID)
			}

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)
		}
	}
}

// removeFromLobbyOrGame detaches a disconnected client from its lobby, or
// notifies its game so the seat goes on autopilot.
func (h *Hub) removeFromLobbyOrGame(client *Client, gameCode string) {
	h.lobbyMu.Lock()
	lobby, lobbyExists := h.lobbies[gameCode]
	if lobbyExists {
		newLobby := []*Client{}
		for _, c := range lobby {
			if c != client {
				newLobby = append(newLobby, c)
			}
		}
		if len(newLobby) > 0 {
			h.lobbies[gameCode] = newLobby
			log.Printf("Client %s removed from lobby %s.", client.ID, gameCode)
			h.lobbyMu.Unlock()
			h.broadcastLobbyUpdate(gameCode, newLobby)
		} else {
			delete(h.lobbies, gameCode)
			delete(h.settings, gameCode)
			log.Printf("Client %s left lobby %s. Lobby deleted.", client.ID, gameCode)
			h.lobbyMu.Unlock()
		}
		return
	}
	h.lobbyMu.Unlock()

	h.gameMu.RLock()
	gameInstance, gameExists := h.games[gameCode]
	h.gameMu.RUnlock()

	if gameExists {
		log.Printf("Client %s was in game %s. Notifying game.", client.ID, gameCode)
		// Run in goroutine to avoid blocking the hub loop
		go gameInstance.HandlePlayerDisconnect(client.ID)
	} else {
		log.Printf("Client %s disconnected but was mapped to non-existent game/lobby code %s", client.ID, gameCode)
	}
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case "create_game":
		h.handleCreateGame(client, msg)
	case "join_game":
		h.handleJoinGame(client, msg)
	case "submit_bid", "play_card":
		h.handleGameAction(client, msg)
	case "get_state":
		h.handleGetState(client)
	case "ping":
		pongMsg, _ := protocol.NewMessage("pong", nil)
		client.send <- pongMsg
	default:
		log.Printf("Received unknown message type '%s' from client %s (%s)", msg.Type, client.ID, client.Name)
		h.sendErrorToClient(client, "Unknown message type.")
	}
}

// handleCreateGame handles a request to create a new game lobby.
func (h *Hub) handleCreateGame(client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	_, alreadyInGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if alreadyInGame {
		log.Printf("Client %s tried to create game but is already associated with one.", client.ID)
		h.sendErrorToClient(client, "Already in a game or lobby.")
		return
	}

	var payload protocol.CreateGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling create_game payload from client %s: %v", client.ID, err)
		h.sendErrorToClient(client, "Invalid create_game message format.")
		return
	}
	if payload.Name == "" {
		log.Printf("Client %s tried to create game with an empty name.", client.ID)
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}
	if payload.Stake < 0 {
		h.sendErrorToClient(client, "Stake cannot be negative.")
		return
	}

	settings := lobbySettings{
		mode:        shared.ParseMode(payload.Mode),
		stake:       payload.Stake,
		targetScore: payload.TargetScore,
	}
	if settings.targetScore <= 0 {
		settings.targetScore = h.config.TargetScore
	}

	gameCode := h.generateGameCode()

	h.clientMu.Lock()
	client.Name = payload.Name
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()

	h.lobbyMu.Lock()
	h.lobbies[gameCode] = []*Client{client}
	h.settings[gameCode] = settings
	h.lobbyMu.Unlock()

	log.Printf("Client %s (%s) created lobby %s (%s, stake %d, target %d)",
		client.ID, client.Name, gameCode, settings.mode, settings.stake, settings.targetScore)

	createdPayload := protocol.GameCreatedPayload{GameCode: gameCode}
	createdMsg, _ := protocol.NewMessage("game_created", createdPayload)
	h.sendMessageToClient(client.ID, createdMsg)

	h.broadcastLobbyUpdate(gameCode, []*Client{client})
}

// handleJoinGame handles a request to join an existing game lobby.
func (h *Hub) handleJoinGame(client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	_, alreadyInGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if alreadyInGame {
		log.Printf("Client %s tried to join game but is already associated with one.", client.ID)
		h.sendJoinError(client, "Already in a game or lobby.")
		return
	}

	var payload protocol.JoinGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling join_game payload from client %s: %v", client.ID, err)
		h.sendJoinError(client, "Invalid join_game message format.")
		return
	}
	if payload.Name == "" {
		h.sendJoinError(client, "Name cannot be empty.")
		return
	}
	if payload.GameCode == "" {
		h.sendJoinError(client, "Game code cannot be empty.")
		return
	}
	gameCode := strings.ToUpper(payload.GameCode)

	h.lobbyMu.Lock()
	lobby, lobbyExists := h.lobbies[gameCode]
	if !lobbyExists {
		h.lobbyMu.Unlock()
		log.Printf("Client %s tried to join non-existent lobby %s", client.ID, gameCode)
		h.sendJoinError(client, "Game code not found.")
		return
	}
	if len(lobby) >= shared.NumSeats {
		h.lobbyMu.Unlock()
		log.Printf("Client %s tried to join full lobby %s", client.ID, gameCode)
		h.sendJoinError(client, "Game lobby is full.")
		return
	}
	for _, existingClient := range lobby {
		if existingClient.Name == payload.Name {
			h.lobbyMu.Unlock()
			log.Printf("Client %s tried to join lobby %s with duplicate name '%s'", client.ID, gameCode, payload.Name)
			h.sendJoinError(client, "Name already taken in this lobby.")
			return
		}
	}

	client.Name = payload.Name
	newLobby := append(lobby, client)
	h.lobbies[gameCode] = newLobby
	h.lobbyMu.Unlock()

	h.clientMu.Lock()
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()

	log.Printf("Client %s (%s) joined lobby %s. Lobby size: %d", client.ID, client.Name, gameCode, len(newLobby))

	h.broadcastLobbyUpdate(gameCode, newLobby)

	if len(newLobby) == shared.NumSeats {
		h.startGame(gameCode)
	}
}

// startGame promotes a full lobby into a running game instance.
func (h *Hub) startGame(gameCode string) {
	log.Printf("Lobby %s is full. Starting game...", gameCode)

	h.gameMu.Lock()
	h.lobbyMu.Lock()

	finalLobby, finalLobbyExists := h.lobbies[gameCode]
	if !finalLobbyExists || len(finalLobby) != shared.NumSeats {
		log.Printf("Error: Lobby %s state changed unexpectedly before game start. Aborting start.", gameCode)
		h.lobbyMu.Unlock()
		h.gameMu.Unlock()
		errorMsgBytes, _ := protocol.NewMessage("error", protocol.ErrorPayload{Message: "Failed to start game due to internal error."})
		h.broadcastToLobby(gameCode, errorMsgBytes)
		return
	}
	settings := h.settings[gameCode]

	var gamePlayers [shared.NumSeats]*shared.Player
	for i, c := range finalLobby {
		gamePlayers[i] = shared.NewPlayer(c.ID, c.Name)
	}

	newGame := game.NewGame(gamePlayers, game.Config{
		Mode:        settings.mode,
		TargetScore: settings.targetScore,
		Stake:       settings.stake,
		TurnTimeout: h.config.TurnTimeout,
	})
	newGame.OnFinished = func(result game.Result) {
		h.finishGame(gameCode, result)
	}
	h.games[gameCode] = newGame

	delete(h.lobbies, gameCode)
	delete(h.settings, gameCode)

	h.lobbyMu.Unlock()
	h.gameMu.Unlock()

	log.Printf("Game instance created for code %s with ID %s. Players: %v", gameCode, newGame.ID, playerNames(finalLobby))

	go newGame.StartGameLoop(h.sendMessageToClient)
}

// finishGame persists a finished game's result and releases its players
// so they can create or join another game.
func (h *Hub) finishGame(gameCode string, result game.Result) {
	record := database.GameResult{
		ID:        result.GameID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Mode:      string(result.Mode),
		Stake:     result.Stake,
		Rounds:    result.Rounds,
	}
	names := [shared.NumSeats]*string{&record.Player1, &record.Player2, &record.Player3, &record.Player4}
	scores := [shared.NumSeats]*int{&record.Score1, &record.Score2, &record.Score3, &record.Score4}
	for seat := 0; seat < shared.NumSeats; seat++ {
		*names[seat] = result.PlayerNames[seat]
		*scores[seat] = result.Teams[shared.TeamForSeat(result.Mode, seat)].Score
	}
	if !result.Draw {
		record.WinnerTeam = result.Teams[result.WinnerTeam].TeamNumber
	}

	if h.db != nil {
		if err := h.db.Insert(record); err != nil {
			log.Printf("Error persisting result for game %s: %v", gameCode, err)
		}
	}

	h.gameMu.Lock()
	delete(h.games, gameCode)
	h.gameMu.Unlock()

	h.clientMu.Lock()
	for client, code := range h.clientToGame {
		if code == gameCode {
			delete(h.clientToGame, client)
		}
	}
	h.clientMu.Unlock()

	log.Printf("Game %s finished after %d rounds and was persisted.", gameCode, result.Rounds)
}

// handleGameAction forwards actions like submit_bid or play_card to the correct game instance.
func (h *Hub) handleGameAction(client *Client, msg protocol.Message) {
	gameInstance, ok := h.gameFor(client, msg.Type)
	if !ok {
		return
	}
	gameInstance.HandlePlayerAction(client.ID, msg)
}

// handleGetState sends the client its current view of its game.
func (h *Hub) handleGetState(client *Client) {
	gameInstance, ok := h.gameFor(client, "get_state")
	if !ok {
		return
	}
	msgBytes, _ := protocol.NewMessage("game_state_update", gameInstance.Snapshot(client.ID))
	h.sendMessageToClient(client.ID, msgBytes)
}

// gameFor resolves the active game a client belongs to.
func (h *Hub) gameFor(client *Client, action string) (*game.Game, bool) {
	h.clientMu.RLock()
	gameCode, inGame := h.clientToGame[client]
	h.clientMu.RUnlock()

	if !inGame {
		log.Printf("Received '%s' from client %s not in any game/lobby.", action, client.ID)
		h.sendErrorToClient(client, "You are not in an active game or lobby.")
		return nil, false
	}

	h.gameMu.RLock()
	gameInstance, gameExists := h.games[gameCode]
	h.gameMu.RUnlock()

	if !gameExists {
		log.Printf("Received '%s' from client %s for game code %s, but game instance not found (maybe still in lobby or game ended?).", action, client.ID, gameCode)
		h.sendErrorToClient(client, "Game not found or not active.")
		return nil, false
	}
	return gameInstance, true
}

// Helper to get player names for logging
func playerNames(players []*Client) []string {
	names := make([]string, len(players))
	for i, p := range players {
		if p != nil {
			names[i] = p.Name
		} else {
			names[i] = "<nil>"
		}
	}
	return names
}

// sendMessageToClient allows the game logic to send messages back via the hub/client.
// This is passed as a callback to the game instance.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	var targetClient *Client
	for client := range h.clients {
		if client.ID == clientID {
			targetClient = client
			break
		}
	}
	h.clientMu.RUnlock()

	if targetClient == nil {
		log.Printf("Could not find client %s to send message (already disconnected?).", clientID)
		return
	}

	// Non-blocking send so a dead connection cannot stall the game loop
	select {
	case targetClient.send <- message:
	default:
		log.Printf("Failed to send message to client %s (channel full or closed), initiating cleanup.", clientID)
		go func() {
			h.clientMu.RLock()
			_, stillConnected := h.clients[targetClient]
			h.clientMu.RUnlock()
			if stillConnected {
				h.unregister <- targetClient
			}
		}()
	}
}

// broadcastToLobby sends a message to all clients currently in a specific lobby.
func (h *Hub) broadcastToLobby(gameCode string, message []byte) {
	h.lobbyMu.RLock()
	lobby, exists := h.lobbies[gameCode]
	if !exists {
		h.lobbyMu.RUnlock()
		log.Printf("Warning: Tried to broadcast to non-existent lobby %s", gameCode)
		return
	}
	clientsToSend := make([]*Client, len(lobby))
	copy(clientsToSend, lobby)
	h.lobbyMu.RUnlock()

	for _, client := range clientsToSend {
		if client != nil {
			h.sendMessageToClient(client.ID, message)
		}
	}
}

// broadcastLobbyUpdate sends the current list of players in the lobby.
func (h *Hub) broadcastLobbyUpdate(gameCode string, lobby []*Client) {
	playerInfos := make([]protocol.PlayerInfo, len(lobby))
	for i, c := range lobby {
		if c != nil {
			playerInfos[i] = protocol.PlayerInfo{ID: c.ID, Name: c.Name, Seat: i}
		}
	}
	payload := protocol.LobbyUpdatePayload{Players: playerInfos}
	msgBytes, err := protocol.NewMessage("lobby_update", payload)
	if err != nil {
		log.Printf("Error creating lobby_update message for lobby %s: %v", gameCode, err)
		return
	}
	h.broadcastToLobby(gameCode, msgBytes)
}

// sendErrorToClient sends a generic error message to a specific client.
func (h *Hub) sendErrorToClient(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage("error", protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Error creating error message for client %s: %v", client.ID, err)
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

// sendJoinError sends a specific join error message to a client.
func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage("join_error", protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Error creating join_error message for client %s: %v", client.ID, err)
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

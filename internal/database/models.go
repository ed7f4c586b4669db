package database

// GameResult is one finished game as persisted for the results API and
// external settlement.
type GameResult struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"created_at"`
	Mode       string `json:"mode"`
	Stake      int    `json:"stake"`
	Rounds     int    `json:"rounds"`
	Player1    string `json:"player1"`
	Player2    string `json:"player2"`
	Player3    string `json:"player3"`
	Player4    string `json:"player4"`
	Score1     int    `json:"score1"`
	Score2     int    `json:"score2"`
	Score3     int    `json:"score3"`
	Score4     int    `json:"score4"`
	WinnerTeam int    `json:"winner_team"` // logical team number; 0 for a draw
}

package shared

import "github.com/google/uuid"

// Mode selects how the four seats group into scoring units.
type Mode string

const (
	// Partnered is classic Spades: seats 0+2 against seats 1+3.
	Partnered Mode = "partnered"
	// Solo is the 1v3 variant: every seat scores for itself.
	Solo Mode = "solo"
)

// ParseMode maps a wire string onto a Mode, defaulting to Partnered.
func ParseMode(s string) Mode {
	if Mode(s) == Solo {
		return Solo
	}
	return Partnered
}

// Team is a scoring unit: two seats in partnered mode, one seat in solo
// mode. Score and Bags accumulate across rounds; everything else about a
// round is discarded when the round is scored.
type Team struct {
	ID         string `json:"id"`
	Seats      []int  `json:"seats"`
	Score      int    `json:"score"`
	Bags       int    `json:"bags"`
	TeamNumber int    `json:"team_number"`
}

// NewTeams builds the scoring units for a mode: two partnerships or four
// solo units. Unit membership is fixed for the life of the game.
func NewTeams(mode Mode) []*Team {
	if mode == Solo {
		teams := make([]*Team, NumSeats)
		for seat := 0; seat < NumSeats; seat++ {
			teams[seat] = &Team{
				ID:         uuid.NewString(),
				Seats:      []int{seat},
				TeamNumber: seat + 1,
			}
		}
		return teams
	}
	return []*Team{
		{ID: uuid.NewString(), Seats: []int{0, 2}, TeamNumber: 1},
		{ID: uuid.NewString(), Seats: []int{1, 3}, TeamNumber: 2},
	}
}

// TeamForSeat returns the index of the scoring unit a seat belongs to.
func TeamForSeat(mode Mode, seat int) int {
	if mode == Solo {
		return seat
	}
	return seat % 2
}

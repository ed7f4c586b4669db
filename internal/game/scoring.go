package game

import "spades-game/internal/shared"

// RuleSet holds the scoring constants for a game. The reference rules
// disagree with themselves on nil values and bag thresholds, so every
// constant is injectable; DefaultRules is the canonical set.
type RuleSet struct {
	BidValue     int // points per bid trick when the bid is made (also the per-trick shortfall penalty)
	NilBonus     int // awarded for a successful nil
	NilPenalty   int // charged for a failed nil
	BagThreshold int // bags that trigger a sandbag penalty
	BagPenalty   int // points charged per full bag threshold
}

// DefaultRules returns the canonical Spades rule set.
func DefaultRules() RuleSet {
	return RuleSet{
		BidValue:     10,
		NilBonus:     100,
		NilPenalty:   100,
		BagThreshold: 5,
		BagPenalty:   100,
	}
}

// TeamRoundScore is the scoring breakdown of one unit for one round.
type TeamRoundScore struct {
	Delta      int `json:"delta"`       // total score change including any bag penalty
	BagsAdded  int `json:"bags_added"`  // overtricks earned this round
	BagPenalty int `json:"bag_penalty"` // sandbag penalty charged this round (>= 0)
	Bags       int `json:"bags"`        // bag counter after settlement
}

// ScoreBid scores a regular (non-nil) bid against tricks won.
func (r RuleSet) ScoreBid(bid, tricks int) int {
	if tricks < bid {
		return -r.BidValue * bid
	}
	return r.BidValue*bid + (tricks - bid)
}

// ScoreNil scores a nil bid: full bonus on zero tricks, full penalty
// otherwise. Tricks taken on a failed nil never count as bags.
func (r RuleSet) ScoreNil(tricks int) int {
	if tricks == 0 {
		return r.NilBonus
	}
	return -r.NilPenalty
}

// SettleBags adds newly earned bags to a running counter and converts
// every full threshold into a penalty, keeping the remainder.
func (r RuleSet) SettleBags(current, added int) (remaining, penalty int) {
	total := current + added
	if total >= r.BagThreshold {
		penalty = (total / r.BagThreshold) * r.BagPenalty
		total = total % r.BagThreshold
	}
	return total, penalty
}

// ScoreTeamRound scores one unit's round and settles its bag counter.
// Nil bidders are scored individually; the remaining bids are summed and
// scored against the combined tricks of the non-nil bidders, so tricks
// taken on a failed nil help neither the team bid nor the bag counter.
func (r RuleSet) ScoreTeamRound(team *shared.Team, bids, tricks [shared.NumSeats]int) TeamRoundScore {
	var result TeamRoundScore

	teamBid, teamTricks := 0, 0
	for _, seat := range team.Seats {
		if bids[seat] == 0 {
			result.Delta += r.ScoreNil(tricks[seat])
			continue
		}
		teamBid += bids[seat]
		teamTricks += tricks[seat]
	}

	if teamBid > 0 {
		result.Delta += r.ScoreBid(teamBid, teamTricks)
		if teamTricks > teamBid {
			result.BagsAdded = teamTricks - teamBid
		}
	}

	result.Bags, result.BagPenalty = r.SettleBags(team.Bags, result.BagsAdded)
	result.Delta -= result.BagPenalty
	return result
}

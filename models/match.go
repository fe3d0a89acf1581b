package models

import "time"

// BracketSide identifies which sub-bracket a match slot belongs to.
type BracketSide string

const (
	BracketWinner BracketSide = "winner"
	BracketLoser  BracketSide = "loser"
	BracketGrand  BracketSide = "grand"
)

// SlotSide is one of the two team positions within a match.
type SlotSide string

const (
	SlotTeam1 SlotSide = "team1"
	SlotTeam2 SlotSide = "team2"
)

// Match is one slot of the bracket. The id is stable per slot and doubles as
// the routing key; bracket/round/position are the structured form of it.
// Team references are nil until an upstream result fills the slot.
type Match struct {
	ID         string      `json:"id" db:"id"`
	Bracket    BracketSide `json:"bracket" db:"bracket"`
	Round      int         `json:"round" db:"round"`
	Position   int         `json:"position" db:"position"`
	Team1ID    *int        `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID    *int        `json:"team2_id,omitempty" db:"team2_id"`
	Team1Score int         `json:"team1_score" db:"team1_score"`
	Team2Score int         `json:"team2_score" db:"team2_score"`
	WinnerID   *int        `json:"winner_id,omitempty" db:"winner_id"`
	IsFinished bool        `json:"is_finished" db:"is_finished"`
	IsLive     bool        `json:"is_live" db:"is_live"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// Ready reports whether both slots are populated and a result can be recorded.
func (m *Match) Ready() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

func (m *Match) TeamInSlot(side SlotSide) *int {
	if side == SlotTeam1 {
		return m.Team1ID
	}
	return m.Team2ID
}

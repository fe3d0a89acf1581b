package brackets

import "github.com/strafelabs/bracket-engine/models"

// Placement names the destination slot side a routed team lands in.
type Placement struct {
	Dest Slot
	Side models.SlotSide
}

// WinnerDestination returns where the winner of a slot advances to.
// The grand final is terminal; ok is false there.
func WinnerDestination(s Slot) (Placement, bool) {
	switch s.Bracket {
	case models.BracketWinner:
		switch s.Round {
		case 1:
			side := models.SlotTeam1
			if s.Position%2 == 0 {
				side = models.SlotTeam2
			}
			return Placement{
				Dest: Slot{Bracket: models.BracketWinner, Round: 2, Position: (s.Position + 1) / 2},
				Side: side,
			}, true
		case 2:
			side := models.SlotTeam1
			if s.Position == 2 {
				side = models.SlotTeam2
			}
			return Placement{
				Dest: Slot{Bracket: models.BracketWinner, Round: 3, Position: 1},
				Side: side,
			}, true
		case 3:
			return Placement{
				Dest: Slot{Bracket: models.BracketGrand, Round: 1, Position: 1},
				Side: models.SlotTeam1,
			}, true
		}
	case models.BracketLoser:
		switch s.Round {
		case 1:
			return Placement{
				Dest: Slot{Bracket: models.BracketLoser, Round: 2, Position: s.Position},
				Side: models.SlotTeam1,
			}, true
		case 2:
			side := models.SlotTeam1
			if s.Position == 2 {
				side = models.SlotTeam2
			}
			return Placement{
				Dest: Slot{Bracket: models.BracketLoser, Round: 3, Position: 1},
				Side: side,
			}, true
		case 3:
			return Placement{
				Dest: Slot{Bracket: models.BracketLoser, Round: 4, Position: 1},
				Side: models.SlotTeam1,
			}, true
		case 4:
			return Placement{
				Dest: Slot{Bracket: models.BracketGrand, Round: 1, Position: 1},
				Side: models.SlotTeam2,
			}, true
		}
	}
	return Placement{}, false
}

// LoserDestination returns where the loser of a slot drops to. Losers inside
// the loser bracket are eliminated, so only winner-bracket slots route here.
func LoserDestination(s Slot) (Placement, bool) {
	if s.Bracket != models.BracketWinner {
		return Placement{}, false
	}
	switch s.Round {
	case 1:
		side := models.SlotTeam1
		if s.Position%2 == 0 {
			side = models.SlotTeam2
		}
		return Placement{
			Dest: Slot{Bracket: models.BracketLoser, Round: 1, Position: (s.Position + 1) / 2},
			Side: side,
		}, true
	case 2:
		// Semifinal losers cross to the opposite LB round-2 match so that two
		// teams who already met in round 1 cannot face each other again here.
		return Placement{
			Dest: Slot{Bracket: models.BracketLoser, Round: 2, Position: 3 - s.Position},
			Side: models.SlotTeam2,
		}, true
	case 3:
		return Placement{
			Dest: Slot{Bracket: models.BracketLoser, Round: 4, Position: 1},
			Side: models.SlotTeam2,
		}, true
	}
	return Placement{}, false
}

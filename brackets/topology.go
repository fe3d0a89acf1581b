package brackets

import (
	"fmt"

	"github.com/strafelabs/bracket-engine/models"
)

// TeamCount is the fixed bracket size. The topology below is static
// configuration for eight teams, not derived data.
const TeamCount = 8

// Slot identifies one match of the bracket by structured fields. Routing is
// keyed on these tuples, never on substrings of the match id.
type Slot struct {
	Bracket  models.BracketSide
	Round    int
	Position int
}

// ID returns the stable string identifier used as the store key,
// e.g. "wb-r1-m1", "lb-r4-m1", "gf".
func (s Slot) ID() string {
	switch s.Bracket {
	case models.BracketWinner:
		return fmt.Sprintf("wb-r%d-m%d", s.Round, s.Position)
	case models.BracketLoser:
		return fmt.Sprintf("lb-r%d-m%d", s.Round, s.Position)
	default:
		return "gf"
	}
}

// SlotOf rebuilds the slot tuple from a stored match.
func SlotOf(m *models.Match) Slot {
	return Slot{Bracket: m.Bracket, Round: m.Round, Position: m.Position}
}

// AllSlots enumerates the full 8-team double-elimination topology in play
// order: WB rounds 1-3, LB rounds 1-4, grand final. 14 matches total.
func AllSlots() []Slot {
	slots := make([]Slot, 0, 14)
	for _, shape := range []struct {
		bracket models.BracketSide
		matches []int // matches per round, index 0 = round 1
	}{
		{models.BracketWinner, []int{4, 2, 1}},
		{models.BracketLoser, []int{2, 2, 1, 1}},
		{models.BracketGrand, []int{1}},
	} {
		for r, count := range shape.matches {
			for p := 1; p <= count; p++ {
				slots = append(slots, Slot{Bracket: shape.bracket, Round: r + 1, Position: p})
			}
		}
	}
	return slots
}

// WinThreshold is the score a team must reach to take the match. The grand
// final is best-of-5, everything else best-of-3.
func WinThreshold(s Slot) int {
	if s.Bracket == models.BracketGrand {
		return 3
	}
	return 2
}

package services

import (
	"context"
	"testing"

	"github.com/strafelabs/bracket-engine/brackets"
	"github.com/strafelabs/bracket-engine/models"
	"github.com/strafelabs/bracket-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMatchRepo mimics the Postgres repository over an in-memory map,
// including the compare-and-set semantics of DecideMatch.
type fakeMatchRepo struct {
	matches map[string]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]*models.Match)}
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id string) (*models.Match, error) {
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) List(_ context.Context) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(r.matches))
	for _, slot := range brackets.AllSlots() {
		if match, ok := r.matches[slot.ID()]; ok {
			copied := *match
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateScores(_ context.Context, id string, team1Score, team2Score int) (bool, error) {
	match, ok := r.matches[id]
	if !ok || match.IsFinished {
		return false, nil
	}
	match.Team1Score = team1Score
	match.Team2Score = team2Score
	return true, nil
}

func (r *fakeMatchRepo) DecideMatch(_ context.Context, id string, team1Score, team2Score, winnerID int) (bool, error) {
	match, ok := r.matches[id]
	if !ok || match.IsFinished {
		return false, nil
	}
	match.Team1Score = team1Score
	match.Team2Score = team2Score
	match.WinnerID = &winnerID
	match.IsFinished = true
	return true, nil
}

func (r *fakeMatchRepo) FillSlot(_ context.Context, id string, side models.SlotSide, teamID int) error {
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if side == models.SlotTeam1 {
		match.Team1ID = &teamID
	} else {
		match.Team2ID = &teamID
	}
	return nil
}

func (r *fakeMatchRepo) SetLive(_ context.Context, id string, live bool) error {
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.IsLive = live
	return nil
}

func (r *fakeMatchRepo) ReplaceAll(_ context.Context, matches []*models.Match) error {
	r.matches = make(map[string]*models.Match, len(matches))
	for _, match := range matches {
		copied := *match
		r.matches[match.ID] = &copied
	}
	return nil
}

// snapshot copies the whole store for state comparisons.
func (r *fakeMatchRepo) snapshot() map[string]models.Match {
	out := make(map[string]models.Match, len(r.matches))
	for id, match := range r.matches {
		out[id] = *match
	}
	return out
}

type fakeTeamRepo struct {
	teams []*models.Team
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	team.ID = len(r.teams) + 1
	copied := *team
	r.teams = append(r.teams, &copied)
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	for _, team := range r.teams {
		if team.ID == id {
			copied := *team
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) ListBySeed(_ context.Context) ([]*models.Team, error) {
	out := make([]*models.Team, len(r.teams))
	for i, team := range r.teams {
		copied := *team
		out[i] = &copied
	}
	return out, nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	for _, team := range r.teams {
		if team.ID == id {
			team.LogoKey = logoKey
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

// newTestEngine builds the engine over fakes with 8 teams (ids and seeds
// 1..8) and a freshly reset bracket.
func newTestEngine(t *testing.T) (BracketService, *fakeMatchRepo, *fakeTeamRepo) {
	t.Helper()

	teamRepo := &fakeTeamRepo{}
	for i := 1; i <= brackets.TeamCount; i++ {
		teamRepo.teams = append(teamRepo.teams, &models.Team{
			ID:   i,
			Name: "Team " + string(rune('A'+i-1)),
			Seed: i,
		})
	}
	matchRepo := newFakeMatchRepo()
	engine := NewBracketService(matchRepo, teamRepo, nil, nil)

	_, err := engine.ResetBracket(context.Background())
	require.NoError(t, err)
	return engine, matchRepo, teamRepo
}

func teamID(t *testing.T, match *models.Match, side models.SlotSide) int {
	t.Helper()
	id := match.TeamInSlot(side)
	require.NotNil(t, id, "match %s slot %s is empty", match.ID, side)
	return *id
}

func TestResetBracketSeeding(t *testing.T) {
	_, matchRepo, _ := newTestEngine(t)

	require.Len(t, matchRepo.matches, 14)

	expectedPairs := map[string][2]int{
		"wb-r1-m1": {1, 2},
		"wb-r1-m2": {3, 4},
		"wb-r1-m3": {5, 6},
		"wb-r1-m4": {7, 8},
	}
	for id, pair := range expectedPairs {
		match := matchRepo.matches[id]
		require.NotNil(t, match)
		assert.Equal(t, pair[0], teamID(t, match, models.SlotTeam1))
		assert.Equal(t, pair[1], teamID(t, match, models.SlotTeam2))
	}

	for id, match := range matchRepo.matches {
		assert.False(t, match.IsFinished, "match %s must start unfinished", id)
		assert.Nil(t, match.WinnerID, "match %s must start without winner", id)
		assert.Zero(t, match.Team1Score)
		assert.Zero(t, match.Team2Score)
		if _, seeded := expectedPairs[id]; !seeded {
			assert.Nil(t, match.Team1ID, "match %s team1 must start empty", id)
			assert.Nil(t, match.Team2ID, "match %s team2 must start empty", id)
		}
	}
}

func TestResetBracketRequiresEightTeams(t *testing.T) {
	teamRepo := &fakeTeamRepo{teams: []*models.Team{{ID: 1, Seed: 1}}}
	engine := NewBracketService(newFakeMatchRepo(), teamRepo, nil, nil)

	_, err := engine.ResetBracket(context.Background())
	assert.ErrorIs(t, err, ErrTeamCount)
}

func TestRecordResultThresholds(t *testing.T) {
	testCases := []struct {
		name        string
		team1Score  int
		team2Score  int
		wantDecided bool
		wantWinner  int // team id, 0 when undecided
	}{
		{"team1 reaches threshold", 2, 0, true, 1},
		{"team1 wins close", 2, 1, true, 1},
		{"team2 reaches threshold", 1, 2, true, 2},
		{"partial score", 1, 0, false, 0},
		{"tied below threshold", 1, 1, false, 0},
		{"tied at threshold", 2, 2, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, matchRepo, _ := newTestEngine(t)

			out, err := engine.RecordResult(context.Background(), "wb-r1-m1", tc.team1Score, tc.team2Score)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDecided, out.Decided)

			stored := matchRepo.matches["wb-r1-m1"]
			assert.Equal(t, tc.team1Score, stored.Team1Score)
			assert.Equal(t, tc.team2Score, stored.Team2Score)
			if tc.wantDecided {
				require.NotNil(t, stored.WinnerID)
				assert.Equal(t, tc.wantWinner, *stored.WinnerID)
				assert.True(t, stored.IsFinished)
			} else {
				assert.Nil(t, stored.WinnerID)
				assert.False(t, stored.IsFinished)
				assert.False(t, out.Routed)
			}
		})
	}
}

func TestRecordResultGrandFinalBestOfFive(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, matchRepo.FillSlot(ctx, "gf", models.SlotTeam1, 1))
	require.NoError(t, matchRepo.FillSlot(ctx, "gf", models.SlotTeam2, 5))

	// 2-0 decides a best-of-3 but not the best-of-5 grand final.
	out, err := engine.RecordResult(ctx, "gf", 2, 0)
	require.NoError(t, err)
	assert.False(t, out.Decided)
	assert.False(t, matchRepo.matches["gf"].IsFinished)

	out, err = engine.RecordResult(ctx, "gf", 3, 2)
	require.NoError(t, err)
	assert.True(t, out.Decided)
	assert.True(t, out.Routed, "terminal match has nothing to route, which counts as fully routed")
	assert.Empty(t, out.RoutingErrors)

	stored := matchRepo.matches["gf"]
	assert.True(t, stored.IsFinished)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, 1, *stored.WinnerID)
}

func TestRecordResultValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RecordResult(ctx, "wb-r1-m1", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = engine.RecordResult(ctx, "no-such-match", 2, 0)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// Round 2 has no teams yet; the slot is not reachable.
	_, err = engine.RecordResult(ctx, "wb-r2-m1", 2, 0)
	assert.ErrorIs(t, err, ErrMatchNotReady)
}

func TestRoutingWinnerBracketRound1(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	// Team A (seed 1) beats team B (seed 2) 2-0 in the first quarter final.
	out, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err)
	assert.True(t, out.Decided)
	assert.True(t, out.Routed)
	assert.Empty(t, out.Conflicts)

	assert.Equal(t, 1, teamID(t, matchRepo.matches["wb-r2-m1"], models.SlotTeam1))
	assert.Equal(t, 2, teamID(t, matchRepo.matches["lb-r1-m1"], models.SlotTeam1))

	// Remaining quarter finals, all won by team1.
	expected := []struct {
		source   string
		wbDest   string
		wbSide   models.SlotSide
		lbDest   string
		lbSide   models.SlotSide
		winnerID int
		loserID  int
	}{
		{"wb-r1-m2", "wb-r2-m1", models.SlotTeam2, "lb-r1-m1", models.SlotTeam2, 3, 4},
		{"wb-r1-m3", "wb-r2-m2", models.SlotTeam1, "lb-r1-m2", models.SlotTeam1, 5, 6},
		{"wb-r1-m4", "wb-r2-m2", models.SlotTeam2, "lb-r1-m2", models.SlotTeam2, 7, 8},
	}
	for _, e := range expected {
		_, err := engine.RecordResult(ctx, e.source, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, e.winnerID, teamID(t, matchRepo.matches[e.wbDest], e.wbSide))
		assert.Equal(t, e.loserID, teamID(t, matchRepo.matches[e.lbDest], e.lbSide))
	}

	// No loser-bracket round-1 match may pair two teams from the same
	// quarter final.
	for _, id := range []string{"lb-r1-m1", "lb-r1-m2"} {
		match := matchRepo.matches[id]
		assert.NotEqual(t, teamID(t, match, models.SlotTeam1), teamID(t, match, models.SlotTeam2))
	}
}

func TestRecordResultIdempotent(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err)
	require.True(t, first.Decided)
	stateAfterFirst := matchRepo.snapshot()

	second, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err)
	assert.True(t, second.Decided)
	assert.True(t, second.Routed)
	assert.Empty(t, second.Conflicts)
	assert.Equal(t, stateAfterFirst, matchRepo.snapshot())
}

func TestRecordResultDecidedMatchIsImmutable(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err)

	// A different winner is rejected.
	_, err = engine.RecordResult(ctx, "wb-r1-m1", 0, 2)
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)

	// So is regressing to a partial score.
	_, err = engine.RecordResult(ctx, "wb-r1-m1", 1, 1)
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
}

func TestRoutingConflictOverwritesAndReports(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	// Simulate a prior inconsistent state: the semifinal slot already holds
	// a team that did not come out of this quarter final.
	require.NoError(t, matchRepo.FillSlot(ctx, "wb-r2-m1", models.SlotTeam1, 7))

	out, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err)
	assert.True(t, out.Routed)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, 1, teamID(t, matchRepo.matches["wb-r2-m1"], models.SlotTeam1))
}

func TestRoutingMissingDestinationIsReported(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	delete(matchRepo.matches, "wb-r2-m1")

	out, err := engine.RecordResult(ctx, "wb-r1-m1", 2, 0)
	require.NoError(t, err, "the source match result must still be recorded")
	assert.True(t, out.Decided)
	assert.False(t, out.Routed)
	require.Len(t, out.RoutingErrors, 1)

	// Source row committed, loser still routed.
	stored := matchRepo.matches["wb-r1-m1"]
	assert.True(t, stored.IsFinished)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, 1, *stored.WinnerID)
	assert.Equal(t, 2, teamID(t, matchRepo.matches["lb-r1-m1"], models.SlotTeam1))
}

// Plays the full 14-match tournament and checks the bracket closes correctly:
// the WB final winner and LB final winner meet in the grand final, and no
// match ever holds the same team on both sides.
func TestFullTournamentClosure(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	play := func(id string, team1Score, team2Score int) {
		t.Helper()
		out, err := engine.RecordResult(ctx, id, team1Score, team2Score)
		require.NoError(t, err, "match %s", id)
		require.True(t, out.Decided, "match %s", id)
		require.True(t, out.Routed, "match %s", id)
	}

	// Quarter finals: 1, 3, 5, 7 advance; 2, 4, 6, 8 drop.
	play("wb-r1-m1", 2, 0)
	play("wb-r1-m2", 2, 1)
	play("wb-r1-m3", 2, 0)
	play("wb-r1-m4", 2, 1)

	// LB round 1: 2 and 6 survive.
	play("lb-r1-m1", 2, 1)
	play("lb-r1-m2", 2, 0)

	// WB semifinals: 1 and 5 advance; losers 3 and 7 cross into LB round 2.
	play("wb-r2-m1", 2, 1)
	play("wb-r2-m2", 2, 0)
	assert.Equal(t, 7, teamID(t, matchRepo.matches["lb-r2-m1"], models.SlotTeam2))
	assert.Equal(t, 3, teamID(t, matchRepo.matches["lb-r2-m2"], models.SlotTeam2))

	// LB round 2: 2 beats 7, 3 beats 6.
	play("lb-r2-m1", 2, 0)
	play("lb-r2-m2", 1, 2)

	// WB final: 1 advances to the grand final, 5 drops to the LB final.
	play("wb-r3-m1", 2, 1)
	assert.Equal(t, 1, teamID(t, matchRepo.matches["gf"], models.SlotTeam1))
	assert.Equal(t, 5, teamID(t, matchRepo.matches["lb-r4-m1"], models.SlotTeam2))

	// LB round 3 and final: 2 beats 3, then 5 beats 2.
	play("lb-r3-m1", 2, 0)
	play("lb-r4-m1", 0, 2)
	assert.Equal(t, 5, teamID(t, matchRepo.matches["gf"], models.SlotTeam2))

	// Grand final goes the distance.
	play("gf", 3, 2)

	gf := matchRepo.matches["gf"]
	require.NotNil(t, gf.WinnerID)
	assert.Equal(t, 1, *gf.WinnerID)

	for id, match := range matchRepo.matches {
		assert.True(t, match.IsFinished, "match %s should be finished", id)
		if match.Team1ID != nil && match.Team2ID != nil {
			assert.NotEqual(t, *match.Team1ID, *match.Team2ID, "match %s pairs a team with itself", id)
		}
	}
}

func TestGetBracketState(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	state, err := engine.GetBracketState(context.Background())
	require.NoError(t, err)
	assert.Len(t, state.Teams, 8)
	assert.Len(t, state.Matches, 14)
}

func TestSetMatchLive(t *testing.T) {
	engine, matchRepo, _ := newTestEngine(t)
	ctx := context.Background()

	match, err := engine.SetMatchLive(ctx, "wb-r1-m1", true)
	require.NoError(t, err)
	assert.True(t, match.IsLive)
	assert.True(t, matchRepo.matches["wb-r1-m1"].IsLive)

	_, err = engine.SetMatchLive(ctx, "no-such-match", true)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

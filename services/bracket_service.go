package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/strafelabs/bracket-engine/brackets"
	"github.com/strafelabs/bracket-engine/models"
	"github.com/strafelabs/bracket-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// Broadcaster pushes bracket change events to connected spectators.
// *brackets.Hub satisfies it; tests pass nil.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

const (
	EventBracketUpdated = "BRACKET_UPDATED"
	EventBracketReset   = "BRACKET_RESET"
)

// RecordResultOutput tells the caller whether the match was decided and
// whether every downstream slot was populated. Conflicts and routing errors
// are reported rather than failing the call: once the decide write commits,
// the result is the authoritative fact and routing is retryable by
// resubmitting the same score.
type RecordResultOutput struct {
	Match         *models.Match `json:"match"`
	Decided       bool          `json:"decided"`
	Routed        bool          `json:"routed"`
	Conflicts     []string      `json:"conflicts,omitempty"`
	RoutingErrors []string      `json:"routing_errors,omitempty"`
}

// BracketState is the read-only view of the whole bracket.
type BracketState struct {
	Teams   []*models.Team  `json:"teams"`
	Matches []*models.Match `json:"matches"`
}

type BracketService interface {
	RecordResult(ctx context.Context, matchID string, team1Score, team2Score int) (*RecordResultOutput, error)
	ResetBracket(ctx context.Context) ([]*models.Match, error)
	GetBracketState(ctx context.Context) (*BracketState, error)
	SetMatchLive(ctx context.Context, matchID string, live bool) (*models.Match, error)
}

type bracketService struct {
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	hub       Broadcaster
	logger    *slog.Logger
}

func NewBracketService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	hub Broadcaster,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		hub:       hub,
		logger:    logger,
	}
}

// RecordResult validates the submitted score, decides the match once the win
// threshold is met, and routes winner and loser into their destination slots.
// Submitting a score below the threshold persists it without deciding
// anything, which supports partial score entry during a live series.
func (s *bracketService) RecordResult(ctx context.Context, matchID string, team1Score, team2Score int) (*RecordResultOutput, error) {
	if team1Score < 0 || team2Score < 0 {
		return nil, ErrInvalidScore
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if !match.Ready() {
		return nil, ErrMatchNotReady
	}

	slot := brackets.SlotOf(match)
	threshold := brackets.WinThreshold(slot)

	var winnerID, loserID int
	decided := true
	switch {
	case team1Score >= threshold && team1Score > team2Score:
		winnerID, loserID = *match.Team1ID, *match.Team2ID
	case team2Score >= threshold && team2Score > team1Score:
		winnerID, loserID = *match.Team2ID, *match.Team1ID
	default:
		decided = false
	}

	if !decided {
		updated, err := s.matchRepo.UpdateScores(ctx, matchID, team1Score, team2Score)
		if err != nil {
			return nil, fmt.Errorf("failed to persist scores for match %s: %w", matchID, err)
		}
		if !updated {
			return nil, ErrMatchAlreadyDecided
		}
		match.Team1Score = team1Score
		match.Team2Score = team2Score
		out := &RecordResultOutput{Match: match}
		s.broadcast(EventBracketUpdated, out)
		return out, nil
	}

	transitioned, err := s.matchRepo.DecideMatch(ctx, matchID, team1Score, team2Score, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to decide match %s: %w", matchID, err)
	}
	if transitioned {
		match.Team1Score = team1Score
		match.Team2Score = team2Score
		match.WinnerID = &winnerID
		match.IsFinished = true
	} else {
		// Lost the compare-and-set: the match was already decided. A matching
		// winner means a duplicate submission, which stays a no-op for the
		// source row; routing below is idempotent and repairs any slot fill a
		// previous pass failed to apply. A different winner is rejected.
		current, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload match %s: %w", matchID, err)
		}
		if current.WinnerID == nil || *current.WinnerID != winnerID {
			return nil, ErrMatchAlreadyDecided
		}
		match = current
	}

	out := &RecordResultOutput{Match: match, Decided: true, Routed: true}
	if placement, ok := brackets.WinnerDestination(slot); ok {
		s.place(ctx, placement, winnerID, out)
	}
	if placement, ok := brackets.LoserDestination(slot); ok {
		s.place(ctx, placement, loserID, out)
	}

	s.broadcast(EventBracketUpdated, out)
	return out, nil
}

// place routes a single team into its destination slot. Slot fills are
// idempotent: a slot already holding the same team is left untouched, a slot
// holding a different team is overwritten and the conflict reported.
func (s *bracketService) place(ctx context.Context, placement brackets.Placement, teamID int, out *RecordResultOutput) {
	destID := placement.Dest.ID()

	dest, err := s.matchRepo.GetByID(ctx, destID)
	if err != nil {
		out.Routed = false
		if errors.Is(err, repositories.ErrMatchNotFound) {
			out.RoutingErrors = append(out.RoutingErrors,
				fmt.Sprintf("destination match %s does not exist", destID))
		} else {
			out.RoutingErrors = append(out.RoutingErrors,
				fmt.Sprintf("failed to load destination match %s: %v", destID, err))
		}
		s.logger.Warn("routing destination unavailable",
			slog.String("match_id", destID),
			slog.Any("error", err))
		return
	}

	if current := dest.TeamInSlot(placement.Side); current != nil {
		if *current == teamID {
			return
		}
		out.Conflicts = append(out.Conflicts,
			fmt.Sprintf("match %s slot %s held team %d, replaced with team %d", destID, placement.Side, *current, teamID))
		s.logger.Warn("destination slot already occupied, overwriting",
			slog.String("match_id", destID),
			slog.String("slot", string(placement.Side)),
			slog.Int("previous_team_id", *current),
			slog.Int("team_id", teamID))
	}

	if err := s.matchRepo.FillSlot(ctx, destID, placement.Side, teamID); err != nil {
		out.Routed = false
		out.RoutingErrors = append(out.RoutingErrors,
			fmt.Sprintf("failed to fill %s slot %s: %v", destID, placement.Side, err))
		s.logger.Warn("slot fill failed",
			slog.String("match_id", destID),
			slog.String("slot", string(placement.Side)),
			slog.Any("error", err))
	}
}

// ResetBracket rebuilds every match of the topology from scratch and seeds
// winner-bracket round 1 as (1,2), (3,4), (5,6), (7,8) by seed position.
func (s *bracketService) ResetBracket(ctx context.Context) ([]*models.Match, error) {
	teams, err := s.teamRepo.ListBySeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for reset: %w", err)
	}
	if len(teams) != brackets.TeamCount {
		return nil, ErrTeamCount
	}

	slots := brackets.AllSlots()
	matches := make([]*models.Match, 0, len(slots))
	for _, slot := range slots {
		match := &models.Match{
			ID:       slot.ID(),
			Bracket:  slot.Bracket,
			Round:    slot.Round,
			Position: slot.Position,
		}
		if slot.Bracket == models.BracketWinner && slot.Round == 1 {
			team1 := teams[(slot.Position-1)*2].ID
			team2 := teams[(slot.Position-1)*2+1].ID
			match.Team1ID = &team1
			match.Team2ID = &team2
		}
		matches = append(matches, match)
	}

	if err := s.matchRepo.ReplaceAll(ctx, matches); err != nil {
		return nil, fmt.Errorf("failed to reset bracket: %w", err)
	}

	s.logger.Info("bracket reset", slog.Int("matches", len(matches)))
	s.broadcast(EventBracketReset, matches)
	return matches, nil
}

// GetBracketState loads teams and matches in parallel for the read-only view.
func (s *bracketService) GetBracketState(ctx context.Context) (*BracketState, error) {
	state := &BracketState{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListBySeed(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		state.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		state.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return state, nil
}

// SetMatchLive toggles the display flag. It has no effect on routing.
func (s *bracketService) SetMatchLive(ctx context.Context, matchID string, live bool) (*models.Match, error) {
	if err := s.matchRepo.SetLive(ctx, matchID, live); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update live flag for match %s: %w", matchID, err)
	}
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match %s: %w", matchID, err)
	}
	s.broadcast(EventBracketUpdated, match)
	return match, nil
}

func (s *bracketService) broadcast(eventType string, payload interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(eventType, payload)
	}
}

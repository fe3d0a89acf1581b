package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/strafelabs/bracket-engine/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchTeamInvalid = errors.New("match references an unknown team")
)

type MatchRepository interface {
	GetByID(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context) ([]*models.Match, error)
	// UpdateScores persists an in-progress score without deciding the match.
	// Returns false when the row exists but is already finished.
	UpdateScores(ctx context.Context, id string, team1Score, team2Score int) (bool, error)
	// DecideMatch is a compare-and-set on is_finished: it records the final
	// score and winner only if the match is not yet decided, and reports
	// whether this call performed the transition.
	DecideMatch(ctx context.Context, id string, team1Score, team2Score, winnerID int) (bool, error)
	FillSlot(ctx context.Context, id string, side models.SlotSide, teamID int) error
	SetLive(ctx context.Context, id string, live bool) error
	// ReplaceAll swaps the entire bracket for the given matches in one
	// transaction. Used by reset only.
	ReplaceAll(ctx context.Context, matches []*models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, bracket, round, position, team1_id, team2_id, team1_score, team2_score, winner_id, is_finished, is_live, created_at`

func scanMatch(row interface{ Scan(dest ...interface{}) error }, match *models.Match) error {
	return row.Scan(
		&match.ID,
		&match.Bracket,
		&match.Round,
		&match.Position,
		&match.Team1ID,
		&match.Team2ID,
		&match.Team1Score,
		&match.Team2Score,
		&match.WinnerID,
		&match.IsFinished,
		&match.IsLive,
		&match.CreatedAt,
	)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		ORDER BY CASE bracket WHEN 'winner' THEN 1 WHEN 'loser' THEN 2 ELSE 3 END, round ASC, position ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateScores(ctx context.Context, id string, team1Score, team2Score int) (bool, error) {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2
		WHERE id = $3 AND is_finished = FALSE`

	result, err := r.db.ExecContext(ctx, query, team1Score, team2Score, id)
	if err != nil {
		return false, r.handleMatchError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) DecideMatch(ctx context.Context, id string, team1Score, team2Score, winnerID int) (bool, error) {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2, winner_id = $3, is_finished = TRUE
		WHERE id = $4 AND is_finished = FALSE`

	result, err := r.db.ExecContext(ctx, query, team1Score, team2Score, winnerID, id)
	if err != nil {
		return false, r.handleMatchError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) FillSlot(ctx context.Context, id string, side models.SlotSide, teamID int) error {
	column := "team1_id"
	if side == models.SlotTeam2 {
		column = "team2_id"
	}
	query := fmt.Sprintf(`UPDATE matches SET %s = $1 WHERE id = $2`, column)

	result, err := r.db.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetLive(ctx context.Context, id string, live bool) error {
	query := `UPDATE matches SET is_live = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, live, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ReplaceAll(ctx context.Context, matches []*models.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}

	insert := `
		INSERT INTO matches
			(id, bracket, round, position, team1_id, team2_id, team1_score, team2_score, winner_id, is_finished, is_live)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, match := range matches {
		_, err = tx.ExecContext(ctx, insert,
			match.ID,
			match.Bracket,
			match.Round,
			match.Position,
			match.Team1ID,
			match.Team2ID,
			match.Team1Score,
			match.Team2Score,
			match.WinnerID,
			match.IsFinished,
			match.IsLive,
		)
		if err != nil {
			return r.handleMatchError(err)
		}
	}

	return tx.Commit()
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
		switch pqErr.Constraint {
		case "matches_team1_id_fkey", "matches_team2_id_fkey", "matches_winner_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/lib/pq"
)

var ErrMatchAthleteInvalid = errors.New("match athlete conflict or invalid")

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, group_id, red_athlete_id, blue_athlete_id, ring, round, match_type,
	status, winner_id, start_time, end_time, created_at`

func scanMatch(s rowScanner, m *models.Match) error {
	return s.Scan(&m.ID, &m.GroupID, &m.RedAthleteID, &m.BlueAthleteID, &m.Ring, &m.Round, &m.MatchType,
		&m.Status, &m.WinnerID, &m.StartTime, &m.EndTime, &m.CreatedAt)
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (group_id, red_athlete_id, blue_athlete_id, ring, round, match_type,
			status, winner_id, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.GroupID, m.RedAthleteID, m.BlueAthleteID, m.Ring, m.Round, m.MatchType,
		m.Status, m.WinnerID, m.StartTime, m.EndTime,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			if pqErr.Constraint == "matches_group_id_fkey" {
				return ErrGroupNotFound
			}
			return ErrMatchAthleteInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE 1=1`)

	args := []interface{}{}
	placeholder := func() string { return "$" + strconv.Itoa(len(args)) }
	if filter.Status != nil {
		args = append(args, *filter.Status)
		queryBuilder.WriteString(" AND status = " + placeholder())
	}
	if filter.Ring != nil {
		args = append(args, *filter.Ring)
		queryBuilder.WriteString(" AND ring = " + placeholder())
	}
	if filter.GroupID != nil {
		args = append(args, *filter.GroupID)
		queryBuilder.WriteString(" AND group_id = " + placeholder())
	}
	if filter.AthleteID != nil {
		args = append(args, *filter.AthleteID)
		p := placeholder()
		queryBuilder.WriteString(" AND (red_athlete_id = " + p + " OR blue_athlete_id = " + p + ")")
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := scanMatch(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET group_id = $1, red_athlete_id = $2, blue_athlete_id = $3, ring = $4,
			round = $5, match_type = $6, status = $7, winner_id = $8, start_time = $9, end_time = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(ctx, query,
		m.GroupID, m.RedAthleteID, m.BlueAthleteID, m.Ring, m.Round, m.MatchType,
		m.Status, m.WinnerID, m.StartTime, m.EndTime, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", m.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

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

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// NewPostgresStore собирает репозитории поверх одного пула соединений.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Athletes:   NewPostgresAthleteRepository(db),
		Categories: NewPostgresCategoryRepository(db),
		Hierarchy:  NewPostgresHierarchyRepository(db),
		Groups:     NewPostgresGroupRepository(db),
		Matches:    NewPostgresMatchRepository(db),
		Results:    NewPostgresResultRepository(db),
	}
}

const athleteColumns = `id, name, gender, birth_date, weight, height, belt, dojang,
	category_id, competition_id, is_present, status, ring, created_at, updated_at`

type postgresAthleteRepository struct {
	db *sql.DB
}

func NewPostgresAthleteRepository(db *sql.DB) AthleteRepository {
	return &postgresAthleteRepository{db: db}
}

func scanAthlete(s rowScanner, a *models.Athlete) error {
	return s.Scan(
		&a.ID, &a.Name, &a.Gender, &a.BirthDate, &a.Weight, &a.Height, &a.Belt, &a.Dojang,
		&a.CategoryID, &a.CompetitionID, &a.IsPresent, &a.Status, &a.Ring, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *postgresAthleteRepository) Create(ctx context.Context, a *models.Athlete) error {
	query := `
		INSERT INTO athletes (name, gender, birth_date, weight, height, belt, dojang,
			category_id, competition_id, is_present, status, ring)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.Gender, a.BirthDate, a.Weight, a.Height, a.Belt, a.Dojang,
		a.CategoryID, a.CompetitionID, a.IsPresent, a.Status, a.Ring,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create athlete: %w", err)
	}
	return nil
}

func (r *postgresAthleteRepository) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM athletes WHERE id = $1`
	a := &models.Athlete{}
	if err := scanAthlete(r.db.QueryRowContext(ctx, query, id), a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to get athlete %d: %w", id, err)
	}
	return a, nil
}

func (r *postgresAthleteRepository) List(ctx context.Context, filter AthleteFilter) ([]*models.Athlete, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + athleteColumns + ` FROM athletes WHERE 1=1`)

	args := []interface{}{}
	addCond := func(column string, value interface{}) {
		args = append(args, value)
		queryBuilder.WriteString(" AND " + column + " = $" + strconv.Itoa(len(args)))
	}
	if filter.CategoryID != nil {
		addCond("category_id", *filter.CategoryID)
	}
	if filter.Status != nil {
		addCond("status", *filter.Status)
	}
	if filter.IsPresent != nil {
		addCond("is_present", *filter.IsPresent)
	}
	if filter.Gender != nil {
		addCond("gender", *filter.Gender)
	}
	if filter.CompetitionID != nil {
		addCond("competition_id", *filter.CompetitionID)
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	defer rows.Close()

	athletes := make([]*models.Athlete, 0)
	for rows.Next() {
		a := &models.Athlete{}
		if err := scanAthlete(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan athlete row: %w", err)
		}
		athletes = append(athletes, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating athlete rows: %w", err)
	}
	return athletes, nil
}

func (r *postgresAthleteRepository) Update(ctx context.Context, a *models.Athlete) error {
	query := `
		UPDATE athletes SET name = $1, gender = $2, birth_date = $3, weight = $4, height = $5,
			belt = $6, dojang = $7, category_id = $8, competition_id = $9, is_present = $10,
			status = $11, ring = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.Gender, a.BirthDate, a.Weight, a.Height, a.Belt, a.Dojang,
		a.CategoryID, a.CompetitionID, a.IsPresent, a.Status, a.Ring, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAthleteNotFound
		}
		return fmt.Errorf("failed to update athlete %d: %w", a.ID, err)
	}
	return nil
}

func (r *postgresAthleteRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM athletes WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrAthleteReferenced
		}
		return fmt.Errorf("failed to delete athlete: %w", err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) AppendStatusChange(ctx context.Context, c *models.StatusChange) error {
	query := `
		INSERT INTO athlete_status_changes (athlete_id, from_status, to_status, ring)
		VALUES ($1, $2, $3, $4)
		RETURNING id, changed_at`

	err := r.db.QueryRowContext(ctx, query, c.AthleteID, c.From, c.To, c.Ring).Scan(&c.ID, &c.At)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrAthleteNotFound
		}
		return fmt.Errorf("failed to append status change: %w", err)
	}
	return nil
}

func (r *postgresAthleteRepository) ListStatusChanges(ctx context.Context, athleteID int) ([]*models.StatusChange, error) {
	if _, err := r.GetByID(ctx, athleteID); err != nil {
		return nil, err
	}
	query := `
		SELECT id, athlete_id, from_status, to_status, ring, changed_at
		FROM athlete_status_changes
		WHERE athlete_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status changes: %w", err)
	}
	defer rows.Close()

	changes := make([]*models.StatusChange, 0)
	for rows.Next() {
		c := &models.StatusChange{}
		if err := rows.Scan(&c.ID, &c.AthleteID, &c.From, &c.To, &c.Ring, &c.At); err != nil {
			return nil, fmt.Errorf("failed to scan status change row: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

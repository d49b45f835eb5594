package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/lib/pq"
)

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

const groupColumns = `id, sub_category_id, name, match_number, min_athletes, max_athletes, current_count, created_at`

const memberColumns = `id, group_id, athlete_id, position, queue_order, is_eliminated, eliminated_at, has_medal, created_at`

// Same ordering as sortMembers.
const memberOrderSQL = ` ORDER BY CASE position WHEN 'red' THEN 0 WHEN 'blue' THEN 1 ELSE 2 END, queue_order ASC, id ASC`

func scanGroup(s rowScanner, g *models.AthleteGroup) error {
	return s.Scan(&g.ID, &g.SubCategoryID, &g.Name, &g.MatchNumber, &g.MinAthletes, &g.MaxAthletes, &g.CurrentCount, &g.CreatedAt)
}

func scanMember(s rowScanner, m *models.GroupAthlete) error {
	return s.Scan(&m.ID, &m.GroupID, &m.AthleteID, &m.Position, &m.QueueOrder, &m.IsEliminated, &m.EliminatedAt, &m.HasMedal, &m.CreatedAt)
}

func (r *postgresGroupRepository) Create(ctx context.Context, g *models.AthleteGroup) error {
	query := `
		INSERT INTO athlete_groups (sub_category_id, name, match_number, min_athletes, max_athletes, current_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		g.SubCategoryID, g.Name, g.MatchNumber, g.MinAthletes, g.MaxAthletes, g.CurrentCount,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrSubCategoryNotFound
		}
		return fmt.Errorf("failed to create athlete group: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.AthleteGroup, error) {
	g := &models.AthleteGroup{}
	if err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM athlete_groups WHERE id = $1`, id), g); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get athlete group %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGroupRepository) List(ctx context.Context, subCategoryID *int) ([]*models.AthleteGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM athlete_groups`
	args := []interface{}{}
	if subCategoryID != nil {
		query += ` WHERE sub_category_id = $1`
		args = append(args, *subCategoryID)
	}
	query += ` ORDER BY match_number ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list athlete groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.AthleteGroup, 0)
	for rows.Next() {
		g := &models.AthleteGroup{}
		if err := scanGroup(rows, g); err != nil {
			return nil, fmt.Errorf("failed to scan athlete group row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) UpdateCount(ctx context.Context, id int, count int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE athlete_groups SET current_count = GREATEST($1, 0) WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("failed to update group count: %w", err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

// Delete relies on ON DELETE CASCADE for group_athletes.
func (r *postgresGroupRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM athlete_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete athlete group: %w", err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) AddMember(ctx context.Context, m *models.GroupAthlete) error {
	query := `
		INSERT INTO group_athletes (group_id, athlete_id, position, queue_order, is_eliminated, eliminated_at, has_medal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		m.GroupID, m.AthleteID, m.Position, m.QueueOrder, m.IsEliminated, m.EliminatedAt, m.HasMedal,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrGroupAthleteConflict
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "group_athletes_group_id_fkey" {
					return ErrGroupNotFound
				}
				return ErrAthleteNotFound
			}
		}
		return fmt.Errorf("failed to add group athlete: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) GetMember(ctx context.Context, groupID, athleteID int) (*models.GroupAthlete, error) {
	m := &models.GroupAthlete{}
	query := `SELECT ` + memberColumns + ` FROM group_athletes WHERE group_id = $1 AND athlete_id = $2`
	if err := scanMember(r.db.QueryRowContext(ctx, query, groupID, athleteID), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupAthleteNotFound
		}
		return nil, fmt.Errorf("failed to get group athlete: %w", err)
	}
	return m, nil
}

func (r *postgresGroupRepository) listMembers(ctx context.Context, query string, args ...interface{}) ([]*models.GroupAthlete, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group athletes: %w", err)
	}
	defer rows.Close()

	members := make([]*models.GroupAthlete, 0)
	for rows.Next() {
		m := &models.GroupAthlete{}
		if err := scanMember(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan group athlete row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresGroupRepository) ListMembers(ctx context.Context, groupID int, includeEliminated bool) ([]*models.GroupAthlete, error) {
	query := `SELECT ` + memberColumns + ` FROM group_athletes WHERE group_id = $1`
	if !includeEliminated {
		query += ` AND is_eliminated = FALSE`
	}
	return r.listMembers(ctx, query+memberOrderSQL, groupID)
}

func (r *postgresGroupRepository) ListAllMembers(ctx context.Context) ([]*models.GroupAthlete, error) {
	return r.listMembers(ctx, `SELECT `+memberColumns+` FROM group_athletes ORDER BY id ASC`)
}

func (r *postgresGroupRepository) UpdateMember(ctx context.Context, m *models.GroupAthlete) error {
	query := `
		UPDATE group_athletes SET position = $1, queue_order = $2, is_eliminated = $3,
			eliminated_at = $4, has_medal = $5
		WHERE id = $6 AND group_id = $7 AND athlete_id = $8`
	result, err := r.db.ExecContext(ctx, query,
		m.Position, m.QueueOrder, m.IsEliminated, m.EliminatedAt, m.HasMedal, m.ID, m.GroupID, m.AthleteID)
	if err != nil {
		return fmt.Errorf("failed to update group athlete: %w", err)
	}
	return checkAffectedRows(result, ErrGroupAthleteNotFound)
}

func (r *postgresGroupRepository) DeleteMember(ctx context.Context, groupID, athleteID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_athletes WHERE group_id = $1 AND athlete_id = $2`, groupID, athleteID)
	if err != nil {
		return fmt.Errorf("failed to delete group athlete: %w", err)
	}
	return checkAffectedRows(result, ErrGroupAthleteNotFound)
}

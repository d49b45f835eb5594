package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/lib/pq"
)

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

const categoryColumns = `id, name, type, gender, min_age, max_age, min_weight, max_weight, is_active, created_at`

func scanCategory(s rowScanner, c *models.Category) error {
	return s.Scan(&c.ID, &c.Name, &c.Type, &c.Gender, &c.MinAge, &c.MaxAge,
		&c.MinWeight, &c.MaxWeight, &c.IsActive, &c.CreatedAt)
}

func (r *postgresCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, type, gender, min_age, max_age, min_weight, max_weight, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Type, c.Gender, c.MinAge, c.MaxAge, c.MinWeight, c.MaxWeight, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	c := &models.Category{}
	err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id), c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := scanCategory(rows, c); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories SET name = $1, type = $2, gender = $3, min_age = $4, max_age = $5,
			min_weight = $6, max_weight = $7, is_active = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.Type, c.Gender, c.MinAge, c.MaxAge, c.MinWeight, c.MaxWeight, c.IsActive, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	return checkAffectedRows(result, ErrCategoryNotFound)
}

func (r *postgresCategoryRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return checkAffectedRows(result, ErrCategoryNotFound)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) Create(ctx context.Context, res *models.Result) error {
	query := `
		INSERT INTO results (category_id, athlete_id, place, medal)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, res.CategoryID, res.AthleteID, res.Place, res.Medal).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrResultConflict
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "results_category_id_fkey" {
					return ErrCategoryNotFound
				}
				return ErrAthleteNotFound
			}
		}
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

func (r *postgresResultRepository) List(ctx context.Context, categoryID *int) ([]*models.Result, error) {
	query := `SELECT id, category_id, athlete_id, place, medal, created_at FROM results`
	args := []interface{}{}
	if categoryID != nil {
		query += ` WHERE category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY place ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.Result, 0)
	for rows.Next() {
		res := &models.Result{}
		if err := rows.Scan(&res.ID, &res.CategoryID, &res.AthleteID, &res.Place, &res.Medal, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/lib/pq"
)

type postgresHierarchyRepository struct {
	db *sql.DB
}

func NewPostgresHierarchyRepository(db *sql.DB) HierarchyRepository {
	return &postgresHierarchyRepository{db: db}
}

func (r *postgresHierarchyRepository) CreateMain(ctx context.Context, m *models.MainCategory) error {
	query := `INSERT INTO main_categories (name, description) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, m.Name, m.Description).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create main category: %w", err)
	}
	return nil
}

func (r *postgresHierarchyRepository) GetMain(ctx context.Context, id int) (*models.MainCategory, error) {
	m := &models.MainCategory{}
	query := `SELECT id, name, description, created_at FROM main_categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMainCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get main category %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresHierarchyRepository) ListMain(ctx context.Context) ([]*models.MainCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM main_categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list main categories: %w", err)
	}
	defer rows.Close()

	mains := make([]*models.MainCategory, 0)
	for rows.Next() {
		m := &models.MainCategory{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan main category row: %w", err)
		}
		mains = append(mains, m)
	}
	return mains, rows.Err()
}

func (r *postgresHierarchyRepository) DeleteMain(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM main_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete main category: %w", err)
	}
	return checkAffectedRows(result, ErrMainCategoryNotFound)
}

func (r *postgresHierarchyRepository) CreateSub(ctx context.Context, s *models.SubCategory) error {
	query := `
		INSERT INTO sub_categories (main_category_id, name, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, s.MainCategoryID, s.Name, s.Order).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrMainCategoryNotFound
		}
		return fmt.Errorf("failed to create sub category: %w", err)
	}
	return nil
}

func (r *postgresHierarchyRepository) GetSub(ctx context.Context, id int) (*models.SubCategory, error) {
	s := &models.SubCategory{}
	query := `SELECT id, main_category_id, name, sort_order, created_at FROM sub_categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.MainCategoryID, &s.Name, &s.Order, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get sub category %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresHierarchyRepository) ListSubs(ctx context.Context, mainID *int) ([]*models.SubCategory, error) {
	query := `SELECT id, main_category_id, name, sort_order, created_at FROM sub_categories`
	args := []interface{}{}
	if mainID != nil {
		query += ` WHERE main_category_id = $1`
		args = append(args, *mainID)
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub categories: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.SubCategory, 0)
	for rows.Next() {
		s := &models.SubCategory{}
		if err := rows.Scan(&s.ID, &s.MainCategoryID, &s.Name, &s.Order, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub category row: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *postgresHierarchyRepository) DeleteSub(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sub_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sub category: %w", err)
	}
	return checkAffectedRows(result, ErrSubCategoryNotFound)
}

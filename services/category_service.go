package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
)

// CategoryService - плоские категории (кёруги/пумсэ) и итоговые результаты.
type CategoryService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*models.Category, error)
	SetCategoryActive(ctx context.Context, id int, active bool) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error

	RecordResult(ctx context.Context, categoryID int, input RecordResultInput) (*models.Result, error)
	ListResults(ctx context.Context, categoryID int) ([]*models.Result, error)
}

type CreateCategoryInput struct {
	Name      string              `json:"name"`
	Type      models.CategoryType `json:"type"`
	Gender    *string             `json:"gender,omitempty"`
	MinAge    *int                `json:"min_age,omitempty"`
	MaxAge    *int                `json:"max_age,omitempty"`
	MinWeight *float64            `json:"min_weight,omitempty"`
	MaxWeight *float64            `json:"max_weight,omitempty"`
	IsActive  *bool               `json:"is_active,omitempty"`
}

type RecordResultInput struct {
	AthleteID int `json:"athlete_id"`
	Place     int `json:"place"`
}

type categoryService struct {
	store    *repositories.Store
	coord    *Coordinator
	notifier Notifier
	logger   *slog.Logger
}

// coord должен быть тем же, что у AthleteService.
func NewCategoryService(store *repositories.Store, coord *Coordinator, notifier Notifier, logger *slog.Logger) CategoryService {
	return &categoryService{store: store, coord: coord, notifier: notifierOrNop(notifier), logger: logger}
}

func (s *categoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
	}
	if input.Type == "" {
		input.Type = models.CategoryKyorugi
	}
	if input.Type != models.CategoryKyorugi && input.Type != models.CategoryPoomsae {
		return nil, validationError("category type must be kyorugi or poomsae, got %q", input.Type)
	}
	if input.MinAge != nil && input.MaxAge != nil && *input.MinAge > *input.MaxAge {
		return nil, validationError("min_age must not exceed max_age")
	}
	if input.MinWeight != nil && input.MaxWeight != nil && *input.MinWeight > *input.MaxWeight {
		return nil, validationError("min_weight must not exceed max_weight")
	}

	category := &models.Category{
		Name:      name,
		Type:      input.Type,
		MinAge:    input.MinAge,
		MaxAge:    input.MaxAge,
		MinWeight: input.MinWeight,
		MaxWeight: input.MaxWeight,
		IsActive:  true,
	}
	if g := trimmedPtr(input.Gender); g != nil {
		gender, err := normalizeGender(*g)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		category.Gender = &gender
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.notifier.Publish(EventCategoryCreated, category)
	return category, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	categories, err := s.store.Categories.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) SetCategoryActive(ctx context.Context, id int, active bool) (*models.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	category.IsActive = active
	if err := s.store.Categories.Update(ctx, category); err != nil {
		return nil, handleRepositoryError(err)
	}
	return category, nil
}

// DeleteCategory запрещено, пока к категории привязаны спортсмены или результаты.
func (s *categoryService) DeleteCategory(ctx context.Context, id int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Categories.GetByID(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	athletes, err := s.store.Athletes.List(ctx, repositories.AthleteFilter{CategoryID: &id})
	if err != nil {
		return fmt.Errorf("failed to check athletes of category %d: %w", id, err)
	}
	results, err := s.store.Results.List(ctx, &id)
	if err != nil {
		return fmt.Errorf("failed to check results of category %d: %w", id, err)
	}
	if len(athletes) > 0 || len(results) > 0 {
		return ErrCategoryInUse
	}
	if err := s.store.Categories.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	return nil
}

func (s *categoryService) RecordResult(ctx context.Context, categoryID int, input RecordResultInput) (*models.Result, error) {
	if input.Place < 1 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrInvalidPlace)
	}

	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Categories.GetByID(ctx, categoryID); err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := s.store.Athletes.GetByID(ctx, input.AthleteID); err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, validationError("athlete %d does not exist", input.AthleteID)
		}
		return nil, fmt.Errorf("failed to check athlete: %w", err)
	}

	result := &models.Result{
		CategoryID: categoryID,
		AthleteID:  input.AthleteID,
		Place:      input.Place,
		Medal:      medalForPlace(input.Place),
	}
	if err := s.store.Results.Create(ctx, result); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "result recorded",
		slog.Int("category_id", categoryID),
		slog.Int("athlete_id", input.AthleteID),
		slog.Int("place", input.Place))
	s.notifier.Publish(EventResultRecorded, result)
	return result, nil
}

func (s *categoryService) ListResults(ctx context.Context, categoryID int) ([]*models.Result, error) {
	if _, err := s.store.Categories.GetByID(ctx, categoryID); err != nil {
		return nil, handleRepositoryError(err)
	}
	results, err := s.store.Results.List(ctx, &categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

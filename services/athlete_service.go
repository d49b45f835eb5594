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

// AthleteService - регистрация, посещаемость и трекер статусов (анти-клэш).
type AthleteService interface {
	CreateAthlete(ctx context.Context, input CreateAthleteInput) (*models.Athlete, error)
	GetAthlete(ctx context.Context, id int) (*models.Athlete, error)
	ListAthletes(ctx context.Context, filter repositories.AthleteFilter) ([]*models.Athlete, error)
	UpdateAthlete(ctx context.Context, id int, input UpdateAthleteInput) (*models.Athlete, error)
	DeleteAthlete(ctx context.Context, id int) error

	SetAttendance(ctx context.Context, id int, isPresent bool) (*models.Athlete, error)
	SetStatus(ctx context.Context, id int, status models.AthleteStatus, ring *string) (*models.Athlete, error)
	ListCompeting(ctx context.Context) ([]*models.Athlete, error)
	ListAvailable(ctx context.Context) ([]*models.Athlete, error)
	StatusHistory(ctx context.Context, id int) ([]*models.StatusChange, error)
}

type CreateAthleteInput struct {
	Name          string  `json:"name"`
	Gender        string  `json:"gender"`
	BirthDate     string  `json:"birth_date,omitempty"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	Belt          string  `json:"belt"`
	Dojang        string  `json:"dojang"`
	CategoryID    *int    `json:"category_id,omitempty"`
	CompetitionID string  `json:"competition_id,omitempty"`
	IsPresent     bool    `json:"is_present"`
}

// UpdateAthleteInput - частичное обновление профиля; nil поля не меняются.
type UpdateAthleteInput struct {
	Name       *string  `json:"name,omitempty"`
	Gender     *string  `json:"gender,omitempty"`
	BirthDate  *string  `json:"birth_date,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Belt       *string  `json:"belt,omitempty"`
	Dojang     *string  `json:"dojang,omitempty"`
	CategoryID *int     `json:"category_id,omitempty"`
}

type athleteService struct {
	store    *repositories.Store
	coord    *Coordinator
	tracker  *statusTracker
	notifier Notifier
	logger   *slog.Logger
}

func NewAthleteService(store *repositories.Store, coord *Coordinator, notifier Notifier, logger *slog.Logger) AthleteService {
	notifier = notifierOrNop(notifier)
	return &athleteService{
		store:    store,
		coord:    coord,
		tracker:  newStatusTracker(store.Athletes, notifier, logger),
		notifier: notifier,
		logger:   logger,
	}
}

func (s *athleteService) validateCategory(ctx context.Context, categoryID *int) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.store.Categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return validationError("category %d does not exist", *categoryID)
		}
		return fmt.Errorf("failed to check category %d: %w", *categoryID, err)
	}
	return nil
}

func (s *athleteService) CreateAthlete(ctx context.Context, input CreateAthleteInput) (*models.Athlete, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
	}
	gender, err := normalizeGender(input.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if input.Weight < 0 || input.Height < 0 {
		return nil, validationError("weight and height must not be negative")
	}
	birthDate, err := parseBirthDate(input.BirthDate)
	if err != nil {
		return nil, err
	}

	s.coord.Lock()
	defer s.coord.Unlock()

	if err := s.validateCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	athlete := &models.Athlete{
		Name:          name,
		Gender:        gender,
		BirthDate:     birthDate,
		Weight:        input.Weight,
		Height:        input.Height,
		Belt:          strings.TrimSpace(input.Belt),
		Dojang:        strings.TrimSpace(input.Dojang),
		CategoryID:    input.CategoryID,
		CompetitionID: strings.TrimSpace(input.CompetitionID),
		IsPresent:     input.IsPresent,
		Status:        models.AthleteAvailable,
	}
	if err := s.store.Athletes.Create(ctx, athlete); err != nil {
		return nil, fmt.Errorf("failed to create athlete: %w", err)
	}

	s.logger.InfoContext(ctx, "athlete created", slog.Int("athlete_id", athlete.ID), slog.String("name", athlete.Name))
	s.notifier.Publish(EventAthleteCreated, athlete)
	return athlete, nil
}

func (s *athleteService) GetAthlete(ctx context.Context, id int) (*models.Athlete, error) {
	athlete, err := s.store.Athletes.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return athlete, nil
}

func (s *athleteService) ListAthletes(ctx context.Context, filter repositories.AthleteFilter) ([]*models.Athlete, error) {
	athletes, err := s.store.Athletes.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	return athletes, nil
}

func (s *athleteService) UpdateAthlete(ctx context.Context, id int, input UpdateAthleteInput) (*models.Athlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	athlete, err := s.store.Athletes.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
		}
		athlete.Name = name
	}
	if input.Gender != nil {
		gender, err := normalizeGender(*input.Gender)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		athlete.Gender = gender
	}
	if input.BirthDate != nil {
		birthDate, err := parseBirthDate(*input.BirthDate)
		if err != nil {
			return nil, err
		}
		athlete.BirthDate = birthDate
	}
	if input.Weight != nil {
		if *input.Weight < 0 {
			return nil, validationError("weight must not be negative")
		}
		athlete.Weight = *input.Weight
	}
	if input.Height != nil {
		if *input.Height < 0 {
			return nil, validationError("height must not be negative")
		}
		athlete.Height = *input.Height
	}
	if input.Belt != nil {
		athlete.Belt = strings.TrimSpace(*input.Belt)
	}
	if input.Dojang != nil {
		athlete.Dojang = strings.TrimSpace(*input.Dojang)
	}
	if input.CategoryID != nil {
		if err := s.validateCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		athlete.CategoryID = input.CategoryID
	}

	if err := s.store.Athletes.Update(ctx, athlete); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.notifier.Publish(EventAthleteUpdated, athlete)
	return athlete, nil
}

// DeleteAthlete - явное удаление администратором. Соревнующегося спортсмена
// и спортсмена с историей матчей/результатов удалить нельзя.
func (s *athleteService) DeleteAthlete(ctx context.Context, id int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	athlete, err := s.store.Athletes.GetByID(ctx, id)
	if err != nil {
		return handleRepositoryError(err)
	}
	if athlete.Status == models.AthleteCompeting {
		return ErrAthleteBusy
	}

	matches, err := s.store.Matches.List(ctx, repositories.MatchFilter{AthleteID: &id})
	if err != nil {
		return fmt.Errorf("failed to check matches for athlete %d: %w", id, err)
	}
	if len(matches) > 0 {
		return ErrAthleteReferenced
	}
	results, err := s.store.Results.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to check results for athlete %d: %w", id, err)
	}
	for _, r := range results {
		if r.AthleteID == id {
			return ErrAthleteReferenced
		}
	}

	members, err := s.store.Groups.ListAllMembers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list group memberships: %w", err)
	}
	for _, m := range members {
		if m.AthleteID != id {
			continue
		}
		if err := s.store.Groups.DeleteMember(ctx, m.GroupID, id); err != nil {
			return handleRepositoryError(err)
		}
		if _, err := recountGroup(ctx, s.store.Groups, m.GroupID); err != nil {
			return err
		}
	}

	if err := s.store.Athletes.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "athlete deleted", slog.Int("athlete_id", id))
	s.notifier.Publish(EventAthleteDeleted, map[string]int{"athlete_id": id})
	return nil
}

// SetAttendance не освобождает спортсмена, отмеченного отсутствующим во время боя.
func (s *athleteService) SetAttendance(ctx context.Context, id int, isPresent bool) (*models.Athlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	athlete, err := s.store.Athletes.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	athlete.IsPresent = isPresent
	if err := s.store.Athletes.Update(ctx, athlete); err != nil {
		return nil, handleRepositoryError(err)
	}
	if !isPresent && athlete.Status == models.AthleteCompeting {
		s.logger.WarnContext(ctx, "athlete marked absent while competing",
			slog.Int("athlete_id", id), slog.String("ring", derefString(athlete.Ring)))
	}
	s.notifier.Publish(EventAttendanceUpdated, athlete)
	return athlete, nil
}

func (s *athleteService) SetStatus(ctx context.Context, id int, status models.AthleteStatus, ring *string) (*models.Athlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	athlete, err := s.store.Athletes.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	// угол активного матча остаётся competing на ринге матча до объявления победителя
	active := models.MatchActive
	matches, err := s.store.Matches.List(ctx, repositories.MatchFilter{Status: &active, AthleteID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches of athlete %d: %w", id, err)
	}
	for _, m := range matches {
		if status != models.AthleteCompeting || ring == nil || strings.TrimSpace(*ring) != m.Ring {
			return nil, fmt.Errorf("%w: athlete %d is in active match %d on ring %s", ErrAthleteBusy, id, m.ID, m.Ring)
		}
	}
	return s.tracker.apply(ctx, athlete, status, ring)
}

func (s *athleteService) ListCompeting(ctx context.Context) ([]*models.Athlete, error) {
	status := models.AthleteCompeting
	return s.ListAthletes(ctx, repositories.AthleteFilter{Status: &status})
}

// ListAvailable - кого можно вызывать дальше: свободен И присутствует.
func (s *athleteService) ListAvailable(ctx context.Context) ([]*models.Athlete, error) {
	status := models.AthleteAvailable
	present := true
	return s.ListAthletes(ctx, repositories.AthleteFilter{Status: &status, IsPresent: &present})
}

func (s *athleteService) StatusHistory(ctx context.Context, id int) ([]*models.StatusChange, error) {
	changes, err := s.store.Athletes.ListStatusChanges(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return changes, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
)

// MatchService - жизненный цикл боя: создание (с анти-клэш проверкой) и
// объявление победителя (с освобождением обоих углов).
type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	DeclareWinner(ctx context.Context, matchID, winnerID int) (*models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error)
	ListActiveByRing(ctx context.Context, ring string) ([]*models.Match, error)
}

type CreateMatchInput struct {
	GroupID       *int   `json:"group_id,omitempty"`
	RedAthleteID  int    `json:"red_athlete_id"`
	BlueAthleteID int    `json:"blue_athlete_id"`
	Ring          string `json:"ring"`
	Round         int    `json:"round"`
	MatchType     string `json:"match_type"`
}

type matchService struct {
	store    *repositories.Store
	coord    *Coordinator
	tracker  *statusTracker
	notifier Notifier
	logger   *slog.Logger
}

func NewMatchService(store *repositories.Store, coord *Coordinator, notifier Notifier, logger *slog.Logger) MatchService {
	notifier = notifierOrNop(notifier)
	return &matchService{
		store:    store,
		coord:    coord,
		tracker:  newStatusTracker(store.Athletes, notifier, logger),
		notifier: notifier,
		logger:   logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	ring := strings.TrimSpace(input.Ring)
	if ring == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrRingRequired)
	}
	if input.RedAthleteID == input.BlueAthleteID {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrSameAthlete)
	}
	if input.Round == 0 {
		input.Round = 1
	}
	if input.Round < 1 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrInvalidRound)
	}

	s.coord.Lock()
	defer s.coord.Unlock()

	if input.GroupID != nil {
		if _, err := s.store.Groups.GetByID(ctx, *input.GroupID); err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				return nil, validationError("athlete group %d does not exist", *input.GroupID)
			}
			return nil, fmt.Errorf("failed to check group: %w", err)
		}
	}

	red, err := s.loadCorner(ctx, input.RedAthleteID)
	if err != nil {
		return nil, err
	}
	blue, err := s.loadCorner(ctx, input.BlueAthleteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	match := &models.Match{
		GroupID:       input.GroupID,
		RedAthleteID:  red.ID,
		BlueAthleteID: blue.ID,
		Ring:          ring,
		Round:         input.Round,
		MatchType:     strings.TrimSpace(input.MatchType),
		Status:        models.MatchActive,
		StartTime:     &now,
	}
	if err := s.store.Matches.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	redStatus, redRing := red.Status, red.Ring
	if _, err := s.tracker.apply(ctx, red, models.AthleteCompeting, &ring); err != nil {
		s.rollbackMatch(ctx, match.ID)
		return nil, fmt.Errorf("failed to mark red athlete %d competing: %w", red.ID, err)
	}
	if _, err := s.tracker.apply(ctx, blue, models.AthleteCompeting, &ring); err != nil {
		if _, rbErr := s.tracker.apply(ctx, red, redStatus, redRing); rbErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back red athlete status",
				slog.Int("athlete_id", red.ID), slog.Any("error", rbErr))
		}
		s.rollbackMatch(ctx, match.ID)
		return nil, fmt.Errorf("failed to mark blue athlete %d competing: %w", blue.ID, err)
	}

	s.logger.InfoContext(ctx, "match created",
		slog.Int("match_id", match.ID),
		slog.Int("red_athlete_id", match.RedAthleteID),
		slog.Int("blue_athlete_id", match.BlueAthleteID),
		slog.String("ring", match.Ring))
	s.notifier.Publish(EventMatchCreated, match)
	return match, nil
}

// loadCorner проверяет, что спортсмен существует и не занят другим боем.
func (s *matchService) loadCorner(ctx context.Context, athleteID int) (*models.Athlete, error) {
	athlete, err := s.store.Athletes.GetByID(ctx, athleteID)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, validationError("athlete %d does not exist", athleteID)
		}
		return nil, fmt.Errorf("failed to load athlete %d: %w", athleteID, err)
	}
	if athlete.Status == models.AthleteCompeting {
		return nil, fmt.Errorf("%w: athlete %d is on ring %s", ErrAthleteBusy, athleteID, derefString(athlete.Ring))
	}
	active, err := s.activeMatchesOf(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, fmt.Errorf("%w: athlete %d is in active match %d", ErrAthleteBusy, athleteID, active[0].ID)
	}
	return athlete, nil
}

func (s *matchService) activeMatchesOf(ctx context.Context, athleteID int) ([]*models.Match, error) {
	status := models.MatchActive
	matches, err := s.store.Matches.List(ctx, repositories.MatchFilter{Status: &status, AthleteID: &athleteID})
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches of athlete %d: %w", athleteID, err)
	}
	return matches, nil
}

func (s *matchService) rollbackMatch(ctx context.Context, matchID int) {
	if err := s.store.Matches.Delete(ctx, matchID); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back match", slog.Int("match_id", matchID), slog.Any("error", err))
	}
}

func (s *matchService) DeclareWinner(ctx context.Context, matchID, winnerID int) (*models.Match, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	match, err := s.store.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if match.Status == models.MatchCompleted {
		// повторный вызов: никто не должен остаться "competing" из-за этого боя
		if err := s.releaseCorners(ctx, match, false); err != nil {
			s.logger.ErrorContext(ctx, "failed to release corners of completed match",
				slog.Int("match_id", matchID), slog.Any("error", err))
		}
		return nil, ErrMatchCompleted
	}
	if !match.HasCorner(winnerID) {
		s.logger.WarnContext(ctx, "winner is not a corner of the match",
			slog.Int("match_id", matchID), slog.Int("winner_id", winnerID))
	}

	prev := *match
	now := time.Now().UTC()
	match.WinnerID = &winnerID
	match.Status = models.MatchCompleted
	match.EndTime = &now
	if err := s.store.Matches.Update(ctx, match); err != nil {
		return nil, handleRepositoryError(err)
	}

	if err := s.releaseCorners(ctx, match, true); err != nil {
		if rbErr := s.store.Matches.Update(ctx, &prev); rbErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back match", slog.Int("match_id", matchID), slog.Any("error", rbErr))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "winner declared", slog.Int("match_id", matchID), slog.Int("winner_id", winnerID))
	s.notifier.Publish(EventWinnerDeclared, match)
	return match, nil
}

// releaseCorners возвращает углы завершённого боя в "available", если у них
// нет другого активного боя. Без all трогаются только застрявшие в "competing".
func (s *matchService) releaseCorners(ctx context.Context, match *models.Match, all bool) error {
	for _, id := range []int{match.RedAthleteID, match.BlueAthleteID} {
		athlete, err := s.store.Athletes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrAthleteNotFound) {
				continue
			}
			return fmt.Errorf("failed to load athlete %d: %w", id, err)
		}
		if athlete.Status == models.AthleteAvailable || (!all && athlete.Status != models.AthleteCompeting) {
			continue
		}
		active, err := s.activeMatchesOf(ctx, id)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			continue
		}
		if _, err := s.tracker.apply(ctx, athlete, models.AthleteAvailable, nil); err != nil {
			return fmt.Errorf("failed to release athlete %d: %w", id, err)
		}
	}
	return nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.store.Matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error) {
	matches, err := s.store.Matches.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListActiveByRing(ctx context.Context, ring string) ([]*models.Match, error) {
	ring = strings.TrimSpace(ring)
	status := models.MatchActive
	return s.ListMatches(ctx, repositories.MatchFilter{Status: &status, Ring: &ring})
}

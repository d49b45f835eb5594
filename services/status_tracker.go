package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
)

// statusTracker - единственное место, где меняются Status и Ring спортсмена.
// Вызывающий обязан держать Coordinator.Lock.
type statusTracker struct {
	athletes repositories.AthleteRepository
	notifier Notifier
	logger   *slog.Logger
}

func newStatusTracker(athletes repositories.AthleteRepository, notifier Notifier, logger *slog.Logger) *statusTracker {
	return &statusTracker{athletes: athletes, notifier: notifierOrNop(notifier), logger: logger}
}

func (t *statusTracker) apply(ctx context.Context, athlete *models.Athlete, status models.AthleteStatus, ring *string) (*models.Athlete, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrValidationFailed, ErrInvalidStatus, status)
	}

	var newRing *string
	if status == models.AthleteCompeting {
		if ring == nil || strings.TrimSpace(*ring) == "" {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrRingRequired)
		}
		r := strings.TrimSpace(*ring)
		// одно и то же место - идемпотентно, другой ринг - клэш
		if athlete.Status == models.AthleteCompeting && athlete.Ring != nil && *athlete.Ring != r {
			return nil, fmt.Errorf("%w: athlete %d is on ring %s", ErrAthleteBusy, athlete.ID, *athlete.Ring)
		}
		newRing = &r
	}

	prevStatus, prevRing := athlete.Status, athlete.Ring
	athlete.Status = status
	athlete.Ring = newRing
	if err := t.athletes.Update(ctx, athlete); err != nil {
		athlete.Status, athlete.Ring = prevStatus, prevRing
		return nil, handleRepositoryError(err)
	}

	if prevStatus != status || !sameRing(prevRing, newRing) {
		change := &models.StatusChange{AthleteID: athlete.ID, From: prevStatus, To: status, Ring: newRing}
		if err := t.athletes.AppendStatusChange(ctx, change); err != nil {
			t.logger.ErrorContext(ctx, "failed to append status change",
				slog.Int("athlete_id", athlete.ID), slog.Any("error", err))
		}
	}

	t.logger.InfoContext(ctx, "athlete status updated",
		slog.Int("athlete_id", athlete.ID),
		slog.String("from", string(prevStatus)),
		slog.String("to", string(status)),
		slog.String("ring", derefString(newRing)))
	t.notifier.Publish(EventStatusUpdated, athlete)
	return athlete, nil
}

package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tkd-tournament/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed  = errors.New("validation failed")
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidGender     = errors.New("gender must be M or F")
	ErrInvalidStatus     = errors.New("invalid athlete status")
	ErrRingRequired      = errors.New("ring is required when status is competing")
	ErrInvalidPosition   = errors.New("position must be red, blue or queue")
	ErrInvalidQueueOrder = errors.New("queue order must be positive")
	ErrSameAthlete       = errors.New("red and blue corners must be different athletes")
	ErrInvalidRound      = errors.New("round must be at least 1")
	ErrInvalidPlace      = errors.New("place must be at least 1")

	// Конфликты состояния
	ErrAthleteBusy           = errors.New("athlete is already competing")
	ErrAthleteReferenced     = errors.New("athlete is referenced by matches or results")
	ErrAthleteAlreadyInGroup = errors.New("athlete is already in this group")
	ErrAthleteEliminated     = errors.New("athlete is already eliminated from this group")
	ErrSlotOccupied          = errors.New("corner is already occupied")
	ErrQueueOrderTaken       = errors.New("queue order is already taken")
	ErrGroupFull             = errors.New("athlete group is full")
	ErrMatchCompleted        = errors.New("match is already completed")
	ErrCategoryInUse         = errors.New("category still has children")
	ErrResultConflict        = errors.New("result already recorded for this athlete")

	// Ошибки, специфичные для сущностей
	ErrAthleteNotFound      = errors.New("athlete not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrMainCategoryNotFound = errors.New("main category not found")
	ErrSubCategoryNotFound  = errors.New("sub category not found")
	ErrGroupNotFound        = errors.New("athlete group not found")
	ErrGroupAthleteNotFound = errors.New("athlete is not a member of this group")
	ErrMatchNotFound        = errors.New("match not found")

	// Внешняя синхронизация и архив
	ErrExternalSync    = errors.New("external sync failed")
	ErrSyncDisabled    = errors.New("external sync is not configured")
	ErrArchiveDisabled = errors.New("snapshot archive is not configured")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrAthleteNotFound):
		return ErrAthleteNotFound
	case errors.Is(err, repositories.ErrAthleteReferenced):
		return ErrAthleteReferenced
	case errors.Is(err, repositories.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repositories.ErrMainCategoryNotFound):
		return ErrMainCategoryNotFound
	case errors.Is(err, repositories.ErrSubCategoryNotFound):
		return ErrSubCategoryNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrGroupAthleteNotFound):
		return ErrGroupAthleteNotFound
	case errors.Is(err, repositories.ErrGroupAthleteConflict):
		return ErrAthleteAlreadyInGroup
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrResultConflict):
		return ErrResultConflict
	default:
		return err
	}
}

package services

import (
	"strings"
	"time"

	"github.com/Dosada05/tkd-tournament/models"
)

const birthDateLayout = "2006-01-02"

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeGender(g string) (models.Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(g)) {
	case "M":
		return models.GenderMale, nil
	case "F":
		return models.GenderFemale, nil
	default:
		return "", ErrInvalidGender
	}
}

func parseBirthDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return nil, validationError("birth_date must be in YYYY-MM-DD format, got %q", s)
	}
	return &t, nil
}

func sameRing(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func medalForPlace(place int) models.Medal {
	switch place {
	case 1:
		return models.MedalGold
	case 2:
		return models.MedalSilver
	case 3:
		return models.MedalBronze
	default:
		return ""
	}
}

package models

import "time"

// AthleteStatus отражает текущее участие спортсмена в турнире.
type AthleteStatus string

const (
	AthleteAvailable  AthleteStatus = "available"
	AthleteCompeting  AthleteStatus = "competing"
	AthleteEliminated AthleteStatus = "eliminated"
	AthleteAbsent     AthleteStatus = "absent"
)

func (s AthleteStatus) Valid() bool {
	switch s {
	case AthleteAvailable, AthleteCompeting, AthleteEliminated, AthleteAbsent:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Athlete - зарегистрированный спортсмен. Status и Ring - единственный
// источник правды для анти-клэш логики.
type Athlete struct {
	ID            int           `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Gender        Gender        `json:"gender" db:"gender"`
	BirthDate     *time.Time    `json:"birth_date,omitempty" db:"birth_date"`
	Weight        float64       `json:"weight" db:"weight"`
	Height        float64       `json:"height" db:"height"`
	Belt          string        `json:"belt" db:"belt"`
	Dojang        string        `json:"dojang" db:"dojang"`
	CategoryID    *int          `json:"category_id,omitempty" db:"category_id"`
	CompetitionID string        `json:"competition_id,omitempty" db:"competition_id"`
	IsPresent     bool          `json:"is_present" db:"is_present"`
	Status        AthleteStatus `json:"status" db:"status"`
	Ring          *string       `json:"ring,omitempty" db:"ring"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// StatusChange - запись журнала смены статусов (только для чтения).
type StatusChange struct {
	ID        int           `json:"id" db:"id"`
	AthleteID int           `json:"athlete_id" db:"athlete_id"`
	From      AthleteStatus `json:"from" db:"from_status"`
	To        AthleteStatus `json:"to" db:"to_status"`
	Ring      *string       `json:"ring,omitempty" db:"ring"`
	At        time.Time     `json:"at" db:"changed_at"`
}

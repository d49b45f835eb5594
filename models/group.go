package models

import "time"

// Position - место спортсмена в группе: красный угол, синий угол или очередь.
type Position string

const (
	PositionRed   Position = "red"
	PositionBlue  Position = "blue"
	PositionQueue Position = "queue"
)

func (p Position) Valid() bool {
	return p == PositionRed || p == PositionBlue || p == PositionQueue
}

// AthleteGroup - один "партай" внутри подкатегории.
// CurrentCount всегда равен числу не выбывших участников.
type AthleteGroup struct {
	ID            int       `json:"id" db:"id"`
	SubCategoryID int       `json:"sub_category_id" db:"sub_category_id"`
	Name          string    `json:"name" db:"name"`
	MatchNumber   int       `json:"match_number" db:"match_number"`
	MinAthletes   int       `json:"min_athletes" db:"min_athletes"`
	MaxAthletes   int       `json:"max_athletes" db:"max_athletes"`
	CurrentCount  int       `json:"current_count" db:"current_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type GroupAthlete struct {
	ID           int        `json:"id" db:"id"`
	GroupID      int        `json:"group_id" db:"group_id"`
	AthleteID    int        `json:"athlete_id" db:"athlete_id"`
	Position     Position   `json:"position" db:"position"`
	QueueOrder   int        `json:"queue_order" db:"queue_order"`
	IsEliminated bool       `json:"is_eliminated" db:"is_eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty" db:"eliminated_at"`
	HasMedal     bool       `json:"has_medal" db:"has_medal"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
}

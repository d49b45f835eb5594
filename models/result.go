package models

import "time"

type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

type Result struct {
	ID         int       `json:"id" db:"id"`
	CategoryID int       `json:"category_id" db:"category_id"`
	AthleteID  int       `json:"athlete_id" db:"athlete_id"`
	Place      int       `json:"place" db:"place"`
	Medal      Medal     `json:"medal,omitempty" db:"medal"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

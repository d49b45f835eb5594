package models

import "time"

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

type Match struct {
	ID            int         `json:"id" db:"id"`
	GroupID       *int        `json:"group_id,omitempty" db:"group_id"`
	RedAthleteID  int         `json:"red_athlete_id" db:"red_athlete_id"`
	BlueAthleteID int         `json:"blue_athlete_id" db:"blue_athlete_id"`
	Ring          string      `json:"ring" db:"ring"`
	Round         int         `json:"round" db:"round"`
	MatchType     string      `json:"match_type" db:"match_type"`
	Status        MatchStatus `json:"status" db:"status"`
	WinnerID      *int        `json:"winner_id,omitempty" db:"winner_id"`
	StartTime     *time.Time  `json:"start_time,omitempty" db:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty" db:"end_time"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// HasCorner сообщает, стоит ли спортсмен в одном из углов матча.
func (m *Match) HasCorner(athleteID int) bool {
	return m.RedAthleteID == athleteID || m.BlueAthleteID == athleteID
}

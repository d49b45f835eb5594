package models

type DashboardStats struct {
	TotalAthletes     int `json:"total_athletes"`
	ActiveCategories  int `json:"active_categories"`
	ActiveMatches     int `json:"active_matches"`
	CompletedMatches  int `json:"completed_matches"`
	PresentAthletes   int `json:"present_athletes"`
	AvailableAthletes int `json:"available_athletes"`
	CompetingAthletes int `json:"competing_athletes"`
}

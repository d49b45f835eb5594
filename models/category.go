package models

import "time"

type CategoryType string

const (
	CategoryKyorugi CategoryType = "kyorugi"
	CategoryPoomsae CategoryType = "poomsae"
)

// Category - плоская (старая) категория, к которой привязываются спортсмены и результаты.
type Category struct {
	ID        int          `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Type      CategoryType `json:"type" db:"type"`
	Gender    *Gender      `json:"gender,omitempty" db:"gender"`
	MinAge    *int         `json:"min_age,omitempty" db:"min_age"`
	MaxAge    *int         `json:"max_age,omitempty" db:"max_age"`
	MinWeight *float64     `json:"min_weight,omitempty" db:"min_weight"`
	MaxWeight *float64     `json:"max_weight,omitempty" db:"max_weight"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

type MainCategory struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type SubCategory struct {
	ID             int       `json:"id" db:"id"`
	MainCategoryID int       `json:"main_category_id" db:"main_category_id"`
	Name           string    `json:"name" db:"name"`
	Order          int       `json:"order" db:"sort_order"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

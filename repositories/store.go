package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/tkd-tournament/models"
)

var (
	ErrAthleteNotFound      = errors.New("athlete not found")
	ErrAthleteReferenced    = errors.New("athlete is referenced by matches or results")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrMainCategoryNotFound = errors.New("main category not found")
	ErrSubCategoryNotFound  = errors.New("sub category not found")
	ErrGroupNotFound        = errors.New("athlete group not found")
	ErrGroupAthleteNotFound = errors.New("athlete is not a member of this group")
	ErrGroupAthleteConflict = errors.New("athlete already has a record in this group")
	ErrMatchNotFound        = errors.New("match not found")
	ErrResultConflict       = errors.New("result already recorded for this athlete in this category")
)

type AthleteFilter struct {
	CategoryID    *int
	Status        *models.AthleteStatus
	IsPresent     *bool
	Gender        *models.Gender
	CompetitionID *string
}

type AthleteRepository interface {
	Create(ctx context.Context, a *models.Athlete) error
	GetByID(ctx context.Context, id int) (*models.Athlete, error)
	List(ctx context.Context, filter AthleteFilter) ([]*models.Athlete, error)
	Update(ctx context.Context, a *models.Athlete) error
	Delete(ctx context.Context, id int) error
	AppendStatusChange(ctx context.Context, c *models.StatusChange) error
	ListStatusChanges(ctx context.Context, athleteID int) ([]*models.StatusChange, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int) error
}

// HierarchyRepository хранит основные категории и подкатегории.
type HierarchyRepository interface {
	CreateMain(ctx context.Context, m *models.MainCategory) error
	GetMain(ctx context.Context, id int) (*models.MainCategory, error)
	ListMain(ctx context.Context) ([]*models.MainCategory, error)
	DeleteMain(ctx context.Context, id int) error

	CreateSub(ctx context.Context, s *models.SubCategory) error
	GetSub(ctx context.Context, id int) (*models.SubCategory, error)
	// ListSubs returns sub categories sorted by Order, then ID. nil mainID lists all.
	ListSubs(ctx context.Context, mainID *int) ([]*models.SubCategory, error)
	DeleteSub(ctx context.Context, id int) error
}

type GroupRepository interface {
	Create(ctx context.Context, g *models.AthleteGroup) error
	GetByID(ctx context.Context, id int) (*models.AthleteGroup, error)
	List(ctx context.Context, subCategoryID *int) ([]*models.AthleteGroup, error)
	UpdateCount(ctx context.Context, id int, count int) error
	// Delete removes the group together with its member records.
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, m *models.GroupAthlete) error
	GetMember(ctx context.Context, groupID, athleteID int) (*models.GroupAthlete, error)
	// ListMembers orders red, blue, then queue by QueueOrder.
	ListMembers(ctx context.Context, groupID int, includeEliminated bool) ([]*models.GroupAthlete, error)
	ListAllMembers(ctx context.Context) ([]*models.GroupAthlete, error)
	UpdateMember(ctx context.Context, m *models.GroupAthlete) error
	DeleteMember(ctx context.Context, groupID, athleteID int) error
}

type MatchFilter struct {
	Status    *models.MatchStatus
	Ring      *string
	GroupID   *int
	AthleteID *int
}

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	Update(ctx context.Context, m *models.Match) error
	Delete(ctx context.Context, id int) error
}

type ResultRepository interface {
	Create(ctx context.Context, r *models.Result) error
	List(ctx context.Context, categoryID *int) ([]*models.Result, error)
}

// Store собирает все репозитории одного бэкенда.
type Store struct {
	Athletes   AthleteRepository
	Categories CategoryRepository
	Hierarchy  HierarchyRepository
	Groups     GroupRepository
	Matches    MatchRepository
	Results    ResultRepository
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tkd-tournament/brackets"
	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
)

const defaultMinAthletes = 2

// BracketService управляет иерархией MainCategory -> SubCategory -> AthleteGroup
// и расстановкой спортсменов по углам и очереди.
type BracketService interface {
	CreateMainCategory(ctx context.Context, input CreateMainCategoryInput) (*models.MainCategory, error)
	GetMainCategory(ctx context.Context, id int) (*models.MainCategory, error)
	ListMainCategories(ctx context.Context) ([]*models.MainCategory, error)
	DeleteMainCategory(ctx context.Context, id int) error

	CreateSubCategory(ctx context.Context, mainID int, input CreateSubCategoryInput) (*models.SubCategory, error)
	ListSubCategories(ctx context.Context, mainID int) ([]*models.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id int) error

	CreateAthleteGroup(ctx context.Context, subID int, input CreateAthleteGroupInput) (*models.AthleteGroup, error)
	GetAthleteGroup(ctx context.Context, id int) (*models.AthleteGroup, error)
	ListAthleteGroups(ctx context.Context, subID int) ([]*models.AthleteGroup, error)
	DeleteAthleteGroup(ctx context.Context, id int) error

	AddAthleteToGroup(ctx context.Context, groupID int, input AddGroupAthleteInput) (*models.GroupAthlete, error)
	RemoveAthleteFromGroup(ctx context.Context, groupID, athleteID int) error
	UpdateAthletePosition(ctx context.Context, groupID, athleteID int, input UpdatePositionInput) (*models.GroupAthlete, error)
	EliminateAthlete(ctx context.Context, groupID, athleteID int) (*models.GroupAthlete, error)
	UpdateAthleteMedal(ctx context.Context, groupID, athleteID int, hasMedal bool) (*models.GroupAthlete, error)
	ListGroupAthletes(ctx context.Context, groupID int, includeEliminated bool) ([]*models.GroupAthlete, error)
	ListEliminated(ctx context.Context, groupID int) ([]*models.GroupAthlete, error)
	AdvanceQueue(ctx context.Context, groupID int) ([]*models.GroupAthlete, error)

	GetBracketTree(ctx context.Context, mainID int) (*BracketTree, error)
}

type CreateMainCategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type CreateSubCategoryInput struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type CreateAthleteGroupInput struct {
	Name        string `json:"name"`
	MatchNumber int    `json:"match_number"`
	MinAthletes *int   `json:"min_athletes,omitempty"`
	MaxAthletes *int   `json:"max_athletes,omitempty"`
}

// AddGroupAthleteInput: без Position место выбирается автоматически.
type AddGroupAthleteInput struct {
	AthleteID  int              `json:"athlete_id"`
	Position   *models.Position `json:"position,omitempty"`
	QueueOrder *int             `json:"queue_order,omitempty"`
}

type UpdatePositionInput struct {
	Position   models.Position `json:"position"`
	QueueOrder *int            `json:"queue_order,omitempty"`
}

// BracketTree - вложенное представление одной основной категории.
type BracketTree struct {
	MainCategory  *models.MainCategory `json:"main_category"`
	SubCategories []*SubCategoryNode   `json:"sub_categories"`
}

type SubCategoryNode struct {
	SubCategory *models.SubCategory `json:"sub_category"`
	Groups      []*GroupNode        `json:"groups"`
}

type GroupNode struct {
	Group    *models.AthleteGroup   `json:"group"`
	Athletes []*models.GroupAthlete `json:"athletes"`
}

type bracketService struct {
	store    *repositories.Store
	coord    *Coordinator
	notifier Notifier
	logger   *slog.Logger
}

func NewBracketService(store *repositories.Store, coord *Coordinator, notifier Notifier, logger *slog.Logger) BracketService {
	return &bracketService{
		store:    store,
		coord:    coord,
		notifier: notifierOrNop(notifier),
		logger:   logger,
	}
}

// --- Основные категории ---

func (s *bracketService) CreateMainCategory(ctx context.Context, input CreateMainCategoryInput) (*models.MainCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
	}
	main := &models.MainCategory{Name: name, Description: trimmedPtr(input.Description)}
	if err := s.store.Hierarchy.CreateMain(ctx, main); err != nil {
		return nil, fmt.Errorf("failed to create main category: %w", err)
	}
	s.notifier.Publish(EventCategoryCreated, main)
	return main, nil
}

func (s *bracketService) GetMainCategory(ctx context.Context, id int) (*models.MainCategory, error) {
	main, err := s.store.Hierarchy.GetMain(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return main, nil
}

func (s *bracketService) ListMainCategories(ctx context.Context) ([]*models.MainCategory, error) {
	mains, err := s.store.Hierarchy.ListMain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list main categories: %w", err)
	}
	return mains, nil
}

func (s *bracketService) DeleteMainCategory(ctx context.Context, id int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Hierarchy.GetMain(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	subs, err := s.store.Hierarchy.ListSubs(ctx, &id)
	if err != nil {
		return fmt.Errorf("failed to list sub categories: %w", err)
	}
	if len(subs) > 0 {
		return ErrCategoryInUse
	}
	if err := s.store.Hierarchy.DeleteMain(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	return nil
}

// --- Подкатегории ---

func (s *bracketService) CreateSubCategory(ctx context.Context, mainID int, input CreateSubCategoryInput) (*models.SubCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
	}
	if _, err := s.store.Hierarchy.GetMain(ctx, mainID); err != nil {
		if errors.Is(err, repositories.ErrMainCategoryNotFound) {
			return nil, validationError("main category %d does not exist", mainID)
		}
		return nil, fmt.Errorf("failed to check main category: %w", err)
	}

	sub := &models.SubCategory{MainCategoryID: mainID, Name: name, Order: input.Order}
	if err := s.store.Hierarchy.CreateSub(ctx, sub); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.notifier.Publish(EventCategoryCreated, sub)
	return sub, nil
}

func (s *bracketService) ListSubCategories(ctx context.Context, mainID int) ([]*models.SubCategory, error) {
	if _, err := s.store.Hierarchy.GetMain(ctx, mainID); err != nil {
		return nil, handleRepositoryError(err)
	}
	subs, err := s.store.Hierarchy.ListSubs(ctx, &mainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub categories: %w", err)
	}
	return subs, nil
}

func (s *bracketService) DeleteSubCategory(ctx context.Context, id int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Hierarchy.GetSub(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	groups, err := s.store.Groups.List(ctx, &id)
	if err != nil {
		return fmt.Errorf("failed to list athlete groups: %w", err)
	}
	if len(groups) > 0 {
		return ErrCategoryInUse
	}
	if err := s.store.Hierarchy.DeleteSub(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	return nil
}

// --- Группы ---

func (s *bracketService) CreateAthleteGroup(ctx context.Context, subID int, input CreateAthleteGroupInput) (*models.AthleteGroup, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrNameRequired)
	}
	minAthletes, maxAthletes := defaultMinAthletes, 0
	if input.MinAthletes != nil {
		minAthletes = *input.MinAthletes
	}
	if input.MaxAthletes != nil {
		maxAthletes = *input.MaxAthletes
	}
	if minAthletes < 0 {
		return nil, validationError("min_athletes must not be negative")
	}
	if maxAthletes < 0 || (maxAthletes > 0 && maxAthletes < minAthletes) {
		return nil, validationError("max_athletes must be 0 (unbounded) or at least min_athletes")
	}

	if _, err := s.store.Hierarchy.GetSub(ctx, subID); err != nil {
		if errors.Is(err, repositories.ErrSubCategoryNotFound) {
			return nil, validationError("sub category %d does not exist", subID)
		}
		return nil, fmt.Errorf("failed to check sub category: %w", err)
	}

	group := &models.AthleteGroup{
		SubCategoryID: subID,
		Name:          name,
		MatchNumber:   input.MatchNumber,
		MinAthletes:   minAthletes,
		MaxAthletes:   maxAthletes,
	}
	if err := s.store.Groups.Create(ctx, group); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.notifier.Publish(EventCategoryCreated, group)
	return group, nil
}

func (s *bracketService) GetAthleteGroup(ctx context.Context, id int) (*models.AthleteGroup, error) {
	group, err := s.store.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return group, nil
}

func (s *bracketService) ListAthleteGroups(ctx context.Context, subID int) ([]*models.AthleteGroup, error) {
	if _, err := s.store.Hierarchy.GetSub(ctx, subID); err != nil {
		return nil, handleRepositoryError(err)
	}
	groups, err := s.store.Groups.List(ctx, &subID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *bracketService) DeleteAthleteGroup(ctx context.Context, id int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	if err := s.store.Groups.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	return nil
}

// --- Участники групп ---

func (s *bracketService) AddAthleteToGroup(ctx context.Context, groupID int, input AddGroupAthleteInput) (*models.GroupAthlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	group, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := s.store.Athletes.GetByID(ctx, input.AthleteID); err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := s.store.Groups.GetMember(ctx, groupID, input.AthleteID); err == nil {
		return nil, ErrAthleteAlreadyInGroup
	} else if !errors.Is(err, repositories.ErrGroupAthleteNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	live, err := s.store.Groups.ListMembers(ctx, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	if group.MaxAthletes > 0 && len(live) >= group.MaxAthletes {
		return nil, ErrGroupFull
	}

	slot, err := resolveSlot(live, input.AthleteID, input.Position, input.QueueOrder, nil)
	if err != nil {
		return nil, err
	}

	member := &models.GroupAthlete{
		GroupID:    groupID,
		AthleteID:  input.AthleteID,
		Position:   slot.Position,
		QueueOrder: slot.QueueOrder,
	}
	if err := s.store.Groups.AddMember(ctx, member); err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := recountGroup(ctx, s.store.Groups, groupID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "athlete added to group",
		slog.Int("group_id", groupID),
		slog.Int("athlete_id", member.AthleteID),
		slog.String("position", string(member.Position)),
		slog.Int("queue_order", member.QueueOrder))
	s.publishGroup(ctx, groupID)
	return member, nil
}

func (s *bracketService) RemoveAthleteFromGroup(ctx context.Context, groupID, athleteID int) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Groups.GetByID(ctx, groupID); err != nil {
		return handleRepositoryError(err)
	}
	if err := s.store.Groups.DeleteMember(ctx, groupID, athleteID); err != nil {
		return handleRepositoryError(err)
	}
	if _, err := recountGroup(ctx, s.store.Groups, groupID); err != nil {
		return err
	}
	s.publishGroup(ctx, groupID)
	return nil
}

func (s *bracketService) UpdateAthletePosition(ctx context.Context, groupID, athleteID int, input UpdatePositionInput) (*models.GroupAthlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	member, err := s.store.Groups.GetMember(ctx, groupID, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if member.IsEliminated {
		return nil, ErrAthleteEliminated
	}
	live, err := s.store.Groups.ListMembers(ctx, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	position := input.Position
	slot, err := resolveSlot(live, athleteID, &position, input.QueueOrder, member)
	if err != nil {
		return nil, err
	}
	member.Position = slot.Position
	member.QueueOrder = slot.QueueOrder

	if err := s.store.Groups.UpdateMember(ctx, member); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.publishGroup(ctx, groupID)
	return member, nil
}

// EliminateAthlete не трогает позицию и порядок: они остаются для истории.
func (s *bracketService) EliminateAthlete(ctx context.Context, groupID, athleteID int) (*models.GroupAthlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	member, err := s.store.Groups.GetMember(ctx, groupID, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if member.IsEliminated {
		return nil, ErrAthleteEliminated
	}
	now := time.Now()
	member.IsEliminated = true
	member.EliminatedAt = &now
	if err := s.store.Groups.UpdateMember(ctx, member); err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := recountGroup(ctx, s.store.Groups, groupID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "athlete eliminated", slog.Int("group_id", groupID), slog.Int("athlete_id", athleteID))
	s.publishGroup(ctx, groupID)
	return member, nil
}

func (s *bracketService) UpdateAthleteMedal(ctx context.Context, groupID, athleteID int, hasMedal bool) (*models.GroupAthlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	member, err := s.store.Groups.GetMember(ctx, groupID, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	member.HasMedal = hasMedal
	if err := s.store.Groups.UpdateMember(ctx, member); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.publishGroup(ctx, groupID)
	return member, nil
}

func (s *bracketService) ListGroupAthletes(ctx context.Context, groupID int, includeEliminated bool) ([]*models.GroupAthlete, error) {
	s.coord.RLock()
	defer s.coord.RUnlock()

	if _, err := s.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, handleRepositoryError(err)
	}
	members, err := s.store.Groups.ListMembers(ctx, groupID, includeEliminated)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	if err := s.attachAthletes(ctx, members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *bracketService) ListEliminated(ctx context.Context, groupID int) ([]*models.GroupAthlete, error) {
	members, err := s.ListGroupAthletes(ctx, groupID, true)
	if err != nil {
		return nil, err
	}
	eliminated := make([]*models.GroupAthlete, 0, len(members))
	for _, m := range members {
		if m.IsEliminated {
			eliminated = append(eliminated, m)
		}
	}
	return eliminated, nil
}

// AdvanceQueue заполняет пустые углы (сначала красный, потом синий) первыми из очереди.
func (s *bracketService) AdvanceQueue(ctx context.Context, groupID int) ([]*models.GroupAthlete, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	if _, err := s.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, handleRepositoryError(err)
	}
	live, err := s.store.Groups.ListMembers(ctx, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	promoted := 0
	for _, corner := range []models.Position{models.PositionRed, models.PositionBlue} {
		if brackets.SlotHolder(live, corner) != nil {
			continue
		}
		head := brackets.QueueHead(live)
		if head == nil {
			break
		}
		head.Position = corner
		head.QueueOrder = 0
		if err := s.store.Groups.UpdateMember(ctx, head); err != nil {
			return nil, handleRepositoryError(err)
		}
		promoted++
	}

	members, err := s.store.Groups.ListMembers(ctx, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	if promoted > 0 {
		s.logger.InfoContext(ctx, "queue advanced", slog.Int("group_id", groupID), slog.Int("promoted", promoted))
		s.publishGroup(ctx, groupID)
	}
	return members, nil
}

func (s *bracketService) GetBracketTree(ctx context.Context, mainID int) (*BracketTree, error) {
	s.coord.RLock()
	defer s.coord.RUnlock()

	main, err := s.store.Hierarchy.GetMain(ctx, mainID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	subs, err := s.store.Hierarchy.ListSubs(ctx, &mainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub categories: %w", err)
	}

	tree := &BracketTree{MainCategory: main, SubCategories: make([]*SubCategoryNode, 0, len(subs))}
	for _, sub := range subs {
		groups, err := s.store.Groups.List(ctx, &sub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list groups of sub category %d: %w", sub.ID, err)
		}
		node := &SubCategoryNode{SubCategory: sub, Groups: make([]*GroupNode, 0, len(groups))}
		for _, g := range groups {
			members, err := s.store.Groups.ListMembers(ctx, g.ID, false)
			if err != nil {
				return nil, fmt.Errorf("failed to list members of group %d: %w", g.ID, err)
			}
			if err := s.attachAthletes(ctx, members); err != nil {
				return nil, err
			}
			node.Groups = append(node.Groups, &GroupNode{Group: g, Athletes: members})
		}
		tree.SubCategories = append(tree.SubCategories, node)
	}
	return tree, nil
}

func (s *bracketService) attachAthletes(ctx context.Context, members []*models.GroupAthlete) error {
	for _, m := range members {
		athlete, err := s.store.Athletes.GetByID(ctx, m.AthleteID)
		if err != nil {
			if errors.Is(err, repositories.ErrAthleteNotFound) {
				continue
			}
			return fmt.Errorf("failed to load athlete %d: %w", m.AthleteID, err)
		}
		m.Athlete = athlete
	}
	return nil
}

func (s *bracketService) publishGroup(ctx context.Context, groupID int) {
	group, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		s.logger.WarnContext(ctx, "group vanished before publish", slog.Int("group_id", groupID))
		return
	}
	s.notifier.Publish(EventGroupUpdated, group)
}

// resolveSlot проверяет запрошенную позицию против живых участников группы.
// current != nil при перемещении существующего участника.
func resolveSlot(live []*models.GroupAthlete, athleteID int, position *models.Position, queueOrder *int, current *models.GroupAthlete) (brackets.Slot, error) {
	if position == nil {
		return brackets.NextOpenSlot(live), nil
	}
	if !position.Valid() {
		return brackets.Slot{}, fmt.Errorf("%w: %w: %q", ErrValidationFailed, ErrInvalidPosition, *position)
	}

	switch *position {
	case models.PositionRed, models.PositionBlue:
		if holder := brackets.SlotHolder(live, *position); holder != nil && holder.AthleteID != athleteID {
			return brackets.Slot{}, fmt.Errorf("%w: %s corner is held by athlete %d", ErrSlotOccupied, *position, holder.AthleteID)
		}
		slot := brackets.Slot{Position: *position}
		switch {
		case queueOrder != nil:
			slot.QueueOrder = *queueOrder
		case current != nil:
			slot.QueueOrder = current.QueueOrder
		}
		return slot, nil
	default:
		if queueOrder == nil {
			// прежний порядок сохраняется, если он ещё годится для очереди
			if current != nil && current.QueueOrder > 0 && !brackets.QueueOrderTaken(live, current.QueueOrder, athleteID) {
				return brackets.Slot{Position: models.PositionQueue, QueueOrder: current.QueueOrder}, nil
			}
			return brackets.Slot{Position: models.PositionQueue, QueueOrder: brackets.NextQueueOrder(live)}, nil
		}
		if *queueOrder < 1 {
			return brackets.Slot{}, fmt.Errorf("%w: %w", ErrValidationFailed, ErrInvalidQueueOrder)
		}
		if brackets.QueueOrderTaken(live, *queueOrder, athleteID) {
			return brackets.Slot{}, fmt.Errorf("%w: order %d", ErrQueueOrderTaken, *queueOrder)
		}
		return brackets.Slot{Position: models.PositionQueue, QueueOrder: *queueOrder}, nil
	}
}

// recountGroup выставляет CurrentCount равным числу не выбывших участников.
func recountGroup(ctx context.Context, groups repositories.GroupRepository, groupID int) (int, error) {
	live, err := groups.ListMembers(ctx, groupID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to count members of group %d: %w", groupID, err)
	}
	if err := groups.UpdateCount(ctx, groupID, len(live)); err != nil {
		return 0, handleRepositoryError(err)
	}
	return len(live), nil
}

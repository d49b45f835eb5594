package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tkd-tournament/models"
)

// NewMemoryStore returns the in-memory reference backend. Every repository
// hands out copies, so callers never alias stored records.
func NewMemoryStore() *Store {
	return &Store{
		Athletes:   newMemoryAthleteRepository(),
		Categories: newMemoryCategoryRepository(),
		Hierarchy:  newMemoryHierarchyRepository(),
		Groups:     newMemoryGroupRepository(),
		Matches:    newMemoryMatchRepository(),
		Results:    newMemoryResultRepository(),
	}
}

// --- athletes ---

type memoryAthleteRepository struct {
	mu        sync.RWMutex
	seq       int
	changeSeq int
	athletes  map[int]*models.Athlete
	statusLog map[int][]*models.StatusChange
}

func newMemoryAthleteRepository() *memoryAthleteRepository {
	return &memoryAthleteRepository{
		athletes:  make(map[int]*models.Athlete),
		statusLog: make(map[int][]*models.StatusChange),
	}
}

func cloneAthlete(a *models.Athlete) *models.Athlete {
	c := *a
	c.BirthDate = copyPtr(a.BirthDate)
	c.CategoryID = copyPtr(a.CategoryID)
	c.Ring = copyPtr(a.Ring)
	return &c
}

func (r *memoryAthleteRepository) Create(_ context.Context, a *models.Athlete) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = r.seq
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.athletes[a.ID] = cloneAthlete(a)
	return nil
}

func (r *memoryAthleteRepository) GetByID(_ context.Context, id int) (*models.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.athletes[id]
	if !ok {
		return nil, ErrAthleteNotFound
	}
	return cloneAthlete(a), nil
}

func (r *memoryAthleteRepository) List(_ context.Context, filter AthleteFilter) ([]*models.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Athlete, 0, len(r.athletes))
	for _, a := range r.athletes {
		if filter.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.IsPresent != nil && a.IsPresent != *filter.IsPresent {
			continue
		}
		if filter.Gender != nil && a.Gender != *filter.Gender {
			continue
		}
		if filter.CompetitionID != nil && a.CompetitionID != *filter.CompetitionID {
			continue
		}
		out = append(out, cloneAthlete(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryAthleteRepository) Update(_ context.Context, a *models.Athlete) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.athletes[a.ID]; !ok {
		return ErrAthleteNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.athletes[a.ID] = cloneAthlete(a)
	return nil
}

func (r *memoryAthleteRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.athletes[id]; !ok {
		return ErrAthleteNotFound
	}
	delete(r.athletes, id)
	delete(r.statusLog, id)
	return nil
}

func (r *memoryAthleteRepository) AppendStatusChange(_ context.Context, c *models.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.athletes[c.AthleteID]; !ok {
		return ErrAthleteNotFound
	}
	r.changeSeq++
	c.ID = r.changeSeq
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	stored := *c
	stored.Ring = copyPtr(c.Ring)
	r.statusLog[c.AthleteID] = append(r.statusLog[c.AthleteID], &stored)
	return nil
}

func (r *memoryAthleteRepository) ListStatusChanges(_ context.Context, athleteID int) ([]*models.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.athletes[athleteID]; !ok {
		return nil, ErrAthleteNotFound
	}
	log := r.statusLog[athleteID]
	out := make([]*models.StatusChange, len(log))
	for i, c := range log {
		cc := *c
		cc.Ring = copyPtr(c.Ring)
		out[i] = &cc
	}
	return out, nil
}

// --- legacy categories ---

type memoryCategoryRepository struct {
	mu         sync.RWMutex
	seq        int
	categories map[int]*models.Category
}

func newMemoryCategoryRepository() *memoryCategoryRepository {
	return &memoryCategoryRepository{categories: make(map[int]*models.Category)}
}

func cloneCategory(c *models.Category) *models.Category {
	cc := *c
	cc.Gender = copyPtr(c.Gender)
	cc.MinAge = copyPtr(c.MinAge)
	cc.MaxAge = copyPtr(c.MaxAge)
	cc.MinWeight = copyPtr(c.MinWeight)
	cc.MaxWeight = copyPtr(c.MaxWeight)
	return &cc
}

func (r *memoryCategoryRepository) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	c.CreatedAt = time.Now().UTC()
	r.categories[c.ID] = cloneCategory(c)
	return nil
}

func (r *memoryCategoryRepository) GetByID(_ context.Context, id int) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return cloneCategory(c), nil
}

func (r *memoryCategoryRepository) List(_ context.Context, activeOnly bool) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryCategoryRepository) Update(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return ErrCategoryNotFound
	}
	r.categories[c.ID] = cloneCategory(c)
	return nil
}

func (r *memoryCategoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

// --- main / sub categories ---

type memoryHierarchyRepository struct {
	mu      sync.RWMutex
	mainSeq int
	subSeq  int
	mains   map[int]*models.MainCategory
	subs    map[int]*models.SubCategory
}

func newMemoryHierarchyRepository() *memoryHierarchyRepository {
	return &memoryHierarchyRepository{
		mains: make(map[int]*models.MainCategory),
		subs:  make(map[int]*models.SubCategory),
	}
}

func (r *memoryHierarchyRepository) CreateMain(_ context.Context, m *models.MainCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mainSeq++
	m.ID = r.mainSeq
	m.CreatedAt = time.Now().UTC()
	stored := *m
	stored.Description = copyPtr(m.Description)
	r.mains[m.ID] = &stored
	return nil
}

func (r *memoryHierarchyRepository) GetMain(_ context.Context, id int) (*models.MainCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mains[id]
	if !ok {
		return nil, ErrMainCategoryNotFound
	}
	c := *m
	c.Description = copyPtr(m.Description)
	return &c, nil
}

func (r *memoryHierarchyRepository) ListMain(_ context.Context) ([]*models.MainCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.MainCategory, 0, len(r.mains))
	for _, m := range r.mains {
		c := *m
		c.Description = copyPtr(m.Description)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryHierarchyRepository) DeleteMain(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mains[id]; !ok {
		return ErrMainCategoryNotFound
	}
	delete(r.mains, id)
	return nil
}

func (r *memoryHierarchyRepository) CreateSub(_ context.Context, s *models.SubCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mains[s.MainCategoryID]; !ok {
		return ErrMainCategoryNotFound
	}
	r.subSeq++
	s.ID = r.subSeq
	s.CreatedAt = time.Now().UTC()
	stored := *s
	r.subs[s.ID] = &stored
	return nil
}

func (r *memoryHierarchyRepository) GetSub(_ context.Context, id int) (*models.SubCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, ErrSubCategoryNotFound
	}
	c := *s
	return &c, nil
}

func (r *memoryHierarchyRepository) ListSubs(_ context.Context, mainID *int) ([]*models.SubCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SubCategory, 0)
	for _, s := range r.subs {
		if mainID != nil && s.MainCategoryID != *mainID {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryHierarchyRepository) DeleteSub(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return ErrSubCategoryNotFound
	}
	delete(r.subs, id)
	return nil
}

// --- groups and members ---

type memoryGroupRepository struct {
	mu        sync.RWMutex
	seq       int
	memberSeq int
	groups    map[int]*models.AthleteGroup
	members   map[int]*models.GroupAthlete
}

func newMemoryGroupRepository() *memoryGroupRepository {
	return &memoryGroupRepository{
		groups:  make(map[int]*models.AthleteGroup),
		members: make(map[int]*models.GroupAthlete),
	}
}

func cloneMember(m *models.GroupAthlete) *models.GroupAthlete {
	c := *m
	c.EliminatedAt = copyPtr(m.EliminatedAt)
	c.Athlete = nil
	return &c
}

func (r *memoryGroupRepository) Create(_ context.Context, g *models.AthleteGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	g.ID = r.seq
	g.CreatedAt = time.Now().UTC()
	stored := *g
	r.groups[g.ID] = &stored
	return nil
}

func (r *memoryGroupRepository) GetByID(_ context.Context, id int) (*models.AthleteGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	c := *g
	return &c, nil
}

func (r *memoryGroupRepository) List(_ context.Context, subCategoryID *int) ([]*models.AthleteGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.AthleteGroup, 0)
	for _, g := range r.groups {
		if subCategoryID != nil && g.SubCategoryID != *subCategoryID {
			continue
		}
		c := *g
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchNumber != out[j].MatchNumber {
			return out[i].MatchNumber < out[j].MatchNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryGroupRepository) UpdateCount(_ context.Context, id int, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return ErrGroupNotFound
	}
	if count < 0 {
		count = 0
	}
	g.CurrentCount = count
	return nil
}

func (r *memoryGroupRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return ErrGroupNotFound
	}
	delete(r.groups, id)
	for mid, m := range r.members {
		if m.GroupID == id {
			delete(r.members, mid)
		}
	}
	return nil
}

func (r *memoryGroupRepository) findMember(groupID, athleteID int) *models.GroupAthlete {
	for _, m := range r.members {
		if m.GroupID == groupID && m.AthleteID == athleteID {
			return m
		}
	}
	return nil
}

func (r *memoryGroupRepository) AddMember(_ context.Context, m *models.GroupAthlete) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[m.GroupID]; !ok {
		return ErrGroupNotFound
	}
	if r.findMember(m.GroupID, m.AthleteID) != nil {
		return ErrGroupAthleteConflict
	}
	r.memberSeq++
	m.ID = r.memberSeq
	m.CreatedAt = time.Now().UTC()
	r.members[m.ID] = cloneMember(m)
	return nil
}

func (r *memoryGroupRepository) GetMember(_ context.Context, groupID, athleteID int) (*models.GroupAthlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.findMember(groupID, athleteID)
	if m == nil {
		return nil, ErrGroupAthleteNotFound
	}
	return cloneMember(m), nil
}

func (r *memoryGroupRepository) ListMembers(_ context.Context, groupID int, includeEliminated bool) ([]*models.GroupAthlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.GroupAthlete, 0)
	for _, m := range r.members {
		if m.GroupID != groupID {
			continue
		}
		if m.IsEliminated && !includeEliminated {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sortMembers(out)
	return out, nil
}

func (r *memoryGroupRepository) ListAllMembers(_ context.Context) ([]*models.GroupAthlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.GroupAthlete, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryGroupRepository) UpdateMember(_ context.Context, m *models.GroupAthlete) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.members[m.ID]
	if !ok || existing.GroupID != m.GroupID || existing.AthleteID != m.AthleteID {
		return ErrGroupAthleteNotFound
	}
	r.members[m.ID] = cloneMember(m)
	return nil
}

func (r *memoryGroupRepository) DeleteMember(_ context.Context, groupID, athleteID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(groupID, athleteID)
	if m == nil {
		return ErrGroupAthleteNotFound
	}
	delete(r.members, m.ID)
	return nil
}

// --- matches ---

type memoryMatchRepository struct {
	mu      sync.RWMutex
	seq     int
	matches map[int]*models.Match
}

func newMemoryMatchRepository() *memoryMatchRepository {
	return &memoryMatchRepository{matches: make(map[int]*models.Match)}
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.GroupID = copyPtr(m.GroupID)
	c.WinnerID = copyPtr(m.WinnerID)
	c.StartTime = copyPtr(m.StartTime)
	c.EndTime = copyPtr(m.EndTime)
	return &c
}

func (r *memoryMatchRepository) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	m.CreatedAt = time.Now().UTC()
	r.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *memoryMatchRepository) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *memoryMatchRepository) List(_ context.Context, filter MatchFilter) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Ring != nil && m.Ring != *filter.Ring {
			continue
		}
		if filter.GroupID != nil && (m.GroupID == nil || *m.GroupID != *filter.GroupID) {
			continue
		}
		if filter.AthleteID != nil && !m.HasCorner(*filter.AthleteID) {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryMatchRepository) Update(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return ErrMatchNotFound
	}
	r.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *memoryMatchRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

// --- results ---

type memoryResultRepository struct {
	mu      sync.RWMutex
	seq     int
	results map[int]*models.Result
}

func newMemoryResultRepository() *memoryResultRepository {
	return &memoryResultRepository{results: make(map[int]*models.Result)}
}

func (r *memoryResultRepository) Create(_ context.Context, res *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.results {
		if existing.CategoryID == res.CategoryID && existing.AthleteID == res.AthleteID {
			return ErrResultConflict
		}
	}
	r.seq++
	res.ID = r.seq
	res.CreatedAt = time.Now().UTC()
	stored := *res
	r.results[res.ID] = &stored
	return nil
}

func (r *memoryResultRepository) List(_ context.Context, categoryID *int) ([]*models.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Result, 0)
	for _, res := range r.results {
		if categoryID != nil && res.CategoryID != *categoryID {
			continue
		}
		c := *res
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Place != out[j].Place {
			return out[i].Place < out[j].Place
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

package services

import "sync"

// Типы событий, которые получают экраны судей.
const (
	EventAthleteCreated    = "athlete_created"
	EventAthleteUpdated    = "athlete_updated"
	EventAthleteDeleted    = "athlete_deleted"
	EventAttendanceUpdated = "attendance_updated"
	EventStatusUpdated     = "status_updated"
	EventCategoryCreated   = "category_created"
	EventGroupUpdated      = "group_updated"
	EventMatchCreated      = "match_created"
	EventWinnerDeclared    = "winner_declared"
	EventResultRecorded    = "result_recorded"
	EventRosterImported    = "roster_imported"
)

// Notifier - best-effort рассылка событий (реализуется brackets.Hub).
type Notifier interface {
	Publish(eventType string, payload interface{})
}

type NopNotifier struct{}

func (NopNotifier) Publish(string, interface{}) {}

// MultiNotifier раздаёт событие всем подписчикам по порядку.
type MultiNotifier []Notifier

func (m MultiNotifier) Publish(eventType string, payload interface{}) {
	for _, n := range m {
		if n != nil {
			n.Publish(eventType, payload)
		}
	}
}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return NopNotifier{}
	}
	return n
}

// Coordinator сериализует все изменения, затрагивающие участие спортсмена
// (статус, матчи, состав групп). Общий для всех сервисов одного процесса.
type Coordinator struct {
	mu sync.RWMutex
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

func (c *Coordinator) Lock()    { c.mu.Lock() }
func (c *Coordinator) Unlock()  { c.mu.Unlock() }
func (c *Coordinator) RLock()   { c.mu.RLock() }
func (c *Coordinator) RUnlock() { c.mu.RUnlock() }

package brackets

import "github.com/Dosada05/tkd-tournament/models"

// Slot - позиция, которую получит следующий спортсмен группы.
type Slot struct {
	Position   models.Position
	QueueOrder int
}

// NextOpenSlot выбирает место для нового участника по живым (не выбывшим)
// участникам группы: сначала красный угол, затем синий, затем конец очереди.
func NextOpenSlot(live []*models.GroupAthlete) Slot {
	if SlotHolder(live, models.PositionRed) == nil {
		return Slot{Position: models.PositionRed}
	}
	if SlotHolder(live, models.PositionBlue) == nil {
		return Slot{Position: models.PositionBlue}
	}
	return Slot{Position: models.PositionQueue, QueueOrder: NextQueueOrder(live)}
}

// SlotHolder returns the live member holding pos, or nil.
func SlotHolder(live []*models.GroupAthlete, pos models.Position) *models.GroupAthlete {
	for _, m := range live {
		if !m.IsEliminated && m.Position == pos {
			return m
		}
	}
	return nil
}

// NextQueueOrder is max live queue order + 1, or 1 for an empty queue.
func NextQueueOrder(live []*models.GroupAthlete) int {
	maxOrder := 0
	for _, m := range live {
		if !m.IsEliminated && m.Position == models.PositionQueue && m.QueueOrder > maxOrder {
			maxOrder = m.QueueOrder
		}
	}
	return maxOrder + 1
}

// QueueOrderTaken reports whether another live queue member already uses order.
func QueueOrderTaken(live []*models.GroupAthlete, order int, exceptAthleteID int) bool {
	for _, m := range live {
		if m.IsEliminated || m.Position != models.PositionQueue || m.AthleteID == exceptAthleteID {
			continue
		}
		if m.QueueOrder == order {
			return true
		}
	}
	return false
}

// QueueHead returns the live queue member with the lowest order, or nil.
func QueueHead(live []*models.GroupAthlete) *models.GroupAthlete {
	var head *models.GroupAthlete
	for _, m := range live {
		if m.IsEliminated || m.Position != models.PositionQueue {
			continue
		}
		if head == nil || m.QueueOrder < head.QueueOrder || (m.QueueOrder == head.QueueOrder && m.ID < head.ID) {
			head = m
		}
	}
	return head
}

package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/tkd-tournament/models"
)

func member(id, athleteID int, pos models.Position, order int) *models.GroupAthlete {
	return &models.GroupAthlete{ID: id, AthleteID: athleteID, Position: pos, QueueOrder: order}
}

func TestNextOpenSlot(t *testing.T) {
	tests := []struct {
		name string
		live []*models.GroupAthlete
		want Slot
	}{
		{"empty group", nil, Slot{Position: models.PositionRed}},
		{"red taken", []*models.GroupAthlete{member(1, 101, models.PositionRed, 0)}, Slot{Position: models.PositionBlue}},
		{"blue taken only", []*models.GroupAthlete{member(1, 101, models.PositionBlue, 0)}, Slot{Position: models.PositionRed}},
		{
			"both corners taken",
			[]*models.GroupAthlete{member(1, 101, models.PositionRed, 0), member(2, 102, models.PositionBlue, 0)},
			Slot{Position: models.PositionQueue, QueueOrder: 1},
		},
		{
			"queue with gaps",
			[]*models.GroupAthlete{
				member(1, 101, models.PositionRed, 0),
				member(2, 102, models.PositionBlue, 0),
				member(3, 103, models.PositionQueue, 1),
				member(4, 104, models.PositionQueue, 4),
			},
			Slot{Position: models.PositionQueue, QueueOrder: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOpenSlot(tt.live))
		})
	}
}

func TestEliminatedMembersFreeTheirSlots(t *testing.T) {
	red := member(1, 101, models.PositionRed, 0)
	red.IsEliminated = true
	queued := member(2, 102, models.PositionQueue, 3)
	queued.IsEliminated = true
	live := []*models.GroupAthlete{red, queued}

	assert.Nil(t, SlotHolder(live, models.PositionRed))
	assert.Equal(t, 1, NextQueueOrder(live))
	assert.False(t, QueueOrderTaken(live, 3, 999))
	assert.Nil(t, QueueHead(live))
}

func TestQueueOrderTaken(t *testing.T) {
	live := []*models.GroupAthlete{
		member(1, 101, models.PositionRed, 2),
		member(2, 102, models.PositionQueue, 2),
	}
	assert.True(t, QueueOrderTaken(live, 2, 103))
	assert.False(t, QueueOrderTaken(live, 2, 102), "own order is not a collision")
	assert.False(t, QueueOrderTaken(live, 1, 103))
}

func TestQueueHead(t *testing.T) {
	live := []*models.GroupAthlete{
		member(5, 105, models.PositionQueue, 3),
		member(1, 101, models.PositionRed, 0),
		member(4, 104, models.PositionQueue, 2),
		member(3, 103, models.PositionQueue, 2),
	}
	head := QueueHead(live)
	if assert.NotNil(t, head) {
		assert.Equal(t, 103, head.AthleteID)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tkd-tournament/models"
)

func posPtr(p models.Position) *models.Position { return &p }
func intPtr(i int) *int                         { return &i }

func TestExampleScenarioGreedyFill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	main, err := env.brackets.CreateMainCategory(ctx, CreateMainCategoryInput{Name: "Kyorugi"})
	require.NoError(t, err)
	sub, err := env.brackets.CreateSubCategory(ctx, main.ID, CreateSubCategoryInput{Name: "Junior Putra", Order: 1})
	require.NoError(t, err)
	group, err := env.brackets.CreateAthleteGroup(ctx, sub.ID, CreateAthleteGroupInput{Name: "Partai 1"})
	require.NoError(t, err)
	assert.Equal(t, 2, group.MinAthletes)
	assert.Equal(t, 0, group.MaxAthletes)

	a1 := env.mustAthlete(t, "Atlet 101")
	a2 := env.mustAthlete(t, "Atlet 102")
	a3 := env.mustAthlete(t, "Atlet 103")

	m1, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a1.ID})
	require.NoError(t, err)
	m2, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a2.ID})
	require.NoError(t, err)
	m3, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a3.ID})
	require.NoError(t, err)

	assert.Equal(t, models.PositionRed, m1.Position)
	assert.Equal(t, 0, m1.QueueOrder)
	assert.Equal(t, models.PositionBlue, m2.Position)
	assert.Equal(t, 0, m2.QueueOrder)
	assert.Equal(t, models.PositionQueue, m3.Position)
	assert.Equal(t, 1, m3.QueueOrder)

	g, err := env.brackets.GetAthleteGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, g.CurrentCount)
	assert.Equal(t, 3, env.notifier.count(EventGroupUpdated))
}

func TestQueueOrderMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)

	var orders []int
	for i := 0; i < 6; i++ {
		a := env.mustAthlete(t, "Q")
		m, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		require.NoError(t, err)
		if m.Position == models.PositionQueue {
			orders = append(orders, m.QueueOrder)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4}, orders)
}

func TestEliminatingQueueMemberKeepsOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)

	queued := map[int]int{} // queue order -> athlete id
	for i := 0; i < 5; i++ {
		a := env.mustAthlete(t, "Q")
		m, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		require.NoError(t, err)
		if m.Position == models.PositionQueue {
			queued[m.QueueOrder] = a.ID
		}
	}
	require.Len(t, queued, 3)

	_, err := env.brackets.EliminateAthlete(ctx, group.ID, queued[2])
	require.NoError(t, err)

	queueOrders := func() []int {
		live, err := env.brackets.ListGroupAthletes(ctx, group.ID, false)
		require.NoError(t, err)
		var orders []int
		for _, m := range live {
			if m.Position == models.PositionQueue {
				orders = append(orders, m.QueueOrder)
			}
		}
		return orders
	}
	assert.Equal(t, []int{1, 3}, queueOrders())

	late := env.mustAthlete(t, "Late")
	m, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: late.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PositionQueue, m.Position)
	assert.Equal(t, 4, m.QueueOrder)
	assert.Equal(t, []int{1, 3, 4}, queueOrders())
}

func TestAddAthleteToGroupErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 3)
	a := env.mustAthlete(t, "A")

	_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
	require.NoError(t, err)

	t.Run("duplicate membership", func(t *testing.T) {
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		assert.ErrorIs(t, err, ErrAthleteAlreadyInGroup)
	})
	t.Run("unknown group", func(t *testing.T) {
		_, err := env.brackets.AddAthleteToGroup(ctx, 999, AddGroupAthleteInput{AthleteID: a.ID})
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
	t.Run("unknown athlete", func(t *testing.T) {
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: 999})
		assert.ErrorIs(t, err, ErrAthleteNotFound)
	})
	t.Run("red slot occupied", func(t *testing.T) {
		b := env.mustAthlete(t, "B")
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: b.ID, Position: posPtr(models.PositionRed)})
		assert.ErrorIs(t, err, ErrSlotOccupied)
	})
	t.Run("explicit queue order taken", func(t *testing.T) {
		b := env.mustAthlete(t, "B2")
		c := env.mustAthlete(t, "C2")
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: b.ID, Position: posPtr(models.PositionQueue), QueueOrder: intPtr(5)})
		require.NoError(t, err)
		_, err = env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: c.ID, Position: posPtr(models.PositionQueue), QueueOrder: intPtr(5)})
		assert.ErrorIs(t, err, ErrQueueOrderTaken)
	})
	t.Run("invalid position", func(t *testing.T) {
		b := env.mustAthlete(t, "B3")
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: b.ID, Position: posPtr("green")})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
	t.Run("group full", func(t *testing.T) {
		b := env.mustAthlete(t, "B4")
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: b.ID})
		require.NoError(t, err)
		c := env.mustAthlete(t, "C4")
		_, err = env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: c.ID})
		assert.ErrorIs(t, err, ErrGroupFull)
	})
}

func TestCurrentCountConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)

	ids := make([]int, 0, 4)
	for _, name := range []string{"A", "B", "C", "D"} {
		a := env.mustAthlete(t, name)
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	check := func() {
		g, err := env.brackets.GetAthleteGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, env.liveCount(t, group.ID), g.CurrentCount)
	}
	check()

	require.NoError(t, env.brackets.RemoveAthleteFromGroup(ctx, group.ID, ids[3]))
	check()

	_, err := env.brackets.EliminateAthlete(ctx, group.ID, ids[0])
	require.NoError(t, err)
	check()

	require.NoError(t, env.brackets.RemoveAthleteFromGroup(ctx, group.ID, ids[0]))
	check()

	err = env.brackets.RemoveAthleteFromGroup(ctx, group.ID, ids[0])
	assert.ErrorIs(t, err, ErrGroupAthleteNotFound)

	g, err := env.brackets.GetAthleteGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CurrentCount)
}

func TestUpdateAthletePosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	red := env.mustAthlete(t, "Red")
	blue := env.mustAthlete(t, "Blue")
	q := env.mustAthlete(t, "Queue")
	for _, a := range []*models.Athlete{red, blue, q} {
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		require.NoError(t, err)
	}

	t.Run("omitted queue order keeps prior value", func(t *testing.T) {
		m, err := env.brackets.UpdateAthletePosition(ctx, group.ID, q.ID, UpdatePositionInput{Position: models.PositionQueue})
		require.NoError(t, err)
		assert.Equal(t, 1, m.QueueOrder)
	})
	t.Run("explicit queue order", func(t *testing.T) {
		m, err := env.brackets.UpdateAthletePosition(ctx, group.ID, q.ID, UpdatePositionInput{Position: models.PositionQueue, QueueOrder: intPtr(7)})
		require.NoError(t, err)
		assert.Equal(t, 7, m.QueueOrder)
	})
	t.Run("corner collision rejected", func(t *testing.T) {
		_, err := env.brackets.UpdateAthletePosition(ctx, group.ID, q.ID, UpdatePositionInput{Position: models.PositionRed})
		assert.ErrorIs(t, err, ErrSlotOccupied)
	})
	t.Run("moving red to queue frees the corner", func(t *testing.T) {
		m, err := env.brackets.UpdateAthletePosition(ctx, group.ID, red.ID, UpdatePositionInput{Position: models.PositionQueue})
		require.NoError(t, err)
		assert.Equal(t, models.PositionQueue, m.Position)
		assert.Equal(t, 8, m.QueueOrder)

		m, err = env.brackets.UpdateAthletePosition(ctx, group.ID, q.ID, UpdatePositionInput{Position: models.PositionRed})
		require.NoError(t, err)
		assert.Equal(t, models.PositionRed, m.Position)
		assert.Equal(t, 7, m.QueueOrder)
	})
	t.Run("unknown member", func(t *testing.T) {
		_, err := env.brackets.UpdateAthletePosition(ctx, group.ID, 999, UpdatePositionInput{Position: models.PositionQueue})
		assert.ErrorIs(t, err, ErrGroupAthleteNotFound)
	})
}

func TestEliminateAthlete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	a := env.mustAthlete(t, "A")
	b := env.mustAthlete(t, "B")
	_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
	require.NoError(t, err)
	_, err = env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: b.ID})
	require.NoError(t, err)

	m, err := env.brackets.EliminateAthlete(ctx, group.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, m.IsEliminated)
	assert.NotNil(t, m.EliminatedAt)
	assert.Equal(t, models.PositionRed, m.Position)

	_, err = env.brackets.EliminateAthlete(ctx, group.ID, a.ID)
	assert.ErrorIs(t, err, ErrAthleteEliminated)

	live, err := env.brackets.ListGroupAthletes(ctx, group.ID, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, b.ID, live[0].AthleteID)
	require.NotNil(t, live[0].Athlete)
	assert.Equal(t, "B", live[0].Athlete.Name)

	all, err := env.brackets.ListGroupAthletes(ctx, group.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	eliminated, err := env.brackets.ListEliminated(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, eliminated, 1)
	assert.Equal(t, a.ID, eliminated[0].AthleteID)

	// выбывший освобождает красный угол для нового участника
	c := env.mustAthlete(t, "C")
	mc, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PositionRed, mc.Position)
}

func TestUpdateAthleteMedal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	a := env.mustAthlete(t, "A")
	_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
	require.NoError(t, err)

	m, err := env.brackets.UpdateAthleteMedal(ctx, group.ID, a.ID, true)
	require.NoError(t, err)
	assert.True(t, m.HasMedal)
	m, err = env.brackets.UpdateAthleteMedal(ctx, group.ID, a.ID, false)
	require.NoError(t, err)
	assert.False(t, m.HasMedal)
}

func TestAdvanceQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)

	athletes := make([]*models.Athlete, 0, 4)
	for _, name := range []string{"A", "B", "C", "D"} {
		a := env.mustAthlete(t, name)
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
		require.NoError(t, err)
		athletes = append(athletes, a)
	}

	_, err := env.brackets.EliminateAthlete(ctx, group.ID, athletes[0].ID)
	require.NoError(t, err)

	members, err := env.brackets.AdvanceQueue(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, athletes[2].ID, members[0].AthleteID)
	assert.Equal(t, models.PositionRed, members[0].Position)
	assert.Equal(t, 0, members[0].QueueOrder)
	assert.Equal(t, athletes[1].ID, members[1].AthleteID)
	assert.Equal(t, models.PositionBlue, members[1].Position)
	assert.Equal(t, athletes[3].ID, members[2].AthleteID)
	assert.Equal(t, models.PositionQueue, members[2].Position)
	assert.Equal(t, 2, members[2].QueueOrder)

	// углы заняты - ничего не меняется
	again, err := env.brackets.AdvanceQueue(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, members, again)
}

func TestHierarchyValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.brackets.CreateSubCategory(ctx, 77, CreateSubCategoryInput{Name: "Orphan"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.brackets.CreateAthleteGroup(ctx, 77, CreateAthleteGroupInput{Name: "Orphan"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	main, err := env.brackets.CreateMainCategory(ctx, CreateMainCategoryInput{Name: "Poomsae"})
	require.NoError(t, err)
	sub, err := env.brackets.CreateSubCategory(ctx, main.ID, CreateSubCategoryInput{Name: "S"})
	require.NoError(t, err)

	_, err = env.brackets.CreateAthleteGroup(ctx, sub.ID, CreateAthleteGroupInput{Name: "G", MinAthletes: intPtr(4), MaxAthletes: intPtr(3)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	assert.ErrorIs(t, env.brackets.DeleteMainCategory(ctx, main.ID), ErrCategoryInUse)
}

func TestDeleteHierarchyBottomUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	main, err := env.brackets.CreateMainCategory(ctx, CreateMainCategoryInput{Name: "Kyorugi"})
	require.NoError(t, err)
	sub, err := env.brackets.CreateSubCategory(ctx, main.ID, CreateSubCategoryInput{Name: "Junior Putra", Order: 1})
	require.NoError(t, err)
	group, err := env.brackets.CreateAthleteGroup(ctx, sub.ID, CreateAthleteGroupInput{Name: "Partai 1"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.brackets.DeleteSubCategory(ctx, sub.ID), ErrCategoryInUse)
	assert.ErrorIs(t, env.brackets.DeleteMainCategory(ctx, main.ID), ErrCategoryInUse)

	require.NoError(t, env.brackets.DeleteAthleteGroup(ctx, group.ID))
	require.NoError(t, env.brackets.DeleteSubCategory(ctx, sub.ID))
	assert.ErrorIs(t, env.brackets.DeleteSubCategory(ctx, sub.ID), ErrSubCategoryNotFound)

	require.NoError(t, env.brackets.DeleteMainCategory(ctx, main.ID))
	_, err = env.brackets.GetMainCategory(ctx, main.ID)
	assert.ErrorIs(t, err, ErrMainCategoryNotFound)
}

func TestListSubCategoriesSortedByOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	main, err := env.brackets.CreateMainCategory(ctx, CreateMainCategoryInput{Name: "Kyorugi"})
	require.NoError(t, err)

	for _, in := range []CreateSubCategoryInput{{Name: "Senior", Order: 3}, {Name: "Cadet", Order: 1}, {Name: "Junior", Order: 2}} {
		_, err := env.brackets.CreateSubCategory(ctx, main.ID, in)
		require.NoError(t, err)
	}

	subs, err := env.brackets.ListSubCategories(ctx, main.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "Cadet", subs[0].Name)
	assert.Equal(t, "Junior", subs[1].Name)
	assert.Equal(t, "Senior", subs[2].Name)
}

func TestGetBracketTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	a := env.mustAthlete(t, "A")
	_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
	require.NoError(t, err)

	sub, err := env.store.Hierarchy.GetSub(ctx, group.SubCategoryID)
	require.NoError(t, err)

	tree, err := env.brackets.GetBracketTree(ctx, sub.MainCategoryID)
	require.NoError(t, err)
	require.Len(t, tree.SubCategories, 1)
	require.Len(t, tree.SubCategories[0].Groups, 1)
	node := tree.SubCategories[0].Groups[0]
	assert.Equal(t, group.ID, node.Group.ID)
	require.Len(t, node.Athletes, 1)
	assert.Equal(t, "A", node.Athletes[0].Athlete.Name)

	_, err = env.brackets.GetBracketTree(ctx, 404)
	assert.ErrorIs(t, err, ErrMainCategoryNotFound)
}

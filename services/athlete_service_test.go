package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tkd-tournament/models"
)

func strPtr(s string) *string { return &s }

func TestCreateAthleteRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, CreateCategoryInput{Name: "U-54", Type: models.CategoryKyorugi})
	require.NoError(t, err)

	created, err := env.athletes.CreateAthlete(ctx, CreateAthleteInput{
		Name:          "  Budi Santoso ",
		Gender:        "m",
		BirthDate:     "2010-04-02",
		Weight:        52.3,
		Height:        160,
		Belt:          "hitam",
		Dojang:        "Garuda",
		CategoryID:    &cat.ID,
		CompetitionID: "KOMP-1",
		IsPresent:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AthleteAvailable, created.Status)
	assert.Nil(t, created.Ring)

	fetched, err := env.athletes.GetAthlete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", fetched.Name)
	assert.Equal(t, models.GenderMale, fetched.Gender)
	require.NotNil(t, fetched.BirthDate)
	assert.Equal(t, "2010-04-02", fetched.BirthDate.Format("2006-01-02"))
	assert.Equal(t, 52.3, fetched.Weight)
	assert.Equal(t, 160.0, fetched.Height)
	assert.Equal(t, "hitam", fetched.Belt)
	assert.Equal(t, "Garuda", fetched.Dojang)
	assert.Equal(t, cat.ID, *fetched.CategoryID)
	assert.Equal(t, "KOMP-1", fetched.CompetitionID)
	assert.True(t, fetched.IsPresent)
	assert.Equal(t, 1, env.notifier.count(EventAthleteCreated))
}

func TestCreateAthleteValidation(t *testing.T) {
	env := newTestEnv(t)
	missingCategory := 99

	tests := []struct {
		name  string
		input CreateAthleteInput
	}{
		{"empty name", CreateAthleteInput{Name: "  ", Gender: "M"}},
		{"bad gender", CreateAthleteInput{Name: "A", Gender: "X"}},
		{"negative weight", CreateAthleteInput{Name: "A", Gender: "F", Weight: -1}},
		{"bad birth date", CreateAthleteInput{Name: "A", Gender: "F", BirthDate: "02.04.2010"}},
		{"unknown category", CreateAthleteInput{Name: "A", Gender: "F", CategoryID: &missingCategory}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.athletes.CreateAthlete(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestGetAthleteNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.athletes.GetAthlete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAthleteNotFound)
}

func TestSetStatusCompetingRequiresRing(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustAthlete(t, "A")

	_, err := env.athletes.SetStatus(context.Background(), a.ID, models.AthleteCompeting, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrRingRequired)

	_, err = env.athletes.SetStatus(context.Background(), a.ID, "sleeping", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusAntiClash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAthlete(t, "A")
	b := env.mustAthlete(t, "B")

	updated, err := env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("1"))
	require.NoError(t, err)
	assert.Equal(t, "1", *updated.Ring)

	// тот же ринг - идемпотентно
	_, err = env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("1"))
	require.NoError(t, err)

	// другой ринг - конфликт
	_, err = env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("2"))
	assert.ErrorIs(t, err, ErrAthleteBusy)

	// другие спортсмены могут делить ринг
	_, err = env.athletes.SetStatus(ctx, b.ID, models.AthleteCompeting, strPtr("1"))
	require.NoError(t, err)

	competing, err := env.athletes.ListCompeting(ctx)
	require.NoError(t, err)
	assert.Len(t, competing, 2)

	released, err := env.athletes.SetStatus(ctx, a.ID, models.AthleteAvailable, strPtr("1"))
	require.NoError(t, err)
	assert.Nil(t, released.Ring)
}

func TestSetStatusKeepsActiveMatchCornersCompeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.mustAthlete(t, "Red")
	blue := env.mustAthlete(t, "Blue")

	match, err := env.matches.CreateMatch(ctx, CreateMatchInput{RedAthleteID: red.ID, BlueAthleteID: blue.ID, Ring: "A"})
	require.NoError(t, err)

	_, err = env.athletes.SetStatus(ctx, red.ID, models.AthleteAvailable, nil)
	assert.ErrorIs(t, err, ErrAthleteBusy)
	_, err = env.athletes.SetStatus(ctx, red.ID, models.AthleteCompeting, strPtr("B"))
	assert.ErrorIs(t, err, ErrAthleteBusy)

	// тот же ринг матча - без изменений
	_, err = env.athletes.SetStatus(ctx, red.ID, models.AthleteCompeting, strPtr(" A "))
	require.NoError(t, err)

	got, err := env.athletes.GetAthlete(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AthleteCompeting, got.Status)
	require.NotNil(t, got.Ring)
	assert.Equal(t, "A", *got.Ring)

	// после победителя ручная смена статуса снова разрешена
	_, err = env.matches.DeclareWinner(ctx, match.ID, red.ID)
	require.NoError(t, err)
	_, err = env.athletes.SetStatus(ctx, red.ID, models.AthleteCompeting, strPtr("B"))
	assert.NoError(t, err)
}

func TestStatusHistoryAppendsOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAthlete(t, "A")

	_, err := env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("3"))
	require.NoError(t, err)
	_, err = env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("3"))
	require.NoError(t, err)
	_, err = env.athletes.SetStatus(ctx, a.ID, models.AthleteAvailable, nil)
	require.NoError(t, err)

	history, err := env.athletes.StatusHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AthleteAvailable, history[0].From)
	assert.Equal(t, models.AthleteCompeting, history[0].To)
	assert.Equal(t, "3", *history[0].Ring)
	assert.Equal(t, models.AthleteCompeting, history[1].From)
	assert.Equal(t, models.AthleteAvailable, history[1].To)
}

func TestListAvailableRequiresPresence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	present := env.mustAthlete(t, "Present")
	absent := env.mustAthlete(t, "Absent")

	_, err := env.athletes.SetAttendance(ctx, absent.ID, false)
	require.NoError(t, err)

	available, err := env.athletes.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, present.ID, available[0].ID)
	assert.Equal(t, 1, env.notifier.count(EventAttendanceUpdated))
}

func TestSetAttendanceAbsentKeepsCompeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAthlete(t, "A")
	_, err := env.athletes.SetStatus(ctx, a.ID, models.AthleteCompeting, strPtr("1"))
	require.NoError(t, err)

	updated, err := env.athletes.SetAttendance(ctx, a.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsPresent)
	assert.Equal(t, models.AthleteCompeting, updated.Status)
}

func TestUpdateAthleteKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAthlete(t, "A")

	weight := 60.0
	updated, err := env.athletes.UpdateAthlete(ctx, a.ID, UpdateAthleteInput{Weight: &weight, Dojang: strPtr("Elang")})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, 60.0, updated.Weight)
	assert.Equal(t, "Elang", updated.Dojang)

	_, err = env.athletes.UpdateAthlete(ctx, a.ID, UpdateAthleteInput{Name: strPtr("")})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestDeleteAthlete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	a := env.mustAthlete(t, "A")
	b := env.mustAthlete(t, "B")
	c := env.mustAthlete(t, "C")

	_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: a.ID})
	require.NoError(t, err)

	t.Run("competing athlete cannot be deleted", func(t *testing.T) {
		_, err := env.athletes.SetStatus(ctx, c.ID, models.AthleteCompeting, strPtr("1"))
		require.NoError(t, err)
		assert.ErrorIs(t, env.athletes.DeleteAthlete(ctx, c.ID), ErrAthleteBusy)
	})

	t.Run("group membership is removed", func(t *testing.T) {
		require.NoError(t, env.athletes.DeleteAthlete(ctx, a.ID))
		g, err := env.brackets.GetAthleteGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, g.CurrentCount)
		_, err = env.athletes.GetAthlete(ctx, a.ID)
		assert.ErrorIs(t, err, ErrAthleteNotFound)
	})

	t.Run("athlete with match history is referenced", func(t *testing.T) {
		d := env.mustAthlete(t, "D")
		m, err := env.matches.CreateMatch(ctx, CreateMatchInput{RedAthleteID: b.ID, BlueAthleteID: d.ID, Ring: "2"})
		require.NoError(t, err)
		_, err = env.matches.DeclareWinner(ctx, m.ID, b.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, env.athletes.DeleteAthlete(ctx, b.ID), ErrAthleteReferenced)
	})
}

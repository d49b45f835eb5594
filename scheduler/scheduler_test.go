package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tkd-tournament/services"
)

type fakeImporter struct {
	mu       sync.Mutex
	calls    []string
	deadline bool
	err      error
}

func (f *fakeImporter) ImportCompetition(ctx context.Context, competitionID string) (*services.SyncReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, competitionID)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &services.SyncReport{CompetitionID: competitionID, Fetched: 3, Imported: 2, Skipped: 1}, nil
}

func (f *fakeImporter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewValidation(t *testing.T) {
	imp := &fakeImporter{}

	_, err := New(Config{CompetitionID: "X"}, imp, quietLogger())
	assert.Error(t, err)

	_, err = New(Config{CronSpec: "@hourly"}, imp, quietLogger())
	assert.Error(t, err)

	_, err = New(Config{CronSpec: "every now and then", CompetitionID: "X"}, imp, quietLogger())
	assert.Error(t, err)

	s, err := New(Config{CronSpec: "*/15 * * * *", CompetitionID: "X"}, imp, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.config.Timeout)
}

func TestRunOnce(t *testing.T) {
	imp := &fakeImporter{}
	s, err := New(Config{CronSpec: "@hourly", CompetitionID: "POPDA-2024", Timeout: time.Second}, imp, quietLogger())
	require.NoError(t, err)

	s.runOnce()
	assert.Equal(t, []string{"POPDA-2024"}, imp.calls)
	assert.True(t, imp.deadline)

	imp.err = errors.New("sheets down")
	assert.NotPanics(t, s.runOnce)
	assert.Equal(t, 2, imp.callCount())
}

func TestStartStop(t *testing.T) {
	imp := &fakeImporter{}
	s, err := New(Config{CronSpec: "@every 1s", CompetitionID: "X"}, imp, quietLogger())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return imp.callCount() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	stopped := imp.callCount()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, stopped, imp.callCount())
}

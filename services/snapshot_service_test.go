package services

import (
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tkd-tournament/storage"
)

type fakeArchive struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeArchive) Put(_ context.Context, key, contentType string, reader io.Reader) (*storage.PutResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.objects[key] = body
	f.types[key] = contentType
	return &storage.PutResult{Key: key, Location: f.PublicURL(key)}, nil
}

func (f *fakeArchive) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (f *fakeArchive) PublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

func TestSnapshotKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b7d-4c55-9a61-0d2e8f4b7c10")
	takenAt := time.Date(2024, 8, 17, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "snapshots/2024-08-17/6f1c2a9e-3b7d-4c55-9a61-0d2e8f4b7c10.json", SnapshotKey(takenAt, id))
}

func TestBuildSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.mustGroup(t, 0)
	a := env.mustAthlete(t, "A")
	b := env.mustAthlete(t, "B")
	for _, athlete := range []int{a.ID, b.ID} {
		_, err := env.brackets.AddAthleteToGroup(ctx, group.ID, AddGroupAthleteInput{AthleteID: athlete})
		require.NoError(t, err)
	}
	_, err := env.matches.CreateMatch(ctx, CreateMatchInput{GroupID: &group.ID, RedAthleteID: a.ID, BlueAthleteID: b.ID, Ring: "1"})
	require.NoError(t, err)

	snaps := NewSnapshotService(env.store, NewCoordinator(), nil, discardLogger())
	snap, err := snaps.BuildSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Len(t, snap.Athletes, 2)
	assert.Len(t, snap.MainCategories, 1)
	assert.Len(t, snap.SubCategories, 1)
	assert.Len(t, snap.Groups, 1)
	assert.Len(t, snap.GroupAthletes, 2)
	assert.Len(t, snap.Matches, 1)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Results)
}

func TestArchiveSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustAthlete(t, "A")

	t.Run("archive disabled", func(t *testing.T) {
		snaps := NewSnapshotService(env.store, NewCoordinator(), nil, discardLogger())
		_, err := snaps.ArchiveSnapshot(ctx)
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		_, err = snaps.ListArchived(ctx)
		assert.ErrorIs(t, err, ErrArchiveDisabled)
	})

	t.Run("upload and list", func(t *testing.T) {
		archive := newFakeArchive()
		snaps := NewSnapshotService(env.store, NewCoordinator(), archive, discardLogger())

		res, err := snaps.ArchiveSnapshot(ctx)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^snapshots/\d{4}-\d{2}-\d{2}/[0-9a-f-]{36}\.json$`), res.Key)
		assert.Equal(t, "application/json", archive.types[res.Key])

		var decoded Snapshot
		require.NoError(t, json.Unmarshal(archive.objects[res.Key], &decoded))
		assert.Len(t, decoded.Athletes, 1)

		listed, err := snaps.ListArchived(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, res.Key, listed[0].Key)
	})
}

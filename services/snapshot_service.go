package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/storage"
)

const (
	SnapshotVersion = 1
	snapshotPrefix  = "snapshots/"
)

// Snapshot - полная выгрузка состояния турнира.
type Snapshot struct {
	Version        int                    `json:"version"`
	TakenAt        time.Time              `json:"taken_at"`
	Athletes       []*models.Athlete      `json:"athletes"`
	MainCategories []*models.MainCategory `json:"main_categories"`
	SubCategories  []*models.SubCategory  `json:"sub_categories"`
	Groups         []*models.AthleteGroup `json:"groups"`
	GroupAthletes  []*models.GroupAthlete `json:"group_athletes"`
	Matches        []*models.Match        `json:"matches"`
	Categories     []*models.Category     `json:"categories"`
	Results        []*models.Result       `json:"results"`
}

type SnapshotService interface {
	BuildSnapshot(ctx context.Context) (*Snapshot, error)
	ArchiveSnapshot(ctx context.Context) (*storage.PutResult, error)
	ListArchived(ctx context.Context) ([]storage.ObjectInfo, error)
}

type snapshotService struct {
	store   *repositories.Store
	coord   *Coordinator
	archive storage.Archive
	logger  *slog.Logger
}

// NewSnapshotService: archive == nil отключает выгрузку в хранилище.
func NewSnapshotService(store *repositories.Store, coord *Coordinator, archive storage.Archive, logger *slog.Logger) SnapshotService {
	return &snapshotService{store: store, coord: coord, archive: archive, logger: logger}
}

func (s *snapshotService) BuildSnapshot(ctx context.Context) (*Snapshot, error) {
	s.coord.RLock()
	defer s.coord.RUnlock()

	snap := &Snapshot{Version: SnapshotVersion, TakenAt: time.Now().UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Athletes, err = s.store.Athletes.List(gctx, repositories.AthleteFilter{})
		return wrapSnapshotErr("athletes", err)
	})
	g.Go(func() (err error) {
		snap.MainCategories, err = s.store.Hierarchy.ListMain(gctx)
		return wrapSnapshotErr("main categories", err)
	})
	g.Go(func() (err error) {
		snap.SubCategories, err = s.store.Hierarchy.ListSubs(gctx, nil)
		return wrapSnapshotErr("sub categories", err)
	})
	g.Go(func() (err error) {
		snap.Groups, err = s.store.Groups.List(gctx, nil)
		return wrapSnapshotErr("groups", err)
	})
	g.Go(func() (err error) {
		snap.GroupAthletes, err = s.store.Groups.ListAllMembers(gctx)
		return wrapSnapshotErr("group athletes", err)
	})
	g.Go(func() (err error) {
		snap.Matches, err = s.store.Matches.List(gctx, repositories.MatchFilter{})
		return wrapSnapshotErr("matches", err)
	})
	g.Go(func() (err error) {
		snap.Categories, err = s.store.Categories.List(gctx, false)
		return wrapSnapshotErr("categories", err)
	})
	g.Go(func() (err error) {
		snap.Results, err = s.store.Results.List(gctx, nil)
		return wrapSnapshotErr("results", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func wrapSnapshotErr(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to collect %s: %w", what, err)
	}
	return nil
}

func (s *snapshotService) ArchiveSnapshot(ctx context.Context) (*storage.PutResult, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	snap, err := s.BuildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := SnapshotKey(snap.TakenAt, uuid.New())
	res, err := s.archive.Put(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot upload failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}
	s.logger.InfoContext(ctx, "snapshot archived", slog.String("key", res.Key), slog.Int("bytes", len(body)))
	return res, nil
}

func (s *snapshotService) ListArchived(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx, snapshotPrefix)
}

// SnapshotKey: snapshots/<YYYY-MM-DD>/<uuid>.json
func SnapshotKey(takenAt time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s%s/%s.json", snapshotPrefix, takenAt.UTC().Format("2006-01-02"), id.String())
}

package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	store *repositories.Store
	coord *Coordinator
}

func NewDashboardService(store *repositories.Store, coord *Coordinator) DashboardService {
	return &dashboardService{store: store, coord: coord}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	s.coord.RLock()
	defer s.coord.RUnlock()

	var (
		stats    models.DashboardStats
		athletes []*models.Athlete
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.store.Athletes.List(gctx, repositories.AthleteFilter{})
		if err != nil {
			return fmt.Errorf("failed to count athletes: %w", err)
		}
		athletes = list
		return nil
	})
	g.Go(func() error {
		categories, err := s.store.Categories.List(gctx, true)
		if err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		stats.ActiveCategories = len(categories)
		return nil
	})
	g.Go(func() error {
		status := models.MatchActive
		matches, err := s.store.Matches.List(gctx, repositories.MatchFilter{Status: &status})
		if err != nil {
			return fmt.Errorf("failed to count active matches: %w", err)
		}
		stats.ActiveMatches = len(matches)
		return nil
	})
	g.Go(func() error {
		status := models.MatchCompleted
		matches, err := s.store.Matches.List(gctx, repositories.MatchFilter{Status: &status})
		if err != nil {
			return fmt.Errorf("failed to count completed matches: %w", err)
		}
		stats.CompletedMatches = len(matches)
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}

	stats.TotalAthletes = len(athletes)
	for _, a := range athletes {
		if a.IsPresent {
			stats.PresentAthletes++
		}
		switch a.Status {
		case models.AthleteAvailable:
			stats.AvailableAthletes++
		case models.AthleteCompeting:
			stats.CompetingAthletes++
		}
	}
	return stats, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/sheets"
)

const DefaultSyncTimeout = 10 * time.Second

// RosterSource - внешний источник заявок (Google Sheets).
type RosterSource interface {
	FetchCompetitionAthletes(ctx context.Context, competitionID string) ([]sheets.RawRecord, error)
}

// TransferSink принимает спортсменов пачкой; ошибки по строкам только считаются.
type TransferSink interface {
	PushAthleteBatch(ctx context.Context, records []sheets.RawRecord) sheets.PushResult
}

type SyncReport struct {
	CompetitionID string   `json:"competition_id"`
	Fetched       int      `json:"fetched"`
	Imported      int      `json:"imported"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors,omitempty"`
}

type TransferReport struct {
	TotalCount   int      `json:"total_count"`
	SuccessCount int      `json:"success_count"`
	Errors       []string `json:"errors,omitempty"`
}

// RosterService - best-effort синхронизация с таблицей, не атомарна
// относительно локальных изменений.
type RosterService interface {
	ImportCompetition(ctx context.Context, competitionID string) (*SyncReport, error)
	TransferAthletes(ctx context.Context, filter repositories.AthleteFilter) (*TransferReport, error)
}

type rosterService struct {
	athletes AthleteService
	source   RosterSource
	sink     TransferSink
	timeout  time.Duration
	notifier Notifier
	logger   *slog.Logger
}

// NewRosterService: source и sink могут быть nil, тогда операции вернут ErrSyncDisabled.
func NewRosterService(athletes AthleteService, source RosterSource, sink TransferSink, timeout time.Duration, notifier Notifier, logger *slog.Logger) RosterService {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &rosterService{
		athletes: athletes,
		source:   source,
		sink:     sink,
		timeout:  timeout,
		notifier: notifierOrNop(notifier),
		logger:   logger,
	}
}

func (s *rosterService) ImportCompetition(ctx context.Context, competitionID string) (*SyncReport, error) {
	competitionID = strings.TrimSpace(competitionID)
	report := &SyncReport{CompetitionID: competitionID}
	if s.source == nil {
		return report, ErrSyncDisabled
	}
	if competitionID == "" {
		return report, validationError("competition id is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	records, err := s.source.FetchCompetitionAthletes(fetchCtx, competitionID)
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "roster fetch failed",
			slog.String("competition_id", competitionID), slog.Any("error", err))
		return report, fmt.Errorf("%w: %v", ErrExternalSync, err)
	}
	report.Fetched = len(records)

	existing, err := s.athletes.ListAthletes(ctx, repositories.AthleteFilter{CompetitionID: &competitionID})
	if err != nil {
		return report, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[rosterKey(sheets.FromAthlete(a))] = struct{}{}
	}

	for i, raw := range records {
		rec, err := sheets.Decode(raw)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if rec.CompetitionID == "" {
			rec.CompetitionID = competitionID
		}
		key := rosterKey(rec)
		if _, dup := seen[key]; dup {
			report.Skipped++
			continue
		}

		if _, err := s.athletes.CreateAthlete(ctx, createInputFromRecord(rec)); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		seen[key] = struct{}{}
		report.Imported++
	}

	s.logger.InfoContext(ctx, "roster imported",
		slog.String("competition_id", competitionID),
		slog.Int("fetched", report.Fetched),
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped))
	s.notifier.Publish(EventRosterImported, report)
	return report, nil
}

func (s *rosterService) TransferAthletes(ctx context.Context, filter repositories.AthleteFilter) (*TransferReport, error) {
	if s.sink == nil {
		return &TransferReport{}, ErrSyncDisabled
	}
	athletes, err := s.athletes.ListAthletes(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]sheets.RawRecord, 0, len(athletes))
	for _, a := range athletes {
		records = append(records, sheets.Encode(sheets.FromAthlete(a)))
	}

	pushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res := s.sink.PushAthleteBatch(pushCtx, records)

	if res.SuccessCount < res.TotalCount {
		s.logger.WarnContext(ctx, "athlete transfer partially failed",
			slog.Int("success", res.SuccessCount), slog.Int("total", res.TotalCount))
	}
	return &TransferReport{TotalCount: res.TotalCount, SuccessCount: res.SuccessCount, Errors: res.Errors}, nil
}

func createInputFromRecord(rec sheets.AthleteRecord) CreateAthleteInput {
	return CreateAthleteInput{
		Name:          rec.Name,
		Gender:        string(rec.Gender),
		BirthDate:     rec.BirthDate,
		Weight:        rec.Weight,
		Height:        rec.Height,
		Belt:          rec.Belt,
		Dojang:        rec.Dojang,
		CategoryID:    rec.CategoryID,
		CompetitionID: rec.CompetitionID,
		IsPresent:     rec.IsPresent,
	}
}

// rosterKey - повторный импорт не создаёт дублей одного и того же спортсмена.
func rosterKey(rec sheets.AthleteRecord) string {
	return strings.ToLower(strings.TrimSpace(rec.Name)) + "|" + rec.BirthDate + "|" + string(rec.Gender)
}

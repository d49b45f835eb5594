package sheets

import (
	"context"
	"fmt"
	"strings"
)

// PushResult - итог пакетной записи: ошибки по строкам считаются, а не возвращаются.
type PushResult struct {
	SuccessCount int      `json:"success_count"`
	TotalCount   int      `json:"total_count"`
	Errors       []string `json:"errors,omitempty"`
}

// FetchCompetitionAthletes читает лист заявок и возвращает строки соревнования.
// Пустой competitionID возвращает все строки.
func (c *Client) FetchCompetitionAthletes(ctx context.Context, competitionID string) ([]RawRecord, error) {
	values, err := c.readAll(ctx, c.rosterSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.rosterSheet, err)
	}
	return recordsFromValues(values, strings.TrimSpace(competitionID)), nil
}

func recordsFromValues(values [][]interface{}, competitionID string) []RawRecord {
	if len(values) == 0 {
		return []RawRecord{}
	}
	// header row at index 0
	header := make([]string, len(values[0]))
	for i := range values[0] {
		header[i] = normalizeHeader(get(values[0], i))
	}

	records := make([]RawRecord, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := values[i]
		if len(row) == 0 {
			continue
		}
		rec := make(RawRecord, len(header))
		for idx, col := range header {
			if col == "" {
				continue
			}
			rec[col] = strings.TrimSpace(get(row, idx))
		}
		if competitionID != "" && rec[ColCompetitionID] != competitionID {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// PushAthleteBatch добавляет записи в лист переноса по одной строке.
func (c *Client) PushAthleteBatch(ctx context.Context, records []RawRecord) PushResult {
	result := PushResult{TotalCount: len(records)}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if err := c.appendRow(ctx, c.transferSheet, rec.Row()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

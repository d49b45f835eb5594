package repositories

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/Dosada05/tkd-tournament/models"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func positionRank(p models.Position) int {
	switch p {
	case models.PositionRed:
		return 0
	case models.PositionBlue:
		return 1
	default:
		return 2
	}
}

// sortMembers упорядочивает участников группы: красный, синий, очередь.
func sortMembers(members []*models.GroupAthlete) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if ra, rb := positionRank(a.Position), positionRank(b.Position); ra != rb {
			return ra < rb
		}
		if a.QueueOrder != b.QueueOrder {
			return a.QueueOrder < b.QueueOrder
		}
		return a.ID < b.ID
	})
}

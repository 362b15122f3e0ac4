package services

import (
	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/ordering"
)

// applyShifts turns ordering.Shift values into conditional bulk updates on the
// given model, scoped to one container (project_id for columns, column_id for
// tasks). Must run inside the same transaction as the moved entity's write.
func applyShifts(tx *gorm.DB, model any, scopeColumn string, scopeID uint, shifts ...ordering.Shift) error {
	for _, shift := range shifts {
		query := tx.Model(model).
			Where(scopeColumn+` = ? AND "order" >= ?`, scopeID, shift.Low)

		if shift.High != ordering.Unbounded {
			query = query.Where(`"order" <= ?`, shift.High)
		}

		if err := query.UpdateColumn("order", gorm.Expr(`"order" + ?`, shift.Delta)).Error; err != nil {
			return err
		}
	}

	return nil
}

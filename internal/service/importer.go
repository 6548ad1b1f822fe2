package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const importBatchSize = 500

// ImportIngredients loads name,measurement_unit rows into the catalogue.
// Rows whose name already exists are skipped, so the import can be rerun.
func ImportIngredients(ctx context.Context, db *gorm.DB, r io.Reader) (types.ImportResult, error) {
	var result types.ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	seen := make(map[string]bool)
	batch := make([]models.Ingredient, 0, importBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&batch)
		if res.Error != nil {
			return fmt.Errorf("insert ingredients: %w", res.Error)
		}
		result.Created += int(res.RowsAffected)
		result.Skipped += len(batch) - int(res.RowsAffected)
		batch = batch[:0]
		return nil
	}

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return result, fmt.Errorf("line %d: expected name,measurement_unit", line)
		}

		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(name, "name") && strings.EqualFold(unit, "measurement_unit") {
			continue
		}
		if name == "" || unit == "" || seen[name] {
			result.Skipped++
			continue
		}
		seen[name] = true

		batch = append(batch, models.Ingredient{Name: name, MeasurementUnit: unit})
		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

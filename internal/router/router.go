// Package router partitions normalized records into the two persisted
// planting logs by task type.
package router

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"garden31/tend-sync/internal/models"
)

// Task type labels, compared after trimming and lowercasing.
const (
	TaskContainerSow = "container sow"
	TaskTransplant   = "transplant"
	TaskPrecisionSow = "precision sow"
)

// Derived Direct/Transplant labels for the row planting log.
const (
	LabelTransplant = "Transplant"
	LabelDirect     = "Direct"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Result holds the two routed groups plus observability counters.
// SeedsTotal sums the parseable greenhouse quantities for the run summary.
type Result struct {
	Greenhouse   []models.GreenhousePlanting
	Row          []models.RowPlanting
	Unrecognized int
	SeedsTotal   decimal.Decimal
}

// Route partitions records by task type: Container Sow rows feed the
// greenhouse planting log, Transplant and Precision Sow rows feed the row
// planting log with a derived Direct/Transplant label. Only these known
// categories are persisted; anything else is dropped and counted, not an
// error.
func Route(records []models.NormalizedRecord) Result {
	result := Result{SeedsTotal: decimal.Zero}
	for _, rec := range records {
		switch strings.ToLower(strings.TrimSpace(rec.TaskType)) {
		case TaskContainerSow:
			result.Greenhouse = append(result.Greenhouse, models.GreenhousePlanting{
				TendID:    rec.TendID,
				Date:      rec.Date,
				PlantName: rec.PlantName,
				Variety:   rec.Variety,
				Quantity:  rec.Quantity,
			})
			if rec.Quantity != nil {
				if qty, err := decimal.NewFromString(*rec.Quantity); err == nil {
					result.SeedsTotal = result.SeedsTotal.Add(qty)
				}
			}
		case TaskTransplant, TaskPrecisionSow:
			result.Row = append(result.Row, models.RowPlanting{
				TendID:           rec.TendID,
				Date:             rec.Date,
				PlantName:        rec.PlantName,
				Variety:          rec.Variety,
				Location:         rec.Location,
				Spacing:          rec.Spacing,
				DirectTransplant: directTransplant(rec.TaskType),
			})
		default:
			log.WithFields(logrus.Fields{
				"task_type": rec.TaskType,
				"tend_id":   rec.TendID,
			}).Debug("Unrecognized task type, dropping record")
			result.Unrecognized++
		}
	}
	return result
}

// directTransplant maps a task type to the row planting log's
// Direct/Transplant label. Values outside the row group map to nil.
func directTransplant(taskType string) *string {
	var label string
	switch strings.ToLower(strings.TrimSpace(taskType)) {
	case TaskTransplant:
		label = LabelTransplant
	case TaskPrecisionSow:
		label = LabelDirect
	default:
		return nil
	}
	return &label
}

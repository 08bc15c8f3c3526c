// Package transformer converts raw export rows into canonical normalized
// records.
package transformer

import (
	"strings"

	"github.com/sirupsen/logrus"

	"garden31/tend-sync/internal/dateutils"
	"garden31/tend-sync/internal/models"
	"garden31/tend-sync/internal/schema"
	"garden31/tend-sync/internal/tendcsv"
	"garden31/tend-sync/internal/textutils"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Transform normalizes every row of doc into the canonical record shape.
//
// The column mapping is resolved once against the document's aggregate
// header set; a missing required column fails the whole run before any row
// is touched. Per-row coercion never fails: malformed dates and numbers
// degrade to absent fields. Rows whose Tend ID is empty after trimming are
// blank terminator rows some exports include and are dropped silently.
func Transform(doc *tendcsv.Document, mapping schema.Mapping) ([]models.NormalizedRecord, error) {
	resolved, err := mapping.Resolve(doc.Headers)
	if err != nil {
		return nil, err
	}

	records := make([]models.NormalizedRecord, 0, len(doc.Rows))
	dropped := 0
	for _, row := range doc.Rows {
		rec := normalizeRow(row, resolved)
		if rec.TendID == "" {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		log.WithField("count", dropped).Debug("Dropped rows without a Tend ID")
	}
	return records, nil
}

func normalizeRow(row tendcsv.Row, resolved schema.Resolved) models.NormalizedRecord {
	get := func(logical string) string {
		v, _ := resolved.Get(row, logical)
		return v
	}

	name, variety := textutils.SplitPlanting(get(schema.ColPlanting))
	rec := models.NormalizedRecord{
		TendID:    strings.TrimSpace(get(schema.ColTaskID)),
		TaskType:  strings.TrimSpace(get(schema.ColTaskType)),
		Date:      dateutils.CoerceISO(get(schema.ColStartDate)),
		PlantName: name,
		Variety:   variety,
		Quantity:  textutils.CleanNumeric(get(schema.ColSeedsNeeded)),
		Location:  strings.TrimSpace(get(schema.ColLocation)),
	}
	if v, ok := resolved.Get(row, schema.ColSpacing); ok {
		rec.Spacing = textutils.CleanNumeric(v)
	}
	return rec
}

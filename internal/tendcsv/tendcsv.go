// Package tendcsv reads Tend export CSV files. An export concatenates
// several sections (Container Sow, Transplant, Precision Sow), each opening
// with its own header line, into a single file; this package flattens them
// into one sequence of row maps.
package tendcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// HeaderSentinel marks a section header line: any row whose first cell,
// trimmed, equals this value starts a new section.
const HeaderSentinel = "Task Id"

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Row maps a section's header names to the raw cell values of one line.
type Row map[string]string

// Document is the flattened result of reading a multi-section export.
// Headers is the union of every section's header names in first-seen order.
type Document struct {
	Rows    []Row
	Headers []string
}

// Parse reads a multi-section Tend CSV from r.
//
// Rows before the first header line are section titles or decoration and
// are skipped. Data rows wider than their header are truncated; narrower
// rows are padded with empty strings. Rows whose sentinel column is empty
// (footers, stray terminators) are dropped. A section with no data rows is
// fine and contributes nothing.
func Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // sections differ in width

	doc := &Document{}
	seen := make(map[string]bool)
	var headers []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading export: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if strings.TrimSpace(record[0]) == HeaderSentinel {
			headers = cleanHeaders(record)
			for _, h := range headers {
				if !seen[h] {
					seen[h] = true
					doc.Headers = append(doc.Headers, h)
				}
			}
			continue
		}
		if headers == nil {
			continue
		}

		row := zipRow(headers, record)
		if strings.TrimSpace(row[HeaderSentinel]) == "" {
			continue
		}
		doc.Rows = append(doc.Rows, row)
	}

	log.WithFields(logrus.Fields{
		"rows":    len(doc.Rows),
		"columns": len(doc.Headers),
	}).Debug("Parsed multi-section export")
	return doc, nil
}

// ParseFile opens path and parses it as a multi-section Tend CSV.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening export file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close export file")
		}
	}()
	return Parse(file)
}

// cleanHeaders trims every header cell and strips trailing empty cells.
func cleanHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	return headers
}

// zipRow pairs a record against headers, truncating extra cells and padding
// missing trailing ones with empty strings.
func zipRow(headers, record []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

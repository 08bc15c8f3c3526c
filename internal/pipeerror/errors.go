// Package pipeerror defines the typed errors shared across the ingestion
// pipeline. All of them are fatal to the run in which they occur.
package pipeerror

import (
	"fmt"
	"strings"
)

// SchemaError reports required logical columns that could not be resolved
// against the headers actually present in the export. It carries both sides
// so export schema drift can be diagnosed from the error alone.
type SchemaError struct {
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns [%s] in export; available columns: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// SegmentNotFoundError reports a path segment that the fallback folder walk
// could not find. Siblings holds the names (with kind) present at the level
// where the walk stopped.
type SegmentNotFoundError struct {
	Segment  string
	Siblings []string
}

func (e *SegmentNotFoundError) Error() string {
	return fmt.Sprintf("folder segment %q not found; entries at this level: [%s]",
		e.Segment, strings.Join(e.Siblings, ", "))
}

// RequestError reports a non-success response from a remote endpoint.
// Body holds at most the first few hundred bytes of the response.
type RequestError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

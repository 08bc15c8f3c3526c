// Package models defines the canonical record shapes produced by the
// ingestion pipeline and the two projections persisted downstream.
package models

// NormalizedRecord is the canonical, store-agnostic shape a Tend export row
// is normalized into. Optional fields are nil when the source value was
// missing or could not be coerced. TaskType is pipeline-internal metadata
// used only for routing; it never appears in a persisted payload.
type NormalizedRecord struct {
	TendID    string
	TaskType  string
	Date      *string
	PlantName *string
	Variety   *string
	Quantity  *string
	Location  string
	Spacing   *string
}

// GreenhousePlanting is the projection persisted for Container Sow tasks.
// Tags carry the exact column names of the greenhouse planting table.
type GreenhousePlanting struct {
	TendID    string  `json:"Tend ID" csv:"Tend ID"`
	Date      *string `json:"Date" csv:"Date"`
	PlantName *string `json:"Plant Name" csv:"Plant Name"`
	Variety   *string `json:"Variety" csv:"Variety"`
	Quantity  *string `json:"Quantity" csv:"Quantity"`
}

// RowPlanting is the projection persisted for Transplant and Precision Sow
// tasks. DirectTransplant is derived from the task type ("Transplant" or
// "Direct") and replaces it in the payload.
type RowPlanting struct {
	TendID           string  `json:"Tend ID" csv:"Tend ID"`
	Date             *string `json:"Date" csv:"Date"`
	PlantName        *string `json:"Plant Name" csv:"Plant Name"`
	Variety          *string `json:"Variety" csv:"Variety"`
	Location         string  `json:"Location" csv:"Location"`
	Spacing          *string `json:"Spacing" csv:"Spacing"`
	DirectTransplant *string `json:"Direct/Transplant" csv:"Direct/Transplant"`
}
